package service

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"devfolio/internal/dto"
	"devfolio/internal/model"
	"devfolio/pkg/constants"
	pkgErrors "devfolio/pkg/responses"
)

// fakeUserRepo 内存版UserRepository，测试用
type fakeUserRepo struct {
	users  map[int64]*model.User
	nextID int64

	createErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*model.User), nextID: 1}
}

func (f *fakeUserRepo) Create(user *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	user.ID = f.nextID
	f.nextID++
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) FindByID(id int64) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, pkgErrors.ErrRecordNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) FindByUsername(username string) (*model.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, pkgErrors.ErrRecordNotFound
}

func (f *fakeUserRepo) FindByProviderIdentifier(provider, identifierField string, identifierValue interface{}) (*model.User, error) {
	want := fmt.Sprintf("%v", identifierValue)
	for _, u := range f.users {
		if u.Provider == provider && matchJSON(u.ProviderData, identifierField, want) {
			copied := *u
			return &copied, nil
		}
		if nested, ok := u.AdditionalProvidersData[provider].(map[string]interface{}); ok {
			if fmt.Sprintf("%v", nested[identifierField]) == want {
				copied := *u
				return &copied, nil
			}
		}
	}
	return nil, pkgErrors.ErrRecordNotFound
}

func matchJSON(data datatypes.JSON, field, want string) bool {
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return false
	}
	return fmt.Sprintf("%v", m[field]) == want
}

func (f *fakeUserRepo) FindUniqueUsername(candidate string) (string, error) {
	if candidate == "" {
		candidate = "user"
	}
	username := candidate
	for suffix := 1; ; suffix++ {
		if _, err := f.FindByUsername(username); err == pkgErrors.ErrRecordNotFound {
			return username, nil
		}
		username = fmt.Sprintf("%s%d", candidate, suffix)
	}
}

func (f *fakeUserRepo) Update(user *model.User) error {
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) UpdateAdditionalProviders(id int64, data datatypes.JSONMap) error {
	u, ok := f.users[id]
	if !ok {
		return pkgErrors.ErrRecordNotFound
	}
	u.AdditionalProvidersData = data
	return nil
}

func (f *fakeUserRepo) UpdateLastLogin(id int64) error { return nil }

func (f *fakeUserRepo) ListMirrorCandidates() ([]*model.User, error) {
	oauth := map[string]bool{constants.ProviderGitHub: true, constants.ProviderGoogle: true}

	var out []*model.User
	for _, u := range f.users {
		if u.Status != constants.StatusEnabled {
			continue
		}
		linked := oauth[u.Provider]
		for provider := range u.AdditionalProvidersData {
			if oauth[provider] {
				linked = true
			}
		}
		if linked {
			out = append(out, u)
		}
	}
	return out, nil
}

// fakeEnqueuer 记录投递过的用户ID
type fakeEnqueuer struct {
	enqueued []int64
}

func (f *fakeEnqueuer) Enqueue(userID int64) {
	f.enqueued = append(f.enqueued, userID)
}

func githubProfile(id int) *dto.ProviderProfile {
	return &dto.ProviderProfile{
		Provider:                constants.ProviderGitHub,
		ProviderIdentifierField: "id",
		ProviderData: map[string]interface{}{
			"id":    id,
			"login": "octocat",
		},
		Username:    "octocat",
		Email:       "octocat@example.com",
		DisplayName: "The Octocat",
	}
}

func TestResolveOrLink_CreatesUserOnFirstLogin(t *testing.T) {
	repo := newFakeUserRepo()
	mirror := &fakeEnqueuer{}
	svc := NewIdentityService(repo, mirror)

	user, redirect, err := svc.ResolveOrLink(nil, githubProfile(42))
	require.NoError(t, err)
	assert.Empty(t, redirect)
	assert.Equal(t, "octocat", user.Username)
	assert.Equal(t, constants.ProviderGitHub, user.Provider)
	assert.NotZero(t, user.ID)

	// 提供方档案原样保存
	var saved map[string]interface{}
	require.NoError(t, json.Unmarshal(user.ProviderData, &saved))
	assert.Equal(t, float64(42), saved["id"])
	assert.Equal(t, "octocat", saved["login"])

	// 用已持久化的用户ID触发同步
	require.Len(t, mirror.enqueued, 1)
	assert.Equal(t, user.ID, mirror.enqueued[0])
}

func TestResolveOrLink_ExistingUserNoWrite(t *testing.T) {
	repo := newFakeUserRepo()
	mirror := &fakeEnqueuer{}
	svc := NewIdentityService(repo, mirror)

	first, _, err := svc.ResolveOrLink(nil, githubProfile(42))
	require.NoError(t, err)

	// 再次以同一外部身份登录，命中已有用户，不创建新记录
	second, redirect, err := svc.ResolveOrLink(nil, githubProfile(42))
	require.NoError(t, err)
	assert.Empty(t, redirect)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.users, 1)
}

func TestResolveOrLink_CreateFailurePropagates(t *testing.T) {
	repo := newFakeUserRepo()
	repo.createErr = pkgErrors.ErrDatabaseError
	mirror := &fakeEnqueuer{}
	svc := NewIdentityService(repo, mirror)

	// 持久化失败原样向上抛，不重试，不触发镜像同步
	_, _, err := svc.ResolveOrLink(nil, githubProfile(42))
	assert.ErrorIs(t, err, pkgErrors.ErrDatabaseError)
	assert.Empty(t, mirror.enqueued)
	assert.Empty(t, repo.users)
}

func TestResolveOrLink_UsernameCollisionGetsSuffix(t *testing.T) {
	repo := newFakeUserRepo()
	mirror := &fakeEnqueuer{}
	svc := NewIdentityService(repo, mirror)

	_, _, err := svc.ResolveOrLink(nil, githubProfile(1))
	require.NoError(t, err)

	// 不同外部身份但相同候选用户名
	other, _, err := svc.ResolveOrLink(nil, githubProfile(2))
	require.NoError(t, err)
	assert.Equal(t, "octocat1", other.Username)
}

func TestResolveOrLink_LinkAddsProvider(t *testing.T) {
	repo := newFakeUserRepo()
	mirror := &fakeEnqueuer{}
	svc := NewIdentityService(repo, mirror)

	user, _, err := svc.ResolveOrLink(nil, githubProfile(42))
	require.NoError(t, err)

	google := &dto.ProviderProfile{
		Provider:                constants.ProviderGoogle,
		ProviderIdentifierField: "sub",
		ProviderData:            map[string]interface{}{"sub": "g-123"},
		Email:                   "octocat@gmail.com",
	}

	linked, redirect, err := svc.ResolveOrLink(user, google)
	require.NoError(t, err)
	assert.Equal(t, constants.RedirectSettingsAccounts, redirect)

	// 主提供方不变，附加提供方新增一项
	assert.Equal(t, constants.ProviderGitHub, linked.Provider)
	require.Contains(t, linked.AdditionalProvidersData, constants.ProviderGoogle)
	assert.Len(t, linked.AdditionalProvidersData, 1)

	// 之后可以用附加提供方的身份直接登录
	found, _, err := svc.ResolveOrLink(nil, google)
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
}

func TestResolveOrLink_LinkSameProviderRejected(t *testing.T) {
	repo := newFakeUserRepo()
	mirror := &fakeEnqueuer{}
	svc := NewIdentityService(repo, mirror)

	user, _, err := svc.ResolveOrLink(nil, githubProfile(42))
	require.NoError(t, err)

	// 主提供方重复绑定
	_, _, err = svc.ResolveOrLink(user, githubProfile(99))
	assert.ErrorIs(t, err, pkgErrors.ErrProviderAlreadyConnected)
	assert.Empty(t, repo.users[user.ID].AdditionalProvidersData)

	// 附加提供方重复绑定
	google := &dto.ProviderProfile{
		Provider:                constants.ProviderGoogle,
		ProviderIdentifierField: "sub",
		ProviderData:            map[string]interface{}{"sub": "g-1"},
	}
	linked, _, err := svc.ResolveOrLink(user, google)
	require.NoError(t, err)

	_, _, err = svc.ResolveOrLink(linked, google)
	assert.ErrorIs(t, err, pkgErrors.ErrProviderAlreadyConnected)
	assert.Len(t, repo.users[user.ID].AdditionalProvidersData, 1)
}

func TestResolveOrLink_LinkDoesNotMutateOriginalMap(t *testing.T) {
	repo := newFakeUserRepo()
	mirror := &fakeEnqueuer{}
	svc := NewIdentityService(repo, mirror)

	user, _, err := svc.ResolveOrLink(nil, githubProfile(42))
	require.NoError(t, err)
	user.AdditionalProvidersData = datatypes.JSONMap{
		"ldap": map[string]interface{}{"uid": "octocat"},
	}
	original := user.AdditionalProvidersData

	google := &dto.ProviderProfile{
		Provider:                constants.ProviderGoogle,
		ProviderIdentifierField: "sub",
		ProviderData:            map[string]interface{}{"sub": "g-1"},
	}
	linked, _, err := svc.ResolveOrLink(user, google)
	require.NoError(t, err)

	// 绑定产生新map，原map不被就地修改
	assert.Len(t, original, 1)
	assert.Len(t, linked.AdditionalProvidersData, 2)
}

func TestRemoveProvider(t *testing.T) {
	repo := newFakeUserRepo()
	mirror := &fakeEnqueuer{}
	svc := NewIdentityService(repo, mirror)

	user, _, err := svc.ResolveOrLink(nil, githubProfile(42))
	require.NoError(t, err)

	google := &dto.ProviderProfile{
		Provider:                constants.ProviderGoogle,
		ProviderIdentifierField: "sub",
		ProviderData:            map[string]interface{}{"sub": "g-1"},
	}
	_, _, err = svc.ResolveOrLink(user, google)
	require.NoError(t, err)

	updated, err := svc.RemoveProvider(user.ID, constants.ProviderGoogle)
	require.NoError(t, err)
	assert.NotContains(t, updated.AdditionalProvidersData, constants.ProviderGoogle)

	// 未绑定的提供方解绑报错
	_, err = svc.RemoveProvider(user.ID, constants.ProviderGoogle)
	assert.ErrorIs(t, err, pkgErrors.ErrProviderNotConnected)
}
