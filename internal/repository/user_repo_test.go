package repository

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"devfolio/internal/model"
	"devfolio/pkg/constants"
	pkgErrors "devfolio/pkg/responses"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Repository{}))
	return db
}

func TestFindByProviderIdentifier(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)

	primary := &model.User{
		Username:     "octocat",
		Provider:     constants.ProviderGitHub,
		ProviderData: datatypes.JSON(`{"id": 42, "login": "octocat"}`),
		BaseStatus:   model.BaseStatus{Status: constants.StatusEnabled},
	}
	require.NoError(t, repo.Create(primary))

	linked := &model.User{
		Username:     "jane",
		Provider:     constants.ProviderLocal,
		ProviderData: datatypes.JSON(`{}`),
		AdditionalProvidersData: datatypes.JSONMap{
			constants.ProviderGoogle: map[string]interface{}{"sub": "g-123"},
		},
		BaseStatus: model.BaseStatus{Status: constants.StatusEnabled},
	}
	require.NoError(t, repo.Create(linked))

	// 主提供方标识命中
	found, err := repo.FindByProviderIdentifier(constants.ProviderGitHub, "id", 42)
	require.NoError(t, err)
	assert.Equal(t, primary.ID, found.ID)

	// 附加提供方标识命中
	found, err = repo.FindByProviderIdentifier(constants.ProviderGoogle, "sub", "g-123")
	require.NoError(t, err)
	assert.Equal(t, linked.ID, found.ID)

	// 标识值相同但提供方不同，不命中
	_, err = repo.FindByProviderIdentifier(constants.ProviderGoogle, "id", 42)
	assert.ErrorIs(t, err, pkgErrors.ErrRecordNotFound)

	// 未知标识
	_, err = repo.FindByProviderIdentifier(constants.ProviderGitHub, "id", 999)
	assert.ErrorIs(t, err, pkgErrors.ErrRecordNotFound)
}

func TestFindUniqueUsername(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)

	// 无冲突时直接使用候选名
	name, err := repo.FindUniqueUsername("octocat")
	require.NoError(t, err)
	assert.Equal(t, "octocat", name)

	require.NoError(t, repo.Create(&model.User{Username: "octocat"}))
	require.NoError(t, repo.Create(&model.User{Username: "octocat1"}))

	// 冲突时依次追加数字后缀
	name, err = repo.FindUniqueUsername("octocat")
	require.NoError(t, err)
	assert.Equal(t, "octocat2", name)

	// 空候选名回退到默认前缀
	name, err = repo.FindUniqueUsername("")
	require.NoError(t, err)
	assert.Equal(t, "user", name)
}

func TestListMirrorCandidates(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)

	github := &model.User{
		Username:     "octocat",
		Provider:     constants.ProviderGitHub,
		ProviderData: datatypes.JSON(`{"id": 1}`),
		BaseStatus:   model.BaseStatus{Status: constants.StatusEnabled},
	}
	require.NoError(t, repo.Create(github))

	// 本地账号但绑定过GitHub
	linked := &model.User{
		Username: "jane",
		Provider: constants.ProviderLocal,
		AdditionalProvidersData: datatypes.JSONMap{
			constants.ProviderGitHub: map[string]interface{}{"id": 2},
		},
		BaseStatus: model.BaseStatus{Status: constants.StatusEnabled},
	}
	require.NoError(t, repo.Create(linked))

	// 纯本地账号，不参与镜像同步
	require.NoError(t, repo.Create(&model.User{
		Username:   "bob",
		Provider:   constants.ProviderLocal,
		BaseStatus: model.BaseStatus{Status: constants.StatusEnabled},
	}))

	// 已禁用的OAuth账号也不参与
	// status带默认值，零值在插入时会被默认值覆盖，禁用需显式更新
	gone := &model.User{
		Username:     "gone",
		Provider:     constants.ProviderGitHub,
		ProviderData: datatypes.JSON(`{"id": 3}`),
	}
	require.NoError(t, repo.Create(gone))
	require.NoError(t, db.Model(&model.User{}).Where("id = ?", gone.ID).
		Update("status", constants.StatusDisabled).Error)

	users, err := repo.ListMirrorCandidates()
	require.NoError(t, err)

	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Username)
	}
	assert.ElementsMatch(t, []string{"octocat", "jane"}, names)
}

func TestUpdateAdditionalProviders(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)

	user := &model.User{
		Username:     "octocat",
		Provider:     constants.ProviderGitHub,
		ProviderData: datatypes.JSON(`{"id": 42}`),
	}
	require.NoError(t, repo.Create(user))

	data := datatypes.JSONMap{
		constants.ProviderGoogle: map[string]interface{}{"sub": "g-123"},
	}
	require.NoError(t, repo.UpdateAdditionalProviders(user.ID, data))

	// 字段级更新，只动additional_providers_data
	reloaded, err := repo.FindByID(user.ID)
	require.NoError(t, err)
	assert.Contains(t, reloaded.AdditionalProvidersData, constants.ProviderGoogle)
	assert.Equal(t, datatypes.JSON(`{"id": 42}`), reloaded.ProviderData)
}
