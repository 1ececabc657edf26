package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devfolio/internal/dto"
	"devfolio/internal/pkg/config"
	"devfolio/pkg/constants"
	pkgErrors "devfolio/pkg/responses"
)

func newTestAuthService(repo *fakeUserRepo) AuthService {
	cfg := &config.AuthConfig{
		JWT: config.JWTConfig{
			Secret:             "test-secret",
			AccessTokenExpire:  3600,
			RefreshTokenExpire: 86400,
		},
		Local: config.LocalConfig{Enabled: true},
	}
	config.GlobalConfig = &config.Config{Auth: *cfg}
	return NewAuthService(cfg, repo, nil)
}

func TestSignupAndSignin(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo)

	resp, err := svc.Signup(&dto.SignupRequest{
		Username: "octocat",
		Password: "hunter22",
		Email:    "octocat@example.com",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, constants.ProviderLocal, resp.User.Provider)

	// 重复用户名注册被拒
	_, err = svc.Signup(&dto.SignupRequest{Username: "octocat", Password: "x"})
	assert.ErrorIs(t, err, pkgErrors.ErrUsernameExists)

	// 正确口令登录
	resp, err = svc.Signin(&dto.LoginRequest{
		Username: "octocat",
		Password: "hunter22",
		AuthType: constants.AuthTypeLocal,
	})
	require.NoError(t, err)
	assert.Equal(t, "octocat", resp.User.Username)

	// 错误口令
	_, err = svc.Signin(&dto.LoginRequest{
		Username: "octocat",
		Password: "wrong",
		AuthType: constants.AuthTypeLocal,
	})
	assert.ErrorIs(t, err, pkgErrors.ErrInvalidCredentials)

	// 不存在的用户与口令错误返回同一错误，不泄露用户是否存在
	_, err = svc.Signin(&dto.LoginRequest{
		Username: "nobody",
		Password: "x",
		AuthType: constants.AuthTypeLocal,
	})
	assert.ErrorIs(t, err, pkgErrors.ErrInvalidCredentials)
}

func TestSigninOAuthUserHasNoPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo)

	// OAuth创建的用户没有本地口令，空口令不能通过本地登录
	mirror := &fakeEnqueuer{}
	identity := NewIdentityService(repo, mirror)
	user, _, err := identity.ResolveOrLink(nil, githubProfile(42))
	require.NoError(t, err)

	_, err = svc.Signin(&dto.LoginRequest{
		Username: user.Username,
		Password: "",
		AuthType: constants.AuthTypeLocal,
	})
	assert.ErrorIs(t, err, pkgErrors.ErrInvalidCredentials)
}

func TestRefreshToken(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo)

	resp, err := svc.Signup(&dto.SignupRequest{Username: "octocat", Password: "hunter22"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(resp.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Equal(t, resp.User.UserID, refreshed.User.UserID)

	// AccessToken不能当RefreshToken用
	_, err = svc.RefreshToken(resp.AccessToken)
	assert.Error(t, err)
}

func TestSigninDisabledUser(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(repo)

	resp, err := svc.Signup(&dto.SignupRequest{Username: "octocat", Password: "hunter22"})
	require.NoError(t, err)

	repo.users[resp.User.UserID].Status = constants.StatusDisabled

	_, err = svc.Signin(&dto.LoginRequest{
		Username: "octocat",
		Password: "hunter22",
		AuthType: constants.AuthTypeLocal,
	})
	assert.ErrorIs(t, err, pkgErrors.ErrUserDisabled)
}
