package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devfolio/internal/pkg/config"
	"devfolio/pkg/constants"
)

func setupConfig(t *testing.T, accessExpire int) {
	t.Helper()

	config.GlobalConfig = &config.Config{
		Auth: config.AuthConfig{
			JWT: config.JWTConfig{
				Secret:             "test-secret",
				AccessTokenExpire:  accessExpire,
				RefreshTokenExpire: 86400,
			},
		},
	}
}

func TestTokenRoundTrip(t *testing.T) {
	setupConfig(t, 3600)

	token, err := GenerateAccessToken(42, "octocat", "octocat@example.com", "The Octocat", constants.ProviderGitHub)
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)

	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "octocat", claims.Username)
	assert.Equal(t, "octocat@example.com", claims.Email)
	assert.Equal(t, constants.ProviderGitHub, claims.Provider)
	assert.Equal(t, constants.JWTTypeAccess, claims.Type)
}

func TestRefreshTokenType(t *testing.T) {
	setupConfig(t, 3600)

	token, err := GenerateRefreshToken(42, "octocat", "", "", constants.ProviderLocal)
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, constants.JWTTypeRefresh, claims.Type)
}

func TestExpiredTokenRejected(t *testing.T) {
	setupConfig(t, -60)

	token, err := GenerateAccessToken(42, "octocat", "", "", constants.ProviderLocal)
	require.NoError(t, err)

	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestTamperedTokenRejected(t *testing.T) {
	setupConfig(t, 3600)

	token, err := GenerateAccessToken(42, "octocat", "", "", constants.ProviderLocal)
	require.NoError(t, err)

	_, err = ValidateToken(token + "x")
	assert.Error(t, err)
}

func TestWrongSecretRejected(t *testing.T) {
	setupConfig(t, 3600)
	token, err := GenerateAccessToken(42, "octocat", "", "", constants.ProviderLocal)
	require.NoError(t, err)

	config.GlobalConfig.Auth.JWT.Secret = "other-secret"
	_, err = ValidateToken(token)
	assert.Error(t, err)
}
