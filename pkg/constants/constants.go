package constants

// 认证类型
const (
	AuthTypeLocal = "local"
	AuthTypeLDAP  = "ldap"
)

// 认证提供方
const (
	ProviderLocal  = "local"
	ProviderLDAP   = "ldap"
	ProviderGitHub = "github"
	ProviderGoogle = "google"
)

// 状态
const (
	StatusEnabled  int8 = 1
	StatusDisabled int8 = 0
)

// JWT 相关
const (
	JWTTypeAccess  = "access"
	JWTTypeRefresh = "refresh"
)

// HTTP Header
const (
	HeaderAuthorization = "Authorization"
	HeaderBearerPrefix  = "Bearer "
)

// Cookie 名称
const (
	CookieAccessToken = "access_token"
	CookieOAuthState  = "oauth_state"
	CookieRedirectTo  = "redirect_to"
)

// OAuth 回调后的跳转地址
const (
	RedirectSignin           = "/authentication/signin"
	RedirectSignup           = "/authentication/signup"
	RedirectSettingsAccounts = "/settings/accounts"
	RedirectHome             = "/"
)
