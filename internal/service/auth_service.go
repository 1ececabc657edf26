package service

import (
	"devfolio/internal/dto"
	"devfolio/internal/model"
	"devfolio/internal/pkg/config"
	"devfolio/internal/pkg/crypto"
	"devfolio/internal/pkg/jwt"
	"devfolio/internal/repository"
	"devfolio/pkg/constants"
	pkgErrors "devfolio/pkg/responses"
	"devfolio/pkg/utils"
)

type AuthService interface {
	Signup(req *dto.SignupRequest) (*dto.LoginResponse, error)
	Signin(req *dto.LoginRequest) (*dto.LoginResponse, error)
	RefreshToken(refreshToken string) (*dto.LoginResponse, error)
	IssueTokens(user *model.User) (*dto.LoginResponse, error)
}

type authService struct {
	cfg         *config.AuthConfig
	userRepo    repository.UserRepository
	ldapService LDAPService
}

func NewAuthService(
	cfg *config.AuthConfig,
	userRepo repository.UserRepository,
	ldapService LDAPService,
) AuthService {
	return &authService{
		cfg:         cfg,
		userRepo:    userRepo,
		ldapService: ldapService,
	}
}

// Signup 本地注册
func (s *authService) Signup(req *dto.SignupRequest) (*dto.LoginResponse, error) {
	if !s.cfg.Local.Enabled {
		return nil, pkgErrors.New(pkgErrors.CodeAuthError, "本地注册未启用")
	}

	if _, err := s.userRepo.FindByUsername(req.Username); err == nil {
		return nil, pkgErrors.ErrUsernameExists
	} else if err != pkgErrors.ErrRecordNotFound {
		return nil, err
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternalError, "密码哈希失败", err)
	}

	user := &model.User{
		Username:    req.Username,
		Password:    hash,
		Email:       utils.StringPtrOrNil(req.Email),
		DisplayName: utils.StringPtrOrNil(req.DisplayName),
		Provider:    constants.ProviderLocal,
		BaseStatus:  model.BaseStatus{Status: constants.StatusEnabled},
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	return s.IssueTokens(user)
}

// Signin 本地或LDAP登录
func (s *authService) Signin(req *dto.LoginRequest) (*dto.LoginResponse, error) {
	var user *model.User

	switch req.AuthType {
	case constants.AuthTypeLDAP:
		if !s.cfg.LDAP.Enabled {
			return nil, pkgErrors.New(pkgErrors.CodeAuthError, "LDAP认证未启用")
		}
		userInfo, err := s.ldapService.Authenticate(req.Username, req.Password)
		if err != nil {
			return nil, err
		}
		if user, err = s.syncLDAPUser(userInfo); err != nil {
			return nil, err
		}

	case constants.AuthTypeLocal:
		if !s.cfg.Local.Enabled {
			return nil, pkgErrors.New(pkgErrors.CodeAuthError, "本地认证未启用")
		}
		localUser, err := s.authenticateLocal(req.Username, req.Password)
		if err != nil {
			return nil, err
		}
		user = localUser

	default:
		return nil, pkgErrors.New(pkgErrors.CodeBadRequest, "不支持的认证类型")
	}

	return s.IssueTokens(user)
}

func (s *authService) authenticateLocal(username, password string) (*model.User, error) {
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if err == pkgErrors.ErrRecordNotFound {
			return nil, pkgErrors.ErrInvalidCredentials
		}
		return nil, err
	}

	// 检查状态
	if user.Status != constants.StatusEnabled {
		return nil, pkgErrors.ErrUserDisabled
	}

	// 验证密码
	if user.Password == "" || !crypto.CheckPassword(password, user.Password) {
		return nil, pkgErrors.ErrInvalidCredentials
	}

	return user, nil
}

// syncLDAPUser 首次LDAP登录时落地本地用户
func (s *authService) syncLDAPUser(userInfo *dto.UserInfo) (*model.User, error) {
	user, err := s.userRepo.FindByUsername(userInfo.Username)
	if err != nil {
		if err != pkgErrors.ErrRecordNotFound {
			return nil, err
		}
		user = &model.User{
			Username:    userInfo.Username,
			DisplayName: utils.StringPtrOrNil(userInfo.DisplayName),
			Email:       utils.StringPtrOrNil(userInfo.Email),
			Provider:    constants.ProviderLDAP,
			BaseStatus:  model.BaseStatus{Status: constants.StatusEnabled},
		}
		if err = s.userRepo.Create(user); err != nil {
			return nil, err
		}
	}

	return user, nil
}

// IssueTokens 为已认证用户签发Token对
func (s *authService) IssueTokens(user *model.User) (*dto.LoginResponse, error) {
	email := ""
	if user.Email != nil {
		email = *user.Email
	}
	displayName := user.Username
	if user.DisplayName != nil {
		displayName = *user.DisplayName
	}

	accessToken, err := jwt.GenerateAccessToken(user.ID, user.Username, email, displayName, user.Provider)
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternalError, "生成AccessToken失败", err)
	}

	refreshToken, err := jwt.GenerateRefreshToken(user.ID, user.Username, email, displayName, user.Provider)
	if err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeInternalError, "生成RefreshToken失败", err)
	}

	// 更新最后登录时间
	_ = s.userRepo.UpdateLastLogin(user.ID)

	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.cfg.JWT.AccessTokenExpire,
		User: &dto.UserInfo{
			UserID:      user.ID,
			Username:    user.Username,
			Email:       email,
			DisplayName: displayName,
			Provider:    user.Provider,
		},
	}, nil
}

// RefreshToken 刷新Token对
func (s *authService) RefreshToken(refreshToken string) (*dto.LoginResponse, error) {
	claims, err := jwt.ParseToken(refreshToken)
	if err != nil {
		return nil, err
	}

	// 检查Token类型
	if claims.Type != constants.JWTTypeRefresh {
		return nil, pkgErrors.New(pkgErrors.CodeUnauthorized, "无效的RefreshToken")
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		return nil, err
	}
	if user.Status != constants.StatusEnabled {
		return nil, pkgErrors.ErrUserDisabled
	}

	return s.IssueTokens(user)
}
