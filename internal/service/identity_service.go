package service

import (
	"encoding/json"

	"gorm.io/datatypes"

	"devfolio/internal/dto"
	"devfolio/internal/model"
	"devfolio/internal/repository"
	"devfolio/pkg/constants"
	pkgErrors "devfolio/pkg/responses"
	"devfolio/pkg/utils"
)

// IdentityService OAuth身份解析
// 回调档案要么命中已有用户（主提供方或附加提供方），要么创建新用户，
// 要么在已登录状态下把新提供方并入当前账号
type IdentityService interface {
	// ResolveOrLink 解析外部身份
	// sessionUser 为调用方当前登录身份（可为nil）
	// 返回解析出的用户和跳转提示（仅绑定成功时非空）
	ResolveOrLink(sessionUser *model.User, profile *dto.ProviderProfile) (*model.User, string, error)

	// RemoveProvider 解绑附加提供方
	RemoveProvider(userID int64, provider string) (*model.User, error)
}

type identityService struct {
	userRepo repository.UserRepository
	mirror   MirrorEnqueuer
}

func NewIdentityService(userRepo repository.UserRepository, mirror MirrorEnqueuer) IdentityService {
	return &identityService{
		userRepo: userRepo,
		mirror:   mirror,
	}
}

func (s *identityService) ResolveOrLink(sessionUser *model.User, profile *dto.ProviderProfile) (*model.User, string, error) {
	if sessionUser != nil {
		return s.linkProvider(sessionUser, profile)
	}

	user, err := s.userRepo.FindByProviderIdentifier(
		profile.Provider,
		profile.ProviderIdentifierField,
		profile.IdentifierValue(),
	)
	if err == nil {
		// 已有用户登录，不产生任何写入，镜像同步异步补齐
		s.mirror.Enqueue(user.ID)
		return user, "", nil
	}
	if err != pkgErrors.ErrRecordNotFound {
		return nil, "", err
	}

	return s.createUser(profile)
}

// createUser 首次OAuth登录，创建本地用户
func (s *identityService) createUser(profile *dto.ProviderProfile) (*model.User, string, error) {
	candidate := profile.Username
	if candidate == "" && profile.Email != "" {
		candidate = utils.EmailLocalPart(profile.Email)
	}

	username, err := s.userRepo.FindUniqueUsername(candidate)
	if err != nil {
		return nil, "", err
	}

	email := profile.Email
	if email == "" {
		email = username + "@"
	}

	providerData, err := json.Marshal(profile.ProviderData)
	if err != nil {
		return nil, "", pkgErrors.Wrap(pkgErrors.CodeInternalError, "序列化提供方数据失败", err)
	}

	user := &model.User{
		Username:        username,
		Email:           utils.StringPtr(email),
		DisplayName:     utils.StringPtrOrNil(profile.DisplayName),
		ProfileImageURL: utils.StringPtrOrNil(profile.ProfileImageURL),
		Provider:        profile.Provider,
		ProviderData:    datatypes.JSON(providerData),
		BaseStatus:      model.BaseStatus{Status: constants.StatusEnabled},
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, "", err
	}

	// 用已持久化的用户触发同步，而不是回调档案
	s.mirror.Enqueue(user.ID)

	return user, "", nil
}

// linkProvider 已登录用户绑定新提供方
func (s *identityService) linkProvider(user *model.User, profile *dto.ProviderProfile) (*model.User, string, error) {
	if user.Provider == profile.Provider {
		return user, "", pkgErrors.ErrProviderAlreadyConnected
	}
	if user.AdditionalProvidersData != nil {
		if _, exists := user.AdditionalProvidersData[profile.Provider]; exists {
			return user, "", pkgErrors.ErrProviderAlreadyConnected
		}
	}

	// 复制并扩展，不在原map上就地修改
	merged := make(datatypes.JSONMap, len(user.AdditionalProvidersData)+1)
	for k, v := range user.AdditionalProvidersData {
		merged[k] = v
	}
	merged[profile.Provider] = profile.ProviderData

	if err := s.userRepo.UpdateAdditionalProviders(user.ID, merged); err != nil {
		return user, "", err
	}
	user.AdditionalProvidersData = merged

	s.mirror.Enqueue(user.ID)

	return user, constants.RedirectSettingsAccounts, nil
}

func (s *identityService) RemoveProvider(userID int64, provider string) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}

	if user.AdditionalProvidersData == nil {
		return nil, pkgErrors.ErrProviderNotConnected
	}
	if _, exists := user.AdditionalProvidersData[provider]; !exists {
		return nil, pkgErrors.ErrProviderNotConnected
	}

	remaining := make(datatypes.JSONMap, len(user.AdditionalProvidersData))
	for k, v := range user.AdditionalProvidersData {
		if k != provider {
			remaining[k] = v
		}
	}

	if err := s.userRepo.UpdateAdditionalProviders(user.ID, remaining); err != nil {
		return nil, err
	}
	user.AdditionalProvidersData = remaining

	return user, nil
}
