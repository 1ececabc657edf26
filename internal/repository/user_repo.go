package repository

import (
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"devfolio/internal/model"
	"devfolio/pkg/constants"
	pkgErrors "devfolio/pkg/responses"
)

type UserRepository interface {
	Create(user *model.User) error
	FindByID(id int64) (*model.User, error)
	FindByUsername(username string) (*model.User, error)
	FindByProviderIdentifier(provider, identifierField string, identifierValue interface{}) (*model.User, error)
	FindUniqueUsername(candidate string) (string, error)
	Update(user *model.User) error
	UpdateAdditionalProviders(id int64, data datatypes.JSONMap) error
	UpdateLastLogin(id int64) error
	ListMirrorCandidates() ([]*model.User, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *model.User) error {
	if err := r.db.Create(user).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "创建用户失败", err)
	}
	return nil
}

func (r *userRepository) FindByID(id int64) (*model.User, error) {
	var user model.User
	err := r.db.First(&user, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询用户失败", err)
	}
	return &user, nil
}

func (r *userRepository) FindByUsername(username string) (*model.User, error) {
	var user model.User
	err := r.db.Where("username = ?", username).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询用户失败", err)
	}
	return &user, nil
}

// FindByProviderIdentifier 按外部身份查找用户
// 单条查询表达两个条件的逻辑OR：
// 主提供方匹配(provider列 + provider_data中的标识字段)，
// 或 additional_providers_data 中该提供方的标识字段匹配
func (r *userRepository) FindByProviderIdentifier(provider, identifierField string, identifierValue interface{}) (*model.User, error) {
	var user model.User

	primaryMatch := r.db.Where("provider = ?", provider).
		Where(datatypes.JSONQuery("provider_data").Equals(identifierValue, identifierField))
	additionalMatch := r.db.Where(datatypes.JSONQuery("additional_providers_data").Equals(identifierValue, provider, identifierField))

	err := r.db.Where(primaryMatch.Or(additionalMatch)).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询用户失败", err)
	}
	return &user, nil
}

// FindUniqueUsername 从候选用户名派生唯一用户名
// 候选名可用则直接返回，否则依次追加数字后缀
func (r *userRepository) FindUniqueUsername(candidate string) (string, error) {
	if candidate == "" {
		candidate = "user"
	}

	username := candidate
	for suffix := 1; ; suffix++ {
		var count int64
		if err := r.db.Model(&model.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
			return "", pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询用户名失败", err)
		}
		if count == 0 {
			return username, nil
		}
		username = fmt.Sprintf("%s%d", candidate, suffix)
	}
}

func (r *userRepository) Update(user *model.User) error {
	if err := r.db.Save(user).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新用户失败", err)
	}
	return nil
}

// UpdateAdditionalProviders 字段级更新附加提供方档案
func (r *userRepository) UpdateAdditionalProviders(id int64, data datatypes.JSONMap) error {
	if err := r.db.Model(&model.User{}).Where("id = ?", id).
		Update("additional_providers_data", data).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新提供方数据失败", err)
	}
	return nil
}

func (r *userRepository) UpdateLastLogin(id int64) error {
	if err := r.db.Model(&model.User{}).Where("id = ?", id).
		Update("last_login_at", r.db.NowFunc()).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "更新登录时间失败", err)
	}
	return nil
}

// ListMirrorCandidates 查询需要镜像同步的用户
// 启用状态，且主提供方是OAuth提供方或绑定过OAuth提供方
func (r *userRepository) ListMirrorCandidates() ([]*model.User, error) {
	oauthProviders := []string{constants.ProviderGitHub, constants.ProviderGoogle}

	match := r.db.Where("provider IN ?", oauthProviders)
	for _, provider := range oauthProviders {
		match = match.Or(datatypes.JSONQuery("additional_providers_data").HasKey(provider))
	}

	var users []*model.User
	if err := r.db.Where("status = ?", constants.StatusEnabled).
		Where(match).Find(&users).Error; err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询用户列表失败", err)
	}
	return users, nil
}
