package model

import (
	"time"

	"gorm.io/datatypes"
)

// User 用户模型
// Provider 为账号创建时使用的主认证提供方，ProviderData 保存该提供方返回的原始档案；
// AdditionalProvidersData 以提供方名称为key，保存后续绑定的次要提供方档案。
type User struct {
	BaseStatus
	Username        string  `gorm:"size:50;not null;uniqueIndex" json:"username"`
	Password        string  `gorm:"size:255" json:"-"` // bcrypt哈希，不返回到前端
	Email           *string `gorm:"size:100" json:"email"`
	DisplayName     *string `gorm:"size:100" json:"display_name"`
	ProfileImageURL *string `gorm:"size:500" json:"profile_image_url"`

	Provider                string            `gorm:"size:20;not null;index" json:"provider"`
	ProviderData            datatypes.JSON    `gorm:"type:json" json:"provider_data,omitempty"`
	AdditionalProvidersData datatypes.JSONMap `gorm:"type:json" json:"additional_providers_data,omitempty"`

	LastLoginAt *time.Time `json:"last_login_at"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
