package model

const RepositoryTableName = "repositories"

// Repository 用户代码库镜像模型
// 每条记录归属唯一用户，同步时按 (user_id, name) 精确匹配，
// 只做存在性对账，不做字段级更新。
type Repository struct {
	BaseModel
	Name   string `gorm:"size:100;not null;uniqueIndex:idx_user_name" json:"name"`
	URL    string `gorm:"size:500;not null" json:"url"`
	UserID int64  `gorm:"column:user_id;not null;uniqueIndex:idx_user_name" json:"user_id"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Repository) TableName() string {
	return RepositoryTableName
}
