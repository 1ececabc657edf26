package repository

import (
	"gorm.io/gorm"

	"devfolio/internal/model"
	pkgErrors "devfolio/pkg/responses"
)

type RepositoryRepository interface {
	Create(repo *model.Repository) error
	FindByUserAndName(userID int64, name string) (*model.Repository, error)
	ListByUser(userID int64) ([]*model.Repository, error)
	ListByUserPaged(userID int64, page, pageSize int, keyword string) ([]*model.Repository, int64, error)
	Delete(id int64) error
}

type repositoryRepository struct {
	db *gorm.DB
}

func NewRepositoryRepository(db *gorm.DB) RepositoryRepository {
	return &repositoryRepository{db: db}
}

func (r *repositoryRepository) Create(repo *model.Repository) error {
	if err := r.db.Create(repo).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "创建代码库镜像失败", err)
	}
	return nil
}

func (r *repositoryRepository) FindByUserAndName(userID int64, name string) (*model.Repository, error) {
	var repo model.Repository
	err := r.db.Where("user_id = ? AND name = ?", userID, name).First(&repo).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgErrors.ErrRecordNotFound
		}
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询代码库镜像失败", err)
	}
	return &repo, nil
}

func (r *repositoryRepository) ListByUser(userID int64) ([]*model.Repository, error) {
	var repos []*model.Repository
	if err := r.db.Where("user_id = ?", userID).Find(&repos).Error; err != nil {
		return nil, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询代码库镜像列表失败", err)
	}
	return repos, nil
}

func (r *repositoryRepository) ListByUserPaged(userID int64, page, pageSize int, keyword string) ([]*model.Repository, int64, error) {
	var repos []*model.Repository
	var total int64

	query := r.db.Model(&model.Repository{}).Where("user_id = ?", userID)
	if keyword != "" {
		query = query.Where("name LIKE ?", "%"+keyword+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "统计代码库镜像数量失败", err)
	}

	offset := (page - 1) * pageSize
	if err := query.Offset(offset).Limit(pageSize).Order("name ASC").Find(&repos).Error; err != nil {
		return nil, 0, pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "查询代码库镜像列表失败", err)
	}

	return repos, total, nil
}

func (r *repositoryRepository) Delete(id int64) error {
	if err := r.db.Delete(&model.Repository{}, id).Error; err != nil {
		return pkgErrors.Wrap(pkgErrors.CodeDatabaseError, "删除代码库镜像失败", err)
	}
	return nil
}
