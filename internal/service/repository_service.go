package service

import (
	"devfolio/internal/dto"
	"devfolio/internal/repository"
)

type RepositoryService interface {
	ListByUser(userID int64, query *dto.RepositoryListQuery) (*dto.PageResponse, error)
}

type repositoryService struct {
	repoRepo repository.RepositoryRepository
}

func NewRepositoryService(repoRepo repository.RepositoryRepository) RepositoryService {
	return &repositoryService{repoRepo: repoRepo}
}

func (s *repositoryService) ListByUser(userID int64, query *dto.RepositoryListQuery) (*dto.PageResponse, error) {
	page := query.GetPage()
	pageSize := query.GetPageSize()

	repos, total, err := s.repoRepo.ListByUserPaged(userID, page, pageSize, query.Keyword)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.RepositoryResponse, 0, len(repos))
	for _, r := range repos {
		items = append(items, &dto.RepositoryResponse{
			ID:   r.ID,
			Name: r.Name,
			URL:  r.URL,
		})
	}

	return dto.NewPageResponse(items, total, page, pageSize), nil
}
