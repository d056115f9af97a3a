package service

import (
	"context"

	"github.com/prepstem/ieltsmock-backend/internal/model"
	"github.com/prepstem/ieltsmock-backend/internal/repository"
	"github.com/prepstem/ieltsmock-backend/internal/response"
)

// ResultService exposes persisted results to operators.
type ResultService struct {
	resultRepo *repository.ResultRepository
}

// NewResultService creates a new ResultService.
func NewResultService(resultRepo *repository.ResultRepository) *ResultService {
	return &ResultService{resultRepo: resultRepo}
}

// List returns paginated results, newest first.
func (s *ResultService) List(ctx context.Context, page, perPage int, sectionID *string) ([]model.Result, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}

	limit := perPage
	offset := (page - 1) * perPage

	results, total, err := s.resultRepo.List(ctx, limit, offset, sectionID)
	if err != nil {
		return nil, nil, err
	}
	if results == nil {
		results = []model.Result{}
	}

	totalPages := (int(total) + perPage - 1) / perPage
	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: int(total),
		TotalPages: totalPages,
	}
	return results, pagination, nil
}
