package guide

import (
	"context"
	"errors"
	"fmt"

	"projecthub/internal/apperr"
	"projecthub/internal/models"
)

type Service interface {
	Create(ctx context.Context, g *models.Guide) (*models.Guide, error)
	GetByID(ctx context.Context, id int) (*models.Guide, error)
	GetAll(ctx context.Context) ([]models.Guide, error)
	ListActive(ctx context.Context) ([]models.Guide, error)
	Update(ctx context.Context, g *models.Guide) error
	ToggleStatus(ctx context.Context, id int) (*models.Guide, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{
		repo: repo,
	}
}

func (s *service) Create(ctx context.Context, g *models.Guide) (*models.Guide, error) {
	if g.Status == "" {
		g.Status = models.StatusActive
	}
	created, err := s.repo.Create(ctx, g)
	if err != nil {
		return nil, mapErr(err)
	}
	return created, nil
}

func (s *service) GetByID(ctx context.Context, id int) (*models.Guide, error) {
	if id <= 0 {
		return nil, apperr.Validation("invalid guide ID")
	}
	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapErr(err)
	}
	return g, nil
}

func (s *service) GetAll(ctx context.Context) ([]models.Guide, error) {
	return s.repo.GetAll(ctx)
}

func (s *service) ListActive(ctx context.Context) ([]models.Guide, error) {
	return s.repo.ListActive(ctx)
}

func (s *service) Update(ctx context.Context, g *models.Guide) error {
	if g.ID <= 0 {
		return apperr.Validation("invalid guide ID")
	}
	if err := s.repo.Update(ctx, g); err != nil {
		return mapErr(err)
	}
	return nil
}

func (s *service) ToggleStatus(ctx context.Context, id int) (*models.Guide, error) {
	g, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next := models.StatusInactive
	if g.Status == models.StatusInactive {
		next = models.StatusActive
	}
	if err := s.repo.SetStatus(ctx, id, next); err != nil {
		return nil, mapErr(err)
	}
	g.Status = next
	return g, nil
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, ErrGuideNotFound):
		return apperr.NotFound("guide not found")
	case errors.Is(err, ErrDuplicateEmail):
		return apperr.Conflict("a guide with this email already exists")
	default:
		return fmt.Errorf("guide store: %w", err)
	}
}
