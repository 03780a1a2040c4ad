package division

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"projecthub/internal/apperr"
	"projecthub/internal/models"
)

var courseRe = regexp.MustCompile(`^[A-Za-z]+$`)

type Service interface {
	Create(ctx context.Context, course string, semester, year int) (*models.Division, error)
	GetByID(ctx context.Context, id int) (*models.Division, error)
	GetAll(ctx context.Context) ([]models.Division, error)
	ListActive(ctx context.Context, course string, year int) ([]models.Division, error)
	ToggleStatus(ctx context.Context, id int) (*models.Division, error)
	Delete(ctx context.Context, id int) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{
		repo: repo,
	}
}

func (s *service) Create(ctx context.Context, course string, semester, year int) (*models.Division, error) {
	if !courseRe.MatchString(course) {
		return nil, apperr.Validation("course must contain letters only")
	}
	if semester < 1 || semester > 8 {
		return nil, apperr.Validation("semester must be between 1 and 8")
	}
	if year < 2000 || year > 2100 {
		return nil, apperr.Validation("year must be between 2000 and 2100")
	}

	d := &models.Division{
		Course:   course,
		Semester: semester,
		Year:     year,
		Status:   models.StatusActive,
	}
	return s.repo.Create(ctx, d)
}

func (s *service) GetByID(ctx context.Context, id int) (*models.Division, error) {
	if id <= 0 {
		return nil, apperr.Validation("invalid division ID")
	}
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return d, nil
}

func (s *service) GetAll(ctx context.Context) ([]models.Division, error) {
	return s.repo.GetAll(ctx)
}

func (s *service) ListActive(ctx context.Context, course string, year int) ([]models.Division, error) {
	return s.repo.ListActive(ctx, course, year)
}

// ToggleStatus flips active/inactive. Existing groups are untouched; only
// future eligibility queries see the change.
func (s *service) ToggleStatus(ctx context.Context, id int) (*models.Division, error) {
	d, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next := models.StatusInactive
	if d.Status == models.StatusInactive {
		next = models.StatusActive
	}
	if err := s.repo.SetStatus(ctx, id, next); err != nil {
		return nil, mapNotFound(err)
	}
	d.Status = next
	return d, nil
}

func (s *service) Delete(ctx context.Context, id int) error {
	if id <= 0 {
		return apperr.Validation("invalid division ID")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapNotFound(err)
	}
	return nil
}

func mapNotFound(err error) error {
	if errors.Is(err, ErrDivisionNotFound) {
		return apperr.NotFound("division not found")
	}
	return fmt.Errorf("division store: %w", err)
}
