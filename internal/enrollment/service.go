package enrollment

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"projecthub/internal/apperr"
	"projecthub/internal/division"
	"projecthub/internal/models"
)

// Manually entered numbers: letters followed by exactly seven digits.
// Generated numbers ({COURSE}{YEAR}{SEQ:3}) match the same shape.
var numberRe = regexp.MustCompile(`^[A-Za-z]+\d{7}$`)

// GenerateResult reports what a range generation actually did. Created may
// be zero when the whole range already exists; that is a normal outcome.
type GenerateResult struct {
	Requested int `json:"requested"`
	Created   int `json:"created"`
	Skipped   int `json:"skipped"`
}

// CountResult is the "(registered/total)" reporting read.
type CountResult struct {
	Registered int `json:"registered"`
	Total      int `json:"total"`
}

type Service interface {
	GenerateRange(ctx context.Context, divisionID, start, end int) (*GenerateResult, error)
	AddOne(ctx context.Context, divisionID int, number string) (*models.Enrollment, error)
	ListForDivision(ctx context.Context, divisionID int) ([]models.Enrollment, error)
	RegisteredCount(ctx context.Context, divisionID int) (*CountResult, error)
	Remove(ctx context.Context, number string) error
	RemoveAllForDivision(ctx context.Context, divisionID int) (int64, error)
}

type service struct {
	repo      Repository
	divisions division.Repository
}

func NewService(repo Repository, divisions division.Repository) Service {
	return &service{
		repo:      repo,
		divisions: divisions,
	}
}

// GenerateRange synthesizes {COURSE}{YEAR}{seq:03d} for every seq in
// [start,end], skipping numbers that already exist anywhere.
func (s *service) GenerateRange(ctx context.Context, divisionID, start, end int) (*GenerateResult, error) {
	if start < 1 {
		return nil, apperr.Validation("start must be at least 1")
	}
	if end < start {
		return nil, apperr.Validation("end must not be before start")
	}
	if end > 999 {
		return nil, apperr.Validation("end must not exceed 999")
	}

	div, err := s.divisions.GetByID(ctx, divisionID)
	if err != nil {
		return nil, mapDivisionErr(err)
	}

	existing, err := s.repo.NumbersForDivision(ctx, divisionID)
	if err != nil {
		return nil, fmt.Errorf("enrollment store: %w", err)
	}

	prefix := fmt.Sprintf("%s%d", strings.ToUpper(div.Course), div.Year)
	var batch []models.Enrollment
	for seq := start; seq <= end; seq++ {
		number := fmt.Sprintf("%s%03d", prefix, seq)
		if existing[number] {
			continue
		}
		batch = append(batch, models.Enrollment{
			DivisionID:       divisionID,
			EnrollmentNumber: number,
		})
	}

	// The conflict-skipping insert keeps the run idempotent even against
	// numbers created between the read and the write.
	created, err := s.repo.BulkCreate(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("enrollment store: %w", err)
	}

	requested := end - start + 1
	return &GenerateResult{
		Requested: requested,
		Created:   created,
		Skipped:   requested - created,
	}, nil
}

func (s *service) AddOne(ctx context.Context, divisionID int, number string) (*models.Enrollment, error) {
	if !numberRe.MatchString(number) {
		return nil, apperr.Validation("enrollment number must be letters followed by 7 digits")
	}
	if _, err := s.divisions.GetByID(ctx, divisionID); err != nil {
		return nil, mapDivisionErr(err)
	}

	e, err := s.repo.Create(ctx, &models.Enrollment{
		DivisionID:       divisionID,
		EnrollmentNumber: strings.ToUpper(number),
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateNumber) {
			return nil, apperr.Conflict("enrollment number already exists")
		}
		return nil, fmt.Errorf("enrollment store: %w", err)
	}
	return e, nil
}

func (s *service) ListForDivision(ctx context.Context, divisionID int) ([]models.Enrollment, error) {
	if _, err := s.divisions.GetByID(ctx, divisionID); err != nil {
		return nil, mapDivisionErr(err)
	}
	return s.repo.ListForDivision(ctx, divisionID)
}

func (s *service) RegisteredCount(ctx context.Context, divisionID int) (*CountResult, error) {
	if _, err := s.divisions.GetByID(ctx, divisionID); err != nil {
		return nil, mapDivisionErr(err)
	}
	registered, total, err := s.repo.Counts(ctx, divisionID)
	if err != nil {
		return nil, fmt.Errorf("enrollment store: %w", err)
	}
	return &CountResult{Registered: registered, Total: total}, nil
}

func (s *service) Remove(ctx context.Context, number string) error {
	if err := s.repo.DeleteByNumber(ctx, number); err != nil {
		if errors.Is(err, ErrEnrollmentNotFound) {
			return apperr.NotFound("enrollment not found")
		}
		return fmt.Errorf("enrollment store: %w", err)
	}
	return nil
}

func (s *service) RemoveAllForDivision(ctx context.Context, divisionID int) (int64, error) {
	if _, err := s.divisions.GetByID(ctx, divisionID); err != nil {
		return 0, mapDivisionErr(err)
	}
	return s.repo.DeleteForDivision(ctx, divisionID)
}

func mapDivisionErr(err error) error {
	if errors.Is(err, division.ErrDivisionNotFound) {
		return apperr.NotFound("division not found")
	}
	return fmt.Errorf("division store: %w", err)
}
