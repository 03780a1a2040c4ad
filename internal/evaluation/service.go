package evaluation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"projecthub/internal/apperr"
	"projecthub/internal/group"
	"projecthub/internal/metrics"
	"projecthub/internal/models"
	"projecthub/internal/roster"
)

// Scores carries the four rubric dimensions, each on a 0-10 scale.
// The overall score is derived, never accepted from the caller.
type Scores struct {
	Technical     float64
	Presentation  float64
	Documentation float64
	Innovation    float64
}

type Service interface {
	Record(ctx context.Context, groupID, guideID int, scores Scores) (*models.Evaluation, error)
	GetForGroupGuide(ctx context.Context, groupID, guideID int) (*models.Evaluation, error)
	ListByGuide(ctx context.Context, guideID int) ([]models.Evaluation, error)
	ListByGroup(ctx context.Context, groupID int) ([]models.Evaluation, error)
}

type service struct {
	repo    Repository
	groups  group.Repository
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewService(repo Repository, groups group.Repository, logger *slog.Logger, m *metrics.Metrics) Service {
	return &service{repo: repo, groups: groups, logger: logger, metrics: m}
}

func validScore(v float64) bool { return v >= 0 && v <= 10 }

func (s *service) Record(ctx context.Context, groupID, guideID int, scores Scores) (*models.Evaluation, error) {
	if !validScore(scores.Technical) || !validScore(scores.Presentation) ||
		!validScore(scores.Documentation) || !validScore(scores.Innovation) {
		return nil, apperr.Validation("scores must be between 0 and 10")
	}

	g, err := s.groups.GetWithMembers(ctx, groupID)
	if err != nil {
		if errors.Is(err, roster.ErrGroupNotFound) {
			return nil, apperr.NotFound("group not found")
		}
		return nil, fmt.Errorf("group store: %w", err)
	}
	if g.GuideID != guideID {
		return nil, apperr.Validation("guide is not assigned to this group")
	}

	overall := (scores.Technical + scores.Presentation + scores.Documentation + scores.Innovation) / 4

	ev := &models.Evaluation{
		GroupID:            groupID,
		GuideID:            guideID,
		TechnicalScore:     scores.Technical,
		PresentationScore:  scores.Presentation,
		DocumentationScore: scores.Documentation,
		InnovationScore:    scores.Innovation,
		OverallScore:       overall,
		Status:             models.EvaluationCompleted,
		LastEvaluatedAt:    time.Now(),
	}
	if err := s.repo.Upsert(ctx, ev); err != nil {
		return nil, fmt.Errorf("evaluation store: %w", err)
	}

	s.metrics.RecordEvaluationRecorded(ctx)
	s.logger.InfoContext(ctx, "evaluation recorded",
		"group_id", groupID, "guide_id", guideID, "overall_score", overall)
	return ev, nil
}

func (s *service) GetForGroupGuide(ctx context.Context, groupID, guideID int) (*models.Evaluation, error) {
	if groupID <= 0 || guideID <= 0 {
		return nil, apperr.Validation("invalid group or guide ID")
	}
	ev, err := s.repo.GetForGroupGuide(ctx, groupID, guideID)
	if err != nil {
		if errors.Is(err, ErrEvaluationNotFound) {
			return nil, apperr.NotFound("evaluation not found")
		}
		return nil, fmt.Errorf("evaluation store: %w", err)
	}
	return ev, nil
}

func (s *service) ListByGuide(ctx context.Context, guideID int) ([]models.Evaluation, error) {
	if guideID <= 0 {
		return nil, apperr.Validation("invalid guide ID")
	}
	evaluations, err := s.repo.ListByGuide(ctx, guideID)
	if err != nil {
		return nil, fmt.Errorf("evaluation store: %w", err)
	}
	return evaluations, nil
}

func (s *service) ListByGroup(ctx context.Context, groupID int) ([]models.Evaluation, error) {
	if groupID <= 0 {
		return nil, apperr.Validation("invalid group ID")
	}
	evaluations, err := s.repo.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("evaluation store: %w", err)
	}
	return evaluations, nil
}
