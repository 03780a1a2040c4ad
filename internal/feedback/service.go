package feedback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"projecthub/internal/apperr"
	"projecthub/internal/group"
	"projecthub/internal/metrics"
	"projecthub/internal/models"
	"projecthub/internal/roster"
)

// NewFeedback is the submission payload. The project title is snapshotted
// from the group at submission time so later edits don't rewrite history.
type NewFeedback struct {
	GroupID         int
	Message         string
	Rating          int
	Recommendations string
}

type Service interface {
	Submit(ctx context.Context, nf NewFeedback) (*models.Feedback, error)
	Respond(ctx context.Context, id int, response string) (*models.Feedback, error)
	ListByGuide(ctx context.Context, guideID int) ([]models.Feedback, error)
	ListByGroup(ctx context.Context, groupID int) ([]models.Feedback, error)
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

func (s *service) Submit(ctx context.Context, nf NewFeedback) (*models.Feedback, error) {
	if strings.TrimSpace(nf.Message) == "" {
		return nil, apperr.Validation("message is required")
	}
	if nf.Rating < 1 || nf.Rating > 5 {
		return nil, apperr.Validation("rating must be between 1 and 5")
	}

	g, err := s.groups.GetWithMembers(ctx, nf.GroupID)
	if err != nil {
		if errors.Is(err, roster.ErrGroupNotFound) {
			return nil, apperr.NotFound("group not found")
		}
		return nil, fmt.Errorf("group store: %w", err)
	}

	fb := &models.Feedback{
		GroupID:         g.ID,
		GuideID:         g.GuideID,
		ProjectTitle:    g.ProjectTitle,
		Message:         strings.TrimSpace(nf.Message),
		Rating:          nf.Rating,
		Recommendations: nf.Recommendations,
		Status:          models.FeedbackSubmitted,
	}
	if err := s.repo.Create(ctx, fb); err != nil {
		return nil, fmt.Errorf("feedback store: %w", err)
	}

	s.metrics.RecordFeedbackSubmitted(ctx)
	s.logger.InfoContext(ctx, "feedback submitted",
		"feedback_id", fb.ID, "group_id", g.ID, "guide_id", g.GuideID, "rating", fb.Rating)
	return fb, nil
}

func (s *service) Respond(ctx context.Context, id int, response string) (*models.Feedback, error) {
	if strings.TrimSpace(response) == "" {
		return nil, apperr.Validation("response is required")
	}

	fb, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrFeedbackNotFound) {
			return nil, apperr.NotFound("feedback not found")
		}
		return nil, fmt.Errorf("feedback store: %w", err)
	}

	fb.Response = strings.TrimSpace(response)
	fb.Status = models.FeedbackCompleted
	fb.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, fb); err != nil {
		if errors.Is(err, ErrFeedbackNotFound) {
			return nil, apperr.NotFound("feedback not found")
		}
		return nil, fmt.Errorf("feedback store: %w", err)
	}

	s.logger.InfoContext(ctx, "feedback response recorded", "feedback_id", fb.ID)
	return fb, nil
}

func (s *service) ListByGuide(ctx context.Context, guideID int) ([]models.Feedback, error) {
	if guideID <= 0 {
		return nil, apperr.Validation("invalid guide ID")
	}
	feedbacks, err := s.repo.ListByGuide(ctx, guideID)
	if err != nil {
		return nil, fmt.Errorf("feedback store: %w", err)
	}
	return feedbacks, nil
}

func (s *service) ListByGroup(ctx context.Context, groupID int) ([]models.Feedback, error) {
	if groupID <= 0 {
		return nil, apperr.Validation("invalid group ID")
	}
	feedbacks, err := s.repo.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("feedback store: %w", err)
	}
	return feedbacks, nil
}
