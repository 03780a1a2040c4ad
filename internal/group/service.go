package group

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"projecthub/internal/apperr"
	"projecthub/internal/guide"
	"projecthub/internal/metrics"
	"projecthub/internal/models"
	"projecthub/internal/roster"
)

// EventPublisher receives group lifecycle events. Nil-safe at the call
// sites: the app runs without a bus when NATS is unavailable.
type EventPublisher interface {
	SendMessage(value interface{}) error
}

// GroupEvent is the JSON payload published on roster and directory changes.
type GroupEvent struct {
	Type       string `json:"type"`
	GroupID    int    `json:"groupId"`
	Enrollment string `json:"enrollment,omitempty"`
	GuideID    int    `json:"guideId,omitempty"`
}

type Service interface {
	Get(ctx context.Context, id int) (*models.Group, error)
	ListFiltered(ctx context.Context, yearFilter, courseFilter string) ([]models.Group, error)
	Create(ctx context.Context, ng roster.NewGroup) (*models.Group, error)
	AddMember(ctx context.Context, groupID int, enrollmentNumber string) (*models.GroupMember, error)
	RemoveMember(ctx context.Context, groupID int, enrollmentNumber string) error
	ChangeGuide(ctx context.Context, groupID, guideID int) (*models.Group, error)
	Delete(ctx context.Context, groupID int) error
	AvailableStudents(ctx context.Context, groupID int) ([]roster.EligibleStudent, error)
	AvailableStudentsForScope(ctx context.Context, scope roster.Scope) ([]roster.EligibleStudent, error)
}

type service struct {
	repo    Repository
	guides  guide.Repository
	engine  *roster.Engine
	events  EventPublisher
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewService(
	repo Repository,
	guides guide.Repository,
	engine *roster.Engine,
	events EventPublisher,
	logger *slog.Logger,
	m *metrics.Metrics,
) Service {
	return &service{
		repo:    repo,
		guides:  guides,
		engine:  engine,
		events:  events,
		logger:  logger,
		metrics: m,
	}
}

func (s *service) Get(ctx context.Context, id int) (*models.Group, error) {
	if id <= 0 {
		return nil, apperr.Validation("invalid group ID")
	}
	g, err := s.repo.GetWithMembers(ctx, id)
	if err != nil {
		if errors.Is(err, roster.ErrGroupNotFound) {
			return nil, apperr.NotFound("group not found")
		}
		return nil, fmt.Errorf("group store: %w", err)
	}
	return g, nil
}

// ListFiltered accepts the UI's sentinel values: "All years"-style strings
// and empty strings mean no filter on that dimension.
func (s *service) ListFiltered(ctx context.Context, yearFilter, courseFilter string) ([]models.Group, error) {
	year, err := parseYearFilter(yearFilter)
	if err != nil {
		return nil, err
	}
	course := courseFilter
	if course == "All" || course == "All Courses" {
		course = ""
	}
	return s.repo.ListFiltered(ctx, year, course)
}

func (s *service) Create(ctx context.Context, ng roster.NewGroup) (*models.Group, error) {
	g, err := s.engine.CreateGroup(ctx, ng)
	if err != nil {
		return nil, err
	}
	s.publish(GroupEvent{Type: "group.created", GroupID: g.ID, GuideID: g.GuideID})
	return g, nil
}

func (s *service) AddMember(ctx context.Context, groupID int, enrollmentNumber string) (*models.GroupMember, error) {
	m, err := s.engine.AddMember(ctx, groupID, enrollmentNumber)
	if err != nil {
		return nil, err
	}
	s.publish(GroupEvent{Type: "group.member_added", GroupID: groupID, Enrollment: enrollmentNumber})
	return m, nil
}

func (s *service) RemoveMember(ctx context.Context, groupID int, enrollmentNumber string) error {
	if err := s.engine.RemoveMember(ctx, groupID, enrollmentNumber); err != nil {
		return err
	}
	s.publish(GroupEvent{Type: "group.member_removed", GroupID: groupID, Enrollment: enrollmentNumber})
	return nil
}

// ChangeGuide swaps the group's guide reference. Only active guides are
// assignable; the stored reference is always the stable guide ID.
func (s *service) ChangeGuide(ctx context.Context, groupID, guideID int) (*models.Group, error) {
	gd, err := s.guides.GetByID(ctx, guideID)
	if err != nil {
		if errors.Is(err, guide.ErrGuideNotFound) {
			return nil, apperr.NotFound("guide not found")
		}
		return nil, fmt.Errorf("guide store: %w", err)
	}
	if gd.Status != models.StatusActive {
		return nil, apperr.Validation("guide is not active")
	}

	if err := s.repo.UpdateGuide(ctx, groupID, guideID); err != nil {
		if errors.Is(err, roster.ErrGroupNotFound) {
			return nil, apperr.NotFound("group not found")
		}
		return nil, fmt.Errorf("group store: %w", err)
	}

	s.metrics.RecordGuideReassignment(ctx)
	s.publish(GroupEvent{Type: "group.guide_changed", GroupID: groupID, GuideID: guideID})

	return s.Get(ctx, groupID)
}

func (s *service) Delete(ctx context.Context, groupID int) error {
	if groupID <= 0 {
		return apperr.Validation("invalid group ID")
	}
	if err := s.repo.Delete(ctx, groupID); err != nil {
		if errors.Is(err, roster.ErrGroupNotFound) {
			return apperr.NotFound("group not found")
		}
		return fmt.Errorf("group store: %w", err)
	}

	s.metrics.RecordGroupDeleted(ctx)
	s.publish(GroupEvent{Type: "group.deleted", GroupID: groupID})
	return nil
}

func (s *service) AvailableStudents(ctx context.Context, groupID int) ([]roster.EligibleStudent, error) {
	return s.engine.AvailableForGroup(ctx, groupID)
}

func (s *service) AvailableStudentsForScope(ctx context.Context, scope roster.Scope) ([]roster.EligibleStudent, error) {
	return s.engine.AvailableForScope(ctx, scope)
}

func (s *service) publish(event GroupEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.SendMessage(event); err != nil {
		s.logger.Warn("failed to publish group event", "type", event.Type, "error", err)
	}
}

func parseYearFilter(yearFilter string) (int, error) {
	switch yearFilter {
	case "", "All", "All Years":
		return 0, nil
	}
	var year int
	if _, err := fmt.Sscanf(yearFilter, "%d", &year); err != nil {
		return 0, apperr.Validation("invalid year filter")
	}
	return year, nil
}
