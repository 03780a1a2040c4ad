package feedback

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"projecthub/internal/metrics"
	"projecthub/internal/models"

	"github.com/uptrace/bun"
)

var ErrFeedbackNotFound = errors.New("feedback not found")

type Repository interface {
	Create(ctx context.Context, fb *models.Feedback) error
	GetByID(ctx context.Context, id int) (*models.Feedback, error)
	ListByGuide(ctx context.Context, guideID int) ([]models.Feedback, error)
	ListByGroup(ctx context.Context, groupID int) ([]models.Feedback, error)
	Update(ctx context.Context, fb *models.Feedback) error
}

type repository struct {
	db      *bun.DB
	metrics *metrics.Metrics
}

func NewRepository(db *bun.DB, m *metrics.Metrics) Repository {
	return &repository{db: db, metrics: m}
}

func (r *repository) Create(ctx context.Context, fb *models.Feedback) error {
	start := time.Now()
	_, err := r.db.NewInsert().Model(fb).Exec(ctx)
	r.metrics.Database.RecordQuery(ctx, "insert", "feedbacks", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to create feedback: %w", err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*models.Feedback, error) {
	fb := new(models.Feedback)
	start := time.Now()
	err := r.db.NewSelect().Model(fb).Where("f.id = ?", id).Scan(ctx)
	r.metrics.Database.RecordQuery(ctx, "select", "feedbacks", time.Since(start), err)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFeedbackNotFound
		}
		return nil, fmt.Errorf("failed to get feedback: %w", err)
	}
	return fb, nil
}

func (r *repository) ListByGuide(ctx context.Context, guideID int) ([]models.Feedback, error) {
	var feedbacks []models.Feedback
	start := time.Now()
	err := r.db.NewSelect().
		Model(&feedbacks).
		Where("f.guide_id = ?", guideID).
		Order("f.created_at DESC").
		Scan(ctx)
	r.metrics.Database.RecordQuery(ctx, "select", "feedbacks", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback by guide: %w", err)
	}
	return feedbacks, nil
}

func (r *repository) ListByGroup(ctx context.Context, groupID int) ([]models.Feedback, error) {
	var feedbacks []models.Feedback
	start := time.Now()
	err := r.db.NewSelect().
		Model(&feedbacks).
		Where("f.group_id = ?", groupID).
		Order("f.created_at DESC").
		Scan(ctx)
	r.metrics.Database.RecordQuery(ctx, "select", "feedbacks", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback by group: %w", err)
	}
	return feedbacks, nil
}

func (r *repository) Update(ctx context.Context, fb *models.Feedback) error {
	fb.UpdatedAt = time.Now()
	start := time.Now()
	res, err := r.db.NewUpdate().
		Model(fb).
		WherePK().
		Exec(ctx)
	r.metrics.Database.RecordQuery(ctx, "update", "feedbacks", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to update feedback: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrFeedbackNotFound
	}
	return nil
}
