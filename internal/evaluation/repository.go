package evaluation

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

var ErrEvaluationNotFound = errors.New("evaluation not found")

type Repository interface {
	Upsert(ctx context.Context, ev *models.Evaluation) error
	GetForGroupGuide(ctx context.Context, groupID, guideID int) (*models.Evaluation, error)
	ListByGuide(ctx context.Context, guideID int) ([]models.Evaluation, error)
	ListByGroup(ctx context.Context, groupID int) ([]models.Evaluation, error)
}

type repository struct {
	db      *bun.DB
	metrics *metrics.Metrics
}

func NewRepository(db *bun.DB, m *metrics.Metrics) Repository {
	return &repository{db: db, metrics: m}
}

// Upsert keeps one evaluation row per (group, guide) pair. Re-scoring a
// group overwrites the previous scores in place instead of appending a
// second record.
func (r *repository) Upsert(ctx context.Context, ev *models.Evaluation) error {
	start := time.Now()
	_, err := r.db.NewInsert().
		Model(ev).
		On("CONFLICT (group_id, guide_id) DO UPDATE").
		Set("technical_score = EXCLUDED.technical_score").
		Set("presentation_score = EXCLUDED.presentation_score").
		Set("documentation_score = EXCLUDED.documentation_score").
		Set("innovation_score = EXCLUDED.innovation_score").
		Set("overall_score = EXCLUDED.overall_score").
		Set("status = EXCLUDED.status").
		Set("last_evaluated_at = EXCLUDED.last_evaluated_at").
		Returning("id, created_at").
		Exec(ctx)
	r.metrics.Database.RecordQuery(ctx, "upsert", "evaluations", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to upsert evaluation: %w", err)
	}
	return nil
}

func (r *repository) GetForGroupGuide(ctx context.Context, groupID, guideID int) (*models.Evaluation, error) {
	ev := new(models.Evaluation)
	start := time.Now()
	err := r.db.NewSelect().
		Model(ev).
		Where("ev.group_id = ?", groupID).
		Where("ev.guide_id = ?", guideID).
		Scan(ctx)
	r.metrics.Database.RecordQuery(ctx, "select", "evaluations", time.Since(start), err)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEvaluationNotFound
		}
		return nil, fmt.Errorf("failed to get evaluation: %w", err)
	}
	return ev, nil
}

func (r *repository) ListByGuide(ctx context.Context, guideID int) ([]models.Evaluation, error) {
	var evaluations []models.Evaluation
	start := time.Now()
	err := r.db.NewSelect().
		Model(&evaluations).
		Where("ev.guide_id = ?", guideID).
		Order("ev.last_evaluated_at DESC").
		Scan(ctx)
	r.metrics.Database.RecordQuery(ctx, "select", "evaluations", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluations by guide: %w", err)
	}
	return evaluations, nil
}

func (r *repository) ListByGroup(ctx context.Context, groupID int) ([]models.Evaluation, error) {
	var evaluations []models.Evaluation
	start := time.Now()
	err := r.db.NewSelect().
		Model(&evaluations).
		Where("ev.group_id = ?", groupID).
		Order("ev.last_evaluated_at DESC").
		Scan(ctx)
	r.metrics.Database.RecordQuery(ctx, "select", "evaluations", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluations by group: %w", err)
	}
	return evaluations, nil
}
