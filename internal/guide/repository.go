package guide

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"projecthub/internal/metrics"
	"projecthub/internal/models"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

var (
	ErrGuideNotFound  = errors.New("guide not found")
	ErrDuplicateEmail = errors.New("a guide with this email already exists")
)

type Repository interface {
	Create(ctx context.Context, g *models.Guide) (*models.Guide, error)
	GetByID(ctx context.Context, id int) (*models.Guide, error)
	GetAll(ctx context.Context) ([]models.Guide, error)
	ListActive(ctx context.Context) ([]models.Guide, error)
	Update(ctx context.Context, g *models.Guide) error
	SetStatus(ctx context.Context, id int, status string) error
}

type repository struct {
	db      *bun.DB
	metrics *metrics.Metrics
}

func NewRepository(db *bun.DB, m *metrics.Metrics) Repository {
	return &repository{
		db:      db,
		metrics: m,
	}
}

func (r *repository) Create(ctx context.Context, g *models.Guide) (*models.Guide, error) {
	start := time.Now()
	_, err := r.db.NewInsert().Model(g).Returning("*").Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", "guides", time.Since(start), err)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return g, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*models.Guide, error) {
	start := time.Now()
	g := new(models.Guide)
	err := r.db.NewSelect().Model(g).Where("gd.id = ?", id).Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "guides", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGuideNotFound
		}
		return nil, err
	}
	return g, nil
}

func (r *repository) GetAll(ctx context.Context) ([]models.Guide, error) {
	start := time.Now()
	var guides []models.Guide
	err := r.db.NewSelect().Model(&guides).Order("gd.name").Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "guides", time.Since(start), err)

	return guides, err
}

func (r *repository) ListActive(ctx context.Context) ([]models.Guide, error) {
	start := time.Now()
	var guides []models.Guide
	err := r.db.NewSelect().
		Model(&guides).
		Where("gd.status = ?", models.StatusActive).
		Order("gd.name").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "guides", time.Since(start), err)

	return guides, err
}

func (r *repository) Update(ctx context.Context, g *models.Guide) error {
	start := time.Now()
	result, err := r.db.NewUpdate().
		Model(g).
		Column("name", "email", "phone", "expertise").
		Set("updated_at = current_timestamp").
		WherePK().
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "update", "guides", time.Since(start), err)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrGuideNotFound
	}
	return nil
}

func (r *repository) SetStatus(ctx context.Context, id int, status string) error {
	start := time.Now()
	result, err := r.db.NewUpdate().
		Model((*models.Guide)(nil)).
		Set("status = ?", status).
		Set("updated_at = current_timestamp").
		Where("id = ?", id).
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "update", "guides", time.Since(start), err)

	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrGuideNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23505"
	}
	return strings.Contains(err.Error(), "duplicate key value")
}
