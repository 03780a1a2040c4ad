package division

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"projecthub/internal/metrics"
	"projecthub/internal/models"

	"github.com/uptrace/bun"
)

var ErrDivisionNotFound = errors.New("division not found")

type Repository interface {
	Create(ctx context.Context, d *models.Division) (*models.Division, error)
	GetByID(ctx context.Context, id int) (*models.Division, error)
	GetAll(ctx context.Context) ([]models.Division, error)
	ListActive(ctx context.Context, course string, year int) ([]models.Division, error)
	FindActive(ctx context.Context, course string, semester, year int) (*models.Division, error)
	SetStatus(ctx context.Context, id int, status string) error
	Delete(ctx context.Context, id int) error
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

func (r *repository) Create(ctx context.Context, d *models.Division) (*models.Division, error) {
	start := time.Now()
	_, err := r.db.NewInsert().Model(d).Returning("*").Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", "divisions", time.Since(start), err)

	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*models.Division, error) {
	start := time.Now()
	d := new(models.Division)
	err := r.db.NewSelect().Model(d).Where("d.id = ?", id).Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "divisions", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDivisionNotFound
		}
		return nil, err
	}
	return d, nil
}

func (r *repository) GetAll(ctx context.Context) ([]models.Division, error) {
	start := time.Now()
	var divisions []models.Division
	err := r.db.NewSelect().Model(&divisions).Order("d.id").Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "divisions", time.Since(start), err)

	return divisions, err
}

func (r *repository) ListActive(ctx context.Context, course string, year int) ([]models.Division, error) {
	start := time.Now()
	var divisions []models.Division
	err := r.db.NewSelect().
		Model(&divisions).
		Where("upper(d.course) = upper(?)", course).
		Where("d.year = ?", year).
		Where("d.status = ?", models.StatusActive).
		Order("d.semester").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "divisions", time.Since(start), err)

	return divisions, err
}

func (r *repository) FindActive(ctx context.Context, course string, semester, year int) (*models.Division, error) {
	start := time.Now()
	d := new(models.Division)
	err := r.db.NewSelect().
		Model(d).
		Where("upper(d.course) = upper(?)", course).
		Where("d.semester = ?", semester).
		Where("d.year = ?", year).
		Where("d.status = ?", models.StatusActive).
		Limit(1).
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "divisions", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDivisionNotFound
		}
		return nil, err
	}
	return d, nil
}

func (r *repository) SetStatus(ctx context.Context, id int, status string) error {
	start := time.Now()
	result, err := r.db.NewUpdate().
		Model((*models.Division)(nil)).
		Set("status = ?", status).
		Set("updated_at = current_timestamp").
		Where("id = ?", id).
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "update", "divisions", time.Since(start), err)

	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrDivisionNotFound
	}
	return nil
}

// Delete removes the division and its enrollments in one transaction.
func (r *repository) Delete(ctx context.Context, id int) error {
	start := time.Now()
	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*models.Enrollment)(nil)).
			Where("division_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}

		result, err := tx.NewDelete().
			Model((*models.Division)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return err
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rowsAffected == 0 {
			return ErrDivisionNotFound
		}
		return nil
	})

	r.metrics.Database.RecordQuery(ctx, "delete", "divisions", time.Since(start), err)

	return err
}
