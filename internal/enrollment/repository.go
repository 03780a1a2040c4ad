package enrollment

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
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrDuplicateNumber    = errors.New("enrollment number already exists")
)

type Repository interface {
	Create(ctx context.Context, e *models.Enrollment) (*models.Enrollment, error)
	BulkCreate(ctx context.Context, es []models.Enrollment) (int, error)
	ListForDivision(ctx context.Context, divisionID int) ([]models.Enrollment, error)
	RegisteredForDivision(ctx context.Context, divisionID int) ([]models.Enrollment, error)
	NumbersForDivision(ctx context.Context, divisionID int) (map[string]bool, error)
	Counts(ctx context.Context, divisionID int) (registered, total int, err error)
	DeleteByNumber(ctx context.Context, number string) error
	DeleteForDivision(ctx context.Context, divisionID int) (int64, error)
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

func (r *repository) Create(ctx context.Context, e *models.Enrollment) (*models.Enrollment, error) {
	start := time.Now()
	_, err := r.db.NewInsert().Model(e).Returning("*").Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", "enrollments", time.Since(start), err)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateNumber
		}
		return nil, err
	}
	return e, nil
}

// BulkCreate inserts the batch, skipping numbers that already exist, and
// returns how many rows were actually created.
func (r *repository) BulkCreate(ctx context.Context, es []models.Enrollment) (int, error) {
	if len(es) == 0 {
		return 0, nil
	}

	start := time.Now()
	result, err := r.db.NewInsert().
		Model(&es).
		On("CONFLICT (enrollment_number) DO NOTHING").
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "insert", "enrollments", time.Since(start), err)

	if err != nil {
		return 0, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(rowsAffected), nil
}

func (r *repository) ListForDivision(ctx context.Context, divisionID int) ([]models.Enrollment, error) {
	start := time.Now()
	var enrollments []models.Enrollment
	err := r.db.NewSelect().
		Model(&enrollments).
		Where("e.division_id = ?", divisionID).
		Order("e.enrollment_number").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "enrollments", time.Since(start), err)

	return enrollments, err
}

func (r *repository) RegisteredForDivision(ctx context.Context, divisionID int) ([]models.Enrollment, error) {
	start := time.Now()
	var enrollments []models.Enrollment
	err := r.db.NewSelect().
		Model(&enrollments).
		Where("e.division_id = ?", divisionID).
		Where("e.is_registered").
		Order("e.enrollment_number").
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "enrollments", time.Since(start), err)

	return enrollments, err
}

func (r *repository) NumbersForDivision(ctx context.Context, divisionID int) (map[string]bool, error) {
	start := time.Now()
	var numbers []string
	err := r.db.NewSelect().
		Model((*models.Enrollment)(nil)).
		Column("enrollment_number").
		Where("division_id = ?", divisionID).
		Scan(ctx, &numbers)

	r.metrics.Database.RecordQuery(ctx, "select", "enrollments", time.Since(start), err)

	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(numbers))
	for _, n := range numbers {
		set[n] = true
	}
	return set, nil
}

func (r *repository) Counts(ctx context.Context, divisionID int) (int, int, error) {
	start := time.Now()
	var counts struct {
		Registered int `bun:"registered"`
		Total      int `bun:"total"`
	}
	err := r.db.NewSelect().
		Model((*models.Enrollment)(nil)).
		ColumnExpr("count(*) FILTER (WHERE is_registered) AS registered").
		ColumnExpr("count(*) AS total").
		Where("division_id = ?", divisionID).
		Scan(ctx, &counts)

	r.metrics.Database.RecordQuery(ctx, "select", "enrollments", time.Since(start), err)

	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, 0, err
	}
	return counts.Registered, counts.Total, nil
}

func (r *repository) DeleteByNumber(ctx context.Context, number string) error {
	start := time.Now()
	result, err := r.db.NewDelete().
		Model((*models.Enrollment)(nil)).
		Where("enrollment_number = ?", number).
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "delete", "enrollments", time.Since(start), err)

	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrEnrollmentNotFound
	}
	return nil
}

func (r *repository) DeleteForDivision(ctx context.Context, divisionID int) (int64, error) {
	start := time.Now()
	result, err := r.db.NewDelete().
		Model((*models.Enrollment)(nil)).
		Where("division_id = ?", divisionID).
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "delete", "enrollments", time.Since(start), err)

	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23505"
	}
	return strings.Contains(err.Error(), "duplicate key value")
}
