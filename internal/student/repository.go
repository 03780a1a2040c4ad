package student

import (
	"context"
	"time"

	"projecthub/internal/metrics"
	"projecthub/internal/models"

	"github.com/uptrace/bun"
)

// Repository reads the students written by the external registration flow.
// The roster engine uses it to resolve display names for enrollment numbers.
type Repository interface {
	NamesByEnrollment(ctx context.Context, numbers []string) (map[string]string, error)
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

func (r *repository) NamesByEnrollment(ctx context.Context, numbers []string) (map[string]string, error) {
	if len(numbers) == 0 {
		return map[string]string{}, nil
	}

	start := time.Now()
	var students []models.Student
	err := r.db.NewSelect().
		Model(&students).
		Column("s.name", "s.enrollment_number").
		Where("s.enrollment_number IN (?)", bun.In(numbers)).
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "students", time.Since(start), err)

	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(students))
	for _, s := range students {
		names[s.EnrollmentNumber] = s.Name
	}
	return names, nil
}
