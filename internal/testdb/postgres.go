package testdb

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"

	"projecthub/internal/models"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

var (
	sharedContainer *PostgresContainer
	sharedOnce      sync.Once
)

// PostgresContainer wraps the postgres testcontainer
type PostgresContainer struct {
	Container *postgres.PostgresContainer
	DB        *bun.DB
	DSN       string
}

// SetupSharedPostgres creates a single PostgreSQL container shared across all
// tests in the package. Much faster than an isolated container per test.
//
// IMPORTANT: Tests using the shared container CANNOT run in parallel!
//
// Usage:
//
//	func TestMyRepository(t *testing.T) {
//	    pg := testdb.SetupSharedPostgres(t)
//	    pg.MigrateAll(t)
//
//	    t.Run("Create", func(t *testing.T) {
//	        testdb.CleanupTables(t, pg.DB, "groups", "group_members")
//	        // ... test
//	    })
//	}
func SetupSharedPostgres(t *testing.T) *PostgresContainer {
	t.Helper()

	sharedOnce.Do(func() {
		ctx := context.Background()
		pgContainer, err := postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("testdb"),
			postgres.WithUsername("postgres"),
			postgres.WithPassword("postgres"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2),
			),
		)
		require.NoError(t, err)

		connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
		require.NoError(t, err)

		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(connStr)))
		db := bun.NewDB(sqldb, pgdialect.New())

		err = db.Ping()
		require.NoError(t, err)

		sharedContainer = &PostgresContainer{
			Container: pgContainer,
			DB:        db,
			DSN:       connStr,
		}
	})

	return sharedContainer
}

func (pc *PostgresContainer) Cleanup(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	if pc.DB != nil {
		pc.DB.Close()
	}

	if pc.Container != nil {
		if err := pc.Container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
}

// MigrateAll creates every table the service owns.
func (pc *PostgresContainer) MigrateAll(t *testing.T) {
	t.Helper()
	pc.RunMigrations(t,
		(*models.Division)(nil),
		(*models.Enrollment)(nil),
		(*models.Student)(nil),
		(*models.Guide)(nil),
		(*models.Group)(nil),
		(*models.GroupMember)(nil),
		(*models.Feedback)(nil),
		(*models.Evaluation)(nil),
	)
}

func (pc *PostgresContainer) RunMigrations(t *testing.T, tableModels ...interface{}) {
	t.Helper()
	ctx := context.Background()

	for _, model := range tableModels {
		_, err := pc.DB.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx)
		require.NoError(t, err, "failed to create table")
	}
}

func CleanupTables(t *testing.T, db *bun.DB, tables ...string) {
	t.Helper()

	ctx := context.Background()

	for _, table := range tables {
		_, err := db.ExecContext(ctx, "TRUNCATE "+table+" RESTART IDENTITY CASCADE")
		require.NoError(t, err, "failed to truncate table: %s", table)
	}
}

// SeedDivision inserts an active division and returns it.
func (pc *PostgresContainer) SeedDivision(t *testing.T, course string, semester, year int) *models.Division {
	t.Helper()
	d := &models.Division{
		Course:   course,
		Semester: semester,
		Year:     year,
		Status:   models.StatusActive,
	}
	_, err := pc.DB.NewInsert().Model(d).Exec(context.Background())
	require.NoError(t, err)
	return d
}

// SeedEnrollments inserts n registered enrollments for the division using the
// standard numbering scheme, e.g. BCA2025001..BCA2025010.
func (pc *PostgresContainer) SeedEnrollments(t *testing.T, d *models.Division, n int) []models.Enrollment {
	t.Helper()
	enrollments := make([]models.Enrollment, 0, n)
	for i := 1; i <= n; i++ {
		enrollments = append(enrollments, models.Enrollment{
			DivisionID:       d.ID,
			EnrollmentNumber: fmt.Sprintf("%s%d%03d", d.Course, d.Year, i),
			IsRegistered:     true,
		})
	}
	_, err := pc.DB.NewInsert().Model(&enrollments).Exec(context.Background())
	require.NoError(t, err)
	return enrollments
}

// SeedGuide inserts an active guide and returns it.
func (pc *PostgresContainer) SeedGuide(t *testing.T, name, email string) *models.Guide {
	t.Helper()
	g := &models.Guide{
		Name:   name,
		Email:  email,
		Status: models.StatusActive,
	}
	_, err := pc.DB.NewInsert().Model(g).Exec(context.Background())
	require.NoError(t, err)
	return g
}
