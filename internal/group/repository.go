package group

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"projecthub/internal/metrics"
	"projecthub/internal/models"
	"projecthub/internal/roster"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

type Repository interface {
	roster.GroupStore
	ListFiltered(ctx context.Context, year int, course string) ([]models.Group, error)
	UpdateGuide(ctx context.Context, groupID, guideID int) error
	Delete(ctx context.Context, groupID int) error
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

func (r *repository) GetWithMembers(ctx context.Context, id int) (*models.Group, error) {
	start := time.Now()
	g := new(models.Group)
	err := r.db.NewSelect().
		Model(g).
		Relation("Guide").
		Relation("Members", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("gm.position")
		}).
		Where("g.id = ?", id).
		Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "groups", time.Since(start), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, roster.ErrGroupNotFound
		}
		return nil, err
	}
	if g.Members == nil {
		g.Members = []models.GroupMember{}
	}
	return g, nil
}

// ListFiltered returns groups for the admin list view. Zero year and empty
// course mean no filter on that dimension; course matches the members'
// class-name prefix since course is not stored on the group row.
func (r *repository) ListFiltered(ctx context.Context, year int, course string) ([]models.Group, error) {
	start := time.Now()
	var groups []models.Group
	q := r.db.NewSelect().
		Model(&groups).
		Relation("Guide").
		Relation("Members", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Order("gm.position")
		}).
		Order("g.id")

	if year != 0 {
		q = q.Where("g.year = ?", year)
	}
	if course != "" {
		q = q.Where(
			"EXISTS (SELECT 1 FROM group_members m WHERE m.group_id = g.id AND upper(m.class_name) LIKE upper(?) || ' %')",
			course,
		)
	}

	err := q.Scan(ctx)

	r.metrics.Database.RecordQuery(ctx, "select", "groups", time.Since(start), err)

	if err != nil {
		return nil, err
	}
	for i := range groups {
		if groups[i].Members == nil {
			groups[i].Members = []models.GroupMember{}
		}
	}
	return groups, nil
}

func (r *repository) AssignedEnrollments(ctx context.Context) ([]string, error) {
	start := time.Now()
	var numbers []string
	err := r.db.NewSelect().
		Model((*models.GroupMember)(nil)).
		Column("enrollment_number").
		Scan(ctx, &numbers)

	r.metrics.Database.RecordQuery(ctx, "select", "group_members", time.Since(start), err)

	return numbers, err
}

// lockGroup takes the group's row lock for the rest of the transaction.
// Roster mutations lock first so the count guard that follows cannot race
// a concurrent mutation of the same roster; under READ COMMITTED two
// sessions that skip the lock both see the pre-mutation count and both
// pass the guard.
func lockGroup(ctx context.Context, tx bun.Tx, groupID int) error {
	var id int
	err := tx.QueryRowContext(ctx, `SELECT id FROM groups WHERE id = ? FOR UPDATE`, groupID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return roster.ErrGroupNotFound
	}
	return err
}

// InsertMember appends a member only while the roster is below cap. The
// transaction locks the group row before counting, so two concurrent adds
// of a 4th member serialize and exactly one succeeds.
func (r *repository) InsertMember(ctx context.Context, groupID int, m *models.GroupMember, limit int) error {
	start := time.Now()
	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if err := lockGroup(ctx, tx, groupID); err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx, `
			INSERT INTO group_members (group_id, name, enrollment_number, class_name, position)
			SELECT ?, ?, ?, ?, COALESCE((SELECT MAX(position) FROM group_members WHERE group_id = ?), 0) + 1
			WHERE (SELECT COUNT(*) FROM group_members WHERE group_id = ?) < ?
		`, groupID, m.Name, m.EnrollmentNumber, m.ClassName, groupID, groupID, limit)
		if err != nil {
			return err
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rowsAffected == 0 {
			return roster.ErrRosterFull
		}
		return nil
	})

	r.metrics.Database.RecordQuery(ctx, "insert", "group_members", time.Since(start), err)

	if err != nil && isUniqueViolation(err) {
		return roster.ErrMemberTaken
	}
	return err
}

// DeleteMember removes a member only while the roster is above floor. Same
// locking discipline as InsertMember, so two concurrent removes from a
// minimum-plus-one roster serialize and exactly one succeeds.
func (r *repository) DeleteMember(ctx context.Context, groupID int, enrollmentNumber string, floor int) error {
	start := time.Now()
	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if err := lockGroup(ctx, tx, groupID); err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx, `
			DELETE FROM group_members
			WHERE group_id = ? AND enrollment_number = ?
			  AND (SELECT COUNT(*) FROM group_members WHERE group_id = ?) > ?
		`, groupID, enrollmentNumber, groupID, floor)
		if err != nil {
			return err
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rowsAffected == 0 {
			// Tell a missing member apart from a roster at the floor.
			exists, err := tx.NewSelect().
				Model((*models.GroupMember)(nil)).
				Where("group_id = ?", groupID).
				Where("enrollment_number = ?", enrollmentNumber).
				Exists(ctx)
			if err != nil {
				return err
			}
			if !exists {
				return roster.ErrMemberNotFound
			}
			return roster.ErrRosterAtMinimum
		}
		return nil
	})

	r.metrics.Database.RecordQuery(ctx, "delete", "group_members", time.Since(start), err)

	return err
}

func (r *repository) CreateWithMembers(ctx context.Context, g *models.Group, members []models.GroupMember) (*models.Group, error) {
	start := time.Now()
	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(g).Returning("*").Exec(ctx); err != nil {
			return err
		}
		for i := range members {
			members[i].GroupID = g.ID
		}
		if _, err := tx.NewInsert().Model(&members).Exec(ctx); err != nil {
			return err
		}
		return nil
	})

	r.metrics.Database.RecordQuery(ctx, "insert", "groups", time.Since(start), err)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, roster.ErrMemberTaken
		}
		return nil, err
	}
	g.Members = members
	return g, nil
}

func (r *repository) UpdateGuide(ctx context.Context, groupID, guideID int) error {
	start := time.Now()
	result, err := r.db.NewUpdate().
		Model((*models.Group)(nil)).
		Set("guide_id = ?", guideID).
		Set("updated_at = current_timestamp").
		Where("id = ?", groupID).
		Exec(ctx)

	r.metrics.Database.RecordQuery(ctx, "update", "groups", time.Since(start), err)

	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return roster.ErrGroupNotFound
	}
	return nil
}

// Delete removes the group and its roster in one transaction, freeing the
// members' enrollment numbers for future eligibility.
func (r *repository) Delete(ctx context.Context, groupID int) error {
	start := time.Now()
	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*models.GroupMember)(nil)).
			Where("group_id = ?", groupID).
			Exec(ctx); err != nil {
			return err
		}

		result, err := tx.NewDelete().
			Model((*models.Group)(nil)).
			Where("id = ?", groupID).
			Exec(ctx)
		if err != nil {
			return err
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rowsAffected == 0 {
			return roster.ErrGroupNotFound
		}
		return nil
	})

	r.metrics.Database.RecordQuery(ctx, "delete", "groups", time.Since(start), err)

	return err
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23505"
	}
	return strings.Contains(err.Error(), "duplicate key value")
}
