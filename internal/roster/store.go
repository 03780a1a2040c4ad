package roster

import (
	"context"
	"errors"

	"projecthub/internal/models"
)

// Roster size invariant: every group holds 3 to 4 students after creation.
const (
	MinMembers = 3
	MaxMembers = 4
)

// Store sentinels shared with the group repository, which enforces the
// capacity bounds under a group row lock.
var (
	ErrGroupNotFound   = errors.New("group not found")
	ErrRosterFull      = errors.New("roster is at maximum capacity")
	ErrRosterAtMinimum = errors.New("roster is at minimum size")
	ErrMemberNotFound  = errors.New("member not found in group")
	ErrMemberTaken     = errors.New("student already belongs to a group")
)

// GroupStore is the slice of the group repository the engine needs.
type GroupStore interface {
	GetWithMembers(ctx context.Context, id int) (*models.Group, error)
	// AssignedEnrollments returns every enrollment number currently on any
	// group's roster, the exclusion set for eligibility queries.
	AssignedEnrollments(ctx context.Context) ([]string, error)
	// InsertMember appends a member only while the roster is below cap,
	// checked under the group's row lock. Returns ErrRosterFull or
	// ErrMemberTaken when the check fails.
	InsertMember(ctx context.Context, groupID int, m *models.GroupMember, limit int) error
	// DeleteMember removes a member only while the roster is above floor.
	// Returns ErrRosterAtMinimum or ErrMemberNotFound.
	DeleteMember(ctx context.Context, groupID int, enrollmentNumber string, floor int) error
	CreateWithMembers(ctx context.Context, g *models.Group, members []models.GroupMember) (*models.Group, error)
}

type DivisionStore interface {
	GetByID(ctx context.Context, id int) (*models.Division, error)
	FindActive(ctx context.Context, course string, semester, year int) (*models.Division, error)
}

type EnrollmentStore interface {
	RegisteredForDivision(ctx context.Context, divisionID int) ([]models.Enrollment, error)
}

type StudentStore interface {
	NamesByEnrollment(ctx context.Context, numbers []string) (map[string]string, error)
}

type GuideStore interface {
	GetByID(ctx context.Context, id int) (*models.Guide, error)
}
