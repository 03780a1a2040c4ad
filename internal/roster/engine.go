package roster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"projecthub/internal/apperr"
	"projecthub/internal/division"
	"projecthub/internal/metrics"
	"projecthub/internal/models"
)

// EligibleStudent is a registered, unclaimed enrollment that may join a
// roster in the queried scope.
type EligibleStudent struct {
	Name       string `json:"name"`
	Enrollment string `json:"enrollment"`
	ClassName  string `json:"className"`
}

// Scope targets an eligibility query at a proposed new group. DivisionID is
// optional; when set, the division's course and year must agree with the
// scope or the result is empty.
type Scope struct {
	Course     string
	Semester   int
	Year       int
	DivisionID int
}

// NewGroup carries everything needed to create a group with its initial
// roster in one shot.
type NewGroup struct {
	Name               string
	DivisionID         int
	Course             string
	Semester           int
	Year               int
	GuideID            int
	ProjectTitle       string
	ProjectDescription string
	ProjectTechnology  string
	Enrollments        []string
}

// Engine decides which students may join which group and enforces the
// roster-size invariants. It is the only place that reasons about
// division ↔ enrollment ↔ membership consistency.
type Engine struct {
	groups      GroupStore
	divisions   DivisionStore
	enrollments EnrollmentStore
	students    StudentStore
	guides      GuideStore
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

func NewEngine(
	groups GroupStore,
	divisions DivisionStore,
	enrollments EnrollmentStore,
	students StudentStore,
	guides GuideStore,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Engine {
	return &Engine{
		groups:      groups,
		divisions:   divisions,
		enrollments: enrollments,
		students:    students,
		guides:      guides,
		logger:      logger,
		metrics:     m,
	}
}

// AvailableForGroup computes the eligible set scoped to an existing group.
// The target course and semester come from the group's first member's class
// name; the year from the group itself.
func (e *Engine) AvailableForGroup(ctx context.Context, groupID int) ([]EligibleStudent, error) {
	g, err := e.groups.GetWithMembers(ctx, groupID)
	if err != nil {
		if errors.Is(err, ErrGroupNotFound) {
			return nil, apperr.NotFound("group not found")
		}
		return nil, fmt.Errorf("group store: %w", err)
	}

	scope, ok := scopeFromGroup(g)
	if !ok {
		return []EligibleStudent{}, nil
	}
	return e.AvailableForScope(ctx, scope)
}

// AvailableForScope computes the eligible set for a proposed group. An empty
// result is a normal state, not an error.
func (e *Engine) AvailableForScope(ctx context.Context, scope Scope) ([]EligibleStudent, error) {
	e.metrics.RecordEligibilityQuery(ctx)

	div, ok, err := e.resolveDivision(ctx, scope)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []EligibleStudent{}, nil
	}

	// Exclusion set: every enrollment already on any roster, recomputed per
	// query. Membership is derived from group_members, never stored on the
	// student.
	assigned, err := e.groups.AssignedEnrollments(ctx)
	if err != nil {
		return nil, fmt.Errorf("group store: %w", err)
	}
	excluded := make(map[string]bool, len(assigned))
	for _, n := range assigned {
		excluded[n] = true
	}

	registered, err := e.enrollments.RegisteredForDivision(ctx, div.ID)
	if err != nil {
		return nil, fmt.Errorf("enrollment store: %w", err)
	}

	var candidates []models.Enrollment
	var numbers []string
	for _, en := range registered {
		if excluded[en.EnrollmentNumber] {
			continue
		}
		candidates = append(candidates, en)
		numbers = append(numbers, en.EnrollmentNumber)
	}

	names, err := e.students.NamesByEnrollment(ctx, numbers)
	if err != nil {
		return nil, fmt.Errorf("student store: %w", err)
	}

	className := fmt.Sprintf("%s %d", strings.ToUpper(div.Course), div.Semester)
	eligible := make([]EligibleStudent, 0, len(candidates))
	for _, en := range candidates {
		name := names[en.EnrollmentNumber]
		if name == "" {
			name = en.StudentName
		}
		eligible = append(eligible, EligibleStudent{
			Name:       name,
			Enrollment: en.EnrollmentNumber,
			ClassName:  className,
		})
	}
	return eligible, nil
}

// AddMember appends one eligible student to the roster. The store locks
// the group row for the mutation, so two concurrent adds serialize and
// cannot exceed the cap.
func (e *Engine) AddMember(ctx context.Context, groupID int, enrollmentNumber string) (*models.GroupMember, error) {
	g, err := e.groups.GetWithMembers(ctx, groupID)
	if err != nil {
		if errors.Is(err, ErrGroupNotFound) {
			return nil, apperr.NotFound("group not found")
		}
		return nil, fmt.Errorf("group store: %w", err)
	}

	if len(g.Members) >= MaxMembers {
		return nil, apperr.Capacity("Cannot add more than 4 students to a group")
	}

	scope, ok := scopeFromGroup(g)
	var match *EligibleStudent
	if ok {
		eligible, err := e.AvailableForScope(ctx, scope)
		if err != nil {
			return nil, err
		}
		for i := range eligible {
			if eligible[i].Enrollment == enrollmentNumber {
				match = &eligible[i]
				break
			}
		}
	}
	if match == nil {
		return nil, apperr.Validation("Selected student is not available")
	}

	member := &models.GroupMember{
		GroupID:          groupID,
		Name:             match.Name,
		EnrollmentNumber: match.Enrollment,
		ClassName:        match.ClassName,
	}
	if err := e.groups.InsertMember(ctx, groupID, member, MaxMembers); err != nil {
		switch {
		case errors.Is(err, ErrGroupNotFound):
			return nil, apperr.NotFound("group not found")
		case errors.Is(err, ErrRosterFull):
			return nil, apperr.Capacity("Cannot add more than 4 students to a group")
		case errors.Is(err, ErrMemberTaken):
			// Raced by another group's add between the eligibility read
			// and the insert.
			return nil, apperr.Validation("Selected student is not available")
		default:
			return nil, fmt.Errorf("group store: %w", err)
		}
	}

	e.metrics.RecordMemberAdded(ctx)
	e.logger.InfoContext(ctx, "member added to group",
		"group_id", groupID, "enrollment", enrollmentNumber)
	return member, nil
}

// RemoveMember drops one student from the roster, never below the floor.
func (e *Engine) RemoveMember(ctx context.Context, groupID int, enrollmentNumber string) error {
	g, err := e.groups.GetWithMembers(ctx, groupID)
	if err != nil {
		if errors.Is(err, ErrGroupNotFound) {
			return apperr.NotFound("group not found")
		}
		return fmt.Errorf("group store: %w", err)
	}

	if len(g.Members) <= MinMembers {
		return apperr.Capacity("Cannot remove student: Minimum 3 students required")
	}

	if err := e.groups.DeleteMember(ctx, groupID, enrollmentNumber, MinMembers); err != nil {
		switch {
		case errors.Is(err, ErrGroupNotFound):
			return apperr.NotFound("group not found")
		case errors.Is(err, ErrRosterAtMinimum):
			return apperr.Capacity("Cannot remove student: Minimum 3 students required")
		case errors.Is(err, ErrMemberNotFound):
			return apperr.NotFound("member not found in this group")
		default:
			return fmt.Errorf("group store: %w", err)
		}
	}

	e.metrics.RecordMemberRemoved(ctx)
	e.logger.InfoContext(ctx, "member removed from group",
		"group_id", groupID, "enrollment", enrollmentNumber)
	return nil
}

// CreateGroup validates the selection against the eligibility set and
// persists the group with its initial roster in one transaction. A chosen
// enrollment outside the eligible set rejects the whole creation.
func (e *Engine) CreateGroup(ctx context.Context, ng NewGroup) (*models.Group, error) {
	if len(ng.Enrollments) < MinMembers {
		return nil, apperr.Validation("Please select at least 3 students")
	}
	if len(ng.Enrollments) > MaxMembers {
		return nil, apperr.Validation("Cannot select more than 4 students")
	}
	seen := make(map[string]bool, len(ng.Enrollments))
	for _, n := range ng.Enrollments {
		if seen[n] {
			return nil, apperr.Validation("Duplicate student selection: " + n)
		}
		seen[n] = true
	}

	guide, err := e.guides.GetByID(ctx, ng.GuideID)
	if err != nil {
		return nil, apperr.NotFound("guide not found")
	}
	if guide.Status != models.StatusActive {
		return nil, apperr.Validation("guide is not active")
	}

	eligible, err := e.AvailableForScope(ctx, Scope{
		Course:     ng.Course,
		Semester:   ng.Semester,
		Year:       ng.Year,
		DivisionID: ng.DivisionID,
	})
	if err != nil {
		return nil, err
	}
	byEnrollment := make(map[string]EligibleStudent, len(eligible))
	for _, es := range eligible {
		byEnrollment[es.Enrollment] = es
	}

	var missing []string
	members := make([]models.GroupMember, 0, len(ng.Enrollments))
	for i, n := range ng.Enrollments {
		es, ok := byEnrollment[n]
		if !ok {
			missing = append(missing, n)
			continue
		}
		members = append(members, models.GroupMember{
			Name:             es.Name,
			EnrollmentNumber: es.Enrollment,
			ClassName:        es.ClassName,
			Position:         i + 1,
		})
	}
	if len(missing) > 0 {
		return nil, apperr.Validation("Selected students are not available: " + strings.Join(missing, ", "))
	}

	g := &models.Group{
		Name:               ng.Name,
		GuideID:            ng.GuideID,
		ProjectTitle:       ng.ProjectTitle,
		ProjectDescription: ng.ProjectDescription,
		ProjectTechnology:  ng.ProjectTechnology,
		Year:               ng.Year,
	}
	created, err := e.groups.CreateWithMembers(ctx, g, members)
	if err != nil {
		if errors.Is(err, ErrMemberTaken) {
			return nil, apperr.Validation("Selected student is not available")
		}
		return nil, fmt.Errorf("group store: %w", err)
	}

	e.metrics.RecordGroupCreated(ctx)
	e.logger.InfoContext(ctx, "group created",
		"group_id", created.ID, "members", len(members), "guide_id", ng.GuideID)
	return created, nil
}

// resolveDivision finds the active division for the scope. A missing or
// mismatching division yields (nil, false, nil): empty eligibility, no error.
func (e *Engine) resolveDivision(ctx context.Context, scope Scope) (*models.Division, bool, error) {
	if scope.DivisionID != 0 {
		div, err := e.divisions.GetByID(ctx, scope.DivisionID)
		if err != nil {
			if errors.Is(err, division.ErrDivisionNotFound) {
				return nil, false, nil
			}
			return nil, false, fmt.Errorf("division store: %w", err)
		}
		if div.Status != models.StatusActive ||
			!strings.EqualFold(div.Course, scope.Course) ||
			div.Year != scope.Year {
			return nil, false, nil
		}
		return div, true, nil
	}

	div, err := e.divisions.FindActive(ctx, scope.Course, scope.Semester, scope.Year)
	if err != nil {
		if errors.Is(err, division.ErrDivisionNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("division store: %w", err)
	}
	return div, true, nil
}

// scopeFromGroup derives (course, semester, year) from the group's first
// member's class name, e.g. "BCA 6".
func scopeFromGroup(g *models.Group) (Scope, bool) {
	if len(g.Members) == 0 {
		return Scope{}, false
	}
	fields := strings.Fields(g.Members[0].ClassName)
	if len(fields) != 2 {
		return Scope{}, false
	}
	semester, err := strconv.Atoi(fields[1])
	if err != nil {
		return Scope{}, false
	}
	return Scope{Course: fields[0], Semester: semester, Year: g.Year}, true
}
