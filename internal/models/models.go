package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Entity statuses. Divisions and guides toggle between active and inactive;
// only active ones participate in eligibility and assignment.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Feedback lifecycle.
const (
	FeedbackSubmitted       = "submitted"
	FeedbackPendingResponse = "pending_response"
	FeedbackCompleted       = "completed"
)

// Evaluation lifecycle.
const (
	EvaluationPending     = "pending_evaluation"
	EvaluationUnderReview = "under_review"
	EvaluationCompleted   = "completed"
)

// Division is an academic (course, semester, year) cohort that scopes
// enrollment numbers.
type Division struct {
	bun.BaseModel `bun:"table:divisions,alias:d"`

	ID        int       `bun:"id,pk,autoincrement" json:"id"`
	Course    string    `bun:"course,notnull" json:"course" validate:"required,alpha"`
	Semester  int       `bun:"semester,notnull" json:"semester" validate:"required,min=1,max=8"`
	Year      int       `bun:"year,notnull" json:"year" validate:"required,min=2000,max=2100"`
	Status    string    `bun:"status,notnull,default:'active'" json:"status"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`
}

// Enrollment is a student-slot identifier within a division. IsRegistered
// flips true once a Student record claims the number; the claiming flow
// lives in registration, outside this service.
type Enrollment struct {
	bun.BaseModel `bun:"table:enrollments,alias:e"`

	ID               int       `bun:"id,pk,autoincrement" json:"id"`
	DivisionID       int       `bun:"division_id,notnull" json:"divisionId"`
	EnrollmentNumber string    `bun:"enrollment_number,notnull,unique" json:"enrollmentNumber"`
	IsRegistered     bool      `bun:"is_registered,notnull,default:false" json:"isRegistered"`
	StudentName      string    `bun:"student_name" json:"studentName,omitempty"`
	CreatedAt        time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt        time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`
}

// Student is the registered owner of an enrollment number. Rows are written
// by the external registration flow; this service only reads them to
// resolve display names.
type Student struct {
	bun.BaseModel `bun:"table:students,alias:s"`

	ID               int       `bun:"id,pk,autoincrement" json:"id"`
	Name             string    `bun:"name,notnull" json:"name"`
	Email            string    `bun:"email,notnull,unique" json:"email"`
	EnrollmentNumber string    `bun:"enrollment_number,notnull,unique" json:"enrollmentNumber"`
	CreatedAt        time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
}

// Guide is a faculty supervisor. Only active guides are selectable as a
// group's guide.
type Guide struct {
	bun.BaseModel `bun:"table:guides,alias:gd"`

	ID        int       `bun:"id,pk,autoincrement" json:"id"`
	Name      string    `bun:"name,notnull" json:"name" validate:"required"`
	Email     string    `bun:"email,notnull,unique" json:"email" validate:"required,email"`
	Phone     string    `bun:"phone" json:"phone"`
	Expertise string    `bun:"expertise" json:"expertise"`
	Status    string    `bun:"status,notnull,default:'active'" json:"status"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`
}

// Group is a project group. The roster lives in group_members; guides are
// referenced by stable ID, the name is display-only denormalization.
type Group struct {
	bun.BaseModel `bun:"table:groups,alias:g"`

	ID                 int       `bun:"id,pk,autoincrement" json:"id"`
	Name               string    `bun:"name,notnull" json:"name"`
	GuideID            int       `bun:"guide_id,notnull" json:"guideId"`
	ProjectTitle       string    `bun:"project_title" json:"projectTitle"`
	ProjectDescription string    `bun:"project_description" json:"projectDescription"`
	ProjectTechnology  string    `bun:"project_technology" json:"projectTechnology"`
	Year               int       `bun:"year,notnull" json:"year"`
	CreatedAt          time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt          time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`

	Guide   *Guide        `bun:"rel:belongs-to,join:guide_id=id" json:"guide,omitempty"`
	Members []GroupMember `bun:"rel:has-many,join:id=group_id" json:"members"`
}

// GroupMember is one roster slot. The table-wide unique constraint on
// enrollment_number is what guarantees a student belongs to at most one
// group at any time.
type GroupMember struct {
	bun.BaseModel `bun:"table:group_members,alias:gm"`

	ID               int    `bun:"id,pk,autoincrement" json:"id"`
	GroupID          int    `bun:"group_id,notnull" json:"groupId"`
	Name             string `bun:"name,notnull" json:"name"`
	EnrollmentNumber string `bun:"enrollment_number,notnull,unique" json:"enrollment"`
	ClassName        string `bun:"class_name,notnull" json:"className"`
	Position         int    `bun:"position,notnull" json:"position"`
}

// Feedback is a guide's feedback on a group's project. The response is
// filled asynchronously by the student side.
type Feedback struct {
	bun.BaseModel `bun:"table:feedbacks,alias:f"`

	ID              int       `bun:"id,pk,autoincrement" json:"id"`
	GroupID         int       `bun:"group_id,notnull" json:"groupId"`
	GuideID         int       `bun:"guide_id,notnull" json:"guideId"`
	ProjectTitle    string    `bun:"project_title" json:"projectTitle"`
	Message         string    `bun:"message,notnull" json:"message" validate:"required"`
	Rating          int       `bun:"rating,notnull" json:"rating" validate:"required,min=1,max=5"`
	Recommendations string    `bun:"recommendations" json:"recommendations"`
	Status          string    `bun:"status,notnull,default:'submitted'" json:"status"`
	Response        string    `bun:"response" json:"response,omitempty"`
	CreatedAt       time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt       time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`
}

// Evaluation is a guide's scoring of one group, unique per (group, guide).
type Evaluation struct {
	bun.BaseModel `bun:"table:evaluations,alias:ev"`

	ID                 int       `bun:"id,pk,autoincrement" json:"id"`
	GroupID            int       `bun:"group_id,notnull,unique:group_guide" json:"groupId"`
	GuideID            int       `bun:"guide_id,notnull,unique:group_guide" json:"guideId"`
	TechnicalScore     float64   `bun:"technical_score,notnull,default:0" json:"technicalScore" validate:"min=0"`
	PresentationScore  float64   `bun:"presentation_score,notnull,default:0" json:"presentationScore" validate:"min=0"`
	DocumentationScore float64   `bun:"documentation_score,notnull,default:0" json:"documentationScore" validate:"min=0"`
	InnovationScore    float64   `bun:"innovation_score,notnull,default:0" json:"innovationScore" validate:"min=0"`
	OverallScore       float64   `bun:"overall_score,notnull,default:0" json:"overallScore" validate:"min=0"`
	Status             string    `bun:"status,notnull,default:'pending_evaluation'" json:"status"`
	LastEvaluatedAt    time.Time `bun:"last_evaluated_at" json:"lastEvaluatedAt"`
	CreatedAt          time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt          time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`
}
