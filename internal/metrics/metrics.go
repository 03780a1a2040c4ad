package metrics

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the service's domain counters plus database instrumentation.
// All Record* methods are nil-safe so tests can pass a zero value.
type Metrics struct {
	Database *DatabaseMetrics

	groupsCreated       metric.Int64Counter
	groupsDeleted       metric.Int64Counter
	membersAdded        metric.Int64Counter
	membersRemoved      metric.Int64Counter
	guideReassignments  metric.Int64Counter
	eligibilityQueries  metric.Int64Counter
	enrollmentsCreated  metric.Int64Counter
	feedbackSubmitted   metric.Int64Counter
	evaluationsRecorded metric.Int64Counter
}

func New(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	database, err := NewDatabaseMetrics(meter)
	if err != nil {
		return nil, err
	}
	m.Database = database

	m.groupsCreated, err = meter.Int64Counter(
		"projecthub.groups.created",
		metric.WithDescription("Total number of project groups created"),
		metric.WithUnit("{group}"),
	)
	if err != nil {
		return nil, err
	}

	m.groupsDeleted, err = meter.Int64Counter(
		"projecthub.groups.deleted",
		metric.WithDescription("Total number of project groups deleted"),
		metric.WithUnit("{group}"),
	)
	if err != nil {
		return nil, err
	}

	m.membersAdded, err = meter.Int64Counter(
		"projecthub.groups.members_added",
		metric.WithDescription("Total number of students added to group rosters"),
		metric.WithUnit("{member}"),
	)
	if err != nil {
		return nil, err
	}

	m.membersRemoved, err = meter.Int64Counter(
		"projecthub.groups.members_removed",
		metric.WithDescription("Total number of students removed from group rosters"),
		metric.WithUnit("{member}"),
	)
	if err != nil {
		return nil, err
	}

	m.guideReassignments, err = meter.Int64Counter(
		"projecthub.groups.guide_reassignments",
		metric.WithDescription("Total number of guide reassignments"),
		metric.WithUnit("{change}"),
	)
	if err != nil {
		return nil, err
	}

	m.eligibilityQueries, err = meter.Int64Counter(
		"projecthub.roster.eligibility_queries",
		metric.WithDescription("Total number of available-student eligibility queries"),
		metric.WithUnit("{query}"),
	)
	if err != nil {
		return nil, err
	}

	m.enrollmentsCreated, err = meter.Int64Counter(
		"projecthub.enrollments.created",
		metric.WithDescription("Total number of enrollment numbers created"),
		metric.WithUnit("{enrollment}"),
	)
	if err != nil {
		return nil, err
	}

	m.feedbackSubmitted, err = meter.Int64Counter(
		"projecthub.feedback.submitted",
		metric.WithDescription("Total number of feedback entries submitted by guides"),
		metric.WithUnit("{feedback}"),
	)
	if err != nil {
		return nil, err
	}

	m.evaluationsRecorded, err = meter.Int64Counter(
		"projecthub.evaluations.recorded",
		metric.WithDescription("Total number of project evaluations recorded"),
		metric.WithUnit("{evaluation}"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// NewMock creates a no-op Metrics instance for tests.
func NewMock() *Metrics {
	return &Metrics{Database: &DatabaseMetrics{}}
}

func (m *Metrics) RecordGroupCreated(ctx context.Context) {
	if m != nil && m.groupsCreated != nil {
		m.groupsCreated.Add(ctx, 1)
	}
}

func (m *Metrics) RecordGroupDeleted(ctx context.Context) {
	if m != nil && m.groupsDeleted != nil {
		m.groupsDeleted.Add(ctx, 1)
	}
}

func (m *Metrics) RecordMemberAdded(ctx context.Context) {
	if m != nil && m.membersAdded != nil {
		m.membersAdded.Add(ctx, 1)
	}
}

func (m *Metrics) RecordMemberRemoved(ctx context.Context) {
	if m != nil && m.membersRemoved != nil {
		m.membersRemoved.Add(ctx, 1)
	}
}

func (m *Metrics) RecordGuideReassignment(ctx context.Context) {
	if m != nil && m.guideReassignments != nil {
		m.guideReassignments.Add(ctx, 1)
	}
}

func (m *Metrics) RecordEligibilityQuery(ctx context.Context) {
	if m != nil && m.eligibilityQueries != nil {
		m.eligibilityQueries.Add(ctx, 1)
	}
}

func (m *Metrics) RecordEnrollmentsCreated(ctx context.Context, n int64) {
	if m != nil && m.enrollmentsCreated != nil && n > 0 {
		m.enrollmentsCreated.Add(ctx, n)
	}
}

func (m *Metrics) RecordFeedbackSubmitted(ctx context.Context) {
	if m != nil && m.feedbackSubmitted != nil {
		m.feedbackSubmitted.Add(ctx, 1)
	}
}

func (m *Metrics) RecordEvaluationRecorded(ctx context.Context) {
	if m != nil && m.evaluationsRecorded != nil {
		m.evaluationsRecorded.Add(ctx, 1)
	}
}
