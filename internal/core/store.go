package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Transactor runs fn as one atomic unit of work. Calls nested inside an active
// unit join it instead of opening a new one.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// AuditEvent is a fire-and-forget record of a committed state change.
type AuditEvent struct {
	Type       string         `json:"type"`
	ActorID    uuid.UUID      `json:"actor_id"`
	SubjectID  string         `json:"subject_id"`
	Attributes map[string]any `json:"attributes,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// AuditSink accepts audit events. Failures never fail the calling operation.
type AuditSink interface {
	Record(ctx context.Context, event AuditEvent) error
}

// Audit event types.
const (
	AuditAccountOpened       = "account.opened"
	AuditCreditsCredited     = "credits.credited"
	AuditCreditsDebited      = "credits.debited"
	AuditCourseCreated       = "course.created"
	AuditCoursePublished     = "course.published"
	AuditEnrollmentCreated   = "enrollment.created"
	AuditLessonCompleted     = "lesson.completed"
	AuditEnrollmentCompleted = "enrollment.completed"
	AuditCertificateIssued   = "certificate.issued"
)
