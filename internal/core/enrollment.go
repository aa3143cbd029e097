package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PaymentMethod selects how an enrollment is settled.
type PaymentMethod string

const (
	PaymentCredits PaymentMethod = "credits"
	PaymentMoney   PaymentMethod = "money"
)

// Enrollment is a user's registration in a course. Progress is derived from
// lesson progress and never decreases; CompletedAt is set exactly once.
type Enrollment struct {
	ID             uuid.UUID
	CourseID       uuid.UUID
	UserID         uuid.UUID
	Progress       int
	CompletedAt    *time.Time
	PaymentMethod  PaymentMethod
	PricePaid      int64
	IdempotencyKey string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Completed reports whether the enrollment reached its terminal state.
func (e Enrollment) Completed() bool {
	return e.CompletedAt != nil
}

// LessonProgress tracks one lesson for one enrollment. TimeSpent is in minutes.
type LessonProgress struct {
	ID           uuid.UUID
	EnrollmentID uuid.UUID
	LessonID     uuid.UUID
	Completed    bool
	CompletedAt  *time.Time
	TimeSpent    int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// EnrollParams describes an enrollment request.
type EnrollParams struct {
	UserID         uuid.UUID
	CourseID       uuid.UUID
	PaymentMethod  PaymentMethod
	IdempotencyKey string
}

// ProgressReport describes a lesson progress report. A nil ActorID skips the
// ownership check for trusted internal callers.
type ProgressReport struct {
	EnrollmentID   uuid.UUID
	LessonID       uuid.UUID
	TimeSpentDelta int
	ActorID        uuid.UUID
}

// EnrollmentDetail bundles an enrollment with its lesson progress rows.
type EnrollmentDetail struct {
	Enrollment Enrollment
	Lessons    []LessonProgress
}

// CourseContent is the lesson listing for a viewer. Locked content has its
// ContentURL removed.
type CourseContent struct {
	Course   Course
	Lessons  []Lesson
	Unlocked bool
}

// CreatorPayout is the creator's share of a credit price, floor(price*0.8).
// It is computed as price - ceil(price/5) so no intermediate overflows.
func CreatorPayout(price int64) int64 {
	if price <= 0 {
		return 0
	}
	payout := price - price/5
	if price%5 != 0 {
		payout--
	}
	return payout
}

// LessonSkillPoints is the one-time award for completing a lesson.
func LessonSkillPoints(duration int) int64 {
	return max(1, int64(duration/15))
}

// CompletionBadge is the badge granted on course completion.
func CompletionBadge(courseID uuid.UUID) string {
	return fmt.Sprintf("course-completed-%s", courseID)
}

// ProgressPercent is floor(100 * completed / total), zero for empty courses.
func ProgressPercent(completed, total int) int {
	if total <= 0 {
		return 0
	}
	if completed > total {
		completed = total
	}
	return 100 * completed / total
}

// EnrollmentRepository defines persistence for enrollments and lesson progress.
type EnrollmentRepository interface {
	CreateEnrollment(ctx context.Context, enrollment Enrollment) error
	GetEnrollment(ctx context.Context, id uuid.UUID) (*Enrollment, error)
	// LockEnrollment reads the enrollment and holds a row lock until the
	// surrounding unit of work ends, where the store supports it.
	LockEnrollment(ctx context.Context, id uuid.UUID) (*Enrollment, error)
	FindEnrollment(ctx context.Context, userID, courseID uuid.UUID) (*Enrollment, error)
	FindEnrollmentByKey(ctx context.Context, userID uuid.UUID, key string) (*Enrollment, error)
	// UpdateEnrollmentProgress never lowers the stored progress and never
	// overwrites an existing completion timestamp.
	UpdateEnrollmentProgress(ctx context.Context, id uuid.UUID, progress int, completedAt *time.Time, at time.Time) error
	ListEnrollmentsByCourse(ctx context.Context, courseID uuid.UUID) ([]Enrollment, error)
	ListEnrollmentsByUser(ctx context.Context, userID uuid.UUID) ([]Enrollment, error)

	GetLessonProgress(ctx context.Context, enrollmentID, lessonID uuid.UUID) (*LessonProgress, error)
	CreateLessonProgress(ctx context.Context, progress LessonProgress) error
	UpdateLessonProgress(ctx context.Context, progress LessonProgress) error
	ListLessonProgress(ctx context.Context, enrollmentID uuid.UUID) ([]LessonProgress, error)
	ListCourseLessonProgress(ctx context.Context, courseID uuid.UUID) ([]LessonProgress, error)
}

// EnrollmentService exposes the enrollment engine to adapters.
type EnrollmentService interface {
	Enroll(ctx context.Context, params EnrollParams) (*Enrollment, error)
	ReportLessonProgress(ctx context.Context, report ProgressReport) (*Enrollment, error)
	CanAccess(ctx context.Context, userID, courseID uuid.UUID) (bool, error)
	GetEnrollment(ctx context.Context, id, actorID uuid.UUID) (*EnrollmentDetail, error)
	ListEnrollments(ctx context.Context, userID uuid.UUID) ([]Enrollment, error)
	CourseContent(ctx context.Context, courseID, viewerID uuid.UUID) (*CourseContent, error)
}
