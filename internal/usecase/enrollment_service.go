package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/eslsoft/skillswap/internal/core"
	"github.com/eslsoft/skillswap/internal/platform/logger"
)

const maxIdempotencyKeyLength = 128

// EnrollmentService settles enrollments and drives per-lesson progress to
// completion.
type EnrollmentService struct {
	courses     core.CourseRepository
	enrollments core.EnrollmentRepository
	users       core.UserRepository
	ledger      core.LedgerService
	certs       core.CertificationService
	tx          core.Transactor
	audit       *Auditor
	policy      Policy
	locks       *keyedMutex
	log         *logger.Logger
	now         func() time.Time
}

// NewEnrollmentService constructs an EnrollmentService.
func NewEnrollmentService(
	courses core.CourseRepository,
	enrollments core.EnrollmentRepository,
	users core.UserRepository,
	ledger core.LedgerService,
	certs core.CertificationService,
	tx core.Transactor,
	audit *Auditor,
	policy Policy,
	log *logger.Logger,
) *EnrollmentService {
	if log == nil {
		log = logger.NewNop()
	}
	return &EnrollmentService{
		courses:     courses,
		enrollments: enrollments,
		users:       users,
		ledger:      ledger,
		certs:       certs,
		tx:          tx,
		audit:       audit,
		policy:      policy,
		locks:       newKeyedMutex(),
		log:         log.With("component", "enrollment"),
		now:         time.Now,
	}
}

// WithClock allows tests to override the clock used by the service.
func (s *EnrollmentService) WithClock(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

var _ core.EnrollmentService = (*EnrollmentService)(nil)

// Enroll registers a user in a published course. Settlement (student debit,
// creator payout) and the enrollment insert commit as one unit; a repeated
// call carrying the same idempotency key returns the original enrollment.
func (s *EnrollmentService) Enroll(ctx context.Context, params core.EnrollParams) (*core.Enrollment, error) {
	if params.UserID == uuid.Nil || params.CourseID == uuid.Nil {
		return nil, fmt.Errorf("%w: user id and course id required", core.ErrValidation)
	}
	if params.PaymentMethod == "" {
		params.PaymentMethod = core.PaymentCredits
	}
	if params.PaymentMethod != core.PaymentCredits && params.PaymentMethod != core.PaymentMoney {
		return nil, fmt.Errorf("%w: unknown payment method %q", core.ErrValidation, params.PaymentMethod)
	}
	params.IdempotencyKey = strings.TrimSpace(params.IdempotencyKey)
	if len(params.IdempotencyKey) > maxIdempotencyKeyLength {
		return nil, fmt.Errorf("%w: idempotency key too long", core.ErrValidation)
	}

	unlock := s.locks.Lock("enroll:" + params.UserID.String() + ":" + params.CourseID.String())
	defer unlock()

	var out *core.Enrollment
	err := s.audit.run(ctx, s.tx, func(ctx context.Context) error {
		enrollment, err := s.enroll(ctx, params)
		out = enrollment
		return err
	})
	if errors.Is(err, core.ErrConflict) && params.IdempotencyKey != "" {
		// a concurrent request with the same key committed first
		if prior, lookupErr := s.replay(ctx, params); lookupErr == nil && prior != nil {
			return prior, nil
		}
	}
	if errors.Is(err, core.ErrConflict) {
		return nil, core.ErrAlreadyEnrolled
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *EnrollmentService) enroll(ctx context.Context, params core.EnrollParams) (*core.Enrollment, error) {
	if params.IdempotencyKey != "" {
		prior, err := s.replay(ctx, params)
		if err != nil || prior != nil {
			return prior, err
		}
	}

	course, err := s.courses.GetCourse(ctx, params.CourseID)
	if err != nil {
		return nil, err
	}
	if course.Status != core.CourseStatusPublished {
		return nil, core.ErrNotAvailable
	}
	if course.CreatorID == params.UserID {
		return nil, core.ErrSelfEnrollment
	}
	if _, err := s.enrollments.FindEnrollment(ctx, params.UserID, params.CourseID); err == nil {
		return nil, core.ErrAlreadyEnrolled
	} else if !isNotFound(err) {
		return nil, err
	}

	if params.PaymentMethod == core.PaymentMoney {
		return nil, fmt.Errorf("%w: money payments require a payment gateway", core.ErrNotImplemented)
	}

	pricePaid, err := s.settle(ctx, params.UserID, course)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	enrollment := core.Enrollment{
		ID:             uuid.New(),
		CourseID:       course.ID,
		UserID:         params.UserID,
		PaymentMethod:  params.PaymentMethod,
		PricePaid:      pricePaid,
		IdempotencyKey: params.IdempotencyKey,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.enrollments.CreateEnrollment(ctx, enrollment); err != nil {
		return nil, err
	}
	s.audit.stage(ctx, core.AuditEvent{
		Type:       core.AuditEnrollmentCreated,
		ActorID:    params.UserID,
		SubjectID:  enrollment.ID.String(),
		Attributes: map[string]any{"course_id": course.ID.String(), "price_paid": pricePaid},
		OccurredAt: now,
	})
	return &enrollment, nil
}

// settle debits the student before crediting the creator. Free courses touch
// no ledger state.
func (s *EnrollmentService) settle(ctx context.Context, studentID uuid.UUID, course *core.Course) (int64, error) {
	price := course.PriceCredits
	if price <= 0 {
		if _, err := s.users.GetUser(ctx, studentID); err != nil {
			return 0, err
		}
		return 0, nil
	}

	related := course.ID.String()
	if _, err := s.ledger.Debit(ctx, core.CreditParams{
		UserID:      studentID,
		Amount:      price,
		Type:        core.TransactionSpent,
		Description: fmt.Sprintf("Enrollment in %s", course.Title),
		RelatedID:   related,
	}); err != nil {
		return 0, err
	}
	if payout := core.CreatorPayout(price); payout > 0 {
		if _, err := s.ledger.Credit(ctx, core.CreditParams{
			UserID:      course.CreatorID,
			Amount:      payout,
			Type:        core.TransactionEarned,
			Description: fmt.Sprintf("Enrollment revenue for %s", course.Title),
			RelatedID:   related,
		}); err != nil {
			return 0, err
		}
	}
	return price, nil
}

// replay returns the enrollment recorded under the idempotency key, or nil.
func (s *EnrollmentService) replay(ctx context.Context, params core.EnrollParams) (*core.Enrollment, error) {
	prior, err := s.enrollments.FindEnrollmentByKey(ctx, params.UserID, params.IdempotencyKey)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if prior.CourseID != params.CourseID {
		return nil, fmt.Errorf("%w: idempotency key already used for another course", core.ErrValidation)
	}
	return prior, nil
}

// ReportLessonProgress records time on a lesson, marks it complete, and
// recomputes the enrollment's progress from every lesson of the course.
func (s *EnrollmentService) ReportLessonProgress(ctx context.Context, report core.ProgressReport) (*core.Enrollment, error) {
	if report.EnrollmentID == uuid.Nil || report.LessonID == uuid.Nil {
		return nil, fmt.Errorf("%w: enrollment id and lesson id required", core.ErrValidation)
	}
	if report.TimeSpentDelta < 0 {
		return nil, fmt.Errorf("%w: time spent must be non-negative", core.ErrValidation)
	}

	unlock := s.locks.Lock("progress:" + report.EnrollmentID.String())
	defer unlock()

	err := s.audit.run(ctx, s.tx, func(ctx context.Context) error {
		return s.reportProgress(ctx, report)
	})
	if err != nil {
		return nil, err
	}
	return s.enrollments.GetEnrollment(ctx, report.EnrollmentID)
}

func (s *EnrollmentService) reportProgress(ctx context.Context, report core.ProgressReport) error {
	enrollment, err := s.enrollments.LockEnrollment(ctx, report.EnrollmentID)
	if err != nil {
		return err
	}
	if report.ActorID != uuid.Nil && report.ActorID != enrollment.UserID {
		return fmt.Errorf("%w: enrollment belongs to another user", core.ErrForbidden)
	}
	lesson, err := s.courses.GetLesson(ctx, report.LessonID)
	if err != nil {
		return err
	}
	if lesson.CourseID != enrollment.CourseID {
		return core.ErrLessonNotInCourse
	}

	now := s.now().UTC()
	firstCompletion, err := s.upsertLessonProgress(ctx, enrollment.ID, lesson.ID, report.TimeSpentDelta, now)
	if err != nil {
		return err
	}
	if firstCompletion {
		if err := s.users.AddSkillPoints(ctx, enrollment.UserID, core.LessonSkillPoints(lesson.Duration), now); err != nil {
			return err
		}
		s.audit.stage(ctx, core.AuditEvent{
			Type:       core.AuditLessonCompleted,
			ActorID:    enrollment.UserID,
			SubjectID:  lesson.ID.String(),
			Attributes: map[string]any{"enrollment_id": enrollment.ID.String()},
			OccurredAt: now,
		})
	}

	progress, err := s.recomputeProgress(ctx, enrollment)
	if err != nil {
		return err
	}
	completing := progress == 100 && enrollment.CompletedAt == nil
	if progress == enrollment.Progress && !completing {
		return nil
	}

	var completedAt *time.Time
	if completing {
		completedAt = &now
	}
	if err := s.enrollments.UpdateEnrollmentProgress(ctx, enrollment.ID, progress, completedAt, now); err != nil {
		return err
	}
	if completing {
		return s.complete(ctx, enrollment, now)
	}
	return nil
}

// upsertLessonProgress reports whether this call completed the lesson for the
// first time.
func (s *EnrollmentService) upsertLessonProgress(ctx context.Context, enrollmentID, lessonID uuid.UUID, delta int, now time.Time) (bool, error) {
	row, err := s.enrollments.GetLessonProgress(ctx, enrollmentID, lessonID)
	if isNotFound(err) {
		return true, s.enrollments.CreateLessonProgress(ctx, core.LessonProgress{
			ID:           uuid.New(),
			EnrollmentID: enrollmentID,
			LessonID:     lessonID,
			Completed:    true,
			CompletedAt:  &now,
			TimeSpent:    delta,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	if err != nil {
		return false, err
	}

	first := !row.Completed
	row.TimeSpent += delta
	if first {
		row.Completed = true
		row.CompletedAt = &now
	}
	row.UpdatedAt = now
	return first, s.enrollments.UpdateLessonProgress(ctx, *row)
}

// recomputeProgress derives progress from every lesson of the course. The
// stored value is a floor: progress never moves backwards.
func (s *EnrollmentService) recomputeProgress(ctx context.Context, enrollment *core.Enrollment) (int, error) {
	lessons, err := s.courses.ListLessons(ctx, enrollment.CourseID)
	if err != nil {
		return 0, err
	}
	rows, err := s.enrollments.ListLessonProgress(ctx, enrollment.ID)
	if err != nil {
		return 0, err
	}
	done := lo.SliceToMap(lo.Filter(rows, func(p core.LessonProgress, _ int) bool { return p.Completed }),
		func(p core.LessonProgress) (uuid.UUID, struct{}) { return p.LessonID, struct{}{} })
	completed := lo.CountBy(lessons, func(l core.Lesson) bool {
		_, ok := done[l.ID]
		return ok
	})
	return max(enrollment.Progress, core.ProgressPercent(completed, len(lessons))), nil
}

// complete runs the one-time completion side effects.
func (s *EnrollmentService) complete(ctx context.Context, enrollment *core.Enrollment, now time.Time) error {
	cert, err := s.certs.Generate(ctx, enrollment.ID)
	if err != nil {
		return err
	}
	badge := core.CompletionBadge(enrollment.CourseID)
	if _, err := s.users.AddBadge(ctx, enrollment.UserID, badge, now); err != nil {
		return err
	}
	if s.policy.CompletionBonus > 0 {
		if _, err := s.ledger.Credit(ctx, core.CreditParams{
			UserID:      enrollment.UserID,
			Amount:      s.policy.CompletionBonus,
			Type:        core.TransactionEarned,
			Description: "Course completion bonus",
			RelatedID:   enrollment.CourseID.String(),
		}); err != nil {
			return err
		}
	}
	s.audit.stage(ctx, core.AuditEvent{
		Type:      core.AuditEnrollmentCompleted,
		ActorID:   enrollment.UserID,
		SubjectID: enrollment.ID.String(),
		Attributes: map[string]any{
			"course_id":      enrollment.CourseID.String(),
			"certificate_id": cert.ID.String(),
			"badge":          badge,
		},
		OccurredAt: now,
	})
	s.log.Info("enrollment completed", "enrollment_id", enrollment.ID, "course_id", enrollment.CourseID)
	return nil
}

// CanAccess reports whether the user created the course or is enrolled in it.
func (s *EnrollmentService) CanAccess(ctx context.Context, userID, courseID uuid.UUID) (bool, error) {
	course, err := s.courses.GetCourse(ctx, courseID)
	if err != nil {
		return false, err
	}
	return s.canAccess(ctx, userID, course)
}

func (s *EnrollmentService) canAccess(ctx context.Context, userID uuid.UUID, course *core.Course) (bool, error) {
	if userID == uuid.Nil {
		return false, nil
	}
	if course.CreatorID == userID {
		return true, nil
	}
	_, err := s.enrollments.FindEnrollment(ctx, userID, course.ID)
	switch {
	case err == nil:
		return true, nil
	case isNotFound(err):
		return false, nil
	default:
		return false, err
	}
}

// GetEnrollment returns an enrollment with its lesson progress. Only the
// student and the course creator may read it.
func (s *EnrollmentService) GetEnrollment(ctx context.Context, id, actorID uuid.UUID) (*core.EnrollmentDetail, error) {
	enrollment, err := s.enrollments.GetEnrollment(ctx, id)
	if err != nil {
		return nil, err
	}
	if actorID != enrollment.UserID {
		course, err := s.courses.GetCourse(ctx, enrollment.CourseID)
		if err != nil {
			return nil, err
		}
		if course.CreatorID != actorID {
			return nil, fmt.Errorf("%w: enrollment belongs to another user", core.ErrForbidden)
		}
	}
	rows, err := s.enrollments.ListLessonProgress(ctx, id)
	if err != nil {
		return nil, err
	}
	return &core.EnrollmentDetail{Enrollment: *enrollment, Lessons: rows}, nil
}

// ListEnrollments returns the user's enrollments, newest first.
func (s *EnrollmentService) ListEnrollments(ctx context.Context, userID uuid.UUID) ([]core.Enrollment, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: user id required", core.ErrValidation)
	}
	return s.enrollments.ListEnrollmentsByUser(ctx, userID)
}

// CourseContent lists a course's lessons, hiding content links from viewers
// who cannot access the course.
func (s *EnrollmentService) CourseContent(ctx context.Context, courseID, viewerID uuid.UUID) (*core.CourseContent, error) {
	course, err := s.courses.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.Status != core.CourseStatusPublished && course.CreatorID != viewerID {
		return nil, core.ErrCourseNotFound
	}
	unlocked, err := s.canAccess(ctx, viewerID, course)
	if err != nil {
		return nil, err
	}
	lessons, err := s.courses.ListLessons(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !unlocked {
		lessons = lo.Map(lessons, func(l core.Lesson, _ int) core.Lesson {
			l.ContentURL = ""
			return l
		})
	}
	return &core.CourseContent{Course: *course, Lessons: lessons, Unlocked: unlocked}, nil
}
