package db

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/samber/lo"

	entgenerated "github.com/eslsoft/skillswap/internal/adapter/db/ent/generated"
	entenrollment "github.com/eslsoft/skillswap/internal/adapter/db/ent/generated/enrollment"
	entprogress "github.com/eslsoft/skillswap/internal/adapter/db/ent/generated/lessonprogress"
	"github.com/eslsoft/skillswap/internal/adapter/db/ent/generated/predicate"
	"github.com/eslsoft/skillswap/internal/core"
)

var errLessonProgressNotFound = fmt.Errorf("lesson progress %w", core.ErrNotFound)

// EnrollmentRepository persists enrollments and per-lesson progress using Ent.
type EnrollmentRepository struct {
	client *Client
}

// NewEnrollmentRepository constructs an Ent-backed enrollment repository.
func NewEnrollmentRepository(client *Client) *EnrollmentRepository {
	return &EnrollmentRepository{client: client}
}

var _ core.EnrollmentRepository = (*EnrollmentRepository)(nil)

// CreateEnrollment inserts an enrollment. The (user, course) and
// (user, idempotency key) unique indexes surface as ErrConflict.
func (r *EnrollmentRepository) CreateEnrollment(ctx context.Context, e core.Enrollment) error {
	return exec(ctx, r.client, func(db *entgenerated.Client) error {
		builder := db.Enrollment.Create().
			SetID(e.ID).
			SetCourseID(e.CourseID).
			SetUserID(e.UserID).
			SetProgress(e.Progress).
			SetPaymentMethod(string(e.PaymentMethod)).
			SetPricePaid(e.PricePaid).
			SetCreatedAt(e.CreatedAt.UTC()).
			SetUpdatedAt(e.UpdatedAt.UTC())
		if e.CompletedAt != nil {
			builder.SetCompletedAt(e.CompletedAt.UTC())
		}
		if e.IdempotencyKey != "" {
			builder.SetIdempotencyKey(e.IdempotencyKey)
		}
		return builder.Exec(ctx)
	})
}

// GetEnrollment loads an enrollment.
func (r *EnrollmentRepository) GetEnrollment(ctx context.Context, id uuid.UUID) (*core.Enrollment, error) {
	return r.findOne(ctx, entenrollment.ID(id), false)
}

// LockEnrollment loads an enrollment with a row lock on PostgreSQL. SQLite
// serialises writers at the transaction level instead.
func (r *EnrollmentRepository) LockEnrollment(ctx context.Context, id uuid.UUID) (*core.Enrollment, error) {
	return r.findOne(ctx, entenrollment.ID(id), r.client.Dialect() == dialect.Postgres)
}

// FindEnrollment loads the user's enrollment in a course.
func (r *EnrollmentRepository) FindEnrollment(ctx context.Context, userID, courseID uuid.UUID) (*core.Enrollment, error) {
	return r.findOne(ctx, entenrollment.And(entenrollment.UserID(userID), entenrollment.CourseID(courseID)), false)
}

// FindEnrollmentByKey loads the enrollment the user created under key.
func (r *EnrollmentRepository) FindEnrollmentByKey(ctx context.Context, userID uuid.UUID, key string) (*core.Enrollment, error) {
	if key == "" {
		return nil, core.ErrEnrollmentNotFound
	}
	return r.findOne(ctx, entenrollment.And(entenrollment.UserID(userID), entenrollment.IdempotencyKey(key)), false)
}

func (r *EnrollmentRepository) findOne(ctx context.Context, pred predicate.Enrollment, forUpdate bool) (*core.Enrollment, error) {
	return do(ctx, r.client, func(db *entgenerated.Client) (*core.Enrollment, error) {
		q := db.Enrollment.Query().Where(pred)
		if forUpdate {
			q = q.ForUpdate()
		}
		row, err := q.Only(ctx)
		if entgenerated.IsNotFound(err) {
			return nil, core.ErrEnrollmentNotFound
		}
		if err != nil {
			return nil, err
		}
		return toDomainEnrollment(row), nil
	})
}

// UpdateEnrollmentProgress raises the stored progress and records the
// completion timestamp if none is set yet.
func (r *EnrollmentRepository) UpdateEnrollmentProgress(ctx context.Context, id uuid.UUID, progress int, completedAt *time.Time, at time.Time) error {
	return exec(ctx, r.client, func(db *entgenerated.Client) error {
		err := db.Enrollment.UpdateOneID(id).
			SetUpdatedAt(at.UTC()).
			Exec(ctx)
		if entgenerated.IsNotFound(err) {
			return core.ErrEnrollmentNotFound
		}
		if err != nil {
			return err
		}

		if _, err := db.Enrollment.Update().
			Where(entenrollment.ID(id), entenrollment.ProgressLT(progress)).
			SetProgress(progress).
			Save(ctx); err != nil {
			return err
		}
		if completedAt == nil {
			return nil
		}
		_, err = db.Enrollment.Update().
			Where(entenrollment.ID(id), entenrollment.CompletedAtIsNil()).
			SetCompletedAt(completedAt.UTC()).
			Save(ctx)
		return err
	})
}

// ListEnrollmentsByCourse returns the course's enrollments, oldest first.
func (r *EnrollmentRepository) ListEnrollmentsByCourse(ctx context.Context, courseID uuid.UUID) ([]core.Enrollment, error) {
	return r.list(ctx, entenrollment.CourseID(courseID), entenrollment.ByCreatedAt(), entenrollment.ByID())
}

// ListEnrollmentsByUser returns the user's enrollments, newest first.
func (r *EnrollmentRepository) ListEnrollmentsByUser(ctx context.Context, userID uuid.UUID) ([]core.Enrollment, error) {
	return r.list(ctx, entenrollment.UserID(userID),
		entenrollment.ByCreatedAt(entsql.OrderDesc()), entenrollment.ByID(entsql.OrderDesc()))
}

func (r *EnrollmentRepository) list(ctx context.Context, pred predicate.Enrollment, order ...entenrollment.OrderOption) ([]core.Enrollment, error) {
	rows, err := do(ctx, r.client, func(db *entgenerated.Client) ([]*entgenerated.Enrollment, error) {
		return db.Enrollment.Query().Where(pred).Order(order...).All(ctx)
	})
	if err != nil {
		return nil, err
	}
	return lo.Map(rows, func(row *entgenerated.Enrollment, _ int) core.Enrollment {
		return *toDomainEnrollment(row)
	}), nil
}

// GetLessonProgress loads the progress row for one lesson of an enrollment.
func (r *EnrollmentRepository) GetLessonProgress(ctx context.Context, enrollmentID, lessonID uuid.UUID) (*core.LessonProgress, error) {
	return do(ctx, r.client, func(db *entgenerated.Client) (*core.LessonProgress, error) {
		row, err := db.LessonProgress.Query().
			Where(entprogress.EnrollmentID(enrollmentID), entprogress.LessonID(lessonID)).
			Only(ctx)
		if entgenerated.IsNotFound(err) {
			return nil, errLessonProgressNotFound
		}
		if err != nil {
			return nil, err
		}
		return toDomainLessonProgress(row), nil
	})
}

// CreateLessonProgress inserts a progress row, one per (enrollment, lesson).
func (r *EnrollmentRepository) CreateLessonProgress(ctx context.Context, p core.LessonProgress) error {
	return exec(ctx, r.client, func(db *entgenerated.Client) error {
		return db.LessonProgress.Create().
			SetID(p.ID).
			SetEnrollmentID(p.EnrollmentID).
			SetLessonID(p.LessonID).
			SetCompleted(p.Completed).
			SetNillableCompletedAt(utcPtr(p.CompletedAt)).
			SetTimeSpent(p.TimeSpent).
			SetCreatedAt(p.CreatedAt.UTC()).
			SetUpdatedAt(p.UpdatedAt.UTC()).
			Exec(ctx)
	})
}

// UpdateLessonProgress replaces the mutable fields of a progress row.
func (r *EnrollmentRepository) UpdateLessonProgress(ctx context.Context, p core.LessonProgress) error {
	return exec(ctx, r.client, func(db *entgenerated.Client) error {
		builder := db.LessonProgress.UpdateOneID(p.ID).
			SetCompleted(p.Completed).
			SetTimeSpent(p.TimeSpent).
			SetUpdatedAt(p.UpdatedAt.UTC())
		if p.CompletedAt != nil {
			builder.SetCompletedAt(p.CompletedAt.UTC())
		} else {
			builder.ClearCompletedAt()
		}
		err := builder.Exec(ctx)
		if entgenerated.IsNotFound(err) {
			return errLessonProgressNotFound
		}
		return err
	})
}

// ListLessonProgress returns an enrollment's progress rows, oldest first.
func (r *EnrollmentRepository) ListLessonProgress(ctx context.Context, enrollmentID uuid.UUID) ([]core.LessonProgress, error) {
	return r.listProgress(ctx, entprogress.EnrollmentID(enrollmentID))
}

// ListCourseLessonProgress returns progress rows across every enrollment of
// the course.
func (r *EnrollmentRepository) ListCourseLessonProgress(ctx context.Context, courseID uuid.UUID) ([]core.LessonProgress, error) {
	return r.listProgress(ctx, func(s *entsql.Selector) {
		t := entsql.Table(entenrollment.Table)
		s.Where(entsql.In(
			s.C(entprogress.FieldEnrollmentID),
			entsql.Select(t.C(entenrollment.FieldID)).
				From(t).
				Where(entsql.EQ(t.C(entenrollment.FieldCourseID), courseID)),
		))
	})
}

func (r *EnrollmentRepository) listProgress(ctx context.Context, pred predicate.LessonProgress) ([]core.LessonProgress, error) {
	rows, err := do(ctx, r.client, func(db *entgenerated.Client) ([]*entgenerated.LessonProgress, error) {
		return db.LessonProgress.Query().
			Where(pred).
			Order(entprogress.ByCreatedAt(), entprogress.ByID()).
			All(ctx)
	})
	if err != nil {
		return nil, err
	}
	return lo.Map(rows, func(row *entgenerated.LessonProgress, _ int) core.LessonProgress {
		return *toDomainLessonProgress(row)
	}), nil
}

func toDomainEnrollment(row *entgenerated.Enrollment) *core.Enrollment {
	return &core.Enrollment{
		ID:             row.ID,
		CourseID:       row.CourseID,
		UserID:         row.UserID,
		Progress:       row.Progress,
		CompletedAt:    utcPtr(row.CompletedAt),
		PaymentMethod:  core.PaymentMethod(row.PaymentMethod),
		PricePaid:      row.PricePaid,
		IdempotencyKey: lo.FromPtr(row.IdempotencyKey),
		CreatedAt:      row.CreatedAt.UTC(),
		UpdatedAt:      row.UpdatedAt.UTC(),
	}
}

func toDomainLessonProgress(row *entgenerated.LessonProgress) *core.LessonProgress {
	return &core.LessonProgress{
		ID:           row.ID,
		EnrollmentID: row.EnrollmentID,
		LessonID:     row.LessonID,
		Completed:    row.Completed,
		CompletedAt:  utcPtr(row.CompletedAt),
		TimeSpent:    row.TimeSpent,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	return lo.ToPtr(t.UTC())
}
