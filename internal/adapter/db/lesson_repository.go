package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/samber/lo"

	entgenerated "github.com/eslsoft/skillswap/internal/adapter/db/ent/generated"
	entlesson "github.com/eslsoft/skillswap/internal/adapter/db/ent/generated/lesson"
	"github.com/eslsoft/skillswap/internal/core"
)

// CreateLesson inserts a lesson.
func (r *CourseRepository) CreateLesson(ctx context.Context, lesson core.Lesson) error {
	return exec(ctx, r.client, func(db *entgenerated.Client) error {
		return db.Lesson.Create().
			SetID(lesson.ID).
			SetCourseID(lesson.CourseID).
			SetTitle(lesson.Title).
			SetDescription(lesson.Description).
			SetContentType(lesson.ContentType).
			SetContentURL(lesson.ContentURL).
			SetDurationMinutes(lesson.Duration).
			SetOrderIndex(lesson.OrderIndex).
			SetCreatedAt(lesson.CreatedAt.UTC()).
			SetUpdatedAt(lesson.UpdatedAt.UTC()).
			Exec(ctx)
	})
}

// GetLesson loads a lesson.
func (r *CourseRepository) GetLesson(ctx context.Context, id uuid.UUID) (*core.Lesson, error) {
	return do(ctx, r.client, func(db *entgenerated.Client) (*core.Lesson, error) {
		row, err := db.Lesson.Get(ctx, id)
		if entgenerated.IsNotFound(err) {
			return nil, core.ErrLessonNotFound
		}
		if err != nil {
			return nil, err
		}
		return toDomainLesson(row), nil
	})
}

// UpdateLesson replaces the editable lesson fields.
func (r *CourseRepository) UpdateLesson(ctx context.Context, lesson core.Lesson) error {
	return exec(ctx, r.client, func(db *entgenerated.Client) error {
		err := db.Lesson.UpdateOneID(lesson.ID).
			SetTitle(lesson.Title).
			SetDescription(lesson.Description).
			SetContentType(lesson.ContentType).
			SetContentURL(lesson.ContentURL).
			SetDurationMinutes(lesson.Duration).
			SetOrderIndex(lesson.OrderIndex).
			SetUpdatedAt(lesson.UpdatedAt.UTC()).
			Exec(ctx)
		if entgenerated.IsNotFound(err) {
			return core.ErrLessonNotFound
		}
		return err
	})
}

// DeleteLesson removes a lesson.
func (r *CourseRepository) DeleteLesson(ctx context.Context, id uuid.UUID) error {
	return exec(ctx, r.client, func(db *entgenerated.Client) error {
		err := db.Lesson.DeleteOneID(id).Exec(ctx)
		if entgenerated.IsNotFound(err) {
			return core.ErrLessonNotFound
		}
		return err
	})
}

// ListLessons returns the course's lessons in order.
func (r *CourseRepository) ListLessons(ctx context.Context, courseID uuid.UUID) ([]core.Lesson, error) {
	rows, err := do(ctx, r.client, func(db *entgenerated.Client) ([]*entgenerated.Lesson, error) {
		return db.Lesson.Query().
			Where(entlesson.CourseID(courseID)).
			Order(entlesson.ByOrderIndex(), entlesson.ByCreatedAt()).
			All(ctx)
	})
	if err != nil {
		return nil, err
	}
	return lo.Map(rows, func(row *entgenerated.Lesson, _ int) core.Lesson {
		return *toDomainLesson(row)
	}), nil
}

func toDomainLesson(row *entgenerated.Lesson) *core.Lesson {
	return &core.Lesson{
		ID:          row.ID,
		CourseID:    row.CourseID,
		Title:       row.Title,
		Description: row.Description,
		ContentType: row.ContentType,
		ContentURL:  row.ContentURL,
		Duration:    row.DurationMinutes,
		OrderIndex:  row.OrderIndex,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}
