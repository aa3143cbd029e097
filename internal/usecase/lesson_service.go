package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/eslsoft/skillswap/internal/core"
)

var lessonContentTypes = map[string]struct{}{
	core.ContentTypeVideo:   {},
	core.ContentTypeArticle: {},
	core.ContentTypeAudio:   {},
	core.ContentTypeQuiz:    {},
}

// AddLesson appends a lesson to a draft course and bumps the course counters.
func (s *CatalogService) AddLesson(ctx context.Context, courseID, creatorID uuid.UUID, draft core.LessonDraft) (*core.Lesson, error) {
	if err := validateLessonDraft(&draft); err != nil {
		return nil, err
	}

	var out *core.Lesson
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		course, err := s.ownedDraft(ctx, courseID, creatorID)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		order := draft.OrderIndex
		if order <= 0 {
			order = course.TotalLessons + 1
		}
		lesson := core.Lesson{
			ID:          uuid.New(),
			CourseID:    course.ID,
			Title:       draft.Title,
			Description: draft.Description,
			ContentType: draft.ContentType,
			ContentURL:  draft.ContentURL,
			Duration:    draft.Duration,
			OrderIndex:  order,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.courses.CreateLesson(ctx, lesson); err != nil {
			return err
		}
		if err := s.courses.AdjustCourseCounters(ctx, course.ID, 1, lesson.Duration, now); err != nil {
			return err
		}
		out = &lesson
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateLesson edits a lesson while its course is a draft.
func (s *CatalogService) UpdateLesson(ctx context.Context, update core.LessonUpdate) (*core.Lesson, error) {
	var out *core.Lesson
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		lesson, err := s.courses.GetLesson(ctx, update.LessonID)
		if err != nil {
			return err
		}
		if _, err := s.ownedDraft(ctx, lesson.CourseID, update.CreatorID); err != nil {
			return err
		}

		previousDuration := lesson.Duration
		draft := core.LessonDraft{
			Title:       derefOr(update.Title, lesson.Title),
			Description: derefOr(update.Description, lesson.Description),
			ContentType: derefOr(update.ContentType, lesson.ContentType),
			ContentURL:  derefOr(update.ContentURL, lesson.ContentURL),
			Duration:    derefOr(update.Duration, lesson.Duration),
			OrderIndex:  derefOr(update.OrderIndex, lesson.OrderIndex),
		}
		if err := validateLessonDraft(&draft); err != nil {
			return err
		}

		now := s.now().UTC()
		lesson.Title = draft.Title
		lesson.Description = draft.Description
		lesson.ContentType = draft.ContentType
		lesson.ContentURL = draft.ContentURL
		lesson.Duration = draft.Duration
		if draft.OrderIndex > 0 {
			lesson.OrderIndex = draft.OrderIndex
		}
		lesson.UpdatedAt = now

		if err := s.courses.UpdateLesson(ctx, *lesson); err != nil {
			return err
		}
		// also re-checks the draft state under the storage guard
		if err := s.courses.AdjustCourseCounters(ctx, lesson.CourseID, 0, lesson.Duration-previousDuration, now); err != nil {
			return err
		}
		out = lesson
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteLesson removes a lesson from a draft course and lowers the counters.
func (s *CatalogService) DeleteLesson(ctx context.Context, lessonID, creatorID uuid.UUID) error {
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		lesson, err := s.courses.GetLesson(ctx, lessonID)
		if err != nil {
			return err
		}
		if _, err := s.ownedDraft(ctx, lesson.CourseID, creatorID); err != nil {
			return err
		}
		if err := s.courses.DeleteLesson(ctx, lesson.ID); err != nil {
			return err
		}
		return s.courses.AdjustCourseCounters(ctx, lesson.CourseID, -1, -lesson.Duration, s.now().UTC())
	})
}

func validateLessonDraft(draft *core.LessonDraft) error {
	draft.Title = strings.TrimSpace(draft.Title)
	if draft.Title == "" {
		return fmt.Errorf("%w: lesson title required", core.ErrValidation)
	}
	if draft.Duration < 0 {
		return fmt.Errorf("%w: lesson duration must be non-negative", core.ErrValidation)
	}
	if draft.OrderIndex < 0 {
		return fmt.Errorf("%w: order index must be non-negative", core.ErrValidation)
	}
	draft.Description = strings.TrimSpace(draft.Description)
	draft.ContentURL = strings.TrimSpace(draft.ContentURL)
	draft.ContentType = strings.ToLower(strings.TrimSpace(draft.ContentType))
	if draft.ContentType == "" {
		draft.ContentType = core.ContentTypeVideo
	}
	if _, ok := lessonContentTypes[draft.ContentType]; !ok {
		return fmt.Errorf("%w: unknown content type %q", core.ErrValidation, draft.ContentType)
	}
	return nil
}

func derefOr[T any](v *T, fallback T) T {
	if v == nil {
		return fallback
	}
	return *v
}
