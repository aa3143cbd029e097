package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eslsoft/skillswap/internal/core"
)

const maxSearchPageSize = 100

// CatalogService coordinates course lifecycle use cases.
type CatalogService struct {
	courses core.CourseRepository
	skills  core.SkillRepository
	tx      core.Transactor
	audit   *Auditor
	now     func() time.Time
}

// NewCatalogService constructs a CatalogService backed by the provided repositories.
func NewCatalogService(courses core.CourseRepository, skills core.SkillRepository, tx core.Transactor, audit *Auditor) *CatalogService {
	return &CatalogService{
		courses: courses,
		skills:  skills,
		tx:      tx,
		audit:   audit,
		now:     time.Now,
	}
}

// WithClock allows tests to override the clock used by the service.
func (s *CatalogService) WithClock(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

var _ core.CatalogService = (*CatalogService)(nil)

// RegisterSkill records a skill owned by a user.
func (s *CatalogService) RegisterSkill(ctx context.Context, draft core.SkillDraft) (*core.Skill, error) {
	if draft.OwnerID == uuid.Nil {
		return nil, fmt.Errorf("%w: owner id required", core.ErrValidation)
	}
	name := strings.TrimSpace(draft.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: skill name required", core.ErrValidation)
	}
	category := strings.ToLower(strings.TrimSpace(draft.Category))
	if category == "" {
		category = "general"
	}

	skill := core.Skill{
		ID:        uuid.New(),
		UserID:    draft.OwnerID,
		Name:      name,
		Category:  category,
		CreatedAt: s.now().UTC(),
	}
	if err := s.skills.CreateSkill(ctx, skill); err != nil {
		return nil, err
	}
	return &skill, nil
}

// CreateCourse creates a draft course under a skill the creator owns.
func (s *CatalogService) CreateCourse(ctx context.Context, creatorID uuid.UUID, draft core.CourseDraft) (*core.Course, error) {
	if creatorID == uuid.Nil {
		return nil, fmt.Errorf("%w: creator id required", core.ErrValidation)
	}
	title := strings.TrimSpace(draft.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title required", core.ErrValidation)
	}

	skill, err := s.skills.GetSkill(ctx, draft.SkillID)
	if err != nil {
		return nil, err
	}
	if skill.UserID != creatorID {
		return nil, fmt.Errorf("%w: skill is owned by another user", core.ErrForbidden)
	}
	if err := validatePrices(draft.PriceCredits, draft.PriceMoney); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	course := core.Course{
		ID:           uuid.New(),
		CreatorID:    creatorID,
		SkillID:      skill.ID,
		Category:     skill.Category,
		Title:        title,
		Description:  strings.TrimSpace(draft.Description),
		PriceCredits: draft.PriceCredits,
		PriceMoney:   draft.PriceMoney,
		Status:       core.CourseStatusDraft,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.audit.run(ctx, s.tx, func(ctx context.Context) error {
		if err := s.courses.CreateCourse(ctx, course); err != nil {
			return err
		}
		s.audit.stage(ctx, core.AuditEvent{
			Type:       core.AuditCourseCreated,
			ActorID:    creatorID,
			SubjectID:  course.ID.String(),
			OccurredAt: now,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// UpdateCourse edits the descriptive fields and prices of a draft course.
func (s *CatalogService) UpdateCourse(ctx context.Context, update core.CourseUpdate) (*core.Course, error) {
	var out *core.Course
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		course, err := s.ownedDraft(ctx, update.CourseID, update.CreatorID)
		if err != nil {
			return err
		}
		if update.Title != nil {
			title := strings.TrimSpace(*update.Title)
			if title == "" {
				return fmt.Errorf("%w: title required", core.ErrValidation)
			}
			course.Title = title
		}
		if update.Description != nil {
			course.Description = strings.TrimSpace(*update.Description)
		}
		if update.PriceCredits != nil {
			course.PriceCredits = *update.PriceCredits
		}
		if update.PriceMoney != nil {
			course.PriceMoney = update.PriceMoney
		}
		if err := validatePrices(course.PriceCredits, course.PriceMoney); err != nil {
			return err
		}
		course.UpdatedAt = s.now().UTC()
		if err := s.courses.UpdateCourse(ctx, *course); err != nil {
			return err
		}
		out = course
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetCourse returns a course. Drafts are only visible to their creator.
func (s *CatalogService) GetCourse(ctx context.Context, id, viewerID uuid.UUID) (*core.Course, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: course id required", core.ErrValidation)
	}
	course, err := s.courses.GetCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	if course.Status != core.CourseStatusPublished && course.CreatorID != viewerID {
		return nil, core.ErrCourseNotFound
	}
	return course, nil
}

// SearchCourses returns a filtered, paginated collection of courses.
func (s *CatalogService) SearchCourses(ctx context.Context, filter core.CourseFilter) ([]core.Course, string, error) {
	if filter.Status == "" {
		filter.Status = core.CourseStatusPublished
	}
	if !filter.Status.Valid() {
		return nil, "", fmt.Errorf("%w: unknown status %q", core.ErrValidation, filter.Status)
	}
	if filter.Status == core.CourseStatusDraft {
		if filter.RequesterID == uuid.Nil {
			return nil, "", fmt.Errorf("%w: drafts are only visible to their creator", core.ErrForbidden)
		}
		if filter.CreatorID == uuid.Nil {
			filter.CreatorID = filter.RequesterID
		}
		if filter.CreatorID != filter.RequesterID {
			return nil, "", fmt.Errorf("%w: drafts are only visible to their creator", core.ErrForbidden)
		}
	}
	if (filter.MinPrice != nil && *filter.MinPrice < 0) || (filter.MaxPrice != nil && *filter.MaxPrice < 0) {
		return nil, "", core.ErrInvalidPrice
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return nil, "", fmt.Errorf("%w: min price exceeds max price", core.ErrValidation)
	}
	if filter.PageSize < 0 {
		return nil, "", fmt.Errorf("%w: page size must be non-negative", core.ErrValidation)
	}
	if filter.PageSize > maxSearchPageSize {
		filter.PageSize = maxSearchPageSize
	}
	filter.Query = strings.TrimSpace(filter.Query)
	filter.Category = strings.ToLower(strings.TrimSpace(filter.Category))
	return s.courses.SearchCourses(ctx, filter)
}

// Publish transitions a draft course with content to published. The
// transition is one-way.
func (s *CatalogService) Publish(ctx context.Context, courseID, creatorID uuid.UUID) (*core.Course, error) {
	var out *core.Course
	err := s.audit.run(ctx, s.tx, func(ctx context.Context) error {
		course, err := s.courses.GetCourse(ctx, courseID)
		if err != nil {
			return err
		}
		if course.CreatorID != creatorID {
			return fmt.Errorf("%w: only the creator can publish", core.ErrForbidden)
		}
		if course.Status == core.CourseStatusPublished {
			return fmt.Errorf("%w: course already published", core.ErrInvalidState)
		}
		if course.TotalLessons == 0 {
			return core.ErrInsufficientContent
		}

		now := s.now().UTC()
		if err := s.courses.MarkPublished(ctx, courseID, now); err != nil {
			return err
		}
		course.Status = core.CourseStatusPublished
		course.PublishedAt = &now
		course.UpdatedAt = now
		out = course

		s.audit.stage(ctx, core.AuditEvent{
			Type:       core.AuditCoursePublished,
			ActorID:    creatorID,
			SubjectID:  courseID.String(),
			Attributes: map[string]any{"lessons": course.TotalLessons, "price_credits": course.PriceCredits},
			OccurredAt: now,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ownedDraft loads a course and checks ownership before lifecycle state.
func (s *CatalogService) ownedDraft(ctx context.Context, courseID, creatorID uuid.UUID) (*core.Course, error) {
	course, err := s.courses.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.CreatorID != creatorID {
		return nil, fmt.Errorf("%w: course is owned by another user", core.ErrForbidden)
	}
	if course.Status != core.CourseStatusDraft {
		return nil, fmt.Errorf("%w: course is published", core.ErrInvalidState)
	}
	return course, nil
}

func validatePrices(credits int64, money *int64) error {
	if credits < 0 || credits > core.MaxPriceCredits || (money != nil && *money < 0) {
		return core.ErrInvalidPrice
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, core.ErrNotFound)
}
