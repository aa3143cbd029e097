package db

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/samber/lo"

	entgenerated "github.com/eslsoft/skillswap/internal/adapter/db/ent/generated"
	entcourse "github.com/eslsoft/skillswap/internal/adapter/db/ent/generated/course"
	"github.com/eslsoft/skillswap/internal/core"
)

// CourseRepository persists courses and their lessons using Ent.
type CourseRepository struct {
	client *Client
}

// NewCourseRepository constructs an Ent-backed course repository.
func NewCourseRepository(client *Client) *CourseRepository {
	return &CourseRepository{client: client}
}

var _ core.CourseRepository = (*CourseRepository)(nil)

// CreateCourse inserts a course.
func (r *CourseRepository) CreateCourse(ctx context.Context, course core.Course) error {
	return exec(ctx, r.client, func(db *entgenerated.Client) error {
		builder := db.Course.Create().
			SetID(course.ID).
			SetCreatorID(course.CreatorID).
			SetSkillID(course.SkillID).
			SetCategory(course.Category).
			SetTitle(course.Title).
			SetDescription(course.Description).
			SetPriceCredits(course.PriceCredits).
			SetNillablePriceMoney(course.PriceMoney).
			SetStatus(string(course.Status)).
			SetTotalLessons(course.TotalLessons).
			SetTotalDuration(course.TotalDuration).
			SetRating(course.Rating).
			SetTotalReviews(course.TotalReviews).
			SetCreatedAt(course.CreatedAt.UTC()).
			SetUpdatedAt(course.UpdatedAt.UTC())
		return builder.SetNillablePublishedAt(utcPtr(course.PublishedAt)).Exec(ctx)
	})
}

// GetCourse loads a course.
func (r *CourseRepository) GetCourse(ctx context.Context, id uuid.UUID) (*core.Course, error) {
	return do(ctx, r.client, func(db *entgenerated.Client) (*core.Course, error) {
		row, err := db.Course.Get(ctx, id)
		if entgenerated.IsNotFound(err) {
			return nil, core.ErrCourseNotFound
		}
		if err != nil {
			return nil, err
		}
		return toDomainCourse(row), nil
	})
}

// UpdateCourse replaces the editable course fields.
func (r *CourseRepository) UpdateCourse(ctx context.Context, course core.Course) error {
	return exec(ctx, r.client, func(db *entgenerated.Client) error {
		builder := db.Course.UpdateOneID(course.ID).
			SetTitle(course.Title).
			SetDescription(course.Description).
			SetPriceCredits(course.PriceCredits).
			SetUpdatedAt(course.UpdatedAt.UTC())
		if course.PriceMoney != nil {
			builder.SetPriceMoney(*course.PriceMoney)
		} else {
			builder.ClearPriceMoney()
		}
		err := builder.Exec(ctx)
		if entgenerated.IsNotFound(err) {
			return core.ErrCourseNotFound
		}
		return err
	})
}

// AdjustCourseCounters applies lesson and duration deltas while the course is
// still a draft.
func (r *CourseRepository) AdjustCourseCounters(ctx context.Context, id uuid.UUID, lessons, duration int, at time.Time) error {
	n, err := do(ctx, r.client, func(db *entgenerated.Client) (int, error) {
		return db.Course.Update().
			Where(entcourse.ID(id), entcourse.Status(string(core.CourseStatusDraft))).
			AddTotalLessons(lessons).
			AddTotalDuration(duration).
			SetUpdatedAt(at.UTC()).
			Save(ctx)
	})
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if _, err := r.GetCourse(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("%w: course is published", core.ErrInvalidState)
}

// MarkPublished flips a draft course with at least one lesson to published.
func (r *CourseRepository) MarkPublished(ctx context.Context, id uuid.UUID, at time.Time) error {
	n, err := do(ctx, r.client, func(db *entgenerated.Client) (int, error) {
		return db.Course.Update().
			Where(
				entcourse.ID(id),
				entcourse.Status(string(core.CourseStatusDraft)),
				entcourse.TotalLessonsGT(0),
			).
			SetStatus(string(core.CourseStatusPublished)).
			SetPublishedAt(at.UTC()).
			SetUpdatedAt(at.UTC()).
			Save(ctx)
	})
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	course, err := r.GetCourse(ctx, id)
	if err != nil {
		return err
	}
	if course.Status != core.CourseStatusDraft {
		return fmt.Errorf("%w: course already published", core.ErrInvalidState)
	}
	return core.ErrInsufficientContent
}

// SearchCourses filters courses newest first with offset pagination.
func (r *CourseRepository) SearchCourses(ctx context.Context, filter core.CourseFilter) ([]core.Course, string, error) {
	offset, err := core.ParseOffsetToken(filter.PageToken)
	if err != nil {
		return nil, "", err
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = core.DefaultPageSize
	}

	rows, err := do(ctx, r.client, func(db *entgenerated.Client) ([]*entgenerated.Course, error) {
		q := db.Course.Query()
		if filter.Status != "" {
			q = q.Where(entcourse.Status(string(filter.Status)))
		}
		if filter.Category != "" {
			q = q.Where(entcourse.Category(filter.Category))
		}
		if filter.CreatorID != uuid.Nil {
			q = q.Where(entcourse.CreatorID(filter.CreatorID))
		}
		if filter.MinPrice != nil {
			q = q.Where(entcourse.PriceCreditsGTE(*filter.MinPrice))
		}
		if filter.MaxPrice != nil {
			q = q.Where(entcourse.PriceCreditsLTE(*filter.MaxPrice))
		}
		if filter.Query != "" {
			q = q.Where(entcourse.Or(
				entcourse.TitleContainsFold(filter.Query),
				entcourse.DescriptionContainsFold(filter.Query),
			))
		}
		return q.
			Order(entcourse.ByCreatedAt(entsql.OrderDesc()), entcourse.ByID(entsql.OrderDesc())).
			Offset(offset).
			Limit(pageSize + 1).
			All(ctx)
	})
	if err != nil {
		return nil, "", err
	}

	next := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		next = core.NextOffsetToken(offset, pageSize)
	}
	return lo.Map(rows, func(row *entgenerated.Course, _ int) core.Course {
		return *toDomainCourse(row)
	}), next, nil
}

// ListCoursesByCreator returns every course of the creator, newest first.
func (r *CourseRepository) ListCoursesByCreator(ctx context.Context, creatorID uuid.UUID) ([]core.Course, error) {
	rows, err := do(ctx, r.client, func(db *entgenerated.Client) ([]*entgenerated.Course, error) {
		return db.Course.Query().
			Where(entcourse.CreatorID(creatorID)).
			Order(entcourse.ByCreatedAt(entsql.OrderDesc()), entcourse.ByID(entsql.OrderDesc())).
			All(ctx)
	})
	if err != nil {
		return nil, err
	}
	return lo.Map(rows, func(row *entgenerated.Course, _ int) core.Course {
		return *toDomainCourse(row)
	}), nil
}

func toDomainCourse(row *entgenerated.Course) *core.Course {
	return &core.Course{
		ID:            row.ID,
		CreatorID:     row.CreatorID,
		SkillID:       row.SkillID,
		Category:      row.Category,
		Title:         row.Title,
		Description:   row.Description,
		PriceCredits:  row.PriceCredits,
		PriceMoney:    row.PriceMoney,
		Status:        core.CourseStatus(row.Status),
		TotalLessons:  row.TotalLessons,
		TotalDuration: row.TotalDuration,
		Rating:        row.Rating,
		TotalReviews:  row.TotalReviews,
		CreatedAt:     row.CreatedAt.UTC(),
		UpdatedAt:     row.UpdatedAt.UTC(),
		PublishedAt:   utcPtr(row.PublishedAt),
	}
}
