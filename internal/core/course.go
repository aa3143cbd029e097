package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CourseStatus denotes the lifecycle stage for a course. Publishing is one-way.
type CourseStatus string

const (
	CourseStatusDraft     CourseStatus = "draft"
	CourseStatusPublished CourseStatus = "published"
)

// Valid reports whether s is a known status.
func (s CourseStatus) Valid() bool {
	return s == CourseStatusDraft || s == CourseStatusPublished
}

// MaxPriceCredits bounds course prices so payouts and revenue sums stay
// within int64.
const MaxPriceCredits int64 = 1_000_000_000

// Lesson content kinds.
const (
	ContentTypeVideo   = "video"
	ContentTypeArticle = "article"
	ContentTypeAudio   = "audio"
	ContentTypeQuiz    = "quiz"
)

// Skill is the externally owned record a course is taught under.
type Skill struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	Category  string
	CreatedAt time.Time
}

// SkillDraft contains the attributes needed to register a skill.
type SkillDraft struct {
	OwnerID  uuid.UUID
	Name     string
	Category string
}

// Course is a creator-owned sequence of lessons. TotalLessons and
// TotalDuration (minutes) are maintained by the catalog.
type Course struct {
	ID            uuid.UUID
	CreatorID     uuid.UUID
	SkillID       uuid.UUID
	Category      string
	Title         string
	Description   string
	PriceCredits  int64
	PriceMoney    *int64
	Status        CourseStatus
	TotalLessons  int
	TotalDuration int
	Rating        float64
	TotalReviews  int
	CreatedAt     time.Time
	UpdatedAt     time.Time
	PublishedAt   *time.Time
}

// Lesson is a single content unit of a course. Duration is in minutes.
type Lesson struct {
	ID          uuid.UUID
	CourseID    uuid.UUID
	Title       string
	Description string
	ContentType string
	ContentURL  string
	Duration    int
	OrderIndex  int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CourseDraft contains user-supplied course attributes.
type CourseDraft struct {
	SkillID      uuid.UUID
	Title        string
	Description  string
	PriceCredits int64
	PriceMoney   *int64
}

// CourseUpdate carries optional changes to a draft course.
type CourseUpdate struct {
	CourseID     uuid.UUID
	CreatorID    uuid.UUID
	Title        *string
	Description  *string
	PriceCredits *int64
	PriceMoney   *int64
}

// LessonDraft contains user-supplied lesson attributes. A zero OrderIndex
// appends the lesson after the existing ones.
type LessonDraft struct {
	Title       string
	Description string
	ContentType string
	ContentURL  string
	Duration    int
	OrderIndex  int
}

// LessonUpdate carries optional changes to a lesson of a draft course.
type LessonUpdate struct {
	LessonID    uuid.UUID
	CreatorID   uuid.UUID
	Title       *string
	Description *string
	ContentType *string
	ContentURL  *string
	Duration    *int
	OrderIndex  *int
}

// CourseFilter describes search criteria. An empty Status means published.
// Drafts are only searchable by their own creator.
type CourseFilter struct {
	Query       string
	Category    string
	MinPrice    *int64
	MaxPrice    *int64
	Status      CourseStatus
	CreatorID   uuid.UUID
	RequesterID uuid.UUID
	PageSize    int
	PageToken   string
}

// CourseRepository defines persistence for courses and lessons.
type CourseRepository interface {
	CreateCourse(ctx context.Context, course Course) error
	GetCourse(ctx context.Context, id uuid.UUID) (*Course, error)
	UpdateCourse(ctx context.Context, course Course) error
	// AdjustCourseCounters applies lesson/duration deltas while the course is a
	// draft. It returns ErrInvalidState once the course is published.
	AdjustCourseCounters(ctx context.Context, id uuid.UUID, lessons, duration int, at time.Time) error
	// MarkPublished transitions a draft course with at least one lesson.
	MarkPublished(ctx context.Context, id uuid.UUID, at time.Time) error
	SearchCourses(ctx context.Context, filter CourseFilter) ([]Course, string, error)
	ListCoursesByCreator(ctx context.Context, creatorID uuid.UUID) ([]Course, error)

	CreateLesson(ctx context.Context, lesson Lesson) error
	GetLesson(ctx context.Context, id uuid.UUID) (*Lesson, error)
	UpdateLesson(ctx context.Context, lesson Lesson) error
	DeleteLesson(ctx context.Context, id uuid.UUID) error
	ListLessons(ctx context.Context, courseID uuid.UUID) ([]Lesson, error)
}

// SkillRepository resolves skill ownership.
type SkillRepository interface {
	CreateSkill(ctx context.Context, skill Skill) error
	GetSkill(ctx context.Context, id uuid.UUID) (*Skill, error)
}

// CatalogService exposes course lifecycle use cases to adapters.
type CatalogService interface {
	RegisterSkill(ctx context.Context, draft SkillDraft) (*Skill, error)
	CreateCourse(ctx context.Context, creatorID uuid.UUID, draft CourseDraft) (*Course, error)
	UpdateCourse(ctx context.Context, update CourseUpdate) (*Course, error)
	GetCourse(ctx context.Context, id, viewerID uuid.UUID) (*Course, error)
	SearchCourses(ctx context.Context, filter CourseFilter) ([]Course, string, error)
	AddLesson(ctx context.Context, courseID, creatorID uuid.UUID, draft LessonDraft) (*Lesson, error)
	UpdateLesson(ctx context.Context, update LessonUpdate) (*Lesson, error)
	DeleteLesson(ctx context.Context, lessonID, creatorID uuid.UUID) error
	Publish(ctx context.Context, courseID, creatorID uuid.UUID) (*Course, error)
}
