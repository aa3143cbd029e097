package core

import (
	"context"

	"github.com/google/uuid"
)

// MonthlyEnrollments counts enrollments created in a calendar month (YYYY-MM, UTC).
type MonthlyEnrollments struct {
	Month string
	Count int
}

// LessonCompletion reports how many enrollments completed a lesson.
// CompletionRate is a percentage of the course's enrollments.
type LessonCompletion struct {
	LessonID       uuid.UUID
	Title          string
	OrderIndex     int
	CompletedCount int
	CompletionRate float64
}

// CourseAnalytics is the creator-facing projection of a course.
type CourseAnalytics struct {
	CourseID             uuid.UUID
	Title                string
	Status               CourseStatus
	TotalEnrollments     int
	CompletedEnrollments int
	CompletionRate       float64
	AverageProgress      float64
	TotalRevenue         int64
	EnrollmentsByMonth   []MonthlyEnrollments
	LessonCompletion     []LessonCompletion
}

// CreatorAnalytics sums course analytics across a creator's courses.
type CreatorAnalytics struct {
	CreatorID            uuid.UUID
	TotalCourses         int
	PublishedCourses     int
	TotalEnrollments     int
	CompletedEnrollments int
	CompletionRate       float64
	AverageProgress      float64
	TotalRevenue         int64
	EnrollmentsByMonth   []MonthlyEnrollments
	Courses              []CourseAnalytics
}

// AnalyticsService exposes read-only reporting.
type AnalyticsService interface {
	CourseAnalytics(ctx context.Context, courseID, requesterID uuid.UUID) (*CourseAnalytics, error)
	CreatorAnalytics(ctx context.Context, creatorID uuid.UUID) (*CreatorAnalytics, error)
}
