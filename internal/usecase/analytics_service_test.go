package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/eslsoft/skillswap/internal/core"
)

func TestProjectCourse(t *testing.T) {
	march := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	april := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	course := core.Course{ID: uuid.New(), Title: "Go", Status: core.CourseStatusPublished, PriceCredits: 25}
	lessons := []core.Lesson{
		{ID: uuid.New(), Title: "one", OrderIndex: 1},
		{ID: uuid.New(), Title: "two", OrderIndex: 2},
	}
	done := april
	enrollments := []core.Enrollment{
		{ID: uuid.New(), Progress: 100, CompletedAt: &done, CreatedAt: march},
		{ID: uuid.New(), Progress: 50, CreatedAt: march},
		{ID: uuid.New(), Progress: 0, CreatedAt: april},
		{ID: uuid.New(), Progress: 50, CreatedAt: april},
	}
	progress := []core.LessonProgress{
		{EnrollmentID: enrollments[0].ID, LessonID: lessons[0].ID, Completed: true},
		{EnrollmentID: enrollments[0].ID, LessonID: lessons[1].ID, Completed: true},
		{EnrollmentID: enrollments[1].ID, LessonID: lessons[0].ID, Completed: true},
		{EnrollmentID: enrollments[3].ID, LessonID: lessons[0].ID, Completed: true},
		{EnrollmentID: uuid.New(), LessonID: lessons[1].ID, Completed: true},
	}

	got := projectCourse(course, lessons, enrollments, progress)

	if got.TotalEnrollments != 4 || got.CompletedEnrollments != 1 {
		t.Fatalf("unexpected counts %d/%d", got.TotalEnrollments, got.CompletedEnrollments)
	}
	if got.CompletionRate != 25 {
		t.Fatalf("expected completion rate 25, got %v", got.CompletionRate)
	}
	if got.AverageProgress != 50 {
		t.Fatalf("expected average progress 50, got %v", got.AverageProgress)
	}
	if got.TotalRevenue != 4*20 {
		t.Fatalf("expected revenue 80, got %d", got.TotalRevenue)
	}
	if len(got.EnrollmentsByMonth) != 2 || got.EnrollmentsByMonth[0].Month != "2024-03" || got.EnrollmentsByMonth[1].Count != 2 {
		t.Fatalf("unexpected monthly series %#v", got.EnrollmentsByMonth)
	}
	if got.LessonCompletion[0].CompletedCount != 3 || got.LessonCompletion[0].CompletionRate != 75 {
		t.Fatalf("unexpected first lesson stats %#v", got.LessonCompletion[0])
	}
	if got.LessonCompletion[1].CompletedCount != 1 {
		t.Fatalf("expected progress from unknown enrollments to be ignored, got %d", got.LessonCompletion[1].CompletedCount)
	}
}

func TestProjectCourse_NoEnrollments(t *testing.T) {
	got := projectCourse(core.Course{ID: uuid.New(), PriceCredits: 10}, []core.Lesson{{ID: uuid.New()}}, nil, nil)
	if got.CompletionRate != 0 || got.AverageProgress != 0 || got.TotalRevenue != 0 {
		t.Fatalf("expected zeroed analytics, got %#v", got)
	}
	if got.EnrollmentsByMonth == nil || len(got.LessonCompletion) != 1 {
		t.Fatalf("expected empty series and one lesson row, got %#v", got)
	}
}

func TestAnalyticsService_CourseAndCreator(t *testing.T) {
	env := newTestEnv(t, Policy{})
	ctx := context.Background()
	creator := env.account(t, "creator", 0)
	first, lessons := env.publishedCourse(t, creator, 50, 10)
	second, _ := env.publishedCourse(t, creator, 0, 10, 10)
	env.draftCourse(t, creator, 5, 10)

	for i := range 3 {
		student := env.account(t, "student", 100)
		e, err := env.enrollments.Enroll(ctx, core.EnrollParams{UserID: student, CourseID: first.ID})
		if err != nil {
			t.Fatalf("Enroll() error = %v", err)
		}
		if i == 0 {
			if _, err := env.enrollments.ReportLessonProgress(ctx, core.ProgressReport{EnrollmentID: e.ID, LessonID: lessons[0].ID}); err != nil {
				t.Fatalf("ReportLessonProgress() error = %v", err)
			}
		}
		if _, err := env.enrollments.Enroll(ctx, core.EnrollParams{UserID: student, CourseID: second.ID}); err != nil {
			t.Fatalf("Enroll() error = %v", err)
		}
	}

	course, err := env.analytics.CourseAnalytics(ctx, first.ID, creator)
	if err != nil {
		t.Fatalf("CourseAnalytics() error = %v", err)
	}
	if course.TotalEnrollments != 3 || course.CompletedEnrollments != 1 || course.TotalRevenue != 120 {
		t.Fatalf("unexpected course analytics %#v", course)
	}
	if got := env.balance(t, creator); got != course.TotalRevenue {
		t.Fatalf("expected revenue %d to match creator balance %d", course.TotalRevenue, got)
	}

	if _, err := env.analytics.CourseAnalytics(ctx, first.ID, uuid.New()); !errors.Is(err, core.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := env.analytics.CourseAnalytics(ctx, uuid.New(), creator); !errors.Is(err, core.ErrCourseNotFound) {
		t.Fatalf("expected ErrCourseNotFound, got %v", err)
	}

	summary, err := env.analytics.CreatorAnalytics(ctx, creator)
	if err != nil {
		t.Fatalf("CreatorAnalytics() error = %v", err)
	}
	if summary.TotalCourses != 3 || summary.PublishedCourses != 2 {
		t.Fatalf("unexpected course counts %d/%d", summary.TotalCourses, summary.PublishedCourses)
	}
	if summary.TotalEnrollments != 6 || summary.CompletedEnrollments != 1 || summary.TotalRevenue != 120 {
		t.Fatalf("unexpected creator totals %#v", summary)
	}
	if len(summary.EnrollmentsByMonth) != 1 || summary.EnrollmentsByMonth[0].Month != "2024-03" || summary.EnrollmentsByMonth[0].Count != 6 {
		t.Fatalf("unexpected monthly series %#v", summary.EnrollmentsByMonth)
	}
}
