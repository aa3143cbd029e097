package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/eslsoft/skillswap/internal/core"
)

const analyticsFanOut = 4

// AnalyticsService projects read-only creator reports. It never mutates state.
type AnalyticsService struct {
	courses     core.CourseRepository
	enrollments core.EnrollmentRepository
}

// NewAnalyticsService constructs an AnalyticsService.
func NewAnalyticsService(courses core.CourseRepository, enrollments core.EnrollmentRepository) *AnalyticsService {
	return &AnalyticsService{courses: courses, enrollments: enrollments}
}

var _ core.AnalyticsService = (*AnalyticsService)(nil)

// CourseAnalytics reports enrollment, completion and revenue figures for a
// course. Only its creator may read them.
func (s *AnalyticsService) CourseAnalytics(ctx context.Context, courseID, requesterID uuid.UUID) (*core.CourseAnalytics, error) {
	course, err := s.courses.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.CreatorID != requesterID {
		return nil, fmt.Errorf("%w: analytics are restricted to the course creator", core.ErrForbidden)
	}
	return s.load(ctx, course)
}

// CreatorAnalytics sums the analytics of every course the creator owns.
func (s *AnalyticsService) CreatorAnalytics(ctx context.Context, creatorID uuid.UUID) (*core.CreatorAnalytics, error) {
	if creatorID == uuid.Nil {
		return nil, fmt.Errorf("%w: creator id required", core.ErrValidation)
	}
	courses, err := s.courses.ListCoursesByCreator(ctx, creatorID)
	if err != nil {
		return nil, err
	}

	results := make([]core.CourseAnalytics, len(courses))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(analyticsFanOut)
	for i := range courses {
		g.Go(func() error {
			a, err := s.load(gctx, &courses[i])
			if err != nil {
				return err
			}
			results[i] = *a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sumCreatorAnalytics(creatorID, results), nil
}

func (s *AnalyticsService) load(ctx context.Context, course *core.Course) (*core.CourseAnalytics, error) {
	lessons, err := s.courses.ListLessons(ctx, course.ID)
	if err != nil {
		return nil, err
	}
	enrollments, err := s.enrollments.ListEnrollmentsByCourse(ctx, course.ID)
	if err != nil {
		return nil, err
	}
	progress, err := s.enrollments.ListCourseLessonProgress(ctx, course.ID)
	if err != nil {
		return nil, err
	}
	return projectCourse(*course, lessons, enrollments, progress), nil
}

// projectCourse is the pure aggregation behind CourseAnalytics.
func projectCourse(course core.Course, lessons []core.Lesson, enrollments []core.Enrollment, progress []core.LessonProgress) *core.CourseAnalytics {
	out := &core.CourseAnalytics{
		CourseID:           course.ID,
		Title:              course.Title,
		Status:             course.Status,
		TotalEnrollments:   len(enrollments),
		EnrollmentsByMonth: []core.MonthlyEnrollments{},
		LessonCompletion:   make([]core.LessonCompletion, 0, len(lessons)),
	}

	months := map[string]int{}
	progressSum := 0
	for _, e := range enrollments {
		if e.Completed() {
			out.CompletedEnrollments++
		}
		progressSum += e.Progress
		months[e.CreatedAt.UTC().Format("2006-01")]++
	}
	if out.TotalEnrollments > 0 {
		out.CompletionRate = percent(out.CompletedEnrollments, out.TotalEnrollments)
		out.AverageProgress = float64(progressSum) / float64(out.TotalEnrollments)
	}
	out.TotalRevenue = int64(out.TotalEnrollments) * core.CreatorPayout(course.PriceCredits)
	out.EnrollmentsByMonth = monthlySeries(months)

	enrolled := lo.SliceToMap(enrollments, func(e core.Enrollment) (uuid.UUID, struct{}) { return e.ID, struct{}{} })
	completedByLesson := map[uuid.UUID]int{}
	for _, p := range progress {
		if _, ok := enrolled[p.EnrollmentID]; ok && p.Completed {
			completedByLesson[p.LessonID]++
		}
	}
	for _, l := range lessons {
		lc := core.LessonCompletion{
			LessonID:       l.ID,
			Title:          l.Title,
			OrderIndex:     l.OrderIndex,
			CompletedCount: completedByLesson[l.ID],
		}
		if out.TotalEnrollments > 0 {
			lc.CompletionRate = percent(lc.CompletedCount, out.TotalEnrollments)
		}
		out.LessonCompletion = append(out.LessonCompletion, lc)
	}
	return out
}

func sumCreatorAnalytics(creatorID uuid.UUID, courses []core.CourseAnalytics) *core.CreatorAnalytics {
	out := &core.CreatorAnalytics{
		CreatorID:    creatorID,
		TotalCourses: len(courses),
		Courses:      courses,
	}
	months := map[string]int{}
	var weightedProgress float64
	for _, c := range courses {
		if c.Status == core.CourseStatusPublished {
			out.PublishedCourses++
		}
		out.TotalEnrollments += c.TotalEnrollments
		out.CompletedEnrollments += c.CompletedEnrollments
		out.TotalRevenue += c.TotalRevenue
		weightedProgress += c.AverageProgress * float64(c.TotalEnrollments)
		for _, m := range c.EnrollmentsByMonth {
			months[m.Month] += m.Count
		}
	}
	if out.TotalEnrollments > 0 {
		out.CompletionRate = percent(out.CompletedEnrollments, out.TotalEnrollments)
		out.AverageProgress = weightedProgress / float64(out.TotalEnrollments)
	}
	out.EnrollmentsByMonth = monthlySeries(months)
	return out
}

func monthlySeries(months map[string]int) []core.MonthlyEnrollments {
	keys := lo.Keys(months)
	sort.Strings(keys)
	return lo.Map(keys, func(k string, _ int) core.MonthlyEnrollments {
		return core.MonthlyEnrollments{Month: k, Count: months[k]}
	})
}

func percent(part, whole int) float64 {
	return float64(part) * 100 / float64(whole)
}
