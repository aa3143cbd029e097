package transport

import (
	"context"
	"strings"

	"connectrpc.com/connect"
	"github.com/samber/lo"

	"github.com/eslsoft/skillswap/internal/core"
	skillswapv1 "github.com/eslsoft/skillswap/pkg/api/skillswap/v1"
	"github.com/eslsoft/skillswap/pkg/api/skillswap/v1/skillswapv1connect"
)

// EnrollmentHandler serves enrollment, progress and access checks.
type EnrollmentHandler struct {
	enrollments core.EnrollmentService
}

var _ skillswapv1connect.EnrollmentServiceHandler = (*EnrollmentHandler)(nil)

// NewEnrollmentHandler builds a new enrollment handler.
func NewEnrollmentHandler(enrollments core.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

func (h *EnrollmentHandler) Enroll(ctx context.Context, req *connect.Request[skillswapv1.EnrollRequest]) (*connect.Response[skillswapv1.EnrollResponse], error) {
	userID, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	courseID, err := parseID("course_id", req.Msg.GetCourseId())
	if err != nil {
		return nil, err
	}
	key := req.Msg.GetIdempotencyKey()
	if key == "" {
		key = strings.TrimSpace(req.Header().Get(IdempotencyHeader))
	}
	enrollment, err := h.enrollments.Enroll(ctx, core.EnrollParams{
		UserID:         userID,
		CourseID:       courseID,
		PaymentMethod:  paymentMethodFromProto(req.Msg.GetPaymentMethod()),
		IdempotencyKey: key,
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&skillswapv1.EnrollResponse{Enrollment: toEnrollment(*enrollment, 0)}), nil
}

func (h *EnrollmentHandler) ReportLessonProgress(ctx context.Context, req *connect.Request[skillswapv1.ReportLessonProgressRequest]) (*connect.Response[skillswapv1.ReportLessonProgressResponse], error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	enrollmentID, err := parseID("enrollment_id", req.Msg.GetEnrollmentId())
	if err != nil {
		return nil, err
	}
	lessonID, err := parseID("lesson_id", req.Msg.GetLessonId())
	if err != nil {
		return nil, err
	}
	enrollment, err := h.enrollments.ReportLessonProgress(ctx, core.ProgressReport{
		EnrollmentID:   enrollmentID,
		LessonID:       lessonID,
		TimeSpentDelta: int(req.Msg.GetTimeSpentMinutes()),
		ActorID:        actor,
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&skillswapv1.ReportLessonProgressResponse{Enrollment: toEnrollment(*enrollment, 0)}), nil
}

func (h *EnrollmentHandler) CanAccess(ctx context.Context, req *connect.Request[skillswapv1.CanAccessRequest]) (*connect.Response[skillswapv1.CanAccessResponse], error) {
	userID, err := subjectOrActor(ctx, req.Msg.GetUserId())
	if err != nil {
		return nil, err
	}
	courseID, err := parseID("course_id", req.Msg.GetCourseId())
	if err != nil {
		return nil, err
	}
	allowed, err := h.enrollments.CanAccess(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&skillswapv1.CanAccessResponse{Allowed: allowed}), nil
}

func (h *EnrollmentHandler) GetEnrollment(ctx context.Context, req *connect.Request[skillswapv1.GetEnrollmentRequest]) (*connect.Response[skillswapv1.GetEnrollmentResponse], error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	enrollmentID, err := parseID("enrollment_id", req.Msg.GetEnrollmentId())
	if err != nil {
		return nil, err
	}
	detail, err := h.enrollments.GetEnrollment(ctx, enrollmentID, actor)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&skillswapv1.GetEnrollmentResponse{
		Enrollment: toEnrollment(detail.Enrollment, 0),
		Lessons:    lo.Map(detail.Lessons, toLessonProgress),
	}), nil
}

func (h *EnrollmentHandler) ListEnrollments(ctx context.Context, req *connect.Request[skillswapv1.ListEnrollmentsRequest]) (*connect.Response[skillswapv1.ListEnrollmentsResponse], error) {
	userID, err := subjectOrActor(ctx, req.Msg.GetUserId())
	if err != nil {
		return nil, err
	}
	enrollments, err := h.enrollments.ListEnrollments(ctx, userID)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&skillswapv1.ListEnrollmentsResponse{Enrollments: lo.Map(enrollments, toEnrollment)}), nil
}

func (h *EnrollmentHandler) GetCourseContent(ctx context.Context, req *connect.Request[skillswapv1.GetCourseContentRequest]) (*connect.Response[skillswapv1.GetCourseContentResponse], error) {
	courseID, err := parseID("course_id", req.Msg.GetCourseId())
	if err != nil {
		return nil, err
	}
	content, err := h.enrollments.CourseContent(ctx, courseID, ActorFrom(ctx))
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&skillswapv1.GetCourseContentResponse{
		Course:   toCourse(content.Course, 0),
		Lessons:  lo.Map(content.Lessons, toLesson),
		Unlocked: content.Unlocked,
	}), nil
}
