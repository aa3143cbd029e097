package transport

import (
	"context"

	"connectrpc.com/connect"
	"github.com/samber/lo"

	"github.com/eslsoft/skillswap/internal/core"
	skillswapv1 "github.com/eslsoft/skillswap/pkg/api/skillswap/v1"
	"github.com/eslsoft/skillswap/pkg/api/skillswap/v1/skillswapv1connect"
)

// CatalogHandler serves course and lesson authoring plus discovery.
type CatalogHandler struct {
	catalog core.CatalogService
}

var _ skillswapv1connect.CatalogServiceHandler = (*CatalogHandler)(nil)

// NewCatalogHandler builds a new catalog handler.
func NewCatalogHandler(catalog core.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

func (h *CatalogHandler) RegisterSkill(ctx context.Context, req *connect.Request[skillswapv1.RegisterSkillRequest]) (*connect.Response[skillswapv1.RegisterSkillResponse], error) {
	owner, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	skill, err := h.catalog.RegisterSkill(ctx, core.SkillDraft{OwnerID: owner, Name: req.Msg.GetName(), Category: req.Msg.GetCategory()})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&skillswapv1.RegisterSkillResponse{Skill: toSkill(skill)}), nil
}

func (h *CatalogHandler) CreateCourse(ctx context.Context, req *connect.Request[skillswapv1.CreateCourseRequest]) (*connect.Response[skillswapv1.CreateCourseResponse], error) {
	creator, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	skillID, err := parseID("skill_id", req.Msg.GetSkillId())
	if err != nil {
		return nil, err
	}
	course, err := h.catalog.CreateCourse(ctx, creator, core.CourseDraft{
		SkillID:      skillID,
		Title:        req.Msg.GetTitle(),
		Description:  req.Msg.GetDescription(),
		PriceCredits: req.Msg.GetPriceCredits(),
		PriceMoney:   req.Msg.PriceMoney,
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&skillswapv1.CreateCourseResponse{Course: toCourse(*course, 0)}), nil
}

func (h *CatalogHandler) UpdateCourse(ctx context.Context, req *connect.Request[skillswapv1.UpdateCourseRequest]) (*connect.Response[skillswapv1.UpdateCourseResponse], error) {
	creator, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	courseID, err := parseID("course_id", req.Msg.GetCourseId())
	if err != nil {
		return nil, err
	}
	course, err := h.catalog.UpdateCourse(ctx, core.CourseUpdate{
		CourseID:     courseID,
		CreatorID:    creator,
		Title:        req.Msg.Title,
		Description:  req.Msg.Description,
		PriceCredits: req.Msg.PriceCredits,
		PriceMoney:   req.Msg.PriceMoney,
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&skillswapv1.UpdateCourseResponse{Course: toCourse(*course, 0)}), nil
}

func (h *CatalogHandler) GetCourse(ctx context.Context, req *connect.Request[skillswapv1.GetCourseRequest]) (*connect.Response[skillswapv1.GetCourseResponse], error) {
	courseID, err := parseID("course_id", req.Msg.GetCourseId())
	if err != nil {
		return nil, err
	}
	course, err := h.catalog.GetCourse(ctx, courseID, ActorFrom(ctx))
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&skillswapv1.GetCourseResponse{Course: toCourse(*course, 0)}), nil
}

func (h *CatalogHandler) SearchCourses(ctx context.Context, req *connect.Request[skillswapv1.SearchCoursesRequest]) (*connect.Response[skillswapv1.SearchCoursesResponse], error) {
	creatorID, err := parseOptionalID("creator_id", req.Msg.GetCreatorId())
	if err != nil {
		return nil, err
	}
	courses, next, err := h.catalog.SearchCourses(ctx, core.CourseFilter{
		Query:       req.Msg.GetQuery(),
		Category:    req.Msg.GetCategory(),
		MinPrice:    req.Msg.MinPrice,
		MaxPrice:    req.Msg.MaxPrice,
		Status:      courseStatusFromProto(req.Msg.GetStatus()),
		CreatorID:   creatorID,
		RequesterID: ActorFrom(ctx),
		PageSize:    int(req.Msg.GetPageSize()),
		PageToken:   req.Msg.GetPageToken(),
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&skillswapv1.SearchCoursesResponse{
		Courses:       lo.Map(courses, toCourse),
		NextPageToken: next,
	}), nil
}

func (h *CatalogHandler) AddLesson(ctx context.Context, req *connect.Request[skillswapv1.AddLessonRequest]) (*connect.Response[skillswapv1.AddLessonResponse], error) {
	creator, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	courseID, err := parseID("course_id", req.Msg.GetCourseId())
	if err != nil {
		return nil, err
	}
	lesson, err := h.catalog.AddLesson(ctx, courseID, creator, core.LessonDraft{
		Title:       req.Msg.GetTitle(),
		Description: req.Msg.GetDescription(),
		ContentType: req.Msg.GetContentType(),
		ContentURL:  req.Msg.GetContentUrl(),
		Duration:    int(req.Msg.GetDurationMinutes()),
		OrderIndex:  int(req.Msg.GetOrderIndex()),
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&skillswapv1.AddLessonResponse{Lesson: toLesson(*lesson, 0)}), nil
}

func (h *CatalogHandler) UpdateLesson(ctx context.Context, req *connect.Request[skillswapv1.UpdateLessonRequest]) (*connect.Response[skillswapv1.UpdateLessonResponse], error) {
	creator, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	lessonID, err := parseID("lesson_id", req.Msg.GetLessonId())
	if err != nil {
		return nil, err
	}
	lesson, err := h.catalog.UpdateLesson(ctx, core.LessonUpdate{
		LessonID:    lessonID,
		CreatorID:   creator,
		Title:       req.Msg.Title,
		Description: req.Msg.Description,
		ContentType: req.Msg.ContentType,
		ContentURL:  req.Msg.ContentUrl,
		Duration:    intPtr(req.Msg.DurationMinutes),
		OrderIndex:  intPtr(req.Msg.OrderIndex),
	})
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&skillswapv1.UpdateLessonResponse{Lesson: toLesson(*lesson, 0)}), nil
}

func (h *CatalogHandler) DeleteLesson(ctx context.Context, req *connect.Request[skillswapv1.DeleteLessonRequest]) (*connect.Response[skillswapv1.DeleteLessonResponse], error) {
	creator, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	lessonID, err := parseID("lesson_id", req.Msg.GetLessonId())
	if err != nil {
		return nil, err
	}
	if err := h.catalog.DeleteLesson(ctx, lessonID, creator); err != nil {
		return nil, err
	}
	return connect.NewResponse(&skillswapv1.DeleteLessonResponse{}), nil
}

func (h *CatalogHandler) PublishCourse(ctx context.Context, req *connect.Request[skillswapv1.PublishCourseRequest]) (*connect.Response[skillswapv1.PublishCourseResponse], error) {
	creator, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	courseID, err := parseID("course_id", req.Msg.GetCourseId())
	if err != nil {
		return nil, err
	}
	course, err := h.catalog.Publish(ctx, courseID, creator)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&skillswapv1.PublishCourseResponse{Course: toCourse(*course, 0)}), nil
}
