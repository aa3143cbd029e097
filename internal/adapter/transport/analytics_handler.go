package transport

import (
	"context"

	"connectrpc.com/connect"

	"github.com/eslsoft/skillswap/internal/core"
	skillswapv1 "github.com/eslsoft/skillswap/pkg/api/skillswap/v1"
	"github.com/eslsoft/skillswap/pkg/api/skillswap/v1/skillswapv1connect"
)

// AnalyticsHandler serves creator-facing reports.
type AnalyticsHandler struct {
	analytics core.AnalyticsService
}

var _ skillswapv1connect.AnalyticsServiceHandler = (*AnalyticsHandler)(nil)

// NewAnalyticsHandler builds a new analytics handler.
func NewAnalyticsHandler(analytics core.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

func (h *AnalyticsHandler) GetCourseAnalytics(ctx context.Context, req *connect.Request[skillswapv1.GetCourseAnalyticsRequest]) (*connect.Response[skillswapv1.GetCourseAnalyticsResponse], error) {
	requester, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	courseID, err := parseID("course_id", req.Msg.GetCourseId())
	if err != nil {
		return nil, err
	}
	stats, err := h.analytics.CourseAnalytics(ctx, courseID, requester)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&skillswapv1.GetCourseAnalyticsResponse{Analytics: toCourseAnalytics(*stats, 0)}), nil
}

func (h *AnalyticsHandler) GetCreatorAnalytics(ctx context.Context, _ *connect.Request[skillswapv1.GetCreatorAnalyticsRequest]) (*connect.Response[skillswapv1.GetCreatorAnalyticsResponse], error) {
	creator, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	stats, err := h.analytics.CreatorAnalytics(ctx, creator)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&skillswapv1.GetCreatorAnalyticsResponse{Analytics: toCreatorAnalytics(stats)}), nil
}
