package transport

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/eslsoft/skillswap/internal/core"
	"github.com/eslsoft/skillswap/internal/platform/logger"
)

// ErrorCodeHeader carries the stable machine-readable error code.
const ErrorCodeHeader = "Error-Code"

// NewErrorInterceptor creates a Connect interceptor that maps domain errors
// to transport-friendly Connect errors. Internal failures are logged and
// masked.
func NewErrorInterceptor(log *logger.Logger) connect.Interceptor {
	if log == nil {
		log = logger.NewNop()
	}
	log = log.With("component", "transport")
	return connect.UnaryInterceptorFunc(func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			res, err := next(ctx, req)
			if err == nil {
				return res, nil
			}
			mapped := mapError(err)
			if mapped.Code() == connect.CodeInternal {
				log.Error("request failed", "procedure", req.Spec().Procedure, "error", err)
			}
			return nil, mapped
		}
	})
}

func mapError(err error) *connect.Error {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}

	code := core.CodeOf(err)
	var out *connect.Error
	switch {
	case errors.Is(err, core.ErrNotFound):
		out = connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, core.ErrForbidden):
		out = connect.NewError(connect.CodePermissionDenied, err)
	case errors.Is(err, core.ErrValidation):
		out = connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, core.ErrInvalidState),
		errors.Is(err, core.ErrInsufficientFunds),
		errors.Is(err, core.ErrAlreadyEnrolled),
		errors.Is(err, core.ErrSelfEnrollment):
		out = connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, core.ErrNotImplemented):
		out = connect.NewError(connect.CodeUnimplemented, err)
	case errors.Is(err, core.ErrUnavailable):
		out = connect.NewError(connect.CodeUnavailable, errors.New("storage temporarily unavailable"))
	case errors.Is(err, core.ErrConflict):
		out = connect.NewError(connect.CodeAborted, err)
	default:
		out = connect.NewError(connect.CodeInternal, errors.New("internal error"))
	}
	out.Meta().Set(ErrorCodeHeader, code)
	return out
}
