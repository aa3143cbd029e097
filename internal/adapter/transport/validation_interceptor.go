package transport

import (
	"context"
	"fmt"

	"buf.build/go/protovalidate"
	"connectrpc.com/connect"
	"google.golang.org/protobuf/proto"

	"github.com/eslsoft/skillswap/internal/core"
)

// NewValidationInterceptor creates a Connect interceptor that validates incoming messages using protovalidate.
func NewValidationInterceptor(validator protovalidate.Validator) connect.Interceptor {
	return connect.UnaryInterceptorFunc(func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if validator != nil {
				if msg, ok := req.Any().(proto.Message); ok {
					if err := validator.Validate(msg); err != nil {
						return nil, fmt.Errorf("%w: %s", core.ErrValidation, err.Error())
					}
				}
			}
			return next(ctx, req)
		}
	})
}

// HandlerOptions bundles the interceptors every service handler is mounted
// with. The error interceptor is outermost so it also maps actor and
// validation failures.
func HandlerOptions(errs, actor, validation connect.Interceptor) []connect.HandlerOption {
	return []connect.HandlerOption{connect.WithInterceptors(errs, actor, validation)}
}
