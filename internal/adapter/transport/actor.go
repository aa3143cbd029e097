package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/eslsoft/skillswap/internal/core"
)

// ActorHeader carries the authenticated caller id. Authentication happens
// upstream; this service trusts the header.
const ActorHeader = "X-Actor-Id"

// IdempotencyHeader may carry the idempotency key of an enrollment request.
const IdempotencyHeader = "Idempotency-Key"

type actorKey struct{}

// WithActor stores the caller id on ctx.
func WithActor(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, actorKey{}, id)
}

// ActorFrom returns the caller id, or uuid.Nil for anonymous requests.
func ActorFrom(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(actorKey{}).(uuid.UUID)
	return id
}

// NewActorInterceptor resolves the caller from the X-Actor-Id header.
func NewActorInterceptor() connect.Interceptor {
	return connect.UnaryInterceptorFunc(func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			raw := strings.TrimSpace(req.Header().Get(ActorHeader))
			if raw == "" {
				return next(ctx, req)
			}
			id, err := uuid.Parse(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid %s header", core.ErrValidation, ActorHeader)
			}
			return next(WithActor(ctx, id), req)
		}
	})
}

func requireActor(ctx context.Context) (uuid.UUID, error) {
	id := ActorFrom(ctx)
	if id == uuid.Nil {
		return uuid.Nil, connect.NewError(connect.CodeUnauthenticated, errors.New("missing "+ActorHeader+" header"))
	}
	return id, nil
}

// subjectOrActor resolves the account a per-user read targets. An empty
// user_id selects the caller; naming any other account is forbidden.
func subjectOrActor(ctx context.Context, raw string) (uuid.UUID, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	if raw == "" {
		return actor, nil
	}
	id, err := parseID("user_id", raw)
	if err != nil {
		return uuid.Nil, err
	}
	if id != actor {
		return uuid.Nil, fmt.Errorf("%w: user_id must match the caller", core.ErrForbidden)
	}
	return id, nil
}

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s", core.ErrValidation, field)
	}
	return id, nil
}

func parseOptionalID(field, raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, nil
	}
	return parseID(field, raw)
}
