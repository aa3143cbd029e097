package db

import (
	"context"
	"errors"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel/codes"

	entgenerated "github.com/eslsoft/skillswap/internal/adapter/db/ent/generated"
	"github.com/eslsoft/skillswap/internal/core"
)

var _ core.Transactor = (*Client)(nil)

// InTx runs fn in a database transaction. Nested calls join the outer
// transaction. Transient failures roll back and replay fn from scratch, so fn
// must not keep side effects outside the transaction.
func (c *Client) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if c.inTx(ctx) {
		return fn(ctx)
	}

	ctx, span := c.tracer.Start(ctx, "db.InTx")
	defer span.End()

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := c.runTx(ctx, fn)
		switch {
		case err == nil:
			return struct{}{}, nil
		case isTransient(err):
			c.log.Warn("transaction aborted, retrying", "attempt", attempt, "error", err)
			return struct{}{}, err
		default:
			return struct{}{}, backoff.Permanent(err)
		}
	}, backoff.WithBackOff(c.newBackOff()), backoff.WithMaxTries(c.maxRetries+1))

	err = settle(err)
	if err != nil && (errors.Is(err, core.ErrUnavailable) || !isDomainError(err)) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Client) runTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := c.ent.Tx(ctx)
	if err != nil {
		return mapError(err)
	}
	if err := fn(entgenerated.NewTxContext(ctx, tx)); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			c.log.Warn("rollback failed", "error", rerr)
		}
		return err
	}
	return mapError(tx.Commit())
}

// isDomainError reports whether err is an expected business outcome rather
// than a storage fault.
func isDomainError(err error) bool {
	return core.CodeOf(err) != core.CodeInternal
}
