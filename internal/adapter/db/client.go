package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	entgenerated "github.com/eslsoft/skillswap/internal/adapter/db/ent/generated"
	"github.com/eslsoft/skillswap/internal/core"
	"github.com/eslsoft/skillswap/internal/platform/logger"
)

const (
	defaultMaxRetries = 3
	tracerName        = "github.com/eslsoft/skillswap/internal/adapter/db"
)

// Client wraps the generated Ent client. Repository calls issued with a
// context produced by InTx join that transaction; everything else runs on
// the pool with bounded retries.
type Client struct {
	ent        *entgenerated.Client
	dialect    string
	maxRetries uint
	log        *logger.Logger
	tracer     trace.Tracer
}

// Option customises a Client.
type Option func(*Client)

// WithMaxRetries bounds how many times a transient failure is retried.
func WithMaxRetries(n uint) Option {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(log *logger.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// NewClient builds an Ent client on top of drv.
func NewClient(drv *entsql.Driver, opts ...Option) *Client {
	c := &Client{
		ent:        entgenerated.NewClient(entgenerated.Driver(drv)),
		dialect:    drv.Dialect(),
		maxRetries: defaultMaxRetries,
		log:        logger.NewNop(),
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With("component", "db")
	return c
}

// Dialect reports the SQL dialect of the underlying driver.
func (c *Client) Dialect() string {
	return c.dialect
}

// Close closes the connection pool.
func (c *Client) Close() error {
	return c.ent.Close()
}

// db returns the client bound to the transaction carried by ctx, if any.
func (c *Client) db(ctx context.Context) *entgenerated.Client {
	if tx := entgenerated.TxFromContext(ctx); tx != nil {
		return tx.Client()
	}
	return c.ent
}

func (c *Client) inTx(ctx context.Context) bool {
	return entgenerated.TxFromContext(ctx) != nil
}

func (c *Client) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond
	return b
}

// do runs op against the context's client, translating driver errors and
// retrying transient ones.
func do[T any](ctx context.Context, c *Client, op func(db *entgenerated.Client) (T, error)) (T, error) {
	db := c.db(ctx)
	return retry(ctx, c, func() (T, error) {
		v, err := op(db)
		return v, mapError(err)
	})
}

// exec is do for operations without a result.
func exec(ctx context.Context, c *Client, op func(db *entgenerated.Client) error) error {
	_, err := do(ctx, c, func(db *entgenerated.Client) (struct{}, error) {
		return struct{}{}, op(db)
	})
	return err
}

// retry repeats op on transient failures. Inside a transaction it runs once:
// the unit of work is retried as a whole by InTx.
func retry[T any](ctx context.Context, c *Client, op func() (T, error)) (T, error) {
	if c.inTx(ctx) {
		return op()
	}
	res, err := backoff.Retry(ctx, func() (T, error) {
		res, err := op()
		if err != nil && !isTransient(err) {
			return res, backoff.Permanent(err)
		}
		return res, err
	}, backoff.WithBackOff(c.newBackOff()), backoff.WithMaxTries(c.maxRetries+1))
	return res, settle(err)
}

// settle strips retry wrappers and reports exhausted transient failures as
// core.ErrUnavailable.
func settle(err error) error {
	if err == nil {
		return nil
	}
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Unwrap()
	}
	if isTransient(err) {
		return fmt.Errorf("%w: %w", core.ErrUnavailable, err)
	}
	return err
}
