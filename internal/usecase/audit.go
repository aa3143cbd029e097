package usecase

import (
	"context"
	"time"

	"github.com/eslsoft/skillswap/internal/core"
	"github.com/eslsoft/skillswap/internal/platform/logger"
)

// DefaultAuditTimeout bounds how long one event may hold up the caller.
const DefaultAuditTimeout = 250 * time.Millisecond

// Auditor forwards audit events to a sink after the unit of work that
// produced them commits. Sink failures are logged and swallowed, and each
// delivery runs under its own deadline detached from the request.
type Auditor struct {
	sink    core.AuditSink
	log     *logger.Logger
	timeout time.Duration
}

// NewAuditor constructs an Auditor. A nil sink disables forwarding.
func NewAuditor(sink core.AuditSink, log *logger.Logger) *Auditor {
	if log == nil {
		log = logger.NewNop()
	}
	return &Auditor{sink: sink, log: log, timeout: DefaultAuditTimeout}
}

// WithTimeout overrides the per-event delivery deadline.
func (a *Auditor) WithTimeout(d time.Duration) {
	if d > 0 {
		a.timeout = d
	}
}

type auditTrailKey struct{}

type auditTrail struct {
	events []core.AuditEvent
}

// run executes fn inside tx. The outermost caller owns the trail and flushes
// it once the transaction commits; nested callers join the outer trail.
func (a *Auditor) run(ctx context.Context, tx core.Transactor, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(auditTrailKey{}).(*auditTrail); ok {
		return tx.InTx(ctx, fn)
	}

	trail := &auditTrail{}
	ctx = context.WithValue(ctx, auditTrailKey{}, trail)
	err := tx.InTx(ctx, func(ctx context.Context) error {
		// a retried transaction replays fn from scratch
		trail.events = trail.events[:0]
		return fn(ctx)
	})
	if err != nil {
		return err
	}
	for _, ev := range trail.events {
		a.record(ctx, ev)
	}
	return nil
}

func (a *Auditor) stage(ctx context.Context, ev core.AuditEvent) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	if trail, ok := ctx.Value(auditTrailKey{}).(*auditTrail); ok {
		trail.events = append(trail.events, ev)
		return
	}
	a.record(ctx, ev)
}

func (a *Auditor) record(ctx context.Context, ev core.AuditEvent) {
	if a.sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
	defer cancel()
	if err := a.sink.Record(ctx, ev); err != nil {
		a.log.Warn("audit sink failed", "event", ev.Type, "subject_id", ev.SubjectID, "error", err)
	}
}
