package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/eslsoft/skillswap/internal/adapter/memory"
	"github.com/eslsoft/skillswap/internal/core"
	"github.com/eslsoft/skillswap/internal/platform/logger"
)

func TestAuditor_FlushesOnlyAfterCommit(t *testing.T) {
	store := memory.NewStore()
	sink := &recordingSink{}
	audit := NewAuditor(sink, nil)
	ctx := context.Background()

	err := audit.run(ctx, store, func(ctx context.Context) error {
		audit.stage(ctx, core.AuditEvent{Type: "outer"})
		return audit.run(ctx, store, func(ctx context.Context) error {
			audit.stage(ctx, core.AuditEvent{Type: "inner"})
			if len(sink.types()) != 0 {
				t.Fatal("expected events to be held until commit")
			}
			return nil
		})
	})
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if got := sink.types(); len(got) != 2 || got[0] != "outer" || got[1] != "inner" {
		t.Fatalf("expected [outer inner], got %v", got)
	}
}

func TestAuditor_DropsEventsOnRollback(t *testing.T) {
	store := memory.NewStore()
	sink := &recordingSink{}
	audit := NewAuditor(sink, nil)
	boom := errors.New("boom")

	err := audit.run(context.Background(), store, func(ctx context.Context) error {
		audit.stage(ctx, core.AuditEvent{Type: "never"})
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if len(sink.types()) != 0 {
		t.Fatalf("expected no events, got %v", sink.types())
	}
}

func TestAuditor_SinkFailureIsLoggedNotReturned(t *testing.T) {
	obsCore, logs := observer.New(zap.WarnLevel)
	sink := &recordingSink{err: errors.New("sink down")}
	audit := NewAuditor(sink, logger.NewFromZap(zap.New(obsCore)))

	err := audit.run(context.Background(), memory.NewStore(), func(ctx context.Context) error {
		audit.stage(ctx, core.AuditEvent{Type: core.AuditCoursePublished, SubjectID: "c1"})
		return nil
	})
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	entries := logs.FilterMessage("audit sink failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one warning, got %d", len(entries))
	}
	if entries[0].ContextMap()["event"] != core.AuditCoursePublished {
		t.Fatalf("unexpected log fields %v", entries[0].ContextMap())
	}
}

// stallingSink blocks every delivery until the caller's context ends.
type stallingSink struct {
	mu   sync.Mutex
	errs []error
}

func (s *stallingSink) Record(ctx context.Context, _ core.AuditEvent) error {
	<-ctx.Done()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, ctx.Err())
	return ctx.Err()
}

func (s *stallingSink) deliveries() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]error(nil), s.errs...)
}

func TestAuditor_StalledSinkDoesNotHoldEnroll(t *testing.T) {
	env := newTestEnv(t, Policy{})
	creator := env.account(t, "creator", 0)
	student := env.account(t, "student", 100)
	course, _ := env.publishedCourse(t, creator, 50, 30)

	sink := &stallingSink{}
	audit := NewAuditor(sink, nil)
	audit.WithTimeout(20 * time.Millisecond)
	env.ledger.audit = audit
	env.enrollments.audit = audit

	started := time.Now()
	done := make(chan error, 1)
	go func() {
		_, err := env.enrollments.Enroll(context.Background(), core.EnrollParams{UserID: student, CourseID: course.ID})
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Enroll() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Enroll() blocked on the audit sink")
	}
	if elapsed := time.Since(started); elapsed > time.Second {
		t.Fatalf("Enroll() took %v with a stalled sink", elapsed)
	}

	delivered := sink.deliveries()
	if len(delivered) != 3 {
		t.Fatalf("expected debit, credit and enrollment events, got %d", len(delivered))
	}
	for _, err := range delivered {
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected per-event deadline, got %v", err)
		}
	}
	if got := env.balance(t, student); got != 50 {
		t.Fatalf("expected balance 50, got %d", got)
	}
}

func TestAuditor_DeliveryOutlivesCancelledRequest(t *testing.T) {
	sink := &recordingCtxSink{}
	audit := NewAuditor(sink, nil)
	ctx, cancel := context.WithCancel(context.Background())

	err := audit.run(ctx, memory.NewStore(), func(ctx context.Context) error {
		audit.stage(ctx, core.AuditEvent{Type: core.AuditAccountOpened})
		cancel()
		return nil
	})
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if sink.err != nil {
		t.Fatalf("expected delivery context to survive request cancellation, got %v", sink.err)
	}
	if !sink.hasDeadline {
		t.Fatal("expected delivery context to carry a deadline")
	}
}

type recordingCtxSink struct {
	err         error
	hasDeadline bool
}

func (s *recordingCtxSink) Record(ctx context.Context, _ core.AuditEvent) error {
	s.err = ctx.Err()
	_, s.hasDeadline = ctx.Deadline()
	return nil
}
