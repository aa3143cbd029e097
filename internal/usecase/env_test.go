package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/eslsoft/skillswap/internal/adapter/memory"
	"github.com/eslsoft/skillswap/internal/core"
)

type testEnv struct {
	store       *memory.Store
	sink        *recordingSink
	ledger      *LedgerService
	catalog     *CatalogService
	certs       *CertificateService
	enrollments *EnrollmentService
	analytics   *AnalyticsService
	ledgerCalls *countingLedger
}

func newTestEnv(t *testing.T, policy Policy) *testEnv {
	t.Helper()
	fixedNow := time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)
	clock := func() time.Time { return fixedNow }

	store := memory.NewStore()
	sink := &recordingSink{}
	audit := NewAuditor(sink, nil)

	ledger := NewLedgerService(store, store, store, audit, policy, nil)
	ledger.WithClock(clock)
	counting := &countingLedger{LedgerService: ledger}

	catalog := NewCatalogService(store, store, store, audit)
	catalog.WithClock(clock)

	certs := NewCertificateService(store, store, store, stubIssuer{}, store, audit)
	certs.WithClock(clock)

	enrollments := NewEnrollmentService(store, store, store, counting, certs, store, audit, policy, nil)
	enrollments.WithClock(clock)

	return &testEnv{
		store:       store,
		sink:        sink,
		ledger:      ledger,
		catalog:     catalog,
		certs:       certs,
		enrollments: enrollments,
		analytics:   NewAnalyticsService(store, store),
		ledgerCalls: counting,
	}
}

// account opens a user and funds it through the ledger.
func (e *testEnv) account(t *testing.T, name string, balance int64) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	user, err := e.ledger.OpenAccount(ctx, name)
	if err != nil {
		t.Fatalf("OpenAccount() error = %v", err)
	}
	if balance > 0 {
		if _, err := e.ledger.Credit(ctx, core.CreditParams{UserID: user.ID, Amount: balance, Type: core.TransactionPurchased}); err != nil {
			t.Fatalf("Credit() error = %v", err)
		}
	}
	return user.ID
}

// publishedCourse creates and publishes a course with lessons of the given durations.
func (e *testEnv) publishedCourse(t *testing.T, creatorID uuid.UUID, price int64, durations ...int) (*core.Course, []core.Lesson) {
	t.Helper()
	course, lessons := e.draftCourse(t, creatorID, price, durations...)
	published, err := e.catalog.Publish(context.Background(), course.ID, creatorID)
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	return published, lessons
}

func (e *testEnv) draftCourse(t *testing.T, creatorID uuid.UUID, price int64, durations ...int) (*core.Course, []core.Lesson) {
	t.Helper()
	ctx := context.Background()
	skill, err := e.catalog.RegisterSkill(ctx, core.SkillDraft{OwnerID: creatorID, Name: "Go", Category: "programming"})
	if err != nil {
		t.Fatalf("RegisterSkill() error = %v", err)
	}
	course, err := e.catalog.CreateCourse(ctx, creatorID, core.CourseDraft{
		SkillID:      skill.ID,
		Title:        "Concurrency in Go",
		Description:  "Channels and goroutines",
		PriceCredits: price,
	})
	if err != nil {
		t.Fatalf("CreateCourse() error = %v", err)
	}
	lessons := make([]core.Lesson, 0, len(durations))
	for i, d := range durations {
		lesson, err := e.catalog.AddLesson(ctx, course.ID, creatorID, core.LessonDraft{
			Title:      fmt.Sprintf("Lesson %d", i+1),
			ContentURL: fmt.Sprintf("https://cdn.local/lesson-%d.mp4", i+1),
			Duration:   d,
		})
		if err != nil {
			t.Fatalf("AddLesson() error = %v", err)
		}
		lessons = append(lessons, *lesson)
	}
	return course, lessons
}

func (e *testEnv) balance(t *testing.T, userID uuid.UUID) int64 {
	t.Helper()
	balance, err := e.ledger.GetBalance(context.Background(), userID)
	if err != nil {
		t.Fatalf("GetBalance() error = %v", err)
	}
	return balance
}

func (e *testEnv) assertConsistent(t *testing.T, userIDs ...uuid.UUID) {
	t.Helper()
	for _, id := range userIDs {
		rec, err := e.ledger.Reconcile(context.Background(), id)
		if err != nil {
			t.Fatalf("Reconcile() error = %v", err)
		}
		if !rec.Consistent {
			t.Fatalf("balance %d does not match ledger sum %d for %s", rec.Balance, rec.LedgerSum, id)
		}
	}
}

type recordingSink struct {
	mu     sync.Mutex
	events []core.AuditEvent
	err    error
}

func (s *recordingSink) Record(_ context.Context, ev core.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return s.err
}

func (s *recordingSink) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev.Type)
	}
	return out
}

func (s *recordingSink) count(eventType string) int {
	n := 0
	for _, t := range s.types() {
		if t == eventType {
			n++
		}
	}
	return n
}

// countingLedger counts mutation calls and can fail credits on demand.
type countingLedger struct {
	*LedgerService
	mu         sync.Mutex
	credits    int
	debits     int
	failCredit error
}

func (l *countingLedger) Credit(ctx context.Context, params core.CreditParams) (*core.CreditTransaction, error) {
	l.mu.Lock()
	l.credits++
	fail := l.failCredit
	l.mu.Unlock()
	if fail != nil {
		return nil, fail
	}
	return l.LedgerService.Credit(ctx, params)
}

func (l *countingLedger) Debit(ctx context.Context, params core.CreditParams) (*core.CreditTransaction, error) {
	l.mu.Lock()
	l.debits++
	l.mu.Unlock()
	return l.LedgerService.Debit(ctx, params)
}

func (l *countingLedger) calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.credits + l.debits
}

type stubIssuer struct{}

func (stubIssuer) CertificateURL(_ context.Context, cert core.Certificate) (string, error) {
	return "https://certs.test/" + cert.ID.String(), nil
}
