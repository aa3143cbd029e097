package db_test

import (
	"context"
	stdsql "database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/eslsoft/skillswap/internal/adapter/db"
	"github.com/eslsoft/skillswap/internal/core"
	"github.com/eslsoft/skillswap/internal/usecase"
	"github.com/eslsoft/skillswap/internal/usecase/usecasetest"
)

type sqlEnv struct {
	events      *countingSink
	ledger      *usecase.LedgerService
	catalog     *usecase.CatalogService
	certs       *usecase.CertificateService
	enrollments *usecase.EnrollmentService
	analytics   *usecase.AnalyticsService
}

type staticIssuer struct{}

func (staticIssuer) CertificateURL(_ context.Context, cert core.Certificate) (string, error) {
	return "https://certs.local/" + cert.ID.String(), nil
}

type countingSink struct {
	mu     sync.Mutex
	counts map[string]int
}

func (s *countingSink) Record(_ context.Context, ev core.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counts == nil {
		s.counts = make(map[string]int)
	}
	s.counts[ev.Type]++
	return nil
}

func (s *countingSink) count(eventType string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[eventType]
}

func newSQLEnv(t *testing.T, policy usecase.Policy) *sqlEnv {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "store.db") +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate&_time_format=sqlite"
	sqlDB, err := stdsql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("failed opening sqlite driver: %v", err)
	}
	drv := entsql.OpenDB(dialect.SQLite, sqlDB)
	if err := db.Migrate(context.Background(), drv); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	client := db.NewClient(drv)
	t.Cleanup(func() { _ = client.Close() })

	users := db.NewUserRepository(client)
	txs := db.NewTransactionRepository(client)
	skills := db.NewSkillRepository(client)
	courses := db.NewCourseRepository(client)
	enrollments := db.NewEnrollmentRepository(client)
	certificates := db.NewCertificateRepository(client)
	events := &countingSink{}
	audit := usecase.NewAuditor(events, nil)

	clock := func() time.Time { return time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC) }

	ledger := usecase.NewLedgerService(users, txs, client, audit, policy, nil)
	ledger.WithClock(clock)
	catalog := usecase.NewCatalogService(courses, skills, client, audit)
	catalog.WithClock(clock)
	certs := usecase.NewCertificateService(enrollments, courses, certificates, staticIssuer{}, client, audit)
	certs.WithClock(clock)
	engine := usecase.NewEnrollmentService(courses, enrollments, users, ledger, certs, client, audit, policy, nil)
	engine.WithClock(clock)

	return &sqlEnv{
		events:      events,
		ledger:      ledger,
		catalog:     catalog,
		certs:       certs,
		enrollments: engine,
		analytics:   usecase.NewAnalyticsService(courses, enrollments),
	}
}

func (e *sqlEnv) account(t *testing.T, name string, balance int64) uuid.UUID {
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

func (e *sqlEnv) publishedCourse(t *testing.T, creatorID uuid.UUID, price int64, durations ...int) (*core.Course, []core.Lesson) {
	t.Helper()
	ctx := context.Background()
	skill, err := e.catalog.RegisterSkill(ctx, core.SkillDraft{OwnerID: creatorID, Name: "Go", Category: "programming"})
	if err != nil {
		t.Fatalf("RegisterSkill() error = %v", err)
	}
	course, err := e.catalog.CreateCourse(ctx, creatorID, core.CourseDraft{SkillID: skill.ID, Title: "Go on SQL", PriceCredits: price})
	if err != nil {
		t.Fatalf("CreateCourse() error = %v", err)
	}
	lessons := make([]core.Lesson, 0, len(durations))
	for _, d := range durations {
		lesson, err := e.catalog.AddLesson(ctx, course.ID, creatorID, core.LessonDraft{Title: "Lesson", Duration: d})
		if err != nil {
			t.Fatalf("AddLesson() error = %v", err)
		}
		lessons = append(lessons, *lesson)
	}
	published, err := e.catalog.Publish(ctx, course.ID, creatorID)
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	return published, lessons
}

func (e *sqlEnv) balance(t *testing.T, userID uuid.UUID) int64 {
	t.Helper()
	rec, err := e.ledger.Reconcile(context.Background(), userID)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if !rec.Consistent {
		t.Fatalf("balance %d does not match ledger sum %d", rec.Balance, rec.LedgerSum)
	}
	return rec.Balance
}

func TestSQLStore_EnrollAndComplete(t *testing.T) {
	ctx := context.Background()
	env := newSQLEnv(t, usecase.Policy{})
	creator := env.account(t, "creator", 0)
	student := env.account(t, "student", 100)
	course, lessons := env.publishedCourse(t, creator, 50, 30, 10)

	enrollment, err := env.enrollments.Enroll(ctx, core.EnrollParams{UserID: student, CourseID: course.ID, IdempotencyKey: "req-1"})
	if err != nil {
		t.Fatalf("Enroll() error = %v", err)
	}
	if got := env.balance(t, student); got != 50 {
		t.Fatalf("expected student balance 50, got %d", got)
	}
	if got := env.balance(t, creator); got != 40 {
		t.Fatalf("expected creator balance 40, got %d", got)
	}

	replayed, err := env.enrollments.Enroll(ctx, core.EnrollParams{UserID: student, CourseID: course.ID, IdempotencyKey: "req-1"})
	if err != nil {
		t.Fatalf("replayed Enroll() error = %v", err)
	}
	if replayed.ID != enrollment.ID {
		t.Fatalf("expected replay to return %s, got %s", enrollment.ID, replayed.ID)
	}
	if _, err := env.enrollments.Enroll(ctx, core.EnrollParams{UserID: student, CourseID: course.ID}); !errors.Is(err, core.ErrAlreadyEnrolled) {
		t.Fatalf("expected ErrAlreadyEnrolled, got %v", err)
	}
	if got := env.balance(t, student); got != 50 {
		t.Fatalf("expected balance unchanged at 50, got %d", got)
	}

	for i, lesson := range lessons {
		updated, err := env.enrollments.ReportLessonProgress(ctx, core.ProgressReport{
			EnrollmentID:   enrollment.ID,
			LessonID:       lesson.ID,
			TimeSpentDelta: 5,
			ActorID:        student,
		})
		if err != nil {
			t.Fatalf("ReportLessonProgress(%d) error = %v", i, err)
		}
		want := []int{50, 100}[i]
		if updated.Progress != want {
			t.Fatalf("expected progress %d, got %d", want, updated.Progress)
		}
	}
	// A repeated report only accumulates time.
	if _, err := env.enrollments.ReportLessonProgress(ctx, core.ProgressReport{
		EnrollmentID: enrollment.ID, LessonID: lessons[0].ID, TimeSpentDelta: 1, ActorID: student,
	}); err != nil {
		t.Fatalf("repeated ReportLessonProgress() error = %v", err)
	}

	user, err := env.ledger.GetUser(ctx, student)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if user.SkillPoints != 3 {
		t.Fatalf("expected 3 skill points, got %d", user.SkillPoints)
	}
	if !user.HasBadge(core.CompletionBadge(course.ID)) {
		t.Fatalf("expected completion badge, got %#v", user.Badges)
	}

	certs, err := env.certs.ListCertificates(ctx, student)
	if err != nil {
		t.Fatalf("ListCertificates() error = %v", err)
	}
	if len(certs) != 1 || certs[0].EnrollmentID != enrollment.ID {
		t.Fatalf("expected one certificate for the enrollment, got %#v", certs)
	}
	again, err := env.certs.Generate(ctx, enrollment.ID)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if again.ID != certs[0].ID {
		t.Fatalf("expected idempotent certificate %s, got %s", certs[0].ID, again.ID)
	}

	stats, err := env.analytics.CourseAnalytics(ctx, course.ID, creator)
	if err != nil {
		t.Fatalf("CourseAnalytics() error = %v", err)
	}
	if stats.TotalEnrollments != 1 || stats.CompletedEnrollments != 1 || stats.TotalRevenue != 40 {
		t.Fatalf("unexpected analytics %#v", stats)
	}
}

func TestSQLStore_InsufficientFundsRollsBack(t *testing.T) {
	ctx := context.Background()
	env := newSQLEnv(t, usecase.Policy{})
	creator := env.account(t, "creator", 0)
	student := env.account(t, "student", 49)
	course, _ := env.publishedCourse(t, creator, 50, 15)

	if _, err := env.enrollments.Enroll(ctx, core.EnrollParams{UserID: student, CourseID: course.ID}); !errors.Is(err, core.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if got := env.balance(t, student); got != 49 {
		t.Fatalf("expected balance 49, got %d", got)
	}
	if got := env.balance(t, creator); got != 0 {
		t.Fatalf("expected creator balance 0, got %d", got)
	}
	ok, err := env.enrollments.CanAccess(ctx, student, course.ID)
	if err != nil {
		t.Fatalf("CanAccess() error = %v", err)
	}
	if ok {
		t.Fatal("expected no access after failed enrollment")
	}
}

func TestSQLStore_ConcurrentEnrollSettlesOnce(t *testing.T) {
	ctx := context.Background()
	env := newSQLEnv(t, usecase.Policy{})
	creator := env.account(t, "creator", 0)
	student := env.account(t, "student", 100)
	course, _ := env.publishedCourse(t, creator, 30, 15)

	const workers = 4
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.enrollments.Enroll(ctx, core.EnrollParams{UserID: student, CourseID: course.ID})
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			if !errors.Is(err, core.ErrAlreadyEnrolled) {
				t.Errorf("unexpected Enroll() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("expected exactly one successful enrollment, got %d", successes)
	}
	if got := env.balance(t, student); got != 70 {
		t.Fatalf("expected balance 70, got %d", got)
	}
	if got := env.balance(t, creator); got != 24 {
		t.Fatalf("expected creator balance 24, got %d", got)
	}
}

func TestSQLStore_ConcurrentProgress(t *testing.T) {
	usecasetest.RunProgressConcurrency(t, func(t *testing.T) *usecasetest.Env {
		env := newSQLEnv(t, usecase.Policy{CompletionBonus: usecasetest.CompletionBonus})
		return &usecasetest.Env{
			Ledger:       env.ledger,
			Catalog:      env.catalog,
			Enrollments:  env.enrollments,
			Certificates: env.certs,
			CountEvents:  env.events.count,
		}
	})
}
