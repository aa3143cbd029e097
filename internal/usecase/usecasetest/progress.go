// Package usecasetest holds storage-agnostic scenarios shared by the memory
// and SQL test suites.
package usecasetest

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/eslsoft/skillswap/internal/core"
)

// CompletionBonus is the bonus the Env factory must configure.
const CompletionBonus = 5

// Env is a fully wired service stack over one storage backend.
type Env struct {
	Ledger       core.LedgerService
	Catalog      core.CatalogService
	Enrollments  core.EnrollmentService
	Certificates core.CertificationService
	// CountEvents reports how many audit events of a type were delivered.
	CountEvents func(eventType string) int
}

// RunProgressConcurrency runs the concurrent progress scenarios against
// envs built by newEnv.
func RunProgressConcurrency(t *testing.T, newEnv func(t *testing.T) *Env) {
	t.Run("SameLessonRewardsOnce", func(t *testing.T) { sameLessonRewardsOnce(t, newEnv(t)) })
	t.Run("DistinctLessonsReachCompletion", func(t *testing.T) { distinctLessonsReachCompletion(t, newEnv(t)) })
	t.Run("RandomReportsStayMonotonic", func(t *testing.T) { randomReportsStayMonotonic(t, newEnv(t)) })
}

func sameLessonRewardsOnce(t *testing.T, env *Env) {
	ctx := context.Background()
	creator := env.account(t, "creator", 0)
	student := env.account(t, "student", 100)
	course, lessons := env.course(t, creator, 10, 30)
	enrollment := env.enroll(t, student, course.ID)

	const workers = 16
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func(delta int) {
			defer wg.Done()
			got, err := env.Enrollments.ReportLessonProgress(ctx, core.ProgressReport{
				EnrollmentID:   enrollment.ID,
				LessonID:       lessons[0].ID,
				TimeSpentDelta: delta,
				ActorID:        student,
			})
			if err != nil {
				t.Errorf("ReportLessonProgress() error = %v", err)
				return
			}
			if got.Progress != 100 || got.CompletedAt == nil {
				t.Errorf("expected completed enrollment, got progress %d", got.Progress)
			}
		}(i + 1)
	}
	wg.Wait()

	detail := env.detail(t, enrollment.ID, student)
	if want := workers * (workers + 1) / 2; detail.Lessons[0].TimeSpent != want {
		t.Fatalf("time spent = %d, want %d", detail.Lessons[0].TimeSpent, want)
	}
	if detail.Enrollment.Progress != 100 || detail.Enrollment.CompletedAt == nil {
		t.Fatalf("expected completed enrollment, got %+v", detail.Enrollment)
	}

	user := env.user(t, student)
	if want := core.LessonSkillPoints(30); user.SkillPoints != want {
		t.Fatalf("skill points = %d, want %d", user.SkillPoints, want)
	}
	if n := lo.Count(user.Badges, core.CompletionBadge(course.ID)); n != 1 {
		t.Fatalf("completion badge held %d times: %v", n, user.Badges)
	}
	if got, want := env.balance(t, student), int64(100-10+CompletionBonus); got != want {
		t.Fatalf("balance = %d, want %d", got, want)
	}
	env.assertCertificates(t, student, 1)
	env.assertEvents(t, map[string]int{
		core.AuditLessonCompleted:     1,
		core.AuditEnrollmentCompleted: 1,
		core.AuditCertificateIssued:   1,
	})
	env.assertConsistent(t, student, creator)
}

func distinctLessonsReachCompletion(t *testing.T, env *Env) {
	ctx := context.Background()
	creator := env.account(t, "creator", 0)
	student := env.account(t, "student", 0)
	durations := []int{10, 15, 20, 30, 45, 60, 5, 90}
	course, lessons := env.course(t, creator, 0, durations...)
	enrollment := env.enroll(t, student, course.ID)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		observed []int
	)
	for _, lesson := range lessons {
		wg.Add(1)
		go func(lessonID uuid.UUID) {
			defer wg.Done()
			got, err := env.Enrollments.ReportLessonProgress(ctx, core.ProgressReport{
				EnrollmentID:   enrollment.ID,
				LessonID:       lessonID,
				TimeSpentDelta: 5,
				ActorID:        student,
			})
			if err != nil {
				t.Errorf("ReportLessonProgress() error = %v", err)
				return
			}
			mu.Lock()
			observed = append(observed, got.Progress)
			mu.Unlock()
		}(lesson.ID)
	}
	wg.Wait()

	// Reports on one enrollment serialise, so each sees one more lesson done.
	want := make([]int, 0, len(lessons))
	for k := 1; k <= len(lessons); k++ {
		want = append(want, core.ProgressPercent(k, len(lessons)))
	}
	slices.Sort(observed)
	if !slices.Equal(observed, want) {
		t.Fatalf("observed progress %v, want %v", observed, want)
	}

	detail := env.detail(t, enrollment.ID, student)
	if detail.Enrollment.Progress != 100 || detail.Enrollment.CompletedAt == nil {
		t.Fatalf("expected completed enrollment, got %+v", detail.Enrollment)
	}
	if len(detail.Lessons) != len(lessons) {
		t.Fatalf("lesson progress rows = %d, want %d", len(detail.Lessons), len(lessons))
	}
	for _, p := range detail.Lessons {
		if !p.Completed || p.TimeSpent != 5 {
			t.Fatalf("unexpected lesson progress %+v", p)
		}
	}

	var points int64
	for _, d := range durations {
		points += core.LessonSkillPoints(d)
	}
	if got := env.user(t, student).SkillPoints; got != points {
		t.Fatalf("skill points = %d, want %d", got, points)
	}
	if got := env.balance(t, student); got != CompletionBonus {
		t.Fatalf("balance = %d, want %d", got, CompletionBonus)
	}
	env.assertCertificates(t, student, 1)
	env.assertEvents(t, map[string]int{
		core.AuditLessonCompleted:     len(lessons),
		core.AuditEnrollmentCompleted: 1,
		core.AuditCertificateIssued:   1,
	})
	env.assertConsistent(t, student, creator)
}

type report struct {
	lesson int
	delta  int
}

func randomReportsStayMonotonic(t *testing.T, env *Env) {
	ctx := context.Background()
	creator := env.account(t, "creator", 0)
	course, lessons := env.course(t, creator, 20, 15, 30, 45, 60)

	const (
		students          = 4
		workersPerStudent = 3
		reportsPerWorker  = 10
	)
	rng := rand.New(rand.NewPCG(20240304, 42))

	type plan struct {
		student    uuid.UUID
		enrollment uuid.UUID
		workers    [][]report
	}
	plans := make([]plan, students)
	for i := range plans {
		student := env.account(t, fmt.Sprintf("student-%d", i), 50)
		plans[i] = plan{student: student, enrollment: env.enroll(t, student, course.ID).ID}
		for range workersPerStudent {
			seq := make([]report, reportsPerWorker)
			for j := range seq {
				seq[j] = report{lesson: rng.IntN(len(lessons)), delta: rng.IntN(11)}
			}
			plans[i].workers = append(plans[i].workers, seq)
		}
	}

	var wg sync.WaitGroup
	for _, p := range plans {
		for _, seq := range p.workers {
			wg.Add(1)
			go func(p plan, seq []report) {
				defer wg.Done()
				last := 0
				for _, r := range seq {
					got, err := env.Enrollments.ReportLessonProgress(ctx, core.ProgressReport{
						EnrollmentID:   p.enrollment,
						LessonID:       lessons[r.lesson].ID,
						TimeSpentDelta: r.delta,
						ActorID:        p.student,
					})
					if err != nil {
						t.Errorf("ReportLessonProgress() error = %v", err)
						return
					}
					if got.Progress < last {
						t.Errorf("progress went from %d to %d", last, got.Progress)
						return
					}
					last = got.Progress
				}
			}(p, seq)
		}
	}
	wg.Wait()
	if t.Failed() {
		t.FailNow()
	}

	completed, lessonsDone := 0, 0
	for _, p := range plans {
		spent := make(map[uuid.UUID]int)
		var points int64
		for _, seq := range p.workers {
			for _, r := range seq {
				id := lessons[r.lesson].ID
				if _, seen := spent[id]; !seen {
					points += core.LessonSkillPoints(lessons[r.lesson].Duration)
				}
				spent[id] += r.delta
			}
		}

		detail := env.detail(t, p.enrollment, p.student)
		if want := core.ProgressPercent(len(spent), len(lessons)); detail.Enrollment.Progress != want {
			t.Fatalf("progress = %d, want %d", detail.Enrollment.Progress, want)
		}
		if len(detail.Lessons) != len(spent) {
			t.Fatalf("lesson progress rows = %d, want %d", len(detail.Lessons), len(spent))
		}
		for _, lp := range detail.Lessons {
			want, touched := spent[lp.LessonID]
			if lp.Completed != touched || lp.TimeSpent != want {
				t.Fatalf("lesson %s: completed=%v time=%d, want %v/%d", lp.LessonID, lp.Completed, lp.TimeSpent, touched, want)
			}
		}
		if got := env.user(t, p.student).SkillPoints; got != points {
			t.Fatalf("skill points = %d, want %d", got, points)
		}
		lessonsDone += len(spent)

		balance := int64(50 - 20)
		if len(spent) == len(lessons) {
			completed++
			balance += CompletionBonus
			if detail.Enrollment.CompletedAt == nil {
				t.Fatal("expected completion timestamp")
			}
		}
		if got := env.balance(t, p.student); got != balance {
			t.Fatalf("balance = %d, want %d", got, balance)
		}
	}
	env.assertEvents(t, map[string]int{
		core.AuditLessonCompleted:     lessonsDone,
		core.AuditEnrollmentCompleted: completed,
		core.AuditCertificateIssued:   completed,
	})
	env.assertConsistent(t, append(lo.Map(plans, func(p plan, _ int) uuid.UUID { return p.student }), creator)...)
}

func (e *Env) account(t *testing.T, name string, balance int64) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	user, err := e.Ledger.OpenAccount(ctx, name)
	if err != nil {
		t.Fatalf("OpenAccount() error = %v", err)
	}
	if balance > 0 {
		if _, err := e.Ledger.Credit(ctx, core.CreditParams{UserID: user.ID, Amount: balance, Type: core.TransactionPurchased}); err != nil {
			t.Fatalf("Credit() error = %v", err)
		}
	}
	return user.ID
}

func (e *Env) course(t *testing.T, creatorID uuid.UUID, price int64, durations ...int) (*core.Course, []core.Lesson) {
	t.Helper()
	ctx := context.Background()
	skill, err := e.Catalog.RegisterSkill(ctx, core.SkillDraft{OwnerID: creatorID, Name: "Go", Category: "programming"})
	if err != nil {
		t.Fatalf("RegisterSkill() error = %v", err)
	}
	course, err := e.Catalog.CreateCourse(ctx, creatorID, core.CourseDraft{SkillID: skill.ID, Title: "Concurrent Go", PriceCredits: price})
	if err != nil {
		t.Fatalf("CreateCourse() error = %v", err)
	}
	lessons := make([]core.Lesson, 0, len(durations))
	for i, d := range durations {
		lesson, err := e.Catalog.AddLesson(ctx, course.ID, creatorID, core.LessonDraft{Title: fmt.Sprintf("Lesson %d", i+1), Duration: d, OrderIndex: i})
		if err != nil {
			t.Fatalf("AddLesson() error = %v", err)
		}
		lessons = append(lessons, *lesson)
	}
	published, err := e.Catalog.Publish(ctx, course.ID, creatorID)
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	return published, lessons
}

func (e *Env) enroll(t *testing.T, studentID, courseID uuid.UUID) *core.Enrollment {
	t.Helper()
	enrollment, err := e.Enrollments.Enroll(context.Background(), core.EnrollParams{UserID: studentID, CourseID: courseID})
	if err != nil {
		t.Fatalf("Enroll() error = %v", err)
	}
	return enrollment
}

func (e *Env) detail(t *testing.T, enrollmentID, actorID uuid.UUID) *core.EnrollmentDetail {
	t.Helper()
	detail, err := e.Enrollments.GetEnrollment(context.Background(), enrollmentID, actorID)
	if err != nil {
		t.Fatalf("GetEnrollment() error = %v", err)
	}
	return detail
}

func (e *Env) user(t *testing.T, id uuid.UUID) *core.User {
	t.Helper()
	user, err := e.Ledger.GetUser(context.Background(), id)
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	return user
}

func (e *Env) balance(t *testing.T, id uuid.UUID) int64 {
	t.Helper()
	balance, err := e.Ledger.GetBalance(context.Background(), id)
	if err != nil {
		t.Fatalf("GetBalance() error = %v", err)
	}
	return balance
}

func (e *Env) assertCertificates(t *testing.T, userID uuid.UUID, want int) {
	t.Helper()
	certs, err := e.Certificates.ListCertificates(context.Background(), userID)
	if err != nil {
		t.Fatalf("ListCertificates() error = %v", err)
	}
	if len(certs) != want {
		t.Fatalf("certificates = %d, want %d", len(certs), want)
	}
}

func (e *Env) assertEvents(t *testing.T, want map[string]int) {
	t.Helper()
	for eventType, n := range want {
		if got := e.CountEvents(eventType); got != n {
			t.Fatalf("%s events = %d, want %d", eventType, got, n)
		}
	}
}

func (e *Env) assertConsistent(t *testing.T, userIDs ...uuid.UUID) {
	t.Helper()
	for _, id := range userIDs {
		rec, err := e.Ledger.Reconcile(context.Background(), id)
		if err != nil {
			t.Fatalf("Reconcile() error = %v", err)
		}
		if !rec.Consistent {
			t.Fatalf("balance %d does not match ledger sum %d for %s", rec.Balance, rec.LedgerSum, id)
		}
	}
}
