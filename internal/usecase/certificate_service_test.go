package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/eslsoft/skillswap/internal/core"
)

func TestCertificateService_GenerateRequiresCompletion(t *testing.T) {
	env := newTestEnv(t, Policy{})
	ctx := context.Background()
	creator := env.account(t, "creator", 0)
	student := env.account(t, "student", 0)
	course, _ := env.publishedCourse(t, creator, 0, 10, 10)

	enrollment, err := env.enrollments.Enroll(ctx, core.EnrollParams{UserID: student, CourseID: course.ID})
	if err != nil {
		t.Fatalf("Enroll() error = %v", err)
	}

	if _, err := env.certs.Generate(ctx, enrollment.ID); !errors.Is(err, core.ErrCourseNotCompleted) {
		t.Fatalf("expected ErrCourseNotCompleted, got %v", err)
	}
	if _, err := env.certs.Generate(ctx, uuid.New()); !errors.Is(err, core.ErrEnrollmentNotFound) {
		t.Fatalf("expected ErrEnrollmentNotFound, got %v", err)
	}
	if _, err := env.certs.Generate(ctx, uuid.Nil); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if n := env.sink.count(core.AuditCertificateIssued); n != 0 {
		t.Fatalf("expected no certificate events, got %d", n)
	}
}

func TestCertificateService_GenerateIsIdempotent(t *testing.T) {
	env := newTestEnv(t, Policy{})
	ctx := context.Background()
	creator := env.account(t, "creator", 0)
	student := env.account(t, "student", 0)
	course, lessons := env.publishedCourse(t, creator, 0, 10)

	enrollment, err := env.enrollments.Enroll(ctx, core.EnrollParams{UserID: student, CourseID: course.ID})
	if err != nil {
		t.Fatalf("Enroll() error = %v", err)
	}
	completed, err := env.enrollments.ReportLessonProgress(ctx, core.ProgressReport{EnrollmentID: enrollment.ID, LessonID: lessons[0].ID})
	if err != nil {
		t.Fatalf("ReportLessonProgress() error = %v", err)
	}

	issued, err := env.store.GetCertificateByEnrollment(ctx, enrollment.ID)
	if err != nil {
		t.Fatalf("GetCertificateByEnrollment() error = %v", err)
	}
	if !issued.CompletedAt.Equal(*completed.CompletedAt) {
		t.Fatalf("expected certificate completion %v, got %v", completed.CompletedAt, issued.CompletedAt)
	}

	var wg sync.WaitGroup
	ids := make([]uuid.UUID, 8)
	for i := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cert, err := env.certs.Generate(ctx, enrollment.ID)
			if err != nil {
				t.Errorf("Generate() error = %v", err)
				return
			}
			ids[i] = cert.ID
		}()
	}
	wg.Wait()

	for _, id := range ids {
		if id != issued.ID {
			t.Fatalf("expected every call to return %v, got %v", issued.ID, id)
		}
	}
	if n := env.sink.count(core.AuditCertificateIssued); n != 1 {
		t.Fatalf("expected a single issue event, got %d", n)
	}
}

func TestCertificateService_Lookups(t *testing.T) {
	env := newTestEnv(t, Policy{})
	ctx := context.Background()
	creator := env.account(t, "creator", 0)
	student := env.account(t, "student", 0)
	course, lessons := env.publishedCourse(t, creator, 0, 10)

	enrollment, _ := env.enrollments.Enroll(ctx, core.EnrollParams{UserID: student, CourseID: course.ID})
	if _, err := env.enrollments.ReportLessonProgress(ctx, core.ProgressReport{EnrollmentID: enrollment.ID, LessonID: lessons[0].ID}); err != nil {
		t.Fatalf("ReportLessonProgress() error = %v", err)
	}

	list, err := env.certs.ListCertificates(ctx, student)
	if err != nil {
		t.Fatalf("ListCertificates() error = %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected one certificate, got %d", len(list))
	}
	got, err := env.certs.GetCertificate(ctx, list[0].ID)
	if err != nil {
		t.Fatalf("GetCertificate() error = %v", err)
	}
	if got.EnrollmentID != enrollment.ID {
		t.Fatalf("unexpected enrollment %v", got.EnrollmentID)
	}
	if _, err := env.certs.GetCertificate(ctx, uuid.New()); !errors.Is(err, core.ErrCertificateNotFound) {
		t.Fatalf("expected ErrCertificateNotFound, got %v", err)
	}
}
