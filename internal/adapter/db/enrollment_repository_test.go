package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/eslsoft/skillswap/internal/core"
)

func newTestEnrollment(userID, courseID uuid.UUID, key string, createdAt time.Time) core.Enrollment {
	return core.Enrollment{
		ID:             uuid.Must(uuid.NewV7()),
		CourseID:       courseID,
		UserID:         userID,
		PaymentMethod:  core.PaymentCredits,
		PricePaid:      10,
		IdempotencyKey: key,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}
}

func TestEnrollmentRepository_UniqueConstraints(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	repo := NewEnrollmentRepository(client)
	users := NewUserRepository(client)
	creator := createTestUser(t, users, "creator")
	student := createTestUser(t, users, "student")
	first := seedCourse(t, client, creator, "First", 10, testNow)
	second := seedCourse(t, client, creator, "Second", 10, testNow)

	enrollment := newTestEnrollment(student, first.ID, "key-1", testNow)
	if err := repo.CreateEnrollment(ctx, enrollment); err != nil {
		t.Fatalf("CreateEnrollment() error = %v", err)
	}
	if err := repo.CreateEnrollment(ctx, newTestEnrollment(student, first.ID, "", testNow)); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate course, got %v", err)
	}
	if err := repo.CreateEnrollment(ctx, newTestEnrollment(student, second.ID, "key-1", testNow)); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("expected ErrConflict for reused key, got %v", err)
	}
	// Enrollments without a key never collide with each other.
	if err := repo.CreateEnrollment(ctx, newTestEnrollment(creator, second.ID, "", testNow)); err != nil {
		t.Fatalf("CreateEnrollment(no key) error = %v", err)
	}
	if err := repo.CreateEnrollment(ctx, newTestEnrollment(student, second.ID, "", testNow.Add(time.Minute))); err != nil {
		t.Fatalf("CreateEnrollment(no key) error = %v", err)
	}

	found, err := repo.FindEnrollmentByKey(ctx, student, "key-1")
	if err != nil {
		t.Fatalf("FindEnrollmentByKey() error = %v", err)
	}
	if found.ID != enrollment.ID || found.IdempotencyKey != "key-1" {
		t.Fatalf("unexpected enrollment %#v", found)
	}
	if _, err := repo.FindEnrollmentByKey(ctx, student, ""); !errors.Is(err, core.ErrEnrollmentNotFound) {
		t.Fatalf("expected ErrEnrollmentNotFound for empty key, got %v", err)
	}
	found, err = repo.FindEnrollment(ctx, student, first.ID)
	if err != nil || found.ID != enrollment.ID {
		t.Fatalf("FindEnrollment() = %v, %v", found, err)
	}
	if _, err := repo.FindEnrollment(ctx, creator, first.ID); !errors.Is(err, core.ErrEnrollmentNotFound) {
		t.Fatalf("expected ErrEnrollmentNotFound, got %v", err)
	}

	locked, err := repo.LockEnrollment(ctx, enrollment.ID)
	if err != nil || locked.ID != enrollment.ID {
		t.Fatalf("LockEnrollment() = %v, %v", locked, err)
	}

	byUser, err := repo.ListEnrollmentsByUser(ctx, student)
	if err != nil {
		t.Fatalf("ListEnrollmentsByUser() error = %v", err)
	}
	if len(byUser) != 2 || byUser[0].CourseID != second.ID {
		t.Fatalf("expected newest enrollment first, got %#v", byUser)
	}
	byCourse, err := repo.ListEnrollmentsByCourse(ctx, second.ID)
	if err != nil {
		t.Fatalf("ListEnrollmentsByCourse() error = %v", err)
	}
	if len(byCourse) != 2 || byCourse[0].UserID != creator {
		t.Fatalf("expected oldest enrollment first, got %#v", byCourse)
	}
}

func TestEnrollmentRepository_ProgressIsMonotonic(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	repo := NewEnrollmentRepository(client)
	users := NewUserRepository(client)
	creator := createTestUser(t, users, "creator")
	student := createTestUser(t, users, "student")
	course := seedCourse(t, client, creator, "Course", 0, testNow)

	enrollment := newTestEnrollment(student, course.ID, "", testNow)
	if err := repo.CreateEnrollment(ctx, enrollment); err != nil {
		t.Fatalf("CreateEnrollment() error = %v", err)
	}

	if err := repo.UpdateEnrollmentProgress(ctx, enrollment.ID, 66, nil, testNow); err != nil {
		t.Fatalf("UpdateEnrollmentProgress(66) error = %v", err)
	}
	if err := repo.UpdateEnrollmentProgress(ctx, enrollment.ID, 33, nil, testNow); err != nil {
		t.Fatalf("UpdateEnrollmentProgress(33) error = %v", err)
	}
	completedAt := testNow.Add(time.Hour)
	if err := repo.UpdateEnrollmentProgress(ctx, enrollment.ID, 100, &completedAt, completedAt); err != nil {
		t.Fatalf("UpdateEnrollmentProgress(100) error = %v", err)
	}
	later := completedAt.Add(time.Hour)
	if err := repo.UpdateEnrollmentProgress(ctx, enrollment.ID, 100, &later, later); err != nil {
		t.Fatalf("UpdateEnrollmentProgress(repeat) error = %v", err)
	}

	got, err := repo.GetEnrollment(ctx, enrollment.ID)
	if err != nil {
		t.Fatalf("GetEnrollment() error = %v", err)
	}
	if got.Progress != 100 {
		t.Fatalf("expected progress 100, got %d", got.Progress)
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(completedAt) {
		t.Fatalf("expected first completion time %v, got %v", completedAt, got.CompletedAt)
	}
	if !got.UpdatedAt.Equal(later) {
		t.Fatalf("expected updated at %v, got %v", later, got.UpdatedAt)
	}

	if err := repo.UpdateEnrollmentProgress(ctx, uuid.New(), 10, nil, testNow); !errors.Is(err, core.ErrEnrollmentNotFound) {
		t.Fatalf("expected ErrEnrollmentNotFound, got %v", err)
	}
}

func TestEnrollmentRepository_LessonProgress(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	repo := NewEnrollmentRepository(client)
	users := NewUserRepository(client)
	creator := createTestUser(t, users, "creator")
	alice := createTestUser(t, users, "alice")
	bob := createTestUser(t, users, "bob")
	course := seedCourse(t, client, creator, "Course", 0, testNow)
	otherCourse := seedCourse(t, client, creator, "Other", 0, testNow)
	lessonID := uuid.New()

	aliceEnrollment := newTestEnrollment(alice, course.ID, "", testNow)
	bobEnrollment := newTestEnrollment(bob, course.ID, "", testNow)
	otherEnrollment := newTestEnrollment(alice, otherCourse.ID, "", testNow)
	for _, e := range []core.Enrollment{aliceEnrollment, bobEnrollment, otherEnrollment} {
		if err := repo.CreateEnrollment(ctx, e); err != nil {
			t.Fatalf("CreateEnrollment() error = %v", err)
		}
	}

	if _, err := repo.GetLessonProgress(ctx, aliceEnrollment.ID, lessonID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	progress := core.LessonProgress{
		ID:           uuid.Must(uuid.NewV7()),
		EnrollmentID: aliceEnrollment.ID,
		LessonID:     lessonID,
		TimeSpent:    5,
		CreatedAt:    testNow,
		UpdatedAt:    testNow,
	}
	if err := repo.CreateLessonProgress(ctx, progress); err != nil {
		t.Fatalf("CreateLessonProgress() error = %v", err)
	}
	dup := progress
	dup.ID = uuid.Must(uuid.NewV7())
	if err := repo.CreateLessonProgress(ctx, dup); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate lesson progress, got %v", err)
	}

	completedAt := testNow.Add(time.Minute)
	progress.Completed = true
	progress.CompletedAt = &completedAt
	progress.TimeSpent = 12
	progress.UpdatedAt = completedAt
	if err := repo.UpdateLessonProgress(ctx, progress); err != nil {
		t.Fatalf("UpdateLessonProgress() error = %v", err)
	}
	got, err := repo.GetLessonProgress(ctx, aliceEnrollment.ID, lessonID)
	if err != nil {
		t.Fatalf("GetLessonProgress() error = %v", err)
	}
	if !got.Completed || got.TimeSpent != 12 || got.CompletedAt == nil || !got.CompletedAt.Equal(completedAt) {
		t.Fatalf("unexpected progress %#v", got)
	}

	for _, e := range []core.Enrollment{bobEnrollment, otherEnrollment} {
		if err := repo.CreateLessonProgress(ctx, core.LessonProgress{
			ID: uuid.Must(uuid.NewV7()), EnrollmentID: e.ID, LessonID: lessonID, CreatedAt: testNow, UpdatedAt: testNow,
		}); err != nil {
			t.Fatalf("CreateLessonProgress() error = %v", err)
		}
	}

	rows, err := repo.ListLessonProgress(ctx, aliceEnrollment.ID)
	if err != nil {
		t.Fatalf("ListLessonProgress() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row for alice, got %d", len(rows))
	}
	rows, err = repo.ListCourseLessonProgress(ctx, course.ID)
	if err != nil {
		t.Fatalf("ListCourseLessonProgress() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows across the course, got %d", len(rows))
	}

	missing := progress
	missing.ID = uuid.New()
	if err := repo.UpdateLessonProgress(ctx, missing); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}
}

func TestCertificateRepository(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	repo := NewCertificateRepository(client)
	userID := uuid.New()
	enrollmentID := uuid.New()

	cert := core.Certificate{
		ID:             uuid.Must(uuid.NewV7()),
		UserID:         userID,
		CourseID:       uuid.New(),
		EnrollmentID:   enrollmentID,
		CourseName:     "Intro",
		CompletedAt:    testNow,
		CertificateURL: "https://certs.local/1",
		CreatedAt:      testNow,
	}
	if err := repo.CreateCertificate(ctx, cert); err != nil {
		t.Fatalf("CreateCertificate() error = %v", err)
	}
	dup := cert
	dup.ID = uuid.Must(uuid.NewV7())
	if err := repo.CreateCertificate(ctx, dup); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	later := cert
	later.ID = uuid.Must(uuid.NewV7())
	later.EnrollmentID = uuid.New()
	later.CreatedAt = testNow.Add(time.Hour)
	if err := repo.CreateCertificate(ctx, later); err != nil {
		t.Fatalf("CreateCertificate() error = %v", err)
	}

	got, err := repo.GetCertificateByEnrollment(ctx, enrollmentID)
	if err != nil {
		t.Fatalf("GetCertificateByEnrollment() error = %v", err)
	}
	if got.ID != cert.ID || got.CourseName != "Intro" || !got.CompletedAt.Equal(testNow) {
		t.Fatalf("unexpected certificate %#v", got)
	}
	if _, err := repo.GetCertificate(ctx, uuid.New()); !errors.Is(err, core.ErrCertificateNotFound) {
		t.Fatalf("expected ErrCertificateNotFound, got %v", err)
	}

	list, err := repo.ListCertificatesByUser(ctx, userID)
	if err != nil {
		t.Fatalf("ListCertificatesByUser() error = %v", err)
	}
	if len(list) != 2 || list[0].ID != later.ID {
		t.Fatalf("expected newest certificate first, got %#v", list)
	}
}
