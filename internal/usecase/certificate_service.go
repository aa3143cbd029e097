package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/eslsoft/skillswap/internal/core"
)

// CertificateService issues one certificate per completed enrollment,
// delegating link generation to a pluggable issuer.
type CertificateService struct {
	enrollments core.EnrollmentRepository
	courses     core.CourseRepository
	certs       core.CertificateRepository
	issuer      core.CertificateIssuer
	tx          core.Transactor
	audit       *Auditor
	now         func() time.Time
}

// NewCertificateService constructs a certificate service.
func NewCertificateService(enrollments core.EnrollmentRepository, courses core.CourseRepository, certs core.CertificateRepository, issuer core.CertificateIssuer, tx core.Transactor, audit *Auditor) *CertificateService {
	return &CertificateService{
		enrollments: enrollments,
		courses:     courses,
		certs:       certs,
		issuer:      issuer,
		tx:          tx,
		audit:       audit,
		now:         time.Now,
	}
}

// WithClock allows tests to override the clock used by the service.
func (s *CertificateService) WithClock(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

var _ core.CertificationService = (*CertificateService)(nil)

// Generate returns the enrollment's certificate, creating it on first call.
func (s *CertificateService) Generate(ctx context.Context, enrollmentID uuid.UUID) (*core.Certificate, error) {
	if enrollmentID == uuid.Nil {
		return nil, fmt.Errorf("%w: enrollment id required", core.ErrValidation)
	}

	var out *core.Certificate
	err := s.audit.run(ctx, s.tx, func(ctx context.Context) error {
		cert, err := s.issue(ctx, enrollmentID)
		out = cert
		return err
	})
	if errors.Is(err, core.ErrConflict) {
		// lost a race with a concurrent issuer outside this process
		return s.certs.GetCertificateByEnrollment(ctx, enrollmentID)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *CertificateService) issue(ctx context.Context, enrollmentID uuid.UUID) (*core.Certificate, error) {
	enrollment, err := s.enrollments.LockEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}

	existing, err := s.certs.GetCertificateByEnrollment(ctx, enrollmentID)
	switch {
	case err == nil:
		return existing, nil
	case !isNotFound(err):
		return nil, err
	}

	if enrollment.Progress < 100 {
		return nil, core.ErrCourseNotCompleted
	}
	course, err := s.courses.GetCourse(ctx, enrollment.CourseID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	completedAt := now
	if enrollment.CompletedAt != nil {
		completedAt = *enrollment.CompletedAt
	}
	cert := core.Certificate{
		ID:           uuid.New(),
		UserID:       enrollment.UserID,
		CourseID:     enrollment.CourseID,
		EnrollmentID: enrollment.ID,
		CourseName:   course.Title,
		CompletedAt:  completedAt,
		CreatedAt:    now,
	}
	url, err := s.issuer.CertificateURL(ctx, cert)
	if err != nil {
		return nil, err
	}
	cert.CertificateURL = url

	if err := s.certs.CreateCertificate(ctx, cert); err != nil {
		return nil, err
	}
	s.audit.stage(ctx, core.AuditEvent{
		Type:       core.AuditCertificateIssued,
		ActorID:    cert.UserID,
		SubjectID:  cert.ID.String(),
		Attributes: map[string]any{"enrollment_id": cert.EnrollmentID.String(), "course_id": cert.CourseID.String()},
		OccurredAt: now,
	})
	return &cert, nil
}

// GetCertificate returns a certificate by id.
func (s *CertificateService) GetCertificate(ctx context.Context, id uuid.UUID) (*core.Certificate, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: certificate id required", core.ErrValidation)
	}
	return s.certs.GetCertificate(ctx, id)
}

// ListCertificates returns the user's certificates, newest first.
func (s *CertificateService) ListCertificates(ctx context.Context, userID uuid.UUID) ([]core.Certificate, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: user id required", core.ErrValidation)
	}
	return s.certs.ListCertificatesByUser(ctx, userID)
}
