package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Certificate is issued once per completed enrollment.
type Certificate struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	CourseID       uuid.UUID
	EnrollmentID   uuid.UUID
	CourseName     string
	CompletedAt    time.Time
	CertificateURL string
	CreatedAt      time.Time
}

// CertificateRepository defines persistence for certificates.
type CertificateRepository interface {
	// CreateCertificate returns ErrConflict when the enrollment already has one.
	CreateCertificate(ctx context.Context, cert Certificate) error
	GetCertificate(ctx context.Context, id uuid.UUID) (*Certificate, error)
	GetCertificateByEnrollment(ctx context.Context, enrollmentID uuid.UUID) (*Certificate, error)
	ListCertificatesByUser(ctx context.Context, userID uuid.UUID) ([]Certificate, error)
}

// CertificateIssuer produces the public link for a certificate.
type CertificateIssuer interface {
	CertificateURL(ctx context.Context, cert Certificate) (string, error)
}

// CertificationService exposes certificate use cases.
type CertificationService interface {
	Generate(ctx context.Context, enrollmentID uuid.UUID) (*Certificate, error)
	GetCertificate(ctx context.Context, id uuid.UUID) (*Certificate, error)
	ListCertificates(ctx context.Context, userID uuid.UUID) ([]Certificate, error)
}
