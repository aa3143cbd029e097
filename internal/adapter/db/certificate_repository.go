package db

import (
	"context"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/samber/lo"

	entgenerated "github.com/eslsoft/skillswap/internal/adapter/db/ent/generated"
	entcertificate "github.com/eslsoft/skillswap/internal/adapter/db/ent/generated/certificate"
	"github.com/eslsoft/skillswap/internal/adapter/db/ent/generated/predicate"
	"github.com/eslsoft/skillswap/internal/core"
)

// CertificateRepository persists issued certificates using Ent.
type CertificateRepository struct {
	client *Client
}

// NewCertificateRepository constructs an Ent-backed certificate repository.
func NewCertificateRepository(client *Client) *CertificateRepository {
	return &CertificateRepository{client: client}
}

var _ core.CertificateRepository = (*CertificateRepository)(nil)

// CreateCertificate inserts a certificate. A second certificate for the same
// enrollment violates the unique index and surfaces as ErrConflict.
func (r *CertificateRepository) CreateCertificate(ctx context.Context, cert core.Certificate) error {
	return exec(ctx, r.client, func(db *entgenerated.Client) error {
		return db.Certificate.Create().
			SetID(cert.ID).
			SetUserID(cert.UserID).
			SetCourseID(cert.CourseID).
			SetEnrollmentID(cert.EnrollmentID).
			SetCourseName(cert.CourseName).
			SetCompletedAt(cert.CompletedAt.UTC()).
			SetCertificateURL(cert.CertificateURL).
			SetCreatedAt(cert.CreatedAt.UTC()).
			Exec(ctx)
	})
}

// GetCertificate loads a certificate.
func (r *CertificateRepository) GetCertificate(ctx context.Context, id uuid.UUID) (*core.Certificate, error) {
	return r.findOne(ctx, entcertificate.ID(id))
}

// GetCertificateByEnrollment loads the certificate issued for an enrollment.
func (r *CertificateRepository) GetCertificateByEnrollment(ctx context.Context, enrollmentID uuid.UUID) (*core.Certificate, error) {
	return r.findOne(ctx, entcertificate.EnrollmentID(enrollmentID))
}

// ListCertificatesByUser returns the user's certificates, newest first.
func (r *CertificateRepository) ListCertificatesByUser(ctx context.Context, userID uuid.UUID) ([]core.Certificate, error) {
	rows, err := do(ctx, r.client, func(db *entgenerated.Client) ([]*entgenerated.Certificate, error) {
		return db.Certificate.Query().
			Where(entcertificate.UserID(userID)).
			Order(entcertificate.ByCreatedAt(entsql.OrderDesc()), entcertificate.ByID(entsql.OrderDesc())).
			All(ctx)
	})
	if err != nil {
		return nil, err
	}
	return lo.Map(rows, func(row *entgenerated.Certificate, _ int) core.Certificate {
		return *toDomainCertificate(row)
	}), nil
}

func (r *CertificateRepository) findOne(ctx context.Context, pred predicate.Certificate) (*core.Certificate, error) {
	return do(ctx, r.client, func(db *entgenerated.Client) (*core.Certificate, error) {
		row, err := db.Certificate.Query().Where(pred).Only(ctx)
		if entgenerated.IsNotFound(err) {
			return nil, core.ErrCertificateNotFound
		}
		if err != nil {
			return nil, err
		}
		return toDomainCertificate(row), nil
	})
}

func toDomainCertificate(row *entgenerated.Certificate) *core.Certificate {
	return &core.Certificate{
		ID:             row.ID,
		UserID:         row.UserID,
		CourseID:       row.CourseID,
		EnrollmentID:   row.EnrollmentID,
		CourseName:     row.CourseName,
		CompletedAt:    row.CompletedAt.UTC(),
		CertificateURL: row.CertificateURL,
		CreatedAt:      row.CreatedAt.UTC(),
	}
}
