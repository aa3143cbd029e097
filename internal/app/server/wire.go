//go:build wireinject

package server

import (
	"github.com/google/wire"

	"github.com/eslsoft/skillswap/internal/adapter/certificate"
	adaptertransport "github.com/eslsoft/skillswap/internal/adapter/transport"
	"github.com/eslsoft/skillswap/internal/core"
	"github.com/eslsoft/skillswap/internal/usecase"
)

// InitializeServer sets up the full HTTP server with all dependencies wired.
func InitializeServer() (*Server, func(), error) {
	wire.Build(
		NewConfig,
		NewLogger,
		NewStore,
		wire.FieldsOf(new(*Store), "Users", "Transactions", "Skills", "Courses", "Enrollments", "Certificates", "Tx"),
		NewAuditSink,
		usecase.NewAuditor,
		NewPolicy,
		NewCertificateIssuer,
		wire.Bind(new(core.CertificateIssuer), new(*certificate.Issuer)),
		wire.Bind(new(core.LedgerService), new(*usecase.LedgerService)),
		usecase.NewLedgerService,
		wire.Bind(new(core.CatalogService), new(*usecase.CatalogService)),
		usecase.NewCatalogService,
		wire.Bind(new(core.CertificationService), new(*usecase.CertificateService)),
		usecase.NewCertificateService,
		wire.Bind(new(core.EnrollmentService), new(*usecase.EnrollmentService)),
		usecase.NewEnrollmentService,
		wire.Bind(new(core.AnalyticsService), new(*usecase.AnalyticsService)),
		usecase.NewAnalyticsService,
		adaptertransport.NewCreditHandler,
		adaptertransport.NewCatalogHandler,
		adaptertransport.NewEnrollmentHandler,
		adaptertransport.NewCertificateHandler,
		adaptertransport.NewAnalyticsHandler,
		wire.Struct(new(Handlers), "*"),
		NewProtoValidator,
		NewHandlerOptions,
		NewHTTPHandler,
		NewServer,
	)
	return nil, nil, nil
}
