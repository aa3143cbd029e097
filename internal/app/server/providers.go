package server

import (
	"context"
	"time"

	protovalidate "buf.build/go/protovalidate"
	"connectrpc.com/connect"

	"github.com/eslsoft/skillswap/internal/adapter/audit"
	"github.com/eslsoft/skillswap/internal/adapter/certificate"
	"github.com/eslsoft/skillswap/internal/adapter/transport"
	"github.com/eslsoft/skillswap/internal/config"
	"github.com/eslsoft/skillswap/internal/core"
	"github.com/eslsoft/skillswap/internal/platform/logger"
	"github.com/eslsoft/skillswap/internal/usecase"
)

// NewConfig loads the runtime configuration for dependency injection.
func NewConfig() (config.Config, error) {
	return config.Load()
}

// NewLogger builds the process logger; the cleanup flushes buffered entries.
func NewLogger(cfg config.Config) (*logger.Logger, func(), error) {
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, nil, err
	}
	return log, log.Sync, nil
}

// NewPolicy maps configured bonuses onto the credit rules.
func NewPolicy(cfg config.Config) usecase.Policy {
	return usecase.Policy{
		SignupBonus:     cfg.SignupBonusCredits,
		CompletionBonus: cfg.CompletionBonusCredits,
	}
}

// NewAuditSink always logs audit events and additionally publishes them to
// Redis when REDIS_ADDR is set.
func NewAuditSink(cfg config.Config, log *logger.Logger) (core.AuditSink, func(), error) {
	sinks := audit.Multi{audit.NewLogSink(log)}
	if cfg.RedisAddr == "" {
		return sinks, func() {}, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	redisSink, err := audit.NewRedisSink(ctx, cfg.RedisAddr, cfg.RedisAuditChannel, log)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := redisSink.Close(); err != nil {
			log.Warn("close audit redis", "error", err)
		}
	}
	return append(sinks, redisSink), cleanup, nil
}

// NewCertificateIssuer builds the link issuer from CERTIFICATE_BASE_URL.
func NewCertificateIssuer(cfg config.Config) (*certificate.Issuer, error) {
	return certificate.NewIssuer(cfg.CertificateBaseURL)
}

// NewProtoValidator constructs a protovalidate Validator for request validation.
func NewProtoValidator() (protovalidate.Validator, error) {
	return protovalidate.New()
}

// NewHandlerOptions assembles the interceptor chain shared by all services.
func NewHandlerOptions(log *logger.Logger, validator protovalidate.Validator) []connect.HandlerOption {
	return transport.HandlerOptions(
		transport.NewErrorInterceptor(log),
		transport.NewActorInterceptor(),
		transport.NewValidationInterceptor(validator),
	)
}
