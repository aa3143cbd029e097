package usecase

import (
	"testing"

	"github.com/eslsoft/skillswap/internal/usecase/usecasetest"
)

func TestEnrollmentService_ConcurrentProgress(t *testing.T) {
	usecasetest.RunProgressConcurrency(t, func(t *testing.T) *usecasetest.Env {
		env := newTestEnv(t, Policy{CompletionBonus: usecasetest.CompletionBonus})
		return &usecasetest.Env{
			Ledger:       env.ledger,
			Catalog:      env.catalog,
			Enrollments:  env.enrollments,
			Certificates: env.certs,
			CountEvents:  env.sink.count,
		}
	})
}
