package server

import (
	"context"
	stdsql "database/sql"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/eslsoft/skillswap/internal/adapter/db"
	"github.com/eslsoft/skillswap/internal/adapter/memory"
	"github.com/eslsoft/skillswap/internal/config"
	"github.com/eslsoft/skillswap/internal/core"
	"github.com/eslsoft/skillswap/internal/platform/logger"
)

// Store bundles the repositories and unit-of-work runner of one backend.
type Store struct {
	Users        core.UserRepository
	Transactions core.CreditTransactionRepository
	Skills       core.SkillRepository
	Courses      core.CourseRepository
	Enrollments  core.EnrollmentRepository
	Certificates core.CertificateRepository
	Tx           core.Transactor
}

// OpenDriver opens the SQL backend selected by DB_DRIVER.
func OpenDriver(cfg config.Config) (*entsql.Driver, error) {
	var name, dialectName string
	switch cfg.DBDriver {
	case config.DriverPostgres:
		name, dialectName = "postgres", dialect.Postgres
	case config.DriverSQLite:
		name, dialectName = "sqlite", dialect.SQLite
	default:
		return nil, fmt.Errorf("driver %q has no SQL backend", cfg.DBDriver)
	}
	sqlDB, err := stdsql.Open(name, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return entsql.OpenDB(dialectName, sqlDB), nil
}

// NewStore opens the configured backend and runs migrations.
func NewStore(cfg config.Config, log *logger.Logger) (*Store, func(), error) {
	if cfg.DBDriver == config.DriverMemory {
		log.Warn("using in-memory store; data is lost on restart")
		s := memory.NewStore()
		return &Store{
			Users:        s,
			Transactions: s,
			Skills:       s,
			Courses:      s,
			Enrollments:  s,
			Certificates: s,
			Tx:           s,
		}, func() {}, nil
	}

	drv, err := OpenDriver(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(context.Background(), drv); err != nil {
		_ = drv.Close()
		return nil, nil, err
	}

	client := db.NewClient(drv, db.WithMaxRetries(cfg.DBMaxRetries), db.WithLogger(log))
	cleanup := func() {
		if err := client.Close(); err != nil {
			log.Warn("close database", "error", err)
		}
	}
	return &Store{
		Users:        db.NewUserRepository(client),
		Transactions: db.NewTransactionRepository(client),
		Skills:       db.NewSkillRepository(client),
		Courses:      db.NewCourseRepository(client),
		Enrollments:  db.NewEnrollmentRepository(client),
		Certificates: db.NewCertificateRepository(client),
		Tx:           client,
	}, cleanup, nil
}
