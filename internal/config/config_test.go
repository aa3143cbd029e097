package config

import (
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/skillswap")
	for _, key := range []string{"HTTP_ADDRESS", "DB_DRIVER", "DB_MAX_RETRIES", "LOG_MODE", "REDIS_ADDR", "REDIS_AUDIT_CHANNEL", "CERTIFICATE_BASE_URL", "SIGNUP_BONUS_CREDITS", "COMPLETION_BONUS_CREDITS"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTPAddress != ":8080" || cfg.DBDriver != DriverPostgres || cfg.DBMaxRetries != 3 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.LogMode != "dev" || cfg.RedisAddr != "" || cfg.RedisAuditChannel != "audit" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.CertificateBaseURL != "https://certificates.local" || cfg.SignupBonusCredits != 0 || cfg.CompletionBonusCredits != 0 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HTTP_ADDRESS", ":9090")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DATABASE_URL", "file:skillswap.db")
	t.Setenv("DB_MAX_RETRIES", "5")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("SIGNUP_BONUS_CREDITS", "100")
	t.Setenv("COMPLETION_BONUS_CREDITS", "25")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTPAddress != ":9090" || cfg.DBDriver != DriverSQLite || cfg.DBMaxRetries != 5 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.RedisAddr != "localhost:6379" || cfg.SignupBonusCredits != 100 || cfg.CompletionBonusCredits != 25 {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoad_MemoryNeedsNoDatabaseURL(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing url", map[string]string{"DB_DRIVER": "postgres", "DATABASE_URL": ""}, "DATABASE_URL"},
		{"unknown driver", map[string]string{"DB_DRIVER": "mongo", "DATABASE_URL": "x"}, "DB_DRIVER"},
		{"bad retries", map[string]string{"DB_DRIVER": "memory", "DB_MAX_RETRIES": "many"}, "DB_MAX_RETRIES"},
		{"negative bonus", map[string]string{"DB_DRIVER": "memory", "SIGNUP_BONUS_CREDITS": "-5"}, "SIGNUP_BONUS_CREDITS"},
		{"bad completion bonus", map[string]string{"DB_DRIVER": "memory", "COMPLETION_BONUS_CREDITS": "ten"}, "COMPLETION_BONUS_CREDITS"},
		{"unknown log mode", map[string]string{"DB_DRIVER": "memory", "LOG_MODE": "verbose"}, "LOG_MODE"},
		{"bad redis address", map[string]string{"DB_DRIVER": "memory", "REDIS_ADDR": "not an address"}, "REDIS_ADDR"},
		{"bad certificate url", map[string]string{"DB_DRIVER": "memory", "CERTIFICATE_BASE_URL": "certs"}, "CERTIFICATE_BASE_URL"},
		{"too many retries", map[string]string{"DB_DRIVER": "memory", "DB_MAX_RETRIES": "99"}, "DB_MAX_RETRIES"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for _, key := range []string{"DB_MAX_RETRIES", "SIGNUP_BONUS_CREDITS", "COMPLETION_BONUS_CREDITS", "LOG_MODE", "REDIS_ADDR", "CERTIFICATE_BASE_URL"} {
				t.Setenv(key, "")
			}
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("Load() error = %v, want mention of %s", err, tc.want)
			}
		})
	}
}
