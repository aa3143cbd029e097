package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_RedactsSensitiveKeys(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := NewFromZap(zap.New(core))

	log.Info("request", "access_token", "abc", "idempotency_key", "key-1", "course_id", "c1")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["access_token"] != "[REDACTED]" {
		t.Fatalf("expected token redacted, got %v", fields["access_token"])
	}
	if fields["idempotency_key"] == "key-1" {
		t.Fatal("expected idempotency key hashed")
	}
	if fields["course_id"] != "c1" {
		t.Fatalf("expected course_id kept, got %v", fields["course_id"])
	}
}

func TestLogger_WithAddsContext(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := NewFromZap(zap.New(core)).With("component", "ledger")

	log.Warn("balance drift", "user_id", "u1")

	if logs.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", logs.Len())
	}
	if got := logs.All()[0].ContextMap()["component"]; got != "ledger" {
		t.Fatalf("expected component field, got %v", got)
	}
}
