package audit

import (
	"context"

	"github.com/eslsoft/skillswap/internal/core"
	"github.com/eslsoft/skillswap/internal/platform/logger"
)

// LogSink writes audit events to the structured log.
type LogSink struct {
	log *logger.Logger
}

// NewLogSink constructs a sink that logs every event at info level.
func NewLogSink(log *logger.Logger) *LogSink {
	if log == nil {
		log = logger.NewNop()
	}
	return &LogSink{log: log.With("component", "audit")}
}

var _ core.AuditSink = (*LogSink)(nil)

// Record logs the event. It never fails.
func (s *LogSink) Record(_ context.Context, event core.AuditEvent) error {
	kv := []any{
		"event", event.Type,
		"actor_id", event.ActorID.String(),
		"subject_id", event.SubjectID,
		"occurred_at", event.OccurredAt,
	}
	for k, v := range event.Attributes {
		kv = append(kv, k, v)
	}
	s.log.Info("audit event", kv...)
	return nil
}
