package audit

import (
	"context"
	"errors"

	"github.com/eslsoft/skillswap/internal/core"
)

// Multi fans an event out to every sink. A failing sink does not stop the
// others.
type Multi []core.AuditSink

var _ core.AuditSink = Multi(nil)

// Record delivers the event to each sink and joins their errors.
func (m Multi) Record(ctx context.Context, event core.AuditEvent) error {
	var errs []error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.Record(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
