// Package alert provides the sinks alert-trigger signals can be emitted to:
// a Kafka publisher for the external notification service, a notification
// table for dashboard pickup, and a log-only sink for dry runs.
package alert

import (
	"context"

	"regional-risk-engine/internal/model"
)

// Sink receives alert signals. Mirrors the engine's sink port.
type Sink interface {
	Notify(ctx context.Context, signal model.AlertSignal) error
}

// Fanout forwards a signal to every configured sink, returning the first
// error after all sinks have been attempted.
type Fanout []Sink

func (f Fanout) Notify(ctx context.Context, signal model.AlertSignal) error {
	var firstErr error
	for _, sink := range f {
		if err := sink.Notify(ctx, signal); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
