package alert

import (
	"context"

	"github.com/rs/zerolog"

	"regional-risk-engine/internal/model"
)

// LogSink writes alert signals to the log only. Used when no broker is
// configured.
type LogSink struct {
	log zerolog.Logger
}

func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Notify(ctx context.Context, signal model.AlertSignal) error {
	s.log.Warn().
		Str("region", signal.Region).
		Int("risk_score", signal.RiskScore).
		Str("risk_level", string(signal.RiskLevel)).
		Bool("is_anomaly", signal.IsAnomaly).
		Msg("alert signal")
	return nil
}
