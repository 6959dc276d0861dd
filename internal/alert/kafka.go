package alert

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"regional-risk-engine/internal/model"
)

// KafkaSink publishes alert signals as JSON messages keyed by region for the
// external notification service to consume.
type KafkaSink struct {
	writer *kafka.Writer
	log    zerolog.Logger
}

func NewKafkaSink(brokers []string, topic string, log zerolog.Logger) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
		log: log,
	}
}

func (s *KafkaSink) Notify(ctx context.Context, signal model.AlertSignal) error {
	payload, err := json.Marshal(signal)
	if err != nil {
		return err
	}
	if err := s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(signal.Region),
		Value: payload,
	}); err != nil {
		return err
	}
	s.log.Info().
		Str("region", signal.Region).
		Int("risk_score", signal.RiskScore).
		Msg("alert signal published")
	return nil
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
