package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/exam-prep-service/internal/config"
)

// EventPublisher delivers domain events to the configured broker
type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

// NewEventPublisher picks the broker from config. Broker "none" only logs.
func NewEventPublisher(cfg config.EventsConfig, logger *slog.Logger) (EventPublisher, error) {
	switch cfg.Broker {
	case config.BrokerKafka:
		return NewKafkaEventPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	case config.BrokerRabbitMQ:
		return NewRabbitMQEventPublisher(cfg.RabbitMQURL, cfg.RabbitMQQueue, logger)
	case config.BrokerNone, "":
		return NewLogEventPublisher(logger), nil
	default:
		return nil, fmt.Errorf("unsupported event broker %q", cfg.Broker)
	}
}

// LogEventPublisher writes events to the log instead of a broker
type LogEventPublisher struct {
	logger *slog.Logger
}

func NewLogEventPublisher(logger *slog.Logger) *LogEventPublisher {
	return &LogEventPublisher{logger: logger}
}

func (p *LogEventPublisher) Publish(ctx context.Context, event *Event) error {
	p.logger.DebugContext(ctx, "Event published",
		"event_id", event.ID,
		"event_type", event.Type,
		"user_id", event.UserID)
	return nil
}

func (p *LogEventPublisher) Close() error {
	return nil
}
