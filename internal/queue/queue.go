package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/vikingheim/odin-rewards/internal/config"
	"github.com/vikingheim/odin-rewards/internal/observability/metrics"
	"github.com/vikingheim/odin-rewards/internal/types"
)

const publishTimeout = 5 * time.Second

// QueueManager publishes domain events to a durable topic exchange. The
// routing key of every message is its event type, so consumers can bind
// selectively (e.g. "odin.faucet.#").
type QueueManager struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

func NewQueueManager(cfg *config.QueueConfig) (*QueueManager, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to message queue: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open queue channel: %w", err)
	}

	if err := channel.ExchangeDeclare(
		cfg.Exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	); err != nil {
		return nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
	}

	return &QueueManager{
		conn:     conn,
		channel:  channel,
		exchange: cfg.Exchange,
	}, nil
}

// PublishEvent serializes the event and publishes it under its type as the
// routing key. Publish failures are surfaced to the caller, which treats them
// as non-fatal: events are advisory, the ledger is the source of truth.
func (qm *QueueManager) PublishEvent(
	ctx context.Context, eventType types.EventTypes, event any,
) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to serialize event %s: %w", eventType, err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = qm.channel.PublishWithContext(
		ctx,
		qm.exchange,
		eventType.String(), // routing key
		false,              // mandatory
		false,              // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		metrics.IncQueuePublishError()
		return fmt.Errorf("failed to publish event %s: %w", eventType, err)
	}

	log.Ctx(ctx).Debug().
		Str("event_type", eventType.String()).
		Msg("Published event")

	return nil
}

func (qm *QueueManager) Shutdown() {
	if err := qm.channel.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close queue channel")
	}
	if err := qm.conn.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close queue connection")
	}
}
