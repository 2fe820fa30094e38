package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/facility-reservation/internal/model"
)

// Handler delivers one notification.
type Handler func(ctx context.Context, n model.Notification) error

const (
	minBackoff = time.Second
	maxBackoff = 30 * time.Second
	prefetch   = 20
)

// StartNotificationConsumer consumes queue on the broker at url and
// hands every notification to handle.  It reconnects with exponential
// backoff whenever the broker is unreachable or drops the connection, and
// returns only when ctx is cancelled.  Messages that fail are rejected
// without requeue so a poison message cannot spin the loop.
func StartNotificationConsumer(ctx context.Context, url, queue string, handle Handler) error {
	logger := log.Ctx(ctx).With().Str("component", "notification-consumer").Logger()
	backoff := minBackoff
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			logger.Warn().Err(err).Dur("retry_in", backoff).Msg("failed to dial broker")
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < maxBackoff {
				backoff *= 2
			}
			continue
		}
		backoff = minBackoff

		err = consumeLoop(ctx, conn, queue, handle)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn().Err(err).Msg("consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, queue string, handle Handler) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(prefetch, 0, false); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("notification-consumer: set QoS failed")
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleMessage(ctx, d.Body, handle); err != nil {
			log.Ctx(ctx).Error().Err(err).Str("message_id", d.MessageId).Msg("notification-consumer: handle message failed")
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleMessage(ctx context.Context, body []byte, handle Handler) error {
	var ev NotificationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Notification.Kind == "" {
		return errors.New("event has no notification kind")
	}
	if err := handle(ctx, ev.Notification); err != nil {
		return fmt.Errorf("deliver %s: %w", ev.ID, err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
