// Package service dispatches booking notifications.  Delivery failures
// are logged and counted but never returned: a booking request must not
// fail because an e-mail could not be sent.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/iliyamo/facility-reservation/internal/metrics"
	"github.com/iliyamo/facility-reservation/internal/model"
	"github.com/iliyamo/facility-reservation/internal/queue"
)

// Notifier dispatches a notification without reporting failure.
type Notifier interface {
	Notify(ctx context.Context, n model.Notification)
}

// Sender delivers one notification, typically *mail.Sender.
type Sender interface {
	Send(ctx context.Context, n model.Notification) error
}

// Publisher hands a notification event to the broker, typically
// *queue.Publisher.
type Publisher interface {
	Publish(ctx context.Context, ev queue.NotificationEvent) error
}

const defaultSendTimeout = 30 * time.Second

// DirectNotifier sends notifications from background goroutines so that
// the SMTP round trip stays off the request path.
type DirectNotifier struct {
	sender  Sender
	metrics *metrics.Metrics
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewDirectNotifier panics on a nil sender.  m may be nil.
func NewDirectNotifier(sender Sender, m *metrics.Metrics) *DirectNotifier {
	if sender == nil {
		panic("nil sender")
	}
	return &DirectNotifier{sender: sender, metrics: m, timeout: defaultSendTimeout}
}

// Notify sends n asynchronously.  The request context only contributes
// its values (logger, request id); its cancellation is ignored.
func (d *DirectNotifier) Notify(ctx context.Context, n model.Notification) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()
		_ = d.Deliver(sendCtx, n)
	}()
}

// Deliver sends n synchronously.  The notification consumer uses it so a
// failed delivery can be rejected.
func (d *DirectNotifier) Deliver(ctx context.Context, n model.Notification) error {
	err := d.sender.Send(ctx, n)
	d.metrics.Notification(string(n.Kind), err)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("kind", string(n.Kind)).Int64("booking_id", n.BookingID).Msg("notification delivery failed")
	}
	return err
}

// Wait blocks until every pending asynchronous send has finished.
func (d *DirectNotifier) Wait() { d.wg.Wait() }

// QueueNotifier publishes notifications to the broker and falls back to
// another notifier when publishing fails.
type QueueNotifier struct {
	pub      Publisher
	fallback Notifier
}

// NewQueueNotifier panics on a nil publisher.  fallback may be nil, in
// which case unpublishable notifications are dropped after logging.
func NewQueueNotifier(pub Publisher, fallback Notifier) *QueueNotifier {
	if pub == nil {
		panic("nil publisher")
	}
	return &QueueNotifier{pub: pub, fallback: fallback}
}

func (q *QueueNotifier) Notify(ctx context.Context, n model.Notification) {
	err := q.pub.Publish(ctx, queue.NewNotificationEvent(n))
	if err == nil {
		return
	}
	log.Ctx(ctx).Warn().Err(err).Str("kind", string(n.Kind)).Msg("publish notification failed")
	if q.fallback != nil {
		q.fallback.Notify(ctx, n)
	}
}
