// Package queue carries notification events over RabbitMQ so that
// e-mail delivery happens outside the request path.
package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/facility-reservation/internal/model"
)

// NotificationEvent is the message body published to the notification
// queue.  It embeds everything the consumer needs to render the e-mail
// without querying the CMS.
type NotificationEvent struct {
	ID           string             `json:"id"`
	PublishedAt  time.Time          `json:"published_at"`
	Notification model.Notification `json:"notification"`
}

// NewNotificationEvent wraps n with a fresh event id.
func NewNotificationEvent(n model.Notification) NotificationEvent {
	return NotificationEvent{
		ID:           uuid.NewString(),
		PublishedAt:  time.Now().UTC(),
		Notification: n,
	}
}
