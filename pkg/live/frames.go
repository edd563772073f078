package live

import (
	"time"

	"github.com/verdictaid/notifier/pkg/notifications"
)

const (
	frameConnectionEstablished = "connection_established"
	frameAck                   = "ack"
)

// notificationFrame is what clients receive for every event. Type carries
// the notification type.
type notificationFrame struct {
	Type      string                `json:"type"`
	ID        string                `json:"id"`
	UserID    int64                 `json:"user_id"`
	Timestamp time.Time             `json:"timestamp"`
	Data      notifications.Payload `json:"data"`
	Replayed  bool                  `json:"replayed,omitempty"`
}

func newNotificationFrame(ev notifications.Event, replayed bool) notificationFrame {
	data := ev.Payload
	if data == nil {
		data = notifications.Payload{}
	}
	return notificationFrame{
		Type:      ev.Type,
		ID:        ev.ID,
		UserID:    ev.UserID,
		Timestamp: ev.Timestamp,
		Data:      data,
		Replayed:  replayed,
	}
}

type establishedFrame struct {
	Type         string `json:"type"`
	ClientID     int64  `json:"client_id"`
	ConnectionID string `json:"connection_id"`
}

// clientFrame is a message sent by the client. Only acks are understood.
type clientFrame struct {
	Type    string `json:"type"`
	EventID string `json:"id,omitempty"`
}
