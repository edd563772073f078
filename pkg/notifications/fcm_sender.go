package notifications

import (
	"context"
	"fmt"
	"strings"
)

// PushGateway delivers a mobile push notification to a device token.
type PushGateway interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}

// FCMSender delivers to mobile devices through a PushGateway.
type FCMSender struct {
	senderBase
	gateway PushGateway
}

// NewFCMSender creates an FCM sender over gateway.
func NewFCMSender(gateway PushGateway, opts ...SenderOption) *FCMSender {
	return &FCMSender{
		senderBase: newSenderBase(ChannelFCM, DefaultSenderTimeout, opts),
		gateway:    gateway,
	}
}

// Deliver sends the payload title and body as the notification and the whole
// payload, flattened to strings, as message data. The "type" and "event_id"
// data keys carry the event's metadata unless the payload already uses them.
func (s *FCMSender) Deliver(ctx context.Context, d Device, ev Event) bool {
	return s.run(ctx, d, ev, func(ctx context.Context) error {
		token := strings.TrimSpace(d.FCMToken)
		if token == "" {
			return fmt.Errorf("%w: no fcm token", ErrMissingCredential)
		}
		data := ev.Payload.Strings()
		if data == nil {
			data = map[string]string{}
		}
		setIfAbsent(data, "type", ev.Type)
		setIfAbsent(data, "event_id", ev.ID)
		return s.gateway.Send(ctx, token, ev.Payload.Title(), ev.Payload.Body(), data)
	})
}

func setIfAbsent(m map[string]string, key, value string) {
	if _, ok := m[key]; !ok {
		m[key] = value
	}
}
