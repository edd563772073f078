package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// WebPushTransport delivers an encrypted payload to a browser push subscription.
type WebPushTransport interface {
	Send(ctx context.Context, subscription string, payload []byte) error
}

// WebPushSender posts {title, body, data} to the device's push subscription.
type WebPushSender struct {
	senderBase
	transport WebPushTransport
}

// NewWebPushSender creates a Web Push sender over transport.
func NewWebPushSender(transport WebPushTransport, opts ...SenderOption) *WebPushSender {
	return &WebPushSender{
		senderBase: newSenderBase(ChannelWebPush, DefaultSenderTimeout, opts),
		transport:  transport,
	}
}

type webPushMessage struct {
	Title string  `json:"title"`
	Body  string  `json:"body"`
	Data  Payload `json:"data"`
}

// Deliver sends the event as a JSON push message to the device subscription.
func (s *WebPushSender) Deliver(ctx context.Context, d Device, ev Event) bool {
	return s.run(ctx, d, ev, func(ctx context.Context) error {
		if strings.TrimSpace(d.PushSubscription) == "" {
			return fmt.Errorf("%w: no push subscription", ErrMissingCredential)
		}

		data := ev.Payload
		if data == nil {
			data = Payload{}
		}
		raw, err := json.Marshal(webPushMessage{
			Title: ev.Payload.Title(),
			Body:  ev.Payload.Body(),
			Data:  data,
		})
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
		}
		return s.transport.Send(ctx, d.PushSubscription, raw)
	})
}
