package fcm

import (
	"context"

	"firebase.google.com/go/v4/messaging"
)

type SenderFunc func(ctx context.Context, m *messaging.Message) (string, error)

func (f SenderFunc) Send(ctx context.Context, m *messaging.Message) (string, error) { return f(ctx, m) }

// NewWithSender builds a Client around a stub message sender.
func NewWithSender(s SenderFunc, cfg Config) *Client {
	return &Client{sender: s, cfg: cfg}
}
