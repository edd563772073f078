package fcm

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// messageSender is the subset of *messaging.Client used here.
type messageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// Client delivers notification messages to a single device token.
type Client struct {
	sender messageSender
	cfg    Config
}

// New initializes a Firebase app from cfg and returns a messaging client.
// Credentials come from CredentialsJSON, CredentialsFile, or Application
// Default Credentials, in that order.
func New(ctx context.Context, cfg Config) (*Client, error) {
	var opts []option.ClientOption
	switch {
	case cfg.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	case cfg.ProjectID == "":
		return nil, fmt.Errorf("%w: project id or credentials required", ErrInvalidConfig)
	}

	var fbCfg *firebase.Config
	if cfg.ProjectID != "" {
		fbCfg = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, fbCfg, opts...)
	if err != nil {
		return nil, errors.Join(ErrInitFailed, err)
	}
	mc, err := app.Messaging(ctx)
	if err != nil {
		return nil, errors.Join(ErrInitFailed, err)
	}
	return &Client{sender: mc, cfg: cfg}, nil
}

// Send pushes a notification with title, body and string data to token.
// Tokens FCM reports as unregistered yield ErrTokenUnregistered.
func (c *Client) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	if token == "" {
		return ErrEmptyToken
	}

	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}
	if c.cfg.AndroidTTL > 0 {
		ttl := c.cfg.AndroidTTL
		msg.Android = &messaging.AndroidConfig{TTL: &ttl, Priority: "high"}
	}

	if _, err := c.sender.Send(ctx, msg); err != nil {
		if messaging.IsUnregistered(err) {
			return errors.Join(ErrTokenUnregistered, err)
		}
		return errors.Join(ErrSendFailed, err)
	}
	return nil
}
