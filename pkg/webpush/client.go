package webpush

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	webpushgo "github.com/SherClockHolmes/webpush-go"
)

// Client sends encrypted Web Push messages signed with the configured VAPID keys.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used to reach push services.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// New validates cfg and returns a Client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.VAPIDPublicKey == "" || cfg.VAPIDPrivateKey == "" {
		return nil, fmt.Errorf("%w: VAPID key pair is required", ErrInvalidConfig)
	}
	if cfg.Subscriber == "" {
		return nil, fmt.Errorf("%w: subscriber contact is required", ErrInvalidConfig)
	}

	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Send encrypts payload for the subscription descriptor (the browser's
// PushSubscription serialized as JSON) and posts it to the push service.
// 404 and 410 responses are reported as ErrSubscriptionGone.
func (c *Client) Send(ctx context.Context, subscription string, payload []byte) error {
	sub, err := ParseSubscription(subscription)
	if err != nil {
		return err
	}

	resp, err := webpushgo.SendNotificationWithContext(ctx, payload, sub, &webpushgo.Options{
		HTTPClient:      c.httpClient,
		Subscriber:      strings.TrimPrefix(c.cfg.Subscriber, "mailto:"),
		VAPIDPublicKey:  c.cfg.VAPIDPublicKey,
		VAPIDPrivateKey: c.cfg.VAPIDPrivateKey,
		TTL:             c.cfg.TTL,
		Urgency:         webpushgo.Urgency(c.cfg.Urgency),
	})
	if err != nil {
		return errors.Join(ErrPushRejected, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return fmt.Errorf("%w: status %d", ErrSubscriptionGone, resp.StatusCode)
	case resp.StatusCode >= http.StatusBadRequest:
		return fmt.Errorf("%w: status %d", ErrPushRejected, resp.StatusCode)
	}
	return nil
}

// ParseSubscription decodes a PushSubscription JSON document and checks that
// the endpoint and both keys are present.
func ParseSubscription(raw string) (*webpushgo.Subscription, error) {
	var sub webpushgo.Subscription
	if err := json.Unmarshal([]byte(raw), &sub); err != nil {
		return nil, errors.Join(ErrInvalidSubscription, err)
	}
	if sub.Endpoint == "" {
		return nil, fmt.Errorf("%w: missing endpoint", ErrInvalidSubscription)
	}
	if sub.Keys.P256dh == "" || sub.Keys.Auth == "" {
		return nil, fmt.Errorf("%w: missing keys", ErrInvalidSubscription)
	}
	return &sub, nil
}

// GenerateVAPIDKeys returns a new (private, public) key pair for Config.
func GenerateVAPIDKeys() (privateKey, publicKey string, err error) {
	return webpushgo.GenerateVAPIDKeys()
}
