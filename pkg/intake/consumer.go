package intake

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/verdictaid/notifier/pkg/logger"
	"github.com/verdictaid/notifier/pkg/notifications"
	"github.com/verdictaid/notifier/pkg/requestid"
)

// Reader is the subset of *kafka.Reader the consumer needs.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Notifier accepts notifications for persistence and delivery.
type Notifier interface {
	Send(ctx context.Context, userID int64, eventType string, payload notifications.Payload) (string, error)
}

// NewReader creates a consumer-group reader for cfg.Topic.
func NewReader(cfg Config) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
	})
}

// Consumer feeds notification requests from Kafka into a Notifier.
//
// A message is committed once the notifier accepted it or once it is known
// to be unprocessable (bad JSON, invalid user or type). Any other failure,
// typically the store being down, keeps the offset and retries the same
// message after a backoff.
type Consumer struct {
	reader   Reader
	notifier Notifier
	backoff  time.Duration
	logger   *slog.Logger
}

// ConsumerOption configures a Consumer.
type ConsumerOption func(*Consumer)

// WithRetryBackoff sets the pause between attempts while the notifier is unavailable.
func WithRetryBackoff(d time.Duration) ConsumerOption {
	return func(c *Consumer) {
		if d > 0 {
			c.backoff = d
		}
	}
}

// WithLogger sets the consumer logger. Nil keeps slog.Default().
func WithLogger(l *slog.Logger) ConsumerOption {
	return func(c *Consumer) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewConsumer creates a consumer that hands every message from reader to notifier.
func NewConsumer(reader Reader, notifier Notifier, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		reader:   reader,
		notifier: notifier,
		backoff:  2 * time.Second,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run consumes until ctx is done and closes the reader on return.
func (c *Consumer) Run(ctx context.Context) error {
	defer func() {
		if err := c.reader.Close(); err != nil {
			c.logger.LogAttrs(context.Background(), slog.LevelWarn, "failed to close kafka reader", logger.Error(err))
		}
	}()

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.LogAttrs(ctx, slog.LevelWarn, "kafka fetch failed", logger.Error(err))
			if !c.sleep(ctx) {
				return nil
			}
			continue
		}

		if !c.process(ctx, m) {
			return nil
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			c.logger.LogAttrs(ctx, slog.LevelWarn, "kafka commit failed",
				slog.Int64("offset", m.Offset),
				logger.Error(err),
			)
		}
	}
}

// process hands m to the notifier, retrying while the failure is transient.
// It reports false when ctx ended before the message was settled.
func (c *Consumer) process(ctx context.Context, m kafka.Message) bool {
	ctx = requestid.WithContext(ctx, requestid.Resolve(headerValue(m.Headers, requestid.Header)))

	msg, err := decodeMessage(m.Value)
	if err != nil {
		c.logger.LogAttrs(ctx, slog.LevelWarn, "dropping notification message",
			slog.String("topic", m.Topic),
			slog.Int64("offset", m.Offset),
			logger.Error(err),
		)
		return true
	}

	for {
		id, err := c.notifier.Send(ctx, msg.UserID, msg.Type, msg.Payload)
		switch {
		case err == nil:
			c.logger.LogAttrs(ctx, slog.LevelDebug, "notification accepted from kafka",
				logger.UserID(msg.UserID),
				logger.EventID(id),
				logger.EventType(msg.Type),
			)
			return true
		case errors.Is(err, notifications.ErrInvalidUserID),
			errors.Is(err, notifications.ErrEmptyType),
			errors.Is(err, notifications.ErrInvalidPayload):
			c.logger.LogAttrs(ctx, slog.LevelWarn, "dropping rejected notification",
				logger.UserID(msg.UserID),
				logger.EventType(msg.Type),
				logger.Error(err),
			)
			return true
		case errors.Is(err, notifications.ErrDispatcherClosed):
			// Left uncommitted so the group redelivers it after restart.
			c.logger.LogAttrs(ctx, slog.LevelInfo, "notifier closed, leaving message uncommitted",
				slog.Int64("offset", m.Offset),
				logger.UserID(msg.UserID),
			)
			return false
		}

		c.logger.LogAttrs(ctx, slog.LevelWarn, "notification not accepted, retrying",
			logger.UserID(msg.UserID),
			logger.EventType(msg.Type),
			logger.Duration(c.backoff),
			logger.Error(err),
		)
		if !c.sleep(ctx) {
			return false
		}
	}
}

func (c *Consumer) sleep(ctx context.Context) bool {
	t := time.NewTimer(c.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func headerValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
