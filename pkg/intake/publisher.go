package intake

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/segmentio/kafka-go"

	"github.com/verdictaid/notifier/pkg/notifications"
	"github.com/verdictaid/notifier/pkg/requestid"
)

// Writer is the subset of *kafka.Writer the publisher needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher puts notification requests on the topic read by Consumer.
// Messages are keyed by user id so one user's notifications stay ordered.
type Publisher struct {
	writer Writer
}

// NewWriter builds a kafka.Writer for cfg.Topic that hashes message keys to
// partitions and waits for every in-sync replica.
func NewWriter(cfg Config) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
}

// NewPublisher wraps w. Use NewWriter for a real broker.
func NewPublisher(w Writer) *Publisher {
	return &Publisher{writer: w}
}

// Publish writes one notification request keyed by userID. The request id
// in ctx, if any, travels as a message header.
func (p *Publisher) Publish(ctx context.Context, userID int64, eventType string, payload notifications.Payload) error {
	raw, err := json.Marshal(Message{UserID: userID, Type: eventType, Payload: payload})
	if err != nil {
		return errors.Join(ErrPublishFailed, err)
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(userID, 10)),
		Value: raw,
	}
	if id := requestid.FromContext(ctx); id != "" {
		msg.Headers = append(msg.Headers, kafka.Header{Key: requestid.Header, Value: []byte(id)})
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Join(ErrPublishFailed, err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
