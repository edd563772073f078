package live

import (
	"context"
	"errors"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/verdictaid/notifier/pkg/notifications"
)

// Conn adapts a websocket connection to notifications.Connection.
type Conn struct {
	id           string
	ws           *websocket.Conn
	writeTimeout time.Duration
}

func newConn(ws *websocket.Conn, writeTimeout time.Duration) *Conn {
	return &Conn{
		id:           uuid.NewString(),
		ws:           ws,
		writeTimeout: writeTimeout,
	}
}

// ID is the connection id sent to the client in connection_established.
func (c *Conn) ID() string { return c.id }

// Send writes ev as a notification frame.
func (c *Conn) Send(ctx context.Context, ev notifications.Event) error {
	return c.write(ctx, newNotificationFrame(ev, false))
}

func (c *Conn) write(ctx context.Context, v any) error {
	if c.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.writeTimeout)
		defer cancel()
	}
	if err := wsjson.Write(ctx, c.ws, v); err != nil {
		return errors.Join(ErrWriteFailed, err)
	}
	return nil
}

var _ notifications.Connection = (*Conn)(nil)
