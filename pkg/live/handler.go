package live

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"

	"github.com/coder/websocket"

	"github.com/verdictaid/notifier/pkg/logger"
	"github.com/verdictaid/notifier/pkg/notifications"
)

// History returns a user's stored events, most recent first.
type History interface {
	ListPending(ctx context.Context, userID int64, limit int) ([]notifications.Event, error)
}

// UserIDFunc extracts the authenticated user id from the upgrade request.
type UserIDFunc func(r *http.Request) (int64, error)

// Handler upgrades requests to websocket connections and keeps them
// registered for live delivery until the client goes away.
type Handler struct {
	registry *notifications.Registry
	history  History
	userID   UserIDFunc
	cfg      Config
	logger   *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the handler's logger. Nil keeps slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithHistory enables replay of recent events right after connecting.
func WithHistory(hist History) Option {
	return func(h *Handler) { h.history = hist }
}

// NewHandler returns a websocket handler that registers accepted sockets in
// registry under the user id resolved by userID.
func NewHandler(registry *notifications.Registry, userID UserIDFunc, cfg Config, opts ...Option) *Handler {
	h := &Handler{
		registry: registry,
		userID:   userID,
		cfg:      cfg,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP accepts the socket, confirms the connection, registers it,
// replays the latest stored events (oldest first) and then reads client
// frames until the socket closes. Events delivered between registration and
// replay may arrive twice; clients dedupe by id.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, err := h.userID(r)
	if err != nil || userID <= 0 {
		http.Error(w, ErrInvalidUserID.Error(), http.StatusBadRequest)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.cfg.AllowedOrigins,
	})
	if err != nil {
		h.logger.LogAttrs(r.Context(), slog.LevelWarn, "websocket upgrade failed",
			logger.UserID(userID),
			logger.Error(err),
		)
		return
	}
	defer ws.CloseNow()
	if h.cfg.ReadLimit > 0 {
		ws.SetReadLimit(h.cfg.ReadLimit)
	}

	ctx := r.Context()
	conn := newConn(ws, h.cfg.WriteTimeout)

	// The confirmation must be the first frame, so it goes out before the
	// registry can route broadcasts to this connection.
	if err := conn.write(ctx, establishedFrame{
		Type:         frameConnectionEstablished,
		ClientID:     userID,
		ConnectionID: conn.ID(),
	}); err != nil {
		h.logger.LogAttrs(ctx, slog.LevelWarn, "failed to confirm live connection",
			logger.UserID(userID),
			logger.ConnectionID(conn.ID()),
			logger.Error(err),
		)
		return
	}

	h.registry.Connect(userID, conn)
	defer h.registry.Disconnect(userID, conn)

	if err := h.replay(ctx, conn, userID); err != nil {
		return
	}

	h.readLoop(ctx, ws, conn, userID)
}

func (h *Handler) replay(ctx context.Context, conn *Conn, userID int64) error {
	if h.history == nil || h.cfg.ReplayLimit <= 0 {
		return nil
	}

	events, err := h.history.ListPending(ctx, userID, h.cfg.ReplayLimit)
	if err != nil {
		// The socket stays usable for new events.
		h.logger.LogAttrs(ctx, slog.LevelWarn, "replay skipped, history unavailable",
			logger.UserID(userID),
			logger.Error(err),
		)
		return nil
	}

	for _, ev := range slices.Backward(events) {
		if err := conn.write(ctx, newNotificationFrame(ev, true)); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) readLoop(ctx context.Context, ws *websocket.Conn, conn *Conn, userID int64) {
	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			level := slog.LevelWarn
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				level = slog.LevelDebug
			}
			if errors.Is(err, context.Canceled) {
				level = slog.LevelDebug
			}
			h.logger.LogAttrs(ctx, level, "live connection closed",
				logger.UserID(userID),
				logger.ConnectionID(conn.ID()),
				logger.Error(err),
			)
			return
		}

		var msg clientFrame
		if err := json.Unmarshal(data, &msg); err != nil {
			h.logger.LogAttrs(ctx, slog.LevelDebug, "ignoring malformed client frame",
				logger.UserID(userID),
				logger.ConnectionID(conn.ID()),
				logger.Error(err),
			)
			continue
		}
		if msg.Type == frameAck {
			h.logger.LogAttrs(ctx, slog.LevelDebug, "notification acknowledged",
				logger.UserID(userID),
				logger.ConnectionID(conn.ID()),
				logger.EventID(msg.EventID),
			)
		}
	}
}
