package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/verdictaid/notifier/pkg/binder"
	"github.com/verdictaid/notifier/pkg/httpserver"
	"github.com/verdictaid/notifier/pkg/logger"
	"github.com/verdictaid/notifier/pkg/notifications"
	"github.com/verdictaid/notifier/pkg/requestid"
)

// Dispatcher is the notification core as seen by the HTTP API.
type Dispatcher interface {
	Send(ctx context.Context, userID int64, eventType string, payload notifications.Payload) (string, error)
	ListPending(ctx context.Context, userID int64, limit int) ([]notifications.Event, error)
}

// RouterOptions wires the HTTP surface. Nil handlers are not mounted.
type RouterOptions struct {
	Dispatcher   Dispatcher
	Live         http.Handler
	Gatherer     prometheus.Gatherer
	Checks       map[string]httpserver.Check
	CheckTimeout time.Duration
	Logger       *slog.Logger
}

// Router mounts:
//
//	GET  /healthz                 liveness
//	GET  /readyz                  readiness of every configured check
//	GET  /metrics                 Prometheus exposition
//	GET  /ws/{userID}             live websocket
//	GET  /notifications/{userID}  stored history, ?limit=N
//	POST /notifications           {user_id, type, payload} -> 202 {id}
func Router(opts RouterOptions) chi.Router {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", httpserver.LivenessHandler())
	r.Get("/readyz", httpserver.ReadinessHandler(log, opts.CheckTimeout, opts.Checks))
	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}
	if opts.Live != nil {
		r.Handle("/ws/{userID}", opts.Live)
	}
	if opts.Dispatcher != nil {
		h := &handlers{
			dispatcher: opts.Dispatcher,
			logger:     log,
			bindJSON:   binder.JSON(),
			bindQuery:  binder.Query(),
		}
		r.Route("/notifications", func(n chi.Router) {
			n.Post("/", h.send)
			n.Get("/{userID}", h.list)
		})
	}
	return r
}

// UserIDFromPath reads the {userID} route parameter.
func UserIDFromPath(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
}

type handlers struct {
	dispatcher Dispatcher
	logger     *slog.Logger
	bindJSON   func(*http.Request, any) error
	bindQuery  func(*http.Request, any) error
}

type sendRequest struct {
	UserID  int64                 `json:"user_id"`
	Type    string                `json:"type"`
	Payload notifications.Payload `json:"payload"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func bindStatus(err error) int {
	switch {
	case errors.Is(err, binder.ErrMissingContentType), errors.Is(err, binder.ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, binder.ErrRequestTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusBadRequest
	}
}

func bindMessage(err error) string {
	switch bindStatus(err) {
	case http.StatusUnsupportedMediaType:
		return "content type must be application/json"
	case http.StatusRequestEntityTooLarge:
		return "request body too large"
	default:
		return "invalid JSON body"
	}
}

func (h *handlers) send(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := h.bindJSON(r, &req); err != nil {
		httpserver.WriteJSON(w, bindStatus(err), errorResponse{Error: bindMessage(err)})
		return
	}

	id, err := h.dispatcher.Send(r.Context(), req.UserID, req.Type, req.Payload)
	switch {
	case err == nil:
		httpserver.WriteJSON(w, http.StatusAccepted, map[string]string{"id": id})
	case errors.Is(err, notifications.ErrInvalidUserID),
		errors.Is(err, notifications.ErrEmptyType),
		errors.Is(err, notifications.ErrInvalidPayload):
		httpserver.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, notifications.ErrDispatcherClosed):
		httpserver.WriteJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "notifier is shutting down"})
	default:
		h.logger.LogAttrs(r.Context(), slog.LevelError, "send notification failed",
			logger.UserID(req.UserID),
			logger.Error(err),
		)
		httpserver.WriteJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "notification store unavailable"})
	}
}

type listQuery struct {
	Limit int `query:"limit"`
}

type listResponse struct {
	Notifications []notifications.Event `json:"notifications"`
}

func (h *handlers) list(w http.ResponseWriter, r *http.Request) {
	userID, err := UserIDFromPath(r)
	if err != nil || userID <= 0 {
		httpserver.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid user id"})
		return
	}

	var q listQuery
	if err := h.bindQuery(r, &q); err != nil || q.Limit < 0 {
		httpserver.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid limit"})
		return
	}

	events, err := h.dispatcher.ListPending(r.Context(), userID, q.Limit)
	if err != nil {
		h.logger.LogAttrs(r.Context(), slog.LevelError, "list notifications failed",
			logger.UserID(userID),
			logger.Error(err),
		)
		httpserver.WriteJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "notification store unavailable"})
		return
	}
	httpserver.WriteJSON(w, http.StatusOK, listResponse{Notifications: events})
}
