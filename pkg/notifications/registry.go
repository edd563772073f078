package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/verdictaid/notifier/pkg/logger"
)

const registryShards = 64

// Connection is one open live channel to a user's client.
type Connection interface {
	// ID is unique among the connections of a process.
	ID() string
	Send(ctx context.Context, ev Event) error
}

// Registry tracks the open live connections of each user. Users are spread
// over shards with independent locks so unrelated users never contend.
type Registry struct {
	shards      [registryShards]registryShard
	sendTimeout time.Duration
	logger      *slog.Logger
	metrics     *Metrics
}

type registryShard struct {
	mu    sync.RWMutex
	users map[int64]map[string]Connection
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithConnectionTimeout bounds a single connection send during Broadcast.
func WithConnectionTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.sendTimeout = d
		}
	}
}

// WithRegistryLogger sets the registry logger. Nil keeps slog.Default().
func WithRegistryLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithRegistryMetrics tracks open connections in m.
func WithRegistryMetrics(m *Metrics) RegistryOption {
	return func(r *Registry) {
		r.metrics = m
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		sendTimeout: DefaultLiveTimeout,
		logger:      slog.Default(),
	}
	for i := range r.shards {
		r.shards[i].users = make(map[int64]map[string]Connection)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) shard(userID int64) *registryShard {
	return &r.shards[uint64(userID)%registryShards]
}

// Connect adds conn to the user's set. Registering the same connection twice is a no-op.
func (r *Registry) Connect(userID int64, conn Connection) {
	s := r.shard(userID)
	s.mu.Lock()
	conns, present := s.users[userID]
	if !present {
		conns = make(map[string]Connection, 1)
		s.users[userID] = conns
	}
	_, dup := conns[conn.ID()]
	conns[conn.ID()] = conn
	s.mu.Unlock()

	if dup {
		return
	}
	r.metrics.connectionsAdd(1)
	if !present {
		r.metrics.usersAdd(1)
		r.logger.LogAttrs(context.Background(), slog.LevelInfo, "user present",
			logger.UserID(userID),
			logger.ConnectionID(conn.ID()),
		)
	}
}

// Disconnect removes conn. Unknown connections are ignored; removing the last
// connection of a user drops the user entry.
func (r *Registry) Disconnect(userID int64, conn Connection) {
	s := r.shard(userID)
	s.mu.Lock()
	conns, ok := s.users[userID]
	if !ok {
		s.mu.Unlock()
		return
	}
	if _, ok := conns[conn.ID()]; !ok {
		s.mu.Unlock()
		return
	}
	delete(conns, conn.ID())
	absent := len(conns) == 0
	if absent {
		delete(s.users, userID)
	}
	s.mu.Unlock()

	r.metrics.connectionsAdd(-1)
	if absent {
		r.metrics.usersAdd(-1)
		r.logger.LogAttrs(context.Background(), slog.LevelInfo, "user absent",
			logger.UserID(userID),
			logger.ConnectionID(conn.ID()),
		)
	}
}

// Broadcast sends ev to every connection the user had when the call started
// and returns how many accepted it. Connections are sent to concurrently, each
// bounded by the connection timeout. A failing connection is logged and
// skipped; it stays registered.
func (r *Registry) Broadcast(ctx context.Context, userID int64, ev Event) int {
	conns := r.snapshot(userID)
	if len(conns) == 0 {
		return 0
	}

	var (
		accepted atomic.Int64
		wg       sync.WaitGroup
	)
	for _, conn := range conns {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.sendTo(ctx, conn, ev); err != nil {
				r.logger.LogAttrs(ctx, slog.LevelWarn, "live connection rejected notification",
					logger.UserID(userID),
					logger.ConnectionID(conn.ID()),
					logger.EventID(ev.ID),
					logger.Error(err),
				)
				return
			}
			accepted.Add(1)
		}()
	}
	wg.Wait()
	return int(accepted.Load())
}

func (r *Registry) sendTo(ctx context.Context, conn Connection, ev Event) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: panic: %v", ErrConnectionGone, p)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, r.sendTimeout)
	defer cancel()

	if err := conn.Send(ctx, ev); err != nil {
		return errors.Join(ErrConnectionGone, err)
	}
	return nil
}

func (r *Registry) snapshot(userID int64) []Connection {
	s := r.shard(userID)
	s.mu.RLock()
	defer s.mu.RUnlock()

	conns := s.users[userID]
	out := make([]Connection, 0, len(conns))
	for _, c := range conns {
		out = append(out, c)
	}
	return out
}

// Connections returns the number of open connections of a user.
func (r *Registry) Connections(userID int64) int {
	s := r.shard(userID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users[userID])
}

// Users returns the number of users with at least one open connection.
func (r *Registry) Users() int {
	n := 0
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.RLock()
		n += len(s.users)
		s.mu.RUnlock()
	}
	return n
}
