package notifications

import (
	"context"
	"log/slog"
	"time"
)

// Store is the bounded per-user event history.
//
// Append assigns the event id and timestamp and returns the stored event.
// List returns up to limit events, most recent first; a user without history
// gets an empty slice.
type Store interface {
	Append(ctx context.Context, userID int64, ev Event) (Event, error)
	List(ctx context.Context, userID int64, limit int) ([]Event, error)
}

type storeOptions struct {
	keyPrefix string
	maxEvents int
	retention time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// StoreOption configures a RedisStore or MemoryStore.
type StoreOption func(*storeOptions)

// WithKeyPrefix sets the prefix of per-user keys. Default "notifications:".
func WithKeyPrefix(prefix string) StoreOption {
	return func(o *storeOptions) {
		if prefix != "" {
			o.keyPrefix = prefix
		}
	}
}

// WithMaxEvents caps each user's history. Older events are trimmed on append.
func WithMaxEvents(n int) StoreOption {
	return func(o *storeOptions) {
		if n > 0 {
			o.maxEvents = n
		}
	}
}

// WithRetention sets how long a history survives after its last append.
func WithRetention(d time.Duration) StoreOption {
	return func(o *storeOptions) {
		if d > 0 {
			o.retention = d
		}
	}
}

// WithStoreClock overrides the time source used for timestamps and ids.
func WithStoreClock(now func() time.Time) StoreOption {
	return func(o *storeOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithStoreLogger sets the logger used to report skipped records.
func WithStoreLogger(l *slog.Logger) StoreOption {
	return func(o *storeOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

func newStoreOptions(opts []StoreOption) storeOptions {
	o := storeOptions{
		keyPrefix: DefaultKeyPrefix,
		maxEvents: DefaultMaxEvents,
		retention: DefaultRetention,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// stamp fills the fields owned by the store. floor is the id nanos of the
// newest stored record; callers stamp while holding whatever serializes
// appends to the user's history.
func (o storeOptions) stamp(userID int64, ev Event, floor int64) Event {
	now := o.now().UTC()
	ev.UserID = userID
	ev.Timestamp = now
	ev.ID = newEventID(userID, now, floor)
	return ev
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
