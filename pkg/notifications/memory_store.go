package notifications

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/verdictaid/notifier/pkg/logger"
)

// MemoryStore is an in-process Store with the same size and age bounds as
// RedisStore. Suitable for development and testing.
type MemoryStore struct {
	mu    sync.Mutex
	users map[int64]*memoryHistory
	storeOptions
}

type memoryHistory struct {
	records   [][]byte // newest first
	headNanos int64    // id nanos of records[0]
	expiresAt time.Time
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore(opts ...StoreOption) *MemoryStore {
	return &MemoryStore{
		users:        make(map[int64]*memoryHistory),
		storeOptions: newStoreOptions(opts),
	}
}

// Append stamps and stores ev under the store lock, so concurrent appends for
// one user get ids in the order they are inserted.
func (s *MemoryStore) Append(ctx context.Context, userID int64, ev Event) (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.live(userID, s.now())
	var floor int64
	if h != nil {
		floor = h.headNanos
	}

	ev = s.stamp(userID, ev, floor)
	raw, err := encodeEvent(ev)
	if err != nil {
		return Event{}, err
	}

	if h == nil {
		h = &memoryHistory{}
		s.users[userID] = h
	}
	h.records = append([][]byte{raw}, h.records...)
	h.headNanos = eventIDNanos(ev.ID)
	if len(h.records) > s.maxEvents {
		h.records = h.records[:s.maxEvents]
	}
	h.expiresAt = ev.Timestamp.Add(s.retention)
	return ev, nil
}

// List returns up to limit events, most recent first. An expired history is
// dropped and reads as empty.
func (s *MemoryStore) List(ctx context.Context, userID int64, limit int) ([]Event, error) {
	limit = normalizeLimit(limit)

	s.mu.Lock()
	h := s.live(userID, s.now())
	var raws [][]byte
	if h != nil {
		raws = h.records[:min(limit, len(h.records))]
	}
	s.mu.Unlock()

	events := make([]Event, 0, len(raws))
	for _, raw := range raws {
		ev, err := decodeEvent(raw)
		if err != nil {
			s.logger.LogAttrs(ctx, slog.LevelWarn, "skipping undecodable notification record",
				logger.UserID(userID),
				logger.Error(err),
			)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// live returns the user's history, dropping it when expired. Callers hold s.mu.
func (s *MemoryStore) live(userID int64, now time.Time) *memoryHistory {
	h, ok := s.users[userID]
	if !ok {
		return nil
	}
	if !now.Before(h.expiresAt) {
		delete(s.users, userID)
		return nil
	}
	return h
}
