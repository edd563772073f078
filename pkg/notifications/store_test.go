package notifications

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdictaid/notifier/pkg/logger"
)

type storeFactory struct {
	name string
	new  func(t *testing.T, opts ...StoreOption) Store
}

func newMiniredisStore(t *testing.T, opts ...StoreOption) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	opts = append([]StoreOption{WithStoreLogger(logger.Discard())}, opts...)
	return NewRedisStore(client, opts...), mr
}

func storeFactories() []storeFactory {
	return []storeFactory{
		{
			name: "redis",
			new: func(t *testing.T, opts ...StoreOption) Store {
				s, _ := newMiniredisStore(t, opts...)
				return s
			},
		},
		{
			name: "memory",
			new: func(t *testing.T, opts ...StoreOption) Store {
				return NewMemoryStore(append([]StoreOption{WithStoreLogger(logger.Discard())}, opts...)...)
			},
		},
	}
}

func TestStore_BoundedHistory(t *testing.T) {
	t.Parallel()

	for _, f := range storeFactories() {
		t.Run(f.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			s := f.new(t, WithMaxEvents(100))

			var last Event
			for i := 1; i <= 105; i++ {
				ev, err := s.Append(ctx, 7, Event{Type: "document_processed", Payload: Payload{"seq": i}})
				require.NoError(t, err)
				last = ev
			}

			events, err := s.List(ctx, 7, 1000)
			require.NoError(t, err)
			require.Len(t, events, 100)
			assert.Equal(t, last.ID, events[0].ID)
			assert.EqualValues(t, 105, events[0].Payload["seq"])
			assert.EqualValues(t, 6, events[99].Payload["seq"])
		})
	}
}

func TestStore_OrderPreservation(t *testing.T) {
	t.Parallel()

	for _, f := range storeFactories() {
		t.Run(f.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			s := f.new(t)

			ids := make([]string, 0, 10)
			for i := range 10 {
				ev, err := s.Append(ctx, 11, Event{Type: fmt.Sprintf("t%d", i)})
				require.NoError(t, err)
				ids = append(ids, ev.ID)
			}

			events, err := s.List(ctx, 11, 10)
			require.NoError(t, err)
			require.Len(t, events, 10)
			for i, ev := range events {
				assert.Equal(t, ids[len(ids)-1-i], ev.ID)
			}
			for i := 1; i < len(events); i++ {
				assert.False(t, events[i].Timestamp.After(events[i-1].Timestamp))
			}
		})
	}
}

func TestStore_ConcurrentAppendsKeepIDOrder(t *testing.T) {
	t.Parallel()

	const (
		writers   = 50
		perWriter = 4
	)

	for _, f := range storeFactories() {
		t.Run(f.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			s := f.new(t, WithMaxEvents(1000))

			var wg sync.WaitGroup
			for range writers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for range perWriter {
						_, err := s.Append(ctx, 7, Event{Type: "task_completed"})
						assert.NoError(t, err)
					}
				}()
			}
			wg.Wait()

			events, err := s.List(ctx, 7, 1000)
			require.NoError(t, err)
			require.Len(t, events, writers*perWriter)
			for i := 1; i < len(events); i++ {
				assert.Greater(t, eventIDNanos(events[i-1].ID), eventIDNanos(events[i].ID),
					"event %d is newer in the list but has an older id", i)
				assert.False(t, events[i].Timestamp.After(events[i-1].Timestamp))
			}
		})
	}
}

func TestRedisStore_IDFollowsNewestStoredRecord(t *testing.T) {
	t.Parallel()

	s, mr := newMiniredisStore(t)
	ctx := context.Background()

	ahead := time.Now().Add(time.Minute).UnixNano()
	_, err := mr.Lpush(DefaultKeyPrefix+"31", fmt.Sprintf(
		`{"id":"31:%d","timestamp":"2025-01-01T00:00:00Z","data":{"type":"other_writer","user_id":31,"payload":null}}`, ahead))
	require.NoError(t, err)

	ev, err := s.Append(ctx, 31, Event{Type: "task_completed"})
	require.NoError(t, err)
	assert.Greater(t, eventIDNanos(ev.ID), ahead)

	events, err := s.List(ctx, 31, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, ev.ID, events[0].ID)
}

func TestStore_Append(t *testing.T) {
	t.Parallel()

	for _, f := range storeFactories() {
		t.Run(f.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			s := f.new(t)

			ev, err := s.Append(ctx, 1, Event{Type: "document_processed", Payload: Payload{"document_id": 42}})
			require.NoError(t, err)
			assert.NotEmpty(t, ev.ID)
			assert.Equal(t, int64(1), ev.UserID)
			assert.Equal(t, time.UTC, ev.Timestamp.Location())

			events, err := s.List(ctx, 1, 1)
			require.NoError(t, err)
			require.Len(t, events, 1)
			assert.Equal(t, ev.ID, events[0].ID)
			assert.Equal(t, "document_processed", events[0].Type)
			assert.Equal(t, int64(1), events[0].UserID)
			assert.EqualValues(t, 42, events[0].Payload["document_id"])
			assert.True(t, ev.Timestamp.Equal(events[0].Timestamp))
		})
	}
}

func TestStore_List(t *testing.T) {
	t.Parallel()

	for _, f := range storeFactories() {
		t.Run(f.name+"/unknown user", func(t *testing.T) {
			t.Parallel()
			events, err := f.new(t).List(context.Background(), 404, 10)
			require.NoError(t, err)
			assert.NotNil(t, events)
			assert.Empty(t, events)
		})

		t.Run(f.name+"/non-positive limit uses default", func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			s := f.new(t)
			for range DefaultListLimit + 5 {
				_, err := s.Append(ctx, 2, Event{Type: "t"})
				require.NoError(t, err)
			}
			events, err := s.List(ctx, 2, 0)
			require.NoError(t, err)
			assert.Len(t, events, DefaultListLimit)
		})

		t.Run(f.name+"/users are isolated", func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			s := f.new(t)
			_, err := s.Append(ctx, 20, Event{Type: "a"})
			require.NoError(t, err)
			_, err = s.Append(ctx, 21, Event{Type: "b"})
			require.NoError(t, err)

			events, err := s.List(ctx, 20, 10)
			require.NoError(t, err)
			require.Len(t, events, 1)
			assert.Equal(t, "a", events[0].Type)
		})
	}
}

func TestStore_UnserializablePayload(t *testing.T) {
	t.Parallel()

	for _, f := range storeFactories() {
		t.Run(f.name, func(t *testing.T) {
			t.Parallel()
			_, err := f.new(t).Append(context.Background(), 1, Event{Type: "t", Payload: Payload{"ch": make(chan int)}})
			assert.ErrorIs(t, err, ErrInvalidPayload)
		})
	}
}

func TestRedisStore_Transaction(t *testing.T) {
	t.Parallel()

	s, mr := newMiniredisStore(t, WithKeyPrefix("n:"), WithMaxEvents(3), WithRetention(time.Hour))
	ctx := context.Background()
	for range 5 {
		_, err := s.Append(ctx, 9, Event{Type: "t"})
		require.NoError(t, err)
	}

	items, err := mr.List("n:9")
	require.NoError(t, err)
	assert.Len(t, items, 3)
	assert.Equal(t, time.Hour, mr.TTL("n:9"))

	mr.FastForward(time.Hour + time.Second)
	events, err := s.List(ctx, 9, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestRedisStore_SkipsUndecodableRecords(t *testing.T) {
	t.Parallel()

	s, mr := newMiniredisStore(t)
	ctx := context.Background()
	_, err := s.Append(ctx, 5, Event{Type: "ok"})
	require.NoError(t, err)
	_, err = mr.Lpush(DefaultKeyPrefix+"5", "not json")
	require.NoError(t, err)

	events, err := s.List(ctx, 5, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "ok", events[0].Type)
}

func TestRedisStore_Unavailable(t *testing.T) {
	t.Parallel()

	s, mr := newMiniredisStore(t)
	mr.Close()

	_, err := s.Append(context.Background(), 1, Event{Type: "t"})
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	_, err = s.List(context.Background(), 1, 10)
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	assert.ErrorIs(t, s.Ping(context.Background()), ErrStoreUnavailable)
}

func TestMemoryStore_Retention(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(WithRetention(time.Hour), WithStoreClock(func() time.Time { return now }))
	ctx := context.Background()

	_, err := s.Append(ctx, 1, Event{Type: "t"})
	require.NoError(t, err)

	now = now.Add(59 * time.Minute)
	_, err = s.Append(ctx, 1, Event{Type: "t"})
	require.NoError(t, err)

	now = now.Add(59 * time.Minute)
	events, err := s.List(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, events, 2, "retention is refreshed by every append")

	now = now.Add(2 * time.Minute)
	events, err = s.List(ctx, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}
