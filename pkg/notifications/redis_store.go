package notifications

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/verdictaid/notifier/pkg/logger"
)

// RedisStore keeps each user's history in a Redis list at <prefix><user_id>,
// newest first, trimmed to the configured size and expiring after the
// retention period since the last append.
type RedisStore struct {
	client redis.UniversalClient
	storeOptions
}

// NewRedisStore creates a store backed by client.
func NewRedisStore(client redis.UniversalClient, opts ...StoreOption) *RedisStore {
	return &RedisStore{
		client:       client,
		storeOptions: newStoreOptions(opts),
	}
}

func (s *RedisStore) key(userID int64) string {
	return s.keyPrefix + strconv.FormatInt(userID, 10)
}

// maxAppendAttempts bounds optimistic retries when concurrent writers keep
// changing the same history.
const maxAppendAttempts = 1000

// Append pushes the event, trims the list and refreshes its TTL in one
// MULTI/EXEC transaction guarded by WATCH on the user's key. The id is
// derived from the newest stored record inside that guard, so list order and
// id order agree across goroutines and processes. A conflicting write only
// re-runs the transaction; backend failures are not retried.
func (s *RedisStore) Append(ctx context.Context, userID int64, ev Event) (Event, error) {
	key := s.key(userID)

	for range maxAppendAttempts {
		var stored Event
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			floor, err := s.headNanos(ctx, tx, key)
			if err != nil {
				return err
			}
			stored = s.stamp(userID, ev, floor)
			raw, err := encodeEvent(stored)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.LPush(ctx, key, raw)
				pipe.LTrim(ctx, key, 0, int64(s.maxEvents-1))
				pipe.Expire(ctx, key, s.retention)
				return nil
			})
			return err
		}, key)

		switch {
		case err == nil:
			return stored, nil
		case errors.Is(err, ErrInvalidPayload):
			return Event{}, err
		case errors.Is(err, redis.TxFailedErr) && ctx.Err() == nil:
			continue
		default:
			return Event{}, errors.Join(ErrStoreUnavailable, err)
		}
	}
	return Event{}, errors.Join(ErrStoreUnavailable, redis.TxFailedErr)
}

// headNanos returns the id nanos of the newest record, zero for an empty or
// unreadable head.
func (s *RedisStore) headNanos(ctx context.Context, tx *redis.Tx, key string) (int64, error) {
	raw, err := tx.LIndex(ctx, key, 0).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	head, err := decodeEvent([]byte(raw))
	if err != nil {
		return 0, nil
	}
	return eventIDNanos(head.ID), nil
}

// List reads up to limit events, most recent first. Records that fail to
// decode are logged and skipped.
func (s *RedisStore) List(ctx context.Context, userID int64, limit int) ([]Event, error) {
	limit = normalizeLimit(limit)

	raws, err := s.client.LRange(ctx, s.key(userID), 0, int64(limit-1)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	events := make([]Event, 0, len(raws))
	for _, raw := range raws {
		ev, err := decodeEvent([]byte(raw))
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

// Ping reports whether the backing Redis answers.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}
