package notifications

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	sq "github.com/Masterminds/squirrel"

	"github.com/verdictaid/notifier/pkg/logger"
)

// DeviceDirectory resolves the registered, active delivery endpoints of a user.
type DeviceDirectory interface {
	ActiveDevices(ctx context.Context, userID int64) ([]Device, error)
}

// SQLDirectory reads devices from the user_devices table joined with users
// for the owner's email address.
type SQLDirectory struct {
	db     sq.QueryerContext
	logger *slog.Logger
}

// SQLDirectoryOption configures a SQLDirectory.
type SQLDirectoryOption func(*SQLDirectory)

// WithDirectoryLogger sets the directory logger. Nil keeps slog.Default().
func WithDirectoryLogger(l *slog.Logger) SQLDirectoryOption {
	return func(d *SQLDirectory) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewSQLDirectory creates a directory over db, which must be a Postgres connection.
func NewSQLDirectory(db *sql.DB, opts ...SQLDirectoryOption) *SQLDirectory {
	d := &SQLDirectory{
		db:     db,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func activeDevicesQuery(userID int64) sq.SelectBuilder {
	return sq.Select(
		"d.id",
		"d.user_id",
		"d.notification_channel",
		"d.is_active",
		"COALESCE(u.email, '')",
		"COALESCE(d.push_subscription, '')",
		"COALESCE(d.fcm_token, '')",
	).
		From("user_devices d").
		Join("users u ON u.id = d.user_id").
		Where(sq.Eq{"d.user_id": userID}).
		Where(sq.Eq{"d.is_active": true}).
		OrderBy("d.id").
		PlaceholderFormat(sq.Dollar)
}

// ActiveDevices returns the user's active devices ordered by id. Rows with an
// unrecognized channel are logged and skipped.
func (d *SQLDirectory) ActiveDevices(ctx context.Context, userID int64) ([]Device, error) {
	query, args, err := activeDevicesQuery(userID).ToSql()
	if err != nil {
		return nil, errors.Join(ErrDirectoryFailure, err)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Join(ErrDirectoryFailure, err)
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		var (
			dev     Device
			channel string
		)
		if err := rows.Scan(&dev.ID, &dev.UserID, &channel, &dev.IsActive, &dev.Email, &dev.PushSubscription, &dev.FCMToken); err != nil {
			return nil, errors.Join(ErrDirectoryFailure, err)
		}
		kind, err := ParseChannelKind(channel)
		if err != nil {
			d.logger.LogAttrs(ctx, slog.LevelWarn, "skipping device with unknown channel",
				logger.UserID(userID),
				logger.DeviceID(dev.ID),
				logger.Error(err),
			)
			continue
		}
		dev.Channel = kind
		devices = append(devices, dev)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrDirectoryFailure, err)
	}
	return devices, nil
}

// StaticDirectory serves a fixed device list per user. Used when no database
// is configured and in tests.
type StaticDirectory map[int64][]Device

// ActiveDevices returns the user's devices that are marked active.
func (s StaticDirectory) ActiveDevices(_ context.Context, userID int64) ([]Device, error) {
	var out []Device
	for _, d := range s[userID] {
		if d.IsActive {
			out = append(out, d)
		}
	}
	return out, nil
}
