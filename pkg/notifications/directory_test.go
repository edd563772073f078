package notifications

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdictaid/notifier/pkg/logger"
)

const activeDevicesSQL = `SELECT d\.id, d\.user_id, d\.notification_channel, d\.is_active, .+ FROM user_devices d JOIN users u ON u\.id = d\.user_id WHERE d\.user_id = \$1 AND d\.is_active = \$2 ORDER BY d\.id`

var deviceColumns = []string{"id", "user_id", "notification_channel", "is_active", "email", "push_subscription", "fcm_token"}

func TestSQLDirectory_ActiveDevices(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(activeDevicesSQL).
		WithArgs(int64(7), true).
		WillReturnRows(sqlmock.NewRows(deviceColumns).
			AddRow(1, 7, "email", true, "owner@example.com", "", "").
			AddRow(2, 7, "web_push", true, "owner@example.com", `{"endpoint":"https://push.example.com"}`, "").
			AddRow(3, 7, "pager", true, "owner@example.com", "", "").
			AddRow(4, 7, "fcm", true, "owner@example.com", "", "tok"))

	dir := NewSQLDirectory(db, WithDirectoryLogger(logger.Discard()))
	devices, err := dir.ActiveDevices(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, devices, 3, "unknown channels are skipped")

	assert.Equal(t, ChannelEmail, devices[0].Channel)
	assert.Equal(t, "owner@example.com", devices[0].Email)
	assert.Equal(t, ChannelWebPush, devices[1].Channel)
	assert.NotEmpty(t, devices[1].PushSubscription)
	assert.Equal(t, ChannelFCM, devices[2].Channel)
	assert.Equal(t, "tok", devices[2].FCMToken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLDirectory_QueryError(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(activeDevicesSQL).WithArgs(int64(7), true).WillReturnError(errors.New("connection reset"))

	_, err = NewSQLDirectory(db).ActiveDevices(context.Background(), 7)
	assert.ErrorIs(t, err, ErrDirectoryFailure)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStaticDirectory(t *testing.T) {
	t.Parallel()

	dir := StaticDirectory{1: {{ID: 1, IsActive: true}, {ID: 2}}}
	devices, err := dir.ActiveDevices(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, int64(1), devices[0].ID)
}
