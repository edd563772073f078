package notifications

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/verdictaid/notifier/pkg/email"
)

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendEmail(ctx context.Context, params email.SendEmailParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

type MockWebPushTransport struct {
	mock.Mock
}

func (m *MockWebPushTransport) Send(ctx context.Context, subscription string, payload []byte) error {
	args := m.Called(ctx, subscription, payload)
	return args.Error(0)
}

type MockPushGateway struct {
	mock.Mock
}

func (m *MockPushGateway) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	args := m.Called(ctx, token, title, body, data)
	return args.Error(0)
}

type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) ActiveDevices(ctx context.Context, userID int64) ([]Device, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Device), args.Error(1)
}

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Append(ctx context.Context, userID int64, ev Event) (Event, error) {
	args := m.Called(ctx, userID, ev)
	return args.Get(0).(Event), args.Error(1)
}

func (m *MockStore) List(ctx context.Context, userID int64, limit int) ([]Event, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Event), args.Error(1)
}
