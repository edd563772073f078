package email_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdictaid/notifier/pkg/email"
)

func TestNewPostmarkClient(t *testing.T) {
	t.Parallel()

	valid := email.Config{
		PostmarkServerToken:  "test-server-token",
		PostmarkAccountToken: "test-account-token",
		SenderEmail:          "noreply@example.com",
		SupportEmail:         "support@example.com",
	}

	tests := []struct {
		name    string
		mutate  func(*email.Config)
		wantErr string
	}{
		{name: "valid config", mutate: func(*email.Config) {}},
		{name: "support address optional", mutate: func(c *email.Config) { c.SupportEmail = "" }},
		{name: "empty server token", mutate: func(c *email.Config) { c.PostmarkServerToken = "" }, wantErr: "PostmarkServerToken is required"},
		{name: "empty account token", mutate: func(c *email.Config) { c.PostmarkAccountToken = "" }, wantErr: "PostmarkAccountToken is required"},
		{name: "missing sender", mutate: func(c *email.Config) { c.SenderEmail = "" }, wantErr: "SenderEmail is required"},
		{name: "malformed sender", mutate: func(c *email.Config) { c.SenderEmail = "noreply" }, wantErr: "SenderEmail must be a valid email address"},
		{name: "malformed support", mutate: func(c *email.Config) { c.SupportEmail = "support@" }, wantErr: "SupportEmail must be a valid email address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid
			tt.mutate(&cfg)

			client, err := email.NewPostmarkClient(cfg)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.NotNil(t, client)
				return
			}
			assert.Nil(t, client)
			assert.ErrorIs(t, err, email.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMustNewPostmarkClient(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		email.MustNewPostmarkClient(email.Config{})
	})
}
