package email_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdictaid/notifier/pkg/email"
)

func TestSendEmailParams_Validate(t *testing.T) {
	t.Parallel()

	valid := email.SendEmailParams{
		SendTo:   "user@example.com",
		Subject:  "Document Processing Complete",
		BodyHTML: "<p>ready</p>",
	}

	tests := []struct {
		name    string
		mutate  func(*email.SendEmailParams)
		wantErr string
	}{
		{name: "valid params", mutate: func(*email.SendEmailParams) {}},
		{name: "empty recipient", mutate: func(p *email.SendEmailParams) { p.SendTo = "" }, wantErr: "SendTo is required"},
		{name: "whitespace recipient", mutate: func(p *email.SendEmailParams) { p.SendTo = "   " }, wantErr: "SendTo is required"},
		{name: "malformed recipient", mutate: func(p *email.SendEmailParams) { p.SendTo = "invalid-email" }, wantErr: "valid email address"},
		{name: "recipient without domain", mutate: func(p *email.SendEmailParams) { p.SendTo = "user@" }, wantErr: "valid email address"},
		{name: "empty subject", mutate: func(p *email.SendEmailParams) { p.Subject = "" }, wantErr: "Subject is required"},
		{name: "empty body", mutate: func(p *email.SendEmailParams) { p.BodyHTML = " " }, wantErr: "BodyHTML is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			params := valid
			tt.mutate(&params)

			err := params.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, email.ErrInvalidParams)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDevSender_SendEmail(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("writes html and metadata", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		sender := email.NewDevSender(dir)

		err := sender.SendEmail(ctx, email.SendEmailParams{
			SendTo:   "user@example.com",
			Subject:  "Document Processing Complete",
			BodyHTML: "<p>ready</p>",
			Tag:      "document-processed",
		})
		require.NoError(t, err)

		files, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, files, 2)

		for _, f := range files {
			content, err := os.ReadFile(filepath.Join(dir, f.Name()))
			require.NoError(t, err)
			assert.Contains(t, f.Name(), "document-processed")

			switch {
			case strings.HasSuffix(f.Name(), ".html"):
				assert.Equal(t, "<p>ready</p>", string(content))
			case strings.HasSuffix(f.Name(), ".json"):
				var meta map[string]any
				require.NoError(t, json.Unmarshal(content, &meta))
				assert.Equal(t, "user@example.com", meta["send_to"])
				assert.Equal(t, "Document Processing Complete", meta["subject"])
				assert.Equal(t, "document-processed", meta["tag"])
			default:
				t.Fatalf("unexpected file %s", f.Name())
			}
		}
	})

	t.Run("same tag twice keeps both messages", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		sender := email.NewDevSender(dir)
		params := email.SendEmailParams{
			SendTo:   "user@example.com",
			Subject:  "Task Completion Notification",
			BodyHTML: "<p>done</p>",
		}

		require.NoError(t, sender.SendEmail(ctx, params))
		require.NoError(t, sender.SendEmail(ctx, params))

		files, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, files, 4)
		assert.Contains(t, files[0].Name(), "task_completion_notification")
	})

	t.Run("validation error writes nothing", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		err := email.NewDevSender(dir).SendEmail(ctx, email.SendEmailParams{
			Subject:  "x",
			BodyHTML: "<p>x</p>",
		})
		assert.ErrorIs(t, err, email.ErrInvalidParams)

		files, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, files)
	})

	t.Run("unwritable directory", func(t *testing.T) {
		t.Parallel()

		err := email.NewDevSender("/dev/null/cannot-create-here").SendEmail(ctx, email.SendEmailParams{
			SendTo:   "user@example.com",
			Subject:  "x",
			BodyHTML: "<p>x</p>",
		})
		assert.ErrorIs(t, err, email.ErrFailedToSendEmail)
		assert.Contains(t, err.Error(), "failed to create directory")
	})
}

func TestNewSender(t *testing.T) {
	t.Parallel()

	t.Run("falls back to dev sender", func(t *testing.T) {
		s, err := email.NewSender(email.Config{SenderEmail: "noreply@example.com", DevOutputDir: t.TempDir()})
		require.NoError(t, err)
		assert.IsType(t, &email.DevSender{}, s)
	})

	t.Run("postmark when configured", func(t *testing.T) {
		s, err := email.NewSender(email.Config{
			PostmarkServerToken:  "server",
			PostmarkAccountToken: "account",
			SenderEmail:          "noreply@example.com",
		})
		require.NoError(t, err)
		_, isDev := s.(*email.DevSender)
		assert.False(t, isDev)
	})
}
