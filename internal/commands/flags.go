package commands

import (
	"encoding/json"
	"fmt"

	"github.com/verdictaid/notifier/pkg/notifications"
)

// Flags holds the global options shared by every command.
type Flags struct {
	LogLevel string
	EnvFiles []string
}

func parsePayload(raw string) (notifications.Payload, error) {
	if raw == "" {
		return nil, nil
	}
	var p notifications.Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("parse --payload: %w", err)
	}
	return p, nil
}
