package intake

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/verdictaid/notifier/pkg/notifications"
)

// Message is the JSON document producers put on the notifications topic.
type Message struct {
	UserID  int64                 `json:"user_id"`
	Type    string                `json:"type"`
	Payload notifications.Payload `json:"payload,omitempty"`
}

func decodeMessage(raw []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		return Message{}, errors.Join(ErrMalformedMessage, err)
	}
	if m.UserID <= 0 {
		return Message{}, fmt.Errorf("%w: user_id must be positive", ErrMalformedMessage)
	}
	if strings.TrimSpace(m.Type) == "" {
		return Message{}, fmt.Errorf("%w: type is required", ErrMalformedMessage)
	}
	return m, nil
}
