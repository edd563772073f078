package notifications

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

const (
	DefaultTitle = "New Notification"
	DefaultBody  = "You have a new notification"
)

// Payload is the free-form data attached to a notification.
type Payload map[string]any

// Title returns payload["title"] when it is a non-empty string, DefaultTitle otherwise.
func (p Payload) Title() string {
	return p.stringOr("title", DefaultTitle)
}

// Body returns payload["body"] when it is a non-empty string, DefaultBody otherwise.
func (p Payload) Body() string {
	return p.stringOr("body", DefaultBody)
}

func (p Payload) stringOr(key, fallback string) string {
	if s, ok := p[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

// Strings flattens the payload into string values. Strings are kept as is,
// everything else is JSON encoded.
func (p Payload) Strings() map[string]string {
	if len(p) == 0 {
		return nil
	}
	out := make(map[string]string, len(p))
	for k, v := range p {
		switch val := v.(type) {
		case string:
			out[k] = val
		case nil:
			out[k] = ""
		case bool:
			out[k] = strconv.FormatBool(val)
		default:
			raw, err := json.Marshal(val)
			if err != nil {
				out[k] = fmt.Sprint(val)
				continue
			}
			out[k] = string(raw)
		}
	}
	return out
}

// Event is a notification as persisted in a user's history.
type Event struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   Payload   `json:"payload,omitempty"`
}

// record is the serialized form of an Event inside a user's list.
type record struct {
	ID        string     `json:"id"`
	Timestamp time.Time  `json:"timestamp"`
	Data      recordData `json:"data"`
}

type recordData struct {
	Type    string  `json:"type"`
	UserID  int64   `json:"user_id"`
	Payload Payload `json:"payload"`
}

func encodeEvent(ev Event) ([]byte, error) {
	raw, err := json.Marshal(record{
		ID:        ev.ID,
		Timestamp: ev.Timestamp,
		Data: recordData{
			Type:    ev.Type,
			UserID:  ev.UserID,
			Payload: ev.Payload,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return raw, nil
}

func decodeEvent(raw []byte) (Event, error) {
	var r record
	if err := json.Unmarshal(raw, &r); err != nil {
		return Event{}, err
	}
	if r.ID == "" {
		return Event{}, errRecordWithoutID
	}
	return Event{
		ID:        r.ID,
		UserID:    r.Data.UserID,
		Type:      r.Data.Type,
		Timestamp: r.Timestamp,
		Payload:   r.Data.Payload,
	}, nil
}

var errRecordWithoutID = errors.New("record without id")

var lastIDNanos atomic.Int64

// newEventID derives "<user>:<nanos>" from now. The nanos are greater than
// every id issued by this process and greater than floor, the nanos of the
// newest record already stored for the user, so ids follow insertion order
// even when several writers share a history.
func newEventID(userID int64, now time.Time, floor int64) string {
	for {
		last := lastIDNanos.Load()
		n := max(now.UnixNano(), last+1, floor+1)
		if lastIDNanos.CompareAndSwap(last, n) {
			return strconv.FormatInt(userID, 10) + ":" + strconv.FormatInt(n, 10)
		}
	}
}

// eventIDNanos extracts the nanos part of an event id. Ids it cannot parse
// report zero.
func eventIDNanos(id string) int64 {
	_, raw, ok := strings.Cut(id, ":")
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
