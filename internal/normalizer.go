package internal

import (
	"encoding/json"
	"sync"
	"time"
)

// ChatMessage is one entry of the conversation log.
type ChatMessage struct {
	ID        int64  `json:"id" yaml:"id"`
	IsUser    bool   `json:"isUser" yaml:"is_user"`
	Message   string `json:"message" yaml:"message"`
	Timestamp string `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	IsError   bool   `json:"isError,omitempty" yaml:"is_error,omitempty"`
}

// displayTime is the hour:minute 24-hour format used on chat bubbles.
const displayTime = "15:04"

// Normalizer turns webhook responses into chat messages and session ids.
// It never fails.
type Normalizer struct {
	now      func() time.Time
	location *time.Location

	mu     sync.Mutex
	lastID int64
}

// NewNormalizer creates a Normalizer stamping times in loc (local time if nil).
func NewNormalizer(loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.Local
	}
	return &Normalizer{
		now:      time.Now,
		location: loc,
	}
}

// nextID derives an id from the current time in ms, bumped so ids strictly increase.
func (n *Normalizer) nextID(t time.Time) int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := t.UnixMilli()
	if id <= n.lastID {
		id = n.lastID + 1
	}
	n.lastID = id
	return id
}

func (n *Normalizer) newMessage(text string, isUser, isError bool) ChatMessage {
	t := n.now()
	return ChatMessage{
		ID:        n.nextID(t),
		IsUser:    isUser,
		Message:   text,
		Timestamp: t.In(n.location).Format(displayTime),
		IsError:   isError,
	}
}

// UserMessage stamps a locally typed message.
func (n *Normalizer) UserMessage(text string) ChatMessage {
	return n.newMessage(text, true, false)
}

// Notice stamps a locally synthesized bot message.
func (n *Normalizer) Notice(text string, isError bool) ChatMessage {
	return n.newMessage(text, false, isError)
}

// ErrorMessage synthesizes the canned error bubble for f.
func (n *Normalizer) ErrorMessage(f FailureText) ChatMessage {
	return n.newMessage(f.Text(), false, true)
}

// NormalizeMessage converts a dispatch result into a bot message. A nil
// response is turned into an error bubble chosen from err's kind.
func (n *Normalizer) NormalizeMessage(resp *Response, err error) ChatMessage {
	if resp == nil {
		return n.ErrorMessage(failureForDispatch(err))
	}

	if resp.Opaque {
		return n.Notice(TextOpaqueResponse, false)
	}

	text := resp.Text()
	data, isJSON := decodeJSON(text)
	if !isJSON {
		if text == "" {
			text = TextEmptyResponse
		}
		LogReceive(map[string]string{"message": text})
		return n.Notice(text, false)
	}

	LogReceive(data)
	msg := firstString(data, "message", "response")
	if msg == "" {
		msg = TextEmptyResponse
	}
	return n.Notice(msg, false)
}

// NormalizeSession extracts the session id from an init response, falling
// back to fallbackUserID whenever no id can be read.
func (n *Normalizer) NormalizeSession(resp *Response, fallbackUserID string) string {
	if resp == nil || resp.Opaque {
		return fallbackUserID
	}
	data, isJSON := decodeJSON(resp.Text())
	if !isJSON {
		return fallbackUserID
	}
	LogReceive(data)
	if id := firstString(data, "sessionId"); id != "" {
		return id
	}
	return fallbackUserID
}

// failureForDispatch treats a bare nil response as a connection failure.
func failureForDispatch(err error) FailureText {
	if err == nil {
		return FailureConnection
	}
	return FailureFor(KindOf(err))
}

// decodeJSON reports whether text is valid JSON and returns it when it is
// an object. Valid non-object documents yield a nil map, so field lookups
// on them fall back to the placeholder.
func decodeJSON(text string) (map[string]any, bool) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, false
	}
	data, _ := v.(map[string]any)
	return data, true
}

// firstString returns the first key holding a non-empty string. Numbers
// and booleans are rendered, other shapes are skipped.
func firstString(data map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := data[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64, bool:
			b, _ := json.Marshal(v)
			return string(b)
		}
	}
	return ""
}
