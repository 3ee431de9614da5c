package internal

import (
	"encoding/json"
	"fmt"
	"time"
)

// PayloadKind selects the envelope shape sent to the webhook.
type PayloadKind string

const (
	PayloadMessage PayloadKind = "message"
	PayloadInit    PayloadKind = "init"
	PayloadProbe   PayloadKind = "probe"
)

// Message types carried in the "type" field.
const (
	MessageTypeText  = "text"
	MessageTypeAudio = "audio"
)

const initAction = "init_session"

// isoMillis matches JavaScript's Date.toISOString output.
const isoMillis = "2006-01-02T15:04:05.000Z"

// Envelope is the set of fields a payload can carry. Which of them end up on
// the wire depends on Kind.
type Envelope struct {
	Kind      PayloadKind
	Message   string
	SessionID string
	UserID    string
	IsAudio   bool
	Source    string
	Time      time.Time
}

// messagePayload keys are part of the contract with the workflow engine.
type messagePayload struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Source    string `json:"source"`
}

type initPayload struct {
	Action    string `json:"action"`
	UserID    string `json:"userId"`
	Timestamp string `json:"timestamp"`
	Source    string `json:"source"`
}

// Marshal renders the wire JSON for the envelope.
func (e Envelope) Marshal() ([]byte, error) {
	ts := e.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	stamp := ts.UTC().Format(isoMillis)

	switch e.Kind {
	case PayloadMessage, PayloadProbe:
		typ := MessageTypeText
		if e.IsAudio {
			typ = MessageTypeAudio
		}
		return json.Marshal(messagePayload{
			Message:   e.Message,
			SessionID: e.SessionID,
			Timestamp: stamp,
			Type:      typ,
			Source:    e.Source,
		})
	case PayloadInit:
		return json.Marshal(initPayload{
			Action:    initAction,
			UserID:    e.UserID,
			Timestamp: stamp,
			Source:    e.Source,
		})
	default:
		return nil, fmt.Errorf("unknown payload kind %q", e.Kind)
	}
}

// MessageEnvelope builds a chat message envelope.
func MessageEnvelope(message, sessionID string, isAudio bool, source string) Envelope {
	return Envelope{
		Kind:      PayloadMessage,
		Message:   message,
		SessionID: sessionID,
		IsAudio:   isAudio,
		Source:    source,
	}
}

// InitEnvelope builds a session initialization envelope.
func InitEnvelope(userID, source string) Envelope {
	return Envelope{
		Kind:   PayloadInit,
		UserID: userID,
		Source: source,
	}
}

// ProbeEnvelope builds the test message used by the health check.
func ProbeEnvelope(message, source string, now time.Time) Envelope {
	return Envelope{
		Kind:      PayloadProbe,
		Message:   message,
		SessionID: fmt.Sprintf("test-%d", now.UnixMilli()),
		Source:    source + "-test",
		Time:      now,
	}
}
