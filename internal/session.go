package internal

import "time"

// Transcript is an exported copy of one conversation
type Transcript struct {
	SessionID  string        `json:"sessionId" yaml:"session_id"`
	UserID     string        `json:"userId,omitempty" yaml:"user_id,omitempty"`
	Source     string        `json:"source" yaml:"source"`
	ExportedAt string        `json:"exportedAt" yaml:"exported_at"`
	Messages   []ChatMessage `json:"messages" yaml:"messages"`
}

// Actor names who produced msg: "user", "bot" or "error"
func Actor(msg ChatMessage) string {
	switch {
	case msg.IsUser:
		return "user"
	case msg.IsError:
		return "error"
	default:
		return "bot"
	}
}

// NewTranscript snapshots messages for export
func NewTranscript(sessionID, userID, source string, messages []ChatMessage) *Transcript {
	return &Transcript{
		SessionID:  sessionID,
		UserID:     userID,
		Source:     source,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Messages:   append([]ChatMessage(nil), messages...),
	}
}
