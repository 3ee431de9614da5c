package internal

import (
	"context"
	"errors"
	"strings"
)

// SessionState tracks where a conversation is in session setup.
type SessionState int

const (
	StateNoSession SessionState = iota
	StateInitializing
	StateActive
	StateActiveWithFallbackID
)

func (s SessionState) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateActive:
		return "active"
	case StateActiveWithFallbackID:
		return "active (fallback id)"
	default:
		return "no session"
	}
}

// ErrEmptyMessage is returned when the user submits only whitespace.
var ErrEmptyMessage = errors.New("message is empty")

// Conversation owns the ordered message log of one chat. The log is
// append-only. A Conversation is not safe for concurrent use; the caller
// sends one message at a time.
type Conversation struct {
	client   *Client
	boot     *Bootstrapper
	messages []ChatMessage

	sessionID       string
	userID          string
	state           SessionState
	connectionError bool
}

// NewConversation starts an empty conversation with no session.
func NewConversation(client *Client, boot *Bootstrapper) *Conversation {
	return &Conversation{
		client: client,
		boot:   boot,
		state:  StateNoSession,
	}
}

// Greet appends the opening bot question.
func (c *Conversation) Greet() ChatMessage {
	msg := c.client.Normalizer().Notice(TextGreeting, false)
	c.append(msg)
	return msg
}

// Messages returns a copy of the log.
func (c *Conversation) Messages() []ChatMessage {
	out := make([]ChatMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// SessionID returns the current session id, empty before the first send.
func (c *Conversation) SessionID() string {
	return c.sessionID
}

// UserID returns the user id the session was initialized for.
func (c *Conversation) UserID() string {
	return c.userID
}

// State returns the session state.
func (c *Conversation) State() SessionState {
	return c.state
}

// ConnectionError reports whether the last exchange failed.
func (c *Conversation) ConnectionError() bool {
	return c.connectionError
}

func (c *Conversation) append(msg ChatMessage) {
	c.messages = append(c.messages, msg)
}

func (c *Conversation) ensureSession(ctx context.Context) string {
	if c.state == StateActive || c.state == StateActiveWithFallbackID {
		return c.sessionID
	}
	c.state = StateInitializing
	c.apply(c.boot.EnsureSession(ctx, c.sessionID))
	return c.sessionID
}

func (c *Conversation) apply(res SessionResult) {
	c.sessionID = res.ID
	if res.UserID != "" {
		c.userID = res.UserID
	}
	c.connectionError = res.ConnectionError
	if res.ConnectionError {
		c.state = StateActiveWithFallbackID
	} else {
		c.state = StateActive
	}
}

// Send delivers a typed message. The user's message is appended before the
// request is made and the reply after it, so the log grows by exactly two.
func (c *Conversation) Send(ctx context.Context, text string) (ChatMessage, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ChatMessage{}, ErrEmptyMessage
	}
	sessionID := c.ensureSession(ctx)

	c.append(c.client.Normalizer().UserMessage(text))
	return c.reply(c.client.SendMessage(ctx, trimmed, sessionID, false)), nil
}

// SendAudio appends the audio placeholder bubble and sends the fixed
// transcription as an audio message.
func (c *Conversation) SendAudio(ctx context.Context) ChatMessage {
	sessionID := c.ensureSession(ctx)

	c.append(c.client.Normalizer().UserMessage(TextAudioEcho))
	return c.reply(c.client.SendMessage(ctx, AudioTranscription, sessionID, true))
}

func (c *Conversation) reply(msg ChatMessage) ChatMessage {
	c.connectionError = msg.IsError
	c.append(msg)
	return msg
}

// Retry re-initializes the session with a fresh user id and appends a
// notice describing the outcome.
func (c *Conversation) Retry(ctx context.Context) ChatMessage {
	c.state = StateInitializing
	c.apply(c.boot.Reinitialize(ctx))

	n := c.client.Normalizer()
	var msg ChatMessage
	if c.connectionError {
		msg = n.Notice(TextRestoreFailed, true)
	} else {
		msg = n.Notice(TextConnectionRestore, false)
	}
	c.append(msg)
	return msg
}

// Transcript snapshots the log for export.
func (c *Conversation) Transcript() *Transcript {
	return NewTranscript(c.sessionID, c.userID, c.client.source, c.messages)
}
