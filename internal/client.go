package internal

import (
	"context"
	"net/http"
	"time"
)

// Timeouts bounds the outbound operations.
type Timeouts struct {
	AvailabilityCheck time.Duration `yaml:"availability_check"`
	SendMessage       time.Duration `yaml:"send_message"`
	InitSession       time.Duration `yaml:"init_session"`
	// Attempt bounds each single request inside the fallback chain. Zero
	// leaves attempts bounded only by the operation timeout.
	Attempt time.Duration `yaml:"attempt"`
}

// DefaultSessionID is used when a message is sent without a session.
const DefaultSessionID = "default"

// Client is the chat service: it sends messages and initializes sessions,
// always answering with something renderable.
type Client struct {
	dispatcher *Dispatcher
	normalizer *Normalizer
	source     string
	timeouts   Timeouts
}

// NewClient wires a chat service over an existing dispatcher.
func NewClient(dispatcher *Dispatcher, normalizer *Normalizer, source string, timeouts Timeouts) *Client {
	if normalizer == nil {
		normalizer = NewNormalizer(nil)
	}
	return &Client{
		dispatcher: dispatcher,
		normalizer: normalizer,
		source:     source,
		timeouts:   timeouts,
	}
}

// NewClientFromConfig builds the full delivery stack from cfg.
func NewClientFromConfig(cfg *Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	resolver := NewBypassResolver(httpClient, cfg.Relays, NewCandidateState(), cfg.Timeouts.Attempt)
	dispatcher := NewDispatcher(cfg.Endpoints, resolver, NewCandidateState())
	return NewClient(dispatcher, NewNormalizer(cfg.Location()), cfg.Source, cfg.Timeouts)
}

// Normalizer returns the normalizer used to stamp messages.
func (c *Client) Normalizer() *Normalizer {
	return c.normalizer
}

// Dispatcher returns the underlying dispatcher.
func (c *Client) Dispatcher() *Dispatcher {
	return c.dispatcher
}

// SendMessage delivers message for sessionID and returns the bot reply, or
// an error bubble when nothing could be delivered.
func (c *Client) SendMessage(ctx context.Context, message, sessionID string, isAudio bool) ChatMessage {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	LogSend(message, sessionID, isAudio)

	sig := NewTimeoutSignal(c.timeouts.SendMessage)
	resp, err := c.dispatcher.Dispatch(ctx, MessageEnvelope(message, sessionID, isAudio, c.source), sig)
	if err != nil {
		LogFailure("Failed to send message to webhook", err)
	}
	return c.normalizer.NormalizeMessage(resp, err)
}

// InitSession asks the webhook for a session id for userID. The user id
// itself is returned whenever the webhook does not provide one.
func (c *Client) InitSession(ctx context.Context, userID string) string {
	LogSend("session init", userID, false)

	sig := NewTimeoutSignal(c.timeouts.InitSession)
	resp, err := c.dispatcher.Dispatch(ctx, InitEnvelope(userID, c.source), sig)
	if err != nil {
		LogFailure("Failed to initialize session with webhook", err)
	}
	sessionID := c.normalizer.NormalizeSession(resp, userID)
	LogInfo("Session initialized with ID: %s", sessionID)
	return sessionID
}
