package internal

import (
	"context"
	"fmt"
	"time"
)

// SessionResult is the outcome of bootstrapping a session.
type SessionResult struct {
	ID     string
	UserID string
	// ConnectionError is set when the id is a locally generated fallback.
	ConnectionError bool
}

// Bootstrapper establishes the session id for a conversation.
type Bootstrapper struct {
	client     *Client
	identities IdentityStore
	now        func() time.Time
}

// NewBootstrapper creates a Bootstrapper persisting the user id in identities.
func NewBootstrapper(client *Client, identities IdentityStore) *Bootstrapper {
	if identities == nil {
		identities = NewMemoryIdentityStore()
	}
	return &Bootstrapper{
		client:     client,
		identities: identities,
		now:        time.Now,
	}
}

// EnsureSession returns existing unchanged when it is set. Otherwise it loads
// or creates the user id and initializes a session with the webhook. It
// never fails: any error yields a fallback id with ConnectionError set.
func (b *Bootstrapper) EnsureSession(ctx context.Context, existing string) SessionResult {
	if existing != "" {
		return SessionResult{ID: existing}
	}

	userID, err := LoadOrCreateUserID(ctx, b.identities)
	if err != nil {
		return b.fallback(err)
	}
	return b.initialize(ctx, userID)
}

// Reinitialize generates a fresh user id, persists it and initializes a new
// session. It backs the "retry connection" action.
func (b *Bootstrapper) Reinitialize(ctx context.Context) SessionResult {
	userID := NewUserID()
	if err := b.identities.Save(ctx, userID); err != nil {
		return b.fallback(err)
	}
	return b.initialize(ctx, userID)
}

func (b *Bootstrapper) initialize(ctx context.Context, userID string) SessionResult {
	if err := ctx.Err(); err != nil {
		return b.fallback(err)
	}
	return SessionResult{ID: b.client.InitSession(ctx, userID), UserID: userID}
}

func (b *Bootstrapper) fallback(err error) SessionResult {
	LogFailure("Session initialization failed, using fallback id", err)
	return SessionResult{
		ID:              fmt.Sprintf("fallback-session-%d", b.now().UnixMilli()),
		ConnectionError: true,
	}
}
