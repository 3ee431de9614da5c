package internal

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"testing"

	"github.com/iksnae/hookchat/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fallbackIDPattern = regexp.MustCompile(`^fallback-session-\d+$`)

func TestEnsureSessionExistingIsNoop(t *testing.T) {
	hook := testutil.NewWebhook(t, testutil.Reply{Body: testutil.SessionReply("new")})
	boot := NewBootstrapper(NewClientFromConfig(testConfig(hook.URL), nil), nil)

	res := boot.EnsureSession(context.Background(), "abc")
	assert.Equal(t, "abc", res.ID)
	assert.False(t, res.ConnectionError)
	assert.Equal(t, 0, hook.Count())
}

func TestEnsureSessionInitializes(t *testing.T) {
	hook := testutil.NewWebhook(t, testutil.Reply{Body: testutil.SessionReply("abc")})
	store := NewMemoryIdentityStore()
	boot := NewBootstrapper(NewClientFromConfig(testConfig(hook.URL), nil), store)

	res := boot.EnsureSession(context.Background(), "")
	assert.Equal(t, "abc", res.ID)
	assert.False(t, res.ConnectionError)

	stored, ok, err := store.Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, stored, res.UserID)
	assert.Equal(t, stored, hook.Requests()[0].JSON(t)["userId"])
}

func TestEnsureSessionReusesStoredUser(t *testing.T) {
	hook := testutil.NewWebhook(t, testutil.Reply{Body: `{}`})
	store := NewMemoryIdentityStore()
	require.NoError(t, store.Save(context.Background(), "user-known"))
	boot := NewBootstrapper(NewClientFromConfig(testConfig(hook.URL), nil), store)

	// no session id in the reply, so the user id doubles as session id
	res := boot.EnsureSession(context.Background(), "")
	assert.Equal(t, "user-known", res.ID)
	assert.Equal(t, "user-known", res.UserID)
}

func TestEnsureSessionFallsBackOnStoreError(t *testing.T) {
	hook := testutil.NewWebhook(t, testutil.Reply{Body: testutil.SessionReply("abc")})
	boot := NewBootstrapper(NewClientFromConfig(testConfig(hook.URL), nil), failingStore{err: errors.New("locked")})

	res := boot.EnsureSession(context.Background(), "")
	assert.Regexp(t, fallbackIDPattern, res.ID)
	assert.True(t, res.ConnectionError)
	assert.Equal(t, 0, hook.Count())
}

func TestEnsureSessionFallsBackOnCancelledContext(t *testing.T) {
	hook := testutil.NewWebhook(t, testutil.Reply{Body: testutil.SessionReply("abc")})
	boot := NewBootstrapper(NewClientFromConfig(testConfig(hook.URL), nil), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := boot.EnsureSession(ctx, "")
	assert.Regexp(t, fallbackIDPattern, res.ID)
	assert.True(t, res.ConnectionError)
}

func TestEnsureSessionWebhookDownUsesUserID(t *testing.T) {
	hook := testutil.NewWebhook(t, testutil.Reply{Status: http.StatusInternalServerError})
	boot := NewBootstrapper(NewClientFromConfig(testConfig(hook.URL), nil), nil)

	res := boot.EnsureSession(context.Background(), "")
	assert.Equal(t, res.UserID, res.ID)
	assert.False(t, res.ConnectionError)
}

func TestReinitializeRotatesUser(t *testing.T) {
	hook := testutil.NewWebhook(t, testutil.Reply{Body: testutil.SessionReply("fresh")})
	store := NewMemoryIdentityStore()
	require.NoError(t, store.Save(context.Background(), "user-old"))
	boot := NewBootstrapper(NewClientFromConfig(testConfig(hook.URL), nil), store)

	res := boot.Reinitialize(context.Background())
	assert.Equal(t, "fresh", res.ID)
	assert.NotEqual(t, "user-old", res.UserID)

	stored, _, _ := store.Load(context.Background())
	assert.Equal(t, res.UserID, stored)
}
