package internal

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/iksnae/hookchat/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(endpoints ...string) *Config {
	cfg := DefaultConfig(DataPaths{})
	cfg.Endpoints = endpoints
	cfg.Relays = nil
	cfg.Identity.Driver = StoreTypeMemory
	cfg.Timeouts = Timeouts{
		AvailabilityCheck: time.Second,
		SendMessage:       time.Second,
		InitSession:       time.Second,
	}
	return cfg
}

func TestClientSendMessage(t *testing.T) {
	hook := testutil.NewWebhook(t, testutil.Reply{Body: testutil.MessageReply("Здравствуйте!")})
	client := NewClientFromConfig(testConfig(hook.URL), nil)

	msg := client.SendMessage(context.Background(), "Привет", "abc", false)
	assert.Equal(t, "Здравствуйте!", msg.Message)
	assert.False(t, msg.IsUser)
	assert.False(t, msg.IsError)

	body := hook.Requests()[0].JSON(t)
	assert.Equal(t, "abc", body["sessionId"])
	assert.Equal(t, "text", body["type"])
	assert.Equal(t, DefaultSource, body["source"])

	assert.Equal(t, []string{hook.URL}, client.Dispatcher().Endpoints())
	known, ok := client.Dispatcher().State().KnownGood()
	require.True(t, ok)
	assert.Equal(t, 0, known)
}

func TestClientSendMessageDefaultSession(t *testing.T) {
	hook := testutil.NewWebhook(t, testutil.Reply{Body: testutil.MessageReply("ok")})
	client := NewClientFromConfig(testConfig(hook.URL), nil)

	client.SendMessage(context.Background(), "hi", "", false)
	assert.Equal(t, DefaultSessionID, hook.Requests()[0].JSON(t)["sessionId"])
}

func TestClientSendMessageServerDown(t *testing.T) {
	hook := testutil.NewWebhook(t, testutil.Reply{Status: http.StatusInternalServerError})
	client := NewClientFromConfig(testConfig(hook.URL), nil)

	msg := client.SendMessage(context.Background(), "hi", "abc", false)
	assert.True(t, msg.IsError)
	assert.Equal(t, FailureServer.Text(), msg.Message)
}

func TestClientSendMessageTimeout(t *testing.T) {
	hook := testutil.NewWebhook(t, testutil.Reply{Delay: 3 * time.Second})
	cfg := testConfig(hook.URL)
	cfg.Timeouts.SendMessage = 50 * time.Millisecond
	client := NewClientFromConfig(cfg, nil)

	msg := client.SendMessage(context.Background(), "hi", "abc", false)
	assert.True(t, msg.IsError)
	assert.Equal(t, FailureTimeout.Text(), msg.Message)
}

func TestClientSendMessageUnreachable(t *testing.T) {
	client := NewClientFromConfig(testConfig(deadURL(t)), nil)

	msg := client.SendMessage(context.Background(), "hi", "abc", false)
	assert.True(t, msg.IsError)
	assert.Equal(t, FailureConnection.Text(), msg.Message)
}

func TestClientSendMessageOpaqueFallback(t *testing.T) {
	hook := testutil.NewWebhook(t, testutil.Reply{Status: http.StatusInternalServerError})
	relay := testutil.NewFailingRelay(t, http.StatusBadGateway)
	cfg := testConfig(hook.URL)
	cfg.Relays = []string{relay.Template()}
	client := NewClientFromConfig(cfg, nil)

	msg := client.SendMessage(context.Background(), "hi", "abc", false)
	assert.False(t, msg.IsError)
	assert.Equal(t, TextOpaqueResponse, msg.Message)
}

func TestClientInitSession(t *testing.T) {
	tests := []struct {
		name  string
		reply testutil.Reply
		want  string
	}{
		{"session id", testutil.Reply{Body: testutil.SessionReply("abc")}, "abc"},
		{"no session id", testutil.Reply{Body: `{"ok":true}`}, "user-1"},
		{"server error", testutil.Reply{Status: http.StatusInternalServerError}, "user-1"},
		{"not json", testutil.Reply{Body: "accepted"}, "user-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hook := testutil.NewWebhook(t, tt.reply)
			client := NewClientFromConfig(testConfig(hook.URL), nil)

			assert.Equal(t, tt.want, client.InitSession(context.Background(), "user-1"))

			body := hook.Requests()[0].JSON(t)
			require.Equal(t, "init_session", body["action"])
			assert.Equal(t, "user-1", body["userId"])
		})
	}
}
