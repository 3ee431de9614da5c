package internal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iksnae/hookchat/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConversation(t *testing.T, url string) *Conversation {
	t.Helper()
	client := NewClientFromConfig(testConfig(url), nil)
	return NewConversation(client, NewBootstrapper(client, NewMemoryIdentityStore()))
}

func TestConversationFirstSendInitializesOnce(t *testing.T) {
	hook := testutil.NewWebhook(t, testutil.Reply{Body: testutil.MessageReply("Здравствуйте!")})
	hook.Enqueue(testutil.Reply{Body: testutil.SessionReply("abc")})
	conv := newTestConversation(t, hook.URL)
	assert.Equal(t, StateNoSession, conv.State())

	reply, err := conv.Send(context.Background(), "Привет")
	require.NoError(t, err)
	assert.Equal(t, "Здравствуйте!", reply.Message)

	reqs := hook.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "init_session", reqs[0].JSON(t)["action"])
	second := reqs[1].JSON(t)
	assert.Equal(t, "Привет", second["message"])
	assert.Equal(t, "abc", second["sessionId"])

	log := conv.Messages()
	require.Len(t, log, 2)
	assert.True(t, log[0].IsUser)
	assert.Equal(t, "Привет", log[0].Message)
	assert.False(t, log[1].IsUser)
	assert.Equal(t, "abc", conv.SessionID())
	assert.Equal(t, StateActive, conv.State())

	// the session is reused
	_, err = conv.Send(context.Background(), "Ещё")
	require.NoError(t, err)
	assert.Equal(t, 3, hook.Count())
	assert.Len(t, conv.Messages(), 4)
}

func TestConversationRejectsBlankMessage(t *testing.T) {
	hook := testutil.NewWebhook(t, testutil.Reply{Body: testutil.MessageReply("x")})
	conv := newTestConversation(t, hook.URL)

	_, err := conv.Send(context.Background(), "   \n")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Empty(t, conv.Messages())
	assert.Equal(t, 0, hook.Count())
}

func TestConversationAudio(t *testing.T) {
	hook := testutil.NewWebhook(t, testutil.Reply{Body: testutil.MessageReply("heard")})
	hook.Enqueue(testutil.Reply{Body: testutil.SessionReply("abc")})
	conv := newTestConversation(t, hook.URL)

	reply := conv.SendAudio(context.Background())
	assert.Equal(t, "heard", reply.Message)

	log := conv.Messages()
	require.Len(t, log, 2)
	assert.Equal(t, TextAudioEcho, log[0].Message)

	body := hook.Requests()[1].JSON(t)
	assert.Equal(t, "audio", body["type"])
	assert.Equal(t, AudioTranscription, body["message"])
	assert.Equal(t, "abc", body["sessionId"])
}

func TestConversationErrorReplySetsFlag(t *testing.T) {
	hook := testutil.NewWebhook(t, testutil.Reply{Status: http.StatusInternalServerError})
	conv := newTestConversation(t, hook.URL)

	reply, err := conv.Send(context.Background(), "hi")
	require.NoError(t, err)
	assert.True(t, reply.IsError)
	assert.Equal(t, FailureServer.Text(), reply.Message)
	assert.True(t, conv.ConnectionError())
	assert.Len(t, conv.Messages(), 2)
}

func TestConversationRetry(t *testing.T) {
	hook := testutil.NewWebhook(t, testutil.Reply{Body: testutil.SessionReply("second")})
	hook.Enqueue(testutil.Reply{Body: testutil.SessionReply("first")}, testutil.Reply{Body: testutil.MessageReply("ok")})
	conv := newTestConversation(t, hook.URL)

	_, err := conv.Send(context.Background(), "hi")
	require.NoError(t, err)
	firstUser := conv.UserID()

	notice := conv.Retry(context.Background())
	assert.Equal(t, TextConnectionRestore, notice.Message)
	assert.False(t, notice.IsError)
	assert.Equal(t, "second", conv.SessionID())
	assert.NotEqual(t, firstUser, conv.UserID())
	assert.Equal(t, StateActive, conv.State())
	assert.Len(t, conv.Messages(), 3)
}

func TestConversationRetryCancelled(t *testing.T) {
	hook := testutil.NewWebhook(t, testutil.Reply{Body: testutil.SessionReply("abc")})
	conv := newTestConversation(t, hook.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	notice := conv.Retry(ctx)
	assert.True(t, notice.IsError)
	assert.Equal(t, TextRestoreFailed, notice.Message)
	assert.Equal(t, StateActiveWithFallbackID, conv.State())
	assert.Regexp(t, fallbackIDPattern, conv.SessionID())
}

func TestConversationGreet(t *testing.T) {
	conv := newTestConversation(t, "http://127.0.0.1:1")
	msg := conv.Greet()
	assert.Equal(t, TextGreeting, msg.Message)
	assert.False(t, msg.IsUser)
	assert.Len(t, conv.Messages(), 1)
}

func TestConversationAgainstMockWebhook(t *testing.T) {
	responder := NewMockResponder(false)
	responder.pick = func(int) int { return 0 }
	srv := httptest.NewServer(NewMockWebhook(responder, 0))
	defer srv.Close()

	conv := newTestConversation(t, srv.URL)
	reply, err := conv.Send(context.Background(), "Привет!")
	require.NoError(t, err)
	assert.Equal(t, mockReplies[MockGreeting][0], reply.Message)
	assert.Contains(t, conv.SessionID(), "mock-session-user-")
}

func TestSessionStateString(t *testing.T) {
	assert.Equal(t, "no session", StateNoSession.String())
	assert.Equal(t, "initializing", StateInitializing.String())
	assert.Equal(t, "active", StateActive.String())
	assert.Equal(t, "active (fallback id)", StateActiveWithFallbackID.String())
}

func TestConversationTranscript(t *testing.T) {
	hook := testutil.NewWebhook(t, testutil.Reply{Body: testutil.MessageReply("ok")})
	hook.Enqueue(testutil.Reply{Body: testutil.SessionReply("abc")})
	conv := newTestConversation(t, hook.URL)

	_, err := conv.Send(context.Background(), "hi")
	require.NoError(t, err)

	tr := conv.Transcript()
	assert.Equal(t, "abc", tr.SessionID)
	assert.Equal(t, conv.UserID(), tr.UserID)
	assert.Equal(t, DefaultSource, tr.Source)
	require.Len(t, tr.Messages, 2)
	assert.Equal(t, "user", Actor(tr.Messages[0]))
	assert.Equal(t, "bot", Actor(tr.Messages[1]))
	assert.Equal(t, "error", Actor(ChatMessage{IsError: true}))
}
