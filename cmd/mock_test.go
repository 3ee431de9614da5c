package cmd

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/iksnae/hookchat/internal"
	"github.com/iksnae/hookchat/testutil"
)

func TestServeMock(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		errc <- serveMock(ctx, ln, internal.NewMockWebhook(internal.NewMockResponder(false), 0))
	}()

	url := "http://" + ln.Addr().String()
	resp, err := http.Post(url, "application/json", bytes.NewReader(testutil.JSONMarshal(t, map[string]string{
		"action": "init_session",
		"userId": "u1",
	})))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	var body map[string]interface{}
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	testutil.JSONUnmarshal(t, data, &body)
	if body["sessionId"] != "mock-session-u1" {
		t.Errorf("sessionId = %v", body["sessionId"])
	}

	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("serveMock returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serveMock did not stop")
	}
}

func TestMockAsChatEndpoint(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = serveMock(ctx, ln, internal.NewMockWebhook(internal.NewMockResponder(false), 0)) }()

	args := append([]string{"send", "n8n"}, isolatedArgs(t, "http://"+ln.Addr().String())...)
	out, err := runRoot(t, args...)
	if err != nil {
		t.Fatalf("send to mock failed: %v", err)
	}
	if !strings.Contains(out, "n8n") {
		t.Errorf("expected an n8n reply, got %q", out)
	}
}

func TestMockCommandBadAddr(t *testing.T) {
	if _, err := runRoot(t, "mock", "--addr", "not-an-address"); err == nil {
		t.Error("mock should fail to listen on an invalid address")
	}
}
