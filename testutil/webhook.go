package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"
)

// Reply is one scripted webhook answer
type Reply struct {
	Status int
	Body   string
	Delay  time.Duration
}

// Request is a request recorded by a fixture server
type Request struct {
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
	Body     []byte
}

// JSON decodes the recorded body as a JSON object
func (r Request) JSON(t *testing.T) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	JSONUnmarshal(t, r.Body, &out)
	return out
}

// Webhook is an httptest server that records every request and answers
// from a queue of scripted replies, then with a fallback reply
type Webhook struct {
	*httptest.Server

	mu       sync.Mutex
	requests []Request
	queue    []Reply
	fallback Reply
}

// NewWebhook starts a recording webhook. It is closed when the test ends.
func NewWebhook(t *testing.T, fallback Reply) *Webhook {
	t.Helper()
	w := &Webhook{fallback: fallback}
	w.Server = httptest.NewServer(http.HandlerFunc(w.serve))
	t.Cleanup(w.Close)
	return w
}

// Enqueue schedules replies ahead of the fallback
func (w *Webhook) Enqueue(replies ...Reply) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.queue = append(w.queue, replies...)
}

// Requests returns a copy of the recorded requests
func (w *Webhook) Requests() []Request {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Request(nil), w.requests...)
}

// Count returns how many requests were received
func (w *Webhook) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.requests)
}

func (w *Webhook) next() Reply {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.queue) == 0 {
		return w.fallback
	}
	r := w.queue[0]
	w.queue = w.queue[1:]
	return r
}

func (w *Webhook) serve(rw http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	w.mu.Lock()
	w.requests = append(w.requests, Request{
		Method:   r.Method,
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
		Header:   r.Header.Clone(),
		Body:     body,
	})
	w.mu.Unlock()

	reply := w.next()
	if reply.Delay > 0 {
		select {
		case <-r.Context().Done():
			return
		case <-time.After(reply.Delay):
		}
	}
	status := reply.Status
	if status == 0 {
		status = http.StatusOK
	}
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_, _ = io.WriteString(rw, reply.Body)
}

// Relay is an httptest server that forwards a request to the URL-encoded
// target appended to its template, the way public CORS relays do
type Relay struct {
	*httptest.Server

	mu     sync.Mutex
	hits   int
	status int
}

// NewRelay starts a forwarding relay
func NewRelay(t *testing.T) *Relay {
	t.Helper()
	return newRelay(t, 0)
}

// NewFailingRelay starts a relay that answers every request with status
func NewFailingRelay(t *testing.T, status int) *Relay {
	t.Helper()
	return newRelay(t, status)
}

func newRelay(t *testing.T, status int) *Relay {
	rl := &Relay{status: status}
	rl.Server = httptest.NewServer(http.HandlerFunc(rl.serve))
	t.Cleanup(rl.Close)
	return rl
}

// Template returns the relay template the target is appended to
func (rl *Relay) Template() string {
	return rl.URL + "/?"
}

// Hits returns how many requests reached the relay
func (rl *Relay) Hits() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.hits
}

func (rl *Relay) serve(rw http.ResponseWriter, r *http.Request) {
	rl.mu.Lock()
	rl.hits++
	rl.mu.Unlock()

	if rl.status != 0 {
		http.Error(rw, "relay failure", rl.status)
		return
	}

	target, err := url.QueryUnescape(r.URL.RawQuery)
	if err != nil || target == "" {
		http.Error(rw, "missing target", http.StatusBadRequest)
		return
	}
	body, _ := io.ReadAll(r.Body)
	req, err := http.NewRequestWithContext(r.Context(), r.Method, target, bytes.NewReader(body))
	if err != nil {
		http.Error(rw, err.Error(), http.StatusBadGateway)
		return
	}
	req.Header.Set("Content-Type", r.Header.Get("Content-Type"))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		http.Error(rw, err.Error(), http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()
	rw.Header().Set("Content-Type", resp.Header.Get("Content-Type"))
	rw.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(rw, resp.Body)
}

// MessageReply builds a JSON {"message": text} body
func MessageReply(text string) string {
	data, _ := json.Marshal(map[string]string{"message": text})
	return string(data)
}

// SessionReply builds a JSON {"sessionId": id} body
func SessionReply(id string) string {
	data, _ := json.Marshal(map[string]string{"sessionId": id})
	return string(data)
}
