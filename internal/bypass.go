package internal

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

const maxResponseBytes = 4 << 20

// Doer is the subset of *http.Client the delivery path needs.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RequestSpec describes a request that can be replayed against several URLs.
type RequestSpec struct {
	Method string
	Header http.Header
	Body   []byte
}

// Response is a fully read webhook reply. Opaque responses were sent in
// fire-and-forget mode: their status and body were never inspected.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Opaque     bool
	URL        string
	Tier       string
}

// OK reports a 2xx status. Opaque responses are never OK.
func (r *Response) OK() bool {
	return r != nil && !r.Opaque && r.StatusCode >= 200 && r.StatusCode < 300
}

// Text returns the body as a string.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	return string(r.Body)
}

// CandidateState remembers which candidate of an ordered list last worked.
// Endpoints and relays each get their own instance.
type CandidateState struct {
	mu    sync.Mutex
	index int
	known bool
}

// NewCandidateState returns a state with no known-good candidate.
func NewCandidateState() *CandidateState {
	return &CandidateState{}
}

// KnownGood returns the remembered index, if any.
func (s *CandidateState) KnownGood() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index, s.known
}

// Remember marks index i as known good, replacing any previous marker.
func (s *CandidateState) Remember(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index, s.known = i, true
}

// Forget clears the known-good marker.
func (s *CandidateState) Forget() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index, s.known = 0, false
}

// BypassResolver delivers a request directly, then through relays, then as
// an opaque fire-and-forget request.
type BypassResolver struct {
	client         Doer
	relays         []string
	state          *CandidateState
	attemptTimeout time.Duration
}

// NewBypassResolver creates a resolver. attemptTimeout bounds every single
// attempt on top of the caller's context; zero disables the per-attempt bound.
func NewBypassResolver(client Doer, relays []string, state *CandidateState, attemptTimeout time.Duration) *BypassResolver {
	if client == nil {
		client = http.DefaultClient
	}
	if state == nil {
		state = NewCandidateState()
	}
	return &BypassResolver{
		client:         client,
		relays:         relays,
		state:          state,
		attemptTimeout: attemptTimeout,
	}
}

// State exposes the relay stickiness state.
func (r *BypassResolver) State() *CandidateState {
	return r.state
}

// Fetch tries, in order: the target directly, the remembered relay, every
// other relay, and finally an opaque direct request (only when relays are
// configured). The first success wins. Per-attempt failures are logged and
// never returned; a *DeliveryError is returned only when every tier failed.
func (r *BypassResolver) Fetch(ctx context.Context, target string, spec RequestSpec) (*Response, error) {
	LogDebug("Attempting direct request to: %s", target)
	resp, err := r.attempt(ctx, "direct", target, spec, false)
	if err == nil {
		LogDebug("Direct request to %s succeeded", target)
		return resp, nil
	}
	LogInfo("Direct request failed: %v", err)
	last := err

	retried := -1
	if k, ok := r.state.KnownGood(); ok && k < len(r.relays) {
		retried = k
		LogDebug("Trying known working relay: %s", r.relays[k])
		resp, err := r.attempt(ctx, "relay", RelayURL(r.relays[k], target), spec, false)
		if err == nil {
			LogDebug("Request via known relay succeeded")
			return resp, nil
		}
		LogInfo("Known relay failed: %v", err)
		r.state.Forget()
		last = err
	}

	for i, tmpl := range r.relays {
		if i == retried {
			continue
		}
		LogDebug("Trying relay %d: %s", i+1, tmpl)
		resp, err := r.attempt(ctx, "relay", RelayURL(tmpl, target), spec, false)
		if err == nil {
			LogInfo("Relay %d worked: %s", i+1, tmpl)
			r.state.Remember(i)
			return resp, nil
		}
		LogInfo("Relay %d failed: %v", i+1, err)
		last = err
	}

	if len(r.relays) == 0 {
		return nil, &DeliveryError{URL: target, Kind: KindOf(last), Err: last}
	}

	LogWarn("All relays failed, sending opaque request to %s", target)
	resp, err = r.attempt(ctx, "opaque", target, spec, true)
	if err == nil {
		return resp, nil
	}
	LogError("Final attempt failed: %v", err)
	return nil, &DeliveryError{URL: target, Kind: KindOf(err), Err: err}
}

func (r *BypassResolver) attempt(ctx context.Context, tier, u string, spec RequestSpec, opaque bool) (*Response, error) {
	var (
		actx   context.Context
		cancel context.CancelFunc
	)
	if r.attemptTimeout > 0 {
		actx, cancel = NewTimeoutSignal(r.attemptTimeout).Bind(ctx)
	} else {
		actx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	method := spec.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if spec.Body != nil {
		body = bytes.NewReader(spec.Body)
	}
	req, err := http.NewRequestWithContext(actx, method, u, body)
	if err != nil {
		return nil, &AttemptError{Kind: KindNetworkUnreachable, Tier: tier, URL: u, Err: err}
	}
	for k, vs := range spec.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	res, err := r.client.Do(req)
	if err != nil {
		return nil, &AttemptError{Kind: transportKind(actx, err), Tier: tier, URL: u, Err: err}
	}
	defer func() { _ = res.Body.Close() }()

	if opaque {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, maxResponseBytes))
		LogDebug("Opaque request to %s completed", u)
		return &Response{Opaque: true, URL: u, Tier: tier}, nil
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, maxResponseBytes))
		return nil, &AttemptError{Kind: KindNonSuccessStatus, Tier: tier, URL: u, Status: res.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		kind := KindUnreadableBody
		if aborted(actx) {
			kind = KindTimeout
		}
		return nil, &AttemptError{Kind: kind, Tier: tier, URL: u, Err: err}
	}

	return &Response{
		StatusCode: res.StatusCode,
		Header:     res.Header,
		Body:       data,
		URL:        u,
		Tier:       tier,
	}, nil
}

func transportKind(ctx context.Context, err error) ErrorKind {
	if aborted(ctx) || errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return KindTimeout
	}
	return KindNetworkUnreachable
}

// RelayURL builds the relay address for target: the template followed by
// the percent-encoded target.
func RelayURL(template, target string) string {
	return template + encodeURIComponent(target)
}

// encodeURIComponent escapes everything except A-Z a-z 0-9 - _ . ! ~ * ' ( ).
func encodeURIComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
			b.WriteByte(c)
		case strings.IndexByte("-_.!~*'()", c) >= 0:
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&15])
		}
	}
	return b.String()
}
