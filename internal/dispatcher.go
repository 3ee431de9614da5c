package internal

import (
	"context"
	"fmt"
	"net/http"
)

// Dispatcher posts envelopes to an ordered list of webhook endpoints,
// each through the BypassResolver.
type Dispatcher struct {
	endpoints []string
	resolver  *BypassResolver
	state     *CandidateState
}

// NewDispatcher creates a dispatcher over endpoints. The endpoint state is
// independent of the resolver's relay state.
func NewDispatcher(endpoints []string, resolver *BypassResolver, state *CandidateState) *Dispatcher {
	if state == nil {
		state = NewCandidateState()
	}
	return &Dispatcher{
		endpoints: endpoints,
		resolver:  resolver,
		state:     state,
	}
}

// Endpoints returns the configured endpoint list.
func (d *Dispatcher) Endpoints() []string {
	return d.endpoints
}

// State exposes the endpoint stickiness state.
func (d *Dispatcher) State() *CandidateState {
	return d.state
}

// Dispatch sends env to the first endpoint that answers. sig, when non-nil,
// bounds every request made on behalf of this call.
//
// A nil response with an error wrapping ErrAllCandidatesExhausted means every
// endpoint failed; it is an expected outcome for callers to normalize, not a
// fault. Any other error means the envelope could not be built.
func (d *Dispatcher) Dispatch(ctx context.Context, env Envelope, sig *TimeoutSignal) (*Response, error) {
	body, err := env.Marshal()
	if err != nil {
		return nil, fmt.Errorf("build %s envelope: %w", env.Kind, err)
	}
	LogDebug("Trying webhooks with %s payload: %s", env.Kind, body)

	ctx, cancel := sig.Bind(ctx)
	defer cancel()

	spec := RequestSpec{
		Method: http.MethodPost,
		Header: http.Header{"Content-Type": []string{"application/json"}},
		Body:   body,
	}

	kinds := make([]ErrorKind, 0, len(d.endpoints))
	for _, i := range d.order() {
		url := d.endpoints[i]
		LogDebug("Trying webhook %d (%s)", i+1, url)
		resp, err := d.resolver.Fetch(ctx, url, spec)
		if err == nil && (resp.OK() || resp.Opaque) {
			LogDebug("Webhook %d responded via %s", i+1, resp.Tier)
			d.state.Remember(i)
			return resp, nil
		}
		if known, ok := d.state.KnownGood(); ok && known == i {
			d.state.Forget()
		}
		LogInfo("Error with webhook %d: %v", i+1, err)
		kinds = append(kinds, KindOf(err))
	}

	LogError("All webhooks failed")
	return nil, &DeliveryError{
		URL:  "all endpoints",
		Kind: dominantKind(kinds),
		Err:  ErrAllCandidatesExhausted,
	}
}

// order lists the known-good endpoint first, then the rest in declared order.
func (d *Dispatcher) order() []int {
	order := make([]int, 0, len(d.endpoints))
	known, ok := d.state.KnownGood()
	if ok && known < len(d.endpoints) {
		order = append(order, known)
	}
	for i := range d.endpoints {
		if ok && i == known {
			continue
		}
		order = append(order, i)
	}
	return order
}

// dominantKind picks the kind that best explains an exhausted dispatch:
// any timeout wins, then an all-status-failure run, otherwise the network.
func dominantKind(kinds []ErrorKind) ErrorKind {
	if len(kinds) == 0 {
		return KindNetworkUnreachable
	}
	allStatus := true
	for _, k := range kinds {
		if k == KindTimeout {
			return KindTimeout
		}
		if k != KindNonSuccessStatus {
			allStatus = false
		}
	}
	if allStatus {
		return KindNonSuccessStatus
	}
	return KindNetworkUnreachable
}
