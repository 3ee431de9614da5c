package internal

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed delivery attempt at the point it failed.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNetworkUnreachable
	KindTimeout
	KindNonSuccessStatus
	KindUnreadableBody
	KindMalformedPayload
	KindAllCandidatesExhausted
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetworkUnreachable:
		return "network_unreachable"
	case KindTimeout:
		return "timeout"
	case KindNonSuccessStatus:
		return "non_success_status"
	case KindUnreadableBody:
		return "unreadable_body"
	case KindMalformedPayload:
		return "malformed_payload"
	case KindAllCandidatesExhausted:
		return "all_candidates_exhausted"
	default:
		return "unknown"
	}
}

var (
	// ErrSignalAborted is the cancellation cause of a fired TimeoutSignal.
	ErrSignalAborted = errors.New("timeout signal aborted")
	// ErrAllCandidatesExhausted is wrapped by the dispatcher when no endpoint answered.
	ErrAllCandidatesExhausted = errors.New("all candidates exhausted")
	ErrInvalidConfig          = errors.New("invalid configuration")
	ErrInvalidStoreType       = errors.New("invalid identity store type")
)

// AttemptError is a single failed request within the fallback chain.
type AttemptError struct {
	Kind   ErrorKind
	Tier   string // "direct", "relay", "opaque"
	URL    string
	Status int
	Err    error
}

func (e *AttemptError) Error() string {
	if e.Kind == KindNonSuccessStatus {
		return fmt.Sprintf("%s attempt %s: HTTP %d", e.Tier, e.URL, e.Status)
	}
	return fmt.Sprintf("%s attempt %s: %s: %v", e.Tier, e.URL, e.Kind, e.Err)
}

func (e *AttemptError) Unwrap() error {
	return e.Err
}

// DeliveryError is returned once every tier for a target has failed.
type DeliveryError struct {
	URL  string
	Kind ErrorKind
	Err  error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to %s failed (%s): %v", e.URL, e.Kind, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// ConfigError represents an unusable configuration value
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// IdentityError represents errors reading or writing the persisted user id
type IdentityError struct {
	Driver string
	Op     string // "load", "save", "open"
	Err    error
}

func (e *IdentityError) Error() string {
	return fmt.Sprintf("identity error [%s] %s: %v", e.Driver, e.Op, e.Err)
}

func (e *IdentityError) Unwrap() error {
	return e.Err
}

// KindOf extracts the ErrorKind carried by err, if any.
func KindOf(err error) ErrorKind {
	var de *DeliveryError
	if errors.As(err, &de) {
		return de.Kind
	}
	var ae *AttemptError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	if errors.Is(err, ErrSignalAborted) {
		return KindTimeout
	}
	if errors.Is(err, ErrAllCandidatesExhausted) {
		return KindAllCandidatesExhausted
	}
	return KindUnknown
}
