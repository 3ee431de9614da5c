package internal

import (
	"context"
	"sync"
	"time"
)

// TimeoutSignal fires exactly once, d after creation, whether or not anything
// is waiting on it. It cannot be reset or stopped early.
type TimeoutSignal struct {
	duration time.Duration
	done     chan struct{}
	once     sync.Once
}

// NewTimeoutSignal starts a signal that aborts after d. A non-positive d
// aborts immediately.
func NewTimeoutSignal(d time.Duration) *TimeoutSignal {
	s := &TimeoutSignal{
		duration: d,
		done:     make(chan struct{}),
	}
	if d <= 0 {
		s.fire()
		return s
	}
	time.AfterFunc(d, s.fire)
	return s
}

func (s *TimeoutSignal) fire() {
	s.once.Do(func() { close(s.done) })
}

// Duration returns the configured timeout.
func (s *TimeoutSignal) Duration() time.Duration {
	return s.duration
}

// Done is closed when the signal aborts.
func (s *TimeoutSignal) Done() <-chan struct{} {
	return s.done
}

// Aborted reports whether the signal has fired.
func (s *TimeoutSignal) Aborted() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Err returns ErrSignalAborted once the signal has fired, nil before.
func (s *TimeoutSignal) Err() error {
	if s.Aborted() {
		return ErrSignalAborted
	}
	return nil
}

// Bind derives a context that is cancelled with cause ErrSignalAborted when
// the signal fires. A nil signal only wraps parent. The returned cancel func
// must be called to release the watcher goroutine.
func (s *TimeoutSignal) Bind(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(parent)
	if s == nil {
		return ctx, func() { cancel(context.Canceled) }
	}
	go func() {
		select {
		case <-s.done:
			cancel(ErrSignalAborted)
		case <-ctx.Done():
		}
	}()
	return ctx, func() { cancel(context.Canceled) }
}

// aborted reports whether ctx ended because a bound TimeoutSignal fired.
func aborted(ctx context.Context) bool {
	return context.Cause(ctx) == ErrSignalAborted
}
