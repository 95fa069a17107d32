package lock

import (
	"context"
	"errors"
)

// ErrNotAcquired is returned when the lock could not be taken before ctx expired.
var ErrNotAcquired = errors.New("lock not acquired")

// Locker serializes a critical section across callers. The returned release
// function must be called exactly once.
type Locker interface {
	Acquire(ctx context.Context) (release func(), err error)
}

// local is a Locker for a single process.
type local struct {
	ch chan struct{}
}

// NewLocal returns a Locker backed by a one-slot channel so that waiting
// callers still honour context cancellation.
func NewLocal() Locker {
	return &local{ch: make(chan struct{}, 1)}
}

func (l *local) Acquire(ctx context.Context) (func(), error) {
	select {
	case l.ch <- struct{}{}:
		return func() { <-l.ch }, nil
	case <-ctx.Done():
		return nil, errors.Join(ErrNotAcquired, ctx.Err())
	}
}
