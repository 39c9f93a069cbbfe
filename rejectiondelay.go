package squeeze

import (
	"context"
	"time"

	"github.com/ThomWright/squeeze/limit"
)

// NewRejectionDelay returns a Limiter decorator that adds a delay before
// returning a rejected acquisition.
//
// This can help reduce the rate of retries against an overloaded service,
// especially when the clients are too eager and lack appropriate backoff.
func NewRejectionDelay(delay time.Duration, inner Limiter) Limiter {
	return &rejectionDelay{
		delay: delay,
		inner: inner,
	}
}

type rejectionDelay struct {
	delay time.Duration
	inner Limiter
}

// TryAcquire satisfies Limiter interface.
func (r *rejectionDelay) TryAcquire() (Token, bool) {
	token, ok := r.inner.TryAcquire()
	if !ok {
		time.Sleep(r.delay)
	}

	return token, ok
}

// Acquire satisfies Limiter interface.
func (r *rejectionDelay) Acquire(ctx context.Context) (Token, error) {
	token, err := r.inner.Acquire(ctx)
	if err != nil {
		time.Sleep(r.delay)
	}

	return token, err
}

// Release satisfies Limiter interface.
func (r *rejectionDelay) Release(token Token, outcome limit.Outcome) {
	r.inner.Release(token, outcome)
}

// Limit satisfies Limiter interface.
func (r *rejectionDelay) Limit() int {
	return r.inner.Limit()
}

// Inflight satisfies Limiter interface.
func (r *rejectionDelay) Inflight() int {
	return r.inner.Inflight()
}
