package squeeze

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThomWright/squeeze/errors"
	"github.com/ThomWright/squeeze/limit"
	"github.com/ThomWright/squeeze/metrics"
)

// Limiter bounds how many jobs may execute simultaneously, re-estimating
// that bound continuously from the observed job samples.
type Limiter interface {
	// TryAcquire returns a token if the limiter has capacity, or false if
	// the acquisition has been rejected. It never blocks. Callers use the
	// rejection as the load shedding signal.
	TryAcquire() (Token, bool)

	// Acquire waits for capacity until the context is done. A failed
	// acquisition returns errors.ErrAcquireTimeout or
	// errors.ErrContextCanceled and leaves no state mutated.
	Acquire(ctx context.Context) (Token, error)

	// Release gives a token back with the job's outcome. The outcome drives
	// the limit algorithm, except limit.Ignore (or an empty outcome) which
	// only decrements the inflight count.
	Release(token Token, outcome limit.Outcome)

	// Limit returns the current limit. It's a read only snapshot, it may be
	// instantaneously stale.
	Limit() int

	// Inflight returns the current number of inflight jobs. It's a read
	// only snapshot, it may be instantaneously stale.
	Inflight() int
}

// Config is the configuration of the limiter.
type Config struct {
	// Algorithm is the algorithm implementation that will calculate the
	// limits in an adaptive way. Required.
	Algorithm limit.Algorithm
	// MinLimit is a hard floor applied to whatever the algorithm returns.
	// It must be at least 1. By default 1.
	MinLimit int
	// MaxLimit is a hard ceiling applied to whatever the algorithm returns.
	// By default 1000.
	MaxLimit int
	// MetricsRecorder will record the limiter measurements. By default a
	// dummy recorder (no measurements).
	MetricsRecorder metrics.Recorder
}

func (c *Config) defaults() {
	if c.MinLimit == 0 {
		c.MinLimit = 1
	}

	if c.MaxLimit == 0 {
		c.MaxLimit = 1000
	}

	if c.MetricsRecorder == nil {
		c.MetricsRecorder = metrics.Dummy
	}
}

func (c *Config) validate() error {
	if c.Algorithm == nil {
		return fmt.Errorf("a limit algorithm is required")
	}

	if c.MinLimit < 1 {
		return fmt.Errorf("min limit must be >= 1, got %d", c.MinLimit)
	}

	if c.MinLimit > c.MaxLimit {
		return fmt.Errorf("min limit (%d) can't be greater than max limit (%d)", c.MinLimit, c.MaxLimit)
	}

	return nil
}

// New returns a new Limiter that drives the configured limit algorithm with
// one sample per released token.
func New(cfg Config) (Limiter, error) {
	cfg.defaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid limiter configuration: %s", err)
	}

	l := &limiter{
		cfg:   cfg,
		limit: clamp(cfg.Algorithm.Limit(), cfg.MinLimit, cfg.MaxLimit),
		wakeC: make(chan struct{}),
	}
	cfg.MetricsRecorder.SetLimit(l.limit)

	return l, nil
}

type limiter struct {
	cfg Config

	// mu guards limit, inflight, wakeC and the algorithm state together, so
	// no caller can observe a decremented counter with a stale limit, and
	// the algorithm never receives overlapping updates. The critical
	// section is O(1), it's never held across caller job execution.
	mu       sync.Mutex
	limit    int
	inflight int

	// wakeC is closed and replaced on every release, waking all blocked
	// acquirers so they recheck the admission predicate.
	wakeC chan struct{}
}

// TryAcquire satisfies Limiter interface.
func (l *limiter) TryAcquire() (Token, bool) {
	l.mu.Lock()

	if l.inflight >= l.limit {
		l.mu.Unlock()
		l.cfg.MetricsRecorder.IncAcquireRejected()
		return Token{}, false
	}

	l.inflight++
	token := Token{
		start:    time.Now(),
		inflight: l.inflight,
	}
	inflight := l.inflight
	l.mu.Unlock()

	l.cfg.MetricsRecorder.SetInflight(inflight)

	return token, true
}

// Acquire satisfies Limiter interface.
func (l *limiter) Acquire(ctx context.Context) (Token, error) {
	start := time.Now()

	for {
		l.mu.Lock()
		if l.inflight < l.limit {
			l.inflight++
			token := Token{
				start:    time.Now(),
				inflight: l.inflight,
			}
			inflight := l.inflight
			l.mu.Unlock()

			l.cfg.MetricsRecorder.SetInflight(inflight)
			l.cfg.MetricsRecorder.ObserveAcquireWait(start, true)

			return token, nil
		}
		wakeC := l.wakeC
		l.mu.Unlock()

		select {
		case <-wakeC:
			// A release happened, recheck. We can still lose the race to
			// another caller, this is a counting gate, not an ordered queue.
		case <-ctx.Done():
			l.cfg.MetricsRecorder.IncAcquireRejected()
			l.cfg.MetricsRecorder.ObserveAcquireWait(start, false)

			if ctx.Err() == context.DeadlineExceeded {
				return Token{}, errors.ErrAcquireTimeout
			}
			return Token{}, errors.ErrContextCanceled
		}
	}
}

// Release satisfies Limiter interface.
func (l *limiter) Release(token Token, outcome limit.Outcome) {
	l.mu.Lock()

	measured := false
	if outcome == limit.Success || outcome == limit.Overload {
		sample := limit.Sample{
			Latency: time.Since(token.start),
			// Including the token being released.
			Inflight: l.inflight,
			Outcome:  outcome,
		}
		l.limit = clamp(l.cfg.Algorithm.Update(sample), l.cfg.MinLimit, l.cfg.MaxLimit)
		measured = true
	}

	l.inflight--

	// Wake all blocked acquirers so they recheck against the new state.
	close(l.wakeC)
	l.wakeC = make(chan struct{})

	newLimit := l.limit
	inflight := l.inflight
	l.mu.Unlock()

	if measured {
		l.cfg.MetricsRecorder.IncSampleOutcome(string(outcome))
		l.cfg.MetricsRecorder.SetLimit(newLimit)
	} else {
		l.cfg.MetricsRecorder.IncSampleOutcome(string(limit.Ignore))
	}
	l.cfg.MetricsRecorder.SetInflight(inflight)
}

// Limit satisfies Limiter interface.
func (l *limiter) Limit() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.limit
}

// Inflight satisfies Limiter interface.
func (l *limiter) Inflight() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inflight
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
