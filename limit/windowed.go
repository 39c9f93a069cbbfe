package limit

import (
	"fmt"
	"time"
)

// WindowedConfig is the configuration of the Windowed algorithm decorator.
type WindowedConfig struct {
	// Algorithm is the decorated algorithm that will receive the aggregated
	// samples. Required.
	Algorithm Algorithm
	// Aggregator aggregates the window samples into the one forwarded to the
	// algorithm. By default an average aggregator.
	Aggregator Aggregator
	// MinSamples is the minimum number of samples per window. By default 10.
	MinSamples int
	// MinWindow is the minimum window duration. By default 1µs.
	MinWindow time.Duration
	// MaxWindow is the maximum window duration. By default 1s.
	MaxWindow time.Duration
}

func (c *WindowedConfig) defaults() {
	if c.Aggregator == nil {
		c.Aggregator = NewAverage()
	}

	if c.MinSamples == 0 {
		c.MinSamples = 10
	}

	if c.MinWindow == 0 {
		c.MinWindow = 1 * time.Microsecond
	}

	if c.MaxWindow == 0 {
		c.MaxWindow = 1 * time.Second
	}
}

func (c *WindowedConfig) validate() error {
	if c.Algorithm == nil {
		return fmt.Errorf("an algorithm to decorate is required")
	}

	if c.MinSamples < 1 {
		return fmt.Errorf("at least one sample per window is required, got %d", c.MinSamples)
	}

	if c.MinWindow > c.MaxWindow {
		return fmt.Errorf("min window (%v) can't be greater than max window (%v)", c.MinWindow, c.MaxWindow)
	}

	return nil
}

// NewWindowed returns a decorator that aggregates samples over a window and
// forwards one aggregated sample to the decorated algorithm when the window
// is complete (enough samples and enough elapsed time).
//
// This gives delay based algorithms like Vegas greater stability: comparing
// a windowed percentile latency against the minimum observed percentile
// handles heterogeneous workloads, as long as the percentile latency is
// fairly stable.
//
// The window duration adapts to the aggregated latency, clamped between the
// configured minimum and maximum.
func NewWindowed(cfg WindowedConfig) (Algorithm, error) {
	cfg.defaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid Windowed configuration: %s", err)
	}

	return &windowed{
		cfg:         cfg,
		duration:    cfg.MinWindow,
		windowStart: time.Now(),
	}, nil
}

type windowed struct {
	cfg WindowedConfig

	duration    time.Duration
	windowStart time.Time
}

// Update satisfies Algorithm interface.
func (w *windowed) Update(sample Sample) int {
	if sample.Outcome == Ignore || sample.Outcome == "" {
		return w.cfg.Algorithm.Limit()
	}

	if sample.Latency < minSampleLatency {
		return w.cfg.Algorithm.Limit()
	}

	agg := w.cfg.Aggregator.Sample(sample)

	if w.cfg.Aggregator.Samples() >= w.cfg.MinSamples && time.Since(w.windowStart) >= w.duration {
		w.cfg.Aggregator.Reset()
		w.windowStart = time.Now()

		// Adapt the next window to the observed latency.
		d := agg.Latency
		if d < w.cfg.MinWindow {
			d = w.cfg.MinWindow
		}
		if d > w.cfg.MaxWindow {
			d = w.cfg.MaxWindow
		}
		w.duration = d

		return w.cfg.Algorithm.Update(agg)
	}

	return w.cfg.Algorithm.Limit()
}

// Limit satisfies Algorithm interface.
func (w *windowed) Limit() int {
	return w.cfg.Algorithm.Limit()
}
