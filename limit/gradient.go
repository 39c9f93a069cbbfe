package limit

import (
	"fmt"
	"time"
)

// GradientConfig is the configuration of the Gradient adaptive limit
// algorithm.
type GradientConfig struct {
	// InitialLimit is the limit the algorithm will start with. By default 10.
	InitialLimit int
	// MinLimit is the minimum limit the algorithm will decrease to. It must
	// be at least 1. By default 1.
	MinLimit int
	// MaxLimit is the maximum limit the algorithm will increase to. By
	// default 1000.
	MaxLimit int
	// Smoothing is the exponential smoothing factor used when folding a
	// completed window's minimum latency into the baseline. It must be in
	// (0, 1). By default 0.2.
	Smoothing float64
	// Tolerance is a small constant headroom added to the limit on every
	// update, allowing a bounded queue before backing off. By default 2.
	Tolerance float64
	// GradientLowerBound is the minimum value the latency gradient can take,
	// preventing a runaway collapse from a single slow sample. It must be in
	// (0, 1). By default 0.5.
	GradientLowerBound float64
	// WindowMinSamples is the minimum number of samples per baseline window.
	// By default 10.
	WindowMinSamples int
	// WindowMinDuration is the minimum elapsed time per baseline window.
	// By default 1s.
	WindowMinDuration time.Duration
}

func (c *GradientConfig) defaults() {
	if c.InitialLimit == 0 {
		c.InitialLimit = 10
	}

	if c.MinLimit == 0 {
		c.MinLimit = defaultMinLimit
	}

	if c.MaxLimit == 0 {
		c.MaxLimit = defaultMaxLimit
	}

	if c.Smoothing == 0 {
		c.Smoothing = 0.2
	}

	if c.Tolerance == 0 {
		c.Tolerance = 2
	}

	if c.GradientLowerBound == 0 {
		c.GradientLowerBound = 0.5
	}

	if c.WindowMinSamples == 0 {
		c.WindowMinSamples = 10
	}

	if c.WindowMinDuration == 0 {
		c.WindowMinDuration = 1 * time.Second
	}
}

func (c *GradientConfig) validate() error {
	if c.MinLimit < 1 {
		return fmt.Errorf("min limit must be >= 1, got %d", c.MinLimit)
	}

	if c.MinLimit > c.MaxLimit {
		return fmt.Errorf("min limit (%d) can't be greater than max limit (%d)", c.MinLimit, c.MaxLimit)
	}

	if c.InitialLimit < c.MinLimit || c.InitialLimit > c.MaxLimit {
		return fmt.Errorf("initial limit (%d) must be within [%d, %d]", c.InitialLimit, c.MinLimit, c.MaxLimit)
	}

	if c.Smoothing <= 0 || c.Smoothing >= 1 {
		return fmt.Errorf("smoothing must be in (0, 1), got %v", c.Smoothing)
	}

	if c.Tolerance < 0 {
		return fmt.Errorf("tolerance must be >= 0, got %v", c.Tolerance)
	}

	if c.GradientLowerBound <= 0 || c.GradientLowerBound >= 1 {
		return fmt.Errorf("gradient lower bound must be in (0, 1), got %v", c.GradientLowerBound)
	}

	if c.WindowMinSamples < 1 {
		return fmt.Errorf("window min samples must be >= 1, got %d", c.WindowMinSamples)
	}

	if c.WindowMinDuration < 0 {
		return fmt.Errorf("window min duration must be >= 0, got %v", c.WindowMinDuration)
	}

	return nil
}

// NewGradient returns a new Gradient adaptive limit algorithm, inspired by
// TCP congestion control algorithms using delay gradients.
//
// It maintains a smoothed minimum latency baseline over a sliding window and
// scales the limit by the gradient between the baseline and the sample
// latency. It only uses the latency as an implicit congestion signal, an
// overload outcome is treated as an instantaneously very large latency
// instead of having a separate loss branch.
//
// More information about this kind of algorithm in:
// https://hal.science/hal-01597987
func NewGradient(cfg GradientConfig) (Algorithm, error) {
	cfg.defaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid Gradient configuration: %s", err)
	}

	return &gradient{
		limit:       float64(cfg.InitialLimit),
		cfg:         cfg,
		baseline:    newExpSmoothed(cfg.Smoothing),
		windowStart: time.Now(),
	}, nil
}

type gradient struct {
	cfg   GradientConfig
	limit float64

	// baseline is the smoothed minimum latency over completed windows. It
	// has no value until the first window completes, until then the limit
	// doesn't move.
	baseline *expSmoothed

	windowMin     time.Duration
	windowSamples int
	windowStart   time.Time
}

// Update satisfies Algorithm interface.
func (g *gradient) Update(sample Sample) int {
	if sample.Outcome == Ignore || sample.Outcome == "" {
		return int(g.limit)
	}

	if sample.Latency < minSampleLatency {
		return int(g.limit)
	}

	g.observe(sample)

	// Not enough evidence to have a trustworthy baseline yet.
	if g.baseline.samples() == 0 {
		return int(g.limit)
	}

	grad := g.cfg.GradientLowerBound
	if sample.Outcome != Overload {
		grad = clampFloat(g.baseline.get().Seconds()/sample.Latency.Seconds(),
			g.cfg.GradientLowerBound, 1.0)
	}

	g.limit = clampFloat(g.limit*grad+g.cfg.Tolerance,
		float64(g.cfg.MinLimit), float64(g.cfg.MaxLimit))

	return int(g.limit)
}

// observe adds the sample to the current baseline window and folds the
// window into the baseline when it has enough samples and elapsed time.
// Requiring both guards against a single abnormally low reading permanently
// depressing the baseline.
func (g *gradient) observe(sample Sample) {
	// Overload latencies aren't trustworthy as a baseline, the job may have
	// been cut short by a timeout or rejected cheaply.
	if sample.Outcome == Success {
		if g.windowSamples == 0 || sample.Latency < g.windowMin {
			g.windowMin = sample.Latency
		}
		g.windowSamples++
	}

	if g.windowSamples >= g.cfg.WindowMinSamples && time.Since(g.windowStart) >= g.cfg.WindowMinDuration {
		g.baseline.sample(g.windowMin)

		g.windowSamples = 0
		g.windowMin = 0
		g.windowStart = time.Now()
	}
}

// Limit satisfies Algorithm interface.
func (g *gradient) Limit() int {
	return int(g.limit)
}
