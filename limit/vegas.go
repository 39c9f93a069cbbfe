package limit

import (
	"fmt"
	"math"
	"time"
)

// ThresholdFunc calculates a queueing threshold (in jobs) from the current
// limit, so bigger limits can tolerate bigger queues.
type ThresholdFunc func(limit int) float64

// Log10ThresholdFunc returns a ThresholdFunc of the form
// multiplier * log10(limit), with a floor of multiplier.
func Log10ThresholdFunc(multiplier float64) ThresholdFunc {
	return func(limit int) float64 {
		return multiplier * math.Max(math.Log10(float64(limit)), 1)
	}
}

// VegasConfig is the configuration of the Vegas adaptive limit algorithm.
type VegasConfig struct {
	// InitialLimit is the limit the algorithm will start with. By default 10.
	InitialLimit int
	// MinLimit is the minimum limit the algorithm will decrease to. It must
	// be at least 1. By default 1.
	MinLimit int
	// MaxLimit is the maximum limit the algorithm will increase to. By
	// default 1000.
	MaxLimit int
	// Alpha is the lower queueing threshold. Below it the system is
	// considered underused and the limit is increased. By default
	// 3 * log10(limit).
	Alpha ThresholdFunc
	// Beta is the upper queueing threshold. Above it the system is
	// considered to be queueing too much and the limit is decreased. By
	// default 6 * log10(limit).
	Beta ThresholdFunc
	// DecreaseFactor is the ratio used to decrease the limit when overload
	// occurs, delay based control alone doesn't react fast enough to hard
	// failures. It must be in (0, 1). By default 0.9.
	DecreaseFactor float64
}

func (c *VegasConfig) defaults() {
	if c.InitialLimit == 0 {
		c.InitialLimit = 10
	}

	if c.MinLimit == 0 {
		c.MinLimit = defaultMinLimit
	}

	if c.MaxLimit == 0 {
		c.MaxLimit = defaultMaxLimit
	}

	if c.Alpha == nil {
		c.Alpha = Log10ThresholdFunc(3)
	}

	if c.Beta == nil {
		c.Beta = Log10ThresholdFunc(6)
	}

	if c.DecreaseFactor == 0 {
		c.DecreaseFactor = 0.9
	}
}

func (c *VegasConfig) validate() error {
	if c.MinLimit < 1 {
		return fmt.Errorf("min limit must be >= 1, got %d", c.MinLimit)
	}

	if c.MinLimit > c.MaxLimit {
		return fmt.Errorf("min limit (%d) can't be greater than max limit (%d)", c.MinLimit, c.MaxLimit)
	}

	if c.InitialLimit < c.MinLimit || c.InitialLimit > c.MaxLimit {
		return fmt.Errorf("initial limit (%d) must be within [%d, %d]", c.InitialLimit, c.MinLimit, c.MaxLimit)
	}

	if c.DecreaseFactor <= 0 || c.DecreaseFactor >= 1 {
		return fmt.Errorf("decrease factor must be in (0, 1), got %v", c.DecreaseFactor)
	}

	return nil
}

// NewVegas returns a new Vegas adaptive limit algorithm, based on the TCP
// Vegas congestion control algorithm.
//
// It estimates the queue size by comparing the sample latency against the
// minimum observed latency (the latency we would expect with no queueing at
// all) and keeps the limit in a band where the queue stays between two
// thresholds (additive increase, additive decrease). When overload is
// detected it falls back to an AIMD style multiplicative decrease.
//
// More information about this algorithm in:
// https://www.cs.princeton.edu/courses/archive/fall06/cos561/papers/vegas.pdf
func NewVegas(cfg VegasConfig) (Algorithm, error) {
	cfg.defaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid Vegas configuration: %s", err)
	}

	return &vegas{
		limit: cfg.InitialLimit,
		cfg:   cfg,
	}, nil
}

type vegas struct {
	cfg   VegasConfig
	limit int

	// minRTT is the minimum observed latency, the baseline we would expect
	// with no queueing. Zero means no sample has been observed yet, the
	// first sample seeds it.
	minRTT time.Duration
}

// Update satisfies Algorithm interface.
func (v *vegas) Update(sample Sample) int {
	if sample.Outcome == Ignore || sample.Outcome == "" {
		return v.limit
	}

	if sample.Latency < minSampleLatency {
		return v.limit
	}

	if v.minRTT == 0 || sample.Latency < v.minRTT {
		v.minRTT = sample.Latency
	}

	switch sample.Outcome {
	case Overload:
		v.limit = clampInt(
			int(multiplicativeDecrease(float64(v.limit), v.cfg.DecreaseFactor)),
			v.cfg.MinLimit, v.cfg.MaxLimit)

	case Success:
		// Estimated queued jobs at the current limit. Latency equal to the
		// baseline means an empty queue.
		queue := float64(v.limit) * (1 - v.minRTT.Seconds()/sample.Latency.Seconds())
		if queue < 0 {
			queue = 0
		}

		switch {
		case queue < v.cfg.Alpha(v.limit):
			// Limit too small, low queueing.
			v.limit = clampInt(v.limit+1, v.cfg.MinLimit, v.cfg.MaxLimit)
		case queue > v.cfg.Beta(v.limit):
			// Limit too big, too much queueing.
			v.limit = clampInt(v.limit-1, v.cfg.MinLimit, v.cfg.MaxLimit)
		}
		// In between both thresholds the limit is just right.
	}

	return v.limit
}

// Limit satisfies Algorithm interface.
func (v *vegas) Limit() int {
	return v.limit
}
