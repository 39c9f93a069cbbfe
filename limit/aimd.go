package limit

import (
	"fmt"
)

// AIMDConfig is the configuration of the AIMD adaptive limit algorithm.
type AIMDConfig struct {
	// InitialLimit is the limit the algorithm will start with. By default 10.
	InitialLimit int
	// MinLimit is the minimum limit the algorithm will decrease to. It must
	// be at least 1. By default 1.
	MinLimit int
	// MaxLimit is the maximum limit the algorithm will increase to. By
	// default 1000.
	MaxLimit int
	// IncreaseBy is the additive increase applied on success under high
	// utilisation. By default 1.
	IncreaseBy int
	// DecreaseFactor is the ratio used to decrease the limit when overload
	// occurs: new limit = current limit * DecreaseFactor. It must be in
	// (0, 1). By default 0.9.
	DecreaseFactor float64
	// IncreaseMinUtilisation is the utilisation (inflight / limit) required
	// to increase the limit on success. Without it the limit would increase
	// forever while underused. It must be in (0, 1]. By default 0.8.
	IncreaseMinUtilisation float64
}

func (c *AIMDConfig) defaults() {
	if c.InitialLimit == 0 {
		c.InitialLimit = 10
	}

	if c.MinLimit == 0 {
		c.MinLimit = defaultMinLimit
	}

	if c.MaxLimit == 0 {
		c.MaxLimit = defaultMaxLimit
	}

	if c.IncreaseBy == 0 {
		c.IncreaseBy = 1
	}

	if c.DecreaseFactor == 0 {
		c.DecreaseFactor = 0.9
	}

	if c.IncreaseMinUtilisation == 0 {
		c.IncreaseMinUtilisation = 0.8
	}
}

func (c *AIMDConfig) validate() error {
	if c.MinLimit < 1 {
		return fmt.Errorf("min limit must be >= 1, got %d", c.MinLimit)
	}

	if c.MinLimit > c.MaxLimit {
		return fmt.Errorf("min limit (%d) can't be greater than max limit (%d)", c.MinLimit, c.MaxLimit)
	}

	if c.InitialLimit < c.MinLimit || c.InitialLimit > c.MaxLimit {
		return fmt.Errorf("initial limit (%d) must be within [%d, %d]", c.InitialLimit, c.MinLimit, c.MaxLimit)
	}

	if c.IncreaseBy < 1 {
		return fmt.Errorf("increase by must be >= 1, got %d", c.IncreaseBy)
	}

	if c.DecreaseFactor <= 0 || c.DecreaseFactor >= 1 {
		return fmt.Errorf("decrease factor must be in (0, 1), got %v", c.DecreaseFactor)
	}

	if c.IncreaseMinUtilisation <= 0 || c.IncreaseMinUtilisation > 1 {
		return fmt.Errorf("increase min utilisation must be in (0, 1], got %v", c.IncreaseMinUtilisation)
	}

	return nil
}

// NewAIMD returns a new AIMD adaptive limit algorithm, based on the TCP
// congestion control algorithm with the same name (additive increase,
// multiplicative decrease).
//
// It adds concurrency when no load based errors are observed and the
// utilisation of the current limit is high, and reduces it by a factor when
// overload is detected. More information about this algorithm in:
// https://en.wikipedia.org/wiki/Additive_increase/multiplicative_decrease
func NewAIMD(cfg AIMDConfig) (Algorithm, error) {
	cfg.defaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid AIMD configuration: %s", err)
	}

	return &aimd{
		limit: float64(cfg.InitialLimit),
		cfg:   cfg,
	}, nil
}

type aimd struct {
	cfg   AIMDConfig
	limit float64
}

// Update satisfies Algorithm interface.
func (a *aimd) Update(sample Sample) int {
	switch sample.Outcome {
	case Success:
		// Only increase if we need it. If not we would be increasing forever
		// while the extra concurrency is never used.
		utilisation := float64(sample.Inflight) / a.limit
		if utilisation >= a.cfg.IncreaseMinUtilisation {
			a.limit = clampFloat(a.limit+float64(a.cfg.IncreaseBy),
				float64(a.cfg.MinLimit), float64(a.cfg.MaxLimit))
		}

	case Overload:
		a.limit = clampFloat(multiplicativeDecrease(a.limit, a.cfg.DecreaseFactor),
			float64(a.cfg.MinLimit), float64(a.cfg.MaxLimit))
	}

	// Same as ignore.
	return int(a.limit)
}

// Limit satisfies Algorithm interface.
func (a *aimd) Limit() int {
	return int(a.limit)
}
