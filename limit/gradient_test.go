package limit_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ThomWright/squeeze/limit"
)

// newTestGradient returns a gradient algorithm with a tiny window so tests
// are deterministic and don't need to sleep.
func newTestGradient(t *testing.T, cfg limit.GradientConfig) limit.Algorithm {
	if cfg.WindowMinSamples == 0 {
		cfg.WindowMinSamples = 5
	}
	cfg.WindowMinDuration = 1 * time.Nanosecond

	alg, err := limit.NewGradient(cfg)
	assert.NoError(t, err)

	return alg
}

// fillBaseline completes one baseline window at the given latency.
func fillBaseline(alg limit.Algorithm, latency time.Duration, samples int) {
	for i := 0; i < samples; i++ {
		alg.Update(limit.Sample{
			Latency:  latency,
			Inflight: alg.Limit(),
			Outcome:  limit.Success,
		})
	}
}

func TestGradientColdStart(t *testing.T) {
	assert := assert.New(t)

	alg := newTestGradient(t, limit.GradientConfig{InitialLimit: 10})

	// Not enough samples for a full window yet: no baseline, no movement.
	for i := 0; i < 4; i++ {
		gotLimit := alg.Update(limit.Sample{
			Latency:  25 * time.Millisecond,
			Inflight: 10,
			Outcome:  limit.Success,
		})
		assert.Equal(10, gotLimit, "the limit shouldn't move before the baseline has evidence")
	}
}

func TestGradientSteadyLatency(t *testing.T) {
	assert := assert.New(t)

	alg := newTestGradient(t, limit.GradientConfig{InitialLimit: 10, Tolerance: 2})

	fillBaseline(alg, 25*time.Millisecond, 5)

	// Latency on the baseline: gradient 1, the tolerance lets the limit
	// grow.
	gotLimit := alg.Update(limit.Sample{
		Latency:  25 * time.Millisecond,
		Inflight: alg.Limit(),
		Outcome:  limit.Success,
	})

	assert.True(gotLimit > 10, "steady latency should let the limit grow, got %d", gotLimit)
}

func TestGradientLatencyStep(t *testing.T) {
	assert := assert.New(t)

	alg := newTestGradient(t, limit.GradientConfig{
		InitialLimit:       100,
		Tolerance:          2,
		GradientLowerBound: 0.5,
	})

	fillBaseline(alg, 25*time.Millisecond, 5)
	baselineLimit := alg.Limit()

	// A sustained 10x latency step: the limit should decrease monotonically,
	// bounded per step by the gradient lower bound.
	prevLimit := baselineLimit
	for i := 0; i < 4; i++ {
		gotLimit := alg.Update(limit.Sample{
			Latency:  250 * time.Millisecond,
			Inflight: alg.Limit(),
			Outcome:  limit.Success,
		})

		assert.True(gotLimit <= prevLimit, "the limit should decrease monotonically, got %d after %d", gotLimit, prevLimit)
		assert.True(float64(gotLimit) >= float64(prevLimit)*0.5, "a single step shouldn't halve more than the lower bound")
		prevLimit = gotLimit
	}
	assert.True(prevLimit < baselineLimit, "sustained latency increase should decrease the limit")
	assert.True(prevLimit >= 1, "the limit should never go under the minimum")
}

func TestGradientBaselineReconverges(t *testing.T) {
	assert := assert.New(t)

	alg := newTestGradient(t, limit.GradientConfig{
		InitialLimit: 50,
		Tolerance:    2,
	})

	fillBaseline(alg, 25*time.Millisecond, 5)

	// Sustained increased latency over many windows: the baseline smooths
	// towards the new latency and the gradient recovers towards 1.
	for i := 0; i < 20; i++ {
		fillBaseline(alg, 250*time.Millisecond, 5)
	}
	reconvergedLimit := alg.Limit()

	gotLimit := alg.Update(limit.Sample{
		Latency:  250 * time.Millisecond,
		Inflight: alg.Limit(),
		Outcome:  limit.Success,
	})

	assert.True(gotLimit >= reconvergedLimit, "the limit should stabilize once the baseline reconverges, got %d after %d", gotLimit, reconvergedLimit)
}

func TestGradientOverload(t *testing.T) {
	assert := assert.New(t)

	alg := newTestGradient(t, limit.GradientConfig{
		InitialLimit:       100,
		Tolerance:          2,
		GradientLowerBound: 0.5,
	})

	fillBaseline(alg, 25*time.Millisecond, 5)
	beforeOverload := alg.Limit()

	// An overload behaves like an instantaneously very large latency,
	// forcing the gradient to its lower bound.
	gotLimit := alg.Update(limit.Sample{
		Latency:  25 * time.Millisecond,
		Inflight: alg.Limit(),
		Outcome:  limit.Overload,
	})

	assert.Equal(int(float64(beforeOverload)*0.5+2), gotLimit)
}

func TestGradientIgnore(t *testing.T) {
	assert := assert.New(t)

	alg := newTestGradient(t, limit.GradientConfig{InitialLimit: 10})

	fillBaseline(alg, 25*time.Millisecond, 5)
	beforeIgnore := alg.Limit()

	gotLimit := alg.Update(limit.Sample{
		Latency:  10 * time.Second,
		Inflight: 10,
		Outcome:  limit.Ignore,
	})

	assert.Equal(beforeIgnore, gotLimit, "an ignored sample should not change the limit")
}

func TestGradientInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  limit.GradientConfig
	}{
		{
			name: "A negative min limit is invalid.",
			cfg:  limit.GradientConfig{MinLimit: -1},
		},
		{
			name: "A min limit over the max limit is invalid.",
			cfg:  limit.GradientConfig{MinLimit: 100, MaxLimit: 10, InitialLimit: 100},
		},
		{
			name: "A smoothing factor of 1 or more is invalid.",
			cfg:  limit.GradientConfig{Smoothing: 1},
		},
		{
			name: "A gradient lower bound of 1 or more is invalid.",
			cfg:  limit.GradientConfig{GradientLowerBound: 1},
		},
		{
			name: "A negative tolerance is invalid.",
			cfg:  limit.GradientConfig{Tolerance: -1},
		},
		{
			name: "A negative window sample count is invalid.",
			cfg:  limit.GradientConfig{WindowMinSamples: -1},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := limit.NewGradient(test.cfg)
			assert.Error(t, err)
		})
	}
}
