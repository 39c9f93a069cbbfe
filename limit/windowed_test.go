package limit_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ThomWright/squeeze/limit"
)

func newTestWindowed(t *testing.T, alg limit.Algorithm, minSamples int) limit.Algorithm {
	windowed, err := limit.NewWindowed(limit.WindowedConfig{
		Algorithm:  alg,
		MinSamples: minSamples,
		MinWindow:  1 * time.Nanosecond,
		MaxWindow:  1 * time.Nanosecond,
	})
	assert.NoError(t, err)

	return windowed
}

func TestWindowed(t *testing.T) {
	assert := assert.New(t)

	vegas, err := limit.NewVegas(limit.VegasConfig{InitialLimit: 10})
	if !assert.NoError(err) {
		return
	}
	windowed := newTestWindowed(t, vegas, 2)

	var gotLimit int
	for i := 0; i < 2; i++ {
		gotLimit = windowed.Update(limit.Sample{
			Latency:  10 * time.Millisecond,
			Inflight: 1,
			Outcome:  limit.Success,
		})
	}
	assert.Equal(11, gotLimit, "the first full window should forward one aggregated sample")

	for i := 0; i < 2; i++ {
		gotLimit = windowed.Update(limit.Sample{
			Latency:  100 * time.Millisecond,
			Inflight: 1,
			Outcome:  limit.Overload,
		})
	}
	assert.True(gotLimit < 11, "an overloaded window should reduce the limit, got %d", gotLimit)
}

func TestWindowedIncompleteWindow(t *testing.T) {
	assert := assert.New(t)

	vegas, err := limit.NewVegas(limit.VegasConfig{InitialLimit: 10})
	if !assert.NoError(err) {
		return
	}
	windowed := newTestWindowed(t, vegas, 5)

	for i := 0; i < 4; i++ {
		gotLimit := windowed.Update(limit.Sample{
			Latency:  10 * time.Millisecond,
			Inflight: 1,
			Outcome:  limit.Success,
		})
		assert.Equal(10, gotLimit, "an incomplete window shouldn't move the limit")
	}
}

func TestWindowedInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  limit.WindowedConfig
	}{
		{
			name: "A decorated algorithm is required.",
			cfg:  limit.WindowedConfig{},
		},
		{
			name: "A negative sample count per window is invalid.",
			cfg: limit.WindowedConfig{
				Algorithm:  limit.NewStatic(10),
				MinSamples: -1,
			},
		},
		{
			name: "A min window over the max window is invalid.",
			cfg: limit.WindowedConfig{
				Algorithm: limit.NewStatic(10),
				MinWindow: 10 * time.Second,
				MaxWindow: 1 * time.Second,
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := limit.NewWindowed(test.cfg)
			assert.Error(t, err)
		})
	}
}
