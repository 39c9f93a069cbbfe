package limit

import (
	"time"
)

// expSmoothedWarmupSamples is the number of initial samples averaged before
// exponential smoothing kicks in. Exponential smoothing puts substantial
// weight on past observations, so the first value would have an unreasonably
// large effect on early results without a warmup period.
const expSmoothedWarmupSamples = 10

// expSmoothed is an exponential moving average of durations.
// https://en.wikipedia.org/wiki/Exponential_smoothing
type expSmoothed struct {
	// smoothingFactor is the weight of the new sample against the smoothed
	// value, in (0, 1).
	smoothingFactor float64

	value time.Duration

	initialSum   time.Duration
	initialCount int
}

func newExpSmoothed(smoothingFactor float64) *expSmoothed {
	return &expSmoothed{
		smoothingFactor: smoothingFactor,
	}
}

// sample adds a new duration and returns the smoothed value.
func (e *expSmoothed) sample(d time.Duration) time.Duration {
	if e.initialCount < expSmoothedWarmupSamples {
		e.initialSum += d
		e.initialCount++
		e.value = e.initialSum / time.Duration(e.initialCount)
	} else {
		e.value = e.value + time.Duration(float64(d-e.value)*e.smoothingFactor)
	}

	return e.value
}

// get returns the current smoothed value without adding a sample.
func (e *expSmoothed) get() time.Duration {
	return e.value
}

// samples returns the number of warmup samples observed, capped at the
// warmup size.
func (e *expSmoothed) samples() int {
	return e.initialCount
}
