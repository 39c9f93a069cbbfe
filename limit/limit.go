package limit

import (
	"time"
)

// Outcome is the caller's classification of a finished job. The algorithms
// use it to know if the job saw overload or not.
type Outcome string

const (
	// Success means the job finished without any load related problem.
	Success Outcome = "success"
	// Overload means the job failed (or degraded) because of load, e.g. a
	// timeout or a resource exhausted signal.
	Overload Outcome = "overload"
	// Ignore means the job result carries no useful load signal (e.g. the
	// client cancelled) and must not move the limit.
	Ignore Outcome = "ignore"
)

// Sample is the measurement of one finished job. It's created once per
// release and consumed once by the algorithm.
type Sample struct {
	// Latency is the wall clock time between acquiring and releasing.
	Latency time.Duration
	// Inflight is the number of concurrently held tokens, including the
	// one being released, at release time.
	Inflight int
	// Outcome is the caller's classification of the job.
	Outcome Outcome
}

// Algorithm knows what the concurrency limit should be based on the
// measured samples. The implementations are based on TCP congestion control
// algorithms.
//
// Update calls are serialized by the limiter, implementations don't receive
// overlapping updates.
type Algorithm interface {
	// Update feeds a new sample to the algorithm and returns the new limit.
	Update(sample Sample) int
	// Limit returns the current limit.
	Limit() int
}

const (
	defaultMinLimit = 1
	defaultMaxLimit = 1000

	// Samples faster than this carry no usable latency information, e.g.
	// short-circuited calls, and would poison minimum RTT baselines.
	minSampleLatency = 1 * time.Microsecond
)

// multiplicativeDecrease reduces the limit by a factor. It floors instead of
// rounding so the limit keeps reducing with small numbers, e.g.
// round(2*0.9) = 2 but floor(2*0.9) = 1.
func multiplicativeDecrease(limit float64, factor float64) float64 {
	return float64(int(limit * factor))
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampFloat(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
