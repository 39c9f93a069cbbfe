package metrics

import "time"

// Recorder knows how to measure the different kind of limiter metrics.
type Recorder interface {
	// WithID will set the ID name to the recorder and every metric measured
	// with the obtained recorder will be identified with the name.
	WithID(id string) Recorder
	// SetLimit will set the current concurrency limit.
	SetLimit(limit int)
	// SetInflight will set the current number of inflight jobs.
	SetInflight(inflight int)
	// IncSampleOutcome will increment the number of measured samples with
	// the received outcome.
	IncSampleOutcome(outcome string)
	// IncAcquireRejected will increment the number of rejected acquisitions.
	IncAcquireRejected()
	// ObserveAcquireWait will measure the time an acquisition waited for
	// capacity, and whether it got it.
	ObserveAcquireWait(start time.Time, acquired bool)
}

// Dummy is a dummy recorder, is safe to use and will not measure anything.
var Dummy Recorder = dummy(0)

type dummy int

func (dummy) WithID(_ string) Recorder               { return Dummy }
func (dummy) SetLimit(_ int)                         {}
func (dummy) SetInflight(_ int)                      {}
func (dummy) IncSampleOutcome(_ string)              {}
func (dummy) IncAcquireRejected()                    {}
func (dummy) ObserveAcquireWait(_ time.Time, _ bool) {}
