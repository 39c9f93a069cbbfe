package limit

import (
	"fmt"
	"sort"
	"time"
)

// Aggregator knows how to aggregate multiple samples into one, e.g. to feed
// an algorithm with a percentile latency over a window instead of every
// individual sample.
//
// Samples can be added to grow the aggregation, the window can only be
// contracted again by resetting.
type Aggregator interface {
	// Sample adds a sample to the aggregation and returns the current
	// aggregated sample.
	Sample(sample Sample) Sample
	// Samples returns the number of samples aggregated since the last reset.
	Samples() int
	// Reset discards the aggregated samples.
	Reset()
}

// overloadedOr aggregates two outcomes, overload wins over everything else.
func overloadedOr(a, b Outcome) Outcome {
	if a == Overload || b == Overload {
		return Overload
	}
	return Success
}

// NewAverage returns an Aggregator that aggregates samples into their
// average latency, keeping the maximum inflight count seen and an overload
// outcome if any sample was an overload.
func NewAverage() Aggregator {
	return &average{}
}

type average struct {
	latencySum  time.Duration
	maxInflight int
	outcome     Outcome
	samples     int
}

// Sample satisfies Aggregator interface.
func (a *average) Sample(sample Sample) Sample {
	a.latencySum += sample.Latency
	if sample.Inflight > a.maxInflight {
		a.maxInflight = sample.Inflight
	}
	a.outcome = overloadedOr(a.outcome, sample.Outcome)
	a.samples++

	return Sample{
		Latency:  a.latencySum / time.Duration(a.samples),
		Inflight: a.maxInflight,
		Outcome:  a.outcome,
	}
}

// Samples satisfies Aggregator interface.
func (a *average) Samples() int {
	return a.samples
}

// Reset satisfies Aggregator interface.
func (a *average) Reset() {
	*a = average{}
}

// NewPercentile returns an Aggregator that aggregates samples into a latency
// percentile, keeping the maximum inflight count seen and an overload
// outcome if any sample was an overload. The percentile must be in (0, 1)
// exclusive, e.g. 0.9 for P90.
func NewPercentile(percentile float64) (Aggregator, error) {
	if percentile <= 0 || percentile >= 1 {
		return nil, fmt.Errorf("percentile must be between 0 and 1 exclusive, got %v", percentile)
	}

	return &pctile{percentile: percentile}, nil
}

type pctile struct {
	percentile  float64
	latencies   []time.Duration
	maxInflight int
	outcome     Outcome
}

// Sample satisfies Aggregator interface.
func (p *pctile) Sample(sample Sample) Sample {
	p.latencies = append(p.latencies, sample.Latency)
	if sample.Inflight > p.maxInflight {
		p.maxInflight = sample.Inflight
	}
	p.outcome = overloadedOr(p.outcome, sample.Outcome)

	sorted := make([]time.Duration, len(p.latencies))
	copy(sorted, p.latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	index := int(float64(len(sorted)) * p.percentile)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return Sample{
		Latency:  sorted[index],
		Inflight: p.maxInflight,
		Outcome:  p.outcome,
	}
}

// Samples satisfies Aggregator interface.
func (p *pctile) Samples() int {
	return len(p.latencies)
}

// Reset satisfies Aggregator interface.
func (p *pctile) Reset() {
	*p = pctile{percentile: p.percentile}
}
