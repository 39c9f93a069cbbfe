package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	promNamespace = "squeeze"

	promLimiterSubsystem = "limiter"
)

type prometheusRec struct {
	// Metrics.
	limiterLimit       *prometheus.GaugeVec
	limiterInflight    *prometheus.GaugeVec
	limiterSamples     *prometheus.CounterVec
	limiterRejected    *prometheus.CounterVec
	limiterAcquireWait *prometheus.HistogramVec

	id  string
	reg prometheus.Registerer
}

// NewPrometheusRecorder returns a new Recorder that knows how to measure
// using Prometheus kind metrics.
func NewPrometheusRecorder(reg prometheus.Registerer) Recorder {
	p := &prometheusRec{
		reg: reg,
	}

	p.registerMetrics()
	return p
}

func (p prometheusRec) WithID(id string) Recorder {
	return &prometheusRec{
		limiterLimit:       p.limiterLimit,
		limiterInflight:    p.limiterInflight,
		limiterSamples:     p.limiterSamples,
		limiterRejected:    p.limiterRejected,
		limiterAcquireWait: p.limiterAcquireWait,

		id:  id,
		reg: p.reg,
	}
}

func (p *prometheusRec) registerMetrics() {
	p.limiterLimit = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: promNamespace,
		Subsystem: promLimiterSubsystem,
		Name:      "limit",
		Help:      "The current concurrency limit calculated by the limit algorithm.",
	}, []string{"id"})

	p.limiterInflight = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: promNamespace,
		Subsystem: promLimiterSubsystem,
		Name:      "inflight",
		Help:      "The current number of inflight jobs holding a token.",
	}, []string{"id"})

	p.limiterSamples = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: promNamespace,
		Subsystem: promLimiterSubsystem,
		Name:      "samples_total",
		Help:      "Total number of released tokens measured, by outcome.",
	}, []string{"id", "outcome"})

	p.limiterRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: promNamespace,
		Subsystem: promLimiterSubsystem,
		Name:      "rejected_total",
		Help:      "Total number of acquisitions rejected by the limiter.",
	}, []string{"id"})

	p.limiterAcquireWait = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: promNamespace,
		Subsystem: promLimiterSubsystem,
		Name:      "acquire_wait_duration_seconds",
		Help:      "The time spent waiting for capacity on blocking acquisitions.",
	}, []string{"id", "acquired"})

	p.reg.MustRegister(p.limiterLimit,
		p.limiterInflight,
		p.limiterSamples,
		p.limiterRejected,
		p.limiterAcquireWait,
	)
}

func (p prometheusRec) SetLimit(limit int) {
	p.limiterLimit.WithLabelValues(p.id).Set(float64(limit))
}

func (p prometheusRec) SetInflight(inflight int) {
	p.limiterInflight.WithLabelValues(p.id).Set(float64(inflight))
}

func (p prometheusRec) IncSampleOutcome(outcome string) {
	p.limiterSamples.WithLabelValues(p.id, outcome).Inc()
}

func (p prometheusRec) IncAcquireRejected() {
	p.limiterRejected.WithLabelValues(p.id).Inc()
}

func (p prometheusRec) ObserveAcquireWait(start time.Time, acquired bool) {
	secs := time.Since(start).Seconds()
	p.limiterAcquireWait.WithLabelValues(p.id, fmt.Sprintf("%t", acquired)).Observe(secs)
}
