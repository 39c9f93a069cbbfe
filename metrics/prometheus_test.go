package metrics_test

import (
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"

	"github.com/ThomWright/squeeze/metrics"
)

func TestPrometheus(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name          string
		recordMetrics func(metrics.Recorder)
		expMetrics    []string
	}{
		{
			name: "Recording limiter metrics should expose the metrics.",
			recordMetrics: func(m metrics.Recorder) {
				m1 := m.WithID("test")
				m2 := m.WithID("test2")

				m1.SetLimit(15)
				m1.SetInflight(3)
				m1.IncSampleOutcome("success")
				m1.IncSampleOutcome("success")
				m1.IncSampleOutcome("overload")
				m1.IncAcquireRejected()

				m2.SetLimit(100)
				m2.IncSampleOutcome("ignore")
			},
			expMetrics: []string{
				`squeeze_limiter_limit{id="test"} 15`,
				`squeeze_limiter_inflight{id="test"} 3`,
				`squeeze_limiter_samples_total{id="test",outcome="success"} 2`,
				`squeeze_limiter_samples_total{id="test",outcome="overload"} 1`,
				`squeeze_limiter_rejected_total{id="test"} 1`,

				`squeeze_limiter_limit{id="test2"} 100`,
				`squeeze_limiter_samples_total{id="test2",outcome="ignore"} 1`,
			},
		},
		{
			name: "Recording acquire waits should expose the duration histogram.",
			recordMetrics: func(m metrics.Recorder) {
				m1 := m.WithID("test")
				m1.ObserveAcquireWait(now.Add(-50*time.Millisecond), true)
				m1.ObserveAcquireWait(now.Add(-3*time.Second), false)
			},
			expMetrics: []string{
				`squeeze_limiter_acquire_wait_duration_seconds_bucket{acquired="true",id="test",le="0.1"} 1`,
				`squeeze_limiter_acquire_wait_duration_seconds_count{acquired="true",id="test"} 1`,
				`squeeze_limiter_acquire_wait_duration_seconds_bucket{acquired="false",id="test",le="2.5"} 0`,
				`squeeze_limiter_acquire_wait_duration_seconds_bucket{acquired="false",id="test",le="5"} 1`,
				`squeeze_limiter_acquire_wait_duration_seconds_count{acquired="false",id="test"} 1`,
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert := assert.New(t)

			// Create the recorder with a new registry and measure.
			promreg := prometheus.NewRegistry()
			rec := metrics.NewPrometheusRecorder(promreg)
			test.recordMetrics(rec)

			// Expose the metrics and check they are present.
			h := promhttp.HandlerFor(promreg, promhttp.HandlerOpts{})
			server := httptest.NewServer(h)
			defer server.Close()

			resp, err := http.Get(server.URL)
			if !assert.NoError(err) {
				return
			}
			defer resp.Body.Close()
			body, err := ioutil.ReadAll(resp.Body)
			if !assert.NoError(err) {
				return
			}

			for _, expMetric := range test.expMetrics {
				assert.Contains(string(body), expMetric)
			}
		})
	}
}
