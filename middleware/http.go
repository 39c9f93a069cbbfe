package middleware

import (
	"net/http"

	"github.com/ThomWright/squeeze"
	"github.com/ThomWright/squeeze/limit"
)

// StatusPolicy categorizes an HTTP response status code for the limit
// algorithm. This translation belongs here, at the transport boundary, the
// limiter core knows nothing about HTTP.
type StatusPolicy func(status int) limit.Outcome

// DefaultStatusPolicy treats 429, 503 and 504 as overload, everything else
// as success. Other 5xx statuses are application failures, they carry no
// load signal.
var DefaultStatusPolicy = func(status int) limit.Outcome {
	switch status {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return limit.Overload
	}

	return limit.Success
}

// HTTPConfig is the configuration for the HTTP middleware.
type HTTPConfig struct {
	// Limiter is the limiter protecting the wrapped handler. Required.
	Limiter squeeze.Limiter
	// StatusPolicy categorizes the response status for the limit algorithm.
	// By default DefaultStatusPolicy.
	StatusPolicy StatusPolicy
	// RejectedStatus is the status returned when the limiter sheds the
	// request. By default 503.
	RejectedStatus int
}

func (c *HTTPConfig) defaults() {
	if c.StatusPolicy == nil {
		c.StatusPolicy = DefaultStatusPolicy
	}

	if c.RejectedStatus == 0 {
		c.RejectedStatus = http.StatusServiceUnavailable
	}
}

// NewHTTPMiddleware returns a middleware that wraps an http.Handler with the
// limiter: requests over the concurrency limit are shed with the configured
// rejected status, the rest are measured and fed back to the limit
// algorithm.
func NewHTTPMiddleware(cfg HTTPConfig) func(next http.Handler) http.Handler {
	cfg.defaults()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := cfg.Limiter.TryAcquire()
			if !ok {
				http.Error(w, "limiter out of capacity", cfg.RejectedStatus)
				return
			}

			sw := &statusWriter{ResponseWriter: w}
			next.ServeHTTP(sw, r)

			cfg.Limiter.Release(token, cfg.StatusPolicy(sw.status()))
		})
	}
}

// statusWriter captures the status code written by the wrapped handler.
type statusWriter struct {
	http.ResponseWriter
	wroteStatus int
}

func (s *statusWriter) WriteHeader(status int) {
	if s.wroteStatus == 0 {
		s.wroteStatus = status
	}
	s.ResponseWriter.WriteHeader(status)
}

func (s *statusWriter) Write(b []byte) (int, error) {
	if s.wroteStatus == 0 {
		s.wroteStatus = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

func (s *statusWriter) status() int {
	if s.wroteStatus == 0 {
		return http.StatusOK
	}
	return s.wroteStatus
}
