package middleware_test

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ThomWright/squeeze"
	"github.com/ThomWright/squeeze/errors"
	"github.com/ThomWright/squeeze/limit"
	"github.com/ThomWright/squeeze/middleware"
)

// fakeLimiter records the releases it receives.
type fakeLimiter struct {
	rejectAll bool

	acquired  int
	released  int
	outcomes  []limit.Outcome
}

func (f *fakeLimiter) TryAcquire() (squeeze.Token, bool) {
	if f.rejectAll {
		return squeeze.Token{}, false
	}
	f.acquired++
	return squeeze.Token{}, true
}

func (f *fakeLimiter) Acquire(_ context.Context) (squeeze.Token, error) {
	if f.rejectAll {
		return squeeze.Token{}, errors.ErrAcquireTimeout
	}
	f.acquired++
	return squeeze.Token{}, nil
}

func (f *fakeLimiter) Release(_ squeeze.Token, outcome limit.Outcome) {
	f.released++
	f.outcomes = append(f.outcomes, outcome)
}

func (f *fakeLimiter) Limit() int    { return 10 }
func (f *fakeLimiter) Inflight() int { return f.acquired - f.released }

func TestDo(t *testing.T) {
	errTest := stderrors.New("wanted error")

	tests := []struct {
		name        string
		rejectAll   bool
		policy      middleware.ResultPolicy
		f           middleware.Func
		expErr      error
		expOutcomes []limit.Outcome
	}{
		{
			name:        "A successful execution should release with a success outcome.",
			f:           func(_ context.Context) error { return nil },
			expErr:      nil,
			expOutcomes: []limit.Outcome{limit.Success},
		},
		{
			name:        "A failed execution should release with an overload outcome by default.",
			f:           func(_ context.Context) error { return errTest },
			expErr:      errTest,
			expOutcomes: []limit.Outcome{limit.Overload},
		},
		{
			name:        "The no overload policy should ignore failed executions.",
			policy:      middleware.NoOverloadPolicy,
			f:           func(_ context.Context) error { return errTest },
			expErr:      errTest,
			expOutcomes: []limit.Outcome{limit.Ignore},
		},
		{
			name:      "A rejected acquisition should not execute and return the rejection error.",
			rejectAll: true,
			f: func(_ context.Context) error {
				panic("shouldn't be executed")
			},
			expErr:      errors.ErrRejected,
			expOutcomes: nil,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert := assert.New(t)

			l := &fakeLimiter{rejectAll: test.rejectAll}

			err := middleware.Do(context.TODO(), l, test.policy, test.f)

			assert.Equal(test.expErr, err)
			assert.Equal(test.expOutcomes, l.outcomes)
			assert.Equal(0, l.Inflight(), "every admitted execution should be released")
		})
	}
}

func TestResultPolicies(t *testing.T) {
	errTest := stderrors.New("wanted error")

	tests := []struct {
		name       string
		policy     middleware.ResultPolicy
		err        error
		expOutcome limit.Outcome
	}{
		{
			name:       "The external error policy should treat no error as a success.",
			policy:     middleware.OverloadOnExternalErrorPolicy,
			err:        nil,
			expOutcome: limit.Success,
		},
		{
			name:       "The external error policy should treat an external error as overload.",
			policy:     middleware.OverloadOnExternalErrorPolicy,
			err:        errTest,
			expOutcome: limit.Overload,
		},
		{
			name:       "The external error policy should ignore the limiter's own rejections.",
			policy:     middleware.OverloadOnExternalErrorPolicy,
			err:        errors.ErrRejected,
			expOutcome: limit.Ignore,
		},
		{
			name:       "The no overload policy should ignore every error.",
			policy:     middleware.NoOverloadPolicy,
			err:        errTest,
			expOutcome: limit.Ignore,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert := assert.New(t)

			outcome := test.policy(context.TODO(), test.err)
			assert.Equal(test.expOutcome, outcome)
		})
	}
}
