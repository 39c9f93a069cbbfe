package middleware

import (
	"context"

	"github.com/ThomWright/squeeze"
	"github.com/ThomWright/squeeze/errors"
	"github.com/ThomWright/squeeze/limit"
)

// Func is the unit of execution protected by the limiter.
type Func func(ctx context.Context) error

// ResultPolicy is the function that will have the responsibility of
// categorizing the result of the execution for the limit algorithm. For
// example depending on the type of the execution a connection error could be
// treated like an overload in the algorithm or just ignored.
type ResultPolicy func(ctx context.Context, err error) limit.Outcome

// OverloadOnExternalErrorPolicy will treat as overload every error that is
// not from the squeeze package itself (this is the rejection error by the
// limiter).
var OverloadOnExternalErrorPolicy = func(_ context.Context, err error) limit.Outcome {
	// Everything ok.
	if err == nil {
		return limit.Success
	}

	// Our own rejections should be ignored, the rest nope.
	if err != nil && err != errors.ErrRejected {
		return limit.Overload
	}

	return limit.Ignore
}

// NoOverloadPolicy will never return an overload, just ignore when an error
// occurs. This can be used to adapt only on latency.
var NoOverloadPolicy = func(_ context.Context, err error) limit.Outcome {
	// Everything ok.
	if err == nil {
		return limit.Success
	}

	return limit.Ignore
}

// Do executes f protected by the limiter: it tries to acquire a token, runs
// f, classifies its error with the policy and releases the token with the
// resulting outcome.
//
// If the limiter is out of capacity it returns errors.ErrRejected without
// executing f, that is the load shedding signal for the caller.
func Do(ctx context.Context, l squeeze.Limiter, policy ResultPolicy, f Func) error {
	if policy == nil {
		policy = OverloadOnExternalErrorPolicy
	}

	token, ok := l.TryAcquire()
	if !ok {
		return errors.ErrRejected
	}

	err := f(ctx)

	l.Release(token, policy(ctx, err))

	return err
}
