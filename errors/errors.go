package errors

import "errors"

var (
	// ErrAcquireTimeout will be used when a blocking acquisition doesn't get
	// capacity within its deadline.
	ErrAcquireTimeout = errors.New("timeout while waiting for capacity")
	// ErrContextCanceled will be used when a blocking acquisition has been
	// aborted due to the context cancelation.
	ErrContextCanceled = errors.New("context canceled, no capacity acquired")
	// ErrRejected will be used when an execution has been rejected by the
	// limiter because it's at capacity.
	ErrRejected = errors.New("execution rejected, limiter out of capacity")
)
