package squeeze

import (
	"time"
)

// Token is an opaque receipt for one admitted job, issued by a successful
// acquisition. It must be given back to the limiter that issued it with
// `Release`, exactly once.
//
// Releasing a token twice, or a token issued by another limiter, will
// desynchronize the inflight counter and is a caller contract violation, the
// limiter doesn't detect it.
type Token struct {
	start    time.Time
	inflight int
}

// StartTime returns the time the token was acquired at.
func (t Token) StartTime() time.Time {
	return t.start
}

// Inflight returns the number of inflight jobs, including this one, at the
// moment the token was acquired.
func (t Token) Inflight() int {
	return t.inflight
}
