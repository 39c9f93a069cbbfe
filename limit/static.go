package limit

// static is an algorithm with a fixed limit, it isn't adaptive. Useful for
// testing purposes and as a plain concurrency cap.
type static struct {
	limit int
}

// NewStatic returns a new Static algorithm with a fixed limit, it isn't
// adaptive. Useful for testing purposes and as a plain concurrency cap.
func NewStatic(limit int) Algorithm {
	if limit < 1 {
		limit = 1
	}

	return &static{
		limit: limit,
	}
}

// Update satisfies Algorithm interface.
func (s *static) Update(_ Sample) int {
	return s.limit
}

// Limit satisfies Algorithm interface.
func (s *static) Limit() int {
	return s.limit
}
