/*
Package squeeze implements dynamic congestion based concurrency limits for
controlling backpressure, inspired by the implementation of
Netflix/concurrency-limits and TCP congestion control algorithms.

The implementation is based on 3 components:

  - The limit Algorithm: this is the algorithm used to calculate the limit of
    concurrency from the measured samples. There are multiple to select based
    on the type of signal wanted (loss based, delay based...). They live in
    the `limit` package.

  - The Limiter: the concurrency safe core. It issues one Token per admitted
    job, refuses admission when the inflight jobs reach the limit, and on
    every release it measures the job sample, feeds it to the algorithm and
    installs the new limit.

  - The Token: an opaque receipt for one admitted job. The limiter doesn't
    track token identities, only the inflight count, so a lost token reduces
    the effective capacity by one until the process restarts. This keeps the
    hot path allocation free.

The classification of a job result into an outcome (success, overload or
ignore) is the caller's responsibility, the core knows nothing about HTTP or
gRPC statuses. The `middleware` package has helpers for the common cases.
*/
package squeeze
