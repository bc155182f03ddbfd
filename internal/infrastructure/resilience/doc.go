/*
Package resilience provides a circuit breaker for calls into dependencies
that may fail repeatedly, such as the storage backend.

	breaker := resilience.New("persistence", resilience.Settings{
		Timeout:     30 * time.Second,
		ReadyToTrip: resilience.ConsecutiveFailures(5),
	})

	err := breaker.Do(func() error {
		return backend.Put(ctx, key, value)
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		// skipped; the dependency is cooling down
	}

# States

	Closed --[trip]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                        |
	                                   [failure]
	                                        v
	                                      Open
*/
package resilience
