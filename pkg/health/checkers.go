package health

import (
	"context"
	"fmt"
	"runtime"
)

// Pinger is satisfied by pgxpool.Pool and database handles alike.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DatabaseCheck reports whether the database answers a ping.
func DatabaseCheck(db Pinger) CheckFunc {
	return func(ctx context.Context) error {
		return db.Ping(ctx)
	}
}

// GoroutineCountCheck fails when the process exceeds the given number of
// goroutines, a cheap leak tripwire.
func GoroutineCountCheck(limit int) CheckFunc {
	return func(context.Context) error {
		if n := runtime.NumGoroutine(); n > limit {
			return fmt.Errorf("too many goroutines: %d > %d", n, limit)
		}
		return nil
	}
}
