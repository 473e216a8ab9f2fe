// Package runlock serializes generator runs per (organization, generator).
package runlock

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrRunInProgress = errors.New("run_in_progress")

// DefaultTTL bounds how long a crashed holder can block other runs.
const DefaultTTL = 5 * time.Minute

// Locker acquires a non-blocking exclusive lock. The returned release func is always non-nil on success.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Key builds the lock key for a generator run in an organization.
func Key(generator string, orgID int64) string {
	return fmt.Sprintf("seatwise:run:%s:%d", generator, orgID)
}
