package ports

import (
	"context"
	"time"

	"pizzeria/internal/core/domain/model/session"
)

// Scheduler is the deferred-task contract used for the delivery feedback
// prompt. At most one pending task exists per identity; scheduling again
// replaces the previous one.
type Scheduler interface {
	// ScheduleOnce arranges for the payload to fire once after delay.
	ScheduleOnce(ctx context.Context, identity session.Identity, delay time.Duration, payload string) error

	// Cancel drops the pending task for the identity, if any.
	Cancel(ctx context.Context, identity session.Identity) error
}
