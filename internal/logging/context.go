package logging

import (
	"context"
	"time"
)

// DetachContextWithTimeout returns a context that outlives parent's
// cancellation but carries its own deadline. Persistence writers use it so
// a shutdown signal does not abort the final flush.
//
//	ctx, cancel := logging.DetachContextWithTimeout(ctx, 5*time.Second)
//	defer cancel()
func DetachContextWithTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(parent), timeout)
}
