package testutil

import (
	"context"
	"time"

	"lexdraft/pkg/requestcontext"
)

// FixedClock returns a context whose request time is t.
func FixedClock(ctx context.Context, t time.Time) context.Context {
	return requestcontext.WithTime(ctx, t)
}
