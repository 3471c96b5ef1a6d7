package worker

import (
	"context"
)

// ABCRefresher recomputes the ABC classification cache. Declared here so the
// pool does not depend on the service package (which depends on this one for
// the dispatcher).
type ABCRefresher interface {
	Refresh(ctx context.Context, days int) error
}

// ABCWorker refreshes the cached classification after sales land. The pass is
// idempotent, so redundant refreshes from bursts of sales are harmless.
type ABCWorker struct {
	refresher    ABCRefresher
	lookbackDays int
}

func NewABCWorker(refresher ABCRefresher, lookbackDays int) *ABCWorker {
	return &ABCWorker{refresher: refresher, lookbackDays: lookbackDays}
}

func (w *ABCWorker) Process(ctx context.Context) error {
	return w.refresher.Refresh(ctx, w.lookbackDays)
}
