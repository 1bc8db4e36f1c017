package engine

import (
	"context"
	"math"
)

// Service-time estimation constants.  The window fraction is a fixed
// design constant trading responsiveness to recent conditions against
// noise from too few samples.
const (
	// recentWindowFraction is α in N = max(1, round(α × queueLength)).
	recentWindowFraction = 0.5

	// defaultServiceSeconds is assumed when a queue has no served history.
	defaultServiceSeconds = 300.0

	// minServiceSeconds floors the computed average so a burst of
	// near-instant completions cannot poison downstream wait math.
	minServiceSeconds = 30.0
)

// Estimator derives a per-customer service duration from the most recently
// completed services of a queue.  The value is recomputed on every
// broadcast and never cached, so it reflects the latest completion
// immediately.
type Estimator struct {
	store Store
}

// NewEstimator returns an Estimator reading served records from store.
func NewEstimator(store Store) *Estimator {
	return &Estimator{store: store}
}

// AverageServiceTime returns the estimated seconds one service takes on
// the queue.  It averages the waiting_time of the newest
// max(1, round(0.5×queueLength)) served records, defaulting to 300s when
// the queue has no history and flooring the average at 30s otherwise.
func (e *Estimator) AverageServiceTime(ctx context.Context, queueID uint64, queueLength int) (float64, error) {
	n := int(math.Round(recentWindowFraction * float64(queueLength)))
	if n < 1 {
		n = 1
	}
	records, err := e.store.RecentServed(ctx, queueID, n)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return defaultServiceSeconds, nil
	}
	var total float64
	for _, r := range records {
		total += r.WaitingTime
	}
	avg := total / float64(len(records))
	if avg < minServiceSeconds {
		avg = minServiceSeconds
	}
	return avg, nil
}
