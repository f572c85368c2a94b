package fetch

import (
	"errors"

	"mapstitch/internal/metrics"
)

// record updates the batch counters and invokes the observer under the
// result lock, so Done is strictly monotonic even with a worker pool and
// the observer sees exactly Total events.
func (r *GridResult) record(x, y int, status Status, err error, obs Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch status {
	case StatusHit:
		r.Hits++
	case StatusFetched:
		r.Fetched++
	case StatusFailed:
		r.Failed++
		var te *TileError
		if errors.As(err, &te) {
			r.Errors = append(r.Errors, te)
		} else {
			r.Errors = append(r.Errors, &TileError{X: x, Y: y, Err: err})
		}
	}

	metrics.TilesProcessed.WithLabelValues(string(status)).Inc()

	if obs != nil {
		obs(Progress{
			Done:   r.Hits + r.Fetched + r.Failed,
			Total:  r.Total,
			X:      x,
			Y:      y,
			Status: status,
			Err:    err,
		})
	}
}
