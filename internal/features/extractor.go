// Package features computes the behavioral feature vector for an address
// from its trailing window of login attempts.
package features

import (
	"context"
	"time"

	"github.com/mwarner/loginguard/internal/models"
)

// AttemptWindow is the slice of the ledger the extractor reads.
type AttemptWindow interface {
	QueryWindow(ctx context.Context, address string, windowStart int64) ([]models.AttemptSample, error)
}

// Extractor aggregates attempts into a fixed-shape feature vector.
type Extractor struct {
	ledger AttemptWindow
	window time.Duration
}

// NewExtractor creates an Extractor over the given ledger and window.
func NewExtractor(ledger AttemptWindow, window time.Duration) *Extractor {
	return &Extractor{ledger: ledger, window: window}
}

// Extract computes the feature vector for an address as of now. An address
// with no attempts in the window yields the sentinel vector.
func (e *Extractor) Extract(ctx context.Context, address string, now time.Time) (models.FeatureVector, error) {
	windowSeconds := int64(e.window.Seconds())
	windowStart := now.Unix() - windowSeconds

	samples, err := e.ledger.QueryWindow(ctx, address, windowStart)
	if err != nil {
		return models.FeatureVector{}, err
	}

	if len(samples) == 0 {
		return models.SentinelVector(float64(windowSeconds)), nil
	}

	total := len(samples)
	failed := 0
	usernames := make(map[string]struct{}, total)
	for _, s := range samples {
		if !s.Success {
			failed++
		}
		usernames[s.Username] = struct{}{}
	}

	// Samples arrive timestamp-ascending, so consecutive deltas are the
	// inter-attempt gaps. A zero delta (simultaneous attempts) is a valid,
	// maximally suspicious value.
	minDelta := float64(windowSeconds)
	if total > 1 {
		minDelta = float64(samples[1].Timestamp - samples[0].Timestamp)
		for i := 2; i < total; i++ {
			if d := float64(samples[i].Timestamp - samples[i-1].Timestamp); d < minDelta {
				minDelta = d
			}
		}
	}

	return models.FeatureVector{
		TotalAttempts:      float64(total),
		FailedAttempts:     float64(failed),
		SuccessRate:        float64(total-failed) / float64(total),
		UniqueUsernames:    float64(len(usernames)),
		MinInterAttemptGap: minDelta,
	}, nil
}
