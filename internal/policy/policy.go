// Package policy maps an attack probability to an enforcement decision.
// The thresholds live here and nowhere else.
package policy

import "github.com/mwarner/loginguard/internal/models"

const (
	// BlockThreshold is exclusive: a probability must exceed it to block.
	BlockThreshold = 0.9
	// ChallengeThreshold is exclusive: a probability must exceed it to
	// challenge. Exactly 0.6 still allows.
	ChallengeThreshold = 0.6
)

// Classify converts a probability into a decision.
func Classify(probability float64) models.Decision {
	switch {
	case probability > BlockThreshold:
		return models.DecisionBlock
	case probability > ChallengeThreshold:
		return models.DecisionChallenge
	default:
		return models.DecisionAllow
	}
}
