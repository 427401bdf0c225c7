package models

// FeatureVector is the fixed-shape behavioral summary of one address over
// a trailing time window. It is derived, never persisted.
type FeatureVector struct {
	TotalAttempts      float64
	FailedAttempts     float64
	SuccessRate        float64
	UniqueUsernames    float64
	MinInterAttemptGap float64 // seconds; zero is valid (simultaneous attempts)
}

// Values returns the vector in the canonical order expected by the
// classifier: [total, failed, success_rate, unique_usernames, min_delta].
func (f FeatureVector) Values() [5]float64 {
	return [5]float64{
		f.TotalAttempts,
		f.FailedAttempts,
		f.SuccessRate,
		f.UniqueUsernames,
		f.MinInterAttemptGap,
	}
}

// SentinelVector is the vector used when an address has no attempts in the
// window. It represents maximally benign behavior and anchors classifier
// output on unseen addresses, so it must be reproduced exactly.
func SentinelVector(windowSeconds float64) FeatureVector {
	return FeatureVector{
		TotalAttempts:      0,
		FailedAttempts:     0,
		SuccessRate:        1.0,
		UniqueUsernames:    1,
		MinInterAttemptGap: windowSeconds,
	}
}
