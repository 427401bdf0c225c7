// Package classifier adapts an externally trained scoring function to the
// decision engine. Training happens offline; the trainer exports the fitted
// pipeline (feature standardization plus logistic regression) as a plain
// JSON parameter file, and this package performs inference only.
package classifier

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/mwarner/loginguard/internal/models"
)

// featureNames is the canonical feature order. A model file that declares
// feature names must match it exactly.
var featureNames = [5]string{
	"total_attempts",
	"failed_attempts",
	"success_rate",
	"unique_usernames",
	"min_delta",
}

// Scorer maps a feature vector to an attack probability in [0,1].
type Scorer interface {
	Score(fv models.FeatureVector) float64
}

// Noop is the allow-all degraded mode used when no model is configured.
// Every vector scores 0.0.
type Noop struct{}

func (Noop) Score(models.FeatureVector) float64 { return 0.0 }

// LogisticModel scores a vector by standardizing it with the training-time
// means and deviations, then applying logistic regression.
type LogisticModel struct {
	means     [5]float64
	stds      [5]float64
	weights   [5]float64
	intercept float64
}

// NewLogisticModel builds a model directly from parameters. Tests use this
// to construct deterministic scorers.
func NewLogisticModel(means, stds, weights [5]float64, intercept float64) *LogisticModel {
	return &LogisticModel{means: means, stds: stds, weights: weights, intercept: intercept}
}

// Score returns the attack probability for a feature vector.
func (m *LogisticModel) Score(fv models.FeatureVector) float64 {
	x := fv.Values()
	z := m.intercept
	for i := range x {
		z += m.weights[i] * (x[i] - m.means[i]) / m.stds[i]
	}
	return 1.0 / (1.0 + math.Exp(-z))
}

type modelFile struct {
	Features  []string  `json:"features"`
	Means     []float64 `json:"means"`
	Stds      []float64 `json:"stds"`
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
}

// LoadModel reads an exported parameter file. A file that exists but does
// not describe a usable model is an error, never a silent pass-through.
func LoadModel(path string) (*LogisticModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model file: %w", err)
	}

	var mf modelFile
	if err := json.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("parsing model file: %w", err)
	}

	if len(mf.Means) != 5 || len(mf.Stds) != 5 || len(mf.Weights) != 5 {
		return nil, fmt.Errorf("model file must carry 5 means, stds and weights (got %d/%d/%d)",
			len(mf.Means), len(mf.Stds), len(mf.Weights))
	}

	if len(mf.Features) > 0 {
		if len(mf.Features) != 5 {
			return nil, fmt.Errorf("model file declares %d features, want 5", len(mf.Features))
		}
		for i, name := range mf.Features {
			if name != featureNames[i] {
				return nil, fmt.Errorf("feature %d is %q, want %q", i, name, featureNames[i])
			}
		}
	}

	m := &LogisticModel{intercept: mf.Intercept}
	for i := 0; i < 5; i++ {
		if mf.Stds[i] == 0 {
			return nil, fmt.Errorf("feature %q has zero standard deviation", featureNames[i])
		}
		m.means[i] = mf.Means[i]
		m.stds[i] = mf.Stds[i]
		m.weights[i] = mf.Weights[i]
	}

	return m, nil
}

// Load returns the scorer for the service: the model at path when one is
// present, the allow-all Noop when the file does not exist. The degraded
// mode is logged so an unprotected deployment is visible at startup.
func Load(path string, logger *slog.Logger) (Scorer, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Warn("no classifier model found, running in allow-all mode",
			slog.String("model_path", path))
		return Noop{}, nil
	}

	model, err := LoadModel(path)
	if err != nil {
		return nil, err
	}

	logger.Info("classifier model loaded", slog.String("model_path", path))
	return model, nil
}
