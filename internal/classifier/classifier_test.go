package classifier_test

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/mwarner/loginguard/internal/classifier"
	"github.com/mwarner/loginguard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// demoModel is hand-fit to the synthetic traffic shapes the reference
// dataset uses: benign addresses make a handful of mostly-successful,
// human-paced attempts; attackers hammer with near-total failure and
// sub-second gaps.
func demoModel() *classifier.LogisticModel {
	return classifier.NewLogisticModel(
		[5]float64{40, 35, 0.5, 3, 10},
		[5]float64{50, 50, 0.4, 2.5, 10},
		[5]float64{1.5, 1.5, -1.5, 0.5, -2.0},
		-1.0,
	)
}

func benignVector() models.FeatureVector {
	return models.FeatureVector{
		TotalAttempts:      10,
		FailedAttempts:     2,
		SuccessRate:        0.8,
		UniqueUsernames:    2,
		MinInterAttemptGap: 15,
	}
}

func attackVector() models.FeatureVector {
	return models.FeatureVector{
		TotalAttempts:      40,
		FailedAttempts:     40,
		SuccessRate:        0.0,
		UniqueUsernames:    5,
		MinInterAttemptGap: 0,
	}
}

func TestNoop_AlwaysZero(t *testing.T) {
	var s classifier.Scorer = classifier.Noop{}

	assert.Equal(t, 0.0, s.Score(attackVector()))
	assert.Equal(t, 0.0, s.Score(models.SentinelVector(600)))
}

func TestLogisticModel_SeparatesBenignFromAttack(t *testing.T) {
	m := demoModel()

	benign := m.Score(benignVector())
	attack := m.Score(attackVector())

	assert.Less(t, benign, 0.1, "benign traffic should score low")
	assert.Greater(t, attack, 0.9, "brute-force traffic should score above the block threshold")
}

func TestLogisticModel_SentinelScoresBenign(t *testing.T) {
	m := demoModel()

	p := m.Score(models.SentinelVector(600))

	assert.Less(t, p, 0.1, "an unseen address must look benign")
}

func TestLogisticModel_ScoreIsBounded(t *testing.T) {
	m := demoModel()

	for _, fv := range []models.FeatureVector{
		benignVector(),
		attackVector(),
		models.SentinelVector(600),
		{TotalAttempts: 1e6, FailedAttempts: 1e6, UniqueUsernames: 1e3},
	} {
		p := m.Score(fv)
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	}
}

func writeModelFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadModel_RoundTrip(t *testing.T) {
	path := writeModelFile(t, `{
		"features": ["total_attempts", "failed_attempts", "success_rate", "unique_usernames", "min_delta"],
		"means":     [40, 35, 0.5, 3, 10],
		"stds":      [50, 50, 0.4, 2.5, 10],
		"weights":   [1.5, 1.5, -1.5, 0.5, -2.0],
		"intercept": -1.0
	}`)

	m, err := classifier.LoadModel(path)
	require.NoError(t, err)

	assert.InDelta(t, demoModel().Score(attackVector()), m.Score(attackVector()), 1e-12)
}

func TestLoadModel_RejectsWrongArity(t *testing.T) {
	path := writeModelFile(t, `{"means":[1,2],"stds":[1,2],"weights":[1,2],"intercept":0}`)

	_, err := classifier.LoadModel(path)
	assert.Error(t, err)
}

func TestLoadModel_RejectsReorderedFeatures(t *testing.T) {
	path := writeModelFile(t, `{
		"features": ["failed_attempts", "total_attempts", "success_rate", "unique_usernames", "min_delta"],
		"means": [0,0,0,0,0], "stds": [1,1,1,1,1], "weights": [0,0,0,0,0], "intercept": 0
	}`)

	_, err := classifier.LoadModel(path)
	assert.Error(t, err)
}

func TestLoadModel_RejectsZeroDeviation(t *testing.T) {
	path := writeModelFile(t, `{"means":[0,0,0,0,0],"stds":[1,1,0,1,1],"weights":[0,0,0,0,0],"intercept":0}`)

	_, err := classifier.LoadModel(path)
	assert.Error(t, err)
}

func TestLoadModel_RejectsMalformedJSON(t *testing.T) {
	path := writeModelFile(t, `{not json`)

	_, err := classifier.LoadModel(path)
	assert.Error(t, err)
}

func TestLoad_MissingFileFallsBackToNoop(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	s, err := classifier.Load(filepath.Join(t.TempDir(), "absent.json"), logger)

	require.NoError(t, err)
	assert.IsType(t, classifier.Noop{}, s)
}

func TestLoad_MalformedFileIsAnError(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	path := writeModelFile(t, `{"means":[]}`)

	_, err := classifier.Load(path, logger)
	assert.Error(t, err)
}
