package integration

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDB *TestDB

func TestMain(m *testing.M) {
	ctx := context.Background()

	db, err := SetupTestDatabase(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up test database: %v\n", err)
		os.Exit(1)
	}
	testDB = db

	code := m.Run()

	_ = testDB.Teardown(ctx)
	os.Exit(code)
}

func freshServer(t *testing.T) *TestServer {
	t.Helper()
	require.NoError(t, testDB.CleanupTables(context.Background()))
	ts := NewTestServer(testDB.DB)
	t.Cleanup(ts.Close)
	return ts
}

func TestDecide_FirstAttemptIsAllowed(t *testing.T) {
	ts := freshServer(t)

	decision, score, err := ts.Decide(map[string]interface{}{
		"address":  "203.0.113.50",
		"username": "alice",
		"success":  true,
	})
	require.NoError(t, err)

	assert.Equal(t, "allow", decision)
	assert.Less(t, score, 0.6)

	count, err := testDB.CountAttempts(context.Background(), "203.0.113.50")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	cached, err := testDB.CachedDecision(context.Background(), "203.0.113.50")
	require.NoError(t, err)
	assert.Equal(t, "allow", cached)
}

func TestDecide_BruteForceEscalatesToBlock(t *testing.T) {
	ts := freshServer(t)
	ctx := context.Background()
	address := "203.0.113.66"
	usernames := []string{"admin", "root", "alice", "bob", "postgres"}

	var last string
	sawChallenge := false
	for i := 0; i < 40; i++ {
		decision, _, err := ts.Decide(map[string]interface{}{
			"address":  address,
			"username": usernames[i%len(usernames)],
			"success":  false,
		})
		require.NoError(t, err)
		last = decision
		if decision == "challenge" {
			sawChallenge = true
		}
	}

	assert.Equal(t, "block", last, "a rapid failure run must end blocked")
	assert.True(t, sawChallenge, "escalation passes through challenge before block")

	cached, err := testDB.CachedDecision(ctx, address)
	require.NoError(t, err)
	assert.Equal(t, "block", cached)

	// The blocked listing carries the address.
	resp, err := ts.AdminRequest(http.MethodGet, "/admin/blocked", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var blocked struct {
		Blocked []struct {
			Address string `json:"address"`
		} `json:"blocked"`
		Count int `json:"count"`
	}
	require.NoError(t, ParseJSONResponse(resp, &blocked))
	require.Equal(t, 1, blocked.Count)
	assert.Equal(t, address, blocked.Blocked[0].Address)
}

func TestDecide_ProbeDoesNotAppend(t *testing.T) {
	ts := freshServer(t)
	ctx := context.Background()
	address := "203.0.113.77"

	for i := 0; i < 5; i++ {
		decision, _, err := ts.Decide(map[string]interface{}{
			"address": address,
			"probe":   true,
		})
		require.NoError(t, err)
		assert.Equal(t, "allow", decision)
	}

	count, err := testDB.CountAttempts(ctx, address)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "probes must never create ledger rows")
}

func TestDecide_IndependentAddressesDoNotInterfere(t *testing.T) {
	ts := freshServer(t)
	attacker := "203.0.113.88"
	bystander := "198.51.100.20"

	for i := 0; i < 40; i++ {
		_, _, err := ts.Decide(map[string]interface{}{
			"address":  attacker,
			"username": "admin",
			"success":  false,
		})
		require.NoError(t, err)
	}

	decision, _, err := ts.Decide(map[string]interface{}{
		"address":  bystander,
		"username": "alice",
		"success":  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "allow", decision, "one address's behavior must not affect another's verdict")
}

func TestUnblock_WithHistoryPurge(t *testing.T) {
	ts := freshServer(t)
	ctx := context.Background()
	address := "203.0.113.99"

	for i := 0; i < 40; i++ {
		_, _, err := ts.Decide(map[string]interface{}{
			"address":  address,
			"username": "admin",
			"success":  false,
		})
		require.NoError(t, err)
	}

	cached, err := testDB.CachedDecision(ctx, address)
	require.NoError(t, err)
	require.Equal(t, "block", cached)

	resp, err := ts.AdminRequest(http.MethodPost, "/admin/unblock", map[string]interface{}{
		"address":       address,
		"purge_history": true,
	})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cached, err = testDB.CachedDecision(ctx, address)
	require.NoError(t, err)
	assert.Empty(t, cached, "the cached verdict is gone")

	count, err := testDB.CountAttempts(ctx, address)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "the ledger is purged")

	// With history gone, a probe scores the sentinel vector: allow.
	decision, _, err := ts.Decide(map[string]interface{}{
		"address": address,
		"probe":   true,
	})
	require.NoError(t, err)
	assert.Equal(t, "allow", decision)
}

func TestUnblock_WithoutPurgeKeepsHistory(t *testing.T) {
	ts := freshServer(t)
	ctx := context.Background()
	address := "203.0.113.110"

	for i := 0; i < 40; i++ {
		_, _, err := ts.Decide(map[string]interface{}{
			"address":  address,
			"username": "admin",
			"success":  false,
		})
		require.NoError(t, err)
	}

	resp, err := ts.AdminRequest(http.MethodPost, "/admin/unblock", map[string]interface{}{
		"address": address,
	})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	count, err := testDB.CountAttempts(ctx, address)
	require.NoError(t, err)
	assert.Equal(t, 40, count, "without purge_history the ledger stays")

	// The very next scoring pass re-blocks from the surviving window.
	decision, _, err := ts.Decide(map[string]interface{}{
		"address": address,
		"probe":   true,
	})
	require.NoError(t, err)
	assert.Equal(t, "block", decision)
}

func TestUnknownRoute_ReturnsJSONNotFound(t *testing.T) {
	ts := freshServer(t)

	resp, err := ts.Request(http.MethodGet, "/nope", nil, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, ParseJSONResponse(resp, &body))
	assert.Equal(t, "not_found", body.Error)
}

func TestAdmin_RequiresKey(t *testing.T) {
	ts := freshServer(t)

	resp, err := ts.Request(http.MethodGet, "/admin/blocked", nil, nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = ts.Request(http.MethodGet, "/admin/blocked", nil, map[string]string{"X-Admin-Key": "wrong"})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdmin_ScoresView(t *testing.T) {
	ts := freshServer(t)
	address := "203.0.113.120"

	for i := 0; i < 40; i++ {
		_, _, err := ts.Decide(map[string]interface{}{
			"address":  address,
			"username": "admin",
			"success":  false,
		})
		require.NoError(t, err)
	}

	resp, err := ts.AdminRequest(http.MethodGet, "/admin/scores", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var scores struct {
		Scores []struct {
			Address  string  `json:"address"`
			Decision string  `json:"decision"`
			Cached   string  `json:"cached_decision"`
			Score    float64 `json:"score"`
		} `json:"scores"`
		Count int `json:"count"`
	}
	require.NoError(t, ParseJSONResponse(resp, &scores))
	require.Equal(t, 1, scores.Count)
	assert.Equal(t, address, scores.Scores[0].Address)
	assert.Equal(t, "block", scores.Scores[0].Decision)
	assert.Equal(t, "block", scores.Scores[0].Cached)
	assert.Greater(t, scores.Scores[0].Score, 0.9)
}
