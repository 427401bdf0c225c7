// Package guard is the front end's client for the risk decision engine.
// The engine is advisory: when it cannot answer, logins proceed. Losing
// risk scoring must never take authentication down with it.
package guard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/mwarner/loginguard/internal/metrics"
	"github.com/mwarner/loginguard/internal/models"
)

// Request is one attempt to report and score. Probe asks for the current
// verdict without recording an attempt.
type Request struct {
	Address     string `json:"address"`
	Username    string `json:"username,omitempty"`
	Success     bool   `json:"success"`
	UserAgent   string `json:"user_agent,omitempty"`
	Application string `json:"application,omitempty"`
	Probe       bool   `json:"probe"`
}

// Verdict is the engine's answer for an address.
type Verdict struct {
	Decision models.Decision `json:"decision"`
	Score    float64         `json:"score"`
}

// allowVerdict is what every failure path degrades to.
var allowVerdict = Verdict{Decision: models.DecisionAllow, Score: 0.0}

// Client calls the decision engine with a hard deadline and a circuit
// breaker. Check never returns an error: any failure is an allow.
type Client struct {
	url        string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker[Verdict]
	logger     *slog.Logger
}

// NewClient creates a guard client for the engine at url. The timeout is
// the total budget for one scoring call.
func NewClient(url string, timeout time.Duration, logger *slog.Logger) *Client {
	cb := gobreaker.NewCircuitBreaker[Verdict](gobreaker.Settings{
		Name:        "risk-engine",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("risk engine circuit state changed",
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})

	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		cb:     cb,
		logger: logger,
	}
}

// Check reports an attempt and returns the engine's verdict. On any
// failure the caller gets allow; the failure is logged and counted, not
// surfaced.
func (c *Client) Check(ctx context.Context, req Request) Verdict {
	verdict, err := c.cb.Execute(func() (Verdict, error) {
		return c.call(ctx, req)
	})
	if err != nil {
		reason := failureReason(err)
		metrics.GuardFailuresTotal.WithLabelValues(reason).Inc()
		c.logger.Warn("risk engine unavailable, failing open",
			slog.String("address", req.Address),
			slog.String("reason", reason),
			slog.Any("error", err))
		return allowVerdict
	}
	return verdict
}

func (c *Client) call(ctx context.Context, req Request) (Verdict, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return allowVerdict, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return allowVerdict, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return allowVerdict, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return allowVerdict, fmt.Errorf("decision engine returned status %d", resp.StatusCode)
	}

	var verdict Verdict
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return allowVerdict, fmt.Errorf("malformed decision response: %w", err)
	}

	return verdict, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "circuit_open"
	case errors.Is(err, context.DeadlineExceeded), os.IsTimeout(err):
		return "timeout"
	default:
		return "error"
	}
}
