package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mwarner/loginguard/internal/classifier"
	"github.com/mwarner/loginguard/internal/database"
	"github.com/mwarner/loginguard/internal/features"
	"github.com/mwarner/loginguard/internal/handlers"
	middlewareCustom "github.com/mwarner/loginguard/internal/middleware"
	"github.com/mwarner/loginguard/internal/repositories"
	"github.com/mwarner/loginguard/internal/routes"
	"github.com/mwarner/loginguard/internal/services"
	pkglogger "github.com/mwarner/loginguard/pkg/logger"
)

// TestAdminKey guards the admin routes on the test server
const TestAdminKey = "integration-test-admin-key"

// TestWindow is the feature window used by the test server
const TestWindow = 10 * time.Minute

// TestServer wires a full decision engine on top of a test database
type TestServer struct {
	Server  *httptest.Server
	Service *services.DecisionService
}

// testModel returns a deterministic classifier with a sensible decision
// boundary: rapid high-volume failure runs score above the block threshold,
// sparse successful traffic scores near zero.
func testModel() classifier.Scorer {
	return classifier.NewLogisticModel(
		[5]float64{40, 35, 0.5, 3, 10},
		[5]float64{50, 50, 0.4, 2.5, 10},
		[5]float64{1.5, 1.5, -1.5, 0.5, -2.0},
		-1.0,
	)
}

// NewTestServer builds the engine exactly as cmd/api does, minus metrics
// registration and process lifecycle.
func NewTestServer(db *database.DB) *TestServer {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	attemptRepo := repositories.NewAttemptRepository(db)
	decisionRepo := repositories.NewDecisionRepository(db)
	extractor := features.NewExtractor(attemptRepo, TestWindow)

	service := services.NewDecisionService(
		attemptRepo,
		decisionRepo,
		extractor,
		testModel(),
		db,
		logger,
		pkglogger.NewAuditLogger(logger),
		"default",
	)

	decideHandler := handlers.NewDecideHandler(service)
	adminHandler := handlers.NewAdminHandler(service)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	routes.RegisterRoutes(router, decideHandler, adminHandler, TestAdminKey)

	return &TestServer{
		Server:  httptest.NewServer(router),
		Service: service,
	}
}

// Close shuts down the test server
func (ts *TestServer) Close() {
	ts.Server.Close()
}

// Request performs an HTTP request against the test server
func (ts *TestServer) Request(method, path string, body interface{}, headers map[string]string) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return http.DefaultClient.Do(req)
}

// AdminRequest performs a request carrying the admin key
func (ts *TestServer) AdminRequest(method, path string, body interface{}) (*http.Response, error) {
	return ts.Request(method, path, body, map[string]string{"X-Admin-Key": TestAdminKey})
}

// Decide posts one attempt to /decide and returns the decision and score
func (ts *TestServer) Decide(body map[string]interface{}) (decision string, score float64, err error) {
	resp, err := ts.Request(http.MethodPost, "/decide", body, nil)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("decide returned status %d", resp.StatusCode)
	}

	var parsed struct {
		Decision string  `json:"decision"`
		Score    float64 `json:"score"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", 0, err
	}
	return parsed.Decision, parsed.Score, nil
}

// ParseJSONResponse decodes a response body into target
func ParseJSONResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(target)
}
