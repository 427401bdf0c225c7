// Package frontend is the demo login portal enforcing the decision
// engine's verdicts: block pages for blocked addresses, an arithmetic
// challenge for suspicious ones, plain credential checks for the rest.
package frontend

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mwarner/loginguard/internal/guard"
	"github.com/mwarner/loginguard/internal/models"
	pkghttp "github.com/mwarner/loginguard/pkg/http"
)

// GuardClient is the decision engine client the portal enforces with.
type GuardClient interface {
	Check(ctx context.Context, req guard.Request) guard.Verdict
}

// LoginHandler drives the login flow for one portal.
type LoginHandler struct {
	guard       GuardClient
	challenges  *ChallengeManager
	creds       *CredentialStore
	ipConfig    *pkghttp.IPConfig
	logger      *slog.Logger
	application string
}

// NewLoginHandler creates a new LoginHandler
func NewLoginHandler(
	guardClient GuardClient,
	challenges *ChallengeManager,
	creds *CredentialStore,
	ipConfig *pkghttp.IPConfig,
	logger *slog.Logger,
	application string,
) *LoginHandler {
	return &LoginHandler{
		guard:       guardClient,
		challenges:  challenges,
		creds:       creds,
		ipConfig:    ipConfig,
		logger:      logger,
		application: application,
	}
}

// Login handles GET and POST /login. Every request starts with a probe so
// an address already held at block never reaches credential evaluation.
func (h *LoginHandler) Login(w http.ResponseWriter, r *http.Request) {
	address := pkghttp.ExtractClientIP(r, h.ipConfig)
	userAgent := r.UserAgent()

	probe := h.guard.Check(r.Context(), guard.Request{
		Address:     address,
		UserAgent:   userAgent,
		Application: h.application,
		Probe:       true,
	})
	if probe.Decision == models.DecisionBlock {
		h.renderBlock(w)
		return
	}

	if r.Method == http.MethodGet {
		h.renderLogin(w, loginPageData{})
		return
	}

	if err := r.ParseForm(); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid form data")
		return
	}

	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")

	// A submitted challenge is verified before the credentials count for
	// anything. A failed challenge is reported as a failed attempt, so
	// repeatedly guessing the challenge drives the score up like any
	// other failure.
	if token := r.PostFormValue("challenge_token"); token != "" {
		err := h.challenges.Verify(token, address, r.PostFormValue("challenge_answer"))
		if err != nil {
			verdict := h.guard.Check(r.Context(), guard.Request{
				Address:     address,
				Username:    username,
				Success:     false,
				UserAgent:   userAgent,
				Application: h.application,
			})
			if verdict.Decision == models.DecisionBlock {
				h.renderBlock(w)
				return
			}

			h.renderLogin(w, loginPageData{
				Username: username,
				Message:  challengeFailureMessage(err),
			})
			return
		}
	}

	success := h.creds.Verify(username, password)

	verdict := h.guard.Check(r.Context(), guard.Request{
		Address:     address,
		Username:    username,
		Success:     success,
		UserAgent:   userAgent,
		Application: h.application,
	})

	switch {
	case verdict.Decision == models.DecisionBlock:
		h.renderBlock(w)

	case verdict.Decision == models.DecisionChallenge && r.PostFormValue("challenge_token") == "":
		token, question, err := h.challenges.Issue(address)
		if err != nil {
			h.logger.Error("failed to issue challenge", slog.Any("error", err))
			pkghttp.WriteInternalError(w, "Failed to issue challenge")
			return
		}
		h.renderLogin(w, loginPageData{
			Username:  username,
			Challenge: true,
			Question:  question,
			Token:     token,
		})

	case success:
		h.renderSuccess(w, username)

	default:
		h.renderLogin(w, loginPageData{
			Username: username,
			Message:  "Invalid credentials.",
		})
	}
}

// Health handles GET /healthz
func (h *LoginHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

func challengeFailureMessage(err error) string {
	switch {
	case errors.Is(err, ErrWrongAnswer):
		return "Failed verification challenge."
	case errors.Is(err, ErrChallengeExpired):
		return "The verification challenge expired. Please sign in again."
	default:
		return "The verification challenge could not be validated. Please sign in again."
	}
}

func (h *LoginHandler) renderLogin(w http.ResponseWriter, data loginPageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := loginTemplate.Execute(w, data); err != nil {
		h.logger.Error("failed to render login page", slog.Any("error", err))
	}
}

func (h *LoginHandler) renderSuccess(w http.ResponseWriter, username string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := successTemplate.Execute(w, struct{ Username string }{Username: username}); err != nil {
		h.logger.Error("failed to render success page", slog.Any("error", err))
	}
}

func (h *LoginHandler) renderBlock(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)
	if err := blockTemplate.Execute(w, nil); err != nil {
		h.logger.Error("failed to render block page", slog.Any("error", err))
	}
}
