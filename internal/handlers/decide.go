package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mwarner/loginguard/internal/services"
	pkghttp "github.com/mwarner/loginguard/pkg/http"
)

// DecisionServiceInterface defines the scoring operations the handler needs
type DecisionServiceInterface interface {
	LogAndDecide(ctx context.Context, in services.DecideInput) (*services.DecideResult, error)
}

// DecideHandler handles scoring requests from enforcement points
type DecideHandler struct {
	service DecisionServiceInterface
}

// NewDecideHandler creates a new DecideHandler
func NewDecideHandler(service DecisionServiceInterface) *DecideHandler {
	return &DecideHandler{service: service}
}

// DecideRequest represents one observed login attempt to score. Probe asks
// for the current verdict without recording an attempt.
type DecideRequest struct {
	Address     string `json:"address" validate:"required,ip"`
	Username    string `json:"username" validate:"max=255"`
	Success     bool   `json:"success"`
	UserAgent   string `json:"user_agent" validate:"max=512"`
	Application string `json:"application" validate:"max=64"`
	Probe       bool   `json:"probe"`
}

// Decide handles POST /decide
func (h *DecideHandler) Decide(w http.ResponseWriter, r *http.Request) {
	var req DecideRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	req.Username = strings.TrimSpace(req.Username)

	result, err := h.service.LogAndDecide(r.Context(), services.DecideInput{
		Address:     req.Address,
		Username:    req.Username,
		Success:     req.Success,
		UserAgent:   req.UserAgent,
		Application: req.Application,
		Probe:       req.Probe,
	})
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to compute decision")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(result)
}
