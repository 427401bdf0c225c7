package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/mwarner/loginguard/internal/models"
	"github.com/mwarner/loginguard/internal/services"
	pkghttp "github.com/mwarner/loginguard/pkg/http"
)

// AdminServiceInterface defines the administrative operations
type AdminServiceInterface interface {
	ListBlocked(ctx context.Context) ([]models.BlockedAddress, error)
	Unblock(ctx context.Context, address, application string, purgeHistory bool) error
	Scores(ctx context.Context, limit int) ([]services.AddressScore, error)
}

// AdminHandler handles the administrative surface: blocked listing, manual
// unblock, and the live scores view.
type AdminHandler struct {
	service AdminServiceInterface
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(service AdminServiceInterface) *AdminHandler {
	return &AdminHandler{service: service}
}

// BlockedListResponse represents the blocked addresses listing
type BlockedListResponse struct {
	Blocked []models.BlockedAddress `json:"blocked"`
	Count   int                     `json:"count"`
}

// UnblockRequest represents the request body for a manual unblock
type UnblockRequest struct {
	Address      string `json:"address" validate:"required,ip"`
	Application  string `json:"application" validate:"max=64"`
	PurgeHistory bool   `json:"purge_history"`
}

// ScoresResponse represents the live scores listing
type ScoresResponse struct {
	Scores []services.AddressScore `json:"scores"`
	Count  int                     `json:"count"`
}

// ListBlocked handles GET /admin/blocked
func (h *AdminHandler) ListBlocked(w http.ResponseWriter, r *http.Request) {
	blocked, err := h.service.ListBlocked(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to list blocked addresses")
		return
	}

	if blocked == nil {
		blocked = []models.BlockedAddress{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(BlockedListResponse{Blocked: blocked, Count: len(blocked)})
}

// Unblock handles POST /admin/unblock
func (h *AdminHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	var req UnblockRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.Unblock(r.Context(), req.Address, req.Application, req.PurgeHistory); err != nil {
		pkghttp.WriteInternalError(w, "Failed to unblock address")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "unblocked",
		"address": req.Address,
	})
}

// Scores handles GET /admin/scores
func (h *AdminHandler) Scores(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			pkghttp.WriteBadRequest(w, "limit must be an integer between 1 and 500")
			return
		}
		limit = parsed
	}

	scores, err := h.service.Scores(r.Context(), limit)
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to compute scores")
		return
	}

	if scores == nil {
		scores = []services.AddressScore{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(ScoresResponse{Scores: scores, Count: len(scores)})
}
