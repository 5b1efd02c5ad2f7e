package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/nightpass/curfew/internal/delivery/http/middleware"
	"github.com/nightpass/curfew/internal/domain"
	"github.com/nightpass/curfew/internal/pkg/logger"
	"github.com/nightpass/curfew/internal/usecase/pass"
)

// PassService defines the pass lifecycle operations the handler needs
type PassService interface {
	Submit(ctx context.Context, req *pass.SubmitRequest) (*domain.Pass, error)
	Approve(ctx context.Context, passID uuid.UUID, actor domain.Actor) (*domain.Pass, error)
	Deny(ctx context.Context, passID uuid.UUID, actor domain.Actor) (*domain.Pass, error)
	GetPass(ctx context.Context, passID uuid.UUID, actor domain.Actor) (*domain.Pass, error)
	ListPasses(ctx context.Context, filter pass.ListFilter, actor domain.Actor) ([]*domain.Pass, error)
	StatusCounts(ctx context.Context) (*domain.PassStats, error)
	QRCode(ctx context.Context, passID uuid.UUID, actor domain.Actor) ([]byte, error)
}

// PassHandler handles pass lifecycle requests
type PassHandler struct {
	passService PassService
	logger      logger.Logger
}

// NewPassHandler creates a pass handler
func NewPassHandler(passService PassService, logger logger.Logger) *PassHandler {
	return &PassHandler{
		passService: passService,
		logger:      logger,
	}
}

// SubmitPass creates a new pass request for the current actor
// POST /api/v1/passes
func (h *PassHandler) SubmitPass(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserClaims(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req pass.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Ownership comes from the token, never the body
	req.UserID = claims.UserID

	p, err := h.passService.Submit(r.Context(), &req)
	if err != nil {
		switch err {
		case domain.ErrInvalidPassData, domain.ErrInvalidTimeWindow:
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("Failed to submit pass", map[string]interface{}{
				"error": err.Error(),
			})
			respondError(w, http.StatusInternalServerError, "Failed to submit pass")
		}
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"data":    p,
	})
}

// ListPasses returns passes visible to the current actor
// GET /api/v1/passes?status=&search=&limit=&offset=
func (h *PassHandler) ListPasses(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserClaims(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	filter := pass.ListFilter{
		Status: r.URL.Query().Get("status"),
		Search: r.URL.Query().Get("search"),
		Limit:  queryInt(r, "limit", 50),
		Offset: queryInt(r, "offset", 0),
	}

	passes, err := h.passService.ListPasses(r.Context(), filter, claims.Actor())
	if err != nil {
		if err == domain.ErrInvalidPassData {
			respondError(w, http.StatusBadRequest, "Unknown status filter")
			return
		}
		h.logger.Error("Failed to list passes", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "Failed to list passes")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    passes,
	})
}

// GetPassByID returns one pass
// GET /api/v1/passes/{id}
func (h *PassHandler) GetPassByID(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserClaims(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	passID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid pass ID")
		return
	}

	p, err := h.passService.GetPass(r.Context(), passID, claims.Actor())
	if err != nil {
		h.respondPassError(w, err, "Failed to get pass")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    p,
	})
}

// GetPassQR renders the QR code of an approved pass as PNG
// GET /api/v1/passes/{id}/qr
func (h *PassHandler) GetPassQR(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserClaims(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	passID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid pass ID")
		return
	}

	png, err := h.passService.QRCode(r.Context(), passID, claims.Actor())
	if err != nil {
		h.respondPassError(w, err, "Failed to render QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `inline; filename="curfew-pass-`+passID.String()+`.png"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// ApprovePass approves a pending pass (admin only)
// POST /api/v1/passes/{id}/approve
func (h *PassHandler) ApprovePass(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.passService.Approve)
}

// DenyPass denies a pending pass (admin only)
// POST /api/v1/passes/{id}/deny
func (h *PassHandler) DenyPass(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.passService.Deny)
}

// decide runs one admin decision over a pass
func (h *PassHandler) decide(
	w http.ResponseWriter,
	r *http.Request,
	action func(ctx context.Context, passID uuid.UUID, actor domain.Actor) (*domain.Pass, error),
) {
	claims, ok := middleware.GetUserClaims(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	passID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid pass ID")
		return
	}

	p, err := action(r.Context(), passID, claims.Actor())
	if err != nil {
		h.respondPassError(w, err, "Failed to update pass")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    p,
	})
}

// GetPassStats returns pass counts by effective status (admin only)
// GET /api/v1/passes/stats
func (h *PassHandler) GetPassStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.passService.StatusCounts(r.Context())
	if err != nil {
		h.logger.Error("Failed to get pass stats", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "Failed to get pass stats")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    stats,
	})
}

// respondPassError maps domain errors to HTTP status codes
func (h *PassHandler) respondPassError(w http.ResponseWriter, err error, fallback string) {
	switch err {
	case domain.ErrPassNotFound:
		respondError(w, http.StatusNotFound, "Pass not found")
	case domain.ErrInvalidTransition:
		respondError(w, http.StatusConflict, "Pass is not pending")
	case domain.ErrPassNotApproved:
		respondError(w, http.StatusConflict, "Pass is not approved")
	case domain.ErrUnauthorized:
		respondError(w, http.StatusForbidden, "Admin capability required")
	case domain.ErrForbidden:
		respondError(w, http.StatusForbidden, "Access denied")
	default:
		h.logger.Error(fallback, map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, fallback)
	}
}

// queryInt reads an integer query parameter with a default
func queryInt(r *http.Request, key string, def int) int {
	if value := r.URL.Query().Get(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n >= 0 {
			return n
		}
	}
	return def
}
