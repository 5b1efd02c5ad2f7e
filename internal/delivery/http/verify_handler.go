package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/nightpass/curfew/internal/domain"
	"github.com/nightpass/curfew/internal/pkg/logger"
	"github.com/nightpass/curfew/internal/usecase/verify"
)

// VerifyService defines the verification operations the handler needs
type VerifyService interface {
	VerifyScan(ctx context.Context, req *verify.ScanRequest) (*verify.ScanResponse, error)
	ListLogs(ctx context.Context, limit, offset int) ([]*domain.VerificationLog, error)
	GetLogsByPass(ctx context.Context, passID string, limit, offset int) ([]*domain.VerificationLog, error)
	LogStats(ctx context.Context) (*domain.VerificationStats, error)
}

// VerifyHandler handles scan verification and log queries
type VerifyHandler struct {
	verifyService VerifyService
	logger        logger.Logger
}

// NewVerifyHandler creates a verification handler
func NewVerifyHandler(verifyService VerifyService, logger logger.Logger) *VerifyHandler {
	return &VerifyHandler{
		verifyService: verifyService,
		logger:        logger,
	}
}

// VerifyScan checks one decoded QR payload against canonical state.
// Public: checkpoint scanners are devices, not accounts. A decided scan
// is always 200; the verdict is in the body.
// POST /api/v1/verify/scan
func (h *VerifyHandler) VerifyScan(w http.ResponseWriter, r *http.Request) {
	var req verify.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if len(req.Payload) == 0 {
		respondError(w, http.StatusBadRequest, "Missing scan payload")
		return
	}

	response, err := h.verifyService.VerifyScan(r.Context(), &req)
	if err != nil {
		h.logger.Error("Failed to verify scan", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "Failed to verify scan")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    response,
	})
}

// GetLogs returns verification attempts, newest first (admin only)
// GET /api/v1/verify/logs?pass_id=&limit=&offset=
func (h *VerifyHandler) GetLogs(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	var (
		entries []*domain.VerificationLog
		err     error
	)

	if passID := r.URL.Query().Get("pass_id"); passID != "" {
		entries, err = h.verifyService.GetLogsByPass(r.Context(), passID, limit, offset)
	} else {
		entries, err = h.verifyService.ListLogs(r.Context(), limit, offset)
	}

	if err != nil {
		h.logger.Error("Failed to list verification logs", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "Failed to list verification logs")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    entries,
	})
}

// GetLogStats returns verification counts per verdict (admin only)
// GET /api/v1/verify/stats
func (h *VerifyHandler) GetLogStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.verifyService.LogStats(r.Context())
	if err != nil {
		h.logger.Error("Failed to get verification stats", map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, http.StatusInternalServerError, "Failed to get verification stats")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    stats,
	})
}
