package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nightpass/curfew/internal/domain"
	"github.com/nightpass/curfew/internal/events"
	"github.com/nightpass/curfew/internal/pkg/logger"
	"github.com/nightpass/curfew/internal/pkg/qrcode"
	"github.com/nightpass/curfew/internal/repository"
)

// ScanRequest - one decoded QR payload plus scan metadata. Payload is
// the raw JSON exactly as the scanner decoded it from the image; image
// decoding itself happens on the device.
type ScanRequest struct {
	Payload    json.RawMessage `json:"payload" validate:"required"`
	Location   string          `json:"location"`
	DeviceInfo string          `json:"device_info"`
	ScannedBy  string          `json:"scanned_by,omitempty"`
}

// ScanResponse - the verdict plus the canonical pass for display.
// Pass carries the authoritative holder fields; the claimed payload is
// never echoed back as truth.
type ScanResponse struct {
	Result   domain.Verdict `json:"result"`
	Reason   string         `json:"reason"`
	Pass     *domain.Pass   `json:"pass,omitempty"`
	ScanTime time.Time      `json:"scan_time"`
}

// Service implements the verification protocol:
// a scanned payload is a lookup key plus tamper evidence, never a
// credential. The verdict always comes from the canonical pass record
// and the current time, and EVERY attempt leaves exactly one
// verification log entry, malformed and unknown payloads included.
type Service struct {
	passRepo repository.PassRepository
	logRepo  repository.VerificationLogRepository
	feed     events.Feed
	logger   logger.Logger
}

// NewService creates a verification service
func NewService(
	passRepo repository.PassRepository,
	logRepo repository.VerificationLogRepository,
	feed events.Feed,
	logger logger.Logger,
) *Service {
	return &Service{
		passRepo: passRepo,
		logRepo:  logRepo,
		feed:     feed,
		logger:   logger,
	}
}

// VerifyScan computes the verdict for one scan attempt.
//
// Once a payload reaches this method, verification runs to completion:
// fetch, verdict, log append. Deterministic failures (malformed payload,
// unknown id, wrong status, outside the window) are verdicts, not
// errors; the error return is reserved for the caller's plumbing and is
// nil on every decided scan, the way a checkpoint device needs it.
func (s *Service) VerifyScan(ctx context.Context, req *ScanRequest) (*ScanResponse, error) {
	scanTime := time.Now()

	response := &ScanResponse{
		ScanTime: scanTime,
	}

	// Step 1: payload shape. A malformed payload is itself a loggable
	// attempt, with whatever id the payload managed to claim.
	payload, err := qrcode.Decode(req.Payload)
	if err != nil {
		claimedID := "unknown"
		claimedName := ""
		if payload != nil {
			if payload.ID != "" {
				claimedID = payload.ID
			}
			claimedName = payload.FullName
		}

		s.logger.Info("Scan rejected: malformed payload", map[string]interface{}{
			"pass_id": claimedID,
		})

		response.Result = domain.VerdictInvalid
		response.Reason = "Malformed pass payload"
		s.appendLog(ctx, claimedID, claimedName, req, response)
		return response, nil
	}

	// Step 2: canonical fetch. The payload fields are now only tamper
	// evidence; the record decides everything.
	canonical, err := s.fetchCanonical(ctx, payload.ID)
	if err != nil {
		if err == domain.ErrPassNotFound {
			s.logger.Info("Scan rejected: pass not found", map[string]interface{}{
				"pass_id": payload.ID,
			})
			response.Result = domain.VerdictInvalid
			response.Reason = "Pass not found"
			s.appendLog(ctx, payload.ID, payload.FullName, req, response)
			return response, nil
		}

		// Transient store failure: fail closed, but never drop the
		// attempt from the log.
		s.logger.Error("Scan store fetch failed", map[string]interface{}{
			"pass_id": payload.ID,
			"error":   err.Error(),
		})
		response.Result = domain.VerdictInvalid
		response.Reason = "Verification store unavailable"
		s.appendLog(ctx, payload.ID, payload.FullName, req, response)
		return response, nil
	}

	response.Pass = canonical

	// Step 3: status gate. Denied and pending are indistinguishable to
	// a verifier; neither has ever been a valid credential, so neither
	// can be "expired".
	if canonical.Status != domain.StatusApproved {
		s.logger.Info("Scan rejected: pass not approved", map[string]interface{}{
			"pass_id": canonical.ID,
			"status":  canonical.Status,
		})
		response.Result = domain.VerdictInvalid
		response.Reason = "Pass is not approved"
		s.appendLog(ctx, canonical.ID.String(), canonical.FullName, req, response)
		return response, nil
	}

	// Step 4: window check against the current time.
	switch {
	case scanTime.After(canonical.EndTime):
		response.Result = domain.VerdictExpired
		response.Reason = "Pass validity window has elapsed"
	case scanTime.Before(canonical.StartTime):
		// Not yet active: a pass before its window opens is invalid
		response.Result = domain.VerdictInvalid
		response.Reason = "Pass is not yet active"
	default:
		response.Result = domain.VerdictValid
		response.Reason = "Pass is approved and currently valid"
	}

	// The response is a read path: it carries the effective status at
	// scan time, never a stale stored "approved".
	canonical.Status = canonical.EffectiveStatus(scanTime)

	s.logger.Info("Scan decided", map[string]interface{}{
		"pass_id": canonical.ID,
		"result":  response.Result,
	})

	// Step 5: one log entry per attempt, no exceptions
	s.appendLog(ctx, canonical.ID.String(), canonical.FullName, req, response)

	return response, nil
}

// fetchCanonical parses the claimed id and fetches the authoritative
// record. An unparsable id is simply an unknown pass.
func (s *Service) fetchCanonical(ctx context.Context, claimedID string) (*domain.Pass, error) {
	id, err := uuid.Parse(claimedID)
	if err != nil {
		return nil, domain.ErrPassNotFound
	}
	return s.passRepo.GetByID(ctx, id)
}

// appendLog writes the verification log entry for one attempt. Append
// failures never change an already-decided verdict; they are logged and
// swallowed.
func (s *Service) appendLog(ctx context.Context, passID, holderName string, req *ScanRequest, response *ScanResponse) {
	scannedBy := req.ScannedBy
	if scannedBy == "" {
		scannedBy = domain.ScannedBySystem
	}

	entry := &domain.VerificationLog{
		PassID:     passID,
		HolderName: holderName,
		ScanTime:   response.ScanTime,
		Location:   req.Location,
		ScannedBy:  scannedBy,
		DeviceInfo: req.DeviceInfo,
		Result:     response.Result,
	}

	if err := entry.Validate(); err != nil {
		s.logger.Error("Invalid verification log entry", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	if err := s.logRepo.Create(ctx, entry); err != nil {
		s.logger.Error("Failed to append verification log", map[string]interface{}{
			"pass_id": passID,
			"error":   err.Error(),
		})
		return
	}

	s.feed.LogCreated(ctx, entry.ID.String())
}

// ListLogs returns verification attempts, newest first
func (s *Service) ListLogs(ctx context.Context, limit, offset int) ([]*domain.VerificationLog, error) {
	if limit <= 0 {
		limit = 50
	}
	entries, err := s.logRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list verification logs: %w", err)
	}
	return entries, nil
}

// GetLogsByPass returns the scan history of one pass reference
func (s *Service) GetLogsByPass(ctx context.Context, passID string, limit, offset int) ([]*domain.VerificationLog, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.logRepo.GetByPassID(ctx, passID, limit, offset)
}

// LogStats returns verification counts per verdict
func (s *Service) LogStats(ctx context.Context) (*domain.VerificationStats, error) {
	stats, err := s.logRepo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load verification stats: %w", err)
	}
	return stats, nil
}
