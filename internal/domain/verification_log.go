package domain

import (
	"time"

	"github.com/google/uuid"
)

// Verdict is the outcome of checking a scanned pass against canonical
// state and the current time
type Verdict string

const (
	VerdictValid   Verdict = "valid"   // Approved and inside the validity window
	VerdictExpired Verdict = "expired" // Approved but the window has elapsed
	VerdictInvalid Verdict = "invalid" // Everything else: unknown, denied, pending, malformed, not yet active
)

// ScannedBySystem is recorded when a scan carries no operator identity.
const ScannedBySystem = "system"

// VerificationLog - one verification attempt, append-only.
// PassID is a weak reference kept as the scanner presented it: it may
// point at a pass that does not exist, or not be an identifier at all.
// The entry outlives the pass lookup either way.
type VerificationLog struct {
	ID         uuid.UUID `json:"id"`
	PassID     string    `json:"pass_id"`
	HolderName string    `json:"holder_name"`
	ScanTime   time.Time `json:"scan_time"`
	Location   string    `json:"location"`
	ScannedBy  string    `json:"scanned_by"`
	DeviceInfo string    `json:"device_info"`
	Result     Verdict   `json:"result"`
}

// Validate checks that the entry carries a recognizable verdict and a
// pass reference. Holder name, location and device info are opaque.
func (l *VerificationLog) Validate() error {
	if l.PassID == "" {
		return ErrInvalidLogData
	}
	if l.Result != VerdictValid && l.Result != VerdictExpired && l.Result != VerdictInvalid {
		return ErrInvalidLogData
	}
	return nil
}

// VerificationStats - verification counts per verdict for analytics
type VerificationStats struct {
	Total   int `json:"total"`
	Valid   int `json:"valid"`
	Expired int `json:"expired"`
	Invalid int `json:"invalid"`
}
