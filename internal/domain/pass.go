package domain

import (
	"time"

	"github.com/google/uuid"
)

// PassStatus represents the lifecycle state of a curfew pass
type PassStatus string

const (
	StatusPending  PassStatus = "pending"  // Submitted, awaiting admin review
	StatusApproved PassStatus = "approved" // Approved by an admin
	StatusDenied   PassStatus = "denied"   // Denied by an admin (terminal)
	StatusExpired  PassStatus = "expired"  // Approved but the validity window has elapsed (terminal)
)

// Pass - a time-bounded curfew travel authorization
// A pass is issued to a PERSON for a fixed validity window.
// The window is set once at submission and never changes afterwards;
// only the status and approved_at move, and only through the
// transition methods below.
type Pass struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"` // Requesting account that owns the pass
	FullName    string     `json:"full_name"`
	IDNumber    string     `json:"id_number"`
	Reason      string     `json:"reason"`
	Destination string     `json:"destination"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     time.Time  `json:"end_time"`
	Status      PassStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"` // Set exactly once, on approval
}

// Validate checks the submission data of a pass.
// Holder fields are opaque strings and are only required to be present;
// the validity window must be non-empty.
func (p *Pass) Validate() error {
	if p.UserID == uuid.Nil {
		return ErrInvalidPassData
	}
	if p.FullName == "" || p.IDNumber == "" || p.Reason == "" || p.Destination == "" {
		return ErrInvalidPassData
	}
	if p.StartTime.IsZero() || p.EndTime.IsZero() {
		return ErrInvalidPassData
	}
	if !p.EndTime.After(p.StartTime) {
		return ErrInvalidTimeWindow
	}
	return nil
}

// Approve transitions the pass from pending to approved and records the
// approval time. Any other source state is an invalid transition: denied
// and expired are terminal, and approving twice is rejected so that
// approved_at keeps its set-once guarantee.
func (p *Pass) Approve(now time.Time) error {
	if p.Status != StatusPending {
		return ErrInvalidTransition
	}
	p.Status = StatusApproved
	p.ApprovedAt = &now
	return nil
}

// Deny transitions the pass from pending to denied. approved_at is left
// untouched: a denied pass has never been approved.
func (p *Pass) Deny() error {
	if p.Status != StatusPending {
		return ErrInvalidTransition
	}
	p.Status = StatusDenied
	return nil
}

// EffectiveStatus computes the status every reader must observe at the
// given moment. Expiry is lazy: the stored status stays approved, but
// once the window has elapsed all read paths report expired. Pending and
// denied passes never expire, they were never valid to begin with.
func (p *Pass) EffectiveStatus(now time.Time) PassStatus {
	switch p.Status {
	case StatusApproved:
		if now.After(p.EndTime) {
			return StatusExpired
		}
		return StatusApproved
	case StatusPending:
		return StatusPending
	case StatusDenied:
		return StatusDenied
	case StatusExpired:
		return StatusExpired
	default:
		return p.Status
	}
}

// IsActiveAt reports whether the pass authorizes travel at the given
// moment: approved and inside the validity window, bounds inclusive.
// A scan before start_time is NOT active (not yet valid).
func (p *Pass) IsActiveAt(now time.Time) bool {
	if p.Status != StatusApproved {
		return false
	}
	if now.Before(p.StartTime) {
		return false
	}
	return !now.After(p.EndTime)
}

// PassStats - pass counts by effective status for the admin dashboard
type PassStats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Denied   int `json:"denied"`
	Expired  int `json:"expired"`
}
