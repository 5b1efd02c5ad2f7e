// Package qrcode defines the scan payload wire format and renders it as
// a QR image. The payload is a lookup key plus tamper evidence, not a
// credential: verification always re-fetches the canonical pass record
// and never trusts the fields embedded here.
package qrcode

import (
	"encoding/json"
	"time"

	"github.com/nightpass/curfew/internal/domain"
	qr "github.com/skip2/go-qrcode"
)

// Payload is the JSON object embedded in a pass QR code
type Payload struct {
	ID        string `json:"id"`
	FullName  string `json:"fullName"`
	IDNumber  string `json:"idNumber"`
	StartTime string `json:"startTime"` // ISO-8601
	EndTime   string `json:"endTime"`   // ISO-8601
	Status    string `json:"status"`
}

// FromPass builds a payload from the canonical pass record. The status
// stamped into the code is the effective status at render time; it is
// display data only and is recomputed on every scan.
func FromPass(p *domain.Pass, now time.Time) Payload {
	return Payload{
		ID:        p.ID.String(),
		FullName:  p.FullName,
		IDNumber:  p.IDNumber,
		StartTime: p.StartTime.Format(time.RFC3339),
		EndTime:   p.EndTime.Format(time.RFC3339),
		Status:    string(p.EffectiveStatus(now)),
	}
}

// Decode parses raw scan data into a payload. A payload must be valid
// JSON and carry id, fullName, startTime and endTime; anything else is
// ErrMalformedPayload. On a shape failure the partially decoded payload
// is still returned so the caller can salvage the claimed id for
// logging ("unknown" stays with the caller when even that is absent).
func Decode(raw []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, domain.ErrMalformedPayload
	}

	if p.ID == "" || p.FullName == "" || p.StartTime == "" || p.EndTime == "" {
		return &p, domain.ErrMalformedPayload
	}

	return &p, nil
}

// Encode serializes the payload to its JSON wire form
func (p Payload) Encode() ([]byte, error) {
	return json.Marshal(p)
}

// Image renders the payload as a PNG QR code with the given edge size
// in pixels.
func (p Payload) Image(size int) ([]byte, error) {
	data, err := p.Encode()
	if err != nil {
		return nil, err
	}
	return qr.Encode(string(data), qr.Medium, size)
}
