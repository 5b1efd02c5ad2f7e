package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func validPass() *Pass {
	now := time.Now()
	return &Pass{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		FullName:    "Maria Santos",
		IDNumber:    "ID-443210",
		Reason:      "Night shift at the hospital",
		Destination: "City General Hospital",
		StartTime:   now.Add(-1 * time.Hour),
		EndTime:     now.Add(3 * time.Hour),
		Status:      StatusPending,
		CreatedAt:   now,
	}
}

func TestPass_Validate(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Pass)
		expectedErr error
	}{
		{
			name:        "valid pass",
			modify:      func(p *Pass) {},
			expectedErr: nil,
		},
		{
			name:        "missing user id",
			modify:      func(p *Pass) { p.UserID = uuid.Nil },
			expectedErr: ErrInvalidPassData,
		},
		{
			name:        "missing full name",
			modify:      func(p *Pass) { p.FullName = "" },
			expectedErr: ErrInvalidPassData,
		},
		{
			name:        "missing id number",
			modify:      func(p *Pass) { p.IDNumber = "" },
			expectedErr: ErrInvalidPassData,
		},
		{
			name:        "missing reason",
			modify:      func(p *Pass) { p.Reason = "" },
			expectedErr: ErrInvalidPassData,
		},
		{
			name:        "missing destination",
			modify:      func(p *Pass) { p.Destination = "" },
			expectedErr: ErrInvalidPassData,
		},
		{
			name:        "zero start time",
			modify:      func(p *Pass) { p.StartTime = time.Time{} },
			expectedErr: ErrInvalidPassData,
		},
		{
			name:        "end before start",
			modify:      func(p *Pass) { p.EndTime = p.StartTime.Add(-1 * time.Minute) },
			expectedErr: ErrInvalidTimeWindow,
		},
		{
			name:        "empty window",
			modify:      func(p *Pass) { p.EndTime = p.StartTime },
			expectedErr: ErrInvalidTimeWindow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPass()
			tt.modify(p)

			err := p.Validate()

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPass_Approve(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name        string
		status      PassStatus
		expectedErr error
	}{
		{name: "pending pass is approved", status: StatusPending, expectedErr: nil},
		{name: "approved pass cannot be approved again", status: StatusApproved, expectedErr: ErrInvalidTransition},
		{name: "denied pass cannot be approved", status: StatusDenied, expectedErr: ErrInvalidTransition},
		{name: "expired pass cannot be approved", status: StatusExpired, expectedErr: ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPass()
			p.Status = tt.status

			err := p.Approve(now)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Equal(t, tt.status, p.Status)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, StatusApproved, p.Status)
			if assert.NotNil(t, p.ApprovedAt) {
				assert.Equal(t, now, *p.ApprovedAt)
			}
		})
	}
}

func TestPass_Deny(t *testing.T) {
	tests := []struct {
		name        string
		status      PassStatus
		expectedErr error
	}{
		{name: "pending pass is denied", status: StatusPending, expectedErr: nil},
		{name: "approved pass cannot be denied", status: StatusApproved, expectedErr: ErrInvalidTransition},
		{name: "denied pass cannot be denied again", status: StatusDenied, expectedErr: ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPass()
			p.Status = tt.status

			err := p.Deny()

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, StatusDenied, p.Status)
			assert.Nil(t, p.ApprovedAt)
		})
	}
}

func TestPass_EffectiveStatus(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		status   PassStatus
		endTime  time.Time
		expected PassStatus
	}{
		{
			name:     "approved inside window stays approved",
			status:   StatusApproved,
			endTime:  now.Add(1 * time.Hour),
			expected: StatusApproved,
		},
		{
			name:     "approved past end time reads as expired",
			status:   StatusApproved,
			endTime:  now.Add(-1 * time.Minute),
			expected: StatusExpired,
		},
		{
			name:     "approved exactly at end time is still approved",
			status:   StatusApproved,
			endTime:  now,
			expected: StatusApproved,
		},
		{
			name:     "pending never expires",
			status:   StatusPending,
			endTime:  now.Add(-24 * time.Hour),
			expected: StatusPending,
		},
		{
			name:     "denied never expires",
			status:   StatusDenied,
			endTime:  now.Add(-24 * time.Hour),
			expected: StatusDenied,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPass()
			p.Status = tt.status
			p.EndTime = tt.endTime

			assert.Equal(t, tt.expected, p.EffectiveStatus(now))
		})
	}
}

func TestPass_IsActiveAt(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		status    PassStatus
		startTime time.Time
		endTime   time.Time
		expected  bool
	}{
		{
			name:      "approved inside window",
			status:    StatusApproved,
			startTime: now.Add(-1 * time.Hour),
			endTime:   now.Add(1 * time.Hour),
			expected:  true,
		},
		{
			name:      "approved before window opens",
			status:    StatusApproved,
			startTime: now.Add(1 * time.Hour),
			endTime:   now.Add(2 * time.Hour),
			expected:  false,
		},
		{
			name:      "approved after window closes",
			status:    StatusApproved,
			startTime: now.Add(-2 * time.Hour),
			endTime:   now.Add(-1 * time.Hour),
			expected:  false,
		},
		{
			name:      "window bounds are inclusive",
			status:    StatusApproved,
			startTime: now,
			endTime:   now,
			expected:  true,
		},
		{
			name:      "pending is never active",
			status:    StatusPending,
			startTime: now.Add(-1 * time.Hour),
			endTime:   now.Add(1 * time.Hour),
			expected:  false,
		},
		{
			name:      "denied is never active",
			status:    StatusDenied,
			startTime: now.Add(-1 * time.Hour),
			endTime:   now.Add(1 * time.Hour),
			expected:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPass()
			p.Status = tt.status
			p.StartTime = tt.startTime
			p.EndTime = tt.endTime

			assert.Equal(t, tt.expected, p.IsActiveAt(now))
		})
	}
}
