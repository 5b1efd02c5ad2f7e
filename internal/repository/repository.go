package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nightpass/curfew/internal/domain"
)

// PassFilter narrows a pass listing. Status is matched against the
// EFFECTIVE status at Now (lazy expiry applies inside the query, so
// filtering for "approved" never returns an elapsed pass and filtering
// for "expired" finds approved passes whose window has elapsed).
// Search matches substrings of the holder name, id number and pass id.
type PassFilter struct {
	UserID *uuid.UUID
	Status *domain.PassStatus
	Search string
	Now    time.Time
	Limit  int
	Offset int
}

// PassRepository defines the durable store for passes
type PassRepository interface {
	// Create persists a new pass, assigning id and created_at
	Create(ctx context.Context, pass *domain.Pass) error

	// GetByID returns a pass by id
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Pass, error)

	// List returns passes matching the filter, newest first
	List(ctx context.Context, filter PassFilter) ([]*domain.Pass, error)

	// UpdateStatus rewrites the status field and, when approving,
	// the approved_at timestamp. Holder fields and the validity
	// window are immutable and have no update path.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PassStatus, approvedAt *time.Time) error

	// CountByStatus returns pass counts keyed by effective status at now
	CountByStatus(ctx context.Context, now time.Time) (*domain.PassStats, error)
}

// VerificationLogRepository defines the append-only verification log
type VerificationLogRepository interface {
	// Create appends one entry, assigning its id
	Create(ctx context.Context, entry *domain.VerificationLog) error

	// List returns entries ordered by scan time, newest first
	List(ctx context.Context, limit, offset int) ([]*domain.VerificationLog, error)

	// GetByPassID returns the scan history of one pass reference
	GetByPassID(ctx context.Context, passID string, limit, offset int) ([]*domain.VerificationLog, error)

	// Stats returns verification counts per verdict
	Stats(ctx context.Context) (*domain.VerificationStats, error)
}

// UserRepository defines the account store
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, limit, offset int) ([]*domain.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error
	UpdateRole(ctx context.Context, id uuid.UUID, role domain.UserRole) error
}

// RefreshTokenRepository defines the refresh token store
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *domain.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	Revoke(ctx context.Context, tokenHash string) error
	RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error
	DeleteExpired(ctx context.Context) error
}
