package http

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/nightpass/curfew/internal/delivery/http/middleware"
	"github.com/nightpass/curfew/internal/domain"
	"github.com/nightpass/curfew/internal/pkg/jwt"
)

// CreateAuthContext builds a request context carrying authenticated
// claims, as AuthMiddleware would have
func CreateAuthContext(userID uuid.UUID, email string, role domain.UserRole) context.Context {
	claims := &jwt.Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
	}
	return context.WithValue(context.Background(), middleware.UserClaimsKey, claims)
}

// CreateTestPass builds a pass in the given state with an open window
func CreateTestPass(id, userID uuid.UUID, status domain.PassStatus) *domain.Pass {
	now := time.Now()
	return &domain.Pass{
		ID:          id,
		UserID:      userID,
		FullName:    "Maria Santos",
		IDNumber:    "ID-443210",
		Reason:      "Night shift at the hospital",
		Destination: "City General Hospital",
		StartTime:   now.Add(-1 * time.Hour),
		EndTime:     now.Add(3 * time.Hour),
		Status:      status,
		CreatedAt:   now,
	}
}

// CreateTestLog builds a verification log entry
func CreateTestLog(passID string, result domain.Verdict) *domain.VerificationLog {
	return &domain.VerificationLog{
		ID:         uuid.New(),
		PassID:     passID,
		HolderName: "Maria Santos",
		ScanTime:   time.Now(),
		Location:   "Checkpoint 4",
		ScannedBy:  domain.ScannedBySystem,
		DeviceInfo: "scanner-ab12",
		Result:     result,
	}
}
