package pass

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nightpass/curfew/internal/domain"
	"github.com/nightpass/curfew/internal/events"
	"github.com/nightpass/curfew/internal/pkg/logger"
	"github.com/nightpass/curfew/internal/pkg/qrcode"
	"github.com/nightpass/curfew/internal/repository"
)

// SubmitRequest - a pass request from an end user
type SubmitRequest struct {
	UserID      uuid.UUID `json:"-"` // Taken from the authenticated actor, never from the body
	FullName    string    `json:"full_name" validate:"required"`
	IDNumber    string    `json:"id_number" validate:"required"`
	Reason      string    `json:"reason" validate:"required"`
	Destination string    `json:"destination" validate:"required"`
	StartTime   time.Time `json:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time" validate:"required"`
}

// ListFilter - dashboard filter over the pass list
type ListFilter struct {
	Status string
	Search string
	Limit  int
	Offset int
}

// Service implements the pass lifecycle: submit, approve, deny, and the
// read-side projections. It is the only writer of pass status.
type Service struct {
	passRepo repository.PassRepository
	feed     events.Feed
	logger   logger.Logger
	qrSize   int
}

// NewService creates a pass service
func NewService(passRepo repository.PassRepository, feed events.Feed, logger logger.Logger, qrSize int) *Service {
	return &Service{
		passRepo: passRepo,
		feed:     feed,
		logger:   logger,
		qrSize:   qrSize,
	}
}

// Submit creates a new pass in pending state. The validity window is
// fixed here and never changes afterwards.
func (s *Service) Submit(ctx context.Context, req *SubmitRequest) (*domain.Pass, error) {
	s.logger.Info("Submitting pass request", map[string]interface{}{
		"user_id":     req.UserID,
		"destination": req.Destination,
	})

	pass := &domain.Pass{
		UserID:      req.UserID,
		FullName:    req.FullName,
		IDNumber:    req.IDNumber,
		Reason:      req.Reason,
		Destination: req.Destination,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Status:      domain.StatusPending,
	}

	if err := pass.Validate(); err != nil {
		return nil, err
	}

	if err := s.passRepo.Create(ctx, pass); err != nil {
		s.logger.Error("Failed to create pass", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, fmt.Errorf("failed to create pass: %w", err)
	}

	s.feed.PassCreated(ctx, pass.ID.String())

	s.logger.Info("Pass submitted", map[string]interface{}{
		"pass_id": pass.ID,
		"user_id": pass.UserID,
	})

	return pass, nil
}

// Approve moves a pending pass to approved and stamps approved_at.
// Only an admin actor carries the approval capability; everyone else is
// refused before the pass is even fetched.
func (s *Service) Approve(ctx context.Context, passID uuid.UUID, actor domain.Actor) (*domain.Pass, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrUnauthorized
	}

	pass, err := s.passRepo.GetByID(ctx, passID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := pass.Approve(now); err != nil {
		// Callers can tell "already terminal" apart from "not found"
		return nil, err
	}

	if err := s.passRepo.UpdateStatus(ctx, passID, domain.StatusApproved, pass.ApprovedAt); err != nil {
		s.logger.Error("Failed to approve pass", map[string]interface{}{
			"pass_id": passID,
			"error":   err.Error(),
		})
		return nil, fmt.Errorf("failed to approve pass: %w", err)
	}

	s.feed.PassUpdated(ctx, passID.String())

	s.logger.Info("Pass approved", map[string]interface{}{
		"pass_id":     passID,
		"approved_by": actor.ID,
	})

	return pass, nil
}

// Deny moves a pending pass to denied. approved_at stays empty.
func (s *Service) Deny(ctx context.Context, passID uuid.UUID, actor domain.Actor) (*domain.Pass, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrUnauthorized
	}

	pass, err := s.passRepo.GetByID(ctx, passID)
	if err != nil {
		return nil, err
	}

	if err := pass.Deny(); err != nil {
		return nil, err
	}

	if err := s.passRepo.UpdateStatus(ctx, passID, domain.StatusDenied, nil); err != nil {
		s.logger.Error("Failed to deny pass", map[string]interface{}{
			"pass_id": passID,
			"error":   err.Error(),
		})
		return nil, fmt.Errorf("failed to deny pass: %w", err)
	}

	s.feed.PassUpdated(ctx, passID.String())

	s.logger.Info("Pass denied", map[string]interface{}{
		"pass_id":   passID,
		"denied_by": actor.ID,
	})

	return pass, nil
}

// GetPass returns one pass, ownership-scoped: non-admin actors only see
// their own. The returned status is the effective status at call time.
func (s *Service) GetPass(ctx context.Context, passID uuid.UUID, actor domain.Actor) (*domain.Pass, error) {
	pass, err := s.passRepo.GetByID(ctx, passID)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() && pass.UserID != actor.ID {
		return nil, domain.ErrForbidden
	}

	pass.Status = pass.EffectiveStatus(time.Now())

	return pass, nil
}

// ListPasses returns passes matching the filter, newest first, scoped
// to the actor: admins see everything, users see only their own. Every
// returned pass carries its effective status; a stale "approved" is
// never observable.
func (s *Service) ListPasses(ctx context.Context, filter ListFilter, actor domain.Actor) ([]*domain.Pass, error) {
	now := time.Now()

	repoFilter := repository.PassFilter{
		Search: filter.Search,
		Now:    now,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	if !actor.IsAdmin() {
		userID := actor.ID
		repoFilter.UserID = &userID
	}

	if filter.Status != "" {
		status := domain.PassStatus(filter.Status)
		switch status {
		case domain.StatusPending, domain.StatusApproved, domain.StatusDenied, domain.StatusExpired:
			repoFilter.Status = &status
		default:
			return nil, domain.ErrInvalidPassData
		}
	}

	passes, err := s.passRepo.List(ctx, repoFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list passes: %w", err)
	}

	for _, p := range passes {
		p.Status = p.EffectiveStatus(now)
	}

	return passes, nil
}

// StatusCounts returns pass counts by effective status for the admin
// dashboard
func (s *Service) StatusCounts(ctx context.Context) (*domain.PassStats, error) {
	stats, err := s.passRepo.CountByStatus(ctx, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to count passes: %w", err)
	}
	return stats, nil
}

// QRCode renders the scannable code of an approved pass as PNG bytes.
// The payload is derived from the canonical record at render time.
// Only the owner or an admin may render it, and only while the pass is
// effectively approved.
func (s *Service) QRCode(ctx context.Context, passID uuid.UUID, actor domain.Actor) ([]byte, error) {
	pass, err := s.passRepo.GetByID(ctx, passID)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() && pass.UserID != actor.ID {
		return nil, domain.ErrForbidden
	}

	now := time.Now()
	if pass.EffectiveStatus(now) != domain.StatusApproved {
		return nil, domain.ErrPassNotApproved
	}

	png, err := qrcode.FromPass(pass, now).Image(s.qrSize)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR code: %w", err)
	}

	return png, nil
}
