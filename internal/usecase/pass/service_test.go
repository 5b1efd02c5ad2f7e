package pass

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/nightpass/curfew/internal/domain"
	"github.com/nightpass/curfew/internal/events"
	"github.com/nightpass/curfew/internal/pkg/logger"
	"github.com/nightpass/curfew/internal/repository"
)

// MockPassRepository mocks repository.PassRepository
type MockPassRepository struct {
	mock.Mock
}

func (m *MockPassRepository) Create(ctx context.Context, pass *domain.Pass) error {
	args := m.Called(ctx, pass)
	return args.Error(0)
}

func (m *MockPassRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Pass, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Pass), args.Error(1)
}

func (m *MockPassRepository) List(ctx context.Context, filter repository.PassFilter) ([]*domain.Pass, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Pass), args.Error(1)
}

func (m *MockPassRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PassStatus, approvedAt *time.Time) error {
	args := m.Called(ctx, id, status, approvedAt)
	return args.Error(0)
}

func (m *MockPassRepository) CountByStatus(ctx context.Context, now time.Time) (*domain.PassStats, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PassStats), args.Error(1)
}

func newTestService(repo repository.PassRepository) *Service {
	return NewService(repo, events.NopFeed{}, logger.NewNoop(), 300)
}

func adminActor() domain.Actor {
	return domain.Actor{ID: uuid.New(), Role: domain.RoleAdmin}
}

func userActor(id uuid.UUID) domain.Actor {
	return domain.Actor{ID: id, Role: domain.RoleUser}
}

func pendingPass(userID uuid.UUID) *domain.Pass {
	now := time.Now()
	return &domain.Pass{
		ID:          uuid.New(),
		UserID:      userID,
		FullName:    "Maria Santos",
		IDNumber:    "ID-443210",
		Reason:      "Night shift at the hospital",
		Destination: "City General Hospital",
		StartTime:   now.Add(1 * time.Hour),
		EndTime:     now.Add(5 * time.Hour),
		Status:      domain.StatusPending,
		CreatedAt:   now,
	}
}

func TestService_Submit(t *testing.T) {
	userID := uuid.New()
	now := time.Now()

	tests := []struct {
		name        string
		request     *SubmitRequest
		mockSetup   func(*MockPassRepository)
		expectedErr error
	}{
		{
			name: "valid submission starts pending",
			request: &SubmitRequest{
				UserID:      userID,
				FullName:    "Maria Santos",
				IDNumber:    "ID-443210",
				Reason:      "Night shift at the hospital",
				Destination: "City General Hospital",
				StartTime:   now.Add(1 * time.Hour),
				EndTime:     now.Add(5 * time.Hour),
			},
			mockSetup: func(m *MockPassRepository) {
				m.On("Create", mock.Anything, mock.AnythingOfType("*domain.Pass")).Return(nil)
			},
			expectedErr: nil,
		},
		{
			name: "missing holder fields are rejected",
			request: &SubmitRequest{
				UserID:    userID,
				FullName:  "Maria Santos",
				StartTime: now.Add(1 * time.Hour),
				EndTime:   now.Add(5 * time.Hour),
			},
			mockSetup:   func(m *MockPassRepository) {},
			expectedErr: domain.ErrInvalidPassData,
		},
		{
			name: "end before start is rejected",
			request: &SubmitRequest{
				UserID:      userID,
				FullName:    "Maria Santos",
				IDNumber:    "ID-443210",
				Reason:      "Night shift at the hospital",
				Destination: "City General Hospital",
				StartTime:   now.Add(5 * time.Hour),
				EndTime:     now.Add(1 * time.Hour),
			},
			mockSetup:   func(m *MockPassRepository) {},
			expectedErr: domain.ErrInvalidTimeWindow,
		},
		{
			name: "store failure propagates",
			request: &SubmitRequest{
				UserID:      userID,
				FullName:    "Maria Santos",
				IDNumber:    "ID-443210",
				Reason:      "Night shift at the hospital",
				Destination: "City General Hospital",
				StartTime:   now.Add(1 * time.Hour),
				EndTime:     now.Add(5 * time.Hour),
			},
			mockSetup: func(m *MockPassRepository) {
				m.On("Create", mock.Anything, mock.AnythingOfType("*domain.Pass")).Return(errors.New("connection refused"))
			},
			expectedErr: errors.New("failed to create pass"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockPassRepository)
			tt.mockSetup(mockRepo)

			service := newTestService(mockRepo)

			p, err := service.Submit(context.Background(), tt.request)

			if tt.expectedErr != nil {
				assert.Error(t, err)
				assert.Nil(t, p)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, domain.StatusPending, p.Status)
			assert.Equal(t, userID, p.UserID)
			assert.Nil(t, p.ApprovedAt)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestService_Approve(t *testing.T) {
	tests := []struct {
		name        string
		actor       domain.Actor
		mockSetup   func(*MockPassRepository, *domain.Pass)
		expectedErr error
	}{
		{
			name:  "admin approves a pending pass",
			actor: adminActor(),
			mockSetup: func(m *MockPassRepository, p *domain.Pass) {
				m.On("GetByID", mock.Anything, p.ID).Return(p, nil)
				m.On("UpdateStatus", mock.Anything, p.ID, domain.StatusApproved, mock.AnythingOfType("*time.Time")).Return(nil)
			},
			expectedErr: nil,
		},
		{
			name:        "non-admin actor is refused before the fetch",
			actor:       userActor(uuid.New()),
			mockSetup:   func(m *MockPassRepository, p *domain.Pass) {},
			expectedErr: domain.ErrUnauthorized,
		},
		{
			name:  "already denied pass cannot be approved",
			actor: adminActor(),
			mockSetup: func(m *MockPassRepository, p *domain.Pass) {
				p.Status = domain.StatusDenied
				m.On("GetByID", mock.Anything, p.ID).Return(p, nil)
			},
			expectedErr: domain.ErrInvalidTransition,
		},
		{
			name:  "missing pass",
			actor: adminActor(),
			mockSetup: func(m *MockPassRepository, p *domain.Pass) {
				m.On("GetByID", mock.Anything, p.ID).Return(nil, domain.ErrPassNotFound)
			},
			expectedErr: domain.ErrPassNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := pendingPass(uuid.New())
			mockRepo := new(MockPassRepository)
			tt.mockSetup(mockRepo, p)

			service := newTestService(mockRepo)

			approved, err := service.Approve(context.Background(), p.ID, tt.actor)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, domain.StatusApproved, approved.Status)
			assert.NotNil(t, approved.ApprovedAt)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestService_Deny(t *testing.T) {
	tests := []struct {
		name        string
		actor       domain.Actor
		mockSetup   func(*MockPassRepository, *domain.Pass)
		expectedErr error
	}{
		{
			name:  "admin denies a pending pass",
			actor: adminActor(),
			mockSetup: func(m *MockPassRepository, p *domain.Pass) {
				m.On("GetByID", mock.Anything, p.ID).Return(p, nil)
				m.On("UpdateStatus", mock.Anything, p.ID, domain.StatusDenied, (*time.Time)(nil)).Return(nil)
			},
			expectedErr: nil,
		},
		{
			name:        "non-admin actor is refused",
			actor:       userActor(uuid.New()),
			mockSetup:   func(m *MockPassRepository, p *domain.Pass) {},
			expectedErr: domain.ErrUnauthorized,
		},
		{
			name:  "already approved pass cannot be denied",
			actor: adminActor(),
			mockSetup: func(m *MockPassRepository, p *domain.Pass) {
				p.Status = domain.StatusApproved
				m.On("GetByID", mock.Anything, p.ID).Return(p, nil)
			},
			expectedErr: domain.ErrInvalidTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := pendingPass(uuid.New())
			mockRepo := new(MockPassRepository)
			tt.mockSetup(mockRepo, p)

			service := newTestService(mockRepo)

			denied, err := service.Deny(context.Background(), p.ID, tt.actor)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, domain.StatusDenied, denied.Status)
			assert.Nil(t, denied.ApprovedAt)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestService_GetPass(t *testing.T) {
	ownerID := uuid.New()

	tests := []struct {
		name           string
		actor          domain.Actor
		mockSetup      func(*MockPassRepository, *domain.Pass)
		expectedErr    error
		expectedStatus domain.PassStatus
	}{
		{
			name:  "owner sees own pass",
			actor: userActor(ownerID),
			mockSetup: func(m *MockPassRepository, p *domain.Pass) {
				m.On("GetByID", mock.Anything, p.ID).Return(p, nil)
			},
			expectedStatus: domain.StatusPending,
		},
		{
			name:  "another user is refused",
			actor: userActor(uuid.New()),
			mockSetup: func(m *MockPassRepository, p *domain.Pass) {
				m.On("GetByID", mock.Anything, p.ID).Return(p, nil)
			},
			expectedErr: domain.ErrForbidden,
		},
		{
			name:  "admin sees any pass",
			actor: adminActor(),
			mockSetup: func(m *MockPassRepository, p *domain.Pass) {
				m.On("GetByID", mock.Anything, p.ID).Return(p, nil)
			},
			expectedStatus: domain.StatusPending,
		},
		{
			name:  "elapsed approved pass reads as expired",
			actor: userActor(ownerID),
			mockSetup: func(m *MockPassRepository, p *domain.Pass) {
				p.Status = domain.StatusApproved
				p.StartTime = time.Now().Add(-5 * time.Hour)
				p.EndTime = time.Now().Add(-1 * time.Hour)
				m.On("GetByID", mock.Anything, p.ID).Return(p, nil)
			},
			expectedStatus: domain.StatusExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := pendingPass(ownerID)
			mockRepo := new(MockPassRepository)
			tt.mockSetup(mockRepo, p)

			service := newTestService(mockRepo)

			got, err := service.GetPass(context.Background(), p.ID, tt.actor)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, got.Status)
		})
	}
}

func TestService_ListPasses(t *testing.T) {
	ownerID := uuid.New()

	t.Run("non-admin list is scoped to the actor", func(t *testing.T) {
		mockRepo := new(MockPassRepository)
		mockRepo.On("List", mock.Anything, mock.MatchedBy(func(f repository.PassFilter) bool {
			return f.UserID != nil && *f.UserID == ownerID
		})).Return([]*domain.Pass{pendingPass(ownerID)}, nil)

		service := newTestService(mockRepo)

		passes, err := service.ListPasses(context.Background(), ListFilter{Limit: 50}, userActor(ownerID))

		assert.NoError(t, err)
		assert.Len(t, passes, 1)
		mockRepo.AssertExpectations(t)
	})

	t.Run("admin list is unscoped", func(t *testing.T) {
		mockRepo := new(MockPassRepository)
		mockRepo.On("List", mock.Anything, mock.MatchedBy(func(f repository.PassFilter) bool {
			return f.UserID == nil
		})).Return([]*domain.Pass{pendingPass(ownerID), pendingPass(uuid.New())}, nil)

		service := newTestService(mockRepo)

		passes, err := service.ListPasses(context.Background(), ListFilter{Limit: 50}, adminActor())

		assert.NoError(t, err)
		assert.Len(t, passes, 2)
	})

	t.Run("unknown status filter is rejected", func(t *testing.T) {
		mockRepo := new(MockPassRepository)

		service := newTestService(mockRepo)

		_, err := service.ListPasses(context.Background(), ListFilter{Status: "revoked"}, adminActor())

		assert.ErrorIs(t, err, domain.ErrInvalidPassData)
		mockRepo.AssertNotCalled(t, "List")
	})

	t.Run("returned passes carry their effective status", func(t *testing.T) {
		elapsed := pendingPass(ownerID)
		elapsed.Status = domain.StatusApproved
		elapsed.StartTime = time.Now().Add(-5 * time.Hour)
		elapsed.EndTime = time.Now().Add(-1 * time.Hour)

		mockRepo := new(MockPassRepository)
		mockRepo.On("List", mock.Anything, mock.AnythingOfType("repository.PassFilter")).
			Return([]*domain.Pass{elapsed}, nil)

		service := newTestService(mockRepo)

		passes, err := service.ListPasses(context.Background(), ListFilter{}, adminActor())

		assert.NoError(t, err)
		assert.Equal(t, domain.StatusExpired, passes[0].Status)
	})
}

func TestService_StatusCounts(t *testing.T) {
	mockRepo := new(MockPassRepository)
	mockRepo.On("CountByStatus", mock.Anything, mock.AnythingOfType("time.Time")).
		Return(&domain.PassStats{Total: 10, Pending: 3, Approved: 4, Denied: 1, Expired: 2}, nil)

	service := newTestService(mockRepo)

	stats, err := service.StatusCounts(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 10, stats.Total)
	assert.Equal(t, 2, stats.Expired)
}

func TestService_QRCode(t *testing.T) {
	ownerID := uuid.New()

	activePass := func() *domain.Pass {
		p := pendingPass(ownerID)
		p.Status = domain.StatusApproved
		p.StartTime = time.Now().Add(-1 * time.Hour)
		p.EndTime = time.Now().Add(3 * time.Hour)
		return p
	}

	tests := []struct {
		name        string
		actor       domain.Actor
		mockSetup   func(*MockPassRepository, uuid.UUID)
		expectedErr error
	}{
		{
			name:  "owner renders an approved pass",
			actor: userActor(ownerID),
			mockSetup: func(m *MockPassRepository, id uuid.UUID) {
				m.On("GetByID", mock.Anything, id).Return(activePass(), nil)
			},
		},
		{
			name:  "admin renders any approved pass",
			actor: adminActor(),
			mockSetup: func(m *MockPassRepository, id uuid.UUID) {
				m.On("GetByID", mock.Anything, id).Return(activePass(), nil)
			},
		},
		{
			name:  "another user is refused",
			actor: userActor(uuid.New()),
			mockSetup: func(m *MockPassRepository, id uuid.UUID) {
				m.On("GetByID", mock.Anything, id).Return(activePass(), nil)
			},
			expectedErr: domain.ErrForbidden,
		},
		{
			name:  "pending pass has no code",
			actor: userActor(ownerID),
			mockSetup: func(m *MockPassRepository, id uuid.UUID) {
				m.On("GetByID", mock.Anything, id).Return(pendingPass(ownerID), nil)
			},
			expectedErr: domain.ErrPassNotApproved,
		},
		{
			name:  "elapsed pass has no code",
			actor: userActor(ownerID),
			mockSetup: func(m *MockPassRepository, id uuid.UUID) {
				p := activePass()
				p.StartTime = time.Now().Add(-5 * time.Hour)
				p.EndTime = time.Now().Add(-1 * time.Hour)
				m.On("GetByID", mock.Anything, id).Return(p, nil)
			},
			expectedErr: domain.ErrPassNotApproved,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			passID := uuid.New()
			mockRepo := new(MockPassRepository)
			tt.mockSetup(mockRepo, passID)

			service := newTestService(mockRepo)

			png, err := service.QRCode(context.Background(), passID, tt.actor)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, png)
				return
			}

			assert.NoError(t, err)
			assert.NotEmpty(t, png)
		})
	}
}
