package cached

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nightpass/curfew/internal/domain"
	"github.com/nightpass/curfew/internal/events"
	"github.com/nightpass/curfew/internal/pkg/redis"
	"github.com/nightpass/curfew/internal/repository"
)

const passCachePrefix = "pass:"

// PassRepository adds a Redis read-through cache for pass-by-id lookups,
// the hot path of scan verification. The cache is a projection, never an
// authority: entries carry a short TTL and are dropped on every local
// write and on every change-feed notification, so a pass updated by
// another instance is re-read within one notification or one TTL.
type PassRepository struct {
	repo  repository.PassRepository
	cache *redis.Client
	ttl   time.Duration
}

// NewPassRepository creates a cached pass repository
func NewPassRepository(repo repository.PassRepository, cache *redis.Client, ttl time.Duration) *PassRepository {
	return &PassRepository{
		repo:  repo,
		cache: cache,
		ttl:   ttl,
	}
}

func (r *PassRepository) Create(ctx context.Context, pass *domain.Pass) error {
	if err := r.repo.Create(ctx, pass); err != nil {
		return err
	}

	_ = r.cache.Del(ctx, passCachePrefix+pass.ID.String())

	return nil
}

// GetByID checks the cache first and falls back to the store. Cache
// failures are invisible to the caller, the store answer wins.
func (r *PassRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Pass, error) {
	cacheKey := passCachePrefix + id.String()

	cached, err := r.cache.Get(ctx, cacheKey)
	if err == nil {
		pass := &domain.Pass{}
		if err := json.Unmarshal([]byte(cached), pass); err == nil {
			return pass, nil
		}
		// Unreadable entry, drop it and re-read
		_ = r.cache.Del(ctx, cacheKey)
	}

	pass, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(pass); err == nil {
		_ = r.cache.Set(ctx, cacheKey, data, r.ttl)
	}

	return pass, nil
}

func (r *PassRepository) List(ctx context.Context, filter repository.PassFilter) ([]*domain.Pass, error) {
	// Listings are not cached, they are dashboard reads through SQL
	return r.repo.List(ctx, filter)
}

func (r *PassRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PassStatus, approvedAt *time.Time) error {
	if err := r.repo.UpdateStatus(ctx, id, status, approvedAt); err != nil {
		return err
	}

	_ = r.cache.Del(ctx, passCachePrefix+id.String())

	return nil
}

func (r *PassRepository) CountByStatus(ctx context.Context, now time.Time) (*domain.PassStats, error) {
	return r.repo.CountByStatus(ctx, now)
}

// Invalidate drops the cached entry for one pass
func (r *PassRepository) Invalidate(ctx context.Context, id string) {
	_ = r.cache.Del(ctx, passCachePrefix+id)
}

// ListenInvalidations consumes the pass change feed and drops cached
// entries for every updated row. Run in its own goroutine; returns when
// the feed channel closes.
func (r *PassRepository) ListenInvalidations(ctx context.Context, feed <-chan events.Event) {
	for event := range feed {
		if event.Type == events.PassUpdated || event.Type == events.PassCreated {
			r.Invalidate(ctx, event.ID)
		}
	}
}
