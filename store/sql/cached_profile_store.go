package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/sageanya/teleport/core"
)

const profileCacheKeyPrefix = "teleport-client::profile::v1"

// ProfileBackend is the store surface the cache layers over.
type ProfileBackend interface {
	core.ProfileStore
	Current(ctx context.Context) (core.Profile, error)
	SetCurrent(ctx context.Context, name string) error
}

// CachedProfileStore layers a read-through cache over a profile store.
// Writes invalidate the affected entries so readers never observe a
// profile older than the last write through this store.
type CachedProfileStore struct {
	base  ProfileBackend
	cache repositorycache.CacheService
}

func NewCachedProfileStore(base ProfileBackend, cacheService repositorycache.CacheService) (*CachedProfileStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base profile store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: profile cache service is required")
	}
	return &CachedProfileStore{base: base, cache: cacheService}, nil
}

// ProfileCacheKey returns the deterministic cache key for a profile
// lookup: teleport-client::profile::v1::<name> with the name URL-path
// escaped.
func ProfileCacheKey(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("sqlstore: profile name is required")
	}
	return profileCacheKeyPrefix + "::" + url.PathEscape(name), nil
}

func currentProfileCacheKey() string {
	return profileCacheKeyPrefix + "::__current__"
}

func (s *CachedProfileStore) Get(ctx context.Context, name string) (core.Profile, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Profile{}, fmt.Errorf("sqlstore: cached profile store is not configured")
	}
	cacheKey, err := ProfileCacheKey(name)
	if err != nil {
		return core.Profile{}, err
	}
	return repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (core.Profile, error) {
		return s.base.Get(ctx, name)
	})
}

func (s *CachedProfileStore) Current(ctx context.Context) (core.Profile, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Profile{}, fmt.Errorf("sqlstore: cached profile store is not configured")
	}
	return repositorycache.GetOrFetch(ctx, s.cache, currentProfileCacheKey(), func(ctx context.Context) (core.Profile, error) {
		return s.base.Current(ctx)
	})
}

func (s *CachedProfileStore) List(ctx context.Context) ([]core.Profile, error) {
	if s == nil || s.base == nil {
		return nil, fmt.Errorf("sqlstore: cached profile store is not configured")
	}
	return s.base.List(ctx)
}

func (s *CachedProfileStore) Upsert(ctx context.Context, profile core.Profile) (core.Profile, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Profile{}, fmt.Errorf("sqlstore: cached profile store is not configured")
	}
	saved, err := s.base.Upsert(ctx, profile)
	if err != nil {
		return core.Profile{}, err
	}
	if err := s.invalidate(ctx, saved.Name); err != nil {
		return core.Profile{}, err
	}
	return saved, nil
}

func (s *CachedProfileStore) Delete(ctx context.Context, name string) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached profile store is not configured")
	}
	if err := s.base.Delete(ctx, name); err != nil {
		return err
	}
	return s.invalidate(ctx, name)
}

func (s *CachedProfileStore) SetCurrent(ctx context.Context, name string) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached profile store is not configured")
	}
	if err := s.base.SetCurrent(ctx, name); err != nil {
		return err
	}
	return s.invalidate(ctx, name)
}

func (s *CachedProfileStore) invalidate(ctx context.Context, name string) error {
	cacheKey, err := ProfileCacheKey(name)
	if err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, cacheKey); err != nil {
		return err
	}
	return s.cache.Delete(ctx, currentProfileCacheKey())
}

var _ core.ProfileStore = (*CachedProfileStore)(nil)
