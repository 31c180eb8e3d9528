package sqlstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/sageanya/teleport/core"
)

type stubProfileBackend struct {
	mu           sync.Mutex
	profiles     map[string]core.Profile
	current      string
	getCalls     int
	currentCalls int
	getErr       error
}

func newStubProfileBackend() *stubProfileBackend {
	return &stubProfileBackend{profiles: map[string]core.Profile{}}
}

func (s *stubProfileBackend) Upsert(_ context.Context, profile core.Profile) (core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.Name] = profile
	return profile, nil
}

func (s *stubProfileBackend) Get(_ context.Context, name string) (core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++
	if s.getErr != nil {
		return core.Profile{}, s.getErr
	}
	profile, ok := s.profiles[name]
	if !ok {
		return core.Profile{}, errors.New("profile not found")
	}
	return profile, nil
}

func (s *stubProfileBackend) List(context.Context) ([]core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Profile, 0, len(s.profiles))
	for _, profile := range s.profiles {
		out = append(out, profile)
	}
	return out, nil
}

func (s *stubProfileBackend) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.profiles, name)
	return nil
}

func (s *stubProfileBackend) Current(context.Context) (core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentCalls++
	if s.current == "" {
		return core.Profile{}, errors.New("no current profile")
	}
	return s.profiles[s.current], nil
}

func (s *stubProfileBackend) SetCurrent(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[name]; !ok {
		return errors.New("profile not found")
	}
	s.current = name
	return nil
}

func newTestProfileCacheService(t *testing.T) repositorycache.CacheService {
	t.Helper()
	config := repositorycache.DefaultConfig()
	config.TTL = time.Minute
	service, err := repositorycache.NewCacheService(config)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	return service
}

func testStoredProfile(name string) core.Profile {
	return core.Profile{
		Name:      name,
		ProxyAddr: "proxy.example.com:3080",
		CertPath:  "/keys/" + name + ".crt",
		KeyPath:   "/keys/" + name + ".key",
	}
}

func TestCachedProfileStore_Get_MissFetchThenHit(t *testing.T) {
	base := newStubProfileBackend()
	if _, err := base.Upsert(context.Background(), testStoredProfile("staging")); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	store, err := NewCachedProfileStore(base, newTestProfileCacheService(t))
	if err != nil {
		t.Fatalf("new cached profile store: %v", err)
	}

	if _, err := store.Get(context.Background(), "staging"); err != nil {
		t.Fatalf("first get: %v", err)
	}
	if base.getCalls != 1 {
		t.Fatalf("expected first get to hit the base store, got %d calls", base.getCalls)
	}
	if _, err := store.Get(context.Background(), "staging"); err != nil {
		t.Fatalf("second get: %v", err)
	}
	if base.getCalls != 1 {
		t.Fatalf("expected second get to be a cache hit, base calls=%d", base.getCalls)
	}
}

func TestCachedProfileStore_Upsert_InvalidatesCachedEntry(t *testing.T) {
	base := newStubProfileBackend()
	seed := testStoredProfile("prod")
	if _, err := base.Upsert(context.Background(), seed); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	store, err := NewCachedProfileStore(base, newTestProfileCacheService(t))
	if err != nil {
		t.Fatalf("new cached profile store: %v", err)
	}

	if _, err := store.Get(context.Background(), "prod"); err != nil {
		t.Fatalf("warm cache: %v", err)
	}

	seed.Cluster = "updated-cluster"
	if _, err := store.Upsert(context.Background(), seed); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := store.Get(context.Background(), "prod")
	if err != nil {
		t.Fatalf("get after upsert: %v", err)
	}
	if got.Cluster != "updated-cluster" {
		t.Fatalf("stale profile served after write: %+v", got)
	}
}

func TestCachedProfileStore_SetCurrent_InvalidatesCurrentEntry(t *testing.T) {
	base := newStubProfileBackend()
	for _, name := range []string{"one", "two"} {
		if _, err := base.Upsert(context.Background(), testStoredProfile(name)); err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
	}
	if err := base.SetCurrent(context.Background(), "one"); err != nil {
		t.Fatalf("seed current: %v", err)
	}
	store, err := NewCachedProfileStore(base, newTestProfileCacheService(t))
	if err != nil {
		t.Fatalf("new cached profile store: %v", err)
	}

	current, err := store.Current(context.Background())
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if current.Name != "one" {
		t.Fatalf("expected one, got %q", current.Name)
	}

	if err := store.SetCurrent(context.Background(), "two"); err != nil {
		t.Fatalf("set current: %v", err)
	}
	current, err = store.Current(context.Background())
	if err != nil {
		t.Fatalf("current after switch: %v", err)
	}
	if current.Name != "two" {
		t.Fatalf("stale current profile served: %q", current.Name)
	}
}

func TestCachedProfileStore_PropagatesBaseErrors(t *testing.T) {
	base := newStubProfileBackend()
	baseErr := errors.New("backend offline")
	base.getErr = baseErr
	store, err := NewCachedProfileStore(base, newTestProfileCacheService(t))
	if err != nil {
		t.Fatalf("new cached profile store: %v", err)
	}

	if _, err := store.Get(context.Background(), "anything"); !errors.Is(err, baseErr) {
		t.Fatalf("expected base error propagation, got %v", err)
	}
}

func TestProfileCacheKey_EscapesName(t *testing.T) {
	key, err := ProfileCacheKey("team/prod cluster")
	if err != nil {
		t.Fatalf("cache key: %v", err)
	}
	if key != profileCacheKeyPrefix+"::team%2Fprod%20cluster" {
		t.Fatalf("unexpected cache key %q", key)
	}
	if _, err := ProfileCacheKey("   "); err == nil {
		t.Fatalf("blank names must be rejected")
	}
}
