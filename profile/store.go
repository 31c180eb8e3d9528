// Package profile stores pre-authenticated connection profiles on disk.
// A profile directory holds one JSON document per profile plus a pointer
// file naming the active one, matching what an external login tool lays
// down.
package profile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/sageanya/teleport/core"
)

const (
	// DefaultDirName is the per-user profile directory under $HOME.
	DefaultDirName = ".teleport-client"

	currentPointerFile = "current"
	profileExtension   = ".json"
)

// Store reads and writes profiles in a single directory. The zero value
// is not usable; construct with NewStore.
//
// Multiple goroutines may call methods on a Store simultaneously as long
// as they target distinct profiles; concurrent writes to the same
// profile race at the filesystem level.
type Store struct {
	dir string
}

// NewStore opens the profile directory, creating it when absent. An
// empty dir selects the per-user default.
func NewStore(dir string) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "profile: resolving home directory")
		}
		dir = filepath.Join(home, DefaultDirName)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "profile: creating profile directory")
	}
	return &Store{dir: dir}, nil
}

// Dir reports the directory backing the store.
func (s *Store) Dir() string { return s.dir }

// Upsert validates and writes the profile, stamping UpdatedAt.
func (s *Store) Upsert(_ context.Context, profile core.Profile) (core.Profile, error) {
	if err := profile.Validate(); err != nil {
		return core.Profile{}, goerrors.Wrap(err, goerrors.CategoryBadInput, "profile: invalid profile").
			WithTextCode(core.ClientErrorBadInput)
	}
	if err := validateName(profile.Name); err != nil {
		return core.Profile{}, err
	}
	profile.UpdatedAt = time.Now().UTC()

	payload, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return core.Profile{}, goerrors.Wrap(err, goerrors.CategoryInternal, "profile: encoding profile")
	}
	if err := os.WriteFile(s.profilePath(profile.Name), payload, 0o600); err != nil {
		return core.Profile{}, goerrors.Wrap(err, goerrors.CategoryOperation, "profile: writing profile")
	}
	return profile, nil
}

// Get loads the named profile.
func (s *Store) Get(_ context.Context, name string) (core.Profile, error) {
	if err := validateName(name); err != nil {
		return core.Profile{}, err
	}
	payload, err := os.ReadFile(s.profilePath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return core.Profile{}, goerrors.New("profile: profile not found", goerrors.CategoryNotFound).
				WithMetadata(map[string]any{"name": name})
		}
		return core.Profile{}, goerrors.Wrap(err, goerrors.CategoryOperation, "profile: reading profile")
	}
	var profile core.Profile
	if err := json.Unmarshal(payload, &profile); err != nil {
		return core.Profile{}, goerrors.Wrap(err, goerrors.CategoryOperation, "profile: decoding profile").
			WithMetadata(map[string]any{"name": name})
	}
	return profile, nil
}

// List returns every stored profile ordered by name. Unreadable entries
// are skipped rather than failing the listing.
func (s *Store) List(_ context.Context) ([]core.Profile, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "profile: listing profile directory")
	}
	var profiles []core.Profile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), profileExtension) {
			continue
		}
		payload, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		var profile core.Profile
		if err := json.Unmarshal(payload, &profile); err != nil {
			continue
		}
		profiles = append(profiles, profile)
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Name < profiles[j].Name })
	return profiles, nil
}

// Delete removes the named profile and clears the current pointer when
// it referenced it. Deleting an absent profile is not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := os.Remove(s.profilePath(name)); err != nil && !os.IsNotExist(err) {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "profile: removing profile")
	}
	if current, err := s.currentName(); err == nil && current == name {
		os.Remove(filepath.Join(s.dir, currentPointerFile))
	}
	return nil
}

// SetCurrent marks an existing profile as the active one.
func (s *Store) SetCurrent(ctx context.Context, name string) error {
	if _, err := s.Get(ctx, name); err != nil {
		return err
	}
	pointer := filepath.Join(s.dir, currentPointerFile)
	if err := os.WriteFile(pointer, []byte(name+"\n"), 0o600); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "profile: writing current pointer")
	}
	return nil
}

// Current resolves the active profile.
func (s *Store) Current(ctx context.Context) (core.Profile, error) {
	name, err := s.currentName()
	if err != nil {
		return core.Profile{}, err
	}
	return s.Get(ctx, name)
}

func (s *Store) currentName() (string, error) {
	payload, err := os.ReadFile(filepath.Join(s.dir, currentPointerFile))
	if err != nil {
		if os.IsNotExist(err) {
			return "", goerrors.New("profile: no current profile selected", goerrors.CategoryNotFound)
		}
		return "", goerrors.Wrap(err, goerrors.CategoryOperation, "profile: reading current pointer")
	}
	name := strings.TrimSpace(string(payload))
	if name == "" {
		return "", goerrors.New("profile: current pointer is empty", goerrors.CategoryNotFound)
	}
	return name, nil
}

func (s *Store) profilePath(name string) string {
	return filepath.Join(s.dir, name+profileExtension)
}

// validateName keeps profile names inside the store directory.
func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return goerrors.New("profile: name is required", goerrors.CategoryBadInput).
			WithTextCode(core.ClientErrorBadInput)
	}
	if strings.ContainsAny(name, `/\`) || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return goerrors.New("profile: name must be a bare file name", goerrors.CategoryBadInput).
			WithTextCode(core.ClientErrorBadInput).
			WithMetadata(map[string]any{"name": name})
	}
	return nil
}
