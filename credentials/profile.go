package credentials

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sageanya/teleport/core"
)

// ProfileSource resolves locally stored profiles. profile.Store satisfies
// it for the on-disk layout; the SQL profile store satisfies it too.
type ProfileSource interface {
	Current(ctx context.Context) (core.Profile, error)
	Get(ctx context.Context, name string) (core.Profile, error)
}

// ProfileProvider derives both the dial target and the credential from a
// pre-authenticated local profile, as produced by an external login flow.
// The referenced paths are served through an inner PathProvider, so
// external rotation of the profile's material behaves exactly like the
// path strategy.
type ProfileProvider struct {
	profile core.Profile
	inner   *PathProvider
}

// NewProfileProvider resolves the named profile, or the current one when
// name is empty. Expired profiles fail construction.
func NewProfileProvider(ctx context.Context, source ProfileSource, name string, opts ...PathOption) (*ProfileProvider, error) {
	if source == nil {
		return nil, core.NewCredentialUnavailableError(
			fmt.Errorf("credentials: profile source is required"), "profile")
	}

	var (
		resolved core.Profile
		err      error
	)
	name = strings.TrimSpace(name)
	if name == "" {
		resolved, err = source.Current(ctx)
	} else {
		resolved, err = source.Get(ctx, name)
	}
	if err != nil {
		return nil, core.NewCredentialUnavailableError(err, "profile")
	}
	if err := resolved.Validate(); err != nil {
		return nil, core.NewCredentialUnavailableError(err, "profile")
	}
	if resolved.Expired(time.Time{}) {
		return nil, core.NewCredentialUnavailableError(
			fmt.Errorf("credentials: profile %q expired at %s", resolved.Name, resolved.ValidUntil.Format(time.RFC3339)), "profile")
	}

	inner, err := NewPathProvider(PathConfig{
		CertPath: resolved.CertPath,
		KeyPath:  resolved.KeyPath,
		CAPath:   resolved.CAPath,
	}, opts...)
	if err != nil {
		return nil, err
	}
	return &ProfileProvider{profile: resolved, inner: inner}, nil
}

func (p *ProfileProvider) Name() string { return "profile" }

// Profile returns the resolved profile record.
func (p *ProfileProvider) Profile() core.Profile {
	if p == nil {
		return core.Profile{}
	}
	return p.profile
}

// Addr returns the dial target the profile points at.
func (p *ProfileProvider) Addr() string {
	if p == nil {
		return ""
	}
	return p.profile.ProxyAddr
}

func (p *ProfileProvider) Credential(ctx context.Context) (core.Credential, error) {
	if p == nil || p.inner == nil {
		return core.Credential{}, core.NewCredentialUnavailableError(nil, "profile")
	}
	credential, err := p.inner.Credential(ctx)
	if err != nil {
		return core.Credential{}, err
	}
	credential.Source = "profile"
	return credential, nil
}

func (p *ProfileProvider) Reloaded() <-chan struct{} {
	if p == nil || p.inner == nil {
		return nil
	}
	return p.inner.Reloaded()
}

// Watch forwards to the inner path watcher.
func (p *ProfileProvider) Watch(ctx context.Context) {
	if p == nil || p.inner == nil {
		return
	}
	p.inner.Watch(ctx)
}

var _ core.CredentialProvider = (*ProfileProvider)(nil)
