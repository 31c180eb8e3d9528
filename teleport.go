package teleport

import (
	"context"
	"strings"

	"github.com/sageanya/teleport/accessrequest"
	"github.com/sageanya/teleport/client"
	"github.com/sageanya/teleport/core"
	"github.com/sageanya/teleport/credentials"
	"github.com/sageanya/teleport/profile"
)

type Config = core.Config

type CredentialsConfig = core.CredentialsConfig

type Credential = core.Credential

type CredentialProvider = core.CredentialProvider

type Profile = core.Profile

type PingResponse = core.PingResponse

type Logger = core.Logger

type LoggerProvider = core.LoggerProvider

type MetricsRecorder = core.MetricsRecorder

type Client = client.Client
type Stream = client.Stream
type Option = client.Option

type AccessRequest = accessrequest.AccessRequest
type Filter = accessrequest.Filter
type Router = accessrequest.Router
type Watcher = accessrequest.Watcher

var (
	WithLogger             = client.WithLogger
	WithLoggerProvider     = client.WithLoggerProvider
	WithMetricsRecorder    = client.WithMetricsRecorder
	WithCredentialProvider = client.WithCredentialProvider
	WithDialContext        = client.WithDialContext
	WithDialPolicy         = client.WithDialPolicy

	IsConnectionFault       = core.IsConnectionFault
	IsCredentialRejected    = core.IsCredentialRejected
	IsCredentialUnavailable = core.IsCredentialUnavailable
	IsVersionIncompatible   = core.IsVersionIncompatible
	IsDenied                = core.IsDenied
	IsWatchClosed           = core.IsWatchClosed
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewRouter() *Router {
	return accessrequest.NewRouter()
}

// ResolveConfig layers defaults, values served by loader, and the
// runtime config, in that order of precedence. A nil loader resolves
// defaults against the runtime config alone.
func ResolveConfig(ctx context.Context, loader core.RawConfigLoader, runtime Config) (Config, error) {
	defaults := core.DefaultConfig()
	loaded, err := core.NewCfgxConfigProvider(loader).Load(ctx, defaults)
	if err != nil {
		return Config{}, err
	}
	return core.GoOptionsResolver{}.Resolve(defaults, loaded, runtime)
}

// NewCredentialProvider assembles the provider described by cfg: a path
// provider when certificate paths are set, a profile provider when a
// profile directory or name is set, and an ordered chain when both are.
// File watching starts immediately and stops with ctx. Returns nil when
// cfg names no source, leaving provider selection to the caller.
func NewCredentialProvider(ctx context.Context, cfg CredentialsConfig) (core.CredentialProvider, error) {
	var providers []core.CredentialProvider

	if strings.TrimSpace(cfg.CertFile) != "" || strings.TrimSpace(cfg.KeyFile) != "" {
		p, err := credentials.NewPathProvider(credentials.PathConfig{
			CertPath:      cfg.CertFile,
			KeyPath:       cfg.KeyFile,
			CAPath:        cfg.CAFile,
			WatchInterval: cfg.WatchInterval,
		})
		if err != nil {
			return nil, err
		}
		p.Watch(ctx)
		providers = append(providers, p)
	}

	if strings.TrimSpace(cfg.Profile) != "" || strings.TrimSpace(cfg.ProfileDir) != "" {
		store, err := profile.NewStore(cfg.ProfileDir)
		if err != nil {
			return nil, err
		}
		p, err := credentials.NewProfileProvider(ctx, store, cfg.Profile)
		if err != nil {
			return nil, err
		}
		p.Watch(ctx)
		providers = append(providers, p)
	}

	switch len(providers) {
	case 0:
		return nil, nil
	case 1:
		return providers[0], nil
	}
	return credentials.NewChain(providers,
		credentials.WithChainPolicy(credentials.ChainFailurePolicy(cfg.ChainPolicy)))
}

// New resolves the configuration, builds the credential provider it
// describes, and dials the first reachable address. A provider passed
// through WithCredentialProvider takes precedence over the configured
// sources.
func New(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	resolved, err := ResolveConfig(ctx, nil, cfg)
	if err != nil {
		return nil, err
	}

	provider, err := NewCredentialProvider(ctx, resolved.Credentials)
	if err != nil {
		return nil, err
	}
	if provider != nil {
		opts = append([]Option{WithCredentialProvider(provider)}, opts...)
	}

	return client.New(ctx, resolved, opts...)
}
