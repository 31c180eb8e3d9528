package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-config/cfgx"
	opts "github.com/goliatone/go-options"
)

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

// NewStaticRawConfigLoader serves a fixed raw map, useful for embedding
// configuration or for tests.
func NewStaticRawConfigLoader(values map[string]any) RawConfigLoader {
	return staticRawConfigLoader{Values: values}
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.ClientName) != "" {
		layer["client_name"] = cfg.ClientName
	}
	if includeZero || len(cfg.Addrs) > 0 {
		layer["addrs"] = append([]string(nil), cfg.Addrs...)
	}
	if includeZero || strings.TrimSpace(cfg.ServerName) != "" {
		layer["server_name"] = cfg.ServerName
	}
	if includeZero || cfg.DialTimeout > 0 {
		layer["dial_timeout"] = cfg.DialTimeout
	}

	credentials := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.Credentials.CertFile) != "" {
		credentials["cert_file"] = cfg.Credentials.CertFile
	}
	if includeZero || strings.TrimSpace(cfg.Credentials.KeyFile) != "" {
		credentials["key_file"] = cfg.Credentials.KeyFile
	}
	if includeZero || strings.TrimSpace(cfg.Credentials.CAFile) != "" {
		credentials["ca_file"] = cfg.Credentials.CAFile
	}
	if includeZero || strings.TrimSpace(cfg.Credentials.ProfileDir) != "" {
		credentials["profile_dir"] = cfg.Credentials.ProfileDir
	}
	if includeZero || strings.TrimSpace(cfg.Credentials.Profile) != "" {
		credentials["profile"] = cfg.Credentials.Profile
	}
	if includeZero || cfg.Credentials.WatchInterval > 0 {
		credentials["watch_interval"] = cfg.Credentials.WatchInterval
	}
	if includeZero || strings.TrimSpace(cfg.Credentials.ChainPolicy) != "" {
		credentials["chain_policy"] = cfg.Credentials.ChainPolicy
	}
	if len(credentials) > 0 {
		layer["credentials"] = credentials
	}
	return layer
}
