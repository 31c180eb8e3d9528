package core

import (
	"fmt"
	"strings"
	"time"
)

// CredentialsConfig selects and parameterizes the credential sources the
// facade assembles into a chain. Paths and profile settings may both be
// present; chain order is static material first, then watched paths, then
// profile lookup.
type CredentialsConfig struct {
	CertFile      string        `koanf:"cert_file" mapstructure:"cert_file"`
	KeyFile       string        `koanf:"key_file" mapstructure:"key_file"`
	CAFile        string        `koanf:"ca_file" mapstructure:"ca_file"`
	ProfileDir    string        `koanf:"profile_dir" mapstructure:"profile_dir"`
	Profile       string        `koanf:"profile" mapstructure:"profile"`
	WatchInterval time.Duration `koanf:"watch_interval" mapstructure:"watch_interval"`
	ChainPolicy   string        `koanf:"chain_policy" mapstructure:"chain_policy"`
}

type Config struct {
	ClientName  string            `koanf:"client_name" mapstructure:"client_name"`
	Addrs       []string          `koanf:"addrs" mapstructure:"addrs"`
	ServerName  string            `koanf:"server_name" mapstructure:"server_name"`
	DialTimeout time.Duration     `koanf:"dial_timeout" mapstructure:"dial_timeout"`
	Credentials CredentialsConfig `koanf:"credentials" mapstructure:"credentials"`
}

func DefaultConfig() Config {
	return Config{
		ClientName:  "teleport-client",
		DialTimeout: 30 * time.Second,
		Credentials: CredentialsConfig{
			WatchInterval: 5 * time.Second,
			ChainPolicy:   "strict_fail",
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ClientName) == "" {
		return fmt.Errorf("core: client_name is required")
	}
	if c.DialTimeout < 0 {
		return fmt.Errorf("core: dial_timeout must not be negative")
	}
	for _, addr := range c.Addrs {
		if strings.TrimSpace(addr) == "" {
			return fmt.Errorf("core: addrs must not contain empty entries")
		}
	}
	switch strings.ToLower(strings.TrimSpace(c.Credentials.ChainPolicy)) {
	case "", "strict_fail", "fallback_allowed":
	default:
		return fmt.Errorf("core: credentials.chain_policy %q is invalid", c.Credentials.ChainPolicy)
	}
	return nil
}
