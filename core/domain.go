package core

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"strings"
	"time"
)

// Credential is the trust material backing an authenticated transport
// session: a client identity keypair plus the roots used to verify the
// remote side. Exactly one provider produces a given Credential.
type Credential struct {
	// Certificate is the client identity presented during the TLS
	// handshake. A zero Certificate means no identity is available.
	Certificate tls.Certificate

	// RootCAs verifies the remote endpoint. Nil falls back to the
	// system pool.
	RootCAs *x509.CertPool

	// Expiry is the leaf certificate's NotAfter when known, zero
	// otherwise.
	Expiry time.Time

	// Source labels the provider that produced this credential.
	Source string
}

// HasIdentity reports whether the credential carries a client keypair.
func (c Credential) HasIdentity() bool {
	return len(c.Certificate.Certificate) > 0
}

// TLSConfig builds a static TLS client config from the credential. Callers
// that need rotation-transparent material should prefer the config built by
// the client, which indirects certificate lookup through the provider.
func (c Credential) TLSConfig(serverName string) *tls.Config {
	cfg := &tls.Config{
		RootCAs:    c.RootCAs,
		ServerName: strings.TrimSpace(serverName),
		MinVersion: tls.VersionTLS12,
	}
	if c.HasIdentity() {
		cfg.Certificates = []tls.Certificate{c.Certificate}
	}
	return cfg
}

// PingResponse is the typed result of the remote liveness/version call.
type PingResponse struct {
	ServerVersion string `json:"server_version"`
	ClusterName   string `json:"cluster_name"`
	ServerID      string `json:"server_id"`
}

// Profile is a local, pre-authenticated bundle produced by an external
// login step. It references credential material on disk; it never embeds
// the material itself.
type Profile struct {
	Name       string    `json:"name" koanf:"name" mapstructure:"name"`
	ProxyAddr  string    `json:"proxy_addr" koanf:"proxy_addr" mapstructure:"proxy_addr"`
	User       string    `json:"user" koanf:"user" mapstructure:"user"`
	Cluster    string    `json:"cluster" koanf:"cluster" mapstructure:"cluster"`
	CertPath   string    `json:"cert_path" koanf:"cert_path" mapstructure:"cert_path"`
	KeyPath    string    `json:"key_path" koanf:"key_path" mapstructure:"key_path"`
	CAPath     string    `json:"ca_path" koanf:"ca_path" mapstructure:"ca_path"`
	ValidUntil time.Time `json:"valid_until" koanf:"valid_until" mapstructure:"valid_until"`
	UpdatedAt  time.Time `json:"updated_at" koanf:"updated_at" mapstructure:"updated_at"`
}

// Validate checks the fields a profile cannot function without.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("core: profile name is required")
	}
	if strings.TrimSpace(p.ProxyAddr) == "" {
		return fmt.Errorf("core: profile proxy address is required")
	}
	if strings.TrimSpace(p.CertPath) == "" || strings.TrimSpace(p.KeyPath) == "" {
		return fmt.Errorf("core: profile certificate and key paths are required")
	}
	return nil
}

// Expired reports whether the profile's trust material is past its
// recorded validity.
func (p Profile) Expired(now time.Time) bool {
	if p.ValidUntil.IsZero() {
		return false
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	return !p.ValidUntil.After(now.UTC())
}

// DecisionOutcome classifies what the router did with an access request.
type DecisionOutcome string

const (
	DecisionApproved    DecisionOutcome = "approved"
	DecisionDenied      DecisionOutcome = "denied"
	DecisionPassthrough DecisionOutcome = "passthrough"
	DecisionFault       DecisionOutcome = "fault"
)

// AccessDecisionRecord is the audit entry appended to the event ledger for
// every routed access request.
type AccessDecisionRecord struct {
	ID         string
	RequestID  string
	Requester  string
	RuleLabel  string
	Outcome    DecisionOutcome
	Reason     string
	Traits     map[string]string
	OccurredAt time.Time
}
