package credentials

import (
	"context"
	"strings"

	"github.com/sageanya/teleport/core"
)

// StaticProvider serves fixed in-memory trust material. It never reloads.
type StaticProvider struct {
	name       string
	credential core.Credential
}

// NewStaticProvider parses PEM material once at construction. caPEM may
// be empty to trust the system roots.
func NewStaticProvider(certPEM, keyPEM, caPEM []byte) (*StaticProvider, error) {
	certificate, expiry, err := parseKeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, core.NewCredentialUnavailableError(err, "static")
	}
	pool, err := parsePool(caPEM)
	if err != nil {
		return nil, core.NewCredentialUnavailableError(err, "static")
	}
	return &StaticProvider{
		name: "static",
		credential: core.Credential{
			Certificate: certificate,
			RootCAs:     pool,
			Expiry:      expiry,
			Source:      "static",
		},
	}, nil
}

// NewStaticProviderFromCredential wraps an already-assembled credential,
// useful when material comes from a secret manager rather than PEM bytes.
func NewStaticProviderFromCredential(name string, credential core.Credential) *StaticProvider {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "static"
	}
	credential.Source = name
	return &StaticProvider{name: name, credential: credential}
}

func (p *StaticProvider) Name() string {
	if p == nil {
		return "static"
	}
	return p.name
}

func (p *StaticProvider) Credential(context.Context) (core.Credential, error) {
	if p == nil {
		return core.Credential{}, core.NewCredentialUnavailableError(nil, "static")
	}
	return p.credential, nil
}

func (p *StaticProvider) Reloaded() <-chan struct{} { return nil }

var _ core.CredentialProvider = (*StaticProvider)(nil)
