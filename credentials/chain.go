package credentials

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sageanya/teleport/core"
)

// ChainFailurePolicy controls whether the chain may consult providers
// past the primary.
type ChainFailurePolicy string

const (
	ChainPolicyStrict   ChainFailurePolicy = "strict_fail"
	ChainPolicyFallback ChainFailurePolicy = "fallback_allowed"
)

// ChainDiagnostic reports one provider consultation during a chain call.
type ChainDiagnostic struct {
	OccurredAt time.Time
	Policy     ChainFailurePolicy
	Provider   string
	Outcome    string
	Error      string
}

type ChainDiagnosticHook func(event ChainDiagnostic)

type ChainOption func(*ChainProvider)

func WithChainPolicy(policy ChainFailurePolicy) ChainOption {
	return func(c *ChainProvider) {
		if c == nil {
			return
		}
		c.policy = normalizeChainPolicy(policy)
	}
}

func WithChainDiagnostics(hook ChainDiagnosticHook) ChainOption {
	return func(c *ChainProvider) {
		if c == nil {
			return
		}
		c.diagnosticHook = hook
	}
}

func WithChainClock(now func() time.Time) ChainOption {
	return func(c *ChainProvider) {
		if c == nil {
			return
		}
		c.now = now
	}
}

// ChainProvider combines ordered providers under an explicit policy.
// Chaining is ordered fallback: under fallback_allowed the chain walks
// the list from the last provider that succeeded, settling on the first
// success; under strict_fail only the primary is ever consulted. The
// chain never merges material from multiple providers.
type ChainProvider struct {
	providers      []core.CredentialProvider
	policy         ChainFailurePolicy
	diagnosticHook ChainDiagnosticHook
	now            func() time.Time

	mu     sync.RWMutex
	sticky int

	reloaded  chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewChain requires at least one provider. Reload signals from every
// member are merged into the chain's own Reloaded channel.
func NewChain(providers []core.CredentialProvider, opts ...ChainOption) (*ChainProvider, error) {
	filtered := make([]core.CredentialProvider, 0, len(providers))
	for _, provider := range providers {
		if provider == nil {
			continue
		}
		filtered = append(filtered, provider)
	}
	if len(filtered) == 0 {
		return nil, core.NewCredentialUnavailableError(
			fmt.Errorf("credentials: at least one provider is required"), "chain")
	}

	chain := &ChainProvider{
		providers: filtered,
		policy:    ChainPolicyStrict,
		now:       func() time.Time { return time.Now().UTC() },
		reloaded:  make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(chain)
	}
	chain.policy = normalizeChainPolicy(chain.policy)
	if chain.now == nil {
		chain.now = func() time.Time { return time.Now().UTC() }
	}

	for _, provider := range chain.providers {
		signal := provider.Reloaded()
		if signal == nil {
			continue
		}
		go chain.forwardReloads(signal)
	}
	return chain, nil
}

func (c *ChainProvider) Name() string { return "chain" }

func (c *ChainProvider) Credential(ctx context.Context) (core.Credential, error) {
	if c == nil {
		return core.Credential{}, core.NewCredentialUnavailableError(nil, "chain")
	}

	if c.policy == ChainPolicyStrict {
		primary := c.providers[0]
		credential, err := primary.Credential(ctx)
		if err != nil {
			c.emit(primary.Name(), "failed", err)
			return core.Credential{}, core.NewCredentialUnavailableError(
				fmt.Errorf("credentials: primary provider %s failed with %s policy: %w", primary.Name(), c.policy, err), "chain")
		}
		c.emit(primary.Name(), "succeeded", nil)
		return credential, nil
	}

	c.mu.RLock()
	start := c.sticky
	c.mu.RUnlock()
	if start < 0 || start >= len(c.providers) {
		start = 0
	}

	var failures []string
	for offset := 0; offset < len(c.providers); offset++ {
		index := start + offset
		if index >= len(c.providers) {
			break
		}
		provider := c.providers[index]
		credential, err := provider.Credential(ctx)
		if err != nil {
			c.emit(provider.Name(), "failed", err)
			failures = append(failures, fmt.Sprintf("%s: %v", provider.Name(), err))
			continue
		}
		c.emit(provider.Name(), "succeeded", nil)
		c.mu.Lock()
		c.sticky = index
		c.mu.Unlock()
		return credential, nil
	}

	return core.Credential{}, core.NewCredentialUnavailableError(
		fmt.Errorf("credentials: all chained providers failed: %s", strings.Join(failures, "; ")), "chain")
}

func (c *ChainProvider) Reloaded() <-chan struct{} {
	if c == nil {
		return nil
	}
	return c.reloaded
}

// Close stops the reload forwarders. Closing twice is harmless.
func (c *ChainProvider) Close() error {
	if c == nil {
		return nil
	}
	c.closeOnce.Do(func() {
		close(c.done)
	})
	return nil
}

// Providers returns the chain members in consultation order.
func (c *ChainProvider) Providers() []core.CredentialProvider {
	if c == nil {
		return nil
	}
	return append([]core.CredentialProvider(nil), c.providers...)
}

func (c *ChainProvider) forwardReloads(signal <-chan struct{}) {
	for {
		select {
		case <-c.done:
			return
		case _, ok := <-signal:
			if !ok {
				return
			}
			select {
			case c.reloaded <- struct{}{}:
			default:
			}
		}
	}
}

func (c *ChainProvider) emit(provider string, outcome string, err error) {
	if c.diagnosticHook == nil {
		return
	}
	now := c.now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	c.diagnosticHook(ChainDiagnostic{
		OccurredAt: now().UTC(),
		Policy:     c.policy,
		Provider:   provider,
		Outcome:    outcome,
		Error:      msg,
	})
}

func normalizeChainPolicy(policy ChainFailurePolicy) ChainFailurePolicy {
	normalized := ChainFailurePolicy(strings.ToLower(strings.TrimSpace(string(policy))))
	switch normalized {
	case ChainPolicyFallback:
		return ChainPolicyFallback
	default:
		return ChainPolicyStrict
	}
}

var _ core.CredentialProvider = (*ChainProvider)(nil)
