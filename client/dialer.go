package client

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/sageanya/teleport/core"
)

// DialPolicy controls which candidate address to dial next and learns
// from attempt outcomes.
//
// Multiple goroutines may invoke methods on a DialPolicy simultaneously.
type DialPolicy interface {
	// ChooseNextAddr picks an address from the candidates. When the
	// policy decides none are feasible, it returns an error and the
	// retry loop halts.
	ChooseNextAddr(candidates []string) (string, error)

	// DialFailed informs the policy that an attempt failed.
	DialFailed(addr string, symptom error)

	// DialSucceeded informs the policy that an attempt succeeded.
	DialSucceeded(addr string)
}

// SequentialPolicy walks the candidate list in order, skipping addresses
// that already failed during the current dial operation.
type SequentialPolicy struct {
	mu     sync.Mutex
	failed map[string]struct{}
}

func NewSequentialPolicy() *SequentialPolicy {
	return &SequentialPolicy{failed: map[string]struct{}{}}
}

func (p *SequentialPolicy) ChooseNextAddr(candidates []string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, addr := range candidates {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		if _, tried := p.failed[addr]; tried {
			continue
		}
		return addr, nil
	}
	return "", fmt.Errorf("client: no remaining candidate addresses")
}

func (p *SequentialPolicy) DialFailed(addr string, _ error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed[addr] = struct{}{}
}

func (p *SequentialPolicy) DialSucceeded(string) {}

// RetryDialer dials candidate addresses as selected by its policy,
// informing the policy of failures and moving on until a connection is
// established, the policy gives up, or the shared timeout expires.
//
// Multiple goroutines may invoke DialFirstAvailable simultaneously as
// long as the policy tolerates it.
type RetryDialer struct {
	Logger  core.Logger
	Timeout time.Duration
	Policy  DialPolicy
	Inner   core.ContextDialer
}

// DialFirstAvailable returns the established connection and the address
// that served it.
func (d *RetryDialer) DialFirstAvailable(ctx context.Context, candidates []string) (net.Conn, string, error) {
	if len(candidates) == 0 {
		return nil, "", core.NewConnectionError(fmt.Errorf("client: no candidate addresses"), "")
	}
	policy := d.Policy
	if policy == nil {
		policy = NewSequentialPolicy()
	}
	inner := d.Inner
	if inner == nil {
		inner = core.ContextDialerFunc((&net.Dialer{}).DialContext)
	}
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var lastErr error
	for {
		addr, err := policy.ChooseNextAddr(candidates)
		if err != nil {
			if lastErr != nil {
				return nil, "", core.NewConnectionError(lastErr, "")
			}
			return nil, "", core.NewConnectionError(err, "")
		}
		conn, err := inner.DialContext(dialCtx, "tcp", addr)
		if err != nil {
			if dialCtxErr := dialCtx.Err(); dialCtxErr != nil {
				d.logAttempt("dial timed out", addr)
				return nil, "", core.NewConnectionError(dialCtxErr, addr)
			}
			d.logAttempt("dial failed", addr)
			policy.DialFailed(addr, err)
			lastErr = err
			continue
		}
		policy.DialSucceeded(addr)
		return conn, addr, nil
	}
}

func (d *RetryDialer) logAttempt(message string, addr string) {
	if d.Logger == nil {
		return
	}
	d.Logger.Info(message, "addr", addr)
}
