package credentials

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sageanya/teleport/core"
)

const DefaultWatchInterval = 5 * time.Second

// PathConfig points a provider at on-disk PEM material. CAPath may be
// empty to trust the system roots.
type PathConfig struct {
	CertPath      string
	KeyPath       string
	CAPath        string
	WatchInterval time.Duration
}

// ReloadDiagnostic reports the outcome of one rotation attempt.
type ReloadDiagnostic struct {
	OccurredAt time.Time
	CertPath   string
	Outcome    string
	Error      string
}

// ReloadDiagnosticHook observes rotation attempts, including the failed
// ones that keep the previous material active.
type ReloadDiagnosticHook func(event ReloadDiagnostic)

type PathOption func(*PathProvider)

func WithReloadDiagnostics(hook ReloadDiagnosticHook) PathOption {
	return func(p *PathProvider) {
		if p == nil {
			return
		}
		p.diagnosticHook = hook
	}
}

func WithPathClock(now func() time.Time) PathOption {
	return func(p *PathProvider) {
		if p == nil {
			return
		}
		p.now = now
	}
}

type fileFingerprint struct {
	modTime time.Time
	size    int64
}

// PathProvider serves trust material from the filesystem and watches it
// for external rotation. Rotation swaps the held credential atomically;
// an established client session observes the new material through the
// provider without reconnecting. Malformed rotated material is reported
// through the diagnostics hook and the previous material stays active.
type PathProvider struct {
	config         PathConfig
	diagnosticHook ReloadDiagnosticHook
	now            func() time.Time

	mu          sync.RWMutex
	credential  core.Credential
	fingerprint map[string]fileFingerprint

	reloaded  chan struct{}
	watchOnce sync.Once
}

// NewPathProvider loads the initial material eagerly so construction
// fails fast on unreadable or malformed paths.
func NewPathProvider(cfg PathConfig, opts ...PathOption) (*PathProvider, error) {
	cfg.CertPath = strings.TrimSpace(cfg.CertPath)
	cfg.KeyPath = strings.TrimSpace(cfg.KeyPath)
	cfg.CAPath = strings.TrimSpace(cfg.CAPath)
	if cfg.CertPath == "" || cfg.KeyPath == "" {
		return nil, core.NewCredentialUnavailableError(
			fmt.Errorf("credentials: certificate and key paths are required"), "path")
	}
	if cfg.WatchInterval <= 0 {
		cfg.WatchInterval = DefaultWatchInterval
	}

	provider := &PathProvider{
		config:   cfg,
		now:      func() time.Time { return time.Now().UTC() },
		reloaded: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(provider)
	}
	if provider.now == nil {
		provider.now = func() time.Time { return time.Now().UTC() }
	}

	credential, fingerprint, err := provider.load()
	if err != nil {
		return nil, core.NewCredentialUnavailableError(err, "path")
	}
	provider.credential = credential
	provider.fingerprint = fingerprint
	return provider, nil
}

func (p *PathProvider) Name() string { return "path" }

func (p *PathProvider) Credential(context.Context) (core.Credential, error) {
	if p == nil {
		return core.Credential{}, core.NewCredentialUnavailableError(nil, "path")
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.credential, nil
}

func (p *PathProvider) Reloaded() <-chan struct{} {
	if p == nil {
		return nil
	}
	return p.reloaded
}

// Watch polls the configured paths until ctx is cancelled. It is safe to
// call once; further calls are no-ops.
func (p *PathProvider) Watch(ctx context.Context) {
	if p == nil || ctx == nil {
		return
	}
	p.watchOnce.Do(func() {
		go p.watchLoop(ctx)
	})
}

// CheckForRotation performs a single poll step. The watch loop calls it
// on every tick; tests and freshness sweeps call it directly.
func (p *PathProvider) CheckForRotation() (bool, error) {
	if p == nil {
		return false, core.NewCredentialUnavailableError(nil, "path")
	}
	current, err := p.stat()
	if err != nil {
		p.emit("stat_failed", err)
		return false, err
	}

	p.mu.RLock()
	previous := p.fingerprint
	p.mu.RUnlock()
	if fingerprintsEqual(previous, current) {
		return false, nil
	}

	credential, fingerprint, err := p.load()
	if err != nil {
		// Rotated material did not parse. Keep serving the previous
		// credential so the active session is unaffected.
		p.emit("reload_failed", err)
		return false, core.NewCredentialUnavailableError(err, "path")
	}

	p.mu.Lock()
	p.credential = credential
	p.fingerprint = fingerprint
	p.mu.Unlock()

	p.emit("reloaded", nil)
	p.notify()
	return true, nil
}

func (p *PathProvider) watchLoop(ctx context.Context) {
	ticker := time.NewTicker(p.config.WatchInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = p.CheckForRotation()
		}
	}
}

func (p *PathProvider) load() (core.Credential, map[string]fileFingerprint, error) {
	certPEM, err := os.ReadFile(p.config.CertPath)
	if err != nil {
		return core.Credential{}, nil, fmt.Errorf("credentials: read certificate: %w", err)
	}
	keyPEM, err := os.ReadFile(p.config.KeyPath)
	if err != nil {
		return core.Credential{}, nil, fmt.Errorf("credentials: read key: %w", err)
	}
	var caPEM []byte
	if p.config.CAPath != "" {
		caPEM, err = os.ReadFile(p.config.CAPath)
		if err != nil {
			return core.Credential{}, nil, fmt.Errorf("credentials: read trust material: %w", err)
		}
	}

	certificate, expiry, err := parseKeyPair(certPEM, keyPEM)
	if err != nil {
		return core.Credential{}, nil, err
	}
	pool, err := parsePool(caPEM)
	if err != nil {
		return core.Credential{}, nil, err
	}

	fingerprint, err := p.stat()
	if err != nil {
		return core.Credential{}, nil, err
	}
	return core.Credential{
		Certificate: certificate,
		RootCAs:     pool,
		Expiry:      expiry,
		Source:      "path",
	}, fingerprint, nil
}

func (p *PathProvider) stat() (map[string]fileFingerprint, error) {
	paths := []string{p.config.CertPath, p.config.KeyPath}
	if p.config.CAPath != "" {
		paths = append(paths, p.config.CAPath)
	}
	out := make(map[string]fileFingerprint, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("credentials: stat %s: %w", path, err)
		}
		out[path] = fileFingerprint{modTime: info.ModTime(), size: info.Size()}
	}
	return out, nil
}

func (p *PathProvider) notify() {
	select {
	case p.reloaded <- struct{}{}:
	default:
	}
}

func (p *PathProvider) emit(outcome string, err error) {
	if p.diagnosticHook == nil {
		return
	}
	now := p.now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	p.diagnosticHook(ReloadDiagnostic{
		OccurredAt: now().UTC(),
		CertPath:   p.config.CertPath,
		Outcome:    outcome,
		Error:      msg,
	})
}

func fingerprintsEqual(a, b map[string]fileFingerprint) bool {
	if len(a) != len(b) {
		return false
	}
	for path, fp := range a {
		other, ok := b[path]
		if !ok || !fp.modTime.Equal(other.modTime) || fp.size != other.size {
			return false
		}
	}
	return true
}

var _ core.CredentialProvider = (*PathProvider)(nil)
