package credentials

import (
	"context"
	"strings"
	"time"

	"github.com/sageanya/teleport/core"
)

const DefaultSweepLeadWindow = 5 * time.Minute

// rotatable is satisfied by providers that can poll their backing store
// on demand (PathProvider, ProfileProvider via its inner path provider).
type rotatable interface {
	CheckForRotation() (bool, error)
}

// Sweeper periodically evaluates credential freshness and enqueues a
// refresh job when material is missing, expired, or inside the lead
// window. It drives go-job workers through the core job contracts.
type Sweeper struct {
	Provider   core.CredentialProvider
	Enqueuer   core.JobEnqueuer
	Observer   core.Observer
	JobID      string
	LeadWindow time.Duration
	Now        func() time.Time
}

// SweepOnce performs a single freshness evaluation. It returns true when
// a refresh job was enqueued.
func (s Sweeper) SweepOnce(ctx context.Context) (bool, error) {
	startedAt := time.Now()
	if s.Provider == nil {
		return false, core.NewCredentialUnavailableError(nil, "sweeper")
	}
	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}
	lead := s.LeadWindow
	if lead <= 0 {
		lead = DefaultSweepLeadWindow
	}

	if r, ok := s.Provider.(rotatable); ok {
		_, _ = r.CheckForRotation()
	}

	credential, err := s.Provider.Credential(ctx)
	if err != nil {
		s.Observer.Observe(ctx, startedAt, "credential_sweep", err, map[string]any{
			"provider": s.Provider.Name(),
		})
		return false, err
	}

	state := core.ResolveCredentialState(now, credential, lead)
	if !core.ShouldReloadCredential(now, state, lead) {
		s.Observer.Observe(ctx, startedAt, "credential_sweep", nil, map[string]any{
			"provider": s.Provider.Name(),
			"enqueued": false,
		})
		return false, nil
	}

	if s.Enqueuer == nil {
		s.Observer.Observe(ctx, startedAt, "credential_sweep", nil, map[string]any{
			"provider": s.Provider.Name(),
			"enqueued": false,
			"stale":    true,
		})
		return false, nil
	}

	jobID := strings.TrimSpace(s.JobID)
	if jobID == "" {
		jobID = "client.credentials.refresh"
	}
	message := &core.JobExecutionMessage{
		JobID:          jobID,
		IdempotencyKey: jobID + "::" + s.Provider.Name(),
		Parameters: map[string]any{
			"provider": s.Provider.Name(),
			"expired":  state.IsExpired,
		},
	}
	if err := s.Enqueuer.Enqueue(ctx, message); err != nil {
		s.Observer.Observe(ctx, startedAt, "credential_sweep", err, map[string]any{
			"provider": s.Provider.Name(),
		})
		return false, err
	}
	s.Observer.Observe(ctx, startedAt, "credential_sweep", nil, map[string]any{
		"provider": s.Provider.Name(),
		"enqueued": true,
	})
	return true, nil
}

// Run sweeps on the given interval until ctx is cancelled.
func (s Sweeper) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			_, _ = s.SweepOnce(ctx)
		}
	}
}
