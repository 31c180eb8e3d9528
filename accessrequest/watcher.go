package accessrequest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sageanya/teleport/core"
)

// EventStream is the subscription surface the watcher drains. The
// client's watch stream implements it.
type EventStream interface {
	// Events yields access-request events until the stream ends.
	Events() <-chan AccessRequest

	// Done is closed when the stream terminates for any reason.
	Done() <-chan struct{}

	// Err reports why the stream terminated. It is valid after Done is
	// closed; a nil error means the subscription ended cleanly.
	Err() error
}

// Watcher drains an event stream into serialized router dispatch.
// Handler execution is serialized per stream so first-match-wins stays
// deterministic across concurrent events. Handler errors, denials
// included, terminate Run and surface to the caller; restarting is the
// caller's loop.
type Watcher struct {
	Router   *Router
	Ledger   core.AccessEventStore
	Observer core.Observer
	Now      func() time.Time
}

// Run dispatches events until the stream ends, the context is
// cancelled, or a handler returns an error.
func (w *Watcher) Run(ctx context.Context, stream EventStream) error {
	if w == nil || w.Router == nil {
		return fmt.Errorf("accessrequest: watcher requires a router")
	}
	if stream == nil {
		return fmt.Errorf("accessrequest: event stream is required")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stream.Done():
			return stream.Err()
		case event, ok := <-stream.Events():
			if !ok {
				select {
				case <-stream.Done():
					return stream.Err()
				default:
					return nil
				}
			}
			if err := w.dispatch(ctx, event); err != nil {
				return err
			}
		}
	}
}

func (w *Watcher) dispatch(ctx context.Context, event AccessRequest) error {
	startedAt := time.Now()
	decision, err := w.Router.Dispatch(ctx, event)
	w.record(ctx, event, decision)
	w.Observer.Observe(ctx, startedAt, "access_request_dispatch", err, map[string]any{
		"requester": event.Requester,
		"rule":      decision.RuleLabel,
		"outcome":   string(decision.Outcome),
	})
	return err
}

func (w *Watcher) record(ctx context.Context, event AccessRequest, decision Decision) {
	if w.Ledger == nil {
		return
	}
	now := time.Now().UTC()
	if w.Now != nil {
		now = w.Now().UTC()
	}
	record := core.AccessDecisionRecord{
		ID:         uuid.NewString(),
		RequestID:  event.ID,
		Requester:  event.Requester,
		RuleLabel:  decision.RuleLabel,
		Outcome:    decision.Outcome,
		Reason:     decision.Reason,
		Traits:     cloneTraits(event.Traits),
		OccurredAt: now,
	}
	if _, err := w.Ledger.Append(ctx, record); err != nil {
		// Ledger trouble must not alter routing outcomes.
		w.Observer.Observe(ctx, time.Now(), "access_event_append", err, map[string]any{
			"requester": event.Requester,
		})
	}
}

func cloneTraits(traits map[string]string) map[string]string {
	if len(traits) == 0 {
		return nil
	}
	out := make(map[string]string, len(traits))
	for key, value := range traits {
		out[key] = value
	}
	return out
}
