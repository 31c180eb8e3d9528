package accessrequest

import (
	"context"
	"fmt"
	"sync"

	"github.com/sageanya/teleport/core"
)

// Handler processes one matched event. It returns the (possibly
// modified) request, or an error. A denial built with Deny is a
// first-class outcome; any other error is an execution fault.
type Handler func(ctx context.Context, event AccessRequest) (AccessRequest, error)

// Deny produces the denial outcome a handler returns to reject a
// request. Callers distinguish it from faults with core.IsDenied.
func Deny(reason string) error {
	return core.NewAccessDeniedError(reason)
}

type route struct {
	rule    Rule
	handler Handler
}

// Router dispatches events to the first registered rule that matches.
// Registration order is the priority order. Events no rule matches pass
// through unmodified.
//
// Dispatch is safe for concurrent use; Handle is not safe concurrently
// with Dispatch.
type Router struct {
	mu     sync.RWMutex
	routes []route
}

func NewRouter() *Router {
	return &Router{}
}

// Handle appends a (rule, handler) pair. Nil rules or handlers are
// rejected.
func (r *Router) Handle(rule Rule, handler Handler) error {
	if r == nil {
		return fmt.Errorf("accessrequest: router is nil")
	}
	if rule == nil {
		return fmt.Errorf("accessrequest: rule is required")
	}
	if handler == nil {
		return fmt.Errorf("accessrequest: handler is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route{rule: rule, handler: handler})
	return nil
}

// Dispatch routes one event. The returned Decision records which rule
// (if any) claimed the event and what the handler decided. Handler
// errors, denials included, are returned alongside the decision.
func (r *Router) Dispatch(ctx context.Context, event AccessRequest) (Decision, error) {
	if r == nil {
		return Decision{}, fmt.Errorf("accessrequest: router is nil")
	}
	r.mu.RLock()
	routes := r.routes
	r.mu.RUnlock()

	for _, candidate := range routes {
		if !candidate.rule.Matches(event) {
			continue
		}
		processed, err := candidate.handler(ctx, event)
		decision := Decision{
			Event:     processed,
			RuleLabel: candidate.rule.Label(),
			Outcome:   core.DecisionApproved,
		}
		if err != nil {
			decision.Event = event
			decision.Outcome = core.DecisionFault
			decision.Reason = err.Error()
			if core.IsDenied(err) {
				decision.Outcome = core.DecisionDenied
			}
			return decision, err
		}
		return decision, nil
	}

	return Decision{
		Event:   event,
		Outcome: core.DecisionPassthrough,
	}, nil
}

// Decision is the routed outcome for one event.
type Decision struct {
	Event     AccessRequest
	RuleLabel string
	Outcome   core.DecisionOutcome
	Reason    string
}
