package accessrequest

import (
	"context"
	"fmt"
	"testing"

	"github.com/sageanya/teleport/core"
)

func pendingRequest(requester string, traits map[string]string) AccessRequest {
	return AccessRequest{
		ID:        "req-1",
		Requester: requester,
		Traits:    traits,
		State:     StatePending,
	}
}

func TestRouter_FirstMatchWins(t *testing.T) {
	router := NewRouter()

	var teamHandled, catchAllHandled int
	if err := router.Handle(TraitEquals("team", "myteam"), func(_ context.Context, event AccessRequest) (AccessRequest, error) {
		teamHandled++
		return event.WithState(StateApproved), nil
	}); err != nil {
		t.Fatalf("register team rule: %v", err)
	}
	if err := router.Handle(CatchAll(), func(_ context.Context, event AccessRequest) (AccessRequest, error) {
		catchAllHandled++
		return event, nil
	}); err != nil {
		t.Fatalf("register catch-all: %v", err)
	}

	decision, err := router.Dispatch(context.Background(), pendingRequest("alice", map[string]string{"team": "myteam"}))
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if teamHandled != 1 || catchAllHandled != 0 {
		t.Fatalf("expected the team rule to claim the event: team=%d catchall=%d", teamHandled, catchAllHandled)
	}
	if decision.Event.State != StateApproved {
		t.Fatalf("expected the handler's modified event, got state %q", decision.Event.State)
	}
	if decision.Outcome != core.DecisionApproved {
		t.Fatalf("expected approved outcome, got %q", decision.Outcome)
	}

	decision, err = router.Dispatch(context.Background(), pendingRequest("bob", map[string]string{"team": "otherteam"}))
	if err != nil {
		t.Fatalf("dispatch other team: %v", err)
	}
	if catchAllHandled != 1 {
		t.Fatalf("expected the catch-all to claim the non-matching event")
	}
	_ = decision
}

func TestRouter_UnmatchedEventsPassThrough(t *testing.T) {
	router := NewRouter()
	if err := router.Handle(TraitEquals("team", "myteam"), func(_ context.Context, event AccessRequest) (AccessRequest, error) {
		return event, nil
	}); err != nil {
		t.Fatalf("register rule: %v", err)
	}

	original := pendingRequest("carol", map[string]string{"team": "unrelated"})
	decision, err := router.Dispatch(context.Background(), original)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if decision.Outcome != core.DecisionPassthrough {
		t.Fatalf("expected passthrough outcome, got %q", decision.Outcome)
	}
	if decision.Event.State != original.State {
		t.Fatalf("passthrough must not modify the event")
	}
}

func TestRouter_DenialIsFirstClass(t *testing.T) {
	router := NewRouter()
	if err := router.Handle(CatchAll(), func(context.Context, AccessRequest) (AccessRequest, error) {
		return AccessRequest{}, Deny("contractors are not eligible")
	}); err != nil {
		t.Fatalf("register rule: %v", err)
	}

	decision, err := router.Dispatch(context.Background(), pendingRequest("mallory", nil))
	if err == nil {
		t.Fatalf("expected a denial error")
	}
	if !core.IsDenied(err) {
		t.Fatalf("denial must be recognizable as a denial, got %v", err)
	}
	if decision.Outcome != core.DecisionDenied {
		t.Fatalf("expected denied outcome, got %q", decision.Outcome)
	}
}

func TestRouter_HandlerFaultIsNotADenial(t *testing.T) {
	router := NewRouter()
	if err := router.Handle(CatchAll(), func(context.Context, AccessRequest) (AccessRequest, error) {
		return AccessRequest{}, fmt.Errorf("backend lookup exploded")
	}); err != nil {
		t.Fatalf("register rule: %v", err)
	}

	decision, err := router.Dispatch(context.Background(), pendingRequest("dave", nil))
	if err == nil {
		t.Fatalf("expected a fault")
	}
	if core.IsDenied(err) {
		t.Fatalf("execution fault must not be coerced into a denial")
	}
	if decision.Outcome != core.DecisionFault {
		t.Fatalf("expected fault outcome, got %q", decision.Outcome)
	}
}

func TestRouter_RejectsNilRegistrations(t *testing.T) {
	router := NewRouter()
	if err := router.Handle(nil, func(_ context.Context, event AccessRequest) (AccessRequest, error) {
		return event, nil
	}); err == nil {
		t.Fatalf("expected nil rule to be rejected")
	}
	if err := router.Handle(CatchAll(), nil); err == nil {
		t.Fatalf("expected nil handler to be rejected")
	}
}

func TestRules_Predicates(t *testing.T) {
	event := pendingRequest("alice", map[string]string{"team": "myteam", "env": "prod"})

	if !TraitEquals("team", "myteam").Matches(event) {
		t.Fatalf("trait rule must match")
	}
	if TraitEquals("team", "other").Matches(event) {
		t.Fatalf("trait rule must not match a different value")
	}
	if !RequesterIs("alice").Matches(event) {
		t.Fatalf("requester rule must match")
	}
	if !StateIs(StatePending).Matches(event) {
		t.Fatalf("state rule must match")
	}
	if !All(TraitEquals("team", "myteam"), StateIs(StatePending)).Matches(event) {
		t.Fatalf("all rule must match when every member matches")
	}
	if All(TraitEquals("team", "myteam"), StateIs(StateDenied)).Matches(event) {
		t.Fatalf("all rule must fail when a member fails")
	}
	if !Any(TraitEquals("team", "other"), RequesterIs("alice")).Matches(event) {
		t.Fatalf("any rule must match when a member matches")
	}
}

func TestFilter_Matches(t *testing.T) {
	event := pendingRequest("alice", map[string]string{"team": "myteam"})

	if !(Filter{}).Matches(event) {
		t.Fatalf("zero filter must match everything")
	}
	if !(Filter{State: StatePending, Traits: map[string]string{"team": "myteam"}}).Matches(event) {
		t.Fatalf("matching filter rejected")
	}
	if (Filter{State: StateApproved}).Matches(event) {
		t.Fatalf("state mismatch must not match")
	}
	if (Filter{Traits: map[string]string{"team": "other"}}).Matches(event) {
		t.Fatalf("trait mismatch must not match")
	}
}
