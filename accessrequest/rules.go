package accessrequest

import "strings"

// Rule is a predicate over an event's identity and traits. Rules are
// registered in priority order; the router dispatches to the first rule
// that matches.
type Rule interface {
	// Label names the rule in logs and ledger entries.
	Label() string

	// Matches reports whether the event satisfies the rule.
	Matches(event AccessRequest) bool
}

type traitRule struct {
	key   string
	value string
}

// TraitEquals matches events carrying the exact trait key/value pair.
func TraitEquals(key, value string) Rule {
	return traitRule{key: strings.TrimSpace(key), value: value}
}

func (r traitRule) Label() string { return "trait:" + r.key + "=" + r.value }

func (r traitRule) Matches(event AccessRequest) bool {
	if r.key == "" {
		return false
	}
	return event.Trait(r.key) == r.value
}

type requesterRule struct {
	requester string
}

// RequesterIs matches events from the named identity.
func RequesterIs(requester string) Rule {
	return requesterRule{requester: strings.TrimSpace(requester)}
}

func (r requesterRule) Label() string { return "requester:" + r.requester }

func (r requesterRule) Matches(event AccessRequest) bool {
	return r.requester != "" && event.Requester == r.requester
}

type stateRule struct {
	state State
}

// StateIs matches events in the given lifecycle state.
func StateIs(state State) Rule {
	return stateRule{state: state}
}

func (r stateRule) Label() string { return "state:" + string(r.state) }

func (r stateRule) Matches(event AccessRequest) bool {
	return event.State == r.state
}

type allRule struct {
	rules []Rule
}

// All matches when every member rule matches.
func All(rules ...Rule) Rule {
	return allRule{rules: rules}
}

func (r allRule) Label() string {
	labels := make([]string, 0, len(r.rules))
	for _, rule := range r.rules {
		labels = append(labels, rule.Label())
	}
	return "all(" + strings.Join(labels, ",") + ")"
}

func (r allRule) Matches(event AccessRequest) bool {
	for _, rule := range r.rules {
		if rule == nil || !rule.Matches(event) {
			return false
		}
	}
	return true
}

type anyRule struct {
	rules []Rule
}

// Any matches when at least one member rule matches.
func Any(rules ...Rule) Rule {
	return anyRule{rules: rules}
}

func (r anyRule) Label() string {
	labels := make([]string, 0, len(r.rules))
	for _, rule := range r.rules {
		labels = append(labels, rule.Label())
	}
	return "any(" + strings.Join(labels, ",") + ")"
}

func (r anyRule) Matches(event AccessRequest) bool {
	for _, rule := range r.rules {
		if rule != nil && rule.Matches(event) {
			return true
		}
	}
	return false
}

type catchAllRule struct{}

// CatchAll matches every event. Register it last.
func CatchAll() Rule { return catchAllRule{} }

func (catchAllRule) Label() string { return "catch-all" }

func (catchAllRule) Matches(AccessRequest) bool { return true }
