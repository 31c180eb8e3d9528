package accessrequest

import (
	"strings"
	"time"
)

// State tracks where a request sits in its approval lifecycle.
type State string

const (
	StatePending  State = "pending"
	StateApproved State = "approved"
	StateDenied   State = "denied"
)

// AccessRequest is a pending request for elevated access, carrying the
// requesting identity and its attribute traits.
type AccessRequest struct {
	ID        string            `json:"id"`
	Requester string            `json:"requester"`
	Roles     []string          `json:"roles,omitempty"`
	Traits    map[string]string `json:"traits,omitempty"`
	State     State             `json:"state"`
	Reason    string            `json:"reason,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Trait returns the trait value for key, empty when absent.
func (r AccessRequest) Trait(key string) string {
	if len(r.Traits) == 0 {
		return ""
	}
	return r.Traits[strings.TrimSpace(key)]
}

// WithState returns a copy in the given state.
func (r AccessRequest) WithState(state State) AccessRequest {
	out := r
	out.State = state
	return out
}

// Filter narrows a watch subscription. Zero values match everything.
type Filter struct {
	State  State             `json:"state,omitempty"`
	Traits map[string]string `json:"traits,omitempty"`
}

// Matches reports whether the event satisfies the filter: the state must
// equal when set, and every filter trait must be present with the same
// value.
func (f Filter) Matches(event AccessRequest) bool {
	if f.State != "" && event.State != f.State {
		return false
	}
	for key, want := range f.Traits {
		if event.Trait(key) != want {
			return false
		}
	}
	return true
}
