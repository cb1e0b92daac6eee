// Package policy centralizes every role-based rule of the request lifecycle
// in a single decision function. Handlers and the workflow service never
// compare roles directly; they ask the engine and act on the decision.
package policy

import (
	"fmt"
	"strings"

	"itsolve.org/internal/identity"
	"itsolve.org/internal/session"
)

// Action identifies an intended operation.
type Action string

const (
	ActionCreateRequest  Action = "createRequest"
	ActionAssignRequest  Action = "assignRequest"
	ActionResolveRequest Action = "resolveRequest"
	ActionListRequests   Action = "listRequests"
	ActionManageUsers    Action = "manageUsers"
)

// ResolutionPolicy selects which role closes requests. The two variants are
// mutually exclusive business rules; the deployment picks one.
type ResolutionPolicy string

const (
	// ResolveByOffice lets the creating office user resolve their own request.
	ResolveByOffice ResolutionPolicy = "office"
	// ResolveByStudent lets the assigned student resolve the request.
	ResolveByStudent ResolutionPolicy = "student"
)

// ParseResolutionPolicy validates a raw policy label.
func ParseResolutionPolicy(raw string) (ResolutionPolicy, error) {
	switch ResolutionPolicy(strings.TrimSpace(strings.ToLower(raw))) {
	case ResolveByOffice, ResolutionPolicy(""):
		return ResolveByOffice, nil
	case ResolveByStudent:
		return ResolveByStudent, nil
	default:
		return "", fmt.Errorf("unknown resolution policy %q", raw)
	}
}

// Scope is the row filter applied to listings.
type Scope string

const (
	// ScopeAll exposes every request.
	ScopeAll Scope = "all"
	// ScopeOwn restricts listings to requests the actor created.
	ScopeOwn Scope = "own"
)

// Projection is the fixed, typed field-visibility view for a listing or a
// shaped response.
type Projection struct {
	Scope Scope
	// IncludeAssignment controls whether assignedTo/assignedBy are part of
	// the view.
	IncludeAssignment bool
}

// Resource carries the request fields the engine needs for per-resource
// constraints.
type Resource struct {
	RequestedBy string
	AssignedTo  string
}

// Decision is the outcome of an authorization check.
type Decision struct {
	Allow      bool
	Reason     string
	Projection Projection
}

func allow(p Projection) Decision   { return Decision{Allow: true, Projection: p} }
func deny(reason string) Decision   { return Decision{Reason: reason} }
func fullProjection() Projection    { return Projection{Scope: ScopeAll, IncludeAssignment: true} }

// Engine evaluates the role/action decision table. It holds only immutable
// configuration and is safe for concurrent use.
type Engine struct {
	resolution ResolutionPolicy
}

// NewEngine constructs an engine for the given resolution-policy variant.
func NewEngine(resolution ResolutionPolicy) *Engine {
	if resolution != ResolveByStudent {
		resolution = ResolveByOffice
	}
	return &Engine{resolution: resolution}
}

// Resolution reports the active resolution-policy variant.
func (e *Engine) Resolution() ResolutionPolicy {
	return e.resolution
}

// Authorize decides whether the actor may perform the action. For
// resolveRequest the resource must be supplied; for listRequests the
// returned projection tells the caller how to scope and shape the result.
func (e *Engine) Authorize(actor session.Actor, action Action, res *Resource) Decision {
	switch action {
	case ActionCreateRequest:
		if actor.Role != identity.RoleOffice {
			return deny("only office users can create requests")
		}
		return allow(fullProjection())

	case ActionAssignRequest:
		if actor.Role != identity.RoleSupervisor {
			return deny("only supervisors can assign requests")
		}
		return allow(fullProjection())

	case ActionResolveRequest:
		return e.authorizeResolve(actor, res)

	case ActionListRequests:
		return e.authorizeList(actor)

	case ActionManageUsers:
		if actor.Role != identity.RoleSupervisor {
			return deny("only supervisors can manage users")
		}
		return allow(fullProjection())

	default:
		return deny(fmt.Sprintf("unknown action %q", action))
	}
}

func (e *Engine) authorizeResolve(actor session.Actor, res *Resource) Decision {
	if res == nil {
		return deny("resolution requires a target request")
	}
	switch e.resolution {
	case ResolveByStudent:
		if actor.Role != identity.RoleStudent {
			return deny("only the assigned student can resolve requests")
		}
		if res.AssignedTo == "" || res.AssignedTo != actor.ID {
			return deny("you can only resolve requests assigned to you")
		}
	default: // ResolveByOffice
		if actor.Role != identity.RoleOffice {
			return deny("only office users can resolve requests")
		}
		if res.RequestedBy != actor.ID {
			return deny("you can only resolve requests that you created")
		}
	}
	return allow(fullProjection())
}

func (e *Engine) authorizeList(actor session.Actor) Decision {
	switch actor.Role {
	case identity.RoleSupervisor, identity.RoleStudent:
		return allow(fullProjection())
	case identity.RoleOffice:
		return allow(Projection{
			Scope: ScopeOwn,
			// Under the office-resolves variant the assignment fields are
			// withheld from office listings; under the student-resolves
			// variant the office sees who was assigned.
			IncludeAssignment: e.resolution == ResolveByStudent,
		})
	default:
		return deny("unknown role")
	}
}
