package workflow

import (
	"errors"
	"time"
)

// Status is the lifecycle state of a request. The only transition is
// pending -> resolved; resolved is terminal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusResolved Status = "resolved"
)

// Request is a work item. RequestedBy is set at creation and never changes;
// AssignedTo/AssignedBy are set together through assignment; ResolvedAt and
// ResolvedBy are set exactly once, atomically with the status transition.
type Request struct {
	ID          string
	Title       string
	Description string
	RequestedBy string
	AssignedBy  string
	AssignedTo  string
	Status      Status
	ResolvedAt  *time.Time
	ResolvedBy  string
	CreatedAt   time.Time
}

var (
	ErrNotFound     = errors.New("workflow: request not found")
	ErrConflict     = errors.New("workflow: already resolved")
	ErrInvalidInput = errors.New("workflow: invalid input")
	ErrForbidden    = errors.New("workflow: forbidden")
)

// UserRef is a projected identity reference inside a request view.
type UserRef struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	Office string `json:"office,omitempty"`
}

// View is the policy-shaped representation of a request returned to callers.
// Assignment fields are omitted when the projection withholds them. Exactly
// one of the resolver fields is populated, matching the active resolution
// policy.
type View struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	Status            Status     `json:"status"`
	RequestedBy       *UserRef   `json:"requestedBy,omitempty"`
	AssignedTo        *UserRef   `json:"assignedTo,omitempty"`
	AssignedBy        *UserRef   `json:"assignedBy,omitempty"`
	ResolvedAt        *time.Time `json:"resolvedAt"`
	ResolvedByOffice  *UserRef   `json:"resolvedByOffice,omitempty"`
	ResolvedByStudent *UserRef   `json:"resolvedByStudent,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
}
