package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"itsolve.org/internal/identity"
	"itsolve.org/internal/ids"
	"itsolve.org/internal/policy"
	"itsolve.org/internal/session"
)

// UserLookup resolves user references for validation and projection. The
// identity directory satisfies it.
type UserLookup interface {
	FindByID(ctx context.Context, id string) (identity.User, error)
}

// Service owns request records and their transitions. Every mutation
// consults the policy engine before touching storage; rejected actions never
// reach the store.
type Service struct {
	store  Store
	users  UserLookup
	engine *policy.Engine
	now    func() time.Time
	newID  func() string
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithIDGenerator overrides identifier generation (useful for tests).
func WithIDGenerator(fn func() string) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewService constructs the workflow state machine.
func NewService(store Store, users UserLookup, engine *policy.Engine, opts ...ServiceOption) *Service {
	s := &Service{
		store:  store,
		users:  users,
		engine: engine,
		now:    time.Now,
		newID:  ids.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolution reports the active resolution-policy variant.
func (s *Service) Resolution() policy.ResolutionPolicy {
	return s.engine.Resolution()
}

// Create files a new request owned by the acting office user.
func (s *Service) Create(ctx context.Context, actor session.Actor, title, description string) (View, error) {
	if d := s.engine.Authorize(actor, policy.ActionCreateRequest, nil); !d.Allow {
		return View{}, fmt.Errorf("%w: %s", ErrForbidden, d.Reason)
	}
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" || description == "" {
		return View{}, fmt.Errorf("%w: title and description are required", ErrInvalidInput)
	}

	req := Request{
		ID:          s.newID(),
		Title:       title,
		Description: description,
		RequestedBy: actor.ID,
		Status:      StatusPending,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.Create(ctx, &req); err != nil {
		return View{}, err
	}
	return s.project(ctx, req, fullProjection()), nil
}

// Assign binds a request to a student. Both assignment fields are written
// together; reassignment overwrites the previous assignee without
// restriction. Status is untouched.
func (s *Service) Assign(ctx context.Context, actor session.Actor, requestID, studentID string) (View, error) {
	if d := s.engine.Authorize(actor, policy.ActionAssignRequest, nil); !d.Allow {
		return View{}, fmt.Errorf("%w: %s", ErrForbidden, d.Reason)
	}
	requestID = strings.TrimSpace(requestID)
	studentID = strings.TrimSpace(studentID)
	if requestID == "" || studentID == "" {
		return View{}, fmt.Errorf("%w: requestId and studentId are required", ErrInvalidInput)
	}

	student, err := s.users.FindByID(ctx, studentID)
	if err != nil || student.Role != identity.RoleStudent {
		return View{}, fmt.Errorf("%w: studentId must reference a student account", ErrInvalidInput)
	}

	req, err := s.store.SetAssignment(ctx, requestID, studentID, actor.ID)
	if err != nil {
		return View{}, err
	}
	return s.project(ctx, req, fullProjection()), nil
}

// Resolve performs the terminal transition. The status check and the write
// are a single conditional store operation; a concurrent resolver loses with
// ErrConflict.
func (s *Service) Resolve(ctx context.Context, actor session.Actor, requestID string) (View, error) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return View{}, fmt.Errorf("%w: requestId is required", ErrInvalidInput)
	}

	req, err := s.store.Find(ctx, requestID)
	if err != nil {
		return View{}, err
	}
	res := &policy.Resource{RequestedBy: req.RequestedBy, AssignedTo: req.AssignedTo}
	if d := s.engine.Authorize(actor, policy.ActionResolveRequest, res); !d.Allow {
		return View{}, fmt.Errorf("%w: %s", ErrForbidden, d.Reason)
	}
	if req.Status != StatusPending {
		return View{}, ErrConflict
	}

	resolved, err := s.store.MarkResolved(ctx, requestID, actor.ID, s.now().UTC())
	if err != nil {
		return View{}, err
	}
	return s.project(ctx, resolved, fullProjection()), nil
}

// List returns requests scoped and shaped per the actor's projection.
func (s *Service) List(ctx context.Context, actor session.Actor) ([]View, error) {
	d := s.engine.Authorize(actor, policy.ActionListRequests, nil)
	if !d.Allow {
		return nil, fmt.Errorf("%w: %s", ErrForbidden, d.Reason)
	}

	var f Filter
	if d.Projection.Scope == policy.ScopeOwn {
		f.RequestedBy = actor.ID
	}
	reqs, err := s.store.List(ctx, f)
	if err != nil {
		return nil, err
	}

	views := make([]View, 0, len(reqs))
	cache := make(map[string]*UserRef)
	for _, req := range reqs {
		views = append(views, s.projectCached(ctx, req, d.Projection, cache))
	}
	return views, nil
}

func fullProjection() policy.Projection {
	return policy.Projection{Scope: policy.ScopeAll, IncludeAssignment: true}
}

func (s *Service) project(ctx context.Context, req Request, p policy.Projection) View {
	return s.projectCached(ctx, req, p, make(map[string]*UserRef))
}

// projectCached builds the fixed, typed view for one request. User lookups
// within a single call are memoized.
func (s *Service) projectCached(ctx context.Context, req Request, p policy.Projection, cache map[string]*UserRef) View {
	v := View{
		ID:          req.ID,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		RequestedBy: s.userRef(ctx, req.RequestedBy, cache),
		ResolvedAt:  req.ResolvedAt,
		CreatedAt:   req.CreatedAt,
	}
	if p.IncludeAssignment {
		v.AssignedTo = s.userRef(ctx, req.AssignedTo, cache)
		v.AssignedBy = s.userRef(ctx, req.AssignedBy, cache)
	}
	if resolver := s.userRef(ctx, req.ResolvedBy, cache); resolver != nil {
		if s.engine.Resolution() == policy.ResolveByStudent {
			v.ResolvedByStudent = resolver
		} else {
			v.ResolvedByOffice = resolver
		}
	}
	return v
}

func (s *Service) userRef(ctx context.Context, id string, cache map[string]*UserRef) *UserRef {
	if id == "" {
		return nil
	}
	if ref, ok := cache[id]; ok {
		return ref
	}
	user, err := s.users.FindByID(ctx, id)
	ref := &UserRef{ID: id}
	if err != nil {
		// Deleted accounts keep their references; project as unknown.
		ref.Name = "unknown user"
	} else {
		ref.Name = user.Name
		ref.Email = user.Email
		ref.Office = user.Office
	}
	cache[id] = ref
	return ref
}
