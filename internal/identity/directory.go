package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"itsolve.org/internal/ids"
)

// Directory owns user records and role assignment. Every other component
// resolves identities through it.
type Directory struct {
	store Store
	now   func() time.Time
	newID func() string
}

// Option configures Directory behavior.
type Option func(*Directory)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(d *Directory) {
		if fn != nil {
			d.now = fn
		}
	}
}

// WithIDGenerator overrides identifier generation (useful for tests).
func WithIDGenerator(fn func() string) Option {
	return func(d *Directory) {
		if fn != nil {
			d.newID = fn
		}
	}
}

// NewDirectory constructs a Directory backed by the given store.
func NewDirectory(store Store, opts ...Option) *Directory {
	d := &Directory{
		store: store,
		now:   time.Now,
		newID: ids.New,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// CreateUser registers an account. Emails are unique case-insensitively;
// a duplicate surfaces as ErrConflict.
func (d *Directory) CreateUser(ctx context.Context, name, email, role, office, password string) (User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return User{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return User{}, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	parsedRole, err := ParseRole(role)
	if err != nil {
		return User{}, err
	}
	password = strings.TrimSpace(password)
	if password == "" {
		return User{}, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return User{}, err
	}

	now := d.now().UTC()
	user := User{
		ID:           d.newID(),
		Name:         name,
		Email:        email,
		Role:         parsedRole,
		Office:       strings.TrimSpace(office),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := d.store.Create(ctx, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// FindByID returns the user with the given id.
func (d *Directory) FindByID(ctx context.Context, id string) (User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return d.store.Find(ctx, id)
}

// FindByEmail returns the user with the given email, matched
// case-insensitively.
func (d *Directory) FindByEmail(ctx context.Context, email string) (User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return User{}, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	return d.store.FindByEmail(ctx, email)
}

// ListUsers returns accounts newest-created-first, optionally filtered by
// role. Credential hashes are cleared before the result leaves the directory.
func (d *Directory) ListUsers(ctx context.Context, roles ...Role) ([]User, error) {
	users, err := d.store.List(ctx, roles...)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

// UpdateUser applies allowed profile field changes.
func (d *Directory) UpdateUser(ctx context.Context, id string, upd Update) (User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return User{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
		}
		upd.Name = &name
	}
	if upd.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*upd.Email))
		if email == "" || !strings.Contains(email, "@") {
			return User{}, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
		}
		upd.Email = &email
	}
	if upd.Role != nil {
		role, err := ParseRole(string(*upd.Role))
		if err != nil {
			return User{}, err
		}
		upd.Role = &role
	}
	if upd.Office != nil {
		office := strings.TrimSpace(*upd.Office)
		upd.Office = &office
	}
	return d.store.Update(ctx, id, upd)
}

// ResetCredential replaces the stored password hash.
func (d *Directory) ResetCredential(ctx context.Context, id, newPassword string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	newPassword = strings.TrimSpace(newPassword)
	if newPassword == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	return d.store.UpdatePassword(ctx, id, hash)
}

// DeleteUser removes an account. Requests referencing the user keep their
// references; projections resolve them to "unknown user".
func (d *Directory) DeleteUser(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return d.store.Delete(ctx, id)
}

// Authenticate verifies a credential pair and returns the matching account.
// Failures are indistinguishable to the caller.
func (d *Directory) Authenticate(ctx context.Context, email, password string) (User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return User{}, ErrNotFound
	}
	user, err := d.store.FindByEmail(ctx, email)
	if err != nil {
		return User{}, ErrNotFound
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return User{}, ErrNotFound
	}
	return user, nil
}
