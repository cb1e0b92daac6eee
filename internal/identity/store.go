package identity

import "context"

// Store describes persistence operations required by the directory.
// Implementations report duplicate emails as ErrConflict and absent ids as
// ErrNotFound.
type Store interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	// List returns users newest-created-first. With no roles given it
	// returns every account.
	List(ctx context.Context, roles ...Role) ([]User, error)
	Update(ctx context.Context, id string, upd Update) (User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
}
