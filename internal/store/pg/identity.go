package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"itsolve.org/internal/identity"
)

// IdentityStore implements identity.Store on PostgreSQL.
type IdentityStore struct {
	db *sql.DB
}

var _ identity.Store = (*IdentityStore)(nil)

const userColumns = `id, name, email, role, coalesce(office,''), password_hash, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (identity.User, error) {
	var u identity.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.Office, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (s *IdentityStore) Create(ctx context.Context, u *identity.User) error {
	_, err := s.db.ExecContext(ctx, `
		insert into users (id, name, email, role, office, password_hash, created_at, updated_at)
		values ($1, $2, $3, $4, nullif($5,''), $6, $7, $8)
	`, u.ID, u.Name, u.Email, u.Role, u.Office, u.PasswordHash, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return identity.ErrConflict
		}
		return err
	}
	return nil
}

func (s *IdentityStore) Find(ctx context.Context, id string) (identity.User, error) {
	row := s.db.QueryRowContext(ctx, `select `+userColumns+` from users where id = $1`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return identity.User{}, identity.ErrNotFound
	}
	if err != nil {
		return identity.User{}, err
	}
	return u, nil
}

func (s *IdentityStore) FindByEmail(ctx context.Context, email string) (identity.User, error) {
	row := s.db.QueryRowContext(ctx, `select `+userColumns+` from users where lower(email) = lower($1)`, email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return identity.User{}, identity.ErrNotFound
	}
	if err != nil {
		return identity.User{}, err
	}
	return u, nil
}

func (s *IdentityStore) List(ctx context.Context, roles ...identity.Role) ([]identity.User, error) {
	query := `select ` + userColumns + ` from users`
	var args []any
	if len(roles) > 0 {
		placeholders := make([]string, len(roles))
		for i, role := range roles {
			args = append(args, string(role))
			placeholders[i] = fmt.Sprintf("$%d", i+1)
		}
		query += ` where role in (` + strings.Join(placeholders, ", ") + `)`
	}
	query += ` order by created_at desc, id desc`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []identity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

func (s *IdentityStore) Update(ctx context.Context, id string, upd identity.Update) (identity.User, error) {
	sets := []string{"updated_at = now()"}
	args := []any{id}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if upd.Name != nil {
		sets = append(sets, "name = "+arg(*upd.Name))
	}
	if upd.Email != nil {
		sets = append(sets, "email = "+arg(*upd.Email))
	}
	if upd.Role != nil {
		sets = append(sets, "role = "+arg(string(*upd.Role)))
	}
	if upd.Office != nil {
		sets = append(sets, "office = nullif("+arg(*upd.Office)+",'')")
	}

	row := s.db.QueryRowContext(ctx, `
		update users set `+strings.Join(sets, ", ")+`
		where id = $1
		returning `+userColumns, args...)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return identity.User{}, identity.ErrNotFound
	}
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return identity.User{}, identity.ErrConflict
		}
		return identity.User{}, err
	}
	return u, nil
}

func (s *IdentityStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := s.db.ExecContext(ctx, `
		update users set password_hash = $2, updated_at = now() where id = $1
	`, id, passwordHash)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return identity.ErrNotFound
	}
	return nil
}

func (s *IdentityStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from users where id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return identity.ErrNotFound
	}
	return nil
}
