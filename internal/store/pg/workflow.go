package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"itsolve.org/internal/workflow"
)

// WorkflowStore implements workflow.Store on PostgreSQL.
type WorkflowStore struct {
	db *sql.DB
}

var _ workflow.Store = (*WorkflowStore)(nil)

const requestColumns = `id, title, description, requested_by,
	coalesce(assigned_by,''), coalesce(assigned_to,''), status,
	resolved_at, coalesce(resolved_by,''), created_at`

func scanRequest(row interface{ Scan(...any) error }) (workflow.Request, error) {
	var (
		req        workflow.Request
		resolvedAt sql.NullTime
	)
	err := row.Scan(&req.ID, &req.Title, &req.Description, &req.RequestedBy,
		&req.AssignedBy, &req.AssignedTo, &req.Status,
		&resolvedAt, &req.ResolvedBy, &req.CreatedAt)
	if err != nil {
		return workflow.Request{}, err
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time.UTC()
		req.ResolvedAt = &t
	}
	return req, nil
}

func (s *WorkflowStore) Create(ctx context.Context, req *workflow.Request) error {
	_, err := s.db.ExecContext(ctx, `
		insert into requests (id, title, description, requested_by, status, created_at)
		values ($1, $2, $3, $4, $5, $6)
	`, req.ID, req.Title, req.Description, req.RequestedBy, req.Status, req.CreatedAt)
	return err
}

func (s *WorkflowStore) Find(ctx context.Context, id string) (workflow.Request, error) {
	row := s.db.QueryRowContext(ctx, `select `+requestColumns+` from requests where id = $1`, id)
	req, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return workflow.Request{}, workflow.ErrNotFound
	}
	if err != nil {
		return workflow.Request{}, err
	}
	return req, nil
}

func (s *WorkflowStore) List(ctx context.Context, f workflow.Filter) ([]workflow.Request, error) {
	query := `select ` + requestColumns + ` from requests`
	var args []any
	if f.RequestedBy != "" {
		query += ` where requested_by = $1`
		args = append(args, f.RequestedBy)
	}
	query += ` order by created_at desc, id desc`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []workflow.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, req)
	}
	return result, rows.Err()
}

func (s *WorkflowStore) SetAssignment(ctx context.Context, id, assignedTo, assignedBy string) (workflow.Request, error) {
	row := s.db.QueryRowContext(ctx, `
		update requests set assigned_to = $2, assigned_by = $3
		where id = $1
		returning `+requestColumns, id, assignedTo, assignedBy)
	req, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return workflow.Request{}, workflow.ErrNotFound
	}
	if err != nil {
		return workflow.Request{}, err
	}
	return req, nil
}

// MarkResolved is the conditional transition: the guard on the stored status
// and the write are one statement, so concurrent resolvers cannot both
// succeed regardless of application-level interleaving.
func (s *WorkflowStore) MarkResolved(ctx context.Context, id, resolvedBy string, at time.Time) (workflow.Request, error) {
	row := s.db.QueryRowContext(ctx, `
		update requests
		set status = $2, resolved_at = $3, resolved_by = $4
		where id = $1 and status = $5
		returning `+requestColumns,
		id, workflow.StatusResolved, at.UTC(), resolvedBy, workflow.StatusPending)
	req, err := scanRequest(row)
	if err == nil {
		return req, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return workflow.Request{}, err
	}

	// Distinguish the CAS loser from a missing request.
	var status string
	err = s.db.QueryRowContext(ctx, `select status from requests where id = $1`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return workflow.Request{}, workflow.ErrNotFound
	}
	if err != nil {
		return workflow.Request{}, err
	}
	return workflow.Request{}, workflow.ErrConflict
}
