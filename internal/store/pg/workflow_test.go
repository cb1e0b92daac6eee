package pg

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"itsolve.org/internal/workflow"
)

func requestRows(id string, status workflow.Status, resolvedAt any) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "title", "description", "requested_by",
		"assigned_by", "assigned_to", "status",
		"resolved_at", "resolved_by", "created_at",
	}).AddRow(id, "Printer jam", "Floor 2", "office-1", "", "", string(status), resolvedAt, "office-1", time.Now())
}

func TestMarkResolvedConditionalUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	store := NewWithDB(db).Workflow()

	now := time.Now().UTC()
	mock.ExpectQuery("update requests").
		WithArgs("req-1", string(workflow.StatusResolved), now, "office-1", string(workflow.StatusPending)).
		WillReturnRows(requestRows("req-1", workflow.StatusResolved, now))

	req, err := store.MarkResolved(context.Background(), "req-1", "office-1", now)
	if err != nil {
		t.Fatalf("MarkResolved: %v", err)
	}
	if req.Status != workflow.StatusResolved || req.ResolvedAt == nil {
		t.Fatalf("unexpected result: %+v", req)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMarkResolvedRaceLoserGetsConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	store := NewWithDB(db).Workflow()

	// Guarded update matches no row: another resolver won the CAS.
	mock.ExpectQuery("update requests").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("select status from requests").
		WithArgs("req-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(string(workflow.StatusResolved)))

	_, err = store.MarkResolved(context.Background(), "req-1", "office-2", time.Now())
	if !errors.Is(err, workflow.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMarkResolvedMissingRequest(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	store := NewWithDB(db).Workflow()

	mock.ExpectQuery("update requests").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("select status from requests").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err = store.MarkResolved(context.Background(), "missing", "office-1", time.Now())
	if !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSetAssignmentMissingRequest(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	store := NewWithDB(db).Workflow()

	mock.ExpectQuery("update requests set assigned_to").
		WithArgs("missing", "student-1", "sup-1").
		WillReturnError(sql.ErrNoRows)

	_, err = store.SetAssignment(context.Background(), "missing", "student-1", "sup-1")
	if !errors.Is(err, workflow.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestListRequestsScoped(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	store := NewWithDB(db).Workflow()

	mock.ExpectQuery("select (.+) from requests where requested_by").
		WithArgs("office-1").
		WillReturnRows(requestRows("req-1", workflow.StatusPending, nil))

	reqs, err := store.List(context.Background(), workflow.Filter{RequestedBy: "office-1"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(reqs) != 1 || reqs[0].ID != "req-1" || reqs[0].ResolvedAt != nil {
		t.Fatalf("unexpected listing: %+v", reqs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
