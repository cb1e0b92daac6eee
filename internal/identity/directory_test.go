package identity

import (
	"context"
	"errors"
	"testing"
)

func newTestDirectory() *Directory {
	return NewDirectory(NewInMemory())
}

func TestCreateUserAndLookup(t *testing.T) {
	dir := newTestDirectory()
	ctx := context.Background()

	user, err := dir.CreateUser(ctx, "Alice", "Alice@Example.com", "office", "Facilities", "secret123")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.ID == "" {
		t.Fatalf("expected generated id")
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("email not normalized: %s", user.Email)
	}
	if user.Role != RoleOffice {
		t.Fatalf("unexpected role: %s", user.Role)
	}
	if user.PasswordHash == "" || user.PasswordHash == "secret123" {
		t.Fatalf("credential was not hashed")
	}

	found, err := dir.FindByEmail(ctx, "ALICE@example.COM")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if found.ID != user.ID {
		t.Fatalf("lookup mismatch: %s != %s", found.ID, user.ID)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	dir := newTestDirectory()
	ctx := context.Background()

	if _, err := dir.CreateUser(ctx, "Alice", "alice@example.com", "office", "", "secret123"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	_, err := dir.CreateUser(ctx, "Mallory", "ALICE@EXAMPLE.COM", "student", "", "secret456")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestCreateUserValidation(t *testing.T) {
	dir := newTestDirectory()
	ctx := context.Background()

	cases := []struct {
		name, email, role, password string
	}{
		{"", "a@b.com", "office", "pw"},
		{"Bob", "", "office", "pw"},
		{"Bob", "not-an-email", "office", "pw"},
		{"Bob", "b@b.com", "janitor", "pw"},
		{"Bob", "b@b.com", "office", ""},
	}
	for _, tc := range cases {
		if _, err := dir.CreateUser(ctx, tc.name, tc.email, tc.role, "", tc.password); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("CreateUser(%q,%q,%q) expected ErrInvalidInput, got %v", tc.name, tc.email, tc.role, err)
		}
	}
}

func TestListUsersFilteredAndOrdered(t *testing.T) {
	dir := newTestDirectory()
	ctx := context.Background()

	if _, err := dir.CreateUser(ctx, "Sup", "sup@example.com", "supervisor", "IT", "pw12345"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := dir.CreateUser(ctx, "Olga", "olga@example.com", "office", "HR", "pw12345"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := dir.CreateUser(ctx, "Sam", "sam@example.com", "student", "", "pw12345"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	users, err := dir.ListUsers(ctx, RoleOffice, RoleStudent)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	// newest first
	if users[0].Name != "Sam" || users[1].Name != "Olga" {
		t.Fatalf("unexpected order: %s, %s", users[0].Name, users[1].Name)
	}
	for _, u := range users {
		if u.PasswordHash != "" {
			t.Fatalf("credential leaked for %s", u.Email)
		}
	}
}

func TestUpdateUserAndResetCredential(t *testing.T) {
	dir := newTestDirectory()
	ctx := context.Background()

	user, err := dir.CreateUser(ctx, "Olga", "olga@example.com", "office", "HR", "pw12345")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	newName := "Olga P."
	newRole := RoleStudent
	updated, err := dir.UpdateUser(ctx, user.ID, Update{Name: &newName, Role: &newRole})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if updated.Name != "Olga P." || updated.Role != RoleStudent {
		t.Fatalf("update not applied: %+v", updated)
	}

	if err := dir.ResetCredential(ctx, user.ID, "newpassword"); err != nil {
		t.Fatalf("ResetCredential: %v", err)
	}
	if _, err := dir.Authenticate(ctx, "olga@example.com", "pw12345"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("old credential still valid")
	}
	if _, err := dir.Authenticate(ctx, "olga@example.com", "newpassword"); err != nil {
		t.Fatalf("Authenticate after reset: %v", err)
	}

	if _, err := dir.UpdateUser(ctx, "missing", Update{Name: &newName}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteUser(t *testing.T) {
	dir := newTestDirectory()
	ctx := context.Background()

	user, err := dir.CreateUser(ctx, "Sam", "sam@example.com", "student", "", "pw12345")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := dir.DeleteUser(ctx, user.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := dir.FindByID(ctx, user.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := dir.DeleteUser(ctx, user.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double delete expected ErrNotFound, got %v", err)
	}
}
