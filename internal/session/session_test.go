package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"itsolve.org/internal/identity"
)

func TestGenerateAndValidateToken(t *testing.T) {
	t.Setenv("ITSOLVE_AUTH_SECRET", "test-secret")
	ResetSecretForTests()

	user := identity.User{
		ID:     "user-42",
		Name:   "Olga",
		Email:  "olga@example.com",
		Role:   identity.RoleOffice,
		Office: "HR",
	}
	token, expiresAt, err := GenerateToken(user)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if until := time.Until(expiresAt); until < 23*time.Hour || until > 25*time.Hour {
		t.Fatalf("unexpected validity window: %v", until)
	}

	claims, err := ParseAndValidate(token)
	if err != nil {
		t.Fatalf("ParseAndValidate: %v", err)
	}
	actor := claims.Actor()
	if actor.ID != "user-42" || actor.Name != "Olga" || actor.Role != identity.RoleOffice || actor.Office != "HR" {
		t.Fatalf("unexpected actor: %+v", actor)
	}
}

func TestParseRejectsTamperedToken(t *testing.T) {
	t.Setenv("ITSOLVE_AUTH_SECRET", "test-secret")
	ResetSecretForTests()

	token, _, err := GenerateToken(identity.User{ID: "u1", Role: identity.RoleStudent})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := ParseAndValidate(token + "x"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if _, err := ParseAndValidate(""); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for empty token, got %v", err)
	}
}

func TestParseRejectsUnknownRole(t *testing.T) {
	t.Setenv("ITSOLVE_AUTH_SECRET", "test-secret")
	ResetSecretForTests()

	token, _, err := GenerateToken(identity.User{ID: "u1", Role: identity.Role("janitor")})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := ParseAndValidate(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestActorContextRoundTrip(t *testing.T) {
	ctx := context.Background()
	if _, ok := ActorFromContext(ctx); ok {
		t.Fatalf("unexpected actor in fresh context")
	}
	actor := Actor{ID: "u7", Role: identity.RoleSupervisor}
	ctx = ContextWithActor(ctx, actor)
	got, ok := ActorFromContext(ctx)
	if !ok || got != actor {
		t.Fatalf("actor round trip failed: %+v, ok=%v", got, ok)
	}
}
