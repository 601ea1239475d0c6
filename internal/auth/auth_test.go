package auth

import (
	"context"
	"testing"
	"time"

	"taskboard/internal/apperr"
	"taskboard/internal/models"
	"taskboard/internal/storage/sqlite"
)

func testService(t *testing.T, ttl time.Duration) *Service {
	t.Helper()

	store, err := sqlite.Open(":memory:", nil)
	if err != nil {
		t.Fatalf("opening test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return NewService(store, "test-secret", ttl, nil)
}

func TestRegisterLoginVerifyRoundtrip(t *testing.T) {
	s := testService(t, time.Hour)
	ctx := context.Background()

	user, err := s.Register(ctx, "author@example.com", "hunter2", "Author", models.RoleAuthor)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Role != models.RoleAuthor || user.ID == "" {
		t.Fatalf("registered user = %+v", user)
	}

	session, err := s.Login(ctx, "author@example.com", "hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if session.AccessToken == "" || session.User.ID != user.ID {
		t.Fatalf("session = %+v", session)
	}

	claims, err := s.Verify(session.AccessToken)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != models.RoleAuthor {
		t.Errorf("claims = %+v", claims)
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	s := testService(t, time.Hour)
	ctx := context.Background()

	if _, err := s.Register(ctx, "a@example.com", "pw", "A", models.RoleSolver); err != nil {
		t.Fatal(err)
	}
	_, err := s.Register(ctx, "a@example.com", "pw", "B", models.RoleSolver)
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("error = %v, want conflict", err)
	}
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	s := testService(t, time.Hour)

	_, err := s.Register(context.Background(), "a@example.com", "pw", "A", models.Role("ADMIN"))
	if apperr.KindOf(err) != apperr.KindBadRequest {
		t.Fatalf("error = %v, want bad request", err)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	s := testService(t, time.Hour)
	ctx := context.Background()

	if _, err := s.Register(ctx, "a@example.com", "correct", "A", models.RoleSolver); err != nil {
		t.Fatal(err)
	}

	_, unknownErr := s.Login(ctx, "nobody@example.com", "whatever")
	_, wrongErr := s.Login(ctx, "a@example.com", "wrong")

	for name, err := range map[string]error{"unknown email": unknownErr, "wrong password": wrongErr} {
		if apperr.KindOf(err) != apperr.KindAuthentication {
			t.Errorf("%s: error = %v, want authentication", name, err)
		}
	}
	if unknownErr.Error() != wrongErr.Error() {
		t.Errorf("login failures leak account existence: %q vs %q", unknownErr, wrongErr)
	}
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	s := testService(t, time.Hour)

	for name, token := range map[string]string{
		"empty":   "",
		"garbage": "not-a-jwt",
	} {
		if _, err := s.Verify(token); apperr.KindOf(err) != apperr.KindAuthentication {
			t.Errorf("%s token: error = %v, want authentication", name, err)
		}
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	s := testService(t, time.Hour)
	ctx := context.Background()

	if _, err := s.Register(ctx, "a@example.com", "pw", "A", models.RoleSolver); err != nil {
		t.Fatal(err)
	}

	// NewService floors non-positive TTLs, so force the expiry directly.
	s.ttl = -time.Minute
	session, err := s.Login(ctx, "a@example.com", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := s.Verify(session.AccessToken); apperr.KindOf(err) != apperr.KindAuthentication {
		t.Fatalf("expired token error = %v, want authentication", err)
	}
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	s := testService(t, time.Hour)
	other := testService(t, time.Hour)
	ctx := context.Background()

	if _, err := other.Register(ctx, "a@example.com", "pw", "A", models.RoleSolver); err != nil {
		t.Fatal(err)
	}
	other.secret = []byte("different-secret")
	session, err := other.Login(ctx, "a@example.com", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := s.Verify(session.AccessToken); apperr.KindOf(err) != apperr.KindAuthentication {
		t.Fatalf("foreign token error = %v, want authentication", err)
	}
}
