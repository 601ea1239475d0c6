package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taskboard/internal/auth"
	"taskboard/internal/events"
	"taskboard/internal/models"
	"taskboard/internal/storage/sqlite"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	store, err := sqlite.Open(":memory:", nil)
	if err != nil {
		t.Fatalf("opening test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	registry := events.NewRegistry(nil)
	authService := auth.NewService(store, "test-secret", time.Hour, nil)
	return New(store, authService, registry, nil, "")
}

func doJSON(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	return rec
}

func registerAndLogin(t *testing.T, srv *Server, email string, role models.Role) (string, string) {
	t.Helper()

	rec := doJSON(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": email, "password": "pw", "name": "Test", "role": string(role),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d, body %s", email, rec.Code, rec.Body)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": email, "password": "pw",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d, body %s", email, rec.Code, rec.Body)
	}

	var session auth.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &session); err != nil {
		t.Fatalf("decoding session: %v", err)
	}
	return session.AccessToken, session.User.ID
}

func TestHealthz(t *testing.T) {
	srv := testServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}
}

func TestProtectedRoutesRequireBearerToken(t *testing.T) {
	srv := testServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/tasks", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing token status = %d, want 401", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/tasks", "garbage", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token status = %d, want 401", rec.Code)
	}
}

func TestStreamRejectsInvalidCredentialBeforeRegistering(t *testing.T) {
	srv := testServer(t)

	for name, path := range map[string]string{
		"missing": "/api/events/stream",
		"garbage": "/api/events/stream?token=garbage",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		srv.Engine().ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s credential: status = %d, want 401", name, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct == "text/event-stream" {
			t.Errorf("%s credential: stream was opened", name)
		}
	}
}

func TestTaskWorkflowOverHTTP(t *testing.T) {
	srv := testServer(t)

	authorToken, _ := registerAndLogin(t, srv, "author@example.com", models.RoleAuthor)
	solverToken, solverID := registerAndLogin(t, srv, "solver@example.com", models.RoleSolver)

	// Solvers may not create tasks.
	rec := doJSON(t, srv, http.MethodPost, "/api/tasks", solverToken, map[string]any{
		"title": "x", "solvers": []string{solverID},
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("solver create status = %d, want 403", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/tasks", authorToken, map[string]any{
		"title": "Audit Q1", "solvers": []string{solverID}, "priority": "HIGH",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
	}
	var created struct {
		Task models.Task `json:"task"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decoding task: %v", err)
	}
	if created.Task.Status != models.StatusPending || created.Task.Priority != models.PriorityHigh {
		t.Fatalf("created task = %+v", created.Task)
	}

	// Authors cannot start work, even on their own task.
	rec = doJSON(t, srv, http.MethodPost, "/api/tasks/"+created.Task.ID+"/start", authorToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("author start status = %d, want 403", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/tasks/"+created.Task.ID+"/start", solverToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("start status = %d, body %s", rec.Code, rec.Body)
	}
	rec = doJSON(t, srv, http.MethodPost, "/api/tasks/"+created.Task.ID+"/complete", solverToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete status = %d, body %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/tasks/"+created.Task.ID+"/reject", authorToken, map[string]string{
		"reason": "needs detail",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("reject status = %d, body %s", rec.Code, rec.Body)
	}

	// The solver's rejection notification carries the reason.
	rec = doJSON(t, srv, http.MethodGet, "/api/notifications?unread=true", solverToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("notifications status = %d", rec.Code)
	}
	var listed struct {
		Notifications []models.Notification `json:"notifications"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decoding notifications: %v", err)
	}
	found := false
	for _, n := range listed.Notifications {
		if n.Type == models.NotificationTaskRejected && bytes.Contains([]byte(n.Message), []byte("needs detail")) {
			found = true
		}
	}
	if !found {
		t.Fatalf("no rejection notification with reason, got %+v", listed.Notifications)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/tasks/"+created.Task.ID+"/complete", solverToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("second complete status = %d", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodPost, "/api/tasks/"+created.Task.ID+"/approve", authorToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve status = %d, body %s", rec.Code, rec.Body)
	}

	// APPROVED is terminal: any further action is a bad request.
	rec = doJSON(t, srv, http.MethodPost, "/api/tasks/"+created.Task.ID+"/approve", authorToken, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("double approve status = %d, want 400", rec.Code)
	}
}

func TestCreateTaskWithNonSolverAssigneeIsBadRequest(t *testing.T) {
	srv := testServer(t)

	authorToken, authorID := registerAndLogin(t, srv, "author@example.com", models.RoleAuthor)

	rec := doJSON(t, srv, http.MethodPost, "/api/tasks", authorToken, map[string]any{
		"title": "x", "solvers": []string{authorID},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestListSolversIsAuthorOnly(t *testing.T) {
	srv := testServer(t)

	authorToken, _ := registerAndLogin(t, srv, "author@example.com", models.RoleAuthor)
	solverToken, solverID := registerAndLogin(t, srv, "solver@example.com", models.RoleSolver)

	rec := doJSON(t, srv, http.MethodGet, "/api/users/solvers", solverToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("solver access status = %d, want 403", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/users/solvers", authorToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("author access status = %d", rec.Code)
	}
	var listed struct {
		Solvers []models.PublicUser `json:"solvers"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decoding solvers: %v", err)
	}
	if len(listed.Solvers) != 1 || listed.Solvers[0].ID != solverID {
		t.Fatalf("solvers = %+v", listed.Solvers)
	}
}
