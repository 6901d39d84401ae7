package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dukerupert/taskdeck/internal/database"
	"github.com/dukerupert/taskdeck/internal/model"
)

func setupTestServer(t *testing.T) http.Handler {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := New(db, Config{
		Secret:     []byte("server-test-secret"),
		CORSOrigin: "http://localhost:3000",
	}, logger)
	return srv.Router()
}

func doJSON(t *testing.T, router http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func register(t *testing.T, router http.Handler, username, email string) string {
	t.Helper()
	rec := doJSON(t, router, "POST", "/api/auth/register",
		`{"username":"`+username+`","email":"`+email+`","password":"secret1"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status = %d: %s", rec.Code, rec.Body)
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	return resp.Token
}

func TestHealth(t *testing.T) {
	router := setupTestServer(t)

	rec := doJSON(t, router, "GET", "/health", "", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router := setupTestServer(t)

	for _, path := range []string{"/api/tasks", "/api/auth/profile"} {
		rec := doJSON(t, router, "GET", path, "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want %d", path, rec.Code, http.StatusUnauthorized)
		}
	}
}

func TestEndToEndTaskLifecycle(t *testing.T) {
	router := setupTestServer(t)
	token := register(t, router, "alice", "alice@example.com")

	// Profile works with the fresh token.
	rec := doJSON(t, router, "GET", "/api/auth/profile", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("profile: status = %d: %s", rec.Code, rec.Body)
	}

	// Create.
	rec = doJSON(t, router, "POST", "/api/tasks",
		`{"title":"Buy milk","category":"errands"}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d: %s", rec.Code, rec.Body)
	}
	var task model.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &task); err != nil {
		t.Fatalf("decode task: %v", err)
	}

	// List.
	rec = doJSON(t, router, "GET", "/api/tasks", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Buy milk") {
		t.Errorf("listing should include the task: %s", rec.Body)
	}

	// Update.
	rec = doJSON(t, router, "PUT", "/api/tasks/"+task.ID,
		`{"title":"Buy oat milk"}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status = %d: %s", rec.Code, rec.Body)
	}

	// Complete.
	rec = doJSON(t, router, "PATCH", "/api/tasks/"+task.ID+"/completed", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete: status = %d: %s", rec.Code, rec.Body)
	}
	var done model.Task
	json.Unmarshal(rec.Body.Bytes(), &done)
	if !done.Completed {
		t.Error("expected completed task")
	}

	// Delete.
	rec = doJSON(t, router, "DELETE", "/api/tasks/"+task.ID, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status = %d: %s", rec.Code, rec.Body)
	}
	rec = doJSON(t, router, "GET", "/api/tasks/"+task.ID, "", token)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestEndToEndOwnershipIsolation(t *testing.T) {
	router := setupTestServer(t)
	aliceToken := register(t, router, "alice", "alice@example.com")
	bobToken := register(t, router, "bob", "bob@example.com")

	rec := doJSON(t, router, "POST", "/api/tasks",
		`{"title":"Alice's secret plan","category":"secret"}`, aliceToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d", rec.Code)
	}
	var task model.Task
	json.Unmarshal(rec.Body.Bytes(), &task)

	rec = doJSON(t, router, "GET", "/api/tasks/"+task.ID, "", bobToken)
	if rec.Code != http.StatusNotFound {
		t.Errorf("cross-owner get: status = %d, want %d (never 403)", rec.Code, http.StatusNotFound)
	}

	rec = doJSON(t, router, "GET", "/api/tasks", "", bobToken)
	if strings.Contains(rec.Body.String(), "secret plan") {
		t.Error("bob's listing must not contain alice's task")
	}
}

func TestCORSPreflight(t *testing.T) {
	router := setupTestServer(t)

	req := httptest.NewRequest("OPTIONS", "/api/tasks", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("allow-origin = %q", got)
	}
}

func TestAuthEndpointsRateLimited(t *testing.T) {
	router := setupTestServer(t)

	// The per-IP window on login allows 10 requests a minute.
	var last int
	for i := 0; i < 11; i++ {
		rec := doJSON(t, router, "POST", "/api/auth/login",
			`{"email":"nobody@example.com","password":"x"}`, "")
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("11th login attempt: status = %d, want %d", last, http.StatusTooManyRequests)
	}
}
