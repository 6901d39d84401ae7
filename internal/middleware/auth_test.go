package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukerupert/taskdeck/internal/auth"
	"github.com/dukerupert/taskdeck/internal/database"
	"github.com/dukerupert/taskdeck/internal/store"
)

var testSecret = []byte("middleware-test-secret")

func setupAuthMiddlewareDB(t *testing.T) *store.UserStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return store.NewUserStore(db)
}

func okHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	})
}

func TestRequireAuthMissingToken(t *testing.T) {
	us := setupAuthMiddlewareDB(t)
	handler := RequireAuth(testSecret, us)(okHandler(t))

	req := httptest.NewRequest("GET", "/api/tasks", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuthMalformedHeader(t *testing.T) {
	us := setupAuthMiddlewareDB(t)
	handler := RequireAuth(testSecret, us)(okHandler(t))

	for _, header := range []string{"sometoken", "Basic abc", "Bearer ", "Bearer"} {
		req := httptest.NewRequest("GET", "/api/tasks", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("header %q: status = %d, want %d", header, rec.Code, http.StatusUnauthorized)
		}
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	us := setupAuthMiddlewareDB(t)
	handler := RequireAuth(testSecret, us)(okHandler(t))

	req := httptest.NewRequest("GET", "/api/tasks", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuthExpiredToken(t *testing.T) {
	us := setupAuthMiddlewareDB(t)
	u, _ := us.Create("alice", "alice@example.com", "hash")

	tok, err := auth.GenerateToken(u.ID, testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	handler := RequireAuth(testSecret, us)(okHandler(t))
	req := httptest.NewRequest("GET", "/api/tasks", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuthStaleUser(t *testing.T) {
	us := setupAuthMiddlewareDB(t)

	// Token embeds an identity that no longer resolves to a user.
	tok, err := auth.GenerateToken("gone-user-id", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	handler := RequireAuth(testSecret, us)(okHandler(t))
	req := httptest.NewRequest("GET", "/api/tasks", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuthValidToken(t *testing.T) {
	us := setupAuthMiddlewareDB(t)
	u, _ := us.Create("alice", "alice@example.com", "hash")

	tok, err := auth.GenerateToken(u.ID, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	var got auth.Identity
	handler := RequireAuth(testSecret, us)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.FromContext(r.Context())
		if !ok {
			t.Fatal("expected identity in request context")
		}
		got = id
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/tasks", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got.UserID != u.ID {
		t.Errorf("identity user id = %q, want %q", got.UserID, u.ID)
	}
	if got.Email != "alice@example.com" {
		t.Errorf("identity email = %q, want %q", got.Email, "alice@example.com")
	}
}
