package middleware

import (
	"net/http"
	"strings"

	"github.com/dukerupert/taskdeck/internal/auth"
	"github.com/dukerupert/taskdeck/internal/store"
)

// RequireAuth validates the bearer token on each request and populates
// the caller Identity. Rejections are always 401: token problems and a
// stale embedded user are equally "unauthorized" to the caller.
func RequireAuth(secret []byte, users *store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w, "missing token")
				return
			}

			userID, err := auth.VerifyToken(token, secret)
			if err == auth.ErrTokenExpired {
				unauthorized(w, "token expired")
				return
			}
			if err != nil {
				unauthorized(w, "invalid token")
				return
			}

			// The token is stateless; confirm the embedded user still
			// exists before granting access.
			user, err := users.GetByID(userID)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"error":"internal error"}`))
				return
			}
			if user == nil {
				unauthorized(w, "user not found")
				return
			}

			ctx := auth.WithIdentity(r.Context(), auth.Identity{
				UserID:   user.ID,
				Email:    user.Email,
				Username: user.Username,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}
