package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/taskdeck/internal/auth"
	"github.com/dukerupert/taskdeck/internal/middleware"
	"github.com/dukerupert/taskdeck/internal/model"
	"github.com/dukerupert/taskdeck/internal/store"
)

const minPasswordLen = 6

type AuthHandler struct {
	users   *store.UserStore
	limiter *auth.LoginLimiter
	secret  []byte
	logger  *slog.Logger
}

func NewAuthHandler(users *store.UserStore, limiter *auth.LoginLimiter, secret []byte, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users:   users,
		limiter: limiter,
		secret:  secret,
		logger:  logger,
	}
}

// tokenResponse is the body of successful register and login calls.
type tokenResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req *registerRequest) validate() []fieldError {
	var errs []fieldError
	if strings.TrimSpace(req.Username) == "" {
		errs = append(errs, fieldError{"username", "Username is required"})
	}
	if !validEmail(req.Email) {
		errs = append(errs, fieldError{"email", "Please provide a valid email"})
	}
	if len(req.Password) < minPasswordLen {
		errs = append(errs, fieldError{"password", "Password must be at least 6 characters"})
	}
	return errs
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if errs := req.validate(); len(errs) > 0 {
		writeFieldErrors(w, errs)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to register user"})
		return
	}

	user, err := h.users.Create(req.Username, req.Email, hash)
	if err == store.ErrDuplicateEmail {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email already registered"})
		return
	}
	if err != nil {
		h.logger.Error("create user", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to register user"})
		return
	}

	token, err := auth.GenerateToken(user.ID, h.secret, auth.TokenTTL)
	if err != nil {
		h.logger.Error("issue token", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to register user"})
		return
	}

	writeJSON(w, http.StatusCreated, tokenResponse{Token: token, User: user})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req *loginRequest) validate() []fieldError {
	var errs []fieldError
	if !validEmail(req.Email) {
		errs = append(errs, fieldError{"email", "Please provide a valid email"})
	}
	if req.Password == "" {
		errs = append(errs, fieldError{"password", "Password is required"})
	}
	return errs
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Email = strings.TrimSpace(req.Email)

	if errs := req.validate(); len(errs) > 0 {
		writeFieldErrors(w, errs)
		return
	}

	// Blocked logins never reach the credential store.
	key := middleware.RealIP(r)
	if h.limiter.Blocked(key) {
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "too many failed login attempts"})
		return
	}

	user, err := h.users.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("login lookup", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to log in"})
		return
	}
	if user == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		h.limiter.RecordFailure(key)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid credentials"})
		return
	}
	h.limiter.RecordSuccess(key)

	token, err := auth.GenerateToken(user.ID, h.secret, auth.TokenTTL)
	if err != nil {
		h.logger.Error("issue token", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to log in"})
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token, User: user})
}

func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByID(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("profile lookup", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load profile"})
		return
	}
	if user == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
		return
	}
	writeJSON(w, http.StatusOK, user)
}
