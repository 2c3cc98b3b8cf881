package server

import (
	"net/http"
	"strings"

	"moodtune/core/auth"
	"moodtune/logger"
)

// SignupRequest represents the signup request body
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	AdminKey string `json:"adminKey,omitempty"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupHandler handles user registration
func (h *APIHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.Warn("[Signup] invalid request body", logger.ErrorField(err))
		writeError(w, r, err)
		return
	}

	user, err := h.auth.Signup(r.Context(), req.Name, req.Email, req.Password, req.AdminKey)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		Message string `json:"message"`
		IsAdmin bool   `json:"isAdmin"`
	}{
		Message: "User created successfully",
		IsAdmin: user.IsAdmin,
	})
}

// LoginHandler handles user login requests
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.Warn("[Login] invalid request body", logger.ErrorField(err))
		writeError(w, r, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, r, auth.ErrInvalidCredentials)
		return
	}

	token, user, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Token   string `json:"jwt_token"`
		IsAdmin bool   `json:"isAdmin"`
	}{
		Token:   token,
		IsAdmin: user.IsAdmin,
	})
}

// Authorize requires a valid bearer token and stores the caller's identity
// in the request context.
func (h *APIHandler) Authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			writeMessage(w, http.StatusUnauthorized, "Access denied. No token provided.")
			return
		}

		id, err := h.auth.Authenticate(token)
		if err != nil {
			logger.Debug("[Auth] rejected token", logger.String("path", r.URL.Path), logger.ErrorField(err))
			writeMessage(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
	})
}

// RequireAdmin checks the stored user record, not the token claim, so a
// demoted admin loses access before their token expires.
func (h *APIHandler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.IdentityFrom(r.Context())
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "Access denied. No token provided.")
			return
		}
		isAdmin, err := h.auth.IsAdmin(r.Context(), id.UserID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !isAdmin {
			logger.Warn("[Auth] admin access denied", logger.String("userId", id.UserID), logger.String("path", r.URL.Path))
			writeMessage(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
