package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hotelbook/apiserver/internal/auth"
	"github.com/hotelbook/apiserver/internal/services"
)

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "auth_token"

// TokenVerifier resolves a session token to a user id.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// AuthHandler provides cookie-based session endpoints.
type AuthHandler struct {
	users        *services.UserService
	cookieSecure bool
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(users *services.UserService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{users: users, cookieSecure: cookieSecure}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, users *services.UserService, cookieSecure bool) {
	handler := NewAuthHandler(users, cookieSecure)

	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.Post("/logout", handler.Logout)
	r.With(RequireAuth(users)).Get("/validate", handler.Validate)
}

// RequireAuth rejects requests without a valid session token and injects the
// user id into the request context. The session cookie is preferred; an
// Authorization bearer token is accepted for non-browser clients.
func RequireAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := sessionToken(r)
			if err != nil {
				writeServiceError(w, r, err, "")
				return
			}

			userID, err := verifier.Verify(token)
			if err != nil {
				writeServiceError(w, r, err, "")
				return
			}

			next.ServeHTTP(w, r.WithContext(withUserID(r.Context(), userID)))
		})
	}
}

// Register creates a new account and starts a session.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, token, err := h.users.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	h.setSession(w, token)
	writeJSON(w, http.StatusCreated, AuthResponse{UserID: user.ID})
}

// Login verifies credentials and starts a session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, token, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	h.setSession(w, token)
	writeJSON(w, http.StatusOK, AuthResponse{UserID: user.ID})
}

// Validate echoes the user behind the current session.
func (h *AuthHandler) Validate(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, AuthResponse{UserID: userID})
}

// Logout expires the session cookie. Issued tokens stay valid until expiry.
func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, MessageResponse{Message: "signed out"})
}

func (h *AuthHandler) setSession(w http.ResponseWriter, token string) {
	ttl := h.users.TokenTTL()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	UserID string `json:"userId"`
}

// sessionToken extracts the token from the session cookie or, failing that,
// the Authorization header.
func sessionToken(r *http.Request) (string, error) {
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", auth.ErrUnauthenticated
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", auth.ErrInvalidToken
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", auth.ErrInvalidToken
	}
	return token, nil
}
