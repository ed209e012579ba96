package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cardbinder/cardbinder/internal/api/response"
	"github.com/cardbinder/cardbinder/internal/auth"
)

// AuthHandler handles authentication API requests. The provider is nil
// when no auth service is configured; those deployments run guest-only.
type AuthHandler struct {
	provider *auth.Provider
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(provider *auth.Provider) *AuthHandler {
	return &AuthHandler{provider: provider}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) requireProvider(w http.ResponseWriter) bool {
	if h.provider == nil {
		response.ServiceUnavailable(w, errors.New("auth service is not configured"))
		return false
	}
	return true
}

// Session returns the current identity, or null for a guest session.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		response.Success(w, nil)
		return
	}
	response.Success(w, h.provider.Current())
}

// SignIn authenticates with email and password.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	if !h.requireProvider(w) {
		return
	}

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		response.BadRequest(w, errors.New("email and password are required"))
		return
	}

	identity, err := h.provider.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		response.Unauthorized(w, err)
		return
	}

	response.Success(w, identity)
}

// SignUp registers a new account.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	if !h.requireProvider(w) {
		return
	}

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		response.BadRequest(w, errors.New("email and password are required"))
		return
	}

	if err := h.provider.SignUp(r.Context(), req.Email, req.Password); err != nil {
		response.BadRequest(w, err)
		return
	}

	response.Created(w, req.Email)
}

// SignOut ends the current session.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if !h.requireProvider(w) {
		return
	}

	if err := h.provider.SignOut(r.Context()); err != nil {
		response.InternalError(w, err)
		return
	}

	response.NoContent(w)
}
