package handler

import (
	"context"
	"net/http"

	"github.com/iho/pocketledger/internal/adapter/http/dto"
	"github.com/iho/pocketledger/internal/domain"
	"github.com/iho/pocketledger/internal/usecase"
)

// UserService defines the behavior needed by AuthHandler.
type UserService interface {
	Register(ctx context.Context, input usecase.RegisterInput) (*domain.User, error)
	Authenticate(ctx context.Context, input usecase.AuthenticateInput) (*domain.User, string, error)
	GetUser(ctx context.Context, id domain.ID) (*domain.User, error)
}

// AuthHandler handles registration, login and the current user.
type AuthHandler struct {
	userUC UserService

	// OnLogin, when set, receives "success" or "failure" per login attempt.
	OnLogin func(status string)
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(userUC UserService) *AuthHandler {
	return &AuthHandler{userUC: userUC}
}

// Register creates a user.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	user, err := h.userUC.Register(r.Context(), req.ToUseCaseInput())
	if err != nil {
		respondError(w, r, "failed to register", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.UserFromDomain(user))
}

// Login checks credentials and issues a token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	user, token, err := h.userUC.Authenticate(r.Context(), req.ToUseCaseInput())
	if err != nil {
		h.recordLogin("failure")
		respondError(w, r, "login failed", err)
		return
	}
	h.recordLogin("success")

	writeJSON(w, http.StatusOK, dto.LoginResponse{
		Token: token,
		User:  dto.UserFromDomain(user),
	})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	user, err := h.userUC.GetUser(r.Context(), userID)
	if err != nil {
		respondError(w, r, "failed to get user", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.UserFromDomain(user))
}

func (h *AuthHandler) recordLogin(status string) {
	if h.OnLogin != nil {
		h.OnLogin(status)
	}
}
