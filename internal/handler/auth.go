package handler

import (
	"context"
	"net/http"

	"github.com/sideline/platform/internal/service"
)

// AuthHandler serves signup and the player and operator login routes.
type AuthHandler struct {
	authSvc *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authSvc *service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Register handles POST /auth/register. The new player starts with the
// signup grant already in the wallet.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input service.RegisterInput
	if err := DecodeJSON(r, &input); err != nil {
		RespondBadBody(w)
		return
	}
	result, err := h.authSvc.Register(r.Context(), input)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, result)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	login(w, r, func(ctx context.Context, in service.LoginInput, ip string) (interface{}, error) {
		return h.authSvc.Login(ctx, in, ip)
	})
}

// AdminLogin handles POST /admin/auth/login. It shares the lockout with
// player login but counts failures in the admin realm.
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	login(w, r, func(ctx context.Context, in service.LoginInput, ip string) (interface{}, error) {
		return h.authSvc.AdminLogin(ctx, in, ip)
	})
}

func login(w http.ResponseWriter, r *http.Request, authenticate func(context.Context, service.LoginInput, string) (interface{}, error)) {
	var input service.LoginInput
	if err := DecodeJSON(r, &input); err != nil {
		RespondBadBody(w)
		return
	}
	result, err := authenticate(r.Context(), input, ClientIP(r))
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, result)
}
