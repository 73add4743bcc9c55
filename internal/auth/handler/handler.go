// Package handler exposes the login endpoint.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"capledger/internal/auth"
	dErrors "capledger/pkg/domain-errors"
	"capledger/pkg/platform/httputil"
	"capledger/pkg/requestcontext"
)

// Service defines the login operation the handler depends on.
type Service interface {
	Login(ctx context.Context, req auth.LoginRequest) (auth.LoginResult, error)
}

type Handler struct {
	auth   Service
	logger *slog.Logger
}

func New(auth Service, logger *slog.Logger) *Handler {
	return &Handler{auth: auth, logger: logger}
}

// Register mounts the public auth routes. Login has no auth middleware; it is
// the endpoint that mints tokens.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
}

type loginResponse struct {
	AccessToken   string `json:"access_token"`
	TokenType     string `json:"token_type"`
	ExpiresIn     int64  `json:"expires_in"`
	UserID        string `json:"user_id"`
	Role          string `json:"role"`
	ShareholderID string `json:"shareholder_id,omitempty"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.auth.Login(ctx, req)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "login failed",
				"request_id", requestcontext.RequestID(ctx),
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}

	resp := loginResponse{
		AccessToken: result.Token,
		TokenType:   result.TokenType,
		ExpiresIn:   result.ExpiresIn,
		UserID:      result.UserID.String(),
		Role:        result.Role.String(),
	}
	if !result.ShareholderID.IsNil() {
		resp.ShareholderID = result.ShareholderID.String()
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
