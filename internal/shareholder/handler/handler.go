// Package handler exposes the admin-facing shareholder endpoints.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"capledger/internal/shareholder"
	id "capledger/pkg/domain"
	dErrors "capledger/pkg/domain-errors"
	"capledger/pkg/platform/httputil"
	"capledger/pkg/requestcontext"
)

// Service defines the shareholder operations the handler depends on.
type Service interface {
	Onboard(ctx context.Context, req shareholder.OnboardRequest) (shareholder.Account, error)
	List(ctx context.Context) ([]shareholder.Account, error)
	Get(ctx context.Context, shareholderID id.ShareholderID) (shareholder.Account, error)
	Deactivate(ctx context.Context, shareholderID id.ShareholderID) error
}

type Handler struct {
	shareholders Service
	logger       *slog.Logger
}

func New(shareholders Service, logger *slog.Logger) *Handler {
	return &Handler{shareholders: shareholders, logger: logger}
}

// Register mounts the shareholder routes. The router applies RequireAuth and
// RequireAdmin before these run.
func (h *Handler) Register(r chi.Router) {
	r.Post("/shareholders", h.handleOnboard)
	r.Get("/shareholders", h.handleList)
	r.Get("/shareholders/{id}", h.handleGet)
	r.Post("/shareholders/{id}/deactivate", h.handleDeactivate)
}

type onboardRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

type accountResponse struct {
	ID        string    `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func toAccountResponse(account shareholder.Account) accountResponse {
	return accountResponse{
		ID:        account.ID.String(),
		FullName:  account.FullName,
		Email:     account.Email,
		Phone:     account.Phone,
		Address:   account.Address,
		Status:    string(account.Status),
		CreatedAt: account.CreatedAt,
	}
}

func (h *Handler) handleOnboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req onboardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	account, err := h.shareholders.Onboard(ctx, shareholder.OnboardRequest{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Address:  req.Address,
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "shareholder onboarding failed",
				"request_id", requestcontext.RequestID(ctx),
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toAccountResponse(account))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	accounts, err := h.shareholders.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list shareholders",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	resp := make([]accountResponse, 0, len(accounts))
	for _, account := range accounts {
		resp = append(resp, toAccountResponse(account))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	shareholderID, err := id.ParseShareholderID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "shareholder not found"))
		return
	}

	account, err := h.shareholders.Get(ctx, shareholderID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAccountResponse(account))
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	shareholderID, err := id.ParseShareholderID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "shareholder not found"))
		return
	}

	if err := h.shareholders.Deactivate(ctx, shareholderID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
