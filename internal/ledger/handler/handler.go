// Package handler exposes the issuance and summary endpoints.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"capledger/internal/access"
	"capledger/internal/ledger"
	id "capledger/pkg/domain"
	dErrors "capledger/pkg/domain-errors"
	"capledger/pkg/platform/httputil"
	"capledger/pkg/requestcontext"
)

// Service defines the ledger operations the handler depends on.
type Service interface {
	Create(ctx context.Context, req ledger.CreateRequest) (ledger.Record, error)
	GetByID(ctx context.Context, issuanceID id.IssuanceID, actor access.Context) (ledger.Record, error)
	GetByShareholder(ctx context.Context, shareholderID id.ShareholderID, actor access.Context) ([]ledger.Record, error)
	GetAll(ctx context.Context) ([]ledger.RecordWithShareholder, error)
	GetForRendering(ctx context.Context, issuanceID id.IssuanceID, actor access.Context) (ledger.Certificate, error)
	Dashboard(ctx context.Context, actor access.Context) (ledger.Dashboard, error)
	Summaries(ctx context.Context) ([]ledger.Summary, error)
}

type Handler struct {
	ledger      Service
	renderer    *CertificateRenderer
	logger      *slog.Logger
	companyName string
}

func New(ledgerSvc Service, renderer *CertificateRenderer, logger *slog.Logger, companyName string) *Handler {
	return &Handler{
		ledger:      ledgerSvc,
		renderer:    renderer,
		logger:      logger,
		companyName: companyName,
	}
}

// RegisterAdmin mounts the admin-only routes; the router applies RequireAuth
// and RequireAdmin before these run.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/issuances", h.handleCreate)
	r.Get("/shareholders/summaries", h.handleSummaries)
}

// Register mounts the routes available to any authenticated actor. Visibility
// scoping happens in the service, not here.
func (h *Handler) Register(r chi.Router) {
	r.Get("/issuances", h.handleList)
	r.Get("/issuances/{id}", h.handleGet)
	r.Get("/issuances/{id}/certificate", h.handleCertificate)
	r.Get("/dashboard", h.handleDashboard)
}

type createRequest struct {
	ShareholderID string          `json:"shareholder_id"`
	Shares        int64           `json:"shares"`
	PricePerShare decimal.Decimal `json:"price_per_share"`
	Notes         string          `json:"notes"`
}

type recordResponse struct {
	ID                string          `json:"id"`
	ShareholderID     string          `json:"shareholder_id"`
	Shares            int64           `json:"shares"`
	PricePerShare     decimal.Decimal `json:"price_per_share"`
	TotalValue        decimal.Decimal `json:"total_value"`
	CertificateNumber string          `json:"certificate_number"`
	IssuedAt          time.Time       `json:"issued_at"`
	Notes             string          `json:"notes,omitempty"`
}

type recordWithShareholderResponse struct {
	recordResponse
	ShareholderName  string `json:"shareholder_name"`
	ShareholderEmail string `json:"shareholder_email"`
}

type summaryResponse struct {
	ShareholderID string          `json:"shareholder_id"`
	FullName      string          `json:"full_name"`
	Email         string          `json:"email"`
	TotalShares   int64           `json:"total_shares"`
	TotalValue    decimal.Decimal `json:"total_value"`
	IssuanceCount int64           `json:"issuance_count"`
}

func toRecordResponse(record ledger.Record) recordResponse {
	return recordResponse{
		ID:                record.ID.String(),
		ShareholderID:     record.ShareholderID.String(),
		Shares:            record.Shares,
		PricePerShare:     record.PricePerShare,
		TotalValue:        record.TotalValue(),
		CertificateNumber: record.CertificateNumber,
		IssuedAt:          record.IssuedAt,
		Notes:             record.Notes,
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	shareholderID, err := id.ParseShareholderID(req.ShareholderID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid shareholder_id"))
		return
	}

	record, err := h.ledger.Create(ctx, ledger.CreateRequest{
		ShareholderID: shareholderID,
		Shares:        req.Shares,
		PricePerShare: req.PricePerShare,
		Notes:         req.Notes,
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "issuance creation failed",
				"request_id", requestcontext.RequestID(ctx),
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toRecordResponse(record))
}

// handleList serves the actor's visible slice of the ledger: admins get every
// record with shareholder identity, shareholder actors get their own records.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := access.FromRequest(ctx)

	if actor.IsAdmin() {
		records, err := h.ledger.GetAll(ctx)
		if err != nil {
			h.logger.ErrorContext(ctx, "failed to list issuances",
				"request_id", requestcontext.RequestID(ctx),
				"error", err.Error(),
			)
			httputil.WriteError(w, err)
			return
		}
		resp := make([]recordWithShareholderResponse, 0, len(records))
		for _, record := range records {
			resp = append(resp, recordWithShareholderResponse{
				recordResponse:   toRecordResponse(record.Record),
				ShareholderName:  record.ShareholderName,
				ShareholderEmail: record.ShareholderEmail,
			})
		}
		httputil.WriteJSON(w, http.StatusOK, resp)
		return
	}

	records, err := h.ledger.GetByShareholder(ctx, actor.ShareholderID, actor)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	resp := make([]recordResponse, 0, len(records))
	for _, record := range records {
		resp = append(resp, toRecordResponse(record))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	issuanceID, err := id.ParseIssuanceID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "issuance not found"))
		return
	}

	record, err := h.ledger.GetByID(ctx, issuanceID, access.FromRequest(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRecordResponse(record))
}

// handleCertificate renders the printable certificate for one issuance. The
// access check and audit write happen in the service.
func (h *Handler) handleCertificate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	issuanceID, err := id.ParseIssuanceID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "issuance not found"))
		return
	}

	certificate, err := h.ledger.GetForRendering(ctx, issuanceID, access.FromRequest(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.renderer.Render(w, certificate, h.companyName); err != nil {
		h.logger.ErrorContext(ctx, "certificate rendering failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	}
}

type dashboardResponse struct {
	TotalShares      int64            `json:"total_shares"`
	TotalValue       decimal.Decimal  `json:"total_value"`
	IssuanceCount    int64            `json:"issuance_count"`
	ShareholderCount int64            `json:"shareholder_count,omitempty"`
	Recent           []recordResponse `json:"recent,omitempty"`
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dashboard, err := h.ledger.Dashboard(ctx, access.FromRequest(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInternal) {
			h.logger.ErrorContext(ctx, "dashboard failed",
				"request_id", requestcontext.RequestID(ctx),
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}

	resp := dashboardResponse{
		TotalShares:      dashboard.TotalShares,
		TotalValue:       dashboard.TotalValue,
		IssuanceCount:    dashboard.IssuanceCount,
		ShareholderCount: dashboard.ShareholderCount,
	}
	for _, record := range dashboard.Recent {
		resp.Recent = append(resp.Recent, toRecordResponse(record))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleSummaries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	summaries, err := h.ledger.Summaries(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to compute summaries",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	resp := make([]summaryResponse, 0, len(summaries))
	for _, summary := range summaries {
		resp = append(resp, summaryResponse{
			ShareholderID: summary.ShareholderID.String(),
			FullName:      summary.FullName,
			Email:         summary.Email,
			TotalShares:   summary.TotalShares,
			TotalValue:    summary.TotalValue,
			IssuanceCount: summary.IssuanceCount,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
