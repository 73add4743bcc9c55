package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"capledger/internal/audit"
	"capledger/internal/ledger"
	"capledger/internal/platform/config"
	"capledger/internal/shareholder"
	id "capledger/pkg/domain"
	"capledger/pkg/platform/tx"
	"capledger/pkg/requestcontext"
)

type LedgerHandlerSuite struct {
	suite.Suite
	router   *chi.Mux
	service  *ledger.Service
	holderID id.ShareholderID
}

func TestLedgerHandlerSuite(t *testing.T) {
	suite.Run(t, new(LedgerHandlerSuite))
}

func (s *LedgerHandlerSuite) SetupTest() {
	shareholders := shareholder.NewInMemoryStore()
	auditStore := audit.NewInMemoryStore()
	store := ledger.NewInMemoryStore(shareholders)
	runner := tx.NewMemoryRunner(store, auditStore, shareholders)
	trail := audit.NewTrail(auditStore, nil)

	limits := config.IssuanceLimits{
		MaxShares:        1_000_000,
		MaxPricePerShare: decimal.RequireFromString("10000.00"),
	}
	directory := shareholder.NewService(shareholders, nil, trail, runner, nil, nil)
	s.service = ledger.NewService(store, ledger.NewValidator(limits), directory, trail, runner, nil, nil)

	account := shareholder.Account{
		ID:       id.NewShareholderID(),
		UserID:   id.NewUserID(),
		FullName: "Ada Example",
		Email:    "ada@example.com",
		Status:   shareholder.StatusActive,
	}
	s.Require().NoError(shareholders.Create(context.Background(), account))
	s.holderID = account.ID

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(s.service, NewCertificateRenderer(), logger, "Capledger Holdings")

	s.router = chi.NewRouter()
	h.Register(s.router)
	h.RegisterAdmin(s.router)
}

// asActor injects the identity the auth middleware would have resolved.
func asActor(req *http.Request, role id.Role, shareholderID id.ShareholderID) *http.Request {
	ctx := requestcontext.WithUserID(req.Context(), id.NewUserID())
	ctx = requestcontext.WithRole(ctx, role)
	if !shareholderID.IsNil() {
		ctx = requestcontext.WithShareholderID(ctx, shareholderID)
	}
	ctx = requestcontext.WithTime(ctx, time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC))
	return req.WithContext(ctx)
}

func (s *LedgerHandlerSuite) issue(shares int64, price string) map[string]any {
	body, err := json.Marshal(map[string]any{
		"shareholder_id":  s.holderID.String(),
		"shares":          shares,
		"price_per_share": price,
	})
	s.Require().NoError(err)

	req := asActor(httptest.NewRequest(http.MethodPost, "/issuances", bytes.NewReader(body)), id.RoleAdmin, id.ShareholderID{})
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var resp map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func (s *LedgerHandlerSuite) TestCreateIssuance() {
	resp := s.issue(100, "10.50")

	s.Equal("CERT-2024-000001", resp["certificate_number"])
	s.Equal(float64(100), resp["shares"])
	s.Equal("10.5", resp["price_per_share"])
	s.Equal("1050", resp["total_value"])
}

func (s *LedgerHandlerSuite) TestCreateRejectsBadInput() {
	cases := []struct {
		name string
		body string
		code int
	}{
		{"malformed json", `{"shares":`, http.StatusBadRequest},
		{"bad shareholder id", `{"shareholder_id":"nope","shares":1,"price_per_share":"1.00"}`, http.StatusBadRequest},
		{"zero shares", `{"shareholder_id":"` + s.holderID.String() + `","shares":0,"price_per_share":"1.00"}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			req := asActor(httptest.NewRequest(http.MethodPost, "/issuances", bytes.NewReader([]byte(tc.body))), id.RoleAdmin, id.ShareholderID{})
			w := httptest.NewRecorder()
			s.router.ServeHTTP(w, req)
			s.Equal(tc.code, w.Code, w.Body.String())
		})
	}
}

func (s *LedgerHandlerSuite) TestGetScopesVisibility() {
	created := s.issue(100, "10.00")
	path := "/issuances/" + created["id"].(string)

	s.Run("owner sees the record", func() {
		req := asActor(httptest.NewRequest(http.MethodGet, path, nil), id.RoleShareholder, s.holderID)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("other shareholder gets not found", func() {
		req := asActor(httptest.NewRequest(http.MethodGet, path, nil), id.RoleShareholder, id.NewShareholderID())
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		s.Equal(http.StatusNotFound, w.Code)
	})

	s.Run("missing record matches denial exactly", func() {
		denied := httptest.NewRecorder()
		s.router.ServeHTTP(denied, asActor(httptest.NewRequest(http.MethodGet, path, nil), id.RoleShareholder, id.NewShareholderID()))

		missing := httptest.NewRecorder()
		s.router.ServeHTTP(missing, asActor(httptest.NewRequest(http.MethodGet, "/issuances/"+id.NewIssuanceID().String(), nil), id.RoleAdmin, id.ShareholderID{}))

		s.Equal(missing.Code, denied.Code)
		s.JSONEq(missing.Body.String(), denied.Body.String())
	})
}

func (s *LedgerHandlerSuite) TestListByRole() {
	s.issue(100, "10.00")

	s.Run("admin list includes shareholder identity", func() {
		req := asActor(httptest.NewRequest(http.MethodGet, "/issuances", nil), id.RoleAdmin, id.ShareholderID{})
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		s.Require().Equal(http.StatusOK, w.Code)

		var resp []map[string]any
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.Require().Len(resp, 1)
		s.Equal("Ada Example", resp[0]["shareholder_name"])
	})

	s.Run("shareholder list omits identity of others", func() {
		req := asActor(httptest.NewRequest(http.MethodGet, "/issuances", nil), id.RoleShareholder, s.holderID)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		s.Require().Equal(http.StatusOK, w.Code)

		var resp []map[string]any
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.Require().Len(resp, 1)
		s.NotContains(resp[0], "shareholder_name")
	})
}

func (s *LedgerHandlerSuite) TestCertificateRendering() {
	created := s.issue(100, "10.50")

	req := asActor(httptest.NewRequest(http.MethodGet, "/issuances/"+created["id"].(string)+"/certificate", nil), id.RoleShareholder, s.holderID)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Header().Get("Content-Type"), "text/html")
	body := w.Body.String()
	s.Contains(body, "Capledger Holdings")
	s.Contains(body, "Ada Example")
	s.Contains(body, "CERT-2024-000001")
	s.Contains(body, "1050.00")
}

func (s *LedgerHandlerSuite) TestSummaries() {
	s.issue(100, "10.00")
	s.issue(50, "10.00")

	req := asActor(httptest.NewRequest(http.MethodGet, "/shareholders/summaries", nil), id.RoleAdmin, id.ShareholderID{})
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp []map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Require().Len(resp, 1)
	s.Equal(float64(150), resp[0]["total_shares"])
	s.Equal(float64(2), resp[0]["issuance_count"])
	s.Equal("1500", resp[0]["total_value"])
}
