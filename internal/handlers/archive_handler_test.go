package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "grantdesk/internal/errors"
	"grantdesk/internal/models"
	"grantdesk/internal/pagination"
	"grantdesk/internal/policy"
	"grantdesk/internal/services"
)

// --- mock archive service ---

type mockArchiveService struct {
	archiveYearEndFn func(actor policy.Principal, in services.ArchiveInput) (*services.ArchiveResult, error)
	listArchivesFn   func(actor policy.Principal, fiscalYear string, page pagination.PageRequest) (*pagination.PageResponse[models.BudgetArchive], error)
}

func (m *mockArchiveService) ArchiveYearEnd(_ context.Context, actor policy.Principal, in services.ArchiveInput) (*services.ArchiveResult, error) {
	if m.archiveYearEndFn != nil {
		return m.archiveYearEndFn(actor, in)
	}
	return &services.ArchiveResult{FiscalYear: in.FiscalYear}, nil
}

func (m *mockArchiveService) ListArchives(_ context.Context, actor policy.Principal, fiscalYear string, page pagination.PageRequest) (*pagination.PageResponse[models.BudgetArchive], error) {
	if m.listArchivesFn != nil {
		return m.listArchivesFn(actor, fiscalYear, page)
	}
	resp := pagination.NewPageResponse([]models.BudgetArchive{}, 1, 20, 0)
	return &resp, nil
}

var _ services.ArchiveServicer = (*mockArchiveService)(nil)

func setupArchiveRouter(handler *ArchiveHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectPrincipal(models.RoleAdmin))
	auth.POST("/budget/archives", handler.ArchiveYearEnd)
	auth.GET("/budget/archives", handler.ListArchives)
	return r
}

func TestArchiveHandler_ArchiveYearEnd(t *testing.T) {
	t.Run("passes percent and roll forward", func(t *testing.T) {
		var got services.ArchiveInput
		svc := &mockArchiveService{
			archiveYearEndFn: func(_ policy.Principal, in services.ArchiveInput) (*services.ArchiveResult, error) {
				got = in
				return &services.ArchiveResult{
					FiscalYear:          in.FiscalYear,
					CarryForwardPercent: *in.CarryForwardPercent,
					RolledForwardTo:     "2025-26",
					TotalCarried:        decimal.RequireFromString("300"),
					TotalReturned:       decimal.RequireFromString("300"),
					Archives:            []models.BudgetArchive{},
				}, nil
			},
		}
		r := setupArchiveRouter(NewArchiveHandler(svc))

		rec := doRequest(r, "POST", "/budget/archives",
			`{"fiscal_year":"2024-25","carry_forward_percent":"50","roll_forward":true}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.CarryForwardPercent == nil || !got.CarryForwardPercent.Equal(decimal.NewFromInt(50)) {
			t.Errorf("expected percent 50, got %v", got.CarryForwardPercent)
		}
		if !got.RollForward {
			t.Error("expected roll_forward to be passed")
		}
		result := parseJSON(t, rec)
		if result["rolled_forward_to"] != "2025-26" {
			t.Errorf("expected rolled_forward_to 2025-26, got %v", result["rolled_forward_to"])
		}
	})

	t.Run("percent is optional", func(t *testing.T) {
		var got services.ArchiveInput
		svc := &mockArchiveService{
			archiveYearEndFn: func(_ policy.Principal, in services.ArchiveInput) (*services.ArchiveResult, error) {
				got = in
				return &services.ArchiveResult{FiscalYear: in.FiscalYear}, nil
			},
		}
		r := setupArchiveRouter(NewArchiveHandler(svc))

		rec := doRequest(r, "POST", "/budget/archives", `{"fiscal_year":"2024-25"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
		if got.CarryForwardPercent != nil {
			t.Errorf("expected nil percent, got %v", got.CarryForwardPercent)
		}
	})

	t.Run("returns 409 when already archived", func(t *testing.T) {
		svc := &mockArchiveService{
			archiveYearEndFn: func(policy.Principal, services.ArchiveInput) (*services.ArchiveResult, error) {
				return nil, apperrors.ErrAlreadyArchived
			},
		}
		r := setupArchiveRouter(NewArchiveHandler(svc))

		rec := doRequest(r, "POST", "/budget/archives", `{"fiscal_year":"2024-25"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "ALREADY_ARCHIVED")
	})

	t.Run("returns 400 on bad fiscal year", func(t *testing.T) {
		r := setupArchiveRouter(NewArchiveHandler(&mockArchiveService{}))

		rec := doRequest(r, "POST", "/budget/archives", `{"fiscal_year":"FY25"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestArchiveHandler_ListArchives(t *testing.T) {
	var got string
	svc := &mockArchiveService{
		listArchivesFn: func(_ policy.Principal, fiscalYear string, _ pagination.PageRequest) (*pagination.PageResponse[models.BudgetArchive], error) {
			got = fiscalYear
			resp := pagination.NewPageResponse([]models.BudgetArchive{}, 1, 20, 0)
			return &resp, nil
		},
	}
	r := setupArchiveRouter(NewArchiveHandler(svc))

	rec := doRequest(r, "GET", "/budget/archives?fiscal_year=2023-24", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got != "2023-24" {
		t.Errorf("expected 2023-24, got %q", got)
	}
}
