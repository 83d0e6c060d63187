package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "grantdesk/internal/errors"
	"grantdesk/internal/middleware"
	"grantdesk/internal/models"
	"grantdesk/internal/policy"
	"grantdesk/internal/services"
)

func setupPipelineRouter(handler *PipelineHandler) *gin.Engine {
	r := gin.New()
	r.POST("/pipeline/expenses", middleware.PipelineAuthMiddleware("pipeline-key"), handler.RecordExpense)
	return r
}

func postExpense(r *gin.Engine, apiKey, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/pipeline/expenses", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", apiKey)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestPipelineHandler_RecordExpense(t *testing.T) {
	t.Run("records as the service principal", func(t *testing.T) {
		var gotActor policy.Principal
		var gotIn services.ExpenseInput
		svc := &mockLedgerService{
			recordExpenseFn: func(actor policy.Principal, in services.ExpenseInput) (*models.BudgetEntry, error) {
				gotActor, gotIn = actor, in
				return &models.BudgetEntry{UtilizedAmount: in.Amount}, nil
			},
		}
		r := setupPipelineRouter(NewPipelineHandler(svc))

		rec := postExpense(r, "pipeline-key",
			`{"project_id":"`+testProjectID+`","category":"TRAVEL","fiscal_year":"2024-25","amount":"1200.50","reference":"INV-1042"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotActor.Role != models.RoleService {
			t.Errorf("expected SERVICE principal, got %s", gotActor.Role)
		}
		if gotIn.Reference != "INV-1042" {
			t.Errorf("expected reference INV-1042, got %q", gotIn.Reference)
		}
	})

	t.Run("returns 422 on overrun", func(t *testing.T) {
		svc := &mockLedgerService{
			recordExpenseFn: func(policy.Principal, services.ExpenseInput) (*models.BudgetEntry, error) {
				return nil, apperrors.ErrBudgetOverrun
			},
		}
		r := setupPipelineRouter(NewPipelineHandler(svc))

		rec := postExpense(r, "pipeline-key",
			`{"project_id":"`+testProjectID+`","category":"TRAVEL","fiscal_year":"2024-25","amount":"99999"}`)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "BUDGET_OVERRUN")
	})

	t.Run("returns 401 on wrong key", func(t *testing.T) {
		r := setupPipelineRouter(NewPipelineHandler(&mockLedgerService{}))

		rec := postExpense(r, "nope", `{}`)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_API_KEY")
	})
}
