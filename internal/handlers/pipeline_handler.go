package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"grantdesk/internal/models"
	"grantdesk/internal/services"
)

// PipelineHandler receives postings from the expense pipeline.
type PipelineHandler struct {
	ledger services.LedgerServicer
}

// NewPipelineHandler creates a new PipelineHandler.
func NewPipelineHandler(ledger services.LedgerServicer) *PipelineHandler {
	return &PipelineHandler{ledger: ledger}
}

// RecordExpenseRequest represents an expense posted by the pipeline.
type RecordExpenseRequest struct {
	ProjectID  string                `json:"project_id" binding:"required,uuid"`
	Category   models.BudgetCategory `json:"category" binding:"required,budget_category"`
	FiscalYear string                `json:"fiscal_year" binding:"required,fiscal_year"`
	Amount     decimal.Decimal       `json:"amount" binding:"required,gt=0" swaggertype:"string" example:"1200.50"`
	Reference  string                `json:"reference" binding:"max=128"`
}

// RecordExpense handles an expense posting.
// @Summary     Record expense
// @Description Add spending to a budget line's utilized amount. Authenticated with X-API-Key.
// @Tags        pipeline
// @Accept      json
// @Produce     json
// @Param       X-API-Key header string               true "Pipeline API key"
// @Param       request   body   RecordExpenseRequest true "Expense"
// @Success     201 {object} models.BudgetEntry "Updated entry"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     404 {object} ErrorResponse "Entry not found"
// @Failure     422 {object} ErrorResponse "Budget overrun"
// @Failure     503 {object} ErrorResponse "Pipeline not configured"
// @Router      /pipeline/expenses [post]
func (h *PipelineHandler) RecordExpense(c *gin.Context) {
	actor, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req RecordExpenseRequest
	if err := bindJSON(c, &req); err != nil {
		respondWithError(c, err)
		return
	}

	entry, err := h.ledger.RecordExpense(requestContext(c), actor, services.ExpenseInput{
		ProjectID:  req.ProjectID,
		Category:   req.Category,
		FiscalYear: req.FiscalYear,
		Amount:     req.Amount,
		Reference:  req.Reference,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"entry": entry})
}
