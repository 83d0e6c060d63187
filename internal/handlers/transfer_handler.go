package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "grantdesk/internal/errors"
	"grantdesk/internal/fiscalyear"
	"grantdesk/internal/models"
	"grantdesk/internal/services"
)

// TransferHandler serves moves of allocation between budget lines.
type TransferHandler struct {
	transfers services.TransferServicer
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transfers services.TransferServicer) *TransferHandler {
	return &TransferHandler{transfers: transfers}
}

// CreateTransferRequest represents the request payload for a transfer.
// Either side may be omitted to move money in from or out to the
// institution pool.
type CreateTransferRequest struct {
	FromProjectID string                `json:"from_project_id" binding:"omitempty,uuid"`
	FromCategory  models.BudgetCategory `json:"from_category" binding:"omitempty,budget_category"`
	ToProjectID   string                `json:"to_project_id" binding:"omitempty,uuid"`
	ToCategory    models.BudgetCategory `json:"to_category" binding:"omitempty,budget_category"`
	FiscalYear    string                `json:"fiscal_year" binding:"omitempty,fiscal_year"`
	Amount        decimal.Decimal       `json:"amount" binding:"required,gt=0" swaggertype:"string" example:"5000.00"`
	Reason        string                `json:"reason" binding:"required,max=2000"`
}

// TransferBudget handles moving allocation between budget lines.
// @Summary     Transfer budget
// @Description Move allocation from one (project, category) line to another within a fiscal year. Both sides change in one transaction.
// @Tags        budget-transfers
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key header string                false "Replay protection key"
// @Param       request         body   CreateTransferRequest true  "Transfer"
// @Success     201 {object} services.TransferResult "Transfer applied"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Source entry or project not found"
// @Failure     422 {object} ErrorResponse "Insufficient allocation"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget/transfers [post]
func (h *TransferHandler) TransferBudget(c *gin.Context) {
	actor, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransferRequest
	if err := bindJSON(c, &req); err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transfers.TransferBudget(requestContext(c), actor, services.TransferInput{
		FromProjectID: req.FromProjectID,
		FromCategory:  req.FromCategory,
		ToProjectID:   req.ToProjectID,
		ToCategory:    req.ToCategory,
		FiscalYear:    req.FiscalYear,
		Amount:        req.Amount,
		Reason:        req.Reason,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// ListTransfers handles listing transfer records.
// @Summary     List budget transfers
// @Tags        budget-transfers
// @Produce     json
// @Security    BearerAuth
// @Param       project_id  query string false "Filter by source or destination project"
// @Param       fiscal_year query string false "Filter by fiscal year (YYYY-YY)"
// @Param       page        query int    false "Page number (default 1)"
// @Param       page_size   query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.BudgetTransfer] "Paginated transfers"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget/transfers [get]
func (h *TransferHandler) ListTransfers(c *gin.Context) {
	actor, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	page, err := bindPage(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	projectID, err := optionalUUIDQuery(c, "project_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	filter := services.TransferFilter{ProjectID: projectID}
	if v := c.Query("fiscal_year"); v != "" {
		if !fiscalyear.Valid(v) {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "fiscal_year must look like 2024-25"))
			return
		}
		filter.FiscalYear = v
	}

	result, err := h.transfers.ListTransfers(requestContext(c), actor, filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
