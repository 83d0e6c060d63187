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

// BudgetHandler serves the live ledger: allocations, entries and the
// fiscal year summary.
type BudgetHandler struct {
	ledger services.LedgerServicer
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(ledger services.LedgerServicer) *BudgetHandler {
	return &BudgetHandler{ledger: ledger}
}

// AllocateRequest represents the request payload for a direct allocation.
type AllocateRequest struct {
	ProjectID  string                `json:"project_id" binding:"required,uuid"`
	Category   models.BudgetCategory `json:"category" binding:"required,budget_category"`
	FiscalYear string                `json:"fiscal_year" binding:"required,fiscal_year"`
	Amount     decimal.Decimal       `json:"amount" binding:"required,gt=0" swaggertype:"string" example:"150000.00"`
}

// Allocate handles a direct allocation to a budget line.
// @Summary     Allocate budget
// @Description Add an amount to the allocation of a (project, category, fiscal year) line, creating the line on first use
// @Tags        budget
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key header string          false "Replay protection key"
// @Param       request         body   AllocateRequest true  "Allocation"
// @Success     201 {object} models.BudgetEntry "Updated entry"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Project not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget/allocations [post]
func (h *BudgetHandler) Allocate(c *gin.Context) {
	actor, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AllocateRequest
	if err := bindJSON(c, &req); err != nil {
		respondWithError(c, err)
		return
	}

	entry, err := h.ledger.Allocate(requestContext(c), actor, services.AllocateInput{
		ProjectID:  req.ProjectID,
		Category:   req.Category,
		FiscalYear: req.FiscalYear,
		Amount:     req.Amount,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"entry": entry})
}

// ListEntries handles listing budget entries.
// @Summary     List budget entries
// @Description Get a paginated list of budget entries. Callers without institution-wide access must filter by a project they belong to.
// @Tags        budget
// @Produce     json
// @Security    BearerAuth
// @Param       project_id  query string false "Filter by project"
// @Param       category    query string false "Filter by category"
// @Param       fiscal_year query string false "Filter by fiscal year (YYYY-YY)"
// @Param       page        query int    false "Page number (default 1)"
// @Param       page_size   query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.BudgetEntry] "Paginated entries"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget/entries [get]
func (h *BudgetHandler) ListEntries(c *gin.Context) {
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

	filter, err := entryFilterFromQuery(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.ledger.ListEntries(requestContext(c), actor, filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func entryFilterFromQuery(c *gin.Context) (services.EntryFilter, error) {
	var filter services.EntryFilter

	projectID, err := optionalUUIDQuery(c, "project_id")
	if err != nil {
		return filter, err
	}
	filter.ProjectID = projectID

	if v := c.Query("category"); v != "" {
		category := models.BudgetCategory(v)
		if !category.IsValid() {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown budget category")
		}
		filter.Category = category
	}

	if v := c.Query("fiscal_year"); v != "" {
		if !fiscalyear.Valid(v) {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "fiscal_year must look like 2024-25")
		}
		filter.FiscalYear = v
	}
	return filter, nil
}

// GetEntry handles fetching a single budget entry.
// @Summary     Get budget entry
// @Tags        budget
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Entry ID"
// @Success     200 {object} models.BudgetEntry "Entry"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Entry not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget/entries/{id} [get]
func (h *BudgetHandler) GetEntry(c *gin.Context) {
	actor, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	entryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	entry, err := h.ledger.GetEntry(requestContext(c), actor, entryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entry": entry})
}

// Summary handles the institution-wide rollup for one fiscal year.
// @Summary     Fiscal year summary
// @Description Totals and per-category breakdown of allocated, utilized and remaining amounts
// @Tags        budget
// @Produce     json
// @Security    BearerAuth
// @Param       fiscal_year query string true "Fiscal year (YYYY-YY)"
// @Success     200 {object} services.FiscalYearSummary "Summary"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget/summary [get]
func (h *BudgetHandler) Summary(c *gin.Context) {
	actor, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	fiscalYear := c.Query("fiscal_year")
	if !fiscalyear.Valid(fiscalYear) {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "fiscal_year must look like 2024-25"))
		return
	}

	summary, err := h.ledger.Summary(requestContext(c), actor, fiscalYear)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
