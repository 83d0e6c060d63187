package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "grantdesk/internal/errors"
	"grantdesk/internal/fiscalyear"
	"grantdesk/internal/services"
)

// ArchiveHandler serves fiscal year-end archival.
type ArchiveHandler struct {
	archives services.ArchiveServicer
}

// NewArchiveHandler creates a new ArchiveHandler.
func NewArchiveHandler(archives services.ArchiveServicer) *ArchiveHandler {
	return &ArchiveHandler{archives: archives}
}

// ArchiveRequest represents the request payload for closing a fiscal year.
type ArchiveRequest struct {
	FiscalYear          string           `json:"fiscal_year" binding:"required,fiscal_year"`
	CarryForwardPercent *decimal.Decimal `json:"carry_forward_percent" swaggertype:"string" example:"50"`
	RollForward         bool             `json:"roll_forward"`
}

// ArchiveYearEnd handles the year-end close.
// @Summary     Archive fiscal year
// @Description Snapshot every entry of a fiscal year, splitting the remaining amount into carried and returned parts. With roll_forward the carried amounts are allocated in the next fiscal year.
// @Tags        budget-archives
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key header string         false "Replay protection key"
// @Param       request         body   ArchiveRequest true  "Archive options"
// @Success     201 {object} services.ArchiveResult "Archive result"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     409 {object} ErrorResponse "Already archived"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget/archives [post]
func (h *ArchiveHandler) ArchiveYearEnd(c *gin.Context) {
	actor, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ArchiveRequest
	if err := bindJSON(c, &req); err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.archives.ArchiveYearEnd(requestContext(c), actor, services.ArchiveInput{
		FiscalYear:          req.FiscalYear,
		CarryForwardPercent: req.CarryForwardPercent,
		RollForward:         req.RollForward,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// ListArchives handles listing archived lines of a fiscal year.
// @Summary     List archives
// @Tags        budget-archives
// @Produce     json
// @Security    BearerAuth
// @Param       fiscal_year query string false "Filter by fiscal year (YYYY-YY)"
// @Param       page        query int    false "Page number (default 1)"
// @Param       page_size   query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.BudgetArchive] "Paginated archives"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget/archives [get]
func (h *ArchiveHandler) ListArchives(c *gin.Context) {
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

	fiscalYear := c.Query("fiscal_year")
	if fiscalYear != "" && !fiscalyear.Valid(fiscalYear) {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "fiscal_year must look like 2024-25"))
		return
	}

	result, err := h.archives.ListArchives(requestContext(c), actor, fiscalYear, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
