package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "grantdesk/internal/errors"
	"grantdesk/internal/models"
	"grantdesk/internal/services"
)

// RequestHandler serves the budget request workflow.
type RequestHandler struct {
	requests services.RequestServicer
}

// NewRequestHandler creates a new RequestHandler.
func NewRequestHandler(requests services.RequestServicer) *RequestHandler {
	return &RequestHandler{requests: requests}
}

// CreateBudgetRequest represents the request payload for asking for more budget.
type CreateBudgetRequest struct {
	ProjectID     string                `json:"project_id" binding:"required,uuid"`
	Category      models.BudgetCategory `json:"category" binding:"required,budget_category"`
	Amount        decimal.Decimal       `json:"amount" binding:"required,gt=0" swaggertype:"string" example:"25000.00"`
	Justification string                `json:"justification" binding:"required,max=4000"`
}

// DecisionRequest represents a supervisor's verdict on a pending request.
type DecisionRequest struct {
	Action         models.BudgetRequestStatus `json:"action" binding:"required,approval_action" enums:"APPROVED,PARTIALLY_APPROVED,REJECTED"`
	ApprovedAmount *decimal.Decimal           `json:"approved_amount" swaggertype:"string" example:"20000.00"`
	Comments       string                     `json:"comments" binding:"max=2000"`
}

// RequestBudget handles submission of a budget request.
// @Summary     Request budget
// @Description Ask for additional allocation on a project's budget line. The request starts PENDING and supervisors are notified.
// @Tags        budget-requests
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key header string              false "Replay protection key"
// @Param       request         body   CreateBudgetRequest true  "Request details"
// @Success     201 {object} models.BudgetRequest "Request created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Not a project member"
// @Failure     404 {object} ErrorResponse "Project not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget/requests [post]
func (h *RequestHandler) RequestBudget(c *gin.Context) {
	actor, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateBudgetRequest
	if err := bindJSON(c, &req); err != nil {
		respondWithError(c, err)
		return
	}

	request, err := h.requests.RequestBudget(requestContext(c), actor, services.BudgetRequestInput{
		ProjectID:     req.ProjectID,
		Category:      req.Category,
		Amount:        req.Amount,
		Justification: req.Justification,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"request": request})
}

// DecideRequest handles approval, partial approval or rejection.
// @Summary     Decide budget request
// @Description Approve, partially approve or reject a pending request. Approvals credit the line in the current fiscal year.
// @Tags        budget-requests
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key header string          false "Replay protection key"
// @Param       id              path   string          true  "Request ID"
// @Param       request         body   DecisionRequest true  "Decision"
// @Success     200 {object} models.BudgetRequest "Decided request"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Request not found"
// @Failure     409 {object} ErrorResponse "Already decided"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget/requests/{id}/decision [post]
func (h *RequestHandler) DecideRequest(c *gin.Context) {
	actor, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	requestID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req DecisionRequest
	if err := bindJSON(c, &req); err != nil {
		respondWithError(c, err)
		return
	}

	request, err := h.requests.ApproveRequest(requestContext(c), actor, requestID, services.DecisionInput{
		Action:         req.Action,
		ApprovedAmount: req.ApprovedAmount,
		Comments:       req.Comments,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"request": request})
}

// GetRequest handles fetching a single budget request.
// @Summary     Get budget request
// @Tags        budget-requests
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Request ID"
// @Success     200 {object} models.BudgetRequest "Request"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Request not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget/requests/{id} [get]
func (h *RequestHandler) GetRequest(c *gin.Context) {
	actor, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	requestID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	request, err := h.requests.GetRequest(requestContext(c), actor, requestID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"request": request})
}

// ListRequests handles listing budget requests.
// @Summary     List budget requests
// @Tags        budget-requests
// @Produce     json
// @Security    BearerAuth
// @Param       project_id query string false "Filter by project"
// @Param       status     query string false "Filter by status"
// @Param       page       query int    false "Page number (default 1)"
// @Param       page_size  query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.BudgetRequest] "Paginated requests"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budget/requests [get]
func (h *RequestHandler) ListRequests(c *gin.Context) {
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

	filter := services.RequestFilter{ProjectID: projectID}
	if v := c.Query("status"); v != "" {
		status := models.BudgetRequestStatus(v)
		if status != models.BudgetRequestPending && !status.IsTerminal() {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown request status"))
			return
		}
		filter.Status = status
	}

	result, err := h.requests.ListRequests(requestContext(c), actor, filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
