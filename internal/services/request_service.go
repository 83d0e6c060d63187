package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "grantdesk/internal/errors"
	"grantdesk/internal/fiscalyear"
	"grantdesk/internal/logger"
	"grantdesk/internal/mailer"
	"grantdesk/internal/metrics"
	"grantdesk/internal/models"
	"grantdesk/internal/pagination"
	"grantdesk/internal/policy"
)

const minJustificationLength = 10

// RequestOptions configures the outbound side of the request workflow.
type RequestOptions struct {
	MailFrom  string
	PortalURL string
	// Now returns the current time; the approval fiscal year is derived
	// from it. Defaults to time.Now.
	Now func() time.Time
}

// requestService handles budget requests and their decisions.
type requestService struct {
	db            *gorm.DB
	authz         *policy.Authorizer
	audit         AuditServicer
	notifications NotificationServicer
	mail          mailer.Mailer
	opts          RequestOptions
}

// NewRequestService creates a new RequestServicer.
func NewRequestService(
	db *gorm.DB,
	authz *policy.Authorizer,
	audit AuditServicer,
	notifications NotificationServicer,
	mail mailer.Mailer,
	opts RequestOptions,
) RequestServicer {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &requestService{
		db:            db,
		authz:         authz,
		audit:         audit,
		notifications: notifications,
		mail:          mail,
		opts:          opts,
	}
}

func (s *requestService) requestLink(id string) string {
	return strings.TrimRight(s.opts.PortalURL, "/") + "/budget/requests/" + id
}

// RequestBudget files a PENDING request on behalf of a project member and
// notifies every supervisor.
func (s *requestService) RequestBudget(ctx context.Context, actor policy.Principal, in BudgetRequestInput) (*models.BudgetRequest, error) {
	if err := s.authz.Authorize(ctx, actor, policy.ResourceBudgetRequest, policy.ActionCreate, in.ProjectID); err != nil {
		return nil, err
	}
	if !in.Category.IsValid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown budget category")
	}
	if err := validAmount(in.Amount); err != nil {
		return nil, err
	}
	justification := strings.TrimSpace(in.Justification)
	if len([]rune(justification)) < minJustificationLength {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput,
			fmt.Sprintf("justification must be at least %d characters", minJustificationLength))
	}

	req := &models.BudgetRequest{
		ProjectID:     in.ProjectID,
		RequestedBy:   actor.UserID,
		Category:      in.Category,
		Amount:        in.Amount,
		Justification: justification,
		Status:        models.BudgetRequestPending,
	}
	if err := s.db.WithContext(ctx).Create(req).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	metrics.RequestsCreated.Inc()
	s.audit.Log(ctx, actor.UserID, AuditRequestBudget, ResourceBudgetRequest, req.ID, nil, map[string]any{
		"project_id": req.ProjectID,
		"category":   req.Category,
		"amount":     req.Amount.String(),
		"status":     req.Status,
	})
	s.notifications.NotifyRole(ctx, models.RoleSupervisor, models.NotificationBudgetRequest,
		"New budget request",
		fmt.Sprintf("A %s request for %s is awaiting review.", req.Category, req.Amount.StringFixed(2)),
		s.requestLink(req.ID),
	)
	return req, nil
}

// decidedAmount resolves how much a decision grants.
func decidedAmount(req *models.BudgetRequest, in DecisionInput) (*decimal.Decimal, error) {
	switch in.Action {
	case models.BudgetRequestRejected:
		return nil, nil
	case models.BudgetRequestApproved:
		if in.ApprovedAmount != nil && !in.ApprovedAmount.Equal(req.Amount) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput,
				"approved_amount must equal the requested amount; use PARTIALLY_APPROVED for less")
		}
		amount := req.Amount
		return &amount, nil
	case models.BudgetRequestPartiallyApproved:
		if in.ApprovedAmount == nil {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "approved_amount is required for a partial approval")
		}
		if err := validAmount(*in.ApprovedAmount); err != nil {
			return nil, err
		}
		if in.ApprovedAmount.GreaterThan(req.Amount) {
			return nil, apperrors.ErrApprovedAmountTooHigh
		}
		amount := *in.ApprovedAmount
		return &amount, nil
	}
	return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "action must be APPROVED, REJECTED or PARTIALLY_APPROVED")
}

// ApproveRequest records a supervisor's decision. A granting decision adds
// the approved amount to the request's budget line for the current fiscal
// year in the same transaction as the status change.
func (s *requestService) ApproveRequest(ctx context.Context, actor policy.Principal, requestID string, in DecisionInput) (*models.BudgetRequest, error) {
	if err := s.authz.Authorize(ctx, actor, policy.ResourceBudgetRequest, policy.ActionApprove, ""); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	current, err := findRequest(db, requestID)
	if err != nil {
		return nil, err
	}
	if current.Status != models.BudgetRequestPending {
		return nil, apperrors.ErrRequestAlreadyDecided
	}

	amount, err := decidedAmount(current, in)
	if err != nil {
		return nil, err
	}

	now := s.opts.Now()
	updates := map[string]interface{}{
		"status":      in.Action,
		"approved_by": actor.UserID,
		"approved_at": now,
		"comments":    strings.TrimSpace(in.Comments),
		"updated_at":  now,
	}
	grants := in.Action.Grants()
	var year string
	if grants {
		year = fiscalyear.For(now)
		updates["approved_amount"] = *amount
		updates["fiscal_year"] = year
	}

	var entry *models.BudgetEntry
	err = db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.BudgetRequest{}).
			Where("id = ? AND status = ?", requestID, models.BudgetRequestPending).
			Updates(updates)
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrRequestAlreadyDecided
		}

		if !grants {
			return nil
		}
		var err error
		entry, err = incrementAllocation(tx, entryKey{
			ProjectID:  current.ProjectID,
			Category:   current.Category,
			FiscalYear: year,
		}, *amount)
		return err
	})
	if err != nil {
		return nil, err
	}

	decided, err := findRequest(db, requestID)
	if err != nil {
		return nil, err
	}

	metrics.RequestDecisions.WithLabelValues(string(decided.Status)).Inc()
	if grants {
		metrics.Allocations.WithLabelValues("request").Inc()
		metrics.AllocatedAmount.WithLabelValues("request").Add(metrics.Float(*amount))
	}

	newValue := map[string]any{"status": decided.Status}
	if grants {
		newValue["approved_amount"] = amount.String()
		newValue["fiscal_year"] = year
		newValue["entry_id"] = entry.ID
	}
	s.audit.Log(ctx, actor.UserID, AuditDecideRequest, ResourceBudgetRequest, decided.ID,
		map[string]any{"status": current.Status}, newValue)

	s.notifyDecision(ctx, decided)
	return decided, nil
}

// notifyDecision tells the requester about a decision in-app and by email.
// Failures are logged and never affect the decision.
func (s *requestService) notifyDecision(ctx context.Context, req *models.BudgetRequest) {
	link := s.requestLink(req.ID)
	message := fmt.Sprintf("Your %s request for %s was %s.", req.Category, req.Amount.StringFixed(2), req.Status)
	if req.ApprovedAmount != nil {
		message = fmt.Sprintf("Your %s request for %s was %s with %s granted.",
			req.Category, req.Amount.StringFixed(2), req.Status, req.ApprovedAmount.StringFixed(2))
	}
	s.notifications.Notify(ctx, req.RequestedBy, models.NotificationBudgetDecision, "Budget request decided", message, link)

	if s.mail == nil {
		return
	}
	if err := s.sendDecisionEmail(ctx, req, link); err != nil {
		metrics.SideEffectFailures.WithLabelValues("email").Inc()
		logger.Get().Errorw("failed to send decision email", "error", err, "request_id", req.ID)
	}
}

func (s *requestService) sendDecisionEmail(ctx context.Context, req *models.BudgetRequest, link string) error {
	db := s.db.WithContext(ctx)

	var requester models.User
	if err := db.Where("id = ?", req.RequestedBy).First(&requester).Error; err != nil {
		return fmt.Errorf("loading requester: %w", err)
	}
	project, err := findProject(db, req.ProjectID)
	if err != nil {
		return fmt.Errorf("loading project: %w", err)
	}

	data := mailer.Decision{
		RecipientName:   requester.FullName(),
		ProjectCode:     project.Code,
		ProjectTitle:    project.Title,
		Category:        string(req.Category),
		Status:          string(req.Status),
		RequestedAmount: req.Amount.StringFixed(2),
		Comments:        req.Comments,
		Link:            link,
	}
	if req.ApprovedAmount != nil {
		data.ApprovedAmount = req.ApprovedAmount.StringFixed(2)
	}
	if req.FiscalYear != nil {
		data.FiscalYear = *req.FiscalYear
	}

	subject, body, err := mailer.RenderDecision(data)
	if err != nil {
		return err
	}
	return s.mail.Send(ctx, mailer.Message{
		From:    s.opts.MailFrom,
		To:      requester.Email,
		Subject: subject,
		HTML:    body,
	})
}

func findRequest(db *gorm.DB, requestID string) (*models.BudgetRequest, error) {
	var req models.BudgetRequest
	if err := db.Where("id = ?", requestID).First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetRequestNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &req, nil
}

// GetRequest returns one budget request.
func (s *requestService) GetRequest(ctx context.Context, actor policy.Principal, requestID string) (*models.BudgetRequest, error) {
	req, err := findRequest(s.db.WithContext(ctx), requestID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, actor, policy.ResourceBudgetRequest, policy.ActionRead, req.ProjectID); err != nil {
		return nil, err
	}
	return req, nil
}

// ListRequests returns budget requests, newest first. Callers without
// institution-wide read access must filter by a project they belong to.
func (s *requestService) ListRequests(
	ctx context.Context,
	actor policy.Principal,
	filter RequestFilter,
	page pagination.PageRequest,
) (*pagination.PageResponse[models.BudgetRequest], error) {
	if !s.authz.Allows(actor, policy.ResourceBudgetRequest, policy.ActionRead) {
		if filter.ProjectID == "" {
			return nil, apperrors.WithMessage(apperrors.ErrForbidden, "project_id filter is required")
		}
		if err := s.authz.Authorize(ctx, actor, policy.ResourceBudgetRequest, policy.ActionRead, filter.ProjectID); err != nil {
			return nil, err
		}
	}

	base := s.db.WithContext(ctx).Model(&models.BudgetRequest{})
	if filter.ProjectID != "" {
		base = base.Where("project_id = ?", filter.ProjectID)
	}
	if filter.Status != "" {
		base = base.Where("status = ?", filter.Status)
	}

	result, err := pagination.Find[models.BudgetRequest](base, page, "created_at DESC, id DESC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}
