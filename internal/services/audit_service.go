package services

import (
	"context"
	"encoding/json"

	"grantdesk/internal/logger"
	"grantdesk/internal/metrics"
	"grantdesk/internal/models"

	"gorm.io/gorm"
)

// Audit actions recorded by the ledger.
const (
	AuditAllocateBudget   = "ALLOCATE_BUDGET"
	AuditRecordExpense    = "RECORD_EXPENSE"
	AuditRequestBudget    = "REQUEST_BUDGET"
	AuditDecideRequest    = "DECIDE_BUDGET_REQUEST"
	AuditTransferBudget   = "TRANSFER_BUDGET"
	AuditArchiveYearEnd   = "ARCHIVE_YEAR_END"
	AuditCreateProject    = "CREATE_PROJECT"
	AuditAddProjectMember = "ADD_PROJECT_MEMBER"
)

// Audited resource types.
const (
	ResourceBudgetEntry    = "budget_entry"
	ResourceBudgetRequest  = "budget_request"
	ResourceBudgetTransfer = "budget_transfer"
	ResourceBudgetArchive  = "budget_archive"
	ResourceProject        = "project"
)

type clientIPKey struct{}

// ContextWithClientIP attaches the caller's address so audit entries can
// record it.
func ContextWithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

func clientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}

// auditService handles audit log recording.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log records an audit event. Errors are logged but never propagate
// to avoid disrupting the main operation.
func (s *auditService) Log(ctx context.Context, actorID, action, resourceType, resourceID string, oldValue, newValue map[string]any) {
	entry := &models.AuditLog{
		ActorID:      actorID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    clientIP(ctx),
		OldValue:     marshalAuditValue(oldValue, action),
		NewValue:     marshalAuditValue(newValue, action),
	}

	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		metrics.SideEffectFailures.WithLabelValues("audit").Inc()
		logger.Get().Errorw("failed to create audit log entry",
			"error", err,
			"actor_id", actorID,
			"action", action,
			"resource_type", resourceType,
			"resource_id", resourceID,
		)
	}
}

func marshalAuditValue(v map[string]any, action string) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		logger.Get().Errorw("failed to marshal audit log value", "error", err, "action", action)
		return "{}"
	}
	return string(data)
}
