package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "grantdesk/internal/errors"
	"grantdesk/internal/fiscalyear"
	"grantdesk/internal/metrics"
	"grantdesk/internal/models"
	"grantdesk/internal/pagination"
	"grantdesk/internal/policy"
)

const minReasonLength = 5

// transferService moves allocation between budget lines.
type transferService struct {
	db    *gorm.DB
	authz *policy.Authorizer
	audit AuditServicer
	now   func() time.Time
}

// NewTransferService creates a new TransferServicer. now supplies the
// default fiscal year and may be nil.
func NewTransferService(db *gorm.DB, authz *policy.Authorizer, audit AuditServicer, now func() time.Time) TransferServicer {
	if now == nil {
		now = time.Now
	}
	return &transferService{db: db, authz: authz, audit: audit, now: now}
}

func optional[T ~string](v T) *T {
	if v == "" {
		return nil
	}
	return &v
}

func validateTransfer(in *TransferInput) error {
	in.Reason = strings.TrimSpace(in.Reason)
	if len([]rune(in.Reason)) < minReasonLength {
		return apperrors.WithMessage(apperrors.ErrInvalidInput,
			fmt.Sprintf("reason must be at least %d characters", minReasonLength))
	}
	if err := validAmount(in.Amount); err != nil {
		return err
	}
	if in.FromProjectID == "" && in.FromCategory == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "from_project_id or from_category is required")
	}
	if in.ToProjectID == "" && in.ToCategory == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "to_project_id or to_category is required")
	}
	for _, c := range []models.BudgetCategory{in.FromCategory, in.ToCategory} {
		if c != "" && !c.IsValid() {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown budget category")
		}
	}
	if _, err := fiscalyear.Parse(in.FiscalYear); err != nil {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	if in.FromProjectID != "" && in.FromProjectID == in.ToProjectID &&
		in.FromCategory != "" && in.FromCategory == in.ToCategory {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "source and destination are the same budget line")
	}
	return nil
}

// TransferBudget records a transfer and applies it to whichever sides are
// fully specified. The record, the decrement and the increment commit
// together or not at all.
func (s *transferService) TransferBudget(ctx context.Context, actor policy.Principal, in TransferInput) (*TransferResult, error) {
	if err := s.authz.Authorize(ctx, actor, policy.ResourceBudgetTransfer, policy.ActionCreate, ""); err != nil {
		return nil, err
	}
	if in.FiscalYear == "" {
		in.FiscalYear = fiscalyear.For(s.now())
	}
	if err := validateTransfer(&in); err != nil {
		return nil, err
	}

	record := &models.BudgetTransfer{
		FromProjectID: optional(in.FromProjectID),
		FromCategory:  optional(in.FromCategory),
		ToProjectID:   optional(in.ToProjectID),
		ToCategory:    optional(in.ToCategory),
		FiscalYear:    in.FiscalYear,
		Amount:        in.Amount,
		Reason:        in.Reason,
		TransferredBy: actor.UserID,
	}
	result := &TransferResult{Transfer: record}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, id := range []string{in.FromProjectID, in.ToProjectID} {
			if id == "" {
				continue
			}
			if _, err := findProject(tx, id); err != nil {
				return err
			}
		}

		if err := tx.Create(record).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		var err error
		if in.FromProjectID != "" && in.FromCategory != "" {
			result.FromEntry, err = decrementAllocation(tx, entryKey{
				ProjectID:  in.FromProjectID,
				Category:   in.FromCategory,
				FiscalYear: in.FiscalYear,
			}, in.Amount)
			if err != nil {
				return err
			}
		}
		if in.ToProjectID != "" && in.ToCategory != "" {
			result.ToEntry, err = incrementAllocation(tx, entryKey{
				ProjectID:  in.ToProjectID,
				Category:   in.ToCategory,
				FiscalYear: in.FiscalYear,
			}, in.Amount)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.Transfers.Inc()
	metrics.TransferAmount.Observe(metrics.Float(in.Amount))

	newValue := map[string]any{
		"fiscal_year": record.FiscalYear,
		"amount":      record.Amount.String(),
		"reason":      record.Reason,
	}
	if result.FromEntry != nil {
		newValue["from_entry"] = entrySnapshot(result.FromEntry.AllocatedAmount, result.FromEntry.UtilizedAmount)
	}
	if result.ToEntry != nil {
		newValue["to_entry"] = entrySnapshot(result.ToEntry.AllocatedAmount, result.ToEntry.UtilizedAmount)
	}
	s.audit.Log(ctx, actor.UserID, AuditTransferBudget, ResourceBudgetTransfer, record.ID, nil, newValue)
	return result, nil
}

// ListTransfers returns transfers, newest first, optionally touching one project.
func (s *transferService) ListTransfers(
	ctx context.Context,
	actor policy.Principal,
	filter TransferFilter,
	page pagination.PageRequest,
) (*pagination.PageResponse[models.BudgetTransfer], error) {
	if err := s.authz.Authorize(ctx, actor, policy.ResourceBudgetTransfer, policy.ActionRead, ""); err != nil {
		return nil, err
	}

	base := s.db.WithContext(ctx).Model(&models.BudgetTransfer{})
	if filter.ProjectID != "" {
		base = base.Where("(from_project_id = ? OR to_project_id = ?)", filter.ProjectID, filter.ProjectID)
	}
	if filter.FiscalYear != "" {
		base = base.Where("fiscal_year = ?", filter.FiscalYear)
	}

	result, err := pagination.Find[models.BudgetTransfer](base, page, "created_at DESC, id DESC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}
