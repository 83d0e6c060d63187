package services

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "grantdesk/internal/errors"
	"grantdesk/internal/fiscalyear"
	"grantdesk/internal/logger"
	"grantdesk/internal/metrics"
	"grantdesk/internal/models"
	"grantdesk/internal/pagination"
	"grantdesk/internal/policy"
)

var hundred = decimal.NewFromInt(100)

// archiveService closes fiscal years.
type archiveService struct {
	db    *gorm.DB
	authz *policy.Authorizer
	audit AuditServicer
}

// NewArchiveService creates a new ArchiveServicer.
func NewArchiveService(db *gorm.DB, authz *policy.Authorizer, audit AuditServicer) ArchiveServicer {
	return &archiveService{db: db, authz: authz, audit: audit}
}

// splitRemaining divides an entry's remaining balance into the part carried
// forward and the part returned. carried + returned always equals the
// remaining balance; for an overspent entry both are zero or negative.
func splitRemaining(allocated, utilized, percent decimal.Decimal) (carried, returned decimal.Decimal) {
	remaining := allocated.Sub(utilized)
	carried = remaining.Mul(percent).Div(hundred).Round(2)
	return carried, remaining.Sub(carried)
}

// ArchiveYearEnd snapshots every entry of a fiscal year. Live entries are
// left as they are; with RollForward the carried amounts also seed the
// next fiscal year's entries.
func (s *archiveService) ArchiveYearEnd(ctx context.Context, actor policy.Principal, in ArchiveInput) (*ArchiveResult, error) {
	if err := s.authz.Authorize(ctx, actor, policy.ResourceBudgetArchive, policy.ActionCreate, ""); err != nil {
		return nil, err
	}
	if _, err := fiscalyear.Parse(in.FiscalYear); err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}

	percent := hundred
	if in.CarryForwardPercent != nil {
		percent = *in.CarryForwardPercent
	}
	if percent.IsNegative() || percent.GreaterThan(hundred) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "carry_forward_percent must be between 0 and 100")
	}

	result := &ArchiveResult{
		FiscalYear:          in.FiscalYear,
		CarryForwardPercent: percent,
		TotalCarried:        decimal.Zero,
		TotalReturned:       decimal.Zero,
		Archives:            []models.BudgetArchive{},
	}
	if in.RollForward {
		next, err := fiscalyear.Next(in.FiscalYear)
		if err != nil {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
		}
		result.RolledForwardTo = next
	}

	rolled := decimal.Zero
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var archived int64
		if err := tx.Model(&models.BudgetArchive{}).Where("fiscal_year = ?", in.FiscalYear).Count(&archived).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if archived > 0 {
			return alreadyArchived(in.FiscalYear)
		}

		var entries []models.BudgetEntry
		if err := tx.Where("fiscal_year = ?", in.FiscalYear).Order("project_id, category").Find(&entries).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		for _, entry := range entries {
			carried, returned := splitRemaining(entry.AllocatedAmount, entry.UtilizedAmount, percent)
			archive := models.BudgetArchive{
				ProjectID:           entry.ProjectID,
				Category:            entry.Category,
				FiscalYear:          entry.FiscalYear,
				AllocatedAmount:     entry.AllocatedAmount,
				UtilizedAmount:      entry.UtilizedAmount,
				CarriedForward:      carried,
				ReturnedAmount:      returned,
				CarryForwardPercent: percent,
				ArchivedBy:          actor.UserID,
			}
			if err := tx.Create(&archive).Error; err != nil {
				// A concurrent run archived the same line first.
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return alreadyArchived(in.FiscalYear)
				}
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			result.Archives = append(result.Archives, archive)
			result.TotalCarried = result.TotalCarried.Add(carried)
			result.TotalReturned = result.TotalReturned.Add(returned)

			if in.RollForward && carried.IsPositive() {
				if _, err := incrementAllocation(tx, entryKey{
					ProjectID:  entry.ProjectID,
					Category:   entry.Category,
					FiscalYear: result.RolledForwardTo,
				}, carried); err != nil {
					return err
				}
				rolled = rolled.Add(carried)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ArchivedEntries.Add(float64(len(result.Archives)))
	if rolled.IsPositive() {
		metrics.Allocations.WithLabelValues("roll_forward").Inc()
		metrics.AllocatedAmount.WithLabelValues("roll_forward").Add(metrics.Float(rolled))
	}
	logger.Get().Infow("fiscal year archived",
		"fiscal_year", in.FiscalYear,
		"entries", len(result.Archives),
		"carried", result.TotalCarried.String(),
		"returned", result.TotalReturned.String(),
		"rolled_forward_to", result.RolledForwardTo,
	)

	s.audit.Log(ctx, actor.UserID, AuditArchiveYearEnd, ResourceBudgetArchive, in.FiscalYear, nil, map[string]any{
		"fiscal_year":           in.FiscalYear,
		"carry_forward_percent": percent.String(),
		"entries":               len(result.Archives),
		"total_carried":         result.TotalCarried.String(),
		"total_returned":        result.TotalReturned.String(),
		"rolled_forward_to":     result.RolledForwardTo,
	})
	return result, nil
}

func alreadyArchived(fiscalYear string) error {
	return apperrors.WithMessage(apperrors.ErrAlreadyArchived, "Fiscal year "+fiscalYear+" has already been archived")
}

// ListArchives returns archive snapshots, optionally for one fiscal year.
func (s *archiveService) ListArchives(
	ctx context.Context,
	actor policy.Principal,
	fiscalYear string,
	page pagination.PageRequest,
) (*pagination.PageResponse[models.BudgetArchive], error) {
	if err := s.authz.Authorize(ctx, actor, policy.ResourceBudgetArchive, policy.ActionRead, ""); err != nil {
		return nil, err
	}

	base := s.db.WithContext(ctx).Model(&models.BudgetArchive{})
	if fiscalYear != "" {
		base = base.Where("fiscal_year = ?", fiscalYear)
	}

	result, err := pagination.Find[models.BudgetArchive](base, page, "fiscal_year DESC, project_id, category")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}
