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

// LedgerOptions tunes ledger behaviour.
type LedgerOptions struct {
	// AllowOverrun lets expenses push utilization past the allocation.
	// Overruns are still logged and counted.
	AllowOverrun bool
}

// ledgerService owns the live budget entries.
type ledgerService struct {
	db    *gorm.DB
	authz *policy.Authorizer
	audit AuditServicer
	opts  LedgerOptions
}

// NewLedgerService creates a new LedgerServicer.
func NewLedgerService(db *gorm.DB, authz *policy.Authorizer, audit AuditServicer, opts LedgerOptions) LedgerServicer {
	return &ledgerService{db: db, authz: authz, audit: audit, opts: opts}
}

func validateKey(category models.BudgetCategory, fiscalYear string) error {
	if !category.IsValid() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown budget category")
	}
	if _, err := fiscalyear.Parse(fiscalYear); err != nil {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	return nil
}

// Allocate adds amount to a budget line, creating it on first allocation.
func (s *ledgerService) Allocate(ctx context.Context, actor policy.Principal, in AllocateInput) (*models.BudgetEntry, error) {
	if err := s.authz.Authorize(ctx, actor, policy.ResourceBudgetEntry, policy.ActionAllocate, in.ProjectID); err != nil {
		return nil, err
	}
	if err := validateKey(in.Category, in.FiscalYear); err != nil {
		return nil, err
	}
	if err := validAmount(in.Amount); err != nil {
		return nil, err
	}

	key := entryKey{ProjectID: in.ProjectID, Category: in.Category, FiscalYear: in.FiscalYear}
	var entry *models.BudgetEntry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findProject(tx, in.ProjectID); err != nil {
			return err
		}
		var err error
		entry, err = incrementAllocation(tx, key, in.Amount)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.Allocations.WithLabelValues("direct").Inc()
	metrics.AllocatedAmount.WithLabelValues("direct").Add(metrics.Float(in.Amount))
	s.audit.Log(ctx, actor.UserID, AuditAllocateBudget, ResourceBudgetEntry, entry.ID,
		entrySnapshot(entry.AllocatedAmount.Sub(in.Amount), entry.UtilizedAmount),
		entrySnapshot(entry.AllocatedAmount, entry.UtilizedAmount),
	)
	return entry, nil
}

// RecordExpense posts spending against an existing budget line.
func (s *ledgerService) RecordExpense(ctx context.Context, actor policy.Principal, in ExpenseInput) (*models.BudgetEntry, error) {
	if err := s.authz.Authorize(ctx, actor, policy.ResourceBudgetExpense, policy.ActionRecord, in.ProjectID); err != nil {
		return nil, err
	}
	if err := validateKey(in.Category, in.FiscalYear); err != nil {
		return nil, err
	}
	if err := validAmount(in.Amount); err != nil {
		return nil, err
	}

	key := entryKey{ProjectID: in.ProjectID, Category: in.Category, FiscalYear: in.FiscalYear}
	var entry *models.BudgetEntry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = addUtilization(tx, key, in.Amount, s.opts.AllowOverrun)
		return err
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrBudgetOverrun) {
			metrics.Expenses.WithLabelValues("blocked").Inc()
		}
		return nil, err
	}

	outcome := "posted"
	if entry.UtilizedAmount.GreaterThan(entry.AllocatedAmount) {
		outcome = "overrun"
		logger.Get().Warnw("budget entry overrun",
			"entry_id", entry.ID,
			"project_id", entry.ProjectID,
			"category", entry.Category,
			"fiscal_year", entry.FiscalYear,
			"allocated", entry.AllocatedAmount.String(),
			"utilized", entry.UtilizedAmount.String(),
		)
	}
	metrics.Expenses.WithLabelValues(outcome).Inc()

	newValue := entrySnapshot(entry.AllocatedAmount, entry.UtilizedAmount)
	if in.Reference != "" {
		newValue["reference"] = in.Reference
	}
	s.audit.Log(ctx, actor.UserID, AuditRecordExpense, ResourceBudgetEntry, entry.ID,
		entrySnapshot(entry.AllocatedAmount, entry.UtilizedAmount.Sub(in.Amount)),
		newValue,
	)
	return entry, nil
}

// GetEntry returns one budget entry.
func (s *ledgerService) GetEntry(ctx context.Context, actor policy.Principal, entryID string) (*models.BudgetEntry, error) {
	var entry models.BudgetEntry
	if err := s.db.WithContext(ctx).Where("id = ?", entryID).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetEntryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.authz.Authorize(ctx, actor, policy.ResourceBudgetEntry, policy.ActionRead, entry.ProjectID); err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListEntries returns budget entries. Callers without institution-wide
// read access must filter by a project they belong to.
func (s *ledgerService) ListEntries(
	ctx context.Context,
	actor policy.Principal,
	filter EntryFilter,
	page pagination.PageRequest,
) (*pagination.PageResponse[models.BudgetEntry], error) {
	if !s.authz.Allows(actor, policy.ResourceBudgetEntry, policy.ActionRead) {
		if filter.ProjectID == "" {
			return nil, apperrors.WithMessage(apperrors.ErrForbidden, "project_id filter is required")
		}
		if err := s.authz.Authorize(ctx, actor, policy.ResourceBudgetEntry, policy.ActionRead, filter.ProjectID); err != nil {
			return nil, err
		}
	}

	base := s.db.WithContext(ctx).Model(&models.BudgetEntry{})
	if filter.ProjectID != "" {
		base = base.Where("project_id = ?", filter.ProjectID)
	}
	if filter.Category != "" {
		base = base.Where("category = ?", filter.Category)
	}
	if filter.FiscalYear != "" {
		base = base.Where("fiscal_year = ?", filter.FiscalYear)
	}

	result, err := pagination.Find[models.BudgetEntry](base, page, "fiscal_year DESC, project_id, category")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

type categoryTotals struct {
	Category  models.BudgetCategory
	Allocated decimal.Decimal
	Utilized  decimal.Decimal
}

// Summary rolls up every entry in fiscalYear by category.
func (s *ledgerService) Summary(ctx context.Context, actor policy.Principal, fiscalYear string) (*FiscalYearSummary, error) {
	if err := s.authz.Authorize(ctx, actor, policy.ResourceBudgetSummary, policy.ActionRead, ""); err != nil {
		return nil, err
	}
	if _, err := fiscalyear.Parse(fiscalYear); err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}

	var rows []categoryTotals
	err := s.db.WithContext(ctx).Model(&models.BudgetEntry{}).
		Select("category, COALESCE(SUM(allocated_amount), 0) AS allocated, COALESCE(SUM(utilized_amount), 0) AS utilized").
		Where("fiscal_year = ?", fiscalYear).
		Group("category").
		Order("category").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	summary := &FiscalYearSummary{
		FiscalYear:     fiscalYear,
		TotalAllocated: decimal.Zero,
		TotalUtilized:  decimal.Zero,
		Categories:     make([]CategorySummary, 0, len(rows)),
	}
	for _, row := range rows {
		summary.TotalAllocated = summary.TotalAllocated.Add(row.Allocated)
		summary.TotalUtilized = summary.TotalUtilized.Add(row.Utilized)
		summary.Categories = append(summary.Categories, CategorySummary{
			Category:           row.Category,
			Allocated:          row.Allocated,
			Utilized:           row.Utilized,
			Remaining:          row.Allocated.Sub(row.Utilized),
			UtilizationPercent: utilizationPercent(row.Allocated, row.Utilized),
		})
	}
	summary.TotalRemaining = summary.TotalAllocated.Sub(summary.TotalUtilized)
	summary.UtilizationPercent = utilizationPercent(summary.TotalAllocated, summary.TotalUtilized)
	return summary, nil
}

// utilizationPercent is round(100 * utilized / allocated), or 0 when
// nothing is allocated.
func utilizationPercent(allocated, utilized decimal.Decimal) int64 {
	if !allocated.IsPositive() {
		return 0
	}
	return utilized.Mul(decimal.NewFromInt(100)).Div(allocated).Round(0).IntPart()
}
