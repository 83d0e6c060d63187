package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "grantdesk/internal/errors"
	"grantdesk/internal/models"
)

// entryKey is the natural key of a budget entry.
type entryKey struct {
	ProjectID  string
	Category   models.BudgetCategory
	FiscalYear string
}

func (k entryKey) where(db *gorm.DB) *gorm.DB {
	return db.Where("project_id = ? AND category = ? AND fiscal_year = ?", k.ProjectID, k.Category, k.FiscalYear)
}

func findEntry(db *gorm.DB, key entryKey) (*models.BudgetEntry, error) {
	var entry models.BudgetEntry
	if err := key.where(db).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetEntryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &entry, nil
}

// incrementAllocation adds amount to the entry's allocation, creating the
// entry when it does not exist. The insert and the increment are a single
// statement so concurrent callers never lose an update.
func incrementAllocation(tx *gorm.DB, key entryKey, amount decimal.Decimal) (*models.BudgetEntry, error) {
	entry := &models.BudgetEntry{
		ProjectID:       key.ProjectID,
		Category:        key.Category,
		FiscalYear:      key.FiscalYear,
		AllocatedAmount: amount,
		UtilizedAmount:  decimal.Zero,
	}

	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "project_id"}, {Name: "category"}, {Name: "fiscal_year"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"allocated_amount": gorm.Expr("budget_entries.allocated_amount + excluded.allocated_amount"),
			"updated_at":       time.Now(),
		}),
	}).Create(entry).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	// On conflict the generated ID is not the stored one.
	return findEntry(tx, key)
}

// decrementAllocation removes amount from an existing entry. The entry's
// allocation may not drop below what it has already utilized.
func decrementAllocation(tx *gorm.DB, key entryKey, amount decimal.Decimal) (*models.BudgetEntry, error) {
	res := key.where(tx.Model(&models.BudgetEntry{})).
		Where("allocated_amount - ? >= utilized_amount", amount).
		Updates(map[string]interface{}{
			"allocated_amount": gorm.Expr("allocated_amount - ?", amount),
			"updated_at":       time.Now(),
		})
	if res.Error != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := findEntry(tx, key); err != nil {
			return nil, err
		}
		return nil, apperrors.ErrInsufficientAllocation
	}
	return findEntry(tx, key)
}

// addUtilization posts amount against an existing entry. Unless
// allowOverrun is set, utilization may not exceed the allocation.
func addUtilization(tx *gorm.DB, key entryKey, amount decimal.Decimal, allowOverrun bool) (*models.BudgetEntry, error) {
	q := key.where(tx.Model(&models.BudgetEntry{}))
	if !allowOverrun {
		q = q.Where("utilized_amount + ? <= allocated_amount", amount)
	}
	res := q.Updates(map[string]interface{}{
		"utilized_amount": gorm.Expr("utilized_amount + ?", amount),
		"updated_at":      time.Now(),
	})
	if res.Error != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := findEntry(tx, key); err != nil {
			return nil, err
		}
		return nil, apperrors.ErrBudgetOverrun
	}
	return findEntry(tx, key)
}

// entrySnapshot is the audit view of an entry's figures.
func entrySnapshot(allocated, utilized decimal.Decimal) map[string]any {
	return map[string]any{
		"allocated_amount": allocated.String(),
		"utilized_amount":  utilized.String(),
	}
}

func validAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if !amount.Equal(amount.Round(2)) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount may have at most two decimal places")
	}
	return nil
}
