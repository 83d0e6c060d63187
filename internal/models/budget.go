package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetCategory is the spending head a budget line is allocated under.
type BudgetCategory string

const (
	BudgetCategoryEquipment   BudgetCategory = "EQUIPMENT"
	BudgetCategoryConsumables BudgetCategory = "CONSUMABLES"
	BudgetCategoryTravel      BudgetCategory = "TRAVEL"
	BudgetCategoryManpower    BudgetCategory = "MANPOWER"
	BudgetCategoryContingency BudgetCategory = "CONTINGENCY"
	BudgetCategoryOverhead    BudgetCategory = "OVERHEAD"
	BudgetCategoryOther       BudgetCategory = "OTHER"
)

// BudgetCategories lists every accepted category.
var BudgetCategories = []BudgetCategory{
	BudgetCategoryEquipment,
	BudgetCategoryConsumables,
	BudgetCategoryTravel,
	BudgetCategoryManpower,
	BudgetCategoryContingency,
	BudgetCategoryOverhead,
	BudgetCategoryOther,
}

// IsValid reports whether c is one of the known categories.
func (c BudgetCategory) IsValid() bool {
	for _, known := range BudgetCategories {
		if c == known {
			return true
		}
	}
	return false
}

// BudgetEntry is the live allocation/utilization figure for one
// (project, category, fiscal year) slot.
type BudgetEntry struct {
	Base
	ProjectID       string          `gorm:"type:uuid;not null;uniqueIndex:idx_budget_entry_key" json:"project_id"`
	Category        BudgetCategory  `gorm:"size:32;not null;uniqueIndex:idx_budget_entry_key" json:"category"`
	FiscalYear      string          `gorm:"size:7;not null;uniqueIndex:idx_budget_entry_key;index" json:"fiscal_year"`
	AllocatedAmount decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"allocated_amount"`
	UtilizedAmount  decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"utilized_amount"`
}

// Remaining returns the unspent part of the allocation.
func (e *BudgetEntry) Remaining() decimal.Decimal {
	return e.AllocatedAmount.Sub(e.UtilizedAmount)
}

// BudgetRequestStatus is the lifecycle state of a budget request.
type BudgetRequestStatus string

const (
	BudgetRequestPending           BudgetRequestStatus = "PENDING"
	BudgetRequestApproved          BudgetRequestStatus = "APPROVED"
	BudgetRequestRejected          BudgetRequestStatus = "REJECTED"
	BudgetRequestPartiallyApproved BudgetRequestStatus = "PARTIALLY_APPROVED"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s BudgetRequestStatus) IsTerminal() bool {
	switch s {
	case BudgetRequestApproved, BudgetRequestRejected, BudgetRequestPartiallyApproved:
		return true
	}
	return false
}

// Grants reports whether reaching s adds money to the ledger.
func (s BudgetRequestStatus) Grants() bool {
	return s == BudgetRequestApproved || s == BudgetRequestPartiallyApproved
}

// BudgetRequest is a project member's ask for additional allocation.
type BudgetRequest struct {
	Base
	ProjectID      string              `gorm:"type:uuid;not null;index" json:"project_id"`
	RequestedBy    string              `gorm:"type:uuid;not null;index" json:"requested_by"`
	Category       BudgetCategory      `gorm:"size:32;not null" json:"category"`
	Amount         decimal.Decimal     `gorm:"type:numeric(20,2);not null" json:"amount"`
	Justification  string              `gorm:"type:text;not null" json:"justification"`
	Status         BudgetRequestStatus `gorm:"size:24;not null;default:'PENDING';index" json:"status"`
	ApprovedBy     *string             `gorm:"type:uuid" json:"approved_by,omitempty"`
	ApprovedAmount *decimal.Decimal    `gorm:"type:numeric(20,2)" json:"approved_amount,omitempty"`
	ApprovedAt     *time.Time          `json:"approved_at,omitempty"`
	FiscalYear     *string             `gorm:"size:7" json:"fiscal_year,omitempty"`
	Comments       string              `gorm:"type:text" json:"comments,omitempty"`
}

// BudgetTransfer is the immutable audit record of an amount moved between
// two (project, category) slots. Either side may be absent.
type BudgetTransfer struct {
	Base
	FromProjectID *string         `gorm:"type:uuid;index" json:"from_project_id,omitempty"`
	FromCategory  *BudgetCategory `gorm:"size:32" json:"from_category,omitempty"`
	ToProjectID   *string         `gorm:"type:uuid;index" json:"to_project_id,omitempty"`
	ToCategory    *BudgetCategory `gorm:"size:32" json:"to_category,omitempty"`
	FiscalYear    string          `gorm:"size:7;not null;index" json:"fiscal_year"`
	Amount        decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"amount"`
	Reason        string          `gorm:"type:text;not null" json:"reason"`
	TransferredBy string          `gorm:"type:uuid;not null" json:"transferred_by"`
}

// BudgetArchive freezes one entry's figures at fiscal year end.
type BudgetArchive struct {
	Base
	ProjectID           string          `gorm:"type:uuid;not null;uniqueIndex:idx_budget_archive_key" json:"project_id"`
	Category            BudgetCategory  `gorm:"size:32;not null;uniqueIndex:idx_budget_archive_key" json:"category"`
	FiscalYear          string          `gorm:"size:7;not null;uniqueIndex:idx_budget_archive_key;index" json:"fiscal_year"`
	AllocatedAmount     decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"allocated_amount"`
	UtilizedAmount      decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"utilized_amount"`
	CarriedForward      decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"carried_forward"`
	ReturnedAmount      decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"returned_amount"`
	CarryForwardPercent decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"carry_forward_percent"`
	ArchivedBy          string          `gorm:"type:uuid;not null" json:"archived_by"`
}
