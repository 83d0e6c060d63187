package services

import (
	"context"

	"github.com/shopspring/decimal"

	"grantdesk/internal/models"
	"grantdesk/internal/pagination"
	"grantdesk/internal/policy"
)

// UserServicer defines the contract for the local user directory.
type UserServicer interface {
	UpsertUser(ctx context.Context, email, firstName, lastName string, role models.UserRole) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListActiveByRole(ctx context.Context, role models.UserRole) ([]models.User, error)
}

// ProjectServicer defines the contract for project and membership management.
type ProjectServicer interface {
	CreateProject(ctx context.Context, actor policy.Principal, code, title, headID string) (*models.Project, error)
	GetProject(ctx context.Context, actor policy.Principal, projectID string) (*models.Project, error)
	AddMember(ctx context.Context, actor policy.Principal, projectID, userID string) (*models.ProjectMember, error)
}

// AllocateInput is a direct allocation of amount to one budget line.
type AllocateInput struct {
	ProjectID  string
	Category   models.BudgetCategory
	FiscalYear string
	Amount     decimal.Decimal
}

// ExpenseInput posts spending against one budget line.
type ExpenseInput struct {
	ProjectID  string
	Category   models.BudgetCategory
	FiscalYear string
	Amount     decimal.Decimal
	Reference  string
}

// EntryFilter holds optional filters for listing budget entries.
type EntryFilter struct {
	ProjectID  string
	Category   models.BudgetCategory
	FiscalYear string
}

// CategorySummary is the per-category rollup within a fiscal year.
type CategorySummary struct {
	Category           models.BudgetCategory `json:"category"`
	Allocated          decimal.Decimal       `json:"allocated"`
	Utilized           decimal.Decimal       `json:"utilized"`
	Remaining          decimal.Decimal       `json:"remaining"`
	UtilizationPercent int64                 `json:"utilization_percent"`
}

// FiscalYearSummary is the institution-wide rollup for one fiscal year.
type FiscalYearSummary struct {
	FiscalYear         string            `json:"fiscal_year"`
	TotalAllocated     decimal.Decimal   `json:"total_allocated"`
	TotalUtilized      decimal.Decimal   `json:"total_utilized"`
	TotalRemaining     decimal.Decimal   `json:"total_remaining"`
	UtilizationPercent int64             `json:"utilization_percent"`
	Categories         []CategorySummary `json:"categories"`
}

// LedgerServicer defines the contract for the live budget ledger.
type LedgerServicer interface {
	Allocate(ctx context.Context, actor policy.Principal, in AllocateInput) (*models.BudgetEntry, error)
	RecordExpense(ctx context.Context, actor policy.Principal, in ExpenseInput) (*models.BudgetEntry, error)
	GetEntry(ctx context.Context, actor policy.Principal, entryID string) (*models.BudgetEntry, error)
	ListEntries(ctx context.Context, actor policy.Principal, filter EntryFilter, page pagination.PageRequest) (*pagination.PageResponse[models.BudgetEntry], error)
	Summary(ctx context.Context, actor policy.Principal, fiscalYear string) (*FiscalYearSummary, error)
}

// BudgetRequestInput is a member's ask for more allocation.
type BudgetRequestInput struct {
	ProjectID     string
	Category      models.BudgetCategory
	Amount        decimal.Decimal
	Justification string
}

// DecisionInput is a supervisor's verdict on a pending request.
type DecisionInput struct {
	Action         models.BudgetRequestStatus
	ApprovedAmount *decimal.Decimal
	Comments       string
}

// RequestFilter holds optional filters for listing budget requests.
type RequestFilter struct {
	ProjectID string
	Status    models.BudgetRequestStatus
}

// RequestServicer defines the contract for the budget request workflow.
type RequestServicer interface {
	RequestBudget(ctx context.Context, actor policy.Principal, in BudgetRequestInput) (*models.BudgetRequest, error)
	ApproveRequest(ctx context.Context, actor policy.Principal, requestID string, in DecisionInput) (*models.BudgetRequest, error)
	GetRequest(ctx context.Context, actor policy.Principal, requestID string) (*models.BudgetRequest, error)
	ListRequests(ctx context.Context, actor policy.Principal, filter RequestFilter, page pagination.PageRequest) (*pagination.PageResponse[models.BudgetRequest], error)
}

// TransferInput moves Amount between two budget lines. A side is only
// touched when both its project and category are set.
type TransferInput struct {
	FromProjectID string
	FromCategory  models.BudgetCategory
	ToProjectID   string
	ToCategory    models.BudgetCategory
	FiscalYear    string
	Amount        decimal.Decimal
	Reason        string
}

// TransferResult is the transfer record plus the entries it changed.
type TransferResult struct {
	Transfer  *models.BudgetTransfer `json:"transfer"`
	FromEntry *models.BudgetEntry    `json:"from_entry,omitempty"`
	ToEntry   *models.BudgetEntry    `json:"to_entry,omitempty"`
}

// TransferFilter holds optional filters for listing transfers.
type TransferFilter struct {
	ProjectID  string
	FiscalYear string
}

// TransferServicer defines the contract for moving allocation between lines.
type TransferServicer interface {
	TransferBudget(ctx context.Context, actor policy.Principal, in TransferInput) (*TransferResult, error)
	ListTransfers(ctx context.Context, actor policy.Principal, filter TransferFilter, page pagination.PageRequest) (*pagination.PageResponse[models.BudgetTransfer], error)
}

// ArchiveInput controls a fiscal year-end close. A nil
// CarryForwardPercent means 100.
type ArchiveInput struct {
	FiscalYear          string
	CarryForwardPercent *decimal.Decimal
	RollForward         bool
}

// ArchiveResult describes one completed year-end close.
type ArchiveResult struct {
	FiscalYear          string                 `json:"fiscal_year"`
	CarryForwardPercent decimal.Decimal        `json:"carry_forward_percent"`
	RolledForwardTo     string                 `json:"rolled_forward_to,omitempty"`
	TotalCarried        decimal.Decimal        `json:"total_carried"`
	TotalReturned       decimal.Decimal        `json:"total_returned"`
	Archives            []models.BudgetArchive `json:"archives"`
}

// ArchiveServicer defines the contract for fiscal year-end archival.
type ArchiveServicer interface {
	ArchiveYearEnd(ctx context.Context, actor policy.Principal, in ArchiveInput) (*ArchiveResult, error)
	ListArchives(ctx context.Context, actor policy.Principal, fiscalYear string, page pagination.PageRequest) (*pagination.PageResponse[models.BudgetArchive], error)
}

// NotificationServicer delivers in-app notifications. Failures are logged,
// never returned.
type NotificationServicer interface {
	Notify(ctx context.Context, userID string, kind models.NotificationType, title, message, link string)
	NotifyRole(ctx context.Context, role models.UserRole, kind models.NotificationType, title, message, link string)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(ctx context.Context, actorID, action, resourceType, resourceID string, oldValue, newValue map[string]any)
}
