package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"grantdesk/internal/models"
	"grantdesk/internal/policy"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates an active user with the given role and a unique email.
func CreateTestUser(t *testing.T, db *gorm.DB, role models.UserRole) *models.User {
	t.Helper()
	n := nextID()
	return CreateTestUserWithEmail(t, db, fmt.Sprintf("user%d@test.edu", n), role)
}

// CreateTestUserWithEmail creates an active user with the given email and role.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string, role models.UserRole) *models.User {
	t.Helper()

	user := &models.User{
		Email:     email,
		FirstName: "Test",
		LastName:  fmt.Sprintf("User%d", nextID()),
		Role:      role,
		IsActive:  true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// Principal builds the acting principal for user.
func Principal(user *models.User) policy.Principal {
	return policy.Principal{UserID: user.ID, Email: user.Email, Role: user.Role}
}

// CreateTestProject creates an active project headed by headID.
func CreateTestProject(t *testing.T, db *gorm.DB, headID string) *models.Project {
	t.Helper()

	n := nextID()
	project := &models.Project{
		Code:     fmt.Sprintf("PRJ-%04d", n),
		Title:    fmt.Sprintf("Test Project %d", n),
		HeadID:   headID,
		IsActive: true,
	}
	if err := db.Create(project).Error; err != nil {
		t.Fatalf("failed to create test project: %v", err)
	}
	return project
}

// AddTestMember adds userID as an active member of projectID.
func AddTestMember(t *testing.T, db *gorm.DB, projectID, userID string) *models.ProjectMember {
	t.Helper()

	member := &models.ProjectMember{ProjectID: projectID, UserID: userID, IsActive: true}
	if err := db.Create(member).Error; err != nil {
		t.Fatalf("failed to create test project member: %v", err)
	}
	return member
}

// CreateTestEntry creates a budget entry with the given allocated and
// utilized amounts, written as decimal strings.
func CreateTestEntry(t *testing.T, db *gorm.DB, projectID string, category models.BudgetCategory, fiscalYear, allocated, utilized string) *models.BudgetEntry {
	t.Helper()

	entry := &models.BudgetEntry{
		ProjectID:       projectID,
		Category:        category,
		FiscalYear:      fiscalYear,
		AllocatedAmount: decimal.RequireFromString(allocated),
		UtilizedAmount:  decimal.RequireFromString(utilized),
	}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("failed to create test budget entry: %v", err)
	}
	return entry
}

// CreateTestRequest creates a pending budget request.
func CreateTestRequest(t *testing.T, db *gorm.DB, projectID, requestedBy string, category models.BudgetCategory, amount string) *models.BudgetRequest {
	t.Helper()

	req := &models.BudgetRequest{
		ProjectID:     projectID,
		RequestedBy:   requestedBy,
		Category:      category,
		Amount:        decimal.RequireFromString(amount),
		Justification: "Needed for the next phase of experiments",
		Status:        models.BudgetRequestPending,
	}
	if err := db.Create(req).Error; err != nil {
		t.Fatalf("failed to create test budget request: %v", err)
	}
	return req
}

// LoadEntry reloads the budget entry for a (project, category, fiscal year)
// key, failing the test if it does not exist.
func LoadEntry(t *testing.T, db *gorm.DB, projectID string, category models.BudgetCategory, fiscalYear string) *models.BudgetEntry {
	t.Helper()

	var entry models.BudgetEntry
	err := db.Where("project_id = ? AND category = ? AND fiscal_year = ?", projectID, category, fiscalYear).
		First(&entry).Error
	if err != nil {
		t.Fatalf("failed to load budget entry %s/%s/%s: %v", projectID, category, fiscalYear, err)
	}
	return &entry
}
