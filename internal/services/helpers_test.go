package services

import (
	"context"
	"sync"
	"testing"

	"gorm.io/gorm"

	"grantdesk/internal/mailer"
	"grantdesk/internal/models"
	"grantdesk/internal/policy"
	"grantdesk/internal/testutil"
)

const fy = "2024-25"

func newTestAuthorizer(t *testing.T, db *gorm.DB) *policy.Authorizer {
	t.Helper()
	table, err := policy.Default()
	if err != nil {
		t.Fatalf("failed to load default policy: %v", err)
	}
	return policy.NewAuthorizer(table, NewMembership(db))
}

// ledgerFixture is a project with a head, a staff member, an outsider and
// a supervisor, plus services wired over one database.
type ledgerFixture struct {
	db         *gorm.DB
	authz      *policy.Authorizer
	audit      AuditServicer
	admin      *models.User
	supervisor *models.User
	head       *models.User
	staff      *models.User
	outsider   *models.User
	project    *models.Project
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	f := &ledgerFixture{
		db:         db,
		authz:      newTestAuthorizer(t, db),
		audit:      NewAuditService(db),
		admin:      testutil.CreateTestUser(t, db, models.RoleAdmin),
		supervisor: testutil.CreateTestUser(t, db, models.RoleSupervisor),
		head:       testutil.CreateTestUser(t, db, models.RoleFaculty),
		staff:      testutil.CreateTestUser(t, db, models.RoleStaff),
		outsider:   testutil.CreateTestUser(t, db, models.RoleStaff),
	}
	f.project = testutil.CreateTestProject(t, db, f.head.ID)
	testutil.AddTestMember(t, db, f.project.ID, f.staff.ID)
	return f
}

func (f *ledgerFixture) countAudit(t *testing.T, action string) int64 {
	t.Helper()
	var count int64
	f.db.Model(&models.AuditLog{}).Where("action = ?", action).Count(&count)
	return count
}

// recordingMailer captures messages instead of delivering them.
type recordingMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}
