package services

import (
	"context"
	"testing"

	"grantdesk/internal/models"
	"grantdesk/internal/testutil"
)

func TestNotify(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewNotificationService(db, NewUserService(db))
	user := testutil.CreateTestUser(t, db, models.RoleStaff)

	svc.Notify(context.Background(), user.ID, models.NotificationBudgetDecision, "Decided", "Your request was approved", "/budget/requests/1")

	var notes []models.Notification
	db.Where("user_id = ?", user.ID).Find(&notes)
	if len(notes) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notes))
	}
	if notes[0].Type != models.NotificationBudgetDecision || notes[0].IsRead {
		t.Errorf("unexpected notification %+v", notes[0])
	}
}

func TestNotifyRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewNotificationService(db, NewUserService(db))

	first := testutil.CreateTestUser(t, db, models.RoleSupervisor)
	second := testutil.CreateTestUser(t, db, models.RoleSupervisor)
	retired := testutil.CreateTestUser(t, db, models.RoleSupervisor)
	testutil.CreateTestUser(t, db, models.RoleStaff)
	db.Model(&models.User{}).Where("id = ?", retired.ID).Update("is_active", false)

	svc.NotifyRole(context.Background(), models.RoleSupervisor, models.NotificationBudgetRequest, "New request", "msg", "")

	var recipients []string
	db.Model(&models.Notification{}).Order("user_id").Pluck("user_id", &recipients)
	if len(recipients) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(recipients))
	}
	for _, id := range recipients {
		if id != first.ID && id != second.ID {
			t.Errorf("unexpected recipient %s", id)
		}
	}
}

func TestAuditLog(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAuditService(db)
	actor := testutil.CreateTestUser(t, db, models.RoleAdmin)

	ctx := ContextWithClientIP(context.Background(), "10.0.0.7")
	svc.Log(ctx, actor.ID, AuditAllocateBudget, ResourceBudgetEntry, "entry-1",
		map[string]any{"allocated_amount": "0"},
		map[string]any{"allocated_amount": "500000"},
	)

	var entry models.AuditLog
	if err := db.Where("actor_id = ?", actor.ID).First(&entry).Error; err != nil {
		t.Fatalf("expected audit entry: %v", err)
	}
	if entry.IPAddress != "10.0.0.7" {
		t.Errorf("expected ip 10.0.0.7, got %q", entry.IPAddress)
	}
	if entry.OldValue != `{"allocated_amount":"0"}` || entry.NewValue != `{"allocated_amount":"500000"}` {
		t.Errorf("unexpected values old=%s new=%s", entry.OldValue, entry.NewValue)
	}
}
