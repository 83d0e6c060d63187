package services

import (
	"context"
	"testing"

	"grantdesk/internal/models"
	"grantdesk/internal/testutil"
)

func TestUpsertUser(t *testing.T) {
	ctx := context.Background()

	t.Run("creates_new_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		user, err := svc.UpsertUser(ctx, " Alice@Example.edu ", "Alice", "Rao", models.RoleFaculty)
		testutil.AssertNoError(t, err)

		if user.ID == "" {
			t.Fatal("expected user ID")
		}
		if user.Email != "alice@example.edu" {
			t.Errorf("expected normalized email, got %s", user.Email)
		}
		if user.Role != models.RoleFaculty {
			t.Errorf("expected role FACULTY, got %s", user.Role)
		}
	})

	t.Run("updates_existing_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		first, err := svc.UpsertUser(ctx, "bob@example.edu", "Bob", "", models.RoleStaff)
		testutil.AssertNoError(t, err)

		second, err := svc.UpsertUser(ctx, "bob@example.edu", "Robert", "Das", models.RoleSupervisor)
		testutil.AssertNoError(t, err)

		if second.ID != first.ID {
			t.Errorf("expected same user ID %s, got %s", first.ID, second.ID)
		}
		if second.Role != models.RoleSupervisor || second.FirstName != "Robert" {
			t.Errorf("expected refreshed profile, got %+v", second)
		}

		var count int64
		db.Model(&models.User{}).Count(&count)
		if count != 1 {
			t.Errorf("expected 1 user row, got %d", count)
		}
	})

	t.Run("rejects_service_role", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.UpsertUser(ctx, "bot@example.edu", "", "", models.RoleService)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("empty_email", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewUserService(db)

		_, err := svc.UpsertUser(ctx, "  ", "", "", models.RoleStaff)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestGetUser(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)
	user := testutil.CreateTestUserWithEmail(t, db, "carol@example.edu", models.RoleStaff)

	t.Run("by_id", func(t *testing.T) {
		got, err := svc.GetUserByID(ctx, user.ID)
		testutil.AssertNoError(t, err)
		if got.Email != user.Email {
			t.Errorf("expected %s, got %s", user.Email, got.Email)
		}
	})

	t.Run("by_email_case_insensitive", func(t *testing.T) {
		got, err := svc.GetUserByEmail(ctx, "CAROL@example.edu")
		testutil.AssertNoError(t, err)
		if got.ID != user.ID {
			t.Errorf("expected %s, got %s", user.ID, got.ID)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		_, err := svc.GetUserByID(ctx, "0190b6a2-5c1e-7c3a-8e2f-3b4c5d6e7f80")
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")

		_, err = svc.GetUserByEmail(ctx, "nobody@example.edu")
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})
}

func TestListActiveByRole(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)

	testutil.CreateTestUser(t, db, models.RoleSupervisor)
	testutil.CreateTestUser(t, db, models.RoleSupervisor)
	inactive := testutil.CreateTestUser(t, db, models.RoleSupervisor)
	db.Model(inactive).Update("is_active", false)
	testutil.CreateTestUser(t, db, models.RoleStaff)

	users, err := svc.ListActiveByRole(ctx, models.RoleSupervisor)
	testutil.AssertNoError(t, err)
	if len(users) != 2 {
		t.Errorf("expected 2 active supervisors, got %d", len(users))
	}
}
