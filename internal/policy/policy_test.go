package policy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "grantdesk/internal/errors"
	"grantdesk/internal/models"
)

type fakeMembers struct {
	members map[string]bool
	err     error
	calls   int
}

func (f *fakeMembers) IsMember(_ context.Context, projectID, userID string) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return f.members[projectID+"/"+userID], nil
}

func codeOf(t *testing.T, err error) string {
	t.Helper()
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr), "expected *AppError, got %T", err)
	return appErr.Code
}

func TestDefaultPolicyParses(t *testing.T) {
	table, err := Default()
	require.NoError(t, err)
	assert.NotEmpty(t, table.Rules)
}

func TestAuthorize_RoleScopedActions(t *testing.T) {
	table, err := Default()
	require.NoError(t, err)
	authz := NewAuthorizer(table, &fakeMembers{})
	ctx := context.Background()

	tests := []struct {
		name     string
		role     models.UserRole
		resource Resource
		action   Action
		allowed  bool
	}{
		{"admin_allocates", models.RoleAdmin, ResourceBudgetEntry, ActionAllocate, true},
		{"supervisor_allocates", models.RoleSupervisor, ResourceBudgetEntry, ActionAllocate, true},
		{"faculty_cannot_allocate", models.RoleFaculty, ResourceBudgetEntry, ActionAllocate, false},
		{"staff_cannot_approve", models.RoleStaff, ResourceBudgetRequest, ActionApprove, false},
		{"supervisor_approves", models.RoleSupervisor, ResourceBudgetRequest, ActionApprove, true},
		{"admin_archives", models.RoleAdmin, ResourceBudgetArchive, ActionCreate, true},
		{"faculty_cannot_transfer", models.RoleFaculty, ResourceBudgetTransfer, ActionCreate, false},
		{"supervisor_cannot_create_project", models.RoleSupervisor, ResourceProject, ActionCreate, false},
		{"admin_creates_project", models.RoleAdmin, ResourceProject, ActionCreate, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Principal{UserID: "u1", Role: tt.role}
			err := authz.Authorize(ctx, p, tt.resource, tt.action, "")
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.Equal(t, "FORBIDDEN", codeOf(t, err))
			}
		})
	}
}

func TestAuthorize_ProjectMemberScope(t *testing.T) {
	table, err := Default()
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("member_may_request", func(t *testing.T) {
		members := &fakeMembers{members: map[string]bool{"p1/u1": true}}
		authz := NewAuthorizer(table, members)

		err := authz.Authorize(ctx, Principal{UserID: "u1", Role: models.RoleStaff}, ResourceBudgetRequest, ActionCreate, "p1")
		assert.NoError(t, err)
		assert.Equal(t, 1, members.calls)
	})

	t.Run("non_member_is_forbidden", func(t *testing.T) {
		authz := NewAuthorizer(table, &fakeMembers{})

		err := authz.Authorize(ctx, Principal{UserID: "u2", Role: models.RoleFaculty}, ResourceBudgetRequest, ActionCreate, "p1")
		assert.Equal(t, "FORBIDDEN", codeOf(t, err))
	})

	t.Run("missing_project_id_is_forbidden", func(t *testing.T) {
		authz := NewAuthorizer(table, &fakeMembers{members: map[string]bool{"p1/u1": true}})

		err := authz.Authorize(ctx, Principal{UserID: "u1", Role: models.RoleStaff}, ResourceBudgetRequest, ActionCreate, "")
		assert.Equal(t, "FORBIDDEN", codeOf(t, err))
	})

	t.Run("membership_errors_propagate", func(t *testing.T) {
		authz := NewAuthorizer(table, &fakeMembers{err: apperrors.ErrProjectNotFound})

		err := authz.Authorize(ctx, Principal{UserID: "u1", Role: models.RoleStaff}, ResourceBudgetRequest, ActionCreate, "p9")
		assert.Equal(t, "PROJECT_NOT_FOUND", codeOf(t, err))
	})

	t.Run("role_grant_skips_membership_lookup", func(t *testing.T) {
		members := &fakeMembers{}
		authz := NewAuthorizer(table, members)

		err := authz.Authorize(ctx, Principal{UserID: "u1", Role: models.RoleAdmin}, ResourceBudgetEntry, ActionRead, "p1")
		assert.NoError(t, err)
		assert.Zero(t, members.calls)
	})
}

func TestAuthorize_AnonymousPrincipal(t *testing.T) {
	table, err := Default()
	require.NoError(t, err)

	err = NewAuthorizer(table, nil).Authorize(context.Background(), Principal{Role: models.RoleAdmin}, ResourceBudgetEntry, ActionAllocate, "")
	assert.Equal(t, "UNAUTHORIZED", codeOf(t, err))
}

func TestParse_RejectsBadTables(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ``},
		{"unknown_scope", "[[rule]]\nroles=[\"ADMIN\"]\nresource=\"budget_entry\"\nactions=[\"read\"]\nscope=\"global\""},
		{"unknown_role", "[[rule]]\nroles=[\"ROOT\"]\nresource=\"budget_entry\"\nactions=[\"read\"]\nscope=\"any\""},
		{"missing_actions", "[[rule]]\nroles=[\"ADMIN\"]\nresource=\"budget_entry\"\nscope=\"any\""},
		{"malformed", "[[rule]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestAllows(t *testing.T) {
	table, err := Default()
	require.NoError(t, err)
	authz := NewAuthorizer(table, nil)

	assert.True(t, authz.Allows(Principal{UserID: "u", Role: models.RoleSupervisor}, ResourceBudgetRequest, ActionRead))
	assert.False(t, authz.Allows(Principal{UserID: "u", Role: models.RoleStaff}, ResourceBudgetRequest, ActionRead))
}
