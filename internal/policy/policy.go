// Package policy is the single authorization gate of the ledger. Access is
// described by a declarative table of (role, resource, action, scope)
// rules instead of role checks scattered across handlers.
package policy

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	apperrors "grantdesk/internal/errors"
	"grantdesk/internal/models"
)

// Resource names a kind of protected object.
type Resource string

const (
	ResourceBudgetEntry    Resource = "budget_entry"
	ResourceBudgetExpense  Resource = "budget_expense"
	ResourceBudgetRequest  Resource = "budget_request"
	ResourceBudgetTransfer Resource = "budget_transfer"
	ResourceBudgetArchive  Resource = "budget_archive"
	ResourceBudgetSummary  Resource = "budget_summary"
	ResourceProject        Resource = "project"
)

// Action names an operation on a resource.
type Action string

const (
	ActionRead      Action = "read"
	ActionCreate    Action = "create"
	ActionAllocate  Action = "allocate"
	ActionApprove   Action = "approve"
	ActionRecord    Action = "record"
	ActionAddMember Action = "add_member"
)

// Scope narrows a rule beyond the caller's role.
type Scope string

const (
	ScopeAny           Scope = "any"
	ScopeProjectMember Scope = "project_member"
)

const anyRole = "*"

// Principal is the acting user as supplied by the identity provider.
type Principal struct {
	UserID string
	Email  string
	Role   models.UserRole
}

// Rule grants Actions on Resource to Roles within Scope.
type Rule struct {
	Roles    []string `toml:"roles"`
	Resource Resource `toml:"resource"`
	Actions  []Action `toml:"actions"`
	Scope    Scope    `toml:"scope"`
}

// Table is an ordered set of rules.
type Table struct {
	Rules []Rule `toml:"rule"`
}

//go:embed default_policy.toml
var defaultPolicy []byte

// Default returns the built-in policy table.
func Default() (*Table, error) {
	return Parse(defaultPolicy)
}

// LoadFile reads a policy table from a TOML file. An empty path yields
// the built-in table.
func LoadFile(path string) (*Table, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policy file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a TOML policy table.
func Parse(data []byte) (*Table, error) {
	var t Table
	if err := toml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing policy: %w", err)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *Table) validate() error {
	if len(t.Rules) == 0 {
		return fmt.Errorf("policy has no rules")
	}
	for i, r := range t.Rules {
		if r.Resource == "" || len(r.Actions) == 0 || len(r.Roles) == 0 {
			return fmt.Errorf("policy rule %d: roles, resource and actions are required", i)
		}
		switch r.Scope {
		case ScopeAny, ScopeProjectMember:
		default:
			return fmt.Errorf("policy rule %d: unknown scope %q", i, r.Scope)
		}
		for _, role := range r.Roles {
			ur := models.UserRole(role)
			if role != anyRole && ur != models.RoleService && !ur.IsAssignable() {
				return fmt.Errorf("policy rule %d: unknown role %q", i, role)
			}
		}
	}
	return nil
}

// scopesFor returns the scopes under which role may perform action on resource.
func (t *Table) scopesFor(role models.UserRole, resource Resource, action Action) (anyScope, memberScope bool) {
	for _, r := range t.Rules {
		if r.Resource != resource || !r.hasAction(action) || !r.hasRole(role) {
			continue
		}
		switch r.Scope {
		case ScopeAny:
			anyScope = true
		case ScopeProjectMember:
			memberScope = true
		}
	}
	return anyScope, memberScope
}

func (r Rule) hasRole(role models.UserRole) bool {
	for _, candidate := range r.Roles {
		if candidate == anyRole || models.UserRole(candidate) == role {
			return true
		}
	}
	return false
}

func (r Rule) hasAction(action Action) bool {
	for _, candidate := range r.Actions {
		if candidate == action {
			return true
		}
	}
	return false
}

// MembershipChecker answers whether a user heads or staffs a project.
type MembershipChecker interface {
	IsMember(ctx context.Context, projectID, userID string) (bool, error)
}

// Authorizer evaluates a Table for a principal.
type Authorizer struct {
	table   *Table
	members MembershipChecker
}

// NewAuthorizer creates an Authorizer over table. members may be nil when
// no rule uses the project_member scope.
func NewAuthorizer(table *Table, members MembershipChecker) *Authorizer {
	return &Authorizer{table: table, members: members}
}

// Authorize returns nil when p may perform action on resource. projectID
// is the project the call refers to, or empty when it refers to none.
func (a *Authorizer) Authorize(ctx context.Context, p Principal, resource Resource, action Action, projectID string) error {
	if p.UserID == "" {
		return apperrors.ErrUnauthorized
	}

	anyScope, memberScope := a.table.scopesFor(p.Role, resource, action)
	if anyScope {
		return nil
	}
	if !memberScope || projectID == "" || a.members == nil {
		return apperrors.ErrForbidden
	}

	ok, err := a.members.IsMember(ctx, projectID, p.UserID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.WithMessage(apperrors.ErrForbidden, "Caller is not a member of this project")
	}
	return nil
}

// Allows reports whether p holds resource/action without any project
// condition. Used to decide whether list queries need a membership filter.
func (a *Authorizer) Allows(p Principal, resource Resource, action Action) bool {
	anyScope, _ := a.table.scopesFor(p.Role, resource, action)
	return anyScope
}
