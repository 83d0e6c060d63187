package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "grantdesk/internal/errors"
	"grantdesk/internal/models"
	"grantdesk/internal/policy"
)

// membership answers project-member questions for the policy gate.
type membership struct {
	db *gorm.DB
}

// NewMembership returns the MembershipChecker backed by the projects tables.
func NewMembership(db *gorm.DB) policy.MembershipChecker {
	return &membership{db: db}
}

// IsMember reports whether userID heads projectID or is an active member
// of it. A missing project is PROJECT_NOT_FOUND rather than false.
func (m *membership) IsMember(ctx context.Context, projectID, userID string) (bool, error) {
	project, err := findProject(m.db.WithContext(ctx), projectID)
	if err != nil {
		return false, err
	}
	if project.HeadID == userID {
		return true, nil
	}

	var count int64
	err = m.db.WithContext(ctx).Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ? AND is_active = ?", projectID, userID, true).
		Count(&count).Error
	if err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count > 0, nil
}

func findProject(db *gorm.DB, projectID string) (*models.Project, error) {
	var project models.Project
	if err := db.Where("id = ?", projectID).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProjectNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &project, nil
}

// projectService handles project and membership management.
type projectService struct {
	db    *gorm.DB
	authz *policy.Authorizer
	audit AuditServicer
}

// NewProjectService creates a new ProjectServicer.
func NewProjectService(db *gorm.DB, authz *policy.Authorizer, audit AuditServicer) ProjectServicer {
	return &projectService{db: db, authz: authz, audit: audit}
}

// CreateProject registers a project under an existing head user.
func (s *projectService) CreateProject(ctx context.Context, actor policy.Principal, code, title, headID string) (*models.Project, error) {
	if err := s.authz.Authorize(ctx, actor, policy.ResourceProject, policy.ActionCreate, ""); err != nil {
		return nil, err
	}

	code = strings.ToUpper(strings.TrimSpace(code))
	title = strings.TrimSpace(title)
	if code == "" || title == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "code and title are required")
	}

	db := s.db.WithContext(ctx)
	var head models.User
	if err := db.Where("id = ? AND is_active = ?", headID, true).First(&head).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var count int64
	if err := db.Model(&models.Project{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateProjectCode
	}

	project := &models.Project{Code: code, Title: title, HeadID: head.ID, IsActive: true}
	if err := db.Create(project).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrDuplicateProjectCode
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.audit.Log(ctx, actor.UserID, AuditCreateProject, ResourceProject, project.ID, nil, map[string]any{
		"code":    project.Code,
		"title":   project.Title,
		"head_id": project.HeadID,
	})
	return project, nil
}

// GetProject returns a project with its active members.
func (s *projectService) GetProject(ctx context.Context, actor policy.Principal, projectID string) (*models.Project, error) {
	if err := s.authz.Authorize(ctx, actor, policy.ResourceProject, policy.ActionRead, projectID); err != nil {
		return nil, err
	}

	var project models.Project
	err := s.db.WithContext(ctx).
		Preload("Members", "is_active = ?", true).
		Where("id = ?", projectID).
		First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProjectNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &project, nil
}

// AddMember adds userID to the project, reactivating a lapsed membership.
func (s *projectService) AddMember(ctx context.Context, actor policy.Principal, projectID, userID string) (*models.ProjectMember, error) {
	if err := s.authz.Authorize(ctx, actor, policy.ResourceProject, policy.ActionAddMember, projectID); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	if _, err := findProject(db, projectID); err != nil {
		return nil, err
	}

	var user models.User
	if err := db.Where("id = ? AND is_active = ?", userID, true).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	member := &models.ProjectMember{ProjectID: projectID, UserID: userID, IsActive: true}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "project_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_active", "updated_at"}),
	}).Create(member).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var stored models.ProjectMember
	if err := db.Where("project_id = ? AND user_id = ?", projectID, userID).First(&stored).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.audit.Log(ctx, actor.UserID, AuditAddProjectMember, ResourceProject, projectID, nil, map[string]any{
		"user_id": userID,
	})
	return &stored, nil
}
