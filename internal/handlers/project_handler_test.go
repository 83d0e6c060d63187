package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "grantdesk/internal/errors"
	"grantdesk/internal/models"
	"grantdesk/internal/policy"
	"grantdesk/internal/services"
)

// --- mock project service ---

type mockProjectService struct {
	createProjectFn func(actor policy.Principal, code, title, headID string) (*models.Project, error)
	getProjectFn    func(actor policy.Principal, projectID string) (*models.Project, error)
	addMemberFn     func(actor policy.Principal, projectID, userID string) (*models.ProjectMember, error)
}

func (m *mockProjectService) CreateProject(_ context.Context, actor policy.Principal, code, title, headID string) (*models.Project, error) {
	if m.createProjectFn != nil {
		return m.createProjectFn(actor, code, title, headID)
	}
	return &models.Project{}, nil
}

func (m *mockProjectService) GetProject(_ context.Context, actor policy.Principal, projectID string) (*models.Project, error) {
	if m.getProjectFn != nil {
		return m.getProjectFn(actor, projectID)
	}
	return &models.Project{}, nil
}

func (m *mockProjectService) AddMember(_ context.Context, actor policy.Principal, projectID, userID string) (*models.ProjectMember, error) {
	if m.addMemberFn != nil {
		return m.addMemberFn(actor, projectID, userID)
	}
	return &models.ProjectMember{}, nil
}

var _ services.ProjectServicer = (*mockProjectService)(nil)

func setupProjectRouter(handler *ProjectHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectPrincipal(models.RoleAdmin))
	auth.POST("/projects", handler.CreateProject)
	auth.GET("/projects/:id", handler.GetProject)
	auth.POST("/projects/:id/members", handler.AddMember)
	return r
}

func TestProjectHandler_CreateProject(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		svc := &mockProjectService{
			createProjectFn: func(_ policy.Principal, code, title, headID string) (*models.Project, error) {
				return &models.Project{Code: code, Title: title, HeadID: headID}, nil
			},
		}
		r := setupProjectRouter(NewProjectHandler(svc))

		rec := doRequest(r, "POST", "/projects",
			`{"code":"BIO-17","title":"Protein folding","head_id":"`+testOtherID+`"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		project := parseJSON(t, rec)["project"].(map[string]interface{})
		if project["code"] != "BIO-17" {
			t.Errorf("expected BIO-17, got %v", project["code"])
		}
	})

	t.Run("returns 409 on duplicate code", func(t *testing.T) {
		svc := &mockProjectService{
			createProjectFn: func(policy.Principal, string, string, string) (*models.Project, error) {
				return nil, apperrors.ErrDuplicateProjectCode
			},
		}
		r := setupProjectRouter(NewProjectHandler(svc))

		rec := doRequest(r, "POST", "/projects",
			`{"code":"BIO-17","title":"Protein folding","head_id":"`+testOtherID+`"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_PROJECT_CODE")
	})

	t.Run("returns 400 on missing head", func(t *testing.T) {
		r := setupProjectRouter(NewProjectHandler(&mockProjectService{}))

		rec := doRequest(r, "POST", "/projects", `{"code":"BIO-17","title":"Protein folding"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestProjectHandler_AddMember(t *testing.T) {
	var gotProject, gotUser string
	svc := &mockProjectService{
		addMemberFn: func(_ policy.Principal, projectID, userID string) (*models.ProjectMember, error) {
			gotProject, gotUser = projectID, userID
			return &models.ProjectMember{ProjectID: projectID, UserID: userID, IsActive: true}, nil
		},
	}
	r := setupProjectRouter(NewProjectHandler(svc))

	rec := doRequest(r, "POST", "/projects/"+testProjectID+"/members", `{"user_id":"`+testOtherID+`"}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotProject != testProjectID || gotUser != testOtherID {
		t.Errorf("unexpected args project=%s user=%s", gotProject, gotUser)
	}
}

func TestProjectHandler_GetProject(t *testing.T) {
	svc := &mockProjectService{
		getProjectFn: func(policy.Principal, string) (*models.Project, error) {
			return nil, apperrors.ErrProjectNotFound
		},
	}
	r := setupProjectRouter(NewProjectHandler(svc))

	rec := doRequest(r, "GET", "/projects/"+testProjectID, "")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	assertErrorCode(t, parseJSON(t, rec), "PROJECT_NOT_FOUND")
}
