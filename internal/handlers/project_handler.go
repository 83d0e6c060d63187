package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"grantdesk/internal/services"
)

// ProjectHandler serves projects and their membership.
type ProjectHandler struct {
	projects services.ProjectServicer
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projects services.ProjectServicer) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// CreateProjectRequest represents the request payload for creating a project.
type CreateProjectRequest struct {
	Code   string `json:"code" binding:"required,min=2,max=32"`
	Title  string `json:"title" binding:"required,min=1,max=255"`
	HeadID string `json:"head_id" binding:"required,uuid"`
}

// AddMemberRequest represents the request payload for adding a project member.
type AddMemberRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

// CreateProject handles project creation.
// @Summary     Create a project
// @Tags        projects
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateProjectRequest true "Project details"
// @Success     201 {object} models.Project "Project created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Head user not found"
// @Failure     409 {object} ErrorResponse "Duplicate project code"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /projects [post]
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	actor, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateProjectRequest
	if err := bindJSON(c, &req); err != nil {
		respondWithError(c, err)
		return
	}

	project, err := h.projects.CreateProject(requestContext(c), actor, req.Code, req.Title, req.HeadID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"project": project})
}

// GetProject handles fetching a project with its active members.
// @Summary     Get a project
// @Tags        projects
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Project ID"
// @Success     200 {object} models.Project "Project"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Project not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /projects/{id} [get]
func (h *ProjectHandler) GetProject(c *gin.Context) {
	actor, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	projectID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	project, err := h.projects.GetProject(requestContext(c), actor, projectID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"project": project})
}

// AddMember handles adding a user to a project.
// @Summary     Add a project member
// @Tags        projects
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string           true "Project ID"
// @Param       request body AddMemberRequest true "Member"
// @Success     201 {object} models.ProjectMember "Member added"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Project or user not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /projects/{id}/members [post]
func (h *ProjectHandler) AddMember(c *gin.Context) {
	actor, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	projectID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AddMemberRequest
	if err := bindJSON(c, &req); err != nil {
		respondWithError(c, err)
		return
	}

	member, err := h.projects.AddMember(requestContext(c), actor, projectID, req.UserID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"member": member})
}
