package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ucu-innovators/hub/backend/internal/config"
	"github.com/ucu-innovators/hub/backend/internal/middleware"
	"github.com/ucu-innovators/hub/backend/internal/models"
	"github.com/ucu-innovators/hub/backend/internal/services"
	"github.com/ucu-innovators/hub/backend/internal/storage"
	"github.com/ucu-innovators/hub/backend/pkg/response"
)

type ProjectHandler struct {
	projectService *services.ProjectService
	uploadCfg      *config.UploadConfig
}

func NewProjectHandler(projectService *services.ProjectService, uploadCfg *config.UploadConfig) *ProjectHandler {
	return &ProjectHandler{projectService: projectService, uploadCfg: uploadCfg}
}

// stringList accepts ["a","b"], "a, b" or a JSON encoded array string.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte(`"`)) {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		parsed, err := parseStringList(raw)
		if err != nil {
			return err
		}
		*l = parsed
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*l = list
	return nil
}

// teamList accepts an array of members or the same array as a JSON string.
type teamList []models.TeamMember

func (l *teamList) UnmarshalJSON(data []byte) error {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte(`"`)) {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		parsed, err := parseTeamMembers(raw)
		if err != nil {
			return err
		}
		*l = parsed
		return nil
	}
	var members []models.TeamMember
	if err := json.Unmarshal(data, &members); err != nil {
		return err
	}
	*l = members
	return nil
}

func parseStringList(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if strings.HasPrefix(raw, "[") {
		var list []string
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			return nil, response.NewValidation(response.FieldError{Field: "technologies", Message: "Technologies must be a list of strings"})
		}
		return list, nil
	}
	var list []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			list = append(list, part)
		}
	}
	return list, nil
}

func parseTeamMembers(raw string) ([]models.TeamMember, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var members []models.TeamMember
	if err := json.Unmarshal([]byte(raw), &members); err != nil {
		return nil, response.NewValidation(response.FieldError{Field: "teamMembers", Message: "Team members must be a JSON array"})
	}
	return members, nil
}

type createProjectPayload struct {
	Title        string     `json:"title" form:"title"`
	Description  string     `json:"description" form:"description"`
	Category     string     `json:"category" form:"category"`
	Faculty      string     `json:"faculty" form:"faculty"`
	Department   string     `json:"department" form:"department"`
	Technologies stringList `json:"technologies" form:"-"`
	GithubLink   string     `json:"githubLink" form:"githubLink"`
	LiveDemoLink string     `json:"liveDemoLink" form:"liveDemoLink"`
	ThumbnailURL string     `json:"thumbnailUrl" form:"thumbnailUrl"`
	TeamMembers  teamList   `json:"teamMembers" form:"-"`
	AcademicYear string     `json:"academicYear" form:"academicYear"`
}

func (p *createProjectPayload) request() *services.CreateProjectRequest {
	return &services.CreateProjectRequest{
		Title:        p.Title,
		Description:  p.Description,
		Category:     p.Category,
		Faculty:      p.Faculty,
		Department:   p.Department,
		Technologies: p.Technologies,
		GithubLink:   p.GithubLink,
		LiveDemoLink: p.LiveDemoLink,
		ThumbnailURL: p.ThumbnailURL,
		TeamMembers:  p.TeamMembers,
		AcademicYear: p.AcademicYear,
	}
}

// bindCreateProject reads either a multipart form with an optional "document"
// file or a JSON body. Bodies larger than one document plus the form
// fields are cut off while reading.
func bindCreateProject(c *gin.Context, uploadCfg *config.UploadConfig) (*services.CreateProjectRequest, *multipart.FileHeader, error) {
	var payload createProjectPayload

	if limit := storage.RequestLimit(uploadCfg); limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}
	tooLarge := func(err error) bool {
		var maxErr *http.MaxBytesError
		return errors.As(err, &maxErr)
	}

	if c.ContentType() != gin.MIMEMultipartPOSTForm {
		if err := c.ShouldBindJSON(&payload); err != nil {
			var appErr *response.AppError
			switch {
			case errors.As(err, &appErr):
				return nil, nil, appErr
			case tooLarge(err):
				return nil, nil, storage.TooLarge(uploadCfg)
			}
			return nil, nil, bindError(err)
		}
		return payload.request(), nil, nil
	}

	if err := c.ShouldBind(&payload); err != nil {
		if tooLarge(err) {
			return nil, nil, storage.TooLarge(uploadCfg)
		}
		return nil, nil, bindError(err)
	}

	var err error
	if payload.Technologies, err = parseStringList(c.PostForm("technologies")); err != nil {
		return nil, nil, err
	}
	if payload.TeamMembers, err = parseTeamMembers(c.PostForm("teamMembers")); err != nil {
		return nil, nil, err
	}

	document, err := c.FormFile("document")
	if err != nil {
		if !errors.Is(err, http.ErrMissingFile) {
			return nil, nil, response.NewBadRequest("Invalid document upload")
		}
		document = nil
	}

	return payload.request(), document, nil
}

// List returns approved projects, or all projects for reviewers
// GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	var req services.ProjectListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}

	result, err := h.projectService.List(c.Request.Context(), middleware.GetIdentity(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, response.NewPagination(result.Total, result.Page, result.Limit))
}

// Get returns one project and counts the view
// GET /api/projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	project, err := h.projectService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, project)
}

// ListMine returns the caller's submissions
// GET /api/projects/my-projects
func (h *ProjectHandler) ListMine(c *gin.Context) {
	projects, err := h.projectService.ListMine(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, projects)
}

// Create
// POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	req, document, err := bindCreateProject(c, h.uploadCfg)
	if err != nil {
		response.Error(c, err)
		return
	}

	project, err := h.projectService.Create(c.Request.Context(), middleware.GetIdentity(c), req, document)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, project)
}

type updateProjectPayload struct {
	Title        *string     `json:"title"`
	Description  *string     `json:"description"`
	Category     *string     `json:"category"`
	Faculty      *string     `json:"faculty"`
	Department   *string     `json:"department"`
	Technologies *stringList `json:"technologies"`
	GithubLink   *string     `json:"githubLink"`
	LiveDemoLink *string     `json:"liveDemoLink"`
	ThumbnailURL *string     `json:"thumbnailUrl"`
	TeamMembers  *teamList   `json:"teamMembers"`
	AcademicYear *string     `json:"academicYear"`
}

// Update
// PUT /api/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	var payload updateProjectPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		var appErr *response.AppError
		if errors.As(err, &appErr) {
			response.Error(c, appErr)
			return
		}
		response.Error(c, bindError(err))
		return
	}

	req := &services.UpdateProjectRequest{
		Title:        payload.Title,
		Description:  payload.Description,
		Category:     payload.Category,
		Faculty:      payload.Faculty,
		Department:   payload.Department,
		GithubLink:   payload.GithubLink,
		LiveDemoLink: payload.LiveDemoLink,
		ThumbnailURL: payload.ThumbnailURL,
		AcademicYear: payload.AcademicYear,
	}
	if payload.Technologies != nil {
		techs := []string(*payload.Technologies)
		req.Technologies = &techs
	}
	if payload.TeamMembers != nil {
		members := []models.TeamMember(*payload.TeamMembers)
		req.TeamMembers = &members
	}

	project, err := h.projectService.Update(c.Request.Context(), middleware.GetIdentity(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, project)
}

// Delete
// DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	if err := h.projectService.Delete(c.Request.Context(), middleware.GetIdentity(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, "Project deleted successfully")
}

// UpdateStatus records a review decision
// PATCH /api/projects/:id/status
func (h *ProjectHandler) UpdateStatus(c *gin.Context) {
	var req services.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}

	project, err := h.projectService.UpdateStatus(c.Request.Context(), middleware.GetIdentity(c), c.Param("id"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, project)
}
