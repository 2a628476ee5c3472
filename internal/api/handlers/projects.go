package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/paulaPelizer/DocScriptum/internal/db/models"
	"github.com/paulaPelizer/DocScriptum/internal/services"
	"go.uber.org/zap"
)

type ProjectHandler struct {
	projectService *services.ProjectService
	logger         *zap.Logger
}

func NewProjectHandler(projectService *services.ProjectService, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		logger:         logger.With(zap.String("handler", "projects")),
	}
}

type projectBody struct {
	Code           string `json:"code"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	ClientID       *uint  `json:"clientId"`
	Status         string `json:"status"`
	StartDate      string `json:"startDate"`
	PlannedEndDate string `json:"plannedEndDate"`
}

func (b projectBody) toInput() services.ProjectInput {
	return services.ProjectInput{
		Code:           b.Code,
		Name:           b.Name,
		Description:    b.Description,
		ClientID:       b.ClientID,
		Status:         b.Status,
		StartDate:      parseDate(b.StartDate),
		PlannedEndDate: parseDate(b.PlannedEndDate),
	}
}

func projectJSON(project *models.Project) gin.H {
	out := gin.H{
		"id":             project.ID,
		"code":           project.Code,
		"name":           project.Name,
		"description":    project.Description,
		"clientId":       project.ClientID,
		"status":         project.Status,
		"startDate":      project.StartDate,
		"plannedEndDate": project.PlannedEndDate,
		"createdAt":      project.CreatedAt,
	}
	if project.Client != nil {
		out["client"] = gin.H{"id": project.Client.ID, "name": project.Client.Name}
	}
	return out
}

func (ph *ProjectHandler) Create(c *gin.Context) {
	var body projectBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	project, err := ph.projectService.Create(body.toInput())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, projectJSON(project))
}

func (ph *ProjectHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	project, err := ph.projectService.Get(id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, projectJSON(project))
}

func (ph *ProjectHandler) List(c *gin.Context) {
	filter := services.ProjectFilter{
		Status: c.Query("status"),
		Query:  c.Query("q"),
		Page:   queryInt(c, "page", 0),
		Size:   queryInt(c, "size", 20),
	}
	if raw := c.Query("clientId"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
			clientID := uint(id)
			filter.ClientID = &clientID
		}
	}

	projects, total, err := ph.projectService.List(filter)
	if err != nil {
		writeError(c, err)
		return
	}

	items := make([]gin.H, 0, len(projects))
	for i := range projects {
		items = append(items, projectJSON(&projects[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": total,
		"page":  filter.Page,
	})
}

func (ph *ProjectHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var body projectBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	project, err := ph.projectService.Update(id, body.toInput())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, projectJSON(project))
}

func (ph *ProjectHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := ph.projectService.Delete(id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
