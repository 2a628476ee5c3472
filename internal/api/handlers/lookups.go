package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/paulaPelizer/DocScriptum/internal/db/models"
	"github.com/paulaPelizer/DocScriptum/internal/services"
	"go.uber.org/zap"
)

// LookupHandler serves the discipline matrix and the aggregated
// new-document form data.
type LookupHandler struct {
	lookupService *services.LookupService
	logger        *zap.Logger
}

func NewLookupHandler(lookupService *services.LookupService, logger *zap.Logger) *LookupHandler {
	return &LookupHandler{
		lookupService: lookupService,
		logger:        logger.With(zap.String("handler", "lookups")),
	}
}

type docTypeBody struct {
	DocType  string `json:"docType"`
	Quantity int    `json:"quantity"`
}

type disciplineBody struct {
	Name              string        `json:"name"`
	ClientRecipient   string        `json:"clientRecipient"`
	InternalRecipient string        `json:"internalRecipient"`
	DocTypes          []docTypeBody `json:"docTypes"`
}

func disciplineJSON(d *models.ProjectDiscipline) gin.H {
	docTypes := make([]gin.H, 0, len(d.DocTypes))
	for i := range d.DocTypes {
		dt := &d.DocTypes[i]
		docTypes = append(docTypes, gin.H{
			"id":       dt.ID,
			"docType":  dt.DocType,
			"quantity": dt.Quantity,
		})
	}
	return gin.H{
		"id":                d.ID,
		"projectId":         d.ProjectID,
		"name":              d.Name,
		"clientRecipient":   d.ClientRecipient,
		"internalRecipient": d.InternalRecipient,
		"docTypes":          docTypes,
	}
}

// Disciplines lists the project's discipline matrix.
func (lh *LookupHandler) Disciplines(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	rows, err := lh.lookupService.Disciplines(id)
	if err != nil {
		writeError(c, err)
		return
	}
	items := make([]gin.H, 0, len(rows))
	for i := range rows {
		items = append(items, disciplineJSON(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// SetDisciplines replaces the project's discipline matrix.
func (lh *LookupHandler) SetDisciplines(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var body []disciplineBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	inputs := make([]services.DisciplineInput, 0, len(body))
	for _, b := range body {
		input := services.DisciplineInput{
			Name:              b.Name,
			ClientRecipient:   b.ClientRecipient,
			InternalRecipient: b.InternalRecipient,
		}
		for _, dt := range b.DocTypes {
			input.DocTypes = append(input.DocTypes, services.DocTypeInput{
				DocType:  dt.DocType,
				Quantity: dt.Quantity,
			})
		}
		inputs = append(inputs, input)
	}

	rows, err := lh.lookupService.SetDisciplines(id, inputs)
	if err != nil {
		writeError(c, err)
		return
	}
	items := make([]gin.H, 0, len(rows))
	for i := range rows {
		items = append(items, disciplineJSON(&rows[i]))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// FormData aggregates every lookup the new-document form needs.
func (lh *LookupHandler) FormData(c *gin.Context) {
	projectID, err := strconv.ParseUint(c.Query("projectId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "projectId is required"})
		return
	}

	data, err := lh.lookupService.FormData(uint(projectID))
	if err != nil {
		writeError(c, err)
		return
	}

	disciplines := make([]gin.H, 0, len(data.Disciplines))
	for i := range data.Disciplines {
		disciplines = append(disciplines, disciplineJSON(&data.Disciplines[i]))
	}
	docTypes := make([]gin.H, 0, len(data.DocTypes))
	for _, dt := range data.DocTypes {
		docTypes = append(docTypes, gin.H{
			"id":           dt.ID,
			"code":         dt.Code,
			"name":         dt.Code,
			"disciplineId": dt.DisciplineID,
		})
	}
	projects := make([]gin.H, 0, len(data.Projects))
	for _, p := range data.Projects {
		projects = append(projects, gin.H{"id": p.ID, "code": p.Code, "name": p.Name})
	}

	c.JSON(http.StatusOK, gin.H{
		"projects":     projects,
		"disciplines":  disciplines,
		"docTypes":     docTypes,
		"responsibles": idNameJSON(data.Responsibles),
		"clients":      idNameJSON(data.Clients),
		"suppliers":    idNameJSON(data.Suppliers),
	})
}

func idNameJSON(entries []services.IDName) []gin.H {
	out := make([]gin.H, 0, len(entries))
	for _, e := range entries {
		out = append(out, gin.H{"id": e.ID, "name": e.Name})
	}
	return out
}
