package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/paulaPelizer/DocScriptum/internal/db/models"
	"github.com/paulaPelizer/DocScriptum/internal/services"
	"go.uber.org/zap"
)

type DocumentHandler struct {
	docService *services.DocumentService
	logger     *zap.Logger
}

func NewDocumentHandler(docService *services.DocumentService, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		docService: docService,
		logger:     logger.With(zap.String("handler", "documents")),
	}
}

type documentBody struct {
	ProjectID            *uint  `json:"projectId"`
	Code                 string `json:"code"`
	Title                string `json:"title"`
	Revision             string `json:"revision"`
	Format               string `json:"format"`
	Pages                *int   `json:"pages"`
	FileURL              string `json:"fileUrl"`
	Status               string `json:"status"`
	Species              string `json:"species"`
	Description          string `json:"description"`
	CurrentLocation      string `json:"currentLocation"`
	TechnicalResponsible string `json:"technicalResponsible"`
	Remarks              string `json:"remarks"`
	UploadHash           string `json:"uploadHash"`
	PerformedDate        string `json:"performedDate"`
	DueDate              string `json:"dueDate"`
}

func (b documentBody) toInput() services.DocumentInput {
	return services.DocumentInput{
		ProjectID:            b.ProjectID,
		Code:                 b.Code,
		Title:                b.Title,
		Revision:             b.Revision,
		Format:               b.Format,
		Pages:                b.Pages,
		FileURL:              b.FileURL,
		Status:               b.Status,
		Species:              b.Species,
		Description:          b.Description,
		CurrentLocation:      b.CurrentLocation,
		TechnicalResponsible: b.TechnicalResponsible,
		Remarks:              b.Remarks,
		UploadHash:           b.UploadHash,
		PerformedDate:        parseDate(b.PerformedDate),
		DueDate:              parseDate(b.DueDate),
	}
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}

func documentJSON(doc *models.Document) gin.H {
	out := gin.H{
		"id":          doc.ID,
		"projectId":   doc.ProjectID,
		"code":        doc.Code,
		"title":       doc.Title,
		"revision":    doc.Revision,
		"format":      doc.Format,
		"pages":       doc.Pages,
		"fileUrl":     doc.FileURL,
		"status":      doc.Status,
		"description": doc.Description,
		"editCount":   doc.EditCount,
		"uploadHash":  doc.UploadHash,
		"updatedAt":   doc.UpdatedAt,
	}
	if doc.Project != nil {
		out["project"] = gin.H{
			"id":   doc.Project.ID,
			"code": doc.Project.Code,
			"name": doc.Project.Name,
		}
	}
	return out
}

func (dh *DocumentHandler) List(c *gin.Context) {
	filter := services.DocumentFilter{
		Status: c.Query("status"),
		Query:  c.Query("q"),
		Page:   queryInt(c, "page", 0),
		Size:   queryInt(c, "size", 20),
	}
	if pid := c.Query("projectId"); pid != "" {
		if id, err := strconv.ParseUint(pid, 10, 64); err == nil {
			value := uint(id)
			filter.ProjectID = &value
		}
	}

	docs, total, err := dh.docService.List(filter)
	if err != nil {
		writeError(c, err)
		return
	}

	items := make([]gin.H, 0, len(docs))
	for i := range docs {
		items = append(items, documentJSON(&docs[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": total,
		"page":  filter.Page,
	})
}

func (dh *DocumentHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	doc, err := dh.docService.Get(id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, documentJSON(doc))
}

func (dh *DocumentHandler) GetByHash(c *gin.Context) {
	doc, err := dh.docService.GetByHash(c.Param("hash"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, documentJSON(doc))
}

func (dh *DocumentHandler) Create(c *gin.Context) {
	var body documentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	doc, err := dh.docService.Create(body.toInput())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, documentJSON(doc))
}

func (dh *DocumentHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body documentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	doc, err := dh.docService.Update(id, body.toInput())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, documentJSON(doc))
}

func (dh *DocumentHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := dh.docService.Delete(id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

func queryInt(c *gin.Context, key string, fallback int) int {
	value, err := strconv.Atoi(c.DefaultQuery(key, strconv.Itoa(fallback)))
	if err != nil {
		return fallback
	}
	return value
}
