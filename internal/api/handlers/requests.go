package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/paulaPelizer/DocScriptum/internal/db/models"
	"github.com/paulaPelizer/DocScriptum/internal/services"
	"go.uber.org/zap"
)

type RequestHandler struct {
	requestService *services.RequestService
	logger         *zap.Logger
}

func NewRequestHandler(requestService *services.RequestService, logger *zap.Logger) *RequestHandler {
	return &RequestHandler{
		requestService: requestService,
		logger:         logger.With(zap.String("handler", "requests")),
	}
}

type requestBody struct {
	ProjectID           *uint      `json:"projectId"`
	OriginID            *uint      `json:"requesterOrgId"`
	DestinationID       *uint      `json:"targetOrgId"`
	Purpose             string     `json:"purpose"`
	Description         string     `json:"description"`
	RequesterName       string     `json:"requesterName"`
	RequesterContact    string     `json:"requesterContact"`
	TargetName          string     `json:"targetName"`
	TargetContact       string     `json:"targetContact"`
	RequestDate         *time.Time `json:"requestDate"`
	Deadline            *time.Time `json:"desiredDeadline"`
	Justification       string     `json:"justification"`
	SpecialInstructions string     `json:"specialInstructions"`
	Status              string     `json:"status"`
	DocumentIDs         []uint     `json:"documentIds"`
}

func (b requestBody) toInput() services.RequestInput {
	return services.RequestInput{
		ProjectID:           b.ProjectID,
		OriginID:            b.OriginID,
		DestinationID:       b.DestinationID,
		Purpose:             b.Purpose,
		Description:         b.Description,
		RequesterName:       b.RequesterName,
		RequesterContact:    b.RequesterContact,
		TargetName:          b.TargetName,
		TargetContact:       b.TargetContact,
		RequestDate:         b.RequestDate,
		Deadline:            b.Deadline,
		Justification:       b.Justification,
		SpecialInstructions: b.SpecialInstructions,
		Status:              models.RequestStatus(b.Status),
		DocumentIDs:         b.DocumentIDs,
	}
}

func requestJSON(req *models.Request) gin.H {
	out := gin.H{
		"id":            req.ID,
		"requestNumber": req.RequestNumber,
		"protocol":      req.Protocol,
		"projectId":     req.ProjectID,
		"purpose":       req.Purpose,
		"description":   req.Description,
		"requesterName": req.RequesterName,
		"targetName":    req.TargetName,
		"status":        req.Status,
		"requestDate":   req.RequestDate,
		"deadline":      req.Deadline,
		"updatedAt":     req.UpdatedAt,
	}
	if req.Project != nil {
		out["project"] = gin.H{"id": req.Project.ID, "code": req.Project.Code, "name": req.Project.Name}
	}
	if req.Origin != nil {
		out["origin"] = gin.H{"id": req.Origin.ID, "name": req.Origin.Name}
	}
	if req.Destination != nil {
		out["destination"] = gin.H{"id": req.Destination.ID, "name": req.Destination.Name}
	}
	if len(req.Documents) > 0 {
		docs := make([]gin.H, 0, len(req.Documents))
		for _, link := range req.Documents {
			entry := gin.H{
				"documentId":    link.DocumentID,
				"docUploadHash": link.DocUploadHash,
				"docEditCount":  link.DocEditCount,
			}
			if link.Document != nil {
				entry["code"] = link.Document.Code
				entry["title"] = link.Document.Title
			}
			docs = append(docs, entry)
		}
		out["documents"] = docs
	}
	return out
}

func (rh *RequestHandler) Create(c *gin.Context) {
	var body requestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	req, err := rh.requestService.Create(body.toInput())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, requestJSON(req))
}

func (rh *RequestHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	req, err := rh.requestService.Get(id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, requestJSON(req))
}

func (rh *RequestHandler) List(c *gin.Context) {
	filter := services.RequestFilter{
		Status: models.RequestStatus(c.Query("status")),
		Query:  c.Query("q"),
		Page:   queryInt(c, "page", 0),
		Size:   queryInt(c, "size", 20),
	}

	reqs, total, err := rh.requestService.List(filter)
	if err != nil {
		writeError(c, err)
		return
	}

	items := make([]gin.H, 0, len(reqs))
	for i := range reqs {
		items = append(items, requestJSON(&reqs[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": total,
		"page":  filter.Page,
	})
}

func (rh *RequestHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body requestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	req, err := rh.requestService.Update(id, body.toInput())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, requestJSON(req))
}

type statusBody struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

func (rh *RequestHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body statusBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	req, err := rh.requestService.UpdateStatus(id, models.RequestStatus(body.Status))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, requestJSON(req))
}

func (rh *RequestHandler) EnsureProtocol(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	req, err := rh.requestService.EnsureProtocol(id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, requestJSON(req))
}

func (rh *RequestHandler) Finalize(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	req, err := rh.requestService.Finalize(id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, requestJSON(req))
}

type notifyBody struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (rh *RequestHandler) Notify(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body notifyBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := rh.requestService.NotifyRequester(id, body.Subject, body.Message); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notification sent"})
}
