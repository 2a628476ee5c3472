package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/paulaPelizer/DocScriptum/internal/api/middleware"
	"github.com/paulaPelizer/DocScriptum/internal/db/models"
	"github.com/paulaPelizer/DocScriptum/internal/services"
	"go.uber.org/zap"
)

type GRDHandler struct {
	grdService *services.GRDService
	logger     *zap.Logger
}

func NewGRDHandler(grdService *services.GRDService, logger *zap.Logger) *GRDHandler {
	return &GRDHandler{
		grdService: grdService,
		logger:     logger.With(zap.String("handler", "grds")),
	}
}

type grdBody struct {
	RequestID      uint   `json:"requestId"`
	DeliveryMethod string `json:"deliveryMethod"`
	Observations   string `json:"observations"`
	Purpose        string `json:"purpose"`
}

func grdJSON(grd *models.GRD) gin.H {
	out := gin.H{
		"id":             grd.ID,
		"requestId":      grd.RequestID,
		"number":         grd.Number,
		"protocol":       grd.Protocol,
		"purpose":        grd.Purpose,
		"deliveryMethod": grd.DeliveryMethod,
		"observations":   grd.Observations,
		"emittedBy":      grd.EmittedBy,
		"emissionAt":     grd.EmissionAt,
		"status":         grd.Status,
		"totalDocuments": grd.TotalDocuments,
		"totalPages":     grd.TotalPages,
	}
	if grd.Request != nil {
		out["requestNumber"] = grd.Request.RequestNumber
		out["requestProtocol"] = grd.Request.Protocol
	}
	if grd.Project != nil {
		out["project"] = gin.H{"id": grd.Project.ID, "code": grd.Project.Code, "name": grd.Project.Name}
	}
	if grd.Origin != nil {
		out["origin"] = gin.H{"id": grd.Origin.ID, "name": grd.Origin.Name}
	}
	if grd.Destination != nil {
		out["destination"] = gin.H{"id": grd.Destination.ID, "name": grd.Destination.Name}
	}
	return out
}

// Create issues a new receipt. Deliberately not idempotent: every call
// issues a fresh receipt, double-submission is the caller's problem.
func (gh *GRDHandler) Create(c *gin.Context) {
	var body grdBody
	if err := c.ShouldBindJSON(&body); err != nil || body.RequestID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "requestId is required"})
		return
	}

	emittedBy, _, _ := middleware.Identity(c)

	grd, err := gh.grdService.Create(services.GRDInput{
		RequestID:      body.RequestID,
		DeliveryMethod: body.DeliveryMethod,
		Observations:   body.Observations,
		Purpose:        body.Purpose,
		EmittedBy:      emittedBy,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, grdJSON(grd))
}

func (gh *GRDHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	grd, err := gh.grdService.Get(id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, grdJSON(grd))
}

func (gh *GRDHandler) GetByProtocol(c *gin.Context) {
	grd, err := gh.grdService.FindByProtocol(c.Param("protocol"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, grdJSON(grd))
}

func (gh *GRDHandler) List(c *gin.Context) {
	page := queryInt(c, "page", 0)
	size := queryInt(c, "size", 20)

	grds, total, err := gh.grdService.List(page, size)
	if err != nil {
		writeError(c, err)
		return
	}

	items := make([]gin.H, 0, len(grds))
	for i := range grds {
		items = append(items, grdJSON(&grds[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": total,
		"page":  page,
	})
}
