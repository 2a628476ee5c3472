package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/paulaPelizer/DocScriptum/internal/db/models"
	"github.com/paulaPelizer/DocScriptum/internal/services"
	"go.uber.org/zap"
)

type OrganizationHandler struct {
	orgService *services.OrganizationService
	logger     *zap.Logger
}

func NewOrganizationHandler(orgService *services.OrganizationService, logger *zap.Logger) *OrganizationHandler {
	return &OrganizationHandler{
		orgService: orgService,
		logger:     logger.With(zap.String("handler", "organizations")),
	}
}

type organizationBody struct {
	Name         string `json:"name"`
	OrgType      string `json:"orgType"`
	CNPJ         string `json:"cnpj"`
	Description  string `json:"description"`
	Status       string `json:"status"`
	Segment      string `json:"segment"`
	ContactName  string `json:"contactName"`
	ContactRole  string `json:"contactRole"`
	ContactEmail string `json:"contactEmail"`
	ContactPhone string `json:"contactPhone"`
	ContactNotes string `json:"contactNotes"`
}

func (b organizationBody) toInput() services.OrganizationInput {
	return services.OrganizationInput{
		Name:         b.Name,
		OrgType:      b.OrgType,
		CNPJ:         b.CNPJ,
		Description:  b.Description,
		Status:       b.Status,
		Segment:      b.Segment,
		ContactName:  b.ContactName,
		ContactRole:  b.ContactRole,
		ContactEmail: b.ContactEmail,
		ContactPhone: b.ContactPhone,
		ContactNotes: b.ContactNotes,
	}
}

func organizationJSON(org *models.Organization) gin.H {
	return gin.H{
		"id":           org.ID,
		"name":         org.Name,
		"orgType":      org.OrgType,
		"cnpj":         org.CNPJ,
		"description":  org.Description,
		"status":       org.Status,
		"segment":      org.Segment,
		"contactName":  org.ContactName,
		"contactRole":  org.ContactRole,
		"contactEmail": org.ContactEmail,
		"contactPhone": org.ContactPhone,
		"contactNotes": org.ContactNotes,
		"projectCount": org.ProjectCount,
		"createdAt":    org.CreatedAt,
	}
}

func (oh *OrganizationHandler) Create(c *gin.Context) {
	var body organizationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	org, err := oh.orgService.Create(body.toInput())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, organizationJSON(org))
}

func (oh *OrganizationHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	org, err := oh.orgService.Get(id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, organizationJSON(org))
}

func (oh *OrganizationHandler) List(c *gin.Context) {
	filter := services.OrganizationFilter{
		OrgType: c.Query("type"),
		Query:   c.Query("q"),
		Page:    queryInt(c, "page", 0),
		Size:    queryInt(c, "size", 20),
	}

	orgs, total, err := oh.orgService.List(filter)
	if err != nil {
		writeError(c, err)
		return
	}

	items := make([]gin.H, 0, len(orgs))
	for i := range orgs {
		items = append(items, organizationJSON(&orgs[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": total,
		"page":  filter.Page,
	})
}

func (oh *OrganizationHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var body organizationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	org, err := oh.orgService.Update(id, body.toInput())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, organizationJSON(org))
}

func (oh *OrganizationHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := oh.orgService.Delete(id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
