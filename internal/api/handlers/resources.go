package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/paulaPelizer/DocScriptum/internal/db/models"
	"github.com/paulaPelizer/DocScriptum/internal/services"
	"go.uber.org/zap"
)

type ResourceHandler struct {
	resourceService *services.ResourceService
	logger          *zap.Logger
}

func NewResourceHandler(resourceService *services.ResourceService, logger *zap.Logger) *ResourceHandler {
	return &ResourceHandler{
		resourceService: resourceService,
		logger:          logger.With(zap.String("handler", "resources")),
	}
}

// resourceBody accepts both the orgType/orgName pair and the
// partnershipType/partnershipName pair; the service prefers the former.
type resourceBody struct {
	Name            string   `json:"name"`
	Role            string   `json:"role"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	OrgType         string   `json:"orgType"`
	OrgName         string   `json:"orgName"`
	PartnershipType string   `json:"partnershipType"`
	PartnershipName string   `json:"partnershipName"`
	Status          string   `json:"status"`
	Tags            []string `json:"tags"`
	Notes           string   `json:"notes"`
}

func (b resourceBody) toInput() services.ResourceInput {
	return services.ResourceInput{
		Name:            b.Name,
		Role:            b.Role,
		Email:           b.Email,
		Phone:           b.Phone,
		OrgType:         b.OrgType,
		OrgName:         b.OrgName,
		PartnershipType: b.PartnershipType,
		PartnershipName: b.PartnershipName,
		Status:          b.Status,
		Tags:            b.Tags,
		Notes:           b.Notes,
	}
}

func resourceJSON(resource *models.Resource) gin.H {
	tags := resource.TagList()
	if tags == nil {
		tags = []string{}
	}
	return gin.H{
		"id":              resource.ID,
		"name":            resource.Name,
		"role":            resource.Role,
		"status":          resource.Status,
		"email":           resource.Email,
		"phone":           resource.Phone,
		"partnershipType": resource.PartnershipType,
		"partnershipName": resource.PartnershipName,
		"tags":            tags,
		"notes":           resource.Notes,
		"createdAt":       resource.CreatedAt,
	}
}

func (rh *ResourceHandler) Create(c *gin.Context) {
	var body resourceBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	resource, err := rh.resourceService.Create(body.toInput())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resourceJSON(resource))
}

func (rh *ResourceHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	resource, err := rh.resourceService.Get(id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resourceJSON(resource))
}

func (rh *ResourceHandler) List(c *gin.Context) {
	filter := services.ResourceFilter{
		Status: c.Query("status"),
		Query:  c.Query("q"),
		Page:   queryInt(c, "page", 0),
		Size:   queryInt(c, "size", 20),
	}

	resources, total, err := rh.resourceService.List(filter)
	if err != nil {
		writeError(c, err)
		return
	}

	items := make([]gin.H, 0, len(resources))
	for i := range resources {
		items = append(items, resourceJSON(&resources[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": total,
		"page":  filter.Page,
	})
}

func (rh *ResourceHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var body resourceBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	resource, err := rh.resourceService.Update(id, body.toInput())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resourceJSON(resource))
}
