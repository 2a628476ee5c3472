package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/paulaPelizer/DocScriptum/internal/db/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ResourceService manages the people catalog. Input values arrive in the
// loose shapes the frontend sends (mixed-case statuses, localized org
// types) and are normalized at the persistence edge.
type ResourceService struct {
	db     *gorm.DB
	logger *zap.Logger
}

// ResourceInput carries the mutable resource fields. OrgType takes
// precedence over PartnershipType when both are present.
type ResourceInput struct {
	Name            string
	Role            string
	Email           string
	Phone           string
	OrgType         string
	OrgName         string
	PartnershipType string
	PartnershipName string
	Status          string
	Tags            []string
	Notes           string
}

// ResourceFilter narrows List results.
type ResourceFilter struct {
	Status string
	Query  string
	Page   int
	Size   int
}

func NewResourceService(db *gorm.DB, logger *zap.Logger) *ResourceService {
	return &ResourceService{
		db:     db,
		logger: logger.With(zap.String("service", "resource_service")),
	}
}

// normalizePartnership maps the frontend's org type values, including the
// localized ones, onto the stored partnership types. Unknown values fall
// back to CLIENT.
func normalizePartnership(raw string) string {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "SUPPLIER", "FORNECEDOR":
		return models.PartnershipSupplier
	case "INTERNAL", "INTERNO":
		return models.PartnershipInternal
	default:
		return models.PartnershipClient
	}
}

// normalizeResourceStatus accepts "Ativo"/"Inativo" in either language and
// any casing; everything that is not inactive is active.
func normalizeResourceStatus(raw string) string {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case models.ResourceInactive, "INACTIVE":
		return models.ResourceInactive
	default:
		return models.ResourceActive
	}
}

// Create validates and persists a new resource.
func (rs *ResourceService) Create(input ResourceInput) (*models.Resource, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, missingField("name")
	}

	resource := &models.Resource{}
	applyResourceInput(resource, input)

	if err := rs.db.Create(resource).Error; err != nil {
		return nil, err
	}

	rs.logger.Info("Resource created",
		zap.Uint("resource_id", resource.ID),
		zap.String("name", resource.Name))
	return resource, nil
}

// Get returns a resource by id.
func (rs *ResourceService) Get(id uint) (*models.Resource, error) {
	var resource models.Resource
	if err := rs.db.First(&resource, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: resource %d", ErrNotFound, id)
		}
		return nil, err
	}
	return &resource, nil
}

// List returns a filtered, paginated page of resources ordered by name.
func (rs *ResourceService) List(filter ResourceFilter) ([]models.Resource, int64, error) {
	query := rs.db.Model(&models.Resource{})

	if s := strings.TrimSpace(filter.Status); s != "" {
		query = query.Where("status = ?", normalizeResourceStatus(s))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(role) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	size := filter.Size
	if size <= 0 || size > 100 {
		size = 20
	}
	page := filter.Page
	if page < 0 {
		page = 0
	}

	var resources []models.Resource
	err := query.Order("name ASC").
		Offset(page * size).
		Limit(size).
		Find(&resources).Error
	if err != nil {
		return nil, 0, err
	}
	return resources, total, nil
}

// Update applies the input wholesale; the name must stay non-blank.
func (rs *ResourceService) Update(id uint, input ResourceInput) (*models.Resource, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, missingField("name")
	}

	var resource models.Resource
	if err := rs.db.First(&resource, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: resource %d", ErrNotFound, id)
		}
		return nil, err
	}

	applyResourceInput(&resource, input)
	if err := rs.db.Save(&resource).Error; err != nil {
		return nil, err
	}
	return &resource, nil
}

func applyResourceInput(resource *models.Resource, input ResourceInput) {
	resource.Name = strings.TrimSpace(input.Name)
	resource.Role = strings.TrimSpace(input.Role)
	resource.Email = strings.TrimSpace(input.Email)
	resource.Phone = strings.TrimSpace(input.Phone)
	resource.Notes = strings.TrimSpace(input.Notes)
	resource.Status = normalizeResourceStatus(input.Status)

	orgType := input.OrgType
	if strings.TrimSpace(orgType) == "" {
		orgType = input.PartnershipType
	}
	resource.PartnershipType = normalizePartnership(orgType)

	orgName := strings.TrimSpace(input.OrgName)
	if orgName == "" {
		orgName = strings.TrimSpace(input.PartnershipName)
	}
	resource.PartnershipName = orgName

	resource.SetTagList(input.Tags)
}
