package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/paulaPelizer/DocScriptum/internal/db/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OrganizationService handles CRUD for the parties that originate and
// receive requests.
type OrganizationService struct {
	db     *gorm.DB
	logger *zap.Logger
}

type OrganizationInput struct {
	Name         string
	OrgType      string
	CNPJ         string
	Description  string
	Status       string
	Segment      string
	ContactName  string
	ContactRole  string
	ContactEmail string
	ContactPhone string
	ContactNotes string
}

type OrganizationFilter struct {
	OrgType string
	Query   string
	Page    int
	Size    int
}

func NewOrganizationService(db *gorm.DB, logger *zap.Logger) *OrganizationService {
	return &OrganizationService{
		db:     db,
		logger: logger.With(zap.String("service", "organization_service")),
	}
}

func parseOrgType(raw string) (models.OrgType, error) {
	switch t := models.OrgType(strings.ToUpper(strings.TrimSpace(raw))); t {
	case models.OrgClient, models.OrgSupplier, models.OrgInternal:
		return t, nil
	default:
		return "", fmt.Errorf("%w: unknown organization type %q", ErrValidation, raw)
	}
}

func (os *OrganizationService) Create(input OrganizationInput) (*models.Organization, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, missingField("name")
	}
	orgType, err := parseOrgType(input.OrgType)
	if err != nil {
		return nil, err
	}

	status := strings.TrimSpace(input.Status)
	if status == "" {
		status = "ACTIVE"
	}

	org := &models.Organization{
		Name:         strings.TrimSpace(input.Name),
		OrgType:      orgType,
		CNPJ:         strings.TrimSpace(input.CNPJ),
		Description:  input.Description,
		Status:       status,
		Segment:      input.Segment,
		ContactName:  input.ContactName,
		ContactRole:  input.ContactRole,
		ContactEmail: input.ContactEmail,
		ContactPhone: input.ContactPhone,
		ContactNotes: input.ContactNotes,
	}
	if err := os.db.Create(org).Error; err != nil {
		return nil, err
	}

	os.logger.Info("organization created",
		zap.Uint("organization_id", org.ID),
		zap.String("type", string(org.OrgType)))
	return org, nil
}

func (os *OrganizationService) Get(id uint) (*models.Organization, error) {
	var org models.Organization
	err := os.db.First(&org, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: organization %d", ErrNotFound, id)
		}
		return nil, err
	}
	return &org, nil
}

func (os *OrganizationService) List(filter OrganizationFilter) ([]models.Organization, int64, error) {
	query := os.db.Model(&models.Organization{})

	if filter.OrgType != "" {
		orgType, err := parseOrgType(filter.OrgType)
		if err != nil {
			return nil, 0, err
		}
		query = query.Where("org_type = ?", orgType)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(name) LIKE ? OR cnpj LIKE ?", like, "%"+q+"%")
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

	var orgs []models.Organization
	err := query.Order("name ASC").
		Offset(page * size).
		Limit(size).
		Find(&orgs).Error
	if err != nil {
		return nil, 0, err
	}
	return orgs, total, nil
}

func (os *OrganizationService) Update(id uint, input OrganizationInput) (*models.Organization, error) {
	var org models.Organization
	if err := os.db.First(&org, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: organization %d", ErrNotFound, id)
		}
		return nil, err
	}

	if v := strings.TrimSpace(input.Name); v != "" {
		org.Name = v
	}
	if strings.TrimSpace(input.OrgType) != "" {
		orgType, err := parseOrgType(input.OrgType)
		if err != nil {
			return nil, err
		}
		org.OrgType = orgType
	}
	if v := strings.TrimSpace(input.CNPJ); v != "" {
		org.CNPJ = v
	}
	if v := strings.TrimSpace(input.Description); v != "" {
		org.Description = v
	}
	if v := strings.TrimSpace(input.Status); v != "" {
		org.Status = v
	}
	if v := strings.TrimSpace(input.Segment); v != "" {
		org.Segment = v
	}
	if v := strings.TrimSpace(input.ContactName); v != "" {
		org.ContactName = v
	}
	if v := strings.TrimSpace(input.ContactRole); v != "" {
		org.ContactRole = v
	}
	if v := strings.TrimSpace(input.ContactEmail); v != "" {
		org.ContactEmail = v
	}
	if v := strings.TrimSpace(input.ContactPhone); v != "" {
		org.ContactPhone = v
	}
	if v := strings.TrimSpace(input.ContactNotes); v != "" {
		org.ContactNotes = v
	}

	if err := os.db.Save(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

// Delete removes an organization unless projects or requests still point
// at it.
func (os *OrganizationService) Delete(id uint) error {
	return os.db.Transaction(func(tx *gorm.DB) error {
		var org models.Organization
		if err := tx.First(&org, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: organization %d", ErrNotFound, id)
			}
			return err
		}

		var projects int64
		if err := tx.Model(&models.Project{}).Where("client_id = ?", id).Count(&projects).Error; err != nil {
			return err
		}
		var requests int64
		if err := tx.Model(&models.Request{}).
			Where("origin_id = ? OR destination_id = ?", id, id).
			Count(&requests).Error; err != nil {
			return err
		}
		if projects > 0 || requests > 0 {
			return fmt.Errorf("%w: organization %d is referenced by projects or requests", ErrConflict, id)
		}

		return tx.Delete(&org).Error
	})
}
