package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/paulaPelizer/DocScriptum/internal/db/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProjectService handles project CRUD. Project codes are caller-assigned,
// unlike request numbers and receipt identifiers.
type ProjectService struct {
	db     *gorm.DB
	logger *zap.Logger
}

type ProjectInput struct {
	Code           string
	Name           string
	Description    string
	ClientID       *uint
	Status         string
	StartDate      *time.Time
	PlannedEndDate *time.Time
}

type ProjectFilter struct {
	ClientID *uint
	Status   string
	Query    string
	Page     int
	Size     int
}

func NewProjectService(db *gorm.DB, logger *zap.Logger) *ProjectService {
	return &ProjectService{
		db:     db,
		logger: logger.With(zap.String("service", "project_service")),
	}
}

// Create validates and persists a new project. The client organization, when
// given, must exist and its project counter is bumped in the same transaction.
func (ps *ProjectService) Create(input ProjectInput) (*models.Project, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, missingField("code")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, missingField("name")
	}

	status := strings.TrimSpace(input.Status)
	if status == "" {
		status = "ACTIVE"
	}

	project := &models.Project{
		Code:           code,
		Name:           strings.TrimSpace(input.Name),
		Description:    input.Description,
		ClientID:       input.ClientID,
		Status:         status,
		StartDate:      input.StartDate,
		PlannedEndDate: input.PlannedEndDate,
	}

	err := ps.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Project{}).Where("code = ?", code).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: project code %q already exists", ErrConflict, code)
		}

		if input.ClientID != nil {
			var org models.Organization
			if err := tx.First(&org, *input.ClientID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: organization %d", ErrNotFound, *input.ClientID)
				}
				return err
			}
			if err := tx.Model(&org).
				Update("project_count", gorm.Expr("project_count + 1")).Error; err != nil {
				return err
			}
		}

		return tx.Create(project).Error
	})
	if err != nil {
		return nil, err
	}

	ps.logger.Info("project created",
		zap.Uint("project_id", project.ID),
		zap.String("code", project.Code))
	return project, nil
}

func (ps *ProjectService) Get(id uint) (*models.Project, error) {
	var project models.Project
	err := ps.db.Preload("Client").First(&project, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: project %d", ErrNotFound, id)
		}
		return nil, err
	}
	return &project, nil
}

func (ps *ProjectService) List(filter ProjectFilter) ([]models.Project, int64, error) {
	query := ps.db.Model(&models.Project{})

	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(code) LIKE ? OR LOWER(name) LIKE ?", like, like)
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

	var projects []models.Project
	err := query.Preload("Client").
		Order("created_at DESC").
		Offset(page * size).
		Limit(size).
		Find(&projects).Error
	if err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

// Update applies the non-empty fields of the input. The code is immutable
// once assigned, documents already carry it in their own codes.
func (ps *ProjectService) Update(id uint, input ProjectInput) (*models.Project, error) {
	var project models.Project
	err := ps.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&project, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: project %d", ErrNotFound, id)
			}
			return err
		}

		if v := strings.TrimSpace(input.Name); v != "" {
			project.Name = v
		}
		if v := strings.TrimSpace(input.Description); v != "" {
			project.Description = v
		}
		if v := strings.TrimSpace(input.Status); v != "" {
			project.Status = v
		}
		if input.ClientID != nil {
			var org models.Organization
			if err := tx.First(&org, *input.ClientID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: organization %d", ErrNotFound, *input.ClientID)
				}
				return err
			}
			project.ClientID = input.ClientID
		}
		if input.StartDate != nil {
			project.StartDate = input.StartDate
		}
		if input.PlannedEndDate != nil {
			project.PlannedEndDate = input.PlannedEndDate
		}

		return tx.Save(&project).Error
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// Delete removes a project. Projects still referenced by documents or
// requests are protected.
func (ps *ProjectService) Delete(id uint) error {
	return ps.db.Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.First(&project, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: project %d", ErrNotFound, id)
			}
			return err
		}

		var docs int64
		if err := tx.Model(&models.Document{}).Where("project_id = ?", id).Count(&docs).Error; err != nil {
			return err
		}
		var reqs int64
		if err := tx.Model(&models.Request{}).Where("project_id = ?", id).Count(&reqs).Error; err != nil {
			return err
		}
		if docs > 0 || reqs > 0 {
			return fmt.Errorf("%w: project %d has documents or requests", ErrConflict, id)
		}

		return tx.Delete(&project).Error
	})
}
