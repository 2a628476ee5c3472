package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/paulaPelizer/DocScriptum/internal/db/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LookupService serves the reference data behind the new-document form:
// each project's discipline matrix with its planned document types, plus
// the people and organizations selectable on the form.
type LookupService struct {
	db     *gorm.DB
	logger *zap.Logger
}

// DisciplineInput is one discipline row of the matrix being written.
type DisciplineInput struct {
	Name              string
	ClientRecipient   string
	InternalRecipient string
	DocTypes          []DocTypeInput
}

// DocTypeInput is one planned document type under a discipline.
type DocTypeInput struct {
	DocType  string
	Quantity int
}

// DocTypeOption is a flattened doc-type entry keyed back to its discipline,
// the shape the form consumes.
type DocTypeOption struct {
	ID           uint
	Code         string
	DisciplineID uint
}

// IDName is a minimal picker entry.
type IDName struct {
	ID   uint
	Name string
}

// ProjectSummary is the short project shape used by pickers.
type ProjectSummary struct {
	ID   uint
	Code string
	Name string
}

// DocumentFormData aggregates every lookup the new-document form needs in
// one round trip.
type DocumentFormData struct {
	Projects     []ProjectSummary
	Disciplines  []models.ProjectDiscipline
	DocTypes     []DocTypeOption
	Responsibles []IDName
	Clients      []IDName
	Suppliers    []IDName
}

func NewLookupService(db *gorm.DB, logger *zap.Logger) *LookupService {
	return &LookupService{
		db:     db,
		logger: logger.With(zap.String("service", "lookup_service")),
	}
}

// SetDisciplines replaces the project's discipline matrix. The write is
// all-or-nothing: the old rows and their doc types go away only if every
// new row validates and persists.
func (ls *LookupService) SetDisciplines(projectID uint, inputs []DisciplineInput) ([]models.ProjectDiscipline, error) {
	var out []models.ProjectDiscipline

	err := ls.db.Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.First(&project, projectID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: project %d", ErrNotFound, projectID)
			}
			return err
		}

		var existing []models.ProjectDiscipline
		if err := tx.Where("project_id = ?", projectID).Find(&existing).Error; err != nil {
			return err
		}
		for _, row := range existing {
			if err := tx.Where("project_discipline_id = ?", row.ID).
				Delete(&models.ProjectDisciplineDocType{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("project_id = ?", projectID).
			Delete(&models.ProjectDiscipline{}).Error; err != nil {
			return err
		}

		for _, input := range inputs {
			name := strings.TrimSpace(input.Name)
			if name == "" {
				return missingField("discipline name")
			}

			discipline := models.ProjectDiscipline{
				ProjectID:         projectID,
				Name:              name,
				ClientRecipient:   strings.TrimSpace(input.ClientRecipient),
				InternalRecipient: strings.TrimSpace(input.InternalRecipient),
			}
			for _, dt := range input.DocTypes {
				code := strings.TrimSpace(dt.DocType)
				if code == "" {
					return missingField("docType")
				}
				discipline.DocTypes = append(discipline.DocTypes, models.ProjectDisciplineDocType{
					DocType:  code,
					Quantity: dt.Quantity,
				})
			}
			if err := tx.Create(&discipline).Error; err != nil {
				return err
			}
			out = append(out, discipline)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ls.logger.Info("Discipline matrix replaced",
		zap.Uint("project_id", projectID),
		zap.Int("disciplines", len(out)))
	return out, nil
}

// Disciplines returns the project's matrix ordered by discipline name.
func (ls *LookupService) Disciplines(projectID uint) ([]models.ProjectDiscipline, error) {
	var project models.Project
	if err := ls.db.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: project %d", ErrNotFound, projectID)
		}
		return nil, err
	}

	var rows []models.ProjectDiscipline
	err := ls.db.Preload("DocTypes").
		Where("project_id = ?", projectID).
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FormData assembles the lookups for the given project: its disciplines and
// doc types, every project for the picker, active resources as responsibles
// and client/supplier organizations.
func (ls *LookupService) FormData(projectID uint) (*DocumentFormData, error) {
	disciplines, err := ls.Disciplines(projectID)
	if err != nil {
		return nil, err
	}

	docTypes := make([]DocTypeOption, 0)
	for _, d := range disciplines {
		for _, dt := range d.DocTypes {
			docTypes = append(docTypes, DocTypeOption{
				ID:           dt.ID,
				Code:         dt.DocType,
				DisciplineID: d.ID,
			})
		}
	}

	var projects []models.Project
	if err := ls.db.Order("code ASC").Find(&projects).Error; err != nil {
		return nil, err
	}
	summaries := make([]ProjectSummary, 0, len(projects))
	for _, p := range projects {
		summaries = append(summaries, ProjectSummary{ID: p.ID, Code: p.Code, Name: p.Name})
	}

	var resources []models.Resource
	if err := ls.db.Where("status = ?", models.ResourceActive).
		Order("name ASC").Find(&resources).Error; err != nil {
		return nil, err
	}
	responsibles := make([]IDName, 0, len(resources))
	for _, r := range resources {
		responsibles = append(responsibles, IDName{ID: r.ID, Name: r.Name})
	}

	clients, err := ls.organizationPicker(models.OrgClient)
	if err != nil {
		return nil, err
	}
	suppliers, err := ls.organizationPicker(models.OrgSupplier)
	if err != nil {
		return nil, err
	}

	return &DocumentFormData{
		Projects:     summaries,
		Disciplines:  disciplines,
		DocTypes:     docTypes,
		Responsibles: responsibles,
		Clients:      clients,
		Suppliers:    suppliers,
	}, nil
}

func (ls *LookupService) organizationPicker(orgType models.OrgType) ([]IDName, error) {
	var orgs []models.Organization
	err := ls.db.Where("org_type = ?", orgType).Order("name ASC").Find(&orgs).Error
	if err != nil {
		return nil, err
	}
	out := make([]IDName, 0, len(orgs))
	for _, o := range orgs {
		out = append(out, IDName{ID: o.ID, Name: o.Name})
	}
	return out, nil
}
