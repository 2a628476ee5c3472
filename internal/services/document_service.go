package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/paulaPelizer/DocScriptum/internal/db/models"
	"github.com/paulaPelizer/DocScriptum/internal/utils"
	"github.com/paulaPelizer/DocScriptum/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DocumentService creates and updates documents while maintaining the
// edit-count/upload-hash invariant, and keeps request links consistent with
// document freshness.
type DocumentService struct {
	db      *gorm.DB
	logger  *zap.Logger
	metrics *metrics.Collector
}

// DocumentInput carries the mutable document fields. Nil/blank values are
// "not present": creation validates the required ones, update leaves the
// stored value untouched.
type DocumentInput struct {
	ProjectID            *uint
	Code                 string
	Title                string
	Revision             string
	Format               string
	Pages                *int
	FileURL              string
	Status               string
	Species              string
	Description          string
	CurrentLocation      string
	TechnicalResponsible string
	Remarks              string
	UploadHash           string
	PerformedDate        *time.Time
	DueDate              *time.Time
}

// DocumentFilter narrows List results.
type DocumentFilter struct {
	ProjectID *uint
	Status    string
	Query     string
	Page      int
	Size      int
}

func NewDocumentService(db *gorm.DB, logger *zap.Logger, collector *metrics.Collector) *DocumentService {
	return &DocumentService{
		db:      db,
		logger:  logger.With(zap.String("service", "document_service")),
		metrics: collector,
	}
}

var trailingEditSuffix = regexp.MustCompile(`_\d+$`)

// baseHash strips the trailing "_<digits>" edit suffix, leaving the stable
// base portion.
func baseHash(hash string) string {
	return trailingEditSuffix.ReplaceAllString(hash, "")
}

// Create validates the required fields, initializes the edit counter and
// synthesizes an upload hash when none is supplied.
func (ds *DocumentService) Create(input DocumentInput) (*models.Document, error) {
	if input.ProjectID == nil {
		return nil, missingField("projectId")
	}
	if strings.TrimSpace(input.Code) == "" {
		return nil, missingField("code")
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, missingField("title")
	}

	var project models.Project
	if err := ds.db.First(&project, *input.ProjectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: project %d", ErrNotFound, *input.ProjectID)
		}
		return nil, err
	}

	doc := &models.Document{EditCount: 0}
	applyDocumentInput(doc, input)

	if doc.UploadHash == "" {
		doc.UploadHash = utils.NewBaseToken() + "_0"
	}

	if err := ds.db.Create(doc).Error; err != nil {
		return nil, err
	}

	ds.metrics.DocumentCreated()
	ds.logger.Info("Document created",
		zap.Uint("document_id", doc.ID),
		zap.String("code", doc.Code))
	return doc, nil
}

// Update applies the supplied fields, bumps the edit counter by exactly one
// (every invocation counts, changed content or not), rewrites the upload
// hash suffix, and synchronizes request links plus their status propagation.
// The whole chain commits or rolls back as one transaction.
func (ds *DocumentService) Update(id uint, input DocumentInput) (*models.Document, error) {
	var updated *models.Document

	err := ds.db.Transaction(func(tx *gorm.DB) error {
		var doc models.Document
		if err := tx.First(&doc, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: document %d", ErrNotFound, id)
			}
			return err
		}

		if input.ProjectID != nil {
			var project models.Project
			if err := tx.First(&project, *input.ProjectID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: project %d", ErrNotFound, *input.ProjectID)
				}
				return err
			}
		}

		storedHash := doc.UploadHash
		base := baseHash(storedHash)

		applyDocumentInput(&doc, input)

		if storedHash == "" && doc.UploadHash != "" {
			// A hash arrived for a document that never had one: the supplied
			// value becomes the new base and the counter restarts.
			base = baseHash(doc.UploadHash)
			doc.EditCount = 0
		}

		doc.EditCount++
		if base != "" {
			doc.UploadHash = fmt.Sprintf("%s_%d", base, doc.EditCount)
		}

		if err := tx.Save(&doc).Error; err != nil {
			return err
		}

		if err := ds.syncLinksAndPropagate(tx, &doc); err != nil {
			return err
		}

		updated = &doc
		return nil
	})
	if err != nil {
		return nil, err
	}

	ds.metrics.DocumentUpdated()
	ds.logger.Info("Document updated",
		zap.Uint("document_id", updated.ID),
		zap.Int("edit_count", updated.EditCount),
		zap.String("upload_hash", updated.UploadHash))
	return updated, nil
}

// syncLinksAndPropagate refreshes every request link's version snapshot and
// moves the parent request out of the client-waiting state. The transition
// is one-directional and one-hop: only WAITING_CLIENT becomes WAITING_ADM,
// every other status is left alone.
func (ds *DocumentService) syncLinksAndPropagate(tx *gorm.DB, doc *models.Document) error {
	var links []models.RequestDocument
	if err := tx.Where("document_id = ?", doc.ID).Find(&links).Error; err != nil {
		return err
	}
	if len(links) == 0 {
		return nil
	}

	now := time.Now()
	for i := range links {
		link := &links[i]
		link.DocUploadHash = baseHash(doc.UploadHash)
		editCount := doc.EditCount
		link.DocEditCount = &editCount
		if err := tx.Save(link).Error; err != nil {
			return err
		}

		var req models.Request
		if err := tx.First(&req, link.RequestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return err
		}
		if req.Status != models.RequestWaitingClient {
			continue
		}

		req.Status = models.RequestWaitingAdm
		req.UpdatedAt = now
		if err := tx.Save(&req).Error; err != nil {
			return err
		}
		ds.metrics.StatusTransition(string(models.RequestWaitingAdm))
		ds.logger.Info("Request moved to internal review",
			zap.Uint("request_id", req.ID),
			zap.Uint("document_id", doc.ID))
	}
	return nil
}

// Get returns a document by id.
func (ds *DocumentService) Get(id uint) (*models.Document, error) {
	var doc models.Document
	if err := ds.db.Preload("Project").First(&doc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: document %d", ErrNotFound, id)
		}
		return nil, err
	}
	return &doc, nil
}

// GetByHash resolves a document by its current upload hash.
func (ds *DocumentService) GetByHash(hash string) (*models.Document, error) {
	if strings.TrimSpace(hash) == "" {
		return nil, missingField("hash")
	}
	var doc models.Document
	if err := ds.db.Preload("Project").Where("upload_hash = ?", hash).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: document with hash %q", ErrNotFound, hash)
		}
		return nil, err
	}
	return &doc, nil
}

// List returns a filtered, paginated page of documents ordered by most
// recently updated.
func (ds *DocumentService) List(filter DocumentFilter) ([]models.Document, int64, error) {
	query := ds.db.Model(&models.Document{})

	if filter.ProjectID != nil {
		query = query.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(code) LIKE ? OR LOWER(title) LIKE ?", like, like)
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

	var docs []models.Document
	err := query.Order("updated_at DESC").
		Offset(page * size).
		Limit(size).
		Find(&docs).Error
	if err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

// Delete removes a document and its request links.
func (ds *DocumentService) Delete(id uint) error {
	return ds.db.Transaction(func(tx *gorm.DB) error {
		var doc models.Document
		if err := tx.First(&doc, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: document %d", ErrNotFound, id)
			}
			return err
		}
		if err := tx.Where("document_id = ?", id).Delete(&models.RequestDocument{}).Error; err != nil {
			return err
		}
		return tx.Delete(&doc).Error
	})
}

// applyDocumentInput copies only the present fields onto the entity.
// Blank strings and nil pointers leave the stored value untouched.
func applyDocumentInput(doc *models.Document, input DocumentInput) {
	if input.ProjectID != nil {
		doc.ProjectID = input.ProjectID
	}
	if s := strings.TrimSpace(input.Code); s != "" {
		doc.Code = strings.ToUpper(s)
	}
	if s := strings.TrimSpace(input.Title); s != "" {
		doc.Title = s
	}
	if s := strings.TrimSpace(input.Revision); s != "" {
		doc.Revision = s
	}
	if s := strings.TrimSpace(input.Format); s != "" {
		doc.Format = s
	}
	if input.Pages != nil {
		doc.Pages = input.Pages
	}
	if s := strings.TrimSpace(input.FileURL); s != "" {
		doc.FileURL = s
	}
	if s := strings.TrimSpace(input.Status); s != "" {
		doc.Status = s
	}
	if s := strings.TrimSpace(input.Species); s != "" {
		doc.Species = s
	}
	if s := strings.TrimSpace(input.Description); s != "" {
		doc.Description = s
	}
	if s := strings.TrimSpace(input.CurrentLocation); s != "" {
		doc.CurrentLocation = s
	}
	if s := strings.TrimSpace(input.TechnicalResponsible); s != "" {
		doc.TechnicalResponsible = s
	}
	if s := strings.TrimSpace(input.Remarks); s != "" {
		doc.Remarks = s
	}
	if s := strings.TrimSpace(input.UploadHash); s != "" {
		doc.UploadHash = s
	}
	if input.PerformedDate != nil {
		doc.PerformedDate = input.PerformedDate
	}
	if input.DueDate != nil {
		doc.DueDate = input.DueDate
	}
}
