package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/paulaPelizer/DocScriptum/internal/db/models"
	"github.com/paulaPelizer/DocScriptum/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GRDService issues delivery receipts. Issuance is atomic: the receipt, the
// request status flip and the protocol stamping all commit together or not
// at all. Each call issues a new receipt; nothing enforces at-most-one
// receipt per request.
type GRDService struct {
	db      *gorm.DB
	logger  *zap.Logger
	metrics *metrics.Collector
}

// GRDInput carries the caller-supplied receipt fields. Purpose defaults to
// the request's purpose when empty.
type GRDInput struct {
	RequestID      uint
	DeliveryMethod string
	Observations   string
	Purpose        string
	EmittedBy      string
}

func NewGRDService(db *gorm.DB, logger *zap.Logger, collector *metrics.Collector) *GRDService {
	return &GRDService{
		db:      db,
		logger:  logger.With(zap.String("service", "grd_service")),
		metrics: collector,
	}
}

// Create issues a receipt for the request. Number and protocol are drawn
// from the same generation scheme but checked against their own uniqueness
// domains; the request is forced to COMPLETED and inherits the receipt's
// protocol only if it had none.
func (gs *GRDService) Create(input GRDInput) (*models.GRD, error) {
	var grd *models.GRD

	err := gs.db.Transaction(func(tx *gorm.DB) error {
		var req models.Request
		if err := tx.First(&req, input.RequestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: request %d", ErrNotFound, input.RequestID)
			}
			return err
		}

		var links []models.RequestDocument
		if err := tx.Where("request_id = ?", req.ID).Find(&links).Error; err != nil {
			return err
		}

		totalDocuments := len(links)
		totalPages := 0
		for _, link := range links {
			var doc models.Document
			if err := tx.First(&doc, link.DocumentID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					continue
				}
				return err
			}
			if doc.Pages != nil {
				totalPages += *doc.Pages
			}
		}

		purpose := strings.TrimSpace(input.Purpose)
		if purpose == "" {
			purpose = req.Purpose
		}

		emittedBy := strings.TrimSpace(input.EmittedBy)
		if emittedBy == "" {
			emittedBy = "Sistema"
		}

		projectID := req.ProjectID
		if err := gs.insertWithFreshIdentifiers(tx, func(number, protocol string) *models.GRD {
			grd = &models.GRD{
				RequestID:      req.ID,
				ProjectID:      &projectID,
				OriginID:       req.OriginID,
				DestinationID:  req.DestinationID,
				Number:         number,
				Protocol:       protocol,
				Purpose:        purpose,
				DeliveryMethod: input.DeliveryMethod,
				Observations:   input.Observations,
				EmittedBy:      emittedBy,
				EmissionAt:     time.Now(),
				Status:         models.GRDStatusIssued,
				TotalDocuments: totalDocuments,
				TotalPages:     totalPages,
			}
			return grd
		}); err != nil {
			return err
		}

		// Issuing a receipt is terminal for the request. The receipt's
		// protocol is stamped onto the request only when the request never
		// got its own; an existing protocol is preserved, the two may differ.
		req.Status = models.RequestCompleted
		if strings.TrimSpace(req.Protocol) == "" {
			req.Protocol = grd.Protocol
		}
		return tx.Save(&req).Error
	})
	if err != nil {
		return nil, err
	}

	gs.metrics.GRDIssued()
	gs.metrics.StatusTransition(string(models.RequestCompleted))
	gs.logger.Info("GRD issued",
		zap.Uint("grd_id", grd.ID),
		zap.String("number", grd.Number),
		zap.String("protocol", grd.Protocol),
		zap.Uint("request_id", grd.RequestID))
	return grd, nil
}

// insertWithFreshIdentifiers draws a number/protocol pair, builds the
// receipt and inserts it inside a savepoint. A duplicate slipping past the
// pre-checks (a concurrent issuance drew the same candidate) fails on the
// unique index and the whole pair is resampled, bounded by the attempt
// budget.
func (gs *GRDService) insertWithFreshIdentifiers(tx *gorm.DB, build func(number, protocol string) *models.GRD) error {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		number, err := gs.uniqueIdentifier(tx, "GRD", "number")
		if err != nil {
			return err
		}
		protocol, err := gs.uniqueIdentifier(tx, "PROT", "protocol")
		if err != nil {
			return err
		}

		grd := build(number, protocol)
		err = tx.Transaction(func(inner *gorm.DB) error {
			return inner.Create(grd).Error
		})
		if err == nil {
			return nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			gs.metrics.IdentifierRetry("grd_insert")
			grd.ID = 0
			continue
		}
		return err
	}
	return fmt.Errorf("%w: grd identifiers", ErrIDExhausted)
}

// uniqueIdentifier draws "<prefix>-<year>-<6 digits>" candidates until one
// is unused in the given GRD column, retrying on collision up to the
// attempt budget.
func (gs *GRDService) uniqueIdentifier(tx *gorm.DB, prefix, column string) (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		candidate := randomProtocol(prefix)
		var count int64
		if err := tx.Model(&models.GRD{}).
			Where(column+" = ?", candidate).
			Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		gs.metrics.IdentifierRetry("grd_" + column)
	}
	return "", fmt.Errorf("%w: grd %s", ErrIDExhausted, column)
}

// Get returns a receipt by id.
func (gs *GRDService) Get(id uint) (*models.GRD, error) {
	var grd models.GRD
	err := gs.preloaded().First(&grd, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: grd %d", ErrNotFound, id)
		}
		return nil, err
	}
	return &grd, nil
}

// FindByProtocol resolves a receipt by its protocol.
func (gs *GRDService) FindByProtocol(protocol string) (*models.GRD, error) {
	if strings.TrimSpace(protocol) == "" {
		return nil, missingField("protocol")
	}
	var grd models.GRD
	err := gs.preloaded().Where("protocol = ?", protocol).First(&grd).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: grd with protocol %q", ErrNotFound, protocol)
		}
		return nil, err
	}
	return &grd, nil
}

// List returns receipts, newest emission first.
func (gs *GRDService) List(page, size int) ([]models.GRD, int64, error) {
	var total int64
	if err := gs.db.Model(&models.GRD{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if size <= 0 || size > 100 {
		size = 20
	}
	if page < 0 {
		page = 0
	}

	var grds []models.GRD
	err := gs.preloaded().
		Order("emission_at DESC").
		Offset(page * size).
		Limit(size).
		Find(&grds).Error
	if err != nil {
		return nil, 0, err
	}
	return grds, total, nil
}

func (gs *GRDService) preloaded() *gorm.DB {
	return gs.db.
		Preload("Request").
		Preload("Project").
		Preload("Origin").
		Preload("Destination")
}
