package services

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/paulaPelizer/DocScriptum/internal/db/models"
	"github.com/paulaPelizer/DocScriptum/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// maxIDAttempts bounds the retry-on-collision loops for protocol and
// receipt-number generation. Exhaustion is a reported failure, never an
// infinite loop or a silent fallback.
const maxIDAttempts = 20

// RequestService manages cross-organization document requests: creation
// with document binding, partial updates, status changes, protocol
// assignment and finalization.
type RequestService struct {
	db      *gorm.DB
	mailer  Mailer
	logger  *zap.Logger
	metrics *metrics.Collector
}

// RequestInput carries the mutable request fields for create and update.
type RequestInput struct {
	ProjectID           *uint
	OriginID            *uint
	DestinationID       *uint
	Purpose             string
	Description         string
	RequesterName       string
	RequesterContact    string
	TargetName          string
	TargetContact       string
	RequestDate         *time.Time
	Deadline            *time.Time
	Justification       string
	SpecialInstructions string
	Status              models.RequestStatus
	DocumentIDs         []uint
}

// RequestFilter narrows List results.
type RequestFilter struct {
	Status models.RequestStatus
	Query  string
	Page   int
	Size   int
}

func NewRequestService(db *gorm.DB, mailer Mailer, logger *zap.Logger, collector *metrics.Collector) *RequestService {
	return &RequestService{
		db:      db,
		mailer:  mailer,
		logger:  logger.With(zap.String("service", "request_service")),
		metrics: collector,
	}
}

// nextRequestNumber builds a human-distinguishable request number. It is not
// required to be strictly unique.
func nextRequestNumber() string {
	return fmt.Sprintf("REQ-%d-%s", time.Now().Year(),
		strings.ToUpper(uuid.New().String()[:6]))
}

// randomProtocol draws one "<prefix>-<year>-<6 digits>" candidate.
func randomProtocol(prefix string) string {
	return fmt.Sprintf("%s-%d-%06d", prefix, time.Now().Year(), 100000+rand.Intn(900000))
}

// Create stores a request, synthesizes its request number and binds the
// given documents, snapshotting each document's base hash and edit count as
// observed at link time.
func (rs *RequestService) Create(input RequestInput) (*models.Request, error) {
	if input.ProjectID == nil {
		return nil, missingField("projectId")
	}

	var req *models.Request
	err := rs.db.Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.First(&project, *input.ProjectID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: project %d", ErrNotFound, *input.ProjectID)
			}
			return err
		}

		if err := requireOrg(tx, input.OriginID); err != nil {
			return err
		}
		if err := requireOrg(tx, input.DestinationID); err != nil {
			return err
		}

		now := time.Now()
		req = &models.Request{
			RequestNumber:       nextRequestNumber(),
			ProjectID:           *input.ProjectID,
			OriginID:            input.OriginID,
			DestinationID:       input.DestinationID,
			Purpose:             input.Purpose,
			Description:         input.Description,
			RequesterName:       input.RequesterName,
			RequesterContact:    input.RequesterContact,
			TargetName:          input.TargetName,
			TargetContact:       input.TargetContact,
			Deadline:            input.Deadline,
			Justification:       input.Justification,
			SpecialInstructions: input.SpecialInstructions,
			Status:              models.RequestPending,
		}
		if input.RequestDate != nil {
			req.RequestDate = input.RequestDate
		} else {
			req.RequestDate = &now
		}

		if err := tx.Create(req).Error; err != nil {
			return err
		}

		return rs.bindDocuments(tx, req, input.DocumentIDs)
	})
	if err != nil {
		return nil, err
	}

	rs.metrics.RequestCreated()
	rs.logger.Info("Request created",
		zap.Uint("request_id", req.ID),
		zap.String("request_number", req.RequestNumber))
	return req, nil
}

// bindDocuments links documents to the request. Every document must exist
// and belong to the request's project; each link snapshots the base upload
// hash (no edit suffix) and the current edit count.
func (rs *RequestService) bindDocuments(tx *gorm.DB, req *models.Request, documentIDs []uint) error {
	for _, docID := range documentIDs {
		var doc models.Document
		if err := tx.First(&doc, docID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: document %d", ErrNotFound, docID)
			}
			return err
		}
		if doc.ProjectID == nil || *doc.ProjectID != req.ProjectID {
			return fmt.Errorf("%w: document %d does not belong to project %d",
				ErrValidation, docID, req.ProjectID)
		}

		editCount := doc.EditCount
		link := &models.RequestDocument{
			RequestID:     req.ID,
			DocumentID:    doc.ID,
			DocUploadHash: baseHash(doc.UploadHash),
			DocEditCount:  &editCount,
		}
		if err := tx.Create(link).Error; err != nil {
			return err
		}
	}
	return nil
}

func requireOrg(tx *gorm.DB, id *uint) error {
	if id == nil {
		return nil
	}
	var org models.Organization
	if err := tx.First(&org, *id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: organization %d", ErrNotFound, *id)
		}
		return err
	}
	return nil
}

// Get returns a request with its linked documents.
func (rs *RequestService) Get(id uint) (*models.Request, error) {
	var req models.Request
	err := rs.db.
		Preload("Project").
		Preload("Origin").
		Preload("Destination").
		Preload("Documents").
		Preload("Documents.Document").
		First(&req, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: request %d", ErrNotFound, id)
		}
		return nil, err
	}
	return &req, nil
}

// List returns a filtered page of requests, newest first.
func (rs *RequestService) List(filter RequestFilter) ([]models.Request, int64, error) {
	query := rs.db.Model(&models.Request{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where(
			"LOWER(request_number) LIKE ? OR LOWER(purpose) LIKE ? OR LOWER(requester_name) LIKE ?",
			like, like, like)
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

	var reqs []models.Request
	err := query.Order("created_at DESC").
		Offset(page * size).
		Limit(size).
		Find(&reqs).Error
	if err != nil {
		return nil, 0, err
	}
	return reqs, total, nil
}

// Update applies the present fields only; absent fields stay untouched.
func (rs *RequestService) Update(id uint, input RequestInput) (*models.Request, error) {
	var updated *models.Request
	err := rs.db.Transaction(func(tx *gorm.DB) error {
		var req models.Request
		if err := tx.First(&req, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: request %d", ErrNotFound, id)
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
			req.ProjectID = *input.ProjectID
		}
		if input.OriginID != nil {
			if err := requireOrg(tx, input.OriginID); err != nil {
				return err
			}
			req.OriginID = input.OriginID
		}
		if input.DestinationID != nil {
			if err := requireOrg(tx, input.DestinationID); err != nil {
				return err
			}
			req.DestinationID = input.DestinationID
		}

		if input.Purpose != "" {
			req.Purpose = input.Purpose
		}
		if input.Description != "" {
			req.Description = input.Description
		}
		if input.RequesterName != "" {
			req.RequesterName = input.RequesterName
		}
		if input.RequesterContact != "" {
			req.RequesterContact = input.RequesterContact
		}
		if input.TargetName != "" {
			req.TargetName = input.TargetName
		}
		if input.TargetContact != "" {
			req.TargetContact = input.TargetContact
		}
		if input.RequestDate != nil {
			req.RequestDate = input.RequestDate
		}
		if input.Deadline != nil {
			req.Deadline = input.Deadline
		}
		if input.Justification != "" {
			req.Justification = input.Justification
		}
		if input.SpecialInstructions != "" {
			req.SpecialInstructions = input.SpecialInstructions
		}
		if input.Status != "" {
			if !models.ValidRequestStatus(input.Status) {
				return fmt.Errorf("%w: unknown status %q", ErrValidation, input.Status)
			}
			req.Status = input.Status
		}

		if err := tx.Save(&req).Error; err != nil {
			return err
		}
		updated = &req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateStatus is the explicit user-driven status change; automatic
// transitions happen only through document updates.
func (rs *RequestService) UpdateStatus(id uint, status models.RequestStatus) (*models.Request, error) {
	if !models.ValidRequestStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	var req models.Request
	if err := rs.db.First(&req, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: request %d", ErrNotFound, id)
		}
		return nil, err
	}

	req.Status = status
	if err := rs.db.Save(&req).Error; err != nil {
		return nil, err
	}
	rs.metrics.StatusTransition(string(status))
	return &req, nil
}

// EnsureProtocol assigns the request's protocol when absent, drawing
// candidates from the request protocol domain until one is free or the
// attempt budget runs out. An existing protocol is never overwritten.
func (rs *RequestService) EnsureProtocol(id uint) (*models.Request, error) {
	var out *models.Request
	err := rs.db.Transaction(func(tx *gorm.DB) error {
		var req models.Request
		if err := tx.First(&req, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: request %d", ErrNotFound, id)
			}
			return err
		}

		if err := rs.ensureProtocol(tx, &req); err != nil {
			return err
		}
		out = &req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ensureProtocol stamps a protocol onto the request when it has none. The
// pre-check filters obvious collisions; the save itself runs in a savepoint
// so a duplicate slipping past the check (a concurrent draw of the same
// candidate) is caught on the unique index and resampled instead of
// surfacing as a failure.
func (rs *RequestService) ensureProtocol(tx *gorm.DB, req *models.Request) error {
	if strings.TrimSpace(req.Protocol) != "" {
		return nil
	}

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		candidate := randomProtocol("REQ")
		var count int64
		if err := tx.Model(&models.Request{}).
			Where("protocol = ?", candidate).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			rs.metrics.IdentifierRetry("request_protocol")
			continue
		}

		req.Protocol = candidate
		err := tx.Transaction(func(inner *gorm.DB) error {
			return inner.Save(req).Error
		})
		if err == nil {
			return nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			rs.metrics.IdentifierRetry("request_protocol")
			req.Protocol = ""
			continue
		}
		return err
	}
	return fmt.Errorf("%w: request protocol", ErrIDExhausted)
}

// Finalize assigns the protocol when absent, marks the request completed
// and stamps CompletedAt, all in one transaction: a request is never left
// with a protocol but without the completed status.
func (rs *RequestService) Finalize(id uint) (*models.Request, error) {
	var out *models.Request
	err := rs.db.Transaction(func(tx *gorm.DB) error {
		var req models.Request
		if err := tx.First(&req, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: request %d", ErrNotFound, id)
			}
			return err
		}

		if err := rs.ensureProtocol(tx, &req); err != nil {
			return err
		}

		req.Status = models.RequestCompleted
		if req.CompletedAt == nil {
			now := time.Now()
			req.CompletedAt = &now
		}
		if err := tx.Save(&req).Error; err != nil {
			return err
		}
		out = &req
		return nil
	})
	if err != nil {
		return nil, err
	}
	rs.metrics.StatusTransition(string(models.RequestCompleted))
	return out, nil
}

// NotifyRequester sends an ad-hoc mail to the request's requester contact.
func (rs *RequestService) NotifyRequester(id uint, subject, message string) error {
	req, err := rs.Get(id)
	if err != nil {
		return err
	}
	if strings.TrimSpace(req.RequesterContact) == "" {
		return missingField("requesterContact")
	}
	if subject == "" {
		subject = fmt.Sprintf("Update on request %s", req.RequestNumber)
	}
	return rs.mailer.Send(req.RequesterContact, subject, message)
}
