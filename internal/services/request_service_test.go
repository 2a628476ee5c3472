package services

import (
	"errors"
	"regexp"
	"testing"

	"github.com/paulaPelizer/DocScriptum/internal/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestRequestCreateRequiresProject(t *testing.T) {
	database := newTestDB(t)
	rs := newRequestService(t, database, nil)

	_, err := rs.Create(RequestInput{})
	assert.ErrorIs(t, err, ErrValidation)

	missing := uint(9999)
	_, err = rs.Create(RequestInput{ProjectID: &missing})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRequestCreateValidatesOrganizations(t *testing.T) {
	database := newTestDB(t)
	rs := newRequestService(t, database, nil)
	project := createTestProject(t, database, "PRJ-001")

	missing := uint(9999)
	_, err := rs.Create(RequestInput{ProjectID: &project.ID, OriginID: &missing})
	assert.ErrorIs(t, err, ErrNotFound)

	origin := createTestOrganization(t, database, "Acme", models.OrgClient)
	destination := createTestOrganization(t, database, "Internal", models.OrgInternal)

	req, err := rs.Create(RequestInput{
		ProjectID:     &project.ID,
		OriginID:      &origin.ID,
		DestinationID: &destination.ID,
		Purpose:       "review",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, req.Status)
	assert.Regexp(t, `^REQ-\d{4}-[0-9A-F-]{6}$`, req.RequestNumber)
	assert.Empty(t, req.Protocol)
	require.NotNil(t, req.RequestDate)
}

func TestRequestCreateBindsDocumentsWithSnapshots(t *testing.T) {
	database := newTestDB(t)
	ds := newDocumentService(t, database)
	rs := newRequestService(t, database, nil)
	project := createTestProject(t, database, "PRJ-001")
	other := createTestProject(t, database, "PRJ-002")

	doc, err := ds.Create(DocumentInput{
		ProjectID:  &project.ID,
		Code:       "DOC-1",
		Title:      "Drawing",
		UploadHash: "base",
	})
	require.NoError(t, err)
	// Two edits so the snapshot has something to record.
	_, err = ds.Update(doc.ID, DocumentInput{})
	require.NoError(t, err)
	doc, err = ds.Update(doc.ID, DocumentInput{})
	require.NoError(t, err)
	require.Equal(t, "base_2", doc.UploadHash)

	req, err := rs.Create(RequestInput{ProjectID: &project.ID, DocumentIDs: []uint{doc.ID}})
	require.NoError(t, err)

	var link models.RequestDocument
	require.NoError(t, database.Where("request_id = ?", req.ID).First(&link).Error)
	assert.Equal(t, "base", link.DocUploadHash, "snapshot stores the base, never the suffixed hash")
	require.NotNil(t, link.DocEditCount)
	assert.Equal(t, 2, *link.DocEditCount)

	// Documents from another project are refused and the whole create rolls back.
	foreign, err := ds.Create(DocumentInput{ProjectID: &other.ID, Code: "DOC-X", Title: "Foreign"})
	require.NoError(t, err)
	_, err = rs.Create(RequestInput{ProjectID: &project.ID, DocumentIDs: []uint{foreign.ID}})
	assert.ErrorIs(t, err, ErrValidation)

	var total int64
	require.NoError(t, database.Model(&models.Request{}).Count(&total).Error)
	assert.EqualValues(t, 1, total)
}

func TestRequestUpdateStatusValidation(t *testing.T) {
	database := newTestDB(t)
	rs := newRequestService(t, database, nil)
	project := createTestProject(t, database, "PRJ-001")

	req, err := rs.Create(RequestInput{ProjectID: &project.ID})
	require.NoError(t, err)

	_, err = rs.UpdateStatus(req.ID, "NONSENSE")
	assert.ErrorIs(t, err, ErrValidation)

	updated, err := rs.UpdateStatus(req.ID, models.RequestWaitingClient)
	require.NoError(t, err)
	assert.Equal(t, models.RequestWaitingClient, updated.Status)
}

func TestRequestEnsureProtocolIsIdempotent(t *testing.T) {
	database := newTestDB(t)
	rs := newRequestService(t, database, nil)
	project := createTestProject(t, database, "PRJ-001")

	req, err := rs.Create(RequestInput{ProjectID: &project.ID})
	require.NoError(t, err)
	require.Empty(t, req.Protocol)

	first, err := rs.EnsureProtocol(req.ID)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^REQ-\d{4}-\d{6}$`), first.Protocol)

	second, err := rs.EnsureProtocol(req.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Protocol, second.Protocol, "an assigned protocol is never replaced")
}

func TestRequestFinalize(t *testing.T) {
	database := newTestDB(t)
	rs := newRequestService(t, database, nil)
	project := createTestProject(t, database, "PRJ-001")

	req, err := rs.Create(RequestInput{ProjectID: &project.ID})
	require.NoError(t, err)

	done, err := rs.Finalize(req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestCompleted, done.Status)
	assert.NotEmpty(t, done.Protocol)
	require.NotNil(t, done.CompletedAt)

	// Finalizing again keeps the original completion timestamp.
	again, err := rs.Finalize(req.ID)
	require.NoError(t, err)
	assert.Equal(t, done.CompletedAt.Unix(), again.CompletedAt.Unix())
}

func TestRequestNotifyRequester(t *testing.T) {
	database := newTestDB(t)
	mailer := &captureMailer{}
	rs := newRequestService(t, database, mailer)
	project := createTestProject(t, database, "PRJ-001")

	req, err := rs.Create(RequestInput{
		ProjectID:        &project.ID,
		RequesterName:    "Paula",
		RequesterContact: "paula@example.com",
	})
	require.NoError(t, err)

	require.NoError(t, rs.NotifyRequester(req.ID, "", "documents are ready"))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "paula@example.com", mailer.sent[0].To)
	assert.Contains(t, mailer.sent[0].Subject, req.RequestNumber)

	noContact, err := rs.Create(RequestInput{ProjectID: &project.ID})
	require.NoError(t, err)
	err = rs.NotifyRequester(noContact.ID, "s", "m")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRequestUpdatePartial(t *testing.T) {
	database := newTestDB(t)
	rs := newRequestService(t, database, nil)
	project := createTestProject(t, database, "PRJ-001")

	req, err := rs.Create(RequestInput{
		ProjectID:     &project.ID,
		Purpose:       "original purpose",
		Justification: "because",
	})
	require.NoError(t, err)

	updated, err := rs.Update(req.ID, RequestInput{Description: "added later"})
	require.NoError(t, err)
	assert.Equal(t, "original purpose", updated.Purpose)
	assert.Equal(t, "added later", updated.Description)
	assert.Equal(t, "because", updated.Justification)

	_, err = rs.Update(req.ID, RequestInput{Status: "BOGUS"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRequestFinalizeRollsBackProtocolOnFailure(t *testing.T) {
	database := newTestDB(t)
	rs := newRequestService(t, database, nil)
	project := createTestProject(t, database, "PRJ-001")

	req, err := rs.Create(RequestInput{ProjectID: &project.ID})
	require.NoError(t, err)

	// Fail the status flip after the protocol has already been drawn and
	// saved inside the same transaction.
	err = database.Callback().Update().Before("gorm:update").
		Register("fail_completed_save", func(tx *gorm.DB) {
			if r, ok := tx.Statement.Dest.(*models.Request); ok && r.Status == models.RequestCompleted {
				tx.AddError(errors.New("storage offline"))
			}
		})
	require.NoError(t, err)

	_, err = rs.Finalize(req.ID)
	require.Error(t, err)

	var reloaded models.Request
	require.NoError(t, database.First(&reloaded, req.ID).Error)
	assert.Empty(t, reloaded.Protocol, "a failed finalize must not leave a stamped protocol behind")
	assert.Equal(t, models.RequestPending, reloaded.Status)

	require.NoError(t, database.Callback().Update().Remove("fail_completed_save"))

	done, err := rs.Finalize(req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestCompleted, done.Status)
	assert.NotEmpty(t, done.Protocol)
}

func TestRequestEnsureProtocolResamplesOnDuplicateKey(t *testing.T) {
	database := newTestDB(t)
	rs := newRequestService(t, database, nil)
	project := createTestProject(t, database, "PRJ-001")

	req, err := rs.Create(RequestInput{ProjectID: &project.ID})
	require.NoError(t, err)

	// The first protocol save collides on the unique index; the draw must
	// be resampled instead of surfacing the failure.
	tripped := false
	err = database.Callback().Update().Before("gorm:update").
		Register("duplicate_protocol_once", func(tx *gorm.DB) {
			if tripped {
				return
			}
			if r, ok := tx.Statement.Dest.(*models.Request); ok && r.Protocol != "" {
				tripped = true
				tx.AddError(gorm.ErrDuplicatedKey)
			}
		})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Callback().Update().Remove("duplicate_protocol_once") })

	stamped, err := rs.EnsureProtocol(req.ID)
	require.NoError(t, err)
	assert.True(t, tripped, "the colliding save must have been attempted")
	assert.Regexp(t, regexp.MustCompile(`^REQ-\d{4}-\d{6}$`), stamped.Protocol)

	var reloaded models.Request
	require.NoError(t, database.First(&reloaded, req.ID).Error)
	assert.Equal(t, stamped.Protocol, reloaded.Protocol)
}
