package services

import (
	"fmt"
	"testing"

	"github.com/paulaPelizer/DocScriptum/internal/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func issueTestRequest(t *testing.T, database *gorm.DB, pages []*int) (*RequestService, *DocumentService, *models.Request) {
	t.Helper()
	ds := newDocumentService(t, database)
	rs := newRequestService(t, database, nil)
	project := createTestProject(t, database, "PRJ-001")

	var docIDs []uint
	for i, p := range pages {
		doc, err := ds.Create(DocumentInput{
			ProjectID: &project.ID,
			Code:      fmt.Sprintf("DOC-%d", i),
			Title:     fmt.Sprintf("Document %d", i),
			Pages:     p,
		})
		require.NoError(t, err)
		docIDs = append(docIDs, doc.ID)
	}

	req, err := rs.Create(RequestInput{
		ProjectID:   &project.ID,
		Purpose:     "handover",
		DocumentIDs: docIDs,
	})
	require.NoError(t, err)
	return rs, ds, req
}

func intPtr(v int) *int { return &v }

func TestGRDCreateComputesTotals(t *testing.T) {
	database := newTestDB(t)
	gs := newGRDService(t, database)
	_, _, req := issueTestRequest(t, database, []*int{intPtr(10), nil, intPtr(5)})

	grd, err := gs.Create(GRDInput{RequestID: req.ID, DeliveryMethod: "courier"})
	require.NoError(t, err)

	assert.Equal(t, 3, grd.TotalDocuments)
	assert.Equal(t, 15, grd.TotalPages, "nil page counts contribute zero")
	assert.Equal(t, models.GRDStatusIssued, grd.Status)
	assert.Equal(t, "handover", grd.Purpose, "purpose falls back to the request's")
	assert.Equal(t, "Sistema", grd.EmittedBy)
	assert.Regexp(t, `^GRD-\d{4}-\d{6}$`, grd.Number)
	assert.Regexp(t, `^PROT-\d{4}-\d{6}$`, grd.Protocol)
}

func TestGRDCreateCompletesRequestAndStampsProtocol(t *testing.T) {
	database := newTestDB(t)
	gs := newGRDService(t, database)
	_, _, req := issueTestRequest(t, database, nil)
	require.Empty(t, req.Protocol)

	grd, err := gs.Create(GRDInput{RequestID: req.ID})
	require.NoError(t, err)

	var reloaded models.Request
	require.NoError(t, database.First(&reloaded, req.ID).Error)
	assert.Equal(t, models.RequestCompleted, reloaded.Status)
	assert.Equal(t, grd.Protocol, reloaded.Protocol, "a protocol-less request inherits the receipt protocol")
}

func TestGRDCreatePreservesExistingRequestProtocol(t *testing.T) {
	database := newTestDB(t)
	gs := newGRDService(t, database)
	rs, _, req := issueTestRequest(t, database, nil)

	withProtocol, err := rs.EnsureProtocol(req.ID)
	require.NoError(t, err)
	require.NotEmpty(t, withProtocol.Protocol)

	grd, err := gs.Create(GRDInput{RequestID: req.ID})
	require.NoError(t, err)
	assert.NotEqual(t, withProtocol.Protocol, grd.Protocol)

	var reloaded models.Request
	require.NoError(t, database.First(&reloaded, req.ID).Error)
	assert.Equal(t, withProtocol.Protocol, reloaded.Protocol, "existing protocol survives issuance")
	assert.Equal(t, models.RequestCompleted, reloaded.Status)
}

func TestGRDIdentifiersAreDistinctAcrossIssuances(t *testing.T) {
	database := newTestDB(t)
	gs := newGRDService(t, database)
	_, _, req := issueTestRequest(t, database, nil)

	numbers := map[string]bool{}
	protocols := map[string]bool{}
	for i := 0; i < 10; i++ {
		grd, err := gs.Create(GRDInput{RequestID: req.ID})
		require.NoError(t, err)
		assert.False(t, numbers[grd.Number], "duplicate GRD number %s", grd.Number)
		assert.False(t, protocols[grd.Protocol], "duplicate protocol %s", grd.Protocol)
		numbers[grd.Number] = true
		protocols[grd.Protocol] = true
	}
}

func TestGRDTotalsImmutableAfterDocumentDelete(t *testing.T) {
	database := newTestDB(t)
	gs := newGRDService(t, database)
	_, ds, req := issueTestRequest(t, database, []*int{intPtr(7), intPtr(3)})

	grd, err := gs.Create(GRDInput{RequestID: req.ID})
	require.NoError(t, err)
	require.Equal(t, 2, grd.TotalDocuments)
	require.Equal(t, 10, grd.TotalPages)

	var link models.RequestDocument
	require.NoError(t, database.Where("request_id = ?", req.ID).First(&link).Error)
	require.NoError(t, ds.Delete(link.DocumentID))

	reloaded, err := gs.Get(grd.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.TotalDocuments, "totals are a snapshot at issuance")
	assert.Equal(t, 10, reloaded.TotalPages)
}

func TestGRDCreateUnknownRequest(t *testing.T) {
	database := newTestDB(t)
	gs := newGRDService(t, database)

	_, err := gs.Create(GRDInput{RequestID: 9999})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGRDFindByProtocol(t *testing.T) {
	database := newTestDB(t)
	gs := newGRDService(t, database)
	_, _, req := issueTestRequest(t, database, nil)

	grd, err := gs.Create(GRDInput{RequestID: req.ID, EmittedBy: "paula"})
	require.NoError(t, err)
	assert.Equal(t, "paula", grd.EmittedBy)

	found, err := gs.FindByProtocol(grd.Protocol)
	require.NoError(t, err)
	assert.Equal(t, grd.ID, found.ID)
	require.NotNil(t, found.Request)
	assert.Equal(t, req.ID, found.Request.ID)

	_, err = gs.FindByProtocol("PROT-0000-000000")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = gs.FindByProtocol(" ")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGRDCreateResamplesOnDuplicateInsert(t *testing.T) {
	database := newTestDB(t)
	gs := newGRDService(t, database)
	_, _, req := issueTestRequest(t, database, []*int{intPtr(8)})

	// The first insert collides on a unique index, as if a concurrent
	// issuance drew the same identifiers; the pair must be resampled.
	tripped := false
	err := database.Callback().Create().Before("gorm:create").
		Register("duplicate_grd_once", func(tx *gorm.DB) {
			if tripped {
				return
			}
			if _, ok := tx.Statement.Dest.(*models.GRD); ok {
				tripped = true
				tx.AddError(gorm.ErrDuplicatedKey)
			}
		})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Callback().Create().Remove("duplicate_grd_once") })

	grd, err := gs.Create(GRDInput{RequestID: req.ID})
	require.NoError(t, err)
	assert.True(t, tripped, "the colliding insert must have been attempted")
	assert.Regexp(t, `^GRD-\d{4}-\d{6}$`, grd.Number)
	assert.Regexp(t, `^PROT-\d{4}-\d{6}$`, grd.Protocol)

	var count int64
	require.NoError(t, database.Model(&models.GRD{}).Count(&count).Error)
	assert.EqualValues(t, 1, count, "exactly one receipt survives the retry")
}
