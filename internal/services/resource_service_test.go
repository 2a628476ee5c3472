package services

import (
	"testing"

	"github.com/paulaPelizer/DocScriptum/internal/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestResourceCreateNormalizesInput(t *testing.T) {
	database := newTestDB(t)
	rs := NewResourceService(database, zap.NewNop())

	_, err := rs.Create(ResourceInput{Name: "  "})
	assert.ErrorIs(t, err, ErrValidation)

	resource, err := rs.Create(ResourceInput{
		Name:    "  Joana Reis ",
		Role:    "Engineer",
		OrgType: "fornecedor",
		OrgName: "Steel Co",
		Status:  "Ativo",
		Tags:    []string{" structural ", "", "piping"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Joana Reis", resource.Name)
	assert.Equal(t, models.PartnershipSupplier, resource.PartnershipType)
	assert.Equal(t, models.ResourceActive, resource.Status)
	assert.Equal(t, "structural,piping", resource.Tags)
	assert.Equal(t, []string{"structural", "piping"}, resource.TagList())
}

func TestResourcePartnershipDefaultsToClient(t *testing.T) {
	database := newTestDB(t)
	rs := NewResourceService(database, zap.NewNop())

	resource, err := rs.Create(ResourceInput{Name: "Someone", OrgType: "whatever"})
	require.NoError(t, err)
	assert.Equal(t, models.PartnershipClient, resource.PartnershipType)

	// The legacy partnershipType field still works when orgType is absent.
	resource, err = rs.Create(ResourceInput{
		Name:            "Intern",
		PartnershipType: "interno",
		PartnershipName: "Head Office",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PartnershipInternal, resource.PartnershipType)
	assert.Equal(t, "Head Office", resource.PartnershipName)
}

func TestResourceUpdateAndGet(t *testing.T) {
	database := newTestDB(t)
	rs := NewResourceService(database, zap.NewNop())

	resource, err := rs.Create(ResourceInput{Name: "Joana Reis", Status: "Ativo"})
	require.NoError(t, err)

	updated, err := rs.Update(resource.ID, ResourceInput{
		Name:   "Joana Reis",
		Status: "inactive",
		Notes:  "on leave",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ResourceInactive, updated.Status)
	assert.Equal(t, "on leave", updated.Notes)

	_, err = rs.Update(resource.ID, ResourceInput{Name: ""})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = rs.Update(9999, ResourceInput{Name: "Nobody"})
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := rs.Get(resource.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ResourceInactive, got.Status)

	_, err = rs.Get(9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResourceListFilters(t *testing.T) {
	database := newTestDB(t)
	rs := NewResourceService(database, zap.NewNop())

	for _, input := range []ResourceInput{
		{Name: "Ana", Role: "Architect", Status: "Ativo"},
		{Name: "Bruno", Role: "Welder", Status: "Inativo"},
		{Name: "Carla", Role: "Engineer", Status: "Ativo"},
	} {
		_, err := rs.Create(input)
		require.NoError(t, err)
	}

	active, total, err := rs.List(ResourceFilter{Status: "Ativo"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, active, 2)
	assert.Equal(t, "Ana", active[0].Name, "ordered by name")

	byRole, _, err := rs.List(ResourceFilter{Query: "weld"})
	require.NoError(t, err)
	require.Len(t, byRole, 1)
	assert.Equal(t, "Bruno", byRole[0].Name)
}
