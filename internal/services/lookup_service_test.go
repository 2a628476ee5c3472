package services

import (
	"testing"

	"github.com/paulaPelizer/DocScriptum/internal/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSetDisciplinesReplacesMatrix(t *testing.T) {
	database := newTestDB(t)
	ls := NewLookupService(database, zap.NewNop())
	project := createTestProject(t, database, "PRJ-001")

	first, err := ls.SetDisciplines(project.ID, []DisciplineInput{
		{Name: "Civil", DocTypes: []DocTypeInput{{DocType: "DWG", Quantity: 4}}},
		{Name: "Electrical"},
	})
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := ls.SetDisciplines(project.ID, []DisciplineInput{
		{Name: "Piping", ClientRecipient: "client@acme.test", DocTypes: []DocTypeInput{
			{DocType: "ISO", Quantity: 2},
			{DocType: "P&ID", Quantity: 1},
		}},
	})
	require.NoError(t, err)
	require.Len(t, second, 1)

	rows, err := ls.Disciplines(project.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1, "the old matrix is gone after a replace")
	assert.Equal(t, "Piping", rows[0].Name)
	assert.Equal(t, "client@acme.test", rows[0].ClientRecipient)
	require.Len(t, rows[0].DocTypes, 2)

	var orphans int64
	require.NoError(t, database.Model(&models.ProjectDisciplineDocType{}).Count(&orphans).Error)
	assert.EqualValues(t, 2, orphans, "doc types of replaced disciplines are removed")
}

func TestSetDisciplinesValidation(t *testing.T) {
	database := newTestDB(t)
	ls := NewLookupService(database, zap.NewNop())
	project := createTestProject(t, database, "PRJ-001")

	_, err := ls.SetDisciplines(9999, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = ls.SetDisciplines(project.ID, []DisciplineInput{{Name: "  "}})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = ls.SetDisciplines(project.ID, []DisciplineInput{
		{Name: "Civil", DocTypes: []DocTypeInput{{DocType: ""}}},
	})
	assert.ErrorIs(t, err, ErrValidation)

	// A failed replace keeps whatever was stored before.
	_, err = ls.SetDisciplines(project.ID, []DisciplineInput{{Name: "Civil"}})
	require.NoError(t, err)
	_, err = ls.SetDisciplines(project.ID, []DisciplineInput{{Name: "Mechanical"}, {Name: ""}})
	require.Error(t, err)
	rows, err := ls.Disciplines(project.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Civil", rows[0].Name)
}

func TestFormDataAggregatesLookups(t *testing.T) {
	database := newTestDB(t)
	ls := NewLookupService(database, zap.NewNop())
	rsvc := NewResourceService(database, zap.NewNop())

	project := createTestProject(t, database, "PRJ-001")
	createTestProject(t, database, "PRJ-002")
	createTestOrganization(t, database, "Acme Corp", models.OrgClient)
	createTestOrganization(t, database, "Steel Co", models.OrgSupplier)
	createTestOrganization(t, database, "Head Office", models.OrgInternal)

	_, err := rsvc.Create(ResourceInput{Name: "Joana Reis", Role: "Engineer"})
	require.NoError(t, err)
	_, err = rsvc.Create(ResourceInput{Name: "Gone Person", Status: "Inativo"})
	require.NoError(t, err)

	_, err = ls.SetDisciplines(project.ID, []DisciplineInput{
		{Name: "Civil", DocTypes: []DocTypeInput{
			{DocType: "DWG", Quantity: 3},
			{DocType: "MEM", Quantity: 1},
		}},
	})
	require.NoError(t, err)

	data, err := ls.FormData(project.ID)
	require.NoError(t, err)

	assert.Len(t, data.Projects, 2)
	require.Len(t, data.Disciplines, 1)
	require.Len(t, data.DocTypes, 2)
	assert.Equal(t, data.Disciplines[0].ID, data.DocTypes[0].DisciplineID)

	require.Len(t, data.Responsibles, 1, "inactive resources stay off the form")
	assert.Equal(t, "Joana Reis", data.Responsibles[0].Name)

	require.Len(t, data.Clients, 1)
	assert.Equal(t, "Acme Corp", data.Clients[0].Name)
	require.Len(t, data.Suppliers, 1)
	assert.Equal(t, "Steel Co", data.Suppliers[0].Name)

	_, err = ls.FormData(9999)
	assert.ErrorIs(t, err, ErrNotFound)
}
