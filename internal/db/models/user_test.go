package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRolesNormalizes(t *testing.T) {
	assert.Equal(t,
		[]string{"ROLE_DBA", "ROLE_ADMIN", "ROLE_RESOURCE"},
		ParseRoles("dba, admin;resource"))

	// Duplicates collapse after normalization.
	assert.Equal(t,
		[]string{"ROLE_ADMIN"},
		ParseRoles("ADMIN,role_admin, admin"))

	assert.Nil(t, ParseRoles("   "))
	assert.Nil(t, ParseRoles(""))
}

func TestNormalizeRole(t *testing.T) {
	assert.Equal(t, "ROLE_ADMIN", NormalizeRole("admin"))
	assert.Equal(t, "ROLE_ADMIN", NormalizeRole("ROLE_ADMIN"))
	assert.Equal(t, "ROLE_ADMIN", NormalizeRole("  role_admin "))
	assert.Equal(t, "", NormalizeRole("  "))
}

func TestRoleListDefaultsWithoutWritingBack(t *testing.T) {
	u := &User{}
	assert.Equal(t, []string{DefaultRole}, u.RoleList())
	assert.Empty(t, u.Roles, "the default role is synthesized, never persisted")

	u.SetRoleList([]string{"admin", "resource"})
	assert.Equal(t, "ROLE_ADMIN,ROLE_RESOURCE", u.Roles)
	assert.Equal(t, []string{"ROLE_ADMIN", "ROLE_RESOURCE"}, u.RoleList())
}
