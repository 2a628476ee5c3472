package models

import (
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"
)

// DefaultRole is synthesized at read time for principals without any stored
// role. It is never written back to the roles column.
const DefaultRole = "ROLE_USER"

// User is an authenticatable principal. Roles are stored denormalized as a
// comma-separated list; everything above the persistence edge works with
// []string via RoleList/SetRoleList.
type User struct {
	gorm.Model
	Username     string `gorm:"uniqueIndex;not null"`
	Email        string `gorm:"index"`
	PasswordHash string `gorm:"not null"`
	Enabled      bool   `gorm:"not null;default:true"`
	Roles        string `gorm:"column:roles"`
	LastLogin    time.Time
}

var roleSeparator = regexp.MustCompile(`[,;\s]+`)

// RoleList decodes the stored roles column into normalized labels:
// uppercased, ROLE_-prefixed, deduplicated. An empty column yields the
// default role.
func (u *User) RoleList() []string {
	roles := ParseRoles(u.Roles)
	if len(roles) == 0 {
		return []string{DefaultRole}
	}
	return roles
}

// SetRoleList encodes labels back into the CSV column, normalizing each one.
func (u *User) SetRoleList(roles []string) {
	u.Roles = strings.Join(normalizeRoles(roles), ",")
}

// ParseRoles splits a raw delimited role string into normalized labels.
// Unlike RoleList it does not apply the default role.
func ParseRoles(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return normalizeRoles(roleSeparator.Split(raw, -1))
}

// NormalizeRole uppercases a label and guarantees the ROLE_ prefix.
func NormalizeRole(role string) string {
	r := strings.ToUpper(strings.TrimSpace(role))
	if r == "" {
		return ""
	}
	if !strings.HasPrefix(r, "ROLE_") {
		r = "ROLE_" + r
	}
	return r
}

func normalizeRoles(roles []string) []string {
	seen := make(map[string]struct{}, len(roles))
	out := make([]string, 0, len(roles))
	for _, role := range roles {
		r := NormalizeRole(role)
		if r == "" {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
