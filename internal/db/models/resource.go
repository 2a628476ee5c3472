package models

import (
	"strings"

	"gorm.io/gorm"
)

// Resource statuses mirror the values the frontend sends.
const (
	ResourceActive   = "ATIVO"
	ResourceInactive = "INATIVO"
)

// Partnership types link a resource to the organization kind it works for.
const (
	PartnershipClient   = "CLIENT"
	PartnershipSupplier = "SUPPLIER"
	PartnershipInternal = "INTERNAL"
)

// Resource is a person available for project work: technical responsibles,
// client contacts, supplier staff. Tags are stored denormalized as a
// comma-separated list, same scheme as User roles.
type Resource struct {
	gorm.Model
	Name   string `gorm:"not null;size:200"`
	Role   string `gorm:"size:200"`
	Status string `gorm:"size:30"`
	Email  string `gorm:"size:200"`
	Phone  string `gorm:"size:50"`

	PartnershipType string `gorm:"size:50"`
	PartnershipName string `gorm:"size:200"`

	Tags  string `gorm:"size:500"`
	Notes string `gorm:"size:2000"`
}

// TagList decodes the stored tags column, dropping blanks.
func (r *Resource) TagList() []string {
	if strings.TrimSpace(r.Tags) == "" {
		return nil
	}
	parts := strings.Split(r.Tags, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// SetTagList encodes tags back into the CSV column.
func (r *Resource) SetTagList(tags []string) {
	clean := make([]string, 0, len(tags))
	for _, tag := range tags {
		if t := strings.TrimSpace(tag); t != "" {
			clean = append(clean, t)
		}
	}
	r.Tags = strings.Join(clean, ",")
}
