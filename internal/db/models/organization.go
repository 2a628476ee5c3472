package models

import "gorm.io/gorm"

type OrgType string

const (
	OrgClient   OrgType = "CLIENT"
	OrgSupplier OrgType = "SUPPLIER"
	OrgInternal OrgType = "INTERNAL"
)

// Organization is an origin or destination party for requests and GRDs.
type Organization struct {
	gorm.Model
	Name         string  `gorm:"not null;size:180"`
	OrgType      OrgType `gorm:"not null;size:20"`
	CNPJ         string  `gorm:"size:18"`
	Description  string  `gorm:"size:500"`
	Status       string  `gorm:"size:30"`
	Segment      string  `gorm:"size:60"`
	ContactName  string  `gorm:"size:120"`
	ContactRole  string  `gorm:"size:80"`
	ContactEmail string  `gorm:"size:120"`
	ContactPhone string  `gorm:"size:40"`
	ContactNotes string  `gorm:"size:1000"`
	ProjectCount int     `gorm:"not null;default:0"`
}
