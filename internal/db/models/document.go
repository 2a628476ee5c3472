package models

import (
	"time"

	"gorm.io/gorm"
)

const DocumentStatusPlanned = "PLANNED"

// Document is a tracked engineering deliverable. EditCount counts successful
// update operations; UploadHash is a stable base token suffixed with the
// current edit count ("<base>_<editCount>"). The base never changes after
// creation, only the suffix.
type Document struct {
	gorm.Model
	ProjectID *uint `gorm:"index"`
	Project   *Project

	Code     string `gorm:"not null;size:80"`
	Title    string `gorm:"not null;size:255"`
	Revision string `gorm:"size:30"`
	Format   string `gorm:"size:40"`
	Pages    *int
	FileURL  string `gorm:"size:500"`
	Status   string `gorm:"size:30;default:'PLANNED'"`

	Species              string `gorm:"size:60"`
	Description          string `gorm:"size:2000"`
	CurrentLocation      string `gorm:"size:180"`
	TechnicalResponsible string `gorm:"size:180"`
	Remarks              string `gorm:"size:2000"`

	EditCount  int    `gorm:"not null;default:0"`
	UploadHash string `gorm:"index;size:80"`

	PerformedDate *time.Time
	DueDate       *time.Time
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.Status == "" {
		d.Status = DocumentStatusPlanned
	}
	return nil
}
