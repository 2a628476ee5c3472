package models

import "gorm.io/gorm"

// ProjectDiscipline is one row of a project's document matrix: a discipline
// name plus the client and internal recipients for its deliverables. The
// matrix feeds the new-document form lookups.
type ProjectDiscipline struct {
	gorm.Model
	ProjectID uint `gorm:"not null;index"`
	Project   *Project

	Name              string `gorm:"not null;size:120"`
	ClientRecipient   string `gorm:"size:180"`
	InternalRecipient string `gorm:"size:180"`

	DocTypes []ProjectDisciplineDocType `gorm:"constraint:OnDelete:CASCADE"`
}

// ProjectDisciplineDocType is one planned document type under a discipline,
// with the quantity agreed for the project.
type ProjectDisciplineDocType struct {
	gorm.Model
	ProjectDisciplineID uint `gorm:"not null;index"`

	DocType  string `gorm:"not null;size:80"`
	Quantity int    `gorm:"not null;default:0"`
}
