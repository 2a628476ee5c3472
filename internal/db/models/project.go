package models

import (
	"time"

	"gorm.io/gorm"
)

// Project groups documents for one engineering engagement.
type Project struct {
	gorm.Model
	Code           string `gorm:"uniqueIndex;not null;size:60"`
	Name           string `gorm:"not null;size:180"`
	Description    string `gorm:"size:500"`
	ClientID       *uint  `gorm:"index"`
	Client         *Organization
	Status         string `gorm:"size:30"`
	StartDate      *time.Time
	PlannedEndDate *time.Time
	Documents      []Document
}
