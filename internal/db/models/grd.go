package models

import (
	"time"

	"gorm.io/gorm"
)

const GRDStatusIssued = "ISSUED"

// GRD is the delivery receipt that closes out a fulfilled request. Number
// and Protocol live in separate uniqueness domains and are both generated
// server-side. A GRD is created once and never mutated; the status column
// exists for future cancellation semantics and stays ISSUED in the base flow.
type GRD struct {
	gorm.Model
	RequestID uint `gorm:"not null;index"`
	Request   *Request

	ProjectID     *uint
	Project       *Project
	OriginID      *uint
	Origin        *Organization `gorm:"foreignKey:OriginID"`
	DestinationID *uint
	Destination   *Organization `gorm:"foreignKey:DestinationID"`

	Number   string `gorm:"uniqueIndex;not null;size:40"`
	Protocol string `gorm:"uniqueIndex;not null;size:40"`

	Purpose        string `gorm:"size:500"`
	DeliveryMethod string `gorm:"size:120"`
	Observations   string `gorm:"size:2000"`

	EmittedBy  string `gorm:"size:180"`
	EmissionAt time.Time
	Status     string `gorm:"size:40"`

	TotalDocuments int `gorm:"not null;default:0"`
	TotalPages     int `gorm:"not null;default:0"`
}
