package models

import (
	"time"

	"gorm.io/gorm"
)

type RequestStatus string

const (
	RequestPending       RequestStatus = "PENDING"
	RequestInProgress    RequestStatus = "IN_PROGRESS"
	RequestWaitingClient RequestStatus = "WAITING_CLIENT"
	RequestWaitingAdm    RequestStatus = "WAITING_ADM"
	RequestRejected      RequestStatus = "REJECTED"
	RequestCompleted     RequestStatus = "COMPLETED"
	RequestCancelled     RequestStatus = "CANCELLED"
)

// ValidRequestStatus reports whether s is one of the known statuses.
func ValidRequestStatus(s RequestStatus) bool {
	switch s {
	case RequestPending, RequestInProgress, RequestWaitingClient,
		RequestWaitingAdm, RequestRejected, RequestCompleted, RequestCancelled:
		return true
	}
	return false
}

// Request is a cross-organization ask for a set of documents. Protocol is
// assigned lazily and, once set, never changes; RequestNumber is assigned at
// creation and only needs to be human-distinguishable.
type Request struct {
	gorm.Model
	RequestNumber string `gorm:"size:40"`
	Protocol      string `gorm:"size:50;index"`

	ProjectID     uint `gorm:"not null;index"`
	Project       *Project
	OriginID      *uint
	Origin        *Organization `gorm:"foreignKey:OriginID"`
	DestinationID *uint
	Destination   *Organization `gorm:"foreignKey:DestinationID"`

	Purpose     string `gorm:"size:120"`
	Description string `gorm:"size:4000"`

	RequesterName    string `gorm:"size:120"`
	RequesterContact string `gorm:"size:120"`
	TargetName       string `gorm:"size:120"`
	TargetContact    string `gorm:"size:120"`

	RequestDate         *time.Time
	Deadline            *time.Time
	Justification       string `gorm:"size:4000"`
	SpecialInstructions string `gorm:"size:4000"`

	Status      RequestStatus `gorm:"not null;size:20;default:'PENDING'"`
	CompletedAt *time.Time

	Documents []RequestDocument `gorm:"constraint:OnDelete:CASCADE"`
}
