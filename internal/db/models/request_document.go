package models

import "gorm.io/gorm"

// RequestDocument links a Request to a Document and snapshots the document
// version the request last observed: the base upload hash (no edit suffix)
// and the edit count. The snapshot is refreshed whenever the document is
// edited so the system can tell whether the document changed since the
// request last looked at it.
type RequestDocument struct {
	gorm.Model
	RequestID  uint `gorm:"not null;index"`
	Request    *Request
	DocumentID uint `gorm:"not null;index"`
	Document   *Document
	Required   bool `gorm:"not null;default:false"`

	DocUploadHash string `gorm:"size:80"`
	DocEditCount  *int
}
