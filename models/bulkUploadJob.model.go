package models

import (
	"time"

	"gorm.io/datatypes"
)

type BulkUploadJobStatus string

const (
	BulkUploadJobStatusPending    BulkUploadJobStatus = "pending"
	BulkUploadJobStatusProcessing BulkUploadJobStatus = "processing"
	BulkUploadJobStatusCompleted  BulkUploadJobStatus = "completed"
	BulkUploadJobStatusFailed     BulkUploadJobStatus = "failed"
)

// BulkUploadJob tracks one attendee file import. One-way state machine:
// pending -> processing -> completed/failed. No retry modeled.
type BulkUploadJob struct {
	ID                     uint                `json:"id" gorm:"primaryKey"`
	Filename               string              `json:"filename" gorm:"not null"`
	UserID                 uint                `json:"user_id" gorm:"index;not null"`
	Status                 BulkUploadJobStatus `json:"status" gorm:"size:20;default:'pending'"`
	TotalRecords           int                 `json:"total_records"`
	Created                int                 `json:"created"`
	Updated                int                 `json:"updated"`
	Errors                 int                 `json:"errors"`
	CertificatesAssociated int                 `json:"certificates_associated"`
	ErrorDetails           datatypes.JSON      `json:"error_details"`
	StartedAt              *time.Time          `json:"started_at"`
	CompletedAt            *time.Time          `json:"completed_at"`
	ErrorMessage           string              `json:"error_message"`
	CreatedAt              time.Time           `json:"created_at"`
	UpdatedAt              time.Time           `json:"updated_at"`
}
