package models

import "time"

type JobStatus string

const (
	JobStatusPending JobStatus = "pending"
	JobStatusSent    JobStatus = "sent"
	JobStatusError   JobStatus = "error"
)

// Job is the unit of delivery work: send one generated certificate by email.
// The unique index on GeneratedCertificateID guarantees at most one job per
// certificate; the application re-checks before insert as defense in depth.
type Job struct {
	ID                     uint       `json:"id" gorm:"primaryKey"`
	GeneratedCertificateID uint       `json:"generated_certificate_id" gorm:"uniqueIndex;not null"`
	Status                 JobStatus  `json:"status" gorm:"size:20;default:'pending';index"`
	AttemptedAt            *time.Time `json:"attempted_at"`
	ErrorMessage           *string    `json:"error_message" gorm:"type:text"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`

	GeneratedCertificate GeneratedCertificate `json:"generated_certificate,omitempty" gorm:"foreignKey:GeneratedCertificateID"`
}
