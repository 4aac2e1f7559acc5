package models

import "time"

// GeneratedCertificate is one produced (or to-be-produced) certificate for a
// single attendee under a single template. No soft delete here: the backfill
// sweep joins against this table and must see exactly the live rows.
type GeneratedCertificate struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	CertificateID uint      `json:"certificate_id" gorm:"uniqueIndex:idx_certificate_attendee;not null"`
	AttendeeID    uint      `json:"attendee_id" gorm:"uniqueIndex:idx_certificate_attendee;not null"`
	S3Url         string    `json:"s3_url" gorm:"size:500"`
	GeneratedAt   time.Time `json:"generated_at"`
	IsSent        bool      `json:"is_sent" gorm:"default:false"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Certificate Certificate `json:"certificate,omitempty" gorm:"foreignKey:CertificateID"`
	Attendee    Attendee    `json:"attendee,omitempty" gorm:"foreignKey:AttendeeID"`
	Job         *Job        `json:"job,omitempty" gorm:"foreignKey:GeneratedCertificateID"`
}
