package models

import "gorm.io/gorm"

// Certificate is the template configuration for one event's certificates.
type Certificate struct {
	gorm.Model
	Client             string `json:"client" gorm:"not null"`
	Name               string `json:"name" gorm:"not null"`
	EventName          string `json:"event_name" gorm:"not null"`
	BaseDesignUrl      string `json:"base_design_url" gorm:"size:500"`
	PdfTemplate        string `json:"pdf_template" gorm:"default:'default'"`
	SendgridTemplateId string `json:"sendgrid_template_id" gorm:"size:100"`
	EventLink          string `json:"event_link" gorm:"size:500"`

	// Optional overrides for the outgoing email. Empty means system defaults.
	SenderFromName string `json:"sender_from_name"`
	SenderEmail    string `json:"sender_email"`
	EmailSubject   string `json:"email_subject"`

	IsActive bool `json:"is_active" gorm:"default:true"`
}
