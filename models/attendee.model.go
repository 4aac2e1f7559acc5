package models

import "gorm.io/gorm"

type Attendee struct {
	gorm.Model
	FullName       string `json:"full_name" gorm:"not null"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Country        string `json:"country"`
	DocumentType   string `json:"document_type" gorm:"size:50"`
	DocumentNumber string `json:"document_number" gorm:"size:100"`
	Gender         string `json:"gender" gorm:"size:50"`
	Email          string `json:"email" gorm:"index;not null"`
}
