package services

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"certhub/models"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// CertificateStats aggregates delivery progress for one certificate template.
type CertificateStats struct {
	CertificateID   uint    `json:"certificateId"`
	CertificateName string  `json:"certificateName"`
	Client          string  `json:"client"`
	EventName       string  `json:"eventName"`
	TotalGenerated  int64   `json:"totalGenerated"`
	TotalSent       int64   `json:"totalSent"`
	TotalPending    int64   `json:"totalPending"`
	DeliveryRate    float64 `json:"deliveryRate"`
}

// ReportService builds per-template delivery statistics and XLSX exports.
type ReportService struct {
	db *gorm.DB
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db}
}

func (s *ReportService) GetCertificateStats(certificateID uint) (*CertificateStats, error) {
	var certificate models.Certificate
	if err := s.db.Where("id = ?", certificateID).First(&certificate).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCertificateNotFound
		}
		return nil, err
	}

	stats := &CertificateStats{
		CertificateID:   certificate.ID,
		CertificateName: certificate.Name,
		Client:          certificate.Client,
		EventName:       certificate.EventName,
	}

	base := s.db.Model(&models.GeneratedCertificate{}).Where("certificate_id = ?", certificate.ID)
	if err := base.Count(&stats.TotalGenerated).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.GeneratedCertificate{}).
		Where("certificate_id = ? AND is_sent = ?", certificate.ID, true).
		Count(&stats.TotalSent).Error; err != nil {
		return nil, err
	}

	stats.TotalPending = stats.TotalGenerated - stats.TotalSent
	if stats.TotalGenerated > 0 {
		stats.DeliveryRate = float64(stats.TotalSent) / float64(stats.TotalGenerated) * 100
	}
	return stats, nil
}

// GenerateCertificateReport exports all recipients of one template to XLSX.
func (s *ReportService) GenerateCertificateReport(certificateID uint) ([]byte, string, error) {
	var certificate models.Certificate
	if err := s.db.Where("id = ?", certificateID).First(&certificate).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrCertificateNotFound
		}
		return nil, "", err
	}

	var certs []models.GeneratedCertificate
	err := s.db.Preload("Attendee").Preload("Job").
		Where("certificate_id = ?", certificate.ID).
		Order("id asc").
		Find(&certs).Error
	if err != nil {
		return nil, "", err
	}

	file := excelize.NewFile()
	defer file.Close()

	sheet := "Certificates"
	file.SetSheetName("Sheet1", sheet)

	headers := []string{"Attendee", "Email", "Country", "Document", "Generated At", "Sent", "Job Status", "Error", "PDF URL"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		file.SetCellValue(sheet, cell, header)
	}

	for row, cert := range certs {
		jobStatus, jobError := "", ""
		if cert.Job != nil {
			jobStatus = string(cert.Job.Status)
			if cert.Job.ErrorMessage != nil {
				jobError = *cert.Job.ErrorMessage
			}
		}
		generatedAt := ""
		if !cert.GeneratedAt.IsZero() {
			generatedAt = cert.GeneratedAt.Format("2006-01-02 15:04")
		}

		values := []interface{}{
			cert.Attendee.FullName,
			cert.Attendee.Email,
			cert.Attendee.Country,
			fmt.Sprintf("%s %s", cert.Attendee.DocumentType, cert.Attendee.DocumentNumber),
			generatedAt,
			cert.IsSent,
			jobStatus,
			jobError,
			cert.S3Url,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			file.SetCellValue(sheet, cell, value)
		}
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		return nil, "", fmt.Errorf("writing report: %w", err)
	}

	filename := fmt.Sprintf("%s_report_%s.xlsx", sanitizePart(certificate.Name), time.Now().Format("20060102"))
	return buf.Bytes(), filename, nil
}
