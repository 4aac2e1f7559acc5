package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"certhub/models"

	"gorm.io/gorm"
)

// GenerationOutcome is the per-attendee result of a bulk generation call, so
// callers can tell exactly which attendee failed and why.
type GenerationOutcome struct {
	AttendeeID  uint                         `json:"attendee_id"`
	Certificate *models.GeneratedCertificate `json:"certificate,omitempty"`
	Error       string                       `json:"error,omitempty"`
}

type GenerationResult struct {
	Certificates []models.GeneratedCertificate `json:"certificates"`
	Outcomes     []GenerationOutcome           `json:"outcomes"`
}

type ScheduleResult struct {
	JobsCreated    int `json:"jobsCreated"`
	JobsSkipped    int `json:"jobsSkipped"`
	TotalRequested int `json:"totalRequested"`
}

type BackfillResult struct {
	TotalCertificates int `json:"totalCertificates"`
	JobsCreated       int `json:"jobsCreated"`
	AlreadyProcessed  int `json:"alreadyProcessed"`
}

// GeneratedCertificateService produces certificates and backfills delivery
// jobs for certificates that exist without one.
type GeneratedCertificateService struct {
	db      *gorm.DB
	pdf     PdfRenderer
	storage StorageGateway
}

func NewGeneratedCertificateService(db *gorm.DB, pdf PdfRenderer, storage StorageGateway) *GeneratedCertificateService {
	return &GeneratedCertificateService{db: db, pdf: pdf, storage: storage}
}

func (s *GeneratedCertificateService) FindAll() ([]models.GeneratedCertificate, error) {
	var certs []models.GeneratedCertificate
	err := s.db.Preload("Certificate").Preload("Attendee").
		Order("generated_at desc").
		Find(&certs).Error
	return certs, err
}

func (s *GeneratedCertificateService) FindOne(id uint) (*models.GeneratedCertificate, error) {
	var cert models.GeneratedCertificate
	err := s.db.Preload("Certificate").Preload("Attendee").
		Where("id = ?", id).First(&cert).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGeneratedCertificateNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

func (s *GeneratedCertificateService) Remove(id uint) error {
	cert, err := s.FindOne(id)
	if err != nil {
		return err
	}
	return s.db.Delete(cert).Error
}

// GenerateCertificates renders and stores one certificate per attendee.
// Existing (template, attendee) pairs are returned as-is: generation is
// idempotent. Per-attendee failures are recorded in the outcome list and do
// not abort the batch.
func (s *GeneratedCertificateService) GenerateCertificates(certificateID uint, attendeeIDs []uint, sendEmails bool) (*GenerationResult, error) {
	var certificate models.Certificate
	if err := s.db.Where("id = ?", certificateID).First(&certificate).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCertificateNotFound
		}
		return nil, err
	}

	var attendees []models.Attendee
	if err := s.db.Where("id IN ?", attendeeIDs).Find(&attendees).Error; err != nil {
		return nil, err
	}
	if len(attendees) != len(attendeeIDs) {
		return nil, ErrAttendeesNotFound
	}

	result := &GenerationResult{}
	for _, attendee := range attendees {
		record, err := s.generateOne(&certificate, &attendee, sendEmails)
		if err != nil {
			log.Printf("[CERT-GENERATOR] Error generating certificate for attendee %d: %v", attendee.ID, err)
			result.Outcomes = append(result.Outcomes, GenerationOutcome{
				AttendeeID: attendee.ID,
				Error:      err.Error(),
			})
			continue
		}
		result.Certificates = append(result.Certificates, *record)
		result.Outcomes = append(result.Outcomes, GenerationOutcome{
			AttendeeID:  attendee.ID,
			Certificate: record,
		})
	}
	return result, nil
}

func (s *GeneratedCertificateService) generateOne(certificate *models.Certificate, attendee *models.Attendee, sendEmail bool) (*models.GeneratedCertificate, error) {
	var existing models.GeneratedCertificate
	err := s.db.Where("certificate_id = ? AND attendee_id = ?", certificate.ID, attendee.ID).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	pdfBytes, err := s.pdf.GenerateCertificatePdf(CertificateData{
		FullName:        attendee.FullName,
		CertificateName: certificate.Name,
		EventName:       certificate.EventName,
		BaseDesignUrl:   certificate.BaseDesignUrl,
		Country:         attendee.Country,
		DocumentType:    attendee.DocumentType,
		DocumentNumber:  attendee.DocumentNumber,
	}, certificate.PdfTemplate)
	if err != nil {
		return nil, fmt.Errorf("rendering certificate: %w", err)
	}

	key := GenerateCertificateKey(certificate.Client, time.Now().Year(), certificate.ID, certificate.Name, attendee.FullName)
	url, err := s.storage.UploadFile(key, pdfBytes, "application/pdf")
	if err != nil {
		return nil, fmt.Errorf("uploading certificate: %w", err)
	}

	record := models.GeneratedCertificate{
		CertificateID: certificate.ID,
		AttendeeID:    attendee.ID,
		S3Url:         url,
		GeneratedAt:   time.Now(),
		IsSent:        false,
	}
	if err := s.db.Create(&record).Error; err != nil {
		return nil, fmt.Errorf("saving certificate: %w", err)
	}

	if sendEmail {
		if _, err := s.createEmailJob(record.ID); err != nil {
			return nil, fmt.Errorf("creating email job: %w", err)
		}
	}
	return &record, nil
}

// createEmailJob creates the delivery job for one certificate unless one
// already exists. The unique index backstops the check under concurrency.
func (s *GeneratedCertificateService) createEmailJob(generatedCertificateID uint) (bool, error) {
	var count int64
	if err := s.db.Model(&models.Job{}).
		Where("generated_certificate_id = ?", generatedCertificateID).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	job := models.Job{
		GeneratedCertificateID: generatedCertificateID,
		Status:                 models.JobStatusPending,
	}
	if err := s.db.Create(&job).Error; err != nil {
		return false, err
	}
	return true, nil
}

// SendCertificateEmails schedules delivery jobs for explicit certificate ids.
// Missing certificates and certificates that already have a job are skipped.
func (s *GeneratedCertificateService) SendCertificateEmails(ids []uint) (*ScheduleResult, error) {
	result := &ScheduleResult{TotalRequested: len(ids)}

	for _, id := range ids {
		var count int64
		if err := s.db.Model(&models.GeneratedCertificate{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			result.JobsSkipped++
			continue
		}

		created, err := s.createEmailJob(id)
		if err != nil {
			log.Printf("[CERT-GENERATOR] Error creating job for certificate %d: %v", id, err)
			result.JobsSkipped++
			continue
		}
		if created {
			result.JobsCreated++
		} else {
			result.JobsSkipped++
		}
	}
	return result, nil
}

// ProcessPendingCertificatesBatch creates jobs for up to batchSize
// certificates that have none. Each row is re-checked right before insert to
// guard against a concurrent scheduler claiming it first.
func (s *GeneratedCertificateService) ProcessPendingCertificatesBatch(batchSize int) (*BackfillResult, error) {
	query := s.db.
		Select("generated_certificates.*").
		Joins("LEFT JOIN jobs ON jobs.generated_certificate_id = generated_certificates.id").
		Where("jobs.id IS NULL").
		Order("generated_certificates.id asc")
	if batchSize > 0 {
		query = query.Limit(batchSize)
	}

	var certs []models.GeneratedCertificate
	if err := query.Find(&certs).Error; err != nil {
		return nil, fmt.Errorf("fetching certificates without jobs: %w", err)
	}

	result := &BackfillResult{TotalCertificates: len(certs)}
	for _, cert := range certs {
		created, err := s.createEmailJob(cert.ID)
		if err != nil {
			log.Printf("[CERT-BACKFILL] Error creating job for certificate %d: %v", cert.ID, err)
			continue
		}
		if created {
			result.JobsCreated++
		} else {
			result.AlreadyProcessed++
		}
	}
	return result, nil
}

// ProcessPendingCertificates is the unbounded variant. Emergency use only:
// on a large backlog this can hold a request open for a long time. The
// scheduled batch variant is the safe default.
func (s *GeneratedCertificateService) ProcessPendingCertificates() (*BackfillResult, error) {
	return s.ProcessPendingCertificatesBatch(0)
}

// RegenerateCertificatePdf renders a fresh PDF for the public download
// endpoint. Nothing is cached or uploaded here.
func (s *GeneratedCertificateService) RegenerateCertificatePdf(id uint) ([]byte, *models.GeneratedCertificate, error) {
	cert, err := s.FindOne(id)
	if err != nil {
		return nil, nil, err
	}

	pdfBytes, err := s.pdf.GenerateCertificatePdf(CertificateData{
		FullName:        cert.Attendee.FullName,
		CertificateName: cert.Certificate.Name,
		EventName:       cert.Certificate.EventName,
		BaseDesignUrl:   cert.Certificate.BaseDesignUrl,
		Country:         cert.Attendee.Country,
		DocumentType:    cert.Attendee.DocumentType,
		DocumentNumber:  cert.Attendee.DocumentNumber,
	}, cert.Certificate.PdfTemplate)
	if err != nil {
		return nil, nil, err
	}
	return pdfBytes, cert, nil
}
