package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"certhub/config"
	"certhub/models"

	"gorm.io/gorm"
)

var (
	ErrJobNotFound                  = errors.New("job not found")
	ErrCertificateNotFound          = errors.New("certificate configuration not found")
	ErrAttendeesNotFound            = errors.New("some attendees not found")
	ErrGeneratedCertificateNotFound = errors.New("generated certificate not found")
)

// ProcessResult summarizes one batch run. Processed is the batch actually
// selected, not the global pending count.
type ProcessResult struct {
	Processed  int `json:"processed"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

type JobStats struct {
	Pending     int64   `json:"pending"`
	Sent        int64   `json:"sent"`
	Error       int64   `json:"error"`
	Total       int64   `json:"total"`
	SuccessRate float64 `json:"successRate"`
}

type MissingPdfJob struct {
	JobID         uint       `json:"jobId"`
	CertificateID uint       `json:"certificateId"`
	AttendeeName  string     `json:"attendeeName"`
	AttendeeEmail string     `json:"attendeeEmail"`
	S3Url         string     `json:"s3Url"`
	S3Key         string     `json:"s3Key"`
	AttemptedAt   *time.Time `json:"attemptedAt"`
}

type AuditResult struct {
	TotalSentJobs       int             `json:"totalSentJobs"`
	JobsWithValidPdfs   int             `json:"jobsWithValidPdfs"`
	JobsWithMissingPdfs int             `json:"jobsWithMissingPdfs"`
	MissingPdfJobs      []MissingPdfJob `json:"missingPdfJobs"`
}

type RetryResult struct {
	Success     bool   `json:"success"`
	RetriedJobs int    `json:"retriedJobs"`
	SkippedJobs int    `json:"skippedJobs"`
	Message     string `json:"message"`
}

// JobService drains pending delivery jobs: render PDF, upload, email, and
// move the job through its state machine.
type JobService struct {
	db        *gorm.DB
	pdf       PdfRenderer
	storage   StorageGateway
	email     EmailSender
	batchSize int
}

func NewJobService(db *gorm.DB, pdf PdfRenderer, storage StorageGateway, email EmailSender, batchSize int) *JobService {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &JobService{db: db, pdf: pdf, storage: storage, email: email, batchSize: batchSize}
}

func (s *JobService) withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("GeneratedCertificate").
		Preload("GeneratedCertificate.Certificate").
		Preload("GeneratedCertificate.Attendee")
}

// ProcessPendingJobs drains up to one batch of pending jobs. A failure inside
// one job marks that job as error and never aborts the batch.
func (s *JobService) ProcessPendingJobs() (*ProcessResult, error) {
	var jobs []models.Job
	err := s.withRelations(s.db).
		Where("status = ?", models.JobStatusPending).
		Order("id asc").
		Limit(s.batchSize).
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("fetching pending jobs: %w", err)
	}

	result := &ProcessResult{Processed: len(jobs)}
	for i := range jobs {
		if err := s.processJob(&jobs[i]); err != nil {
			result.Failed++
			log.Printf("[JOB-PROCESSOR] Job %d failed: %v", jobs[i].ID, err)
		} else {
			result.Successful++
		}
	}
	return result, nil
}

// processJob runs one delivery attempt. Render failure stops before email so
// a success claim is never sent for a template that could not render.
func (s *JobService) processJob(job *models.Job) error {
	now := time.Now()
	job.AttemptedAt = &now
	if err := s.db.Model(job).Update("attempted_at", now).Error; err != nil {
		return s.failJob(job, fmt.Sprintf("Job update failed: %v", err))
	}

	cert := job.GeneratedCertificate.Certificate
	attendee := job.GeneratedCertificate.Attendee

	pdfBytes, err := s.pdf.GenerateCertificatePdf(CertificateData{
		FullName:        attendee.FullName,
		CertificateName: cert.Name,
		EventName:       cert.EventName,
		BaseDesignUrl:   cert.BaseDesignUrl,
		Country:         attendee.Country,
		DocumentType:    attendee.DocumentType,
		DocumentNumber:  attendee.DocumentNumber,
	}, cert.PdfTemplate)
	if err != nil {
		return s.failJob(job, fmt.Sprintf("PDF generation failed: %v", err))
	}

	key := GenerateCertificateKey(cert.Client, time.Now().Year(), cert.ID, cert.Name, attendee.FullName)
	url, err := s.storage.UploadFile(key, pdfBytes, "application/pdf")
	if err != nil {
		return s.failJob(job, fmt.Sprintf("PDF upload failed: %v", err))
	}
	if err := s.db.Model(&models.GeneratedCertificate{}).
		Where("id = ?", job.GeneratedCertificateID).
		Update("s3_url", url).Error; err != nil {
		return s.failJob(job, fmt.Sprintf("Certificate update failed: %v", err))
	}

	downloadLink := fmt.Sprintf("%s/certificate/%d/download", config.AppConfig.AppUrl, job.GeneratedCertificateID)
	err = s.email.SendCertificateEmail(CertificateEmailParams{
		ToEmail:    attendee.Email,
		ToName:     attendee.FullName,
		TemplateId: cert.SendgridTemplateId,
		DynamicData: map[string]interface{}{
			"recipient_name":   attendee.FullName,
			"certificate_name": cert.Name,
			"event_name":       cert.EventName,
			"event_link":       cert.EventLink,
			"download_link":    downloadLink,
		},
		Attachment:     pdfBytes,
		AttachmentName: sanitizePart(attendee.FullName) + "_certificate.pdf",
		FromEmail:      cert.SenderEmail,
		FromName:       cert.SenderFromName,
		Subject:        cert.EmailSubject,
	})
	if err != nil {
		// The uploaded PDF stays; retries overwrite the same key anyway.
		return s.failJob(job, fmt.Sprintf("Email sending failed: %v", err))
	}

	// Two separate writes. A crash between them is reconciled by the audit
	// sweep, not by a transaction.
	if err := s.db.Model(job).Updates(map[string]interface{}{
		"status":        models.JobStatusSent,
		"error_message": nil,
	}).Error; err != nil {
		return s.failJob(job, fmt.Sprintf("Job update failed: %v", err))
	}
	if err := s.db.Model(&models.GeneratedCertificate{}).
		Where("id = ?", job.GeneratedCertificateID).
		Update("is_sent", true).Error; err != nil {
		log.Printf("[JOB-PROCESSOR] Job %d sent but is_sent flag update failed: %v", job.ID, err)
	}

	log.Printf("[JOB-PROCESSOR] Email sent successfully for certificate %d", job.GeneratedCertificateID)
	return nil
}

func (s *JobService) failJob(job *models.Job, message string) error {
	if err := s.db.Model(job).Updates(map[string]interface{}{
		"status":        models.JobStatusError,
		"error_message": message,
	}).Error; err != nil {
		log.Printf("[JOB-PROCESSOR] Failed to record error for job %d: %v", job.ID, err)
	}
	return errors.New(message)
}

func (s *JobService) GetJobStats() (*JobStats, error) {
	stats := &JobStats{}
	counts := map[models.JobStatus]*int64{
		models.JobStatusPending: &stats.Pending,
		models.JobStatusSent:    &stats.Sent,
		models.JobStatusError:   &stats.Error,
	}
	for status, target := range counts {
		if err := s.db.Model(&models.Job{}).Where("status = ?", status).Count(target).Error; err != nil {
			return nil, err
		}
	}
	stats.Total = stats.Pending + stats.Sent + stats.Error

	// Rate over attempted jobs only; pending jobs say nothing about health.
	attempted := stats.Sent + stats.Error
	if attempted > 0 {
		stats.SuccessRate = float64(stats.Sent) * 100 / float64(attempted)
	} else {
		stats.SuccessRate = 100
	}
	return stats, nil
}

func (s *JobService) FindAll() ([]models.Job, error) {
	var jobs []models.Job
	err := s.withRelations(s.db).Order("created_at desc").Find(&jobs).Error
	return jobs, err
}

func (s *JobService) FindPendingJobs() ([]models.Job, error) {
	var jobs []models.Job
	err := s.withRelations(s.db).
		Where("status = ?", models.JobStatusPending).
		Order("created_at desc").
		Find(&jobs).Error
	return jobs, err
}

func (s *JobService) FindOne(id uint) (*models.Job, error) {
	var job models.Job
	err := s.withRelations(s.db).Where("id = ?", id).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// RetryJob resets one job to pending. A later successful attempt leaves no
// trace of the earlier failure.
func (s *JobService) RetryJob(id uint) (*models.Job, error) {
	job, err := s.FindOne(id)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(job).Updates(map[string]interface{}{
		"status":        models.JobStatusPending,
		"error_message": nil,
		"attempted_at":  nil,
	}).Error; err != nil {
		return nil, err
	}

	job.Status = models.JobStatusPending
	job.ErrorMessage = nil
	job.AttemptedAt = nil
	return job, nil
}

// RetryFailedJobs resets every error job back to pending.
func (s *JobService) RetryFailedJobs() error {
	return s.db.Model(&models.Job{}).
		Where("status = ?", models.JobStatusError).
		Updates(map[string]interface{}{
			"status":        models.JobStatusPending,
			"error_message": nil,
			"attempted_at":  nil,
		}).Error
}

// AuditJobsVsS3 cross-checks every sent job against actual storage contents.
// An existence-check error counts as missing rather than being skipped, and
// so does a sent job whose certificate never recorded a file url.
func (s *JobService) AuditJobsVsS3() (*AuditResult, error) {
	var sentJobs []models.Job
	err := s.withRelations(s.db).
		Where("status = ?", models.JobStatusSent).
		Order("id asc").
		Find(&sentJobs).Error
	if err != nil {
		return nil, fmt.Errorf("fetching sent jobs: %w", err)
	}

	result := &AuditResult{
		TotalSentJobs:  len(sentJobs),
		MissingPdfJobs: []MissingPdfJob{},
	}

	for _, job := range sentJobs {
		gc := job.GeneratedCertificate
		entry := MissingPdfJob{
			JobID:         job.ID,
			CertificateID: gc.CertificateID,
			AttendeeName:  gc.Attendee.FullName,
			AttendeeEmail: gc.Attendee.Email,
			S3Url:         gc.S3Url,
			AttemptedAt:   job.AttemptedAt,
		}

		if gc.S3Url == "" {
			log.Printf("[JOB-AUDIT] Job %d is sent but its certificate has no stored file url", job.ID)
			result.JobsWithMissingPdfs++
			result.MissingPdfJobs = append(result.MissingPdfJobs, entry)
			continue
		}

		entry.S3Key = s.storage.ExtractKeyFromUrl(gc.S3Url)
		exists, err := s.storage.FileExists(entry.S3Key)
		if err != nil {
			log.Printf("[JOB-AUDIT] Existence check failed for job %d (%s): %v", job.ID, entry.S3Key, err)
		}
		if err != nil || !exists {
			result.JobsWithMissingPdfs++
			result.MissingPdfJobs = append(result.MissingPdfJobs, entry)
			continue
		}
		result.JobsWithValidPdfs++
	}

	return result, nil
}

// RetryJobsWithMissingPdfs resets the given sent jobs back to pending. Jobs
// that are not found or no longer sent are skipped, never failed.
func (s *JobService) RetryJobsWithMissingPdfs(jobIDs []uint) *RetryResult {
	retried, skipped := 0, 0

	for _, id := range jobIDs {
		var job models.Job
		err := s.db.Where("id = ? AND status = ?", id, models.JobStatusSent).First(&job).Error
		if err != nil {
			skipped++
			continue
		}

		if err := s.db.Model(&job).Updates(map[string]interface{}{
			"status":        models.JobStatusPending,
			"error_message": nil,
			"attempted_at":  nil,
		}).Error; err != nil {
			log.Printf("[JOB-REPAIR] Failed to reset job %d: %v", id, err)
			skipped++
			continue
		}
		if err := s.db.Model(&models.GeneratedCertificate{}).
			Where("id = ?", job.GeneratedCertificateID).
			Update("is_sent", false).Error; err != nil {
			log.Printf("[JOB-REPAIR] Failed to clear is_sent for certificate %d: %v", job.GeneratedCertificateID, err)
		}
		retried++
	}

	return &RetryResult{
		Success:     true,
		RetriedJobs: retried,
		SkippedJobs: skipped,
		Message:     fmt.Sprintf("Reset %d jobs to pending, skipped %d", retried, skipped),
	}
}
