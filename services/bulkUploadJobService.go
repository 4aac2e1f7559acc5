package services

import (
	"encoding/json"
	"errors"
	"log"
	"runtime/debug"
	"time"

	"certhub/models"

	"gorm.io/gorm"
)

var ErrBulkUploadJobNotFound = errors.New("bulk upload job not found")

// BulkUploadJobService tracks attendee file imports and runs them in the
// background so the upload request returns immediately.
type BulkUploadJobService struct {
	db        *gorm.DB
	processor *FileProcessingService
}

func NewBulkUploadJobService(db *gorm.DB, processor *FileProcessingService) *BulkUploadJobService {
	return &BulkUploadJobService{db: db, processor: processor}
}

// CreateJob persists a pending job and kicks off processing in a goroutine.
// The returned job is the pending record; poll FindOne for progress.
func (s *BulkUploadJobService) CreateJob(filename string, userID uint, fileData []byte, updateExisting bool) (*models.BulkUploadJob, error) {
	job := models.BulkUploadJob{
		Filename: filename,
		UserID:   userID,
		Status:   models.BulkUploadJobStatusPending,
	}
	if err := s.db.Create(&job).Error; err != nil {
		return nil, err
	}

	go s.processFileAsync(job.ID, filename, fileData, updateExisting)
	return &job, nil
}

func (s *BulkUploadJobService) processFileAsync(jobID uint, filename string, fileData []byte, updateExisting bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[BULK-UPLOAD] Panic processing job %d: %v\n%s", jobID, r, debug.Stack())
			s.markFailed(jobID, "internal error during file processing")
		}
	}()

	now := time.Now()
	if err := s.db.Model(&models.BulkUploadJob{}).Where("id = ?", jobID).Updates(map[string]interface{}{
		"status":     models.BulkUploadJobStatusProcessing,
		"started_at": &now,
	}).Error; err != nil {
		log.Printf("[BULK-UPLOAD] Error marking job %d as processing: %v", jobID, err)
		return
	}

	log.Printf("[BULK-UPLOAD] Processing file %s (job %d)", filename, jobID)

	result, err := s.processor.ProcessFile(filename, fileData, updateExisting)
	if err != nil {
		log.Printf("[BULK-UPLOAD] Job %d failed: %v", jobID, err)
		s.markFailed(jobID, err.Error())
		return
	}

	details, _ := json.Marshal(result.ErrorDetails)
	completed := time.Now()
	err = s.db.Model(&models.BulkUploadJob{}).Where("id = ?", jobID).Updates(map[string]interface{}{
		"status":                  models.BulkUploadJobStatusCompleted,
		"total_records":           result.TotalRecords,
		"created":                 result.Created,
		"updated":                 result.Updated,
		"errors":                  result.Errors,
		"certificates_associated": result.CertificatesAssociated,
		"error_details":           details,
		"completed_at":            &completed,
	}).Error
	if err != nil {
		log.Printf("[BULK-UPLOAD] Error marking job %d as completed: %v", jobID, err)
		return
	}

	log.Printf("[BULK-UPLOAD] Job %d completed. Total: %d, Created: %d, Updated: %d, Errors: %d",
		jobID, result.TotalRecords, result.Created, result.Updated, result.Errors)
}

func (s *BulkUploadJobService) markFailed(jobID uint, message string) {
	completed := time.Now()
	err := s.db.Model(&models.BulkUploadJob{}).Where("id = ?", jobID).Updates(map[string]interface{}{
		"status":        models.BulkUploadJobStatusFailed,
		"error_message": message,
		"completed_at":  &completed,
	}).Error
	if err != nil {
		log.Printf("[BULK-UPLOAD] Error marking job %d as failed: %v", jobID, err)
	}
}

func (s *BulkUploadJobService) FindOne(id uint) (*models.BulkUploadJob, error) {
	var job models.BulkUploadJob
	err := s.db.Where("id = ?", id).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBulkUploadJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *BulkUploadJobService) FindByUser(userID uint) ([]models.BulkUploadJob, error) {
	var jobs []models.BulkUploadJob
	err := s.db.Where("user_id = ?", userID).Order("created_at desc").Find(&jobs).Error
	return jobs, err
}

func (s *BulkUploadJobService) FindCompleted() ([]models.BulkUploadJob, error) {
	var jobs []models.BulkUploadJob
	err := s.db.Where("status = ?", models.BulkUploadJobStatusCompleted).
		Order("completed_at desc").Find(&jobs).Error
	return jobs, err
}
