package services

import (
	"testing"
	"time"

	"certhub/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateJob_ProcessesFileInBackground(t *testing.T) {
	db := setupTestDb(t)
	svc := NewBulkUploadJobService(db, NewFileProcessingService(db))

	csv := "full_name,email\nAsync Person,async@example.com\n"
	job, err := svc.CreateJob("attendees.csv", 1, []byte(csv), false)
	require.NoError(t, err)
	assert.Equal(t, models.BulkUploadJobStatusPending, job.Status)

	require.Eventually(t, func() bool {
		current, err := svc.FindOne(job.ID)
		return err == nil && current.Status == models.BulkUploadJobStatusCompleted
	}, 5*time.Second, 20*time.Millisecond)

	completed, err := svc.FindOne(job.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, completed.TotalRecords)
	assert.Equal(t, 1, completed.Created)
	assert.Equal(t, 0, completed.Errors)
	assert.NotNil(t, completed.StartedAt)
	assert.NotNil(t, completed.CompletedAt)

	var attendee models.Attendee
	require.NoError(t, db.Where("email = ?", "async@example.com").First(&attendee).Error)
}

func TestCreateJob_MalformedFileFailsJob(t *testing.T) {
	db := setupTestDb(t)
	svc := NewBulkUploadJobService(db, NewFileProcessingService(db))

	job, err := svc.CreateJob("attendees.csv", 1, []byte("no_email_column\nvalue\n"), false)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		current, err := svc.FindOne(job.ID)
		return err == nil && current.Status == models.BulkUploadJobStatusFailed
	}, 5*time.Second, 20*time.Millisecond)

	failed, err := svc.FindOne(job.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, failed.ErrorMessage)
}

func TestFindOne_NotFound(t *testing.T) {
	db := setupTestDb(t)
	svc := NewBulkUploadJobService(db, NewFileProcessingService(db))

	_, err := svc.FindOne(123)
	assert.ErrorIs(t, err, ErrBulkUploadJobNotFound)
}

func TestFindByUser_ReturnsOwnJobsOnly(t *testing.T) {
	db := setupTestDb(t)
	svc := NewBulkUploadJobService(db, NewFileProcessingService(db))

	require.NoError(t, db.Create(&models.BulkUploadJob{Filename: "a.csv", UserID: 1, Status: models.BulkUploadJobStatusCompleted}).Error)
	require.NoError(t, db.Create(&models.BulkUploadJob{Filename: "b.csv", UserID: 2, Status: models.BulkUploadJobStatusCompleted}).Error)

	jobs, err := svc.FindByUser(1)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "a.csv", jobs[0].Filename)
}
