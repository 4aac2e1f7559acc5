package services

import (
	"strings"
	"testing"

	"certhub/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessPendingJobs_SendsEmailAndMarksSent(t *testing.T) {
	db := setupTestDb(t)
	renderer := &fakeRenderer{failFor: map[string]bool{}}
	storage := newFakeStorage()
	sender := newFakeSender()
	svc := NewJobService(db, renderer, storage, sender, 10)

	cert := seedCertificate(t, db)
	attendee := seedAttendee(t, db, "Maria Gomez", "maria@example.com")
	gc, job := seedJob(t, db, cert, attendee, models.JobStatusPending)

	result, err := svc.ProcessPendingJobs()
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 0, result.Failed)

	var updated models.Job
	require.NoError(t, db.First(&updated, job.ID).Error)
	assert.Equal(t, models.JobStatusSent, updated.Status)
	assert.Nil(t, updated.ErrorMessage)
	assert.NotNil(t, updated.AttemptedAt)

	var updatedCert models.GeneratedCertificate
	require.NoError(t, db.First(&updatedCert, gc.ID).Error)
	assert.True(t, updatedCert.IsSent)
	assert.Contains(t, updatedCert.S3Url, "certificates/acme_")
	assert.Contains(t, updatedCert.S3Url, "Maria_Gomez_certificate.pdf")

	require.Equal(t, 1, sender.sentCount())
	email := sender.lastSent()
	assert.Equal(t, "maria@example.com", email.ToEmail)
	assert.Equal(t, "d-12345", email.TemplateId)
	assert.Equal(t, "Maria Gomez", email.DynamicData["recipient_name"])
	assert.Contains(t, email.DynamicData["download_link"], "/certificate/")
	assert.NotEmpty(t, email.Attachment)
}

func TestProcessPendingJobs_FailureDoesNotAbortBatch(t *testing.T) {
	db := setupTestDb(t)
	renderer := &fakeRenderer{failFor: map[string]bool{"Broken Render": true}}
	storage := newFakeStorage()
	sender := newFakeSender()
	svc := NewJobService(db, renderer, storage, sender, 10)

	cert := seedCertificate(t, db)
	a1 := seedAttendee(t, db, "Broken Render", "a1@example.com")
	a2 := seedAttendee(t, db, "Works Fine", "a2@example.com")
	_, j1 := seedJob(t, db, cert, a1, models.JobStatusPending)
	_, j2 := seedJob(t, db, cert, a2, models.JobStatusPending)

	result, err := svc.ProcessPendingJobs()
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 1, result.Failed)

	var failed models.Job
	require.NoError(t, db.First(&failed, j1.ID).Error)
	assert.Equal(t, models.JobStatusError, failed.Status)
	require.NotNil(t, failed.ErrorMessage)
	assert.True(t, strings.HasPrefix(*failed.ErrorMessage, "PDF generation failed:"))

	var sent models.Job
	require.NoError(t, db.First(&sent, j2.ID).Error)
	assert.Equal(t, models.JobStatusSent, sent.Status)
}

func TestProcessPendingJobs_RenderFailureNeverSendsEmail(t *testing.T) {
	db := setupTestDb(t)
	renderer := &fakeRenderer{failFor: map[string]bool{"No Template": true}}
	storage := newFakeStorage()
	sender := newFakeSender()
	svc := NewJobService(db, renderer, storage, sender, 10)

	cert := seedCertificate(t, db)
	attendee := seedAttendee(t, db, "No Template", "fail@example.com")
	seedJob(t, db, cert, attendee, models.JobStatusPending)

	result, err := svc.ProcessPendingJobs()
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 0, sender.sentCount())
	assert.Empty(t, storage.files)
}

func TestProcessPendingJobs_EmailFailureKeepsUploadedPdf(t *testing.T) {
	db := setupTestDb(t)
	renderer := &fakeRenderer{failFor: map[string]bool{}}
	storage := newFakeStorage()
	sender := newFakeSender()
	sender.failFor["rejected@example.com"] = true
	svc := NewJobService(db, renderer, storage, sender, 10)

	cert := seedCertificate(t, db)
	attendee := seedAttendee(t, db, "Reject Me", "rejected@example.com")
	gc, job := seedJob(t, db, cert, attendee, models.JobStatusPending)

	result, err := svc.ProcessPendingJobs()
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)

	var failed models.Job
	require.NoError(t, db.First(&failed, job.ID).Error)
	assert.Equal(t, models.JobStatusError, failed.Status)
	require.NotNil(t, failed.ErrorMessage)
	assert.True(t, strings.HasPrefix(*failed.ErrorMessage, "Email sending failed:"))

	// The url stays recorded; a retry overwrites the same key.
	var updatedCert models.GeneratedCertificate
	require.NoError(t, db.First(&updatedCert, gc.ID).Error)
	assert.NotEmpty(t, updatedCert.S3Url)
	assert.False(t, updatedCert.IsSent)
	assert.Len(t, storage.files, 1)
}

func TestProcessPendingJobs_RespectsBatchSize(t *testing.T) {
	db := setupTestDb(t)
	renderer := &fakeRenderer{failFor: map[string]bool{}}
	svc := NewJobService(db, renderer, newFakeStorage(), newFakeSender(), 2)

	cert := seedCertificate(t, db)
	for i, email := range []string{"b1@example.com", "b2@example.com", "b3@example.com"} {
		attendee := seedAttendee(t, db, "Attendee "+string(rune('A'+i)), email)
		seedJob(t, db, cert, attendee, models.JobStatusPending)
	}

	result, err := svc.ProcessPendingJobs()
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)

	var pending int64
	db.Model(&models.Job{}).Where("status = ?", models.JobStatusPending).Count(&pending)
	assert.Equal(t, int64(1), pending)
}

func TestRetryJob_ClearsErrorState(t *testing.T) {
	db := setupTestDb(t)
	svc := NewJobService(db, &fakeRenderer{}, newFakeStorage(), newFakeSender(), 10)

	cert := seedCertificate(t, db)
	attendee := seedAttendee(t, db, "Retry Target", "retry@example.com")
	_, job := seedJob(t, db, cert, attendee, models.JobStatusError)
	message := "Email sending failed: timeout"
	require.NoError(t, db.Model(job).Update("error_message", message).Error)

	retried, err := svc.RetryJob(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, retried.Status)
	assert.Nil(t, retried.ErrorMessage)
	assert.Nil(t, retried.AttemptedAt)

	var stored models.Job
	require.NoError(t, db.First(&stored, job.ID).Error)
	assert.Equal(t, models.JobStatusPending, stored.Status)
	assert.Nil(t, stored.ErrorMessage)
}

func TestRetryJob_NotFound(t *testing.T) {
	db := setupTestDb(t)
	svc := NewJobService(db, &fakeRenderer{}, newFakeStorage(), newFakeSender(), 10)

	_, err := svc.RetryJob(999)
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestGetJobStats_SuccessRateOverAttemptedOnly(t *testing.T) {
	db := setupTestDb(t)
	svc := NewJobService(db, &fakeRenderer{}, newFakeStorage(), newFakeSender(), 10)

	cert := seedCertificate(t, db)
	seeds := []struct {
		email  string
		status models.JobStatus
	}{
		{"s1@example.com", models.JobStatusSent},
		{"s2@example.com", models.JobStatusSent},
		{"s3@example.com", models.JobStatusSent},
		{"e1@example.com", models.JobStatusError},
		{"p1@example.com", models.JobStatusPending},
		{"p2@example.com", models.JobStatusPending},
	}
	for _, seed := range seeds {
		attendee := seedAttendee(t, db, "Stats "+seed.email, seed.email)
		seedJob(t, db, cert, attendee, seed.status)
	}

	stats, err := svc.GetJobStats()
	require.NoError(t, err)
	assert.Equal(t, int64(6), stats.Total)
	assert.Equal(t, int64(2), stats.Pending)
	assert.Equal(t, int64(3), stats.Sent)
	assert.Equal(t, int64(1), stats.Error)
	assert.InDelta(t, 75.0, stats.SuccessRate, 0.01)
}

func TestGetJobStats_EmptyIsHealthy(t *testing.T) {
	db := setupTestDb(t)
	svc := NewJobService(db, &fakeRenderer{}, newFakeStorage(), newFakeSender(), 10)

	stats, err := svc.GetJobStats()
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Total)
	assert.Equal(t, float64(100), stats.SuccessRate)
}

func TestAuditJobsVsS3_DetectsMissingAndEmptyUrls(t *testing.T) {
	db := setupTestDb(t)
	storage := newFakeStorage()
	svc := NewJobService(db, &fakeRenderer{}, storage, newFakeSender(), 10)

	cert := seedCertificate(t, db)

	// Sent with a file present in storage.
	a1 := seedAttendee(t, db, "Has Pdf", "haspdf@example.com")
	gc1, _ := seedJob(t, db, cert, a1, models.JobStatusSent)
	url, err := storage.UploadFile("certificates/acme_2026/1_test/Has_Pdf_certificate.pdf", []byte("pdf"), "application/pdf")
	require.NoError(t, err)
	require.NoError(t, db.Model(gc1).Update("s3_url", url).Error)

	// Sent but the object is gone.
	a2 := seedAttendee(t, db, "Lost Pdf", "lostpdf@example.com")
	gc2, _ := seedJob(t, db, cert, a2, models.JobStatusSent)
	require.NoError(t, db.Model(gc2).Update("s3_url", storage.cdnBase+"/certificates/acme_2026/1_test/Lost_Pdf_certificate.pdf").Error)

	// Sent without ever recording a url.
	a3 := seedAttendee(t, db, "No Url", "nourl@example.com")
	seedJob(t, db, cert, a3, models.JobStatusSent)

	// Pending jobs are out of audit scope.
	a4 := seedAttendee(t, db, "Still Pending", "pending@example.com")
	seedJob(t, db, cert, a4, models.JobStatusPending)

	result, err := svc.AuditJobsVsS3()
	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalSentJobs)
	assert.Equal(t, 1, result.JobsWithValidPdfs)
	assert.Equal(t, 2, result.JobsWithMissingPdfs)
	assert.Len(t, result.MissingPdfJobs, 2)
}

func TestAuditJobsVsS3_ExistenceCheckErrorCountsAsMissing(t *testing.T) {
	db := setupTestDb(t)
	storage := newFakeStorage()
	storage.existsErr = assert.AnError
	svc := NewJobService(db, &fakeRenderer{}, storage, newFakeSender(), 10)

	cert := seedCertificate(t, db)
	attendee := seedAttendee(t, db, "Unknown State", "unknown@example.com")
	gc, _ := seedJob(t, db, cert, attendee, models.JobStatusSent)
	require.NoError(t, db.Model(gc).Update("s3_url", storage.cdnBase+"/certificates/x.pdf").Error)

	result, err := svc.AuditJobsVsS3()
	require.NoError(t, err)
	assert.Equal(t, 1, result.JobsWithMissingPdfs)
	assert.Equal(t, 0, result.JobsWithValidPdfs)
}

func TestRetryJobsWithMissingPdfs_ResetsSentJobsOnly(t *testing.T) {
	db := setupTestDb(t)
	svc := NewJobService(db, &fakeRenderer{}, newFakeStorage(), newFakeSender(), 10)

	cert := seedCertificate(t, db)
	a1 := seedAttendee(t, db, "Was Sent", "wassent@example.com")
	gc1, j1 := seedJob(t, db, cert, a1, models.JobStatusSent)
	require.NoError(t, db.Model(gc1).Update("is_sent", true).Error)

	a2 := seedAttendee(t, db, "Still Pending", "stillpending@example.com")
	_, j2 := seedJob(t, db, cert, a2, models.JobStatusPending)

	result := svc.RetryJobsWithMissingPdfs([]uint{j1.ID, j2.ID, 9999})
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.RetriedJobs)
	assert.Equal(t, 2, result.SkippedJobs)

	var reset models.Job
	require.NoError(t, db.First(&reset, j1.ID).Error)
	assert.Equal(t, models.JobStatusPending, reset.Status)

	var resetCert models.GeneratedCertificate
	require.NoError(t, db.First(&resetCert, gc1.ID).Error)
	assert.False(t, resetCert.IsSent)
}

func TestProcessPendingJobs_RepairedJobGetsRedelivered(t *testing.T) {
	db := setupTestDb(t)
	renderer := &fakeRenderer{failFor: map[string]bool{}}
	storage := newFakeStorage()
	sender := newFakeSender()
	svc := NewJobService(db, renderer, storage, sender, 10)

	cert := seedCertificate(t, db)
	attendee := seedAttendee(t, db, "Round Trip", "roundtrip@example.com")
	gc, job := seedJob(t, db, cert, attendee, models.JobStatusSent)
	require.NoError(t, db.Model(gc).Update("is_sent", true).Error)

	repair := svc.RetryJobsWithMissingPdfs([]uint{job.ID})
	require.Equal(t, 1, repair.RetriedJobs)

	result, err := svc.ProcessPendingJobs()
	require.NoError(t, err)
	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 1, sender.sentCount())

	var final models.GeneratedCertificate
	require.NoError(t, db.First(&final, gc.ID).Error)
	assert.True(t, final.IsSent)
	assert.NotEmpty(t, final.S3Url)
}
