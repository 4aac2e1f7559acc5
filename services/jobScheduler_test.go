package services

import (
	"sync"
	"testing"
	"time"

	"certhub/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T, renderer *fakeRenderer) (*JobScheduler, *JobService, *fakeSender) {
	t.Helper()
	db := setupTestDb(t)
	storage := newFakeStorage()
	sender := newFakeSender()
	jobs := NewJobService(db, renderer, storage, sender, 10)
	certs := NewGeneratedCertificateService(db, renderer, storage)
	sched := NewJobScheduler(jobs, certs, 50, 0, 10)

	cert := seedCertificate(t, db)
	attendee := seedAttendee(t, db, "Scheduled", "scheduled@example.com")
	seedJob(t, db, cert, attendee, models.JobStatusPending)
	return sched, jobs, sender
}

func TestInMemoryLock(t *testing.T) {
	lock := NewInMemoryLock()
	assert.False(t, lock.IsHeld())

	require.True(t, lock.TryAcquire())
	assert.True(t, lock.IsHeld())
	assert.False(t, lock.TryAcquire())

	lock.Release()
	assert.False(t, lock.IsHeld())
	assert.True(t, lock.TryAcquire())
}

func TestHandleProcessEmailJobs_ProcessesBatch(t *testing.T) {
	sched, jobs, sender := newTestScheduler(t, &fakeRenderer{failFor: map[string]bool{}})

	sched.HandleProcessEmailJobs()

	assert.Equal(t, 1, sender.sentCount())
	stats, err := jobs.GetJobStats()
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Sent)
	assert.False(t, sched.emailLock.IsHeld())
}

func TestHandleProcessEmailJobs_SkipsWhileRunning(t *testing.T) {
	renderer := &fakeRenderer{failFor: map[string]bool{}, delay: 100 * time.Millisecond}
	sched, _, sender := newTestScheduler(t, renderer)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		sched.HandleProcessEmailJobs()
	}()
	time.Sleep(20 * time.Millisecond)
	go func() {
		defer wg.Done()
		sched.HandleProcessEmailJobs()
	}()
	wg.Wait()

	// The overlapping run was skipped, so the single job was delivered once.
	assert.Equal(t, 1, sender.sentCount())
	assert.Equal(t, 1, renderer.callCount())
	assert.False(t, sched.emailLock.IsHeld())
}

func TestHandleProcessEmailJobs_ReleasesLockAfterFailure(t *testing.T) {
	renderer := &fakeRenderer{failFor: map[string]bool{"Scheduled": true}}
	sched, jobs, _ := newTestScheduler(t, renderer)

	sched.HandleProcessEmailJobs()
	assert.False(t, sched.emailLock.IsHeld())

	stats, err := jobs.GetJobStats()
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Error)
}

func TestForceProcessJobs_RefusesWhileRunning(t *testing.T) {
	sched, _, _ := newTestScheduler(t, &fakeRenderer{failFor: map[string]bool{}})

	require.True(t, sched.emailLock.TryAcquire())
	err := sched.ForceProcessJobs()
	assert.Error(t, err)
	sched.emailLock.Release()

	assert.NoError(t, sched.ForceProcessJobs())
}

func TestGetSchedulerStatus(t *testing.T) {
	sched, _, _ := newTestScheduler(t, &fakeRenderer{failFor: map[string]bool{}})

	status := sched.GetSchedulerStatus()
	assert.False(t, status.IsProcessing)
	assert.Regexp(t, `^[1-5] minutes$`, status.NextExecutionIn)

	require.True(t, sched.emailLock.TryAcquire())
	assert.True(t, sched.GetSchedulerStatus().IsProcessing)
	sched.emailLock.Release()
}

func TestHandleProcessPendingCertificates_DrainsBacklogInSlices(t *testing.T) {
	db := setupTestDb(t)
	storage := newFakeStorage()
	jobs := NewJobService(db, &fakeRenderer{}, storage, newFakeSender(), 10)
	certs := NewGeneratedCertificateService(db, &fakeRenderer{}, storage)
	sched := NewJobScheduler(jobs, certs, 2, 0, 10)

	cert := seedCertificate(t, db)
	for _, email := range []string{"d1@example.com", "d2@example.com", "d3@example.com", "d4@example.com", "d5@example.com"} {
		attendee := seedAttendee(t, db, "Drain "+email, email)
		gc := &models.GeneratedCertificate{CertificateID: cert.ID, AttendeeID: attendee.ID}
		require.NoError(t, db.Create(gc).Error)
	}

	sched.HandleProcessPendingCertificates()

	var jobCount int64
	db.Model(&models.Job{}).Count(&jobCount)
	assert.Equal(t, int64(5), jobCount)
	assert.False(t, sched.backfillLock.IsHeld())
}

func TestHandleProcessPendingCertificates_StopsAtMaxBatches(t *testing.T) {
	db := setupTestDb(t)
	storage := newFakeStorage()
	jobs := NewJobService(db, &fakeRenderer{}, storage, newFakeSender(), 10)
	certs := NewGeneratedCertificateService(db, &fakeRenderer{}, storage)
	sched := NewJobScheduler(jobs, certs, 1, 0, 2)

	cert := seedCertificate(t, db)
	for _, email := range []string{"m1@example.com", "m2@example.com", "m3@example.com", "m4@example.com"} {
		attendee := seedAttendee(t, db, "Max "+email, email)
		gc := &models.GeneratedCertificate{CertificateID: cert.ID, AttendeeID: attendee.ID}
		require.NoError(t, db.Create(gc).Error)
	}

	sched.HandleProcessPendingCertificates()

	// Two batches of one; the rest waits for the next tick.
	var jobCount int64
	db.Model(&models.Job{}).Count(&jobCount)
	assert.Equal(t, int64(2), jobCount)
}

func TestHandleJobMaintenance_DoesNotPanicOnEmptyDb(t *testing.T) {
	db := setupTestDb(t)
	storage := newFakeStorage()
	jobs := NewJobService(db, &fakeRenderer{}, storage, newFakeSender(), 10)
	certs := NewGeneratedCertificateService(db, &fakeRenderer{}, storage)
	sched := NewJobScheduler(jobs, certs, 50, 0, 10)

	sched.HandleJobMaintenance()
}
