package services

import (
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"time"

	"github.com/robfig/cron/v3"
)

// SchedulerStatus is a human-readable snapshot for the status endpoint.
type SchedulerStatus struct {
	IsProcessing    bool   `json:"isProcessing"`
	NextExecutionIn string `json:"nextExecutionIn"`
}

// JobScheduler drives the job processor and the certificate backfill on
// fixed intervals. Each periodic task holds its own ProcessLock so it never
// overlaps with itself; unrelated tasks may still run concurrently.
type JobScheduler struct {
	jobs  *JobService
	certs *GeneratedCertificateService

	emailLock    ProcessLock
	backfillLock ProcessLock

	batchSize  int
	batchDelay time.Duration
	maxBatches int

	cron *cron.Cron
}

func NewJobScheduler(jobs *JobService, certs *GeneratedCertificateService, batchSize, batchDelayMs, maxBatches int) *JobScheduler {
	if batchSize <= 0 {
		batchSize = 50
	}
	if maxBatches <= 0 {
		maxBatches = 10
	}
	return &JobScheduler{
		jobs:         jobs,
		certs:        certs,
		emailLock:    NewInMemoryLock(),
		backfillLock: NewInMemoryLock(),
		batchSize:    batchSize,
		batchDelay:   time.Duration(batchDelayMs) * time.Millisecond,
		maxBatches:   maxBatches,
	}
}

// WithLocks swaps the re-entrancy guards, e.g. for a distributed lease.
func (s *JobScheduler) WithLocks(emailLock, backfillLock ProcessLock) *JobScheduler {
	s.emailLock = emailLock
	s.backfillLock = backfillLock
	return s
}

// Start registers the cron entries and starts the scheduler.
func (s *JobScheduler) Start() {
	c := cron.New()

	c.AddFunc("*/5 * * * *", s.HandleProcessEmailJobs)
	c.AddFunc("*/5 * * * *", s.HandleProcessPendingCertificates)
	c.AddFunc("0 * * * *", s.HandleJobMaintenance)

	c.Start()
	s.cron = c
	log.Println("[JOB-SCHEDULER] Scheduler started - email jobs and certificate backfill every 5 minutes, maintenance hourly")
}

// Stop halts the cron scheduler. Running tasks finish on their own.
func (s *JobScheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// HandleProcessEmailJobs runs one guarded batch of pending email jobs.
func (s *JobScheduler) HandleProcessEmailJobs() {
	if !s.emailLock.TryAcquire() {
		log.Println("[JOB-SCHEDULER] Job processing already in progress, skipping this execution")
		return
	}
	defer s.emailLock.Release()
	defer logPanic("email job processing")

	start := time.Now()
	log.Println("[JOB-SCHEDULER] Starting automatic email job processing...")

	result, err := s.jobs.ProcessPendingJobs()
	if err != nil {
		log.Printf("[JOB-SCHEDULER] Unexpected error during automatic job processing: %v", err)
		return
	}

	log.Printf("[JOB-SCHEDULER] Email job processing completed in %s. Processed: %d, Successful: %d, Failed: %d",
		time.Since(start), result.Processed, result.Successful, result.Failed)

	if result.Failed > 0 {
		log.Printf("[JOB-SCHEDULER] Warning: %d jobs failed during processing. Check job error messages for details.", result.Failed)
	}
}

// HandleProcessPendingCertificates backfills delivery jobs in bounded slices
// with a fixed delay between them, so one tick never monopolizes the
// database. Remaining backlog is picked up by later ticks.
func (s *JobScheduler) HandleProcessPendingCertificates() {
	if !s.backfillLock.TryAcquire() {
		log.Println("[JOB-SCHEDULER] Certificate backfill already in progress, skipping this execution")
		return
	}
	defer s.backfillLock.Release()
	defer logPanic("certificate backfill")

	start := time.Now()
	totalExamined, totalCreated, totalExisting := 0, 0, 0

	for i := 0; i < s.maxBatches; i++ {
		result, err := s.certs.ProcessPendingCertificatesBatch(s.batchSize)
		if err != nil {
			log.Printf("[JOB-SCHEDULER] Certificate backfill batch failed: %v", err)
			break
		}

		totalExamined += result.TotalCertificates
		totalCreated += result.JobsCreated
		totalExisting += result.AlreadyProcessed

		// A partial slice means the backlog is drained for this tick.
		if result.TotalCertificates < s.batchSize {
			break
		}
		time.Sleep(s.batchDelay)
	}

	if totalExamined > 0 {
		log.Printf("[JOB-SCHEDULER] Certificate backfill completed in %s. Examined: %d, Jobs created: %d, Already had jobs: %d",
			time.Since(start), totalExamined, totalCreated, totalExisting)
	}
}

// HandleJobMaintenance logs aggregate health statistics and runs the audit
// sweep that reconciles sent-status against actual storage contents.
func (s *JobScheduler) HandleJobMaintenance() {
	defer logPanic("job maintenance")

	log.Println("[JOB-SCHEDULER] Running job maintenance tasks...")

	stats, err := s.jobs.GetJobStats()
	if err != nil {
		log.Printf("[JOB-SCHEDULER] Error during job maintenance: %v", err)
		return
	}

	log.Printf("[JOB-SCHEDULER] Job Statistics - Total: %d, Pending: %d, Sent: %d, Error: %d, Success Rate: %.1f%%",
		stats.Total, stats.Pending, stats.Sent, stats.Error, stats.SuccessRate)

	if stats.Pending > 50 {
		log.Printf("[JOB-SCHEDULER] Warning: high number of pending jobs detected: %d. Consider checking system health.", stats.Pending)
	}
	if stats.SuccessRate < 85 && stats.Total > 10 {
		log.Printf("[JOB-SCHEDULER] Warning: low success rate detected: %.1f%%. Check email service configuration.", stats.SuccessRate)
	}

	audit, err := s.jobs.AuditJobsVsS3()
	if err != nil {
		log.Printf("[JOB-SCHEDULER] Audit sweep failed: %v", err)
		return
	}
	if audit.JobsWithMissingPdfs > 0 {
		log.Printf("[JOB-SCHEDULER] Warning: audit found %d sent jobs without a stored PDF. Use the repair endpoint to reset them.",
			audit.JobsWithMissingPdfs)
	}
}

// GetSchedulerStatus reports whether email processing is running and the
// estimated time to the next 5-minute boundary. Pure read.
func (s *JobScheduler) GetSchedulerStatus() SchedulerStatus {
	now := time.Now()
	minutes := 5 - now.Minute()%5

	return SchedulerStatus{
		IsProcessing:    s.emailLock.IsHeld(),
		NextExecutionIn: fmt.Sprintf("%d minutes", minutes),
	}
}

// ForceProcessJobs triggers processing outside the schedule. It fails fast
// when the automatic run is in flight to avoid a double drain.
func (s *JobScheduler) ForceProcessJobs() error {
	if s.emailLock.IsHeld() {
		return errors.New("cannot force processing while automatic processing is running")
	}

	log.Println("[JOB-SCHEDULER] Manual job processing triggered")
	s.HandleProcessEmailJobs()
	return nil
}

func logPanic(task string) {
	if r := recover(); r != nil {
		log.Printf("[JOB-SCHEDULER] Panic during %s: %v\n%s", task, r, debug.Stack())
	}
}
