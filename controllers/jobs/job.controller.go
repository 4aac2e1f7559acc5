package jobControllers

import (
	"strconv"

	"certhub/middleware"
	"certhub/services"

	"github.com/gofiber/fiber/v2"
)

var (
	jobService *services.JobService
	scheduler  *services.JobScheduler
)

// Init wires the job pipeline services.
func Init(jobs *services.JobService, sched *services.JobScheduler) {
	jobService = jobs
	scheduler = sched
}

func JobList(c *fiber.Ctx) error {
	jobs, err := jobService.FindAll()
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch jobs!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Jobs fetched successfully!", jobs)
}

func PendingJobList(c *fiber.Ctx) error {
	jobs, err := jobService.FindPendingJobs()
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch pending jobs!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Pending jobs fetched successfully!", jobs)
}

func JobStats(c *fiber.Ctx) error {
	stats, err := jobService.GetJobStats()
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch job statistics!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Job statistics fetched successfully!", stats)
}

func GetJob(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid job id!", nil)
	}

	job, err := jobService.FindOne(uint(id))
	if err != nil {
		if err == services.ErrJobNotFound {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Job not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch job!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Job fetched successfully!", job)
}

// RetryJob resets one job back to pending regardless of its current state.
func RetryJob(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid job id!", nil)
	}

	job, err := jobService.RetryJob(uint(id))
	if err != nil {
		if err == services.ErrJobNotFound {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Job not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to retry job!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Job queued for retry!", job)
}

// RetryFailedJobs resets every error job back to pending.
func RetryFailedJobs(c *fiber.Ctx) error {
	if err := jobService.RetryFailedJobs(); err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to retry jobs!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Failed jobs queued for retry!", nil)
}

// ProcessPendingJobs drains one batch of pending jobs synchronously.
func ProcessPendingJobs(c *fiber.Ctx) error {
	result, err := jobService.ProcessPendingJobs()
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process jobs!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Job processing completed!", result)
}

func SchedulerStatus(c *fiber.Ctx) error {
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Scheduler status fetched!", scheduler.GetSchedulerStatus())
}

// ForceProcess triggers job processing outside the schedule. Returns 409
// when the automatic run is already in flight.
func ForceProcess(c *fiber.Ctx) error {
	if err := scheduler.ForceProcessJobs(); err != nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, err.Error(), nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Job processing triggered!", nil)
}

// AuditMissingPdfs cross-checks sent jobs against storage and reports jobs
// whose PDF is gone.
func AuditMissingPdfs(c *fiber.Ctx) error {
	result, err := jobService.AuditJobsVsS3()
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Audit failed!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Audit completed!", result)
}

// RepairMissingPdfs resets the named sent jobs back to pending so the next
// processing run regenerates and redelivers them.
func RepairMissingPdfs(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedRepair").(*struct {
		JobIDs []uint `json:"jobIds"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	result := jobService.RetryJobsWithMissingPdfs(reqData.JobIDs)
	return middleware.JsonResponse(c, fiber.StatusOK, true, result.Message, result)
}
