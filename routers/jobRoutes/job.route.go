package jobRoutes

import (
	controller "certhub/controllers/jobs"
	"certhub/middleware"
	validator "certhub/validators/jobs"

	"github.com/gofiber/fiber/v2"
)

func SetupJobRoutes(app *fiber.App) {
	jobs := app.Group("/jobs", middleware.JWTMiddleware)

	jobs.Get("/", controller.JobList)
	jobs.Get("/pending", controller.PendingJobList)
	jobs.Get("/stats", controller.JobStats)
	jobs.Get("/scheduler/status", controller.SchedulerStatus)
	jobs.Post("/scheduler/force-process", controller.ForceProcess)
	jobs.Post("/process-pending", controller.ProcessPendingJobs)
	jobs.Post("/retry-failed", controller.RetryFailedJobs)
	jobs.Get("/audit/missing-pdfs", controller.AuditMissingPdfs)
	jobs.Post("/repair/retry-missing-pdfs", validator.RepairMissingPdfs(), controller.RepairMissingPdfs)
	jobs.Get("/:id", controller.GetJob)
	jobs.Post("/:id/retry", controller.RetryJob)
}
