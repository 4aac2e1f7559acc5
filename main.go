package main

import (
	"log"

	"certhub/config"
	attendeeControllers "certhub/controllers/attendees"
	certificateControllers "certhub/controllers/certificates"
	generatedCertificateControllers "certhub/controllers/generated"
	jobControllers "certhub/controllers/jobs"
	reportControllers "certhub/controllers/reports"
	"certhub/database"
	attendeeRoutes "certhub/routers/attendeeRoutes"
	authRoutes "certhub/routers/authRoutes"
	certificateRoutes "certhub/routers/certificateRoutes"
	generatedCertificateRoutes "certhub/routers/generatedCertificateRoutes"
	jobRoutes "certhub/routers/jobRoutes"
	reportRoutes "certhub/routers/reportRoutes"
	"certhub/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadConfig()
	database.ConnectDb()

	db := database.Database.Db
	cfg := config.AppConfig

	storage, err := services.NewS3Service()
	if err != nil {
		log.Fatalf("Failed to initialize S3 client: %v", err)
	}
	pdf := services.NewFpdfRenderer()
	email := services.NewSendGridEmailService(cfg.SendGridApiKey, cfg.SendGridFromEmail, cfg.SendGridFromName)

	jobService := services.NewJobService(db, pdf, storage, email, cfg.JobBatchSize)
	certService := services.NewGeneratedCertificateService(db, pdf, storage)
	fileProcessor := services.NewFileProcessingService(db)
	bulkUploadService := services.NewBulkUploadJobService(db, fileProcessor)
	reportService := services.NewReportService(db)
	scheduler := services.NewJobScheduler(jobService, certService, cfg.CertBatchSize, cfg.CertBatchDelayMs, cfg.MaxBackfillBatches)

	certificateControllers.Init(storage)
	attendeeControllers.Init(bulkUploadService)
	generatedCertificateControllers.Init(certService)
	jobControllers.Init(jobService, scheduler)
	reportControllers.Init(reportService)

	app := fiber.New(fiber.Config{
		BodyLimit: 25 * 1024 * 1024, // uploads: attendee files and design images
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE",
		AllowHeaders: "Content-Type,Authorization",
	}))

	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	authRoutes.SetupAuthRoutes(app)
	certificateRoutes.SetupCertificateRoutes(app)
	attendeeRoutes.SetupAttendeeRoutes(app)
	generatedCertificateRoutes.SetupGeneratedCertificateRoutes(app)
	jobRoutes.SetupJobRoutes(app)
	reportRoutes.SetupReportRoutes(app)

	scheduler.Start()

	log.Printf("Server is running on port %s", cfg.Port)
	log.Fatal(app.Listen(":" + cfg.Port))
}
