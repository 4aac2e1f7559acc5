package generatedCertificateRoutes

import (
	controller "certhub/controllers/generated"
	"certhub/middleware"
	validator "certhub/validators/generated"

	"github.com/gofiber/fiber/v2"
)

func SetupGeneratedCertificateRoutes(app *fiber.App) {
	generated := app.Group("/generated-certificates")

	generated.Post("/generate", validator.GenerateCertificates(), middleware.JWTMiddleware, controller.GenerateCertificates)
	generated.Post("/send-emails", validator.SendCertificateEmails(), middleware.JWTMiddleware, controller.SendCertificateEmails)
	generated.Post("/process-pending", middleware.JWTMiddleware, controller.ProcessPendingCertificates)
	generated.Post("/process-pending-batch", middleware.JWTMiddleware, controller.ProcessPendingCertificatesBatch)
	generated.Get("/", middleware.JWTMiddleware, controller.GeneratedCertificateList)
	generated.Get("/:id", middleware.JWTMiddleware, controller.GetGeneratedCertificate)
	generated.Delete("/:id", middleware.JWTMiddleware, controller.DeleteGeneratedCertificate)

	// Public download link embedded in delivery emails. No auth.
	app.Get("/certificate/:id/download", controller.DownloadCertificate)
}
