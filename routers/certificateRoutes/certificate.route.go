package certificateRoutes

import (
	controller "certhub/controllers/certificates"
	"certhub/middleware"
	validator "certhub/validators/certificates"

	"github.com/gofiber/fiber/v2"
)

func SetupCertificateRoutes(app *fiber.App) {
	certificates := app.Group("/certificates")

	certificates.Post("/", validator.CreateCertificate(), middleware.JWTMiddleware, controller.CreateCertificate)
	certificates.Get("/", middleware.JWTMiddleware, controller.CertificateList)
	certificates.Get("/:id", middleware.JWTMiddleware, controller.GetCertificate)
	certificates.Patch("/:id", validator.UpdateCertificate(), middleware.JWTMiddleware, controller.UpdateCertificate)
	certificates.Patch("/:id/toggle", middleware.JWTMiddleware, controller.ToggleCertificate)
	certificates.Delete("/:id", middleware.JWTMiddleware, controller.DeleteCertificate)
	certificates.Post("/upload-design", middleware.JWTMiddleware, controller.UploadDesign)
}
