package reportRoutes

import (
	controller "certhub/controllers/reports"
	"certhub/middleware"

	"github.com/gofiber/fiber/v2"
)

func SetupReportRoutes(app *fiber.App) {
	reports := app.Group("/reports", middleware.JWTMiddleware)

	reports.Get("/certificates/:id/stats", controller.CertificateStats)
	reports.Get("/certificates/:id/export", controller.CertificateReport)
}
