package attendeeRoutes

import (
	controller "certhub/controllers/attendees"
	"certhub/middleware"
	validator "certhub/validators/attendees"

	"github.com/gofiber/fiber/v2"
)

func SetupAttendeeRoutes(app *fiber.App) {
	attendees := app.Group("/attendees")

	attendees.Post("/", validator.CreateAttendee(), middleware.JWTMiddleware, controller.CreateAttendee)
	attendees.Get("/", middleware.JWTMiddleware, controller.AttendeeList)
	attendees.Get("/:id", middleware.JWTMiddleware, controller.GetAttendee)
	attendees.Patch("/:id", validator.UpdateAttendee(), middleware.JWTMiddleware, controller.UpdateAttendee)
	attendees.Delete("/:id", middleware.JWTMiddleware, controller.DeleteAttendee)

	attendees.Post("/bulk-upload", middleware.JWTMiddleware, controller.BulkUpload)
	attendees.Get("/bulk-upload/history", middleware.JWTMiddleware, controller.BulkUploadHistory)
	attendees.Get("/bulk-upload/:id", middleware.JWTMiddleware, controller.BulkUploadStatus)
}
