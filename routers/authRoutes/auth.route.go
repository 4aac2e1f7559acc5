package authRoutes

import (
	controller "certhub/controllers/auth"
	validator "certhub/validators/auth"

	"github.com/gofiber/fiber/v2"
)

func SetupAuthRoutes(app *fiber.App) {
	auth := app.Group("/auth")

	auth.Post("/register", validator.Register(), controller.Register)
	auth.Post("/login", validator.Login(), controller.Login)
}
