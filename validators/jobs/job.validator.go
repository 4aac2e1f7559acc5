package jobValidator

import (
	"certhub/middleware"

	"github.com/gofiber/fiber/v2"
)

func RepairMissingPdfs() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			JobIDs []uint `json:"jobIds"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if len(reqData.JobIDs) == 0 {
			errors["jobIds"] = "At least one job ID is required!"
		}
		for _, id := range reqData.JobIDs {
			if id == 0 {
				errors["jobIds"] = "Job IDs must be greater than 0!"
				break
			}
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedRepair", reqData)
		return c.Next()
	}
}
