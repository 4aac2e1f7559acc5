package generatedCertificateValidator

import (
	"certhub/middleware"

	"github.com/gofiber/fiber/v2"
)

func GenerateCertificates() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			CertificateID uint   `json:"certificateId"`
			AttendeeIDs   []uint `json:"attendeeIds"`
			SendEmails    bool   `json:"sendEmails"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.CertificateID == 0 {
			errors["certificateId"] = "Certificate ID is required!"
		}
		if len(reqData.AttendeeIDs) == 0 {
			errors["attendeeIds"] = "At least one attendee ID is required!"
		}
		if len(reqData.AttendeeIDs) > 1000 {
			errors["attendeeIds"] = "Cannot generate more than 1000 certificates per request!"
		}
		for _, id := range reqData.AttendeeIDs {
			if id == 0 {
				errors["attendeeIds"] = "Attendee IDs must be greater than 0!"
				break
			}
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedGenerate", reqData)
		return c.Next()
	}
}

func SendCertificateEmails() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			GeneratedCertificateIDs []uint `json:"generatedCertificateIds"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if len(reqData.GeneratedCertificateIDs) == 0 {
			errors["generatedCertificateIds"] = "At least one certificate ID is required!"
		}
		for _, id := range reqData.GeneratedCertificateIDs {
			if id == 0 {
				errors["generatedCertificateIds"] = "Certificate IDs must be greater than 0!"
				break
			}
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedSendEmails", reqData)
		return c.Next()
	}
}
