package attendeeValidator

import (
	"regexp"
	"strings"

	"certhub/middleware"

	"github.com/gofiber/fiber/v2"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func CreateAttendee() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			FullName       string `json:"fullName"`
			FirstName      string `json:"firstName"`
			LastName       string `json:"lastName"`
			Email          string `json:"email"`
			Country        string `json:"country"`
			DocumentType   string `json:"documentType"`
			DocumentNumber string `json:"documentNumber"`
			Gender         string `json:"gender"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		reqData.FullName = strings.TrimSpace(reqData.FullName)
		if reqData.FullName == "" {
			if reqData.FirstName != "" {
				reqData.FullName = strings.TrimSpace(reqData.FirstName + " " + reqData.LastName)
			} else {
				errors["fullName"] = "Full name is required!"
			}
		}

		reqData.Email = strings.ToLower(strings.TrimSpace(reqData.Email))
		if reqData.Email == "" {
			errors["email"] = "Email is required!"
		} else if !emailRegex.MatchString(reqData.Email) {
			errors["email"] = "Invalid email format!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedAttendee", reqData)
		return c.Next()
	}
}

func UpdateAttendee() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			FullName       *string `json:"fullName"`
			FirstName      *string `json:"firstName"`
			LastName       *string `json:"lastName"`
			Email          *string `json:"email"`
			Country        *string `json:"country"`
			DocumentType   *string `json:"documentType"`
			DocumentNumber *string `json:"documentNumber"`
			Gender         *string `json:"gender"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.FullName != nil && strings.TrimSpace(*reqData.FullName) == "" {
			errors["fullName"] = "Full name cannot be empty!"
		}
		if reqData.Email != nil {
			*reqData.Email = strings.ToLower(strings.TrimSpace(*reqData.Email))
			if !emailRegex.MatchString(*reqData.Email) {
				errors["email"] = "Invalid email format!"
			}
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedAttendeeUpdate", reqData)
		return c.Next()
	}
}
