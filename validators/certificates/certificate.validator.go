package certificateValidator

import (
	"strings"

	"certhub/middleware"

	"github.com/gofiber/fiber/v2"
)

var validPdfTemplates = map[string]bool{"default": true, "compact": true}

func CreateCertificate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Client             string  `json:"client"`
			Name               string  `json:"name"`
			EventName          string  `json:"eventName"`
			BaseDesignUrl      string  `json:"baseDesignUrl"`
			PdfTemplate        string  `json:"pdfTemplate"`
			SendgridTemplateId string  `json:"sendgridTemplateId"`
			EventLink          string  `json:"eventLink"`
			SenderFromName     *string `json:"senderFromName"`
			SenderEmail        *string `json:"senderEmail"`
			EmailSubject       *string `json:"emailSubject"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		reqData.Client = strings.TrimSpace(reqData.Client)
		if reqData.Client == "" {
			errors["client"] = "Client is required!"
		}

		reqData.Name = strings.TrimSpace(reqData.Name)
		if reqData.Name == "" {
			errors["name"] = "Certificate name is required!"
		}

		reqData.EventName = strings.TrimSpace(reqData.EventName)
		if reqData.EventName == "" {
			errors["eventName"] = "Event name is required!"
		}

		reqData.SendgridTemplateId = strings.TrimSpace(reqData.SendgridTemplateId)
		if reqData.SendgridTemplateId == "" {
			errors["sendgridTemplateId"] = "SendGrid template id is required!"
		} else if !strings.HasPrefix(reqData.SendgridTemplateId, "d-") {
			errors["sendgridTemplateId"] = "SendGrid template id must start with 'd-'!"
		}

		if reqData.PdfTemplate != "" && !validPdfTemplates[reqData.PdfTemplate] {
			errors["pdfTemplate"] = "Invalid PDF template! Allowed: default, compact"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedCertificate", reqData)
		return c.Next()
	}
}

func UpdateCertificate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Client             *string `json:"client"`
			Name               *string `json:"name"`
			EventName          *string `json:"eventName"`
			BaseDesignUrl      *string `json:"baseDesignUrl"`
			PdfTemplate        *string `json:"pdfTemplate"`
			SendgridTemplateId *string `json:"sendgridTemplateId"`
			EventLink          *string `json:"eventLink"`
			SenderFromName     *string `json:"senderFromName"`
			SenderEmail        *string `json:"senderEmail"`
			EmailSubject       *string `json:"emailSubject"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.Client != nil && strings.TrimSpace(*reqData.Client) == "" {
			errors["client"] = "Client cannot be empty!"
		}
		if reqData.Name != nil && strings.TrimSpace(*reqData.Name) == "" {
			errors["name"] = "Certificate name cannot be empty!"
		}
		if reqData.EventName != nil && strings.TrimSpace(*reqData.EventName) == "" {
			errors["eventName"] = "Event name cannot be empty!"
		}
		if reqData.SendgridTemplateId != nil && !strings.HasPrefix(*reqData.SendgridTemplateId, "d-") {
			errors["sendgridTemplateId"] = "SendGrid template id must start with 'd-'!"
		}
		if reqData.PdfTemplate != nil && !validPdfTemplates[*reqData.PdfTemplate] {
			errors["pdfTemplate"] = "Invalid PDF template! Allowed: default, compact"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedCertificateUpdate", reqData)
		return c.Next()
	}
}
