package certificateControllers

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"certhub/database"
	"certhub/middleware"
	"certhub/models"
	"certhub/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var storage services.StorageGateway

// Init wires the storage gateway used by the design upload endpoint.
func Init(s services.StorageGateway) {
	storage = s
}

func CreateCertificate(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedCertificate").(*struct {
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
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	certificate := models.Certificate{
		Client:             reqData.Client,
		Name:               reqData.Name,
		EventName:          reqData.EventName,
		BaseDesignUrl:      reqData.BaseDesignUrl,
		SendgridTemplateId: reqData.SendgridTemplateId,
		EventLink:          reqData.EventLink,
		IsActive:           true,
	}
	if reqData.PdfTemplate != "" {
		certificate.PdfTemplate = reqData.PdfTemplate
	}
	if reqData.SenderFromName != nil {
		certificate.SenderFromName = *reqData.SenderFromName
	}
	if reqData.SenderEmail != nil {
		certificate.SenderEmail = *reqData.SenderEmail
	}
	if reqData.EmailSubject != nil {
		certificate.EmailSubject = *reqData.EmailSubject
	}

	if err := database.Database.Db.Create(&certificate).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create certificate!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Certificate created successfully!", certificate)
}

func CertificateList(c *fiber.Ctx) error {
	db := database.Database.Db.Model(&models.Certificate{})

	if client := strings.TrimSpace(c.Query("client")); client != "" {
		db = db.Where("client = ?", client)
	}
	if active := c.Query("active"); active != "" {
		db = db.Where("is_active = ?", active == "true")
	}

	var certificates []models.Certificate
	if err := db.Order("created_at DESC").Find(&certificates).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch certificates!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificates fetched successfully!", certificates)
}

func GetCertificate(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid certificate id!", nil)
	}

	var certificate models.Certificate
	if err := database.Database.Db.Where("id = ?", id).First(&certificate).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certificate not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch certificate!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate fetched successfully!", certificate)
}

func UpdateCertificate(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid certificate id!", nil)
	}

	var certificate models.Certificate
	if err := database.Database.Db.Where("id = ?", id).First(&certificate).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certificate not found!", nil)
	}

	reqData, ok := c.Locals("validatedCertificateUpdate").(*struct {
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
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	if reqData.Client != nil {
		certificate.Client = *reqData.Client
	}
	if reqData.Name != nil {
		certificate.Name = *reqData.Name
	}
	if reqData.EventName != nil {
		certificate.EventName = *reqData.EventName
	}
	if reqData.BaseDesignUrl != nil {
		certificate.BaseDesignUrl = *reqData.BaseDesignUrl
	}
	if reqData.PdfTemplate != nil {
		certificate.PdfTemplate = *reqData.PdfTemplate
	}
	if reqData.SendgridTemplateId != nil {
		certificate.SendgridTemplateId = *reqData.SendgridTemplateId
	}
	if reqData.EventLink != nil {
		certificate.EventLink = *reqData.EventLink
	}
	if reqData.SenderFromName != nil {
		certificate.SenderFromName = *reqData.SenderFromName
	}
	if reqData.SenderEmail != nil {
		certificate.SenderEmail = *reqData.SenderEmail
	}
	if reqData.EmailSubject != nil {
		certificate.EmailSubject = *reqData.EmailSubject
	}

	if err := database.Database.Db.Save(&certificate).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update certificate!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate updated successfully!", certificate)
}

func ToggleCertificate(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid certificate id!", nil)
	}

	var certificate models.Certificate
	if err := database.Database.Db.Where("id = ?", id).First(&certificate).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certificate not found!", nil)
	}

	certificate.IsActive = !certificate.IsActive
	if err := database.Database.Db.Save(&certificate).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update certificate!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate status updated!", certificate)
}

func DeleteCertificate(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid certificate id!", nil)
	}

	var certificate models.Certificate
	if err := database.Database.Db.Where("id = ?", id).First(&certificate).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certificate not found!", nil)
	}

	if err := database.Database.Db.Delete(&certificate).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete certificate!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate deleted successfully!", nil)
}

// UploadDesign stores a background image and returns its CDN url. The url
// can then be set as the certificate's baseDesignUrl.
func UploadDesign(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Design file is required!", nil)
	}

	ext := strings.ToLower(fileHeader.Filename[strings.LastIndex(fileHeader.Filename, ".")+1:])
	contentType := ""
	switch ext {
	case "png":
		contentType = "image/png"
	case "jpg", "jpeg":
		contentType = "image/jpeg"
	default:
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Only PNG and JPG designs are supported!", nil)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to read design file!", nil)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to read design file!", nil)
	}

	key := fmt.Sprintf("designs/%s.%s", uuid.New().String(), ext)
	url, err := storage.UploadFile(key, data, contentType)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to upload design!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Design uploaded successfully!", fiber.Map{
		"url": url,
		"key": key,
	})
}
