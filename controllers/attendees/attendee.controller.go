package attendeeControllers

import (
	"io"
	"strconv"
	"strings"

	"certhub/database"
	"certhub/middleware"
	"certhub/models"
	"certhub/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var bulkUploadJobs *services.BulkUploadJobService

// Init wires the bulk upload job service used by the import endpoints.
func Init(b *services.BulkUploadJobService) {
	bulkUploadJobs = b
}

func CreateAttendee(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedAttendee").(*struct {
		FullName       string `json:"fullName"`
		FirstName      string `json:"firstName"`
		LastName       string `json:"lastName"`
		Email          string `json:"email"`
		Country        string `json:"country"`
		DocumentType   string `json:"documentType"`
		DocumentNumber string `json:"documentNumber"`
		Gender         string `json:"gender"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	var existing models.Attendee
	if err := database.Database.Db.Where("email = ?", reqData.Email).First(&existing).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Attendee with this email already exists!", existing)
	}

	attendee := models.Attendee{
		FullName:       reqData.FullName,
		FirstName:      reqData.FirstName,
		LastName:       reqData.LastName,
		Email:          reqData.Email,
		Country:        reqData.Country,
		DocumentType:   reqData.DocumentType,
		DocumentNumber: reqData.DocumentNumber,
		Gender:         reqData.Gender,
	}
	if err := database.Database.Db.Create(&attendee).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create attendee!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Attendee created successfully!", attendee)
}

func AttendeeList(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 50
	}
	offset := (page - 1) * limit

	db := database.Database.Db.Model(&models.Attendee{})
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		like := "%" + search + "%"
		db = db.Where("full_name LIKE ? OR email LIKE ? OR document_number LIKE ?", like, like, like)
	}
	if rawIds := strings.TrimSpace(c.Query("ids")); rawIds != "" {
		var ids []uint
		for _, part := range strings.Split(rawIds, ",") {
			if id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32); err == nil {
				ids = append(ids, uint(id))
			}
		}
		if len(ids) > 0 {
			db = db.Where("id IN ?", ids)
		}
	}

	var total int64
	db.Count(&total)

	var attendees []models.Attendee
	if err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&attendees).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch attendees!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Attendees fetched successfully!", fiber.Map{
		"attendees": attendees,
		"pagination": fiber.Map{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

func GetAttendee(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid attendee id!", nil)
	}

	var attendee models.Attendee
	if err := database.Database.Db.Where("id = ?", id).First(&attendee).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Attendee not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch attendee!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Attendee fetched successfully!", attendee)
}

func UpdateAttendee(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid attendee id!", nil)
	}

	var attendee models.Attendee
	if err := database.Database.Db.Where("id = ?", id).First(&attendee).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Attendee not found!", nil)
	}

	reqData, ok := c.Locals("validatedAttendeeUpdate").(*struct {
		FullName       *string `json:"fullName"`
		FirstName      *string `json:"firstName"`
		LastName       *string `json:"lastName"`
		Email          *string `json:"email"`
		Country        *string `json:"country"`
		DocumentType   *string `json:"documentType"`
		DocumentNumber *string `json:"documentNumber"`
		Gender         *string `json:"gender"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	if reqData.FullName != nil {
		attendee.FullName = *reqData.FullName
	}
	if reqData.FirstName != nil {
		attendee.FirstName = *reqData.FirstName
	}
	if reqData.LastName != nil {
		attendee.LastName = *reqData.LastName
	}
	if reqData.Email != nil {
		attendee.Email = *reqData.Email
	}
	if reqData.Country != nil {
		attendee.Country = *reqData.Country
	}
	if reqData.DocumentType != nil {
		attendee.DocumentType = *reqData.DocumentType
	}
	if reqData.DocumentNumber != nil {
		attendee.DocumentNumber = *reqData.DocumentNumber
	}
	if reqData.Gender != nil {
		attendee.Gender = *reqData.Gender
	}

	if err := database.Database.Db.Save(&attendee).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update attendee!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Attendee updated successfully!", attendee)
}

func DeleteAttendee(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid attendee id!", nil)
	}

	var attendee models.Attendee
	if err := database.Database.Db.Where("id = ?", id).First(&attendee).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Attendee not found!", nil)
	}

	if err := database.Database.Db.Delete(&attendee).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete attendee!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Attendee deleted successfully!", nil)
}

// BulkUpload accepts a CSV or XLSX file and queues it for background
// processing. The response carries the job id for progress polling.
func BulkUpload(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Upload file is required!", nil)
	}

	lower := strings.ToLower(fileHeader.Filename)
	if !strings.HasSuffix(lower, ".csv") && !strings.HasSuffix(lower, ".xlsx") && !strings.HasSuffix(lower, ".xls") {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Only CSV and XLSX files are supported!", nil)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to read upload file!", nil)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to read upload file!", nil)
	}

	updateExisting := c.FormValue("updateExisting") == "true"

	job, err := bulkUploadJobs.CreateJob(fileHeader.Filename, userId, data, updateExisting)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to queue upload job!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusAccepted, true, "File queued for processing!", job)
}

// BulkUploadStatus returns one import job with its counters and row errors.
func BulkUploadStatus(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid job id!", nil)
	}

	job, err := bulkUploadJobs.FindOne(uint(id))
	if err != nil {
		if err == services.ErrBulkUploadJobNotFound {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Upload job not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch upload job!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Upload job fetched successfully!", job)
}

// BulkUploadHistory lists the caller's import jobs, newest first.
func BulkUploadHistory(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	jobs, err := bulkUploadJobs.FindByUser(userId)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch upload jobs!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Upload jobs fetched successfully!", jobs)
}
