package generatedCertificateControllers

import (
	"fmt"
	"strconv"

	"certhub/middleware"
	"certhub/services"

	"github.com/gofiber/fiber/v2"
)

var certService *services.GeneratedCertificateService

// Init wires the certificate generation service.
func Init(s *services.GeneratedCertificateService) {
	certService = s
}

// GenerateCertificates renders certificates for a list of attendees and
// optionally queues delivery jobs for them.
func GenerateCertificates(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedGenerate").(*struct {
		CertificateID uint   `json:"certificateId"`
		AttendeeIDs   []uint `json:"attendeeIds"`
		SendEmails    bool   `json:"sendEmails"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	result, err := certService.GenerateCertificates(reqData.CertificateID, reqData.AttendeeIDs, reqData.SendEmails)
	if err != nil {
		switch err {
		case services.ErrCertificateNotFound:
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certificate template not found!", nil)
		case services.ErrAttendeesNotFound:
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "One or more attendees not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to generate certificates!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate generation completed!", result)
}

// SendCertificateEmails queues delivery jobs for certificates that already
// exist. Certificates with a job are skipped, never duplicated.
func SendCertificateEmails(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedSendEmails").(*struct {
		GeneratedCertificateIDs []uint `json:"generatedCertificateIds"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	result, err := certService.SendCertificateEmails(reqData.GeneratedCertificateIDs)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to schedule emails!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Email jobs scheduled!", result)
}

func GeneratedCertificateList(c *fiber.Ctx) error {
	certs, err := certService.FindAll()
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch certificates!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificates fetched successfully!", certs)
}

func GetGeneratedCertificate(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid certificate id!", nil)
	}

	cert, err := certService.FindOne(uint(id))
	if err != nil {
		if err == services.ErrGeneratedCertificateNotFound {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certificate not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch certificate!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate fetched successfully!", cert)
}

func DeleteGeneratedCertificate(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid certificate id!", nil)
	}

	if err := certService.Remove(uint(id)); err != nil {
		if err == services.ErrGeneratedCertificateNotFound {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certificate not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete certificate!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate deleted successfully!", nil)
}

// ProcessPendingCertificates creates delivery jobs for every certificate
// without one, in a single unbounded pass.
func ProcessPendingCertificates(c *fiber.Ctx) error {
	result, err := certService.ProcessPendingCertificates()
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process pending certificates!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Pending certificates processed!", result)
}

// ProcessPendingCertificatesBatch is the bounded variant.
func ProcessPendingCertificatesBatch(c *fiber.Ctx) error {
	batchSize, _ := strconv.Atoi(c.Query("batchSize", "50"))
	if batchSize < 1 || batchSize > 500 {
		batchSize = 50
	}

	result, err := certService.ProcessPendingCertificatesBatch(batchSize)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process pending certificates!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Pending certificates processed!", result)
}

// DownloadCertificate is the public endpoint linked from delivery emails.
// The PDF is rendered fresh on every request.
func DownloadCertificate(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid certificate id!", nil)
	}

	pdfBytes, cert, err := certService.RegenerateCertificatePdf(uint(id))
	if err != nil {
		if err == services.ErrGeneratedCertificateNotFound {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certificate not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to generate certificate!", nil)
	}

	filename := fmt.Sprintf("%s_certificate.pdf", cert.Attendee.FullName)
	c.Set("Content-Type", "application/pdf")
	c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(pdfBytes)
}
