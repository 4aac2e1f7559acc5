package reportControllers

import (
	"fmt"
	"strconv"

	"certhub/middleware"
	"certhub/services"

	"github.com/gofiber/fiber/v2"
)

var reportService *services.ReportService

// Init wires the report service.
func Init(r *services.ReportService) {
	reportService = r
}

func CertificateStats(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid certificate id!", nil)
	}

	stats, err := reportService.GetCertificateStats(uint(id))
	if err != nil {
		if err == services.ErrCertificateNotFound {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certificate not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch statistics!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Statistics fetched successfully!", stats)
}

// CertificateReport streams an XLSX export of every recipient of one
// certificate template.
func CertificateReport(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid certificate id!", nil)
	}

	data, filename, err := reportService.GenerateCertificateReport(uint(id))
	if err != nil {
		if err == services.ErrCertificateNotFound {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certificate not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to generate report!", nil)
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(data)
}
