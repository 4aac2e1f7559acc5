package services

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/go-resty/resty/v2"
)

// CertificateData carries everything the renderer needs for one certificate.
type CertificateData struct {
	FullName        string
	CertificateName string
	EventName       string
	BaseDesignUrl   string
	Country         string
	DocumentType    string
	DocumentNumber  string
}

// PdfRenderer renders one certificate to PDF bytes. The PDF is never cached;
// every delivery attempt and every public download renders a fresh copy.
type PdfRenderer interface {
	GenerateCertificatePdf(data CertificateData, templateName string) ([]byte, error)
}

// FpdfRenderer draws the certificate over the template's background design.
type FpdfRenderer struct {
	http *resty.Client
}

func NewFpdfRenderer() *FpdfRenderer {
	return &FpdfRenderer{
		http: resty.New().SetTimeout(15 * time.Second),
	}
}

func (r *FpdfRenderer) GenerateCertificatePdf(data CertificateData, templateName string) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	if data.BaseDesignUrl != "" {
		if err := r.drawBackground(pdf, data.BaseDesignUrl); err != nil {
			return nil, err
		}
	}

	switch templateName {
	case "compact":
		r.drawCompactLayout(pdf, data)
	default:
		// Unknown template names fall back to the default layout.
		r.drawDefaultLayout(pdf, data)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *FpdfRenderer) drawBackground(pdf *fpdf.Fpdf, url string) error {
	resp, err := r.http.R().Get(url)
	if err != nil {
		return fmt.Errorf("fetching base design: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("fetching base design: status %d", resp.StatusCode())
	}

	imageType := imageTypeFor(resp.Header().Get("Content-Type"), url)
	opts := fpdf.ImageOptions{ImageType: imageType}
	pdf.RegisterImageOptionsReader("background", opts, bytes.NewReader(resp.Body()))
	// Full-bleed A4 landscape.
	pdf.ImageOptions("background", 0, 0, 297, 210, false, opts, 0, "")
	return nil
}

func imageTypeFor(contentType, url string) string {
	switch {
	case strings.Contains(contentType, "png"):
		return "PNG"
	case strings.Contains(contentType, "jpeg"), strings.Contains(contentType, "jpg"):
		return "JPG"
	}
	lower := strings.ToLower(url)
	if strings.HasSuffix(lower, ".jpg") || strings.HasSuffix(lower, ".jpeg") {
		return "JPG"
	}
	return "PNG"
}

func (r *FpdfRenderer) drawDefaultLayout(pdf *fpdf.Fpdf, data CertificateData) {
	pdf.SetTextColor(44, 62, 80)

	pdf.SetFont("Helvetica", "B", 34)
	pdf.SetXY(0, 50)
	pdf.CellFormat(297, 16, "CERTIFICATE", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 14)
	pdf.CellFormat(297, 10, "This certificate is awarded to:", "", 1, "C", false, 0, "")

	pdf.SetTextColor(231, 76, 60)
	pdf.SetFont("Helvetica", "B", 28)
	pdf.CellFormat(297, 16, data.FullName, "", 1, "C", false, 0, "")

	pdf.SetTextColor(52, 73, 94)
	pdf.SetFont("Helvetica", "", 14)
	pdf.CellFormat(297, 10, "For participating in:", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(297, 12, data.EventName, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(297, 10, data.CertificateName, "", 1, "C", false, 0, "")

	if data.DocumentNumber != "" {
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(297, 8, fmt.Sprintf("%s %s", data.DocumentType, data.DocumentNumber), "", 1, "C", false, 0, "")
	}

	pdf.SetFont("Helvetica", "I", 10)
	pdf.SetXY(0, 185)
	pdf.CellFormat(297, 8, time.Now().Format("January 2, 2006"), "", 1, "C", false, 0, "")
}

func (r *FpdfRenderer) drawCompactLayout(pdf *fpdf.Fpdf, data CertificateData) {
	pdf.SetTextColor(44, 62, 80)

	pdf.SetFont("Helvetica", "B", 26)
	pdf.SetXY(0, 80)
	pdf.CellFormat(297, 14, data.FullName, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 14)
	pdf.CellFormat(297, 10, data.EventName, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(297, 8, time.Now().Format("2006-01-02"), "", 1, "C", false, 0, "")
}
