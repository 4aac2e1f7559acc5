package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCertificatePdf_DefaultLayout(t *testing.T) {
	renderer := NewFpdfRenderer()

	pdfBytes, err := renderer.GenerateCertificatePdf(CertificateData{
		FullName:        "Jane Doe",
		CertificateName: "Go Fundamentals",
		EventName:       "GopherCon Workshop",
		DocumentType:    "CC",
		DocumentNumber:  "123456",
	}, "default")
	require.NoError(t, err)
	assert.True(t, len(pdfBytes) > 0)
	assert.Equal(t, "%PDF", string(pdfBytes[:4]))
}

func TestGenerateCertificatePdf_UnknownTemplateFallsBack(t *testing.T) {
	renderer := NewFpdfRenderer()

	pdfBytes, err := renderer.GenerateCertificatePdf(CertificateData{
		FullName:  "Jane Doe",
		EventName: "GopherCon Workshop",
	}, "does-not-exist")
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(pdfBytes[:4]))
}

func TestGenerateCertificatePdf_BackgroundFetchFailureIsAnError(t *testing.T) {
	renderer := NewFpdfRenderer()

	_, err := renderer.GenerateCertificatePdf(CertificateData{
		FullName:      "Jane Doe",
		BaseDesignUrl: "http://127.0.0.1:1/missing.png",
	}, "default")
	assert.Error(t, err)
}

func TestImageTypeFor(t *testing.T) {
	assert.Equal(t, "PNG", imageTypeFor("image/png", "https://cdn/x"))
	assert.Equal(t, "JPG", imageTypeFor("image/jpeg", "https://cdn/x"))
	assert.Equal(t, "JPG", imageTypeFor("", "https://cdn/design.JPG"))
	assert.Equal(t, "PNG", imageTypeFor("", "https://cdn/design.png"))
	assert.Equal(t, "PNG", imageTypeFor("application/octet-stream", "https://cdn/design"))
}
