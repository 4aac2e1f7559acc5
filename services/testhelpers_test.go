package services

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"certhub/config"
	"certhub/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDb(t *testing.T) *gorm.DB {
	t.Helper()

	config.AppConfig = &config.Config{
		AppUrl:            "http://localhost:3000",
		SendGridFromEmail: "noreply@test.local",
		SendGridFromName:  "Test Sender",
	}

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Certificate{},
		&models.Attendee{},
		&models.GeneratedCertificate{},
		&models.Job{},
		&models.BulkUploadJob{},
	)
	require.NoError(t, err)
	return db
}

func seedCertificate(t *testing.T, db *gorm.DB) *models.Certificate {
	t.Helper()
	cert := &models.Certificate{
		Client:             "acme",
		Name:               "Go Fundamentals",
		EventName:          "GopherCon Workshop",
		SendgridTemplateId: "d-12345",
		PdfTemplate:        "default",
		EventLink:          "https://example.com/event",
		IsActive:           true,
	}
	require.NoError(t, db.Create(cert).Error)
	return cert
}

func seedAttendee(t *testing.T, db *gorm.DB, name, email string) *models.Attendee {
	t.Helper()
	attendee := &models.Attendee{
		FullName: name,
		Email:    email,
		Country:  "CO",
	}
	require.NoError(t, db.Create(attendee).Error)
	return attendee
}

func seedJob(t *testing.T, db *gorm.DB, cert *models.Certificate, attendee *models.Attendee, status models.JobStatus) (*models.GeneratedCertificate, *models.Job) {
	t.Helper()
	gc := &models.GeneratedCertificate{
		CertificateID: cert.ID,
		AttendeeID:    attendee.ID,
		GeneratedAt:   time.Now(),
	}
	require.NoError(t, db.Create(gc).Error)

	job := &models.Job{
		GeneratedCertificateID: gc.ID,
		Status:                 status,
	}
	require.NoError(t, db.Create(job).Error)
	return gc, job
}

// fakeRenderer returns fixed bytes, or fails for attendee names in failFor.
type fakeRenderer struct {
	mu      sync.Mutex
	calls   int
	failFor map[string]bool
	delay   time.Duration
}

func (f *fakeRenderer) GenerateCertificatePdf(data CertificateData, templateName string) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.failFor[data.FullName] {
		return nil, errors.New("template image unavailable")
	}
	return []byte("%PDF-1.4 " + data.FullName), nil
}

func (f *fakeRenderer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeStorage keeps uploads in memory and can simulate failures.
type fakeStorage struct {
	mu         sync.Mutex
	files      map[string][]byte
	uploadErr  error
	existsErr  error
	cdnBase    string
	deletedKey string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{files: map[string][]byte{}, cdnBase: "https://cdn.test"}
}

func (f *fakeStorage) UploadFile(key string, data []byte, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.files[key] = data
	return f.cdnBase + "/" + key, nil
}

func (f *fakeStorage) DeleteFile(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, key)
	f.deletedKey = key
	return nil
}

func (f *fakeStorage) FileExists(key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existsErr != nil {
		return false, f.existsErr
	}
	_, ok := f.files[key]
	return ok, nil
}

func (f *fakeStorage) DownloadFile(key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}

func (f *fakeStorage) ExtractKeyFromUrl(url string) string {
	if len(url) > len(f.cdnBase)+1 {
		return url[len(f.cdnBase)+1:]
	}
	return url
}

// fakeSender records every send and can fail for specific recipients.
type fakeSender struct {
	mu      sync.Mutex
	sent    []CertificateEmailParams
	failFor map[string]bool
}

func newFakeSender() *fakeSender {
	return &fakeSender{failFor: map[string]bool{}}
}

func (f *fakeSender) SendCertificateEmail(params CertificateEmailParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[params.ToEmail] {
		return &EmailError{StatusCode: 403, Body: "sender identity not verified"}
	}
	f.sent = append(f.sent, params)
	return nil
}

func (f *fakeSender) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeSender) lastSent() CertificateEmailParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}
