package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"certhub/models"

	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// RowError records one rejected row from an attendee import.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// BulkUploadResult summarizes one processed attendee file.
type BulkUploadResult struct {
	TotalRecords           int        `json:"totalRecords"`
	Created                int        `json:"created"`
	Updated                int        `json:"updated"`
	Errors                 int        `json:"errors"`
	CertificatesAssociated int        `json:"certificatesAssociated"`
	ErrorDetails           []RowError `json:"errorDetails"`
}

// attendeeRow is one parsed and validated row from an import file.
type attendeeRow struct {
	FullName       string `validate:"required"`
	FirstName      string
	LastName       string
	Email          string `validate:"required,email"`
	Country        string
	DocumentType   string
	DocumentNumber string
	CertificateID  uint
}

// headerAliases maps normalized column headers to canonical field names.
// Spanish and English spellings are both accepted.
var headerAliases = map[string]string{
	"fullname":         "full_name",
	"full_name":        "full_name",
	"nombre_completo":  "full_name",
	"name":             "full_name",
	"firstname":        "first_name",
	"first_name":       "first_name",
	"nombre":           "first_name",
	"nombres":          "first_name",
	"lastname":         "last_name",
	"last_name":        "last_name",
	"apellido":         "last_name",
	"apellidos":        "last_name",
	"email":            "email",
	"correo":           "email",
	"country":          "country",
	"pais":             "country",
	"documenttype":     "document_type",
	"document_type":    "document_type",
	"tipo_documento":   "document_type",
	"documentnumber":   "document_number",
	"document_number":  "document_number",
	"numero_documento": "document_number",
	"documento":        "document_number",
	"certificateid":    "certificate_id",
	"certificate_id":   "certificate_id",
	"certificado":      "certificate_id",
}

// FileProcessingService imports attendee files (CSV or XLSX) into the
// attendee table, optionally pre-creating certificate records when a row
// names a certificate template.
type FileProcessingService struct {
	db       *gorm.DB
	validate *validator.Validate
}

func NewFileProcessingService(db *gorm.DB) *FileProcessingService {
	return &FileProcessingService{db: db, validate: validator.New()}
}

// ProcessFile parses the file, upserts attendees and reports per-row errors.
// A malformed file fails as a whole; a bad row only fails that row.
func (s *FileProcessingService) ProcessFile(filename string, data []byte, updateExisting bool) (*BulkUploadResult, error) {
	rows, err := s.parseFile(filename, data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("file contains no data rows")
	}

	result := &BulkUploadResult{TotalRecords: len(rows)}
	for i, row := range rows {
		// Header is row 1, data starts at row 2.
		rowNum := i + 2

		if err := s.validate.Struct(row); err != nil {
			result.Errors++
			result.ErrorDetails = append(result.ErrorDetails, RowError{
				Row:     rowNum,
				Message: validationMessage(err),
			})
			continue
		}

		created, associated, err := s.upsertAttendee(row, updateExisting)
		if err != nil {
			result.Errors++
			result.ErrorDetails = append(result.ErrorDetails, RowError{Row: rowNum, Message: err.Error()})
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
		if associated {
			result.CertificatesAssociated++
		}
	}
	return result, nil
}

func (s *FileProcessingService) parseFile(filename string, data []byte) ([]attendeeRow, error) {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".csv"):
		return s.parseCsv(data)
	case strings.HasSuffix(lower, ".xlsx"), strings.HasSuffix(lower, ".xls"):
		return s.parseXlsx(data)
	default:
		return nil, fmt.Errorf("unsupported file type: %s (expected .csv or .xlsx)", filename)
	}
}

func (s *FileProcessingService) parseCsv(data []byte) ([]attendeeRow, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing csv: %w", err)
	}
	if len(records) < 1 {
		return nil, errors.New("csv file is empty")
	}
	return buildRows(records[0], records[1:])
}

func (s *FileProcessingService) parseXlsx(data []byte) ([]attendeeRow, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing xlsx: %w", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("xlsx file has no sheets")
	}

	records, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading xlsx rows: %w", err)
	}
	if len(records) < 1 {
		return nil, errors.New("xlsx sheet is empty")
	}
	return buildRows(records[0], records[1:])
}

func buildRows(header []string, records [][]string) ([]attendeeRow, error) {
	columns := map[string]int{}
	for i, h := range header {
		normalized := strings.ToLower(strings.TrimSpace(strings.ReplaceAll(h, " ", "_")))
		if field, ok := headerAliases[normalized]; ok {
			columns[field] = i
		}
	}
	if _, ok := columns["email"]; !ok {
		return nil, errors.New("file is missing an email column")
	}
	if _, ok := columns["full_name"]; !ok {
		return nil, errors.New("file is missing a full name column")
	}

	cell := func(record []string, field string) string {
		idx, ok := columns[field]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var rows []attendeeRow
	for _, record := range records {
		if isBlankRecord(record) {
			continue
		}
		row := attendeeRow{
			FullName:       cell(record, "full_name"),
			FirstName:      cell(record, "first_name"),
			LastName:       cell(record, "last_name"),
			Email:          cell(record, "email"),
			Country:        cell(record, "country"),
			DocumentType:   cell(record, "document_type"),
			DocumentNumber: cell(record, "document_number"),
		}
		if raw := cell(record, "certificate_id"); raw != "" {
			id, err := strconv.ParseUint(raw, 10, 32)
			if err == nil {
				row.CertificateID = uint(id)
			}
		}
		if row.FullName == "" && row.FirstName != "" {
			row.FullName = strings.TrimSpace(row.FirstName + " " + row.LastName)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// upsertAttendee matches existing attendees by email first, then by document
// number. Returns whether a row was created and whether a certificate record
// was associated.
func (s *FileProcessingService) upsertAttendee(row attendeeRow, updateExisting bool) (bool, bool, error) {
	var attendee models.Attendee
	query := s.db.Where("email = ?", row.Email)
	if row.DocumentNumber != "" {
		query = s.db.Where("email = ? OR document_number = ?", row.Email, row.DocumentNumber)
	}

	err := query.First(&attendee).Error
	created := false
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		attendee = models.Attendee{
			FullName:       row.FullName,
			FirstName:      row.FirstName,
			LastName:       row.LastName,
			Email:          row.Email,
			Country:        row.Country,
			DocumentType:   row.DocumentType,
			DocumentNumber: row.DocumentNumber,
		}
		if err := s.db.Create(&attendee).Error; err != nil {
			return false, false, fmt.Errorf("creating attendee: %w", err)
		}
		created = true
	case err != nil:
		return false, false, err
	default:
		if updateExisting {
			attendee.FullName = row.FullName
			attendee.FirstName = row.FirstName
			attendee.LastName = row.LastName
			attendee.Country = row.Country
			attendee.DocumentType = row.DocumentType
			attendee.DocumentNumber = row.DocumentNumber
			if err := s.db.Save(&attendee).Error; err != nil {
				return false, false, fmt.Errorf("updating attendee: %w", err)
			}
		}
	}

	associated := false
	if row.CertificateID > 0 {
		ok, err := s.associateCertificate(row.CertificateID, attendee.ID)
		if err != nil {
			log.Printf("[FILE-PROCESSOR] Error associating certificate %d for attendee %d: %v",
				row.CertificateID, attendee.ID, err)
		}
		associated = ok
	}
	return created, associated, nil
}

// associateCertificate pre-creates a certificate record with no stored PDF.
// The backfill scheduler later picks these up and creates delivery jobs.
func (s *FileProcessingService) associateCertificate(certificateID, attendeeID uint) (bool, error) {
	var count int64
	if err := s.db.Model(&models.Certificate{}).Where("id = ?", certificateID).Count(&count).Error; err != nil {
		return false, err
	}
	if count == 0 {
		return false, fmt.Errorf("certificate template %d does not exist", certificateID)
	}

	if err := s.db.Model(&models.GeneratedCertificate{}).
		Where("certificate_id = ? AND attendee_id = ?", certificateID, attendeeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	record := models.GeneratedCertificate{
		CertificateID: certificateID,
		AttendeeID:    attendeeID,
	}
	if err := s.db.Create(&record).Error; err != nil {
		return false, err
	}
	return true, nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		field := verrs[0].Field()
		switch verrs[0].Tag() {
		case "required":
			return fmt.Sprintf("%s is required", field)
		case "email":
			return fmt.Sprintf("%s is not a valid email address", field)
		}
		return fmt.Sprintf("%s failed validation (%s)", field, verrs[0].Tag())
	}
	return err.Error()
}
