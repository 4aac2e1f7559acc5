package services

import (
	"encoding/base64"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// CertificateEmailParams describes one outbound certificate email. FromEmail,
// FromName and Subject are optional overrides from the certificate template;
// empty values fall back to system defaults.
type CertificateEmailParams struct {
	ToEmail        string
	ToName         string
	TemplateId     string
	DynamicData    map[string]interface{}
	Attachment     []byte
	AttachmentName string
	FromEmail      string
	FromName       string
	Subject        string
}

// EmailSender sends one certificate email with a PDF attachment.
type EmailSender interface {
	SendCertificateEmail(params CertificateEmailParams) error
}

// EmailError is a typed delivery failure carrying the provider response.
type EmailError struct {
	StatusCode int
	Body       string
}

func (e *EmailError) Error() string {
	return fmt.Sprintf("sendgrid rejected message (status %d): %s", e.StatusCode, e.Body)
}

// sendClient is the slice of the SendGrid client the service needs. Tests
// substitute a fake here instead of touching global state.
type sendClient interface {
	Send(email *mail.SGMailV3) (*rest.Response, error)
}

type SendGridEmailService struct {
	client    sendClient
	fromEmail string
	fromName  string
}

func NewSendGridEmailService(apiKey, fromEmail, fromName string) *SendGridEmailService {
	return &SendGridEmailService{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

// NewSendGridEmailServiceWithClient injects a pre-built client.
func NewSendGridEmailServiceWithClient(client sendClient, fromEmail, fromName string) *SendGridEmailService {
	return &SendGridEmailService{client: client, fromEmail: fromEmail, fromName: fromName}
}

func (s *SendGridEmailService) SendCertificateEmail(params CertificateEmailParams) error {
	fromEmail := params.FromEmail
	if fromEmail == "" {
		fromEmail = s.fromEmail
	}
	fromName := params.FromName
	if fromName == "" {
		fromName = s.fromName
	}

	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail(fromName, fromEmail))
	m.SetTemplateID(params.TemplateId)

	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail(params.ToName, params.ToEmail))
	for key, value := range params.DynamicData {
		p.SetDynamicTemplateData(key, value)
	}
	if params.Subject != "" {
		p.Subject = params.Subject
	}
	m.AddPersonalizations(p)

	if len(params.Attachment) > 0 {
		attachment := mail.NewAttachment()
		attachment.SetContent(base64.StdEncoding.EncodeToString(params.Attachment))
		attachment.SetType("application/pdf")
		attachment.SetFilename(params.AttachmentName)
		attachment.SetDisposition("attachment")
		m.AddAttachment(attachment)
	}

	resp, err := s.client.Send(m)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return &EmailError{StatusCode: resp.StatusCode, Body: resp.Body}
	}
	return nil
}
