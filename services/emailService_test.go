package services

import (
	"encoding/base64"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSendClient struct {
	lastMail *mail.SGMailV3
	response *rest.Response
	err      error
}

func (f *fakeSendClient) Send(email *mail.SGMailV3) (*rest.Response, error) {
	f.lastMail = email
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func TestSendCertificateEmail_BuildsDynamicTemplateMessage(t *testing.T) {
	client := &fakeSendClient{response: &rest.Response{StatusCode: 202}}
	svc := NewSendGridEmailServiceWithClient(client, "noreply@certs.io", "Certificates Team")

	pdf := []byte("%PDF-1.4 test")
	err := svc.SendCertificateEmail(CertificateEmailParams{
		ToEmail:    "attendee@example.com",
		ToName:     "Jane Doe",
		TemplateId: "d-abc123",
		DynamicData: map[string]interface{}{
			"recipient_name": "Jane Doe",
			"download_link":  "https://certs.io/certificate/1/download",
		},
		Attachment:     pdf,
		AttachmentName: "Jane_Doe_certificate.pdf",
	})
	require.NoError(t, err)

	m := client.lastMail
	require.NotNil(t, m)
	assert.Equal(t, "d-abc123", m.TemplateID)
	assert.Equal(t, "noreply@certs.io", m.From.Address)
	assert.Equal(t, "Certificates Team", m.From.Name)

	require.Len(t, m.Personalizations, 1)
	p := m.Personalizations[0]
	require.Len(t, p.To, 1)
	assert.Equal(t, "attendee@example.com", p.To[0].Address)
	assert.Equal(t, "Jane Doe", p.DynamicTemplateData["recipient_name"])

	require.Len(t, m.Attachments, 1)
	attachment := m.Attachments[0]
	assert.Equal(t, "application/pdf", attachment.Type)
	assert.Equal(t, "Jane_Doe_certificate.pdf", attachment.Filename)
	assert.Equal(t, base64.StdEncoding.EncodeToString(pdf), attachment.Content)
}

func TestSendCertificateEmail_TemplateOverridesWin(t *testing.T) {
	client := &fakeSendClient{response: &rest.Response{StatusCode: 202}}
	svc := NewSendGridEmailServiceWithClient(client, "noreply@certs.io", "Certificates Team")

	err := svc.SendCertificateEmail(CertificateEmailParams{
		ToEmail:    "attendee@example.com",
		ToName:     "Jane Doe",
		TemplateId: "d-abc123",
		FromEmail:  "events@client.com",
		FromName:   "Client Events",
		Subject:    "Your certificate is ready",
	})
	require.NoError(t, err)

	m := client.lastMail
	assert.Equal(t, "events@client.com", m.From.Address)
	assert.Equal(t, "Client Events", m.From.Name)
	assert.Equal(t, "Your certificate is ready", m.Personalizations[0].Subject)
}

func TestSendCertificateEmail_NoAttachmentWhenEmpty(t *testing.T) {
	client := &fakeSendClient{response: &rest.Response{StatusCode: 202}}
	svc := NewSendGridEmailServiceWithClient(client, "noreply@certs.io", "Certificates Team")

	err := svc.SendCertificateEmail(CertificateEmailParams{
		ToEmail:    "attendee@example.com",
		TemplateId: "d-abc123",
	})
	require.NoError(t, err)
	assert.Empty(t, client.lastMail.Attachments)
}

func TestSendCertificateEmail_RejectionBecomesEmailError(t *testing.T) {
	client := &fakeSendClient{response: &rest.Response{StatusCode: 403, Body: "sender not verified"}}
	svc := NewSendGridEmailServiceWithClient(client, "noreply@certs.io", "Certificates Team")

	err := svc.SendCertificateEmail(CertificateEmailParams{
		ToEmail:    "attendee@example.com",
		TemplateId: "d-abc123",
	})
	require.Error(t, err)

	var emailErr *EmailError
	require.ErrorAs(t, err, &emailErr)
	assert.Equal(t, 403, emailErr.StatusCode)
	assert.Contains(t, emailErr.Error(), "sender not verified")
}
