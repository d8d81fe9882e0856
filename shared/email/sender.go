package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"product-pulse/internal/models"
	"product-pulse/shared/config"
)

type Sender struct {
	config *config.EmailConfig
}

func NewSender(cfg *config.EmailConfig) *Sender {
	return &Sender{
		config: cfg,
	}
}

// SendBatchReport mails the per-product outcome table for one batch run.
func (s *Sender) SendBatchReport(report *models.BatchReport) error {
	if report == nil {
		return fmt.Errorf("report cannot be nil")
	}

	subject := fmt.Sprintf("Product Pulse Run - %d persisted, %d failed (%s)",
		report.Count(models.OutcomePersisted),
		report.Count(models.OutcomeFailed),
		report.StartedAt.Format("Jan 2, 2006"))

	body, err := s.generateReportBody(report)
	if err != nil {
		return fmt.Errorf("failed to generate report body: %w", err)
	}

	return s.sendViaSMTP(subject, body)
}

func (s *Sender) sendViaSMTP(subject, body string) error {
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.SMTPServer)

	to := []string{s.config.ToEmail}
	msg := []byte(fmt.Sprintf(`To: %s
From: %s
Subject: %s
MIME-Version: 1.0
Content-Type: text/html; charset=UTF-8

%s`, s.config.ToEmail, s.config.FromEmail, subject, body))

	addr := fmt.Sprintf("%s:%d", s.config.SMTPServer, s.config.SMTPPort)
	return smtp.SendMail(addr, auth, s.config.FromEmail, to, msg)
}

const reportTemplate = `<html>
<body style="font-family: sans-serif;">
<h2>Product Pulse - {{.StartedAt.Format "Jan 2, 2006 15:04"}}</h2>
<p>Run {{.RunID}}</p>
<table border="1" cellpadding="6" cellspacing="0">
  <tr><th>Product</th><th>Outcome</th><th>New videos</th><th>Soft errors</th><th>Error</th></tr>
  {{range .Outcomes}}
  <tr>
    <td>{{.Name}}</td>
    <td>{{.Outcome}}</td>
    <td>{{.NewVideos}}</td>
    <td>{{.SoftErrors}}</td>
    <td>{{.Error}}</td>
  </tr>
  {{end}}
</table>
</body>
</html>`

func (s *Sender) generateReportBody(report *models.BatchReport) (string, error) {
	tmpl, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse report template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, report); err != nil {
		return "", fmt.Errorf("failed to render report template: %w", err)
	}
	return buf.String(), nil
}
