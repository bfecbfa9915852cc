package services

import (
	"fmt"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/ienerzy/auth-service/internal/config"
	"github.com/ienerzy/auth-service/internal/utils"
)

// MailService sends account-security notices. Best effort only: a mail
// failure never fails the auth operation that triggered it.
type MailService interface {
	SendSignoutNotice(toEmail, userName string) error
}

type mailService struct {
	client *sendgrid.Client
	from   string
}

func NewMailService(cfg *config.Config) MailService {
	return &mailService{
		client: sendgrid.NewSendClient(cfg.SendGridAPIKey),
		from:   cfg.SendGridFrom,
	}
}

func (s *mailService) SendSignoutNotice(toEmail, userName string) error {
	if toEmail == "" {
		return nil
	}

	from := mail.NewEmail("Ienerzy", s.from)
	to := mail.NewEmail(userName, toEmail)
	subject := "Ienerzy - Signed out of all devices"
	ts := time.Now().Format(time.RFC1123)
	plain := fmt.Sprintf("All sessions on your Ienerzy account were signed out at %s. If this was not you, contact support immediately.", ts)
	html := fmt.Sprintf(signoutNoticeHTML, ts, time.Now().Year())
	msg := mail.NewSingleEmail(from, subject, to, plain, html)

	_, err := s.client.Send(msg)
	if err != nil {
		utils.Logger.WithError(err).Errorf("Failed to send sign-out notice to %s via SendGrid", toEmail)
	}
	return err
}

const signoutNoticeHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Signed out of all devices</title>
<style>
  body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Arial, sans-serif; line-height: 1.6; color: #333; background-color: #f8f9fa; margin: 0; padding: 20px; }
  .container { max-width: 500px; margin: auto; background: #ffffff; border: 1px solid #e9ecef; border-radius: 8px; overflow: hidden; }
  .header { background-color: #1b7f4d; color: white; padding: 20px; text-align: center; }
  .content { padding: 30px; }
  .footer { background-color: #f8f9fa; padding: 20px; text-align: center; font-size: 12px; color: #6c757d; }
</style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>Signed out of all devices</h1>
    </div>
    <div class="content">
      <p>All sessions on your Ienerzy account were signed out at %s.</p>
      <p>If this was not you, contact support immediately.</p>
    </div>
    <div class="footer">
      © %d Ienerzy. All rights reserved.
    </div>
  </div>
</body>
</html>`
