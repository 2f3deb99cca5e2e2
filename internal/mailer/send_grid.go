package mailer

import (
	"fmt"
	"time"

	"github.com/SeakMengs/DocSign/internal/util"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

type SendGridMailer struct {
	fromEmail string
	fromName  string
	client    *sendgrid.Client
	isSandBox bool
	logger    *zap.SugaredLogger
	// between attempts; the n-th retry waits n times this
	backoff time.Duration
}

func NewSendgrid(apiKey string, fromEmail string, isProduction bool, logger *zap.SugaredLogger) *SendGridMailer {
	// For unit test
	if logger == nil {
		logger = util.NewNopLogger()
	}

	return &SendGridMailer{
		fromEmail: fromEmail,
		fromName:  util.GetAppName(),
		client:    sendgrid.NewSendClient(apiKey),
		// Sandbox mode only validates the request, nothing is delivered.
		isSandBox: !isProduction,
		logger:    logger,
		backoff:   time.Second,
	}
}

// Send renders templateFile with data and delivers it, retrying transport failures.
//
//	status, err := m.Send(mailer.DOCUMENT_SIGNED_TEMPLATE, user.Name, user.Email, mailer.DocumentSignedData{...})
func (m SendGridMailer) Send(templateFile, toUsername, toEmail string, data any) (int, error) {
	subject, body, err := Render(templateFile, data)
	if err != nil {
		m.logger.Errorf("Error occurred during mail template rendering, error: %v", err)
		return -1, err
	}

	message := mail.NewSingleEmail(mail.NewEmail(m.fromName, m.fromEmail), subject, mail.NewEmail(toUsername, toEmail), "", body)
	message.SetMailSettings(&mail.MailSettings{
		SandboxMode: &mail.Setting{
			Enable: &m.isSandBox,
		},
	})

	var lastErr error
	for i := 0; i < MAX_RETRY; i++ {
		response, err := m.client.Send(message)
		if err != nil {
			lastErr = err
			time.Sleep(m.backoff * time.Duration(i+1))
			continue
		}

		if response.StatusCode >= 300 {
			return response.StatusCode, fmt.Errorf("mail provider rejected the message with status %d: %s", response.StatusCode, response.Body)
		}
		return response.StatusCode, nil
	}

	m.logger.Errorf("Failed to send email after %d attempt, error: %v", MAX_RETRY, lastErr)
	return -1, fmt.Errorf("failed to send email after %d attempt: %w", MAX_RETRY, lastErr)
}
