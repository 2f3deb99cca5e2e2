package mailer

import (
	"net/http"

	"go.uber.org/zap"
)

// NopMailer renders the message and logs it instead of sending. Used when no mail provider is
// configured.
type NopMailer struct {
	logger *zap.SugaredLogger
}

func NewNopMailer(logger *zap.SugaredLogger) *NopMailer {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &NopMailer{logger: logger}
}

func (m NopMailer) Send(templateFile, toUsername, toEmail string, data any) (int, error) {
	subject, _, err := Render(templateFile, data)
	if err != nil {
		return -1, err
	}

	m.logger.Debugf("Mail delivery disabled, dropping %q to %s", subject, toEmail)
	return http.StatusOK, nil
}
