package mailer

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/platform/metrics"
)

const mailerSendAPIURL = "https://api.mailersend.com/v1/email"

// MailerSendService delivers through the MailerSend HTTP API.
type MailerSendService struct {
	endpoint  string
	fromEmail string
	fromName  string
	client    *resty.Client
	metrics   *metrics.MetricsManager
	logger    *zap.Logger
}

func NewMailerSendService(apiKey, fromEmail, fromName string, m *metrics.MetricsManager, logger *zap.Logger) *MailerSendService {
	return newMailerSendService(mailerSendAPIURL, apiKey, fromEmail, fromName, m, logger)
}

func newMailerSendService(url, apiKey, fromEmail, fromName string, m *metrics.MetricsManager, logger *zap.Logger) *MailerSendService {
	client := resty.New().
		SetTimeout(10*time.Second).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json")

	return &MailerSendService{
		endpoint:  url,
		fromEmail: fromEmail,
		fromName:  fromName,
		client:    client,
		metrics:   m,
		logger:    logger.Named("MailerSendService"),
	}
}

type mailerSendRequest struct {
	From    address   `json:"from"`
	To      []address `json:"to"`
	Subject string    `json:"subject"`
	Text    string    `json:"text"`
}

type address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

func (s *MailerSendService) Send(ctx context.Context, to, subject, body string) error {
	if to == "" {
		return noRecipient()
	}

	payload := mailerSendRequest{
		From:    address{Email: s.fromEmail, Name: s.fromName},
		To:      []address{{Email: to}},
		Subject: subject,
		Text:    body,
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post(s.endpoint)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("email sending cancelled or timed out: %w", ctxErr)
		}
		s.metrics.ObserveMailDelivery("mailersend", "failure")
		s.logger.Error("Failed to send request to MailerSend", zap.String("to", to), zap.Error(err))
		return &SendError{To: to, Attempts: []AttemptError{{Transport: "mailersend", Err: err}}}
	}

	if resp.StatusCode() != http.StatusAccepted {
		s.metrics.ObserveMailDelivery("mailersend", "failure")
		s.logger.Error("MailerSend API request failed", zap.String("to", to), zap.Int("statusCode", resp.StatusCode()))
		apiErr := fmt.Errorf("unexpected status %d: %s", resp.StatusCode(), resp.String())
		return &SendError{To: to, Attempts: []AttemptError{{Transport: "mailersend", Err: apiErr}}}
	}

	s.metrics.ObserveMailDelivery("mailersend", "success")
	s.logger.Info("Email sent successfully via MailerSend", zap.String("to", to), zap.String("messageID", resp.Header().Get("X-Message-Id")))
	return nil
}
