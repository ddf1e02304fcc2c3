package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/platform/metrics"
)

var ErrIncompleteConfig = errors.New("SMTP configuration is incomplete")

type SMTPConfig struct {
	Host         string
	SSLPort      int
	StartTLSPort int
	Username     string
	Password     string
	SenderEmail  string
	SenderName   string
}

type transport interface {
	DialAndSend(m ...*gomail.Message) error
}

type namedTransport struct {
	name string
	t    transport
}

// SMTPMailer sends through implicit TLS first and falls back once to a
// plain connection upgraded with STARTTLS.
type SMTPMailer struct {
	cfg        SMTPConfig
	transports []namedTransport
	metrics    *metrics.MetricsManager
	logger     *zap.Logger
}

func NewSMTPMailer(cfg SMTPConfig, m *metrics.MetricsManager, logger *zap.Logger) (*SMTPMailer, error) {
	if cfg.Host == "" || cfg.SSLPort == 0 || cfg.StartTLSPort == 0 ||
		cfg.Username == "" || cfg.Password == "" || cfg.SenderEmail == "" {
		return nil, ErrIncompleteConfig
	}

	tlsConfig := &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}

	ssl := gomail.NewDialer(cfg.Host, cfg.SSLPort, cfg.Username, cfg.Password)
	ssl.SSL = true
	ssl.TLSConfig = tlsConfig

	startTLS := gomail.NewDialer(cfg.Host, cfg.StartTLSPort, cfg.Username, cfg.Password)
	startTLS.SSL = false
	startTLS.TLSConfig = tlsConfig

	return &SMTPMailer{
		cfg: cfg,
		transports: []namedTransport{
			{name: "ssl", t: ssl},
			{name: "starttls", t: startTLS},
		},
		metrics: m,
		logger:  logger.Named("SMTPMailer"),
	}, nil
}

func (s *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if to == "" {
		return noRecipient()
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", s.cfg.SenderEmail, s.cfg.SenderName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	sendErr := &SendError{To: to}
	for _, nt := range s.transports {
		err := s.attempt(ctx, nt.t, msg)
		if err == nil {
			s.metrics.ObserveMailDelivery(nt.name, "success")
			s.logger.Info("Email sent successfully", zap.String("to", to), zap.String("subject", subject), zap.String("transport", nt.name))
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			s.logger.Warn("Email sending cancelled or timed out by context", zap.String("to", to), zap.Error(ctxErr))
			return fmt.Errorf("email sending cancelled or timed out: %w", ctxErr)
		}
		s.metrics.ObserveMailDelivery(nt.name, "failure")
		s.logger.Warn("SMTP transport failed", zap.String("to", to), zap.String("transport", nt.name), zap.Error(err))
		sendErr.Attempts = append(sendErr.Attempts, AttemptError{Transport: nt.name, Err: err})
	}

	s.logger.Error("Failed to send email on every transport", zap.String("to", to), zap.String("subject", subject), zap.Error(sendErr))
	return sendErr
}

// attempt runs one blocking DialAndSend while honouring ctx.
func (s *SMTPMailer) attempt(ctx context.Context, t transport, msg *gomail.Message) error {
	done := make(chan error, 1)
	go func() {
		done <- t.DialAndSend(msg)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}
