package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/DebarghaSamanta/THE-AI-MAVERICKS/internal/usecase"
)

const (
	UserRegisteredSubject = "auth.user.registered"
	PasswordResetSubject  = "auth.password.reset"
)

type Publisher struct {
	nc     *nats.Conn
	logger *zap.Logger
}

func NewNATSPublisher(url string, connectTimeout time.Duration, logger *zap.Logger) (*Publisher, error) {
	logger = logger.Named("NATSPublisher")
	opts := []nats.Option{
		nats.Name("relief-auth"),
		nats.Timeout(connectTimeout),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			subject := ""
			if sub != nil {
				subject = sub.Subject
			}
			logger.Error("NATS error", zap.String("subject", subject), zap.Error(err))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", zap.Error(err))
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	logger.Info("Successfully connected to NATS", zap.String("url", nc.ConnectedUrl()))

	return &Publisher{nc: nc, logger: logger}, nil
}

func (p *Publisher) PublishUserRegistered(ctx context.Context, event usecase.UserRegisteredEvent) error {
	return p.publish(UserRegisteredSubject, event)
}

func (p *Publisher) PublishPasswordReset(ctx context.Context, event usecase.PasswordResetEvent) error {
	return p.publish(PasswordResetSubject, event)
}

func (p *Publisher) publish(subject string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal event for NATS publishing", zap.String("subject", subject), zap.Error(err))
		return fmt.Errorf("failed to marshal event for %s: %w", subject, err)
	}

	if err := p.nc.Publish(subject, data); err != nil {
		p.logger.Error("Failed to publish NATS message", zap.String("subject", subject), zap.Error(err))
		return fmt.Errorf("failed to publish NATS message for %s: %w", subject, err)
	}
	p.logger.Info("Published NATS message", zap.String("subject", subject))
	return nil
}

func (p *Publisher) Close() {
	if p.nc != nil && !p.nc.IsClosed() {
		if err := p.nc.Drain(); err != nil {
			p.logger.Error("Error draining NATS connection", zap.Error(err))
		}
		p.logger.Info("NATS publisher connection closed")
	}
}
