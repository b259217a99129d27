package notification

import (
	"context"
	"fmt"

	"go-leave/internal/config"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

type mailClient interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

type smtpSender struct {
	client mailClient
	from   string
	logger *zap.Logger
}

func NewSMTPSender(cfg config.NotificationConfig, logger *zap.Logger) (Sender, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.Timeout))
	}
	if cfg.SMTPUsername != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUsername),
			mail.WithPassword(cfg.SMTPPassword),
		)
	}

	client, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return newSMTPSender(client, cfg.SMTPFrom, logger), nil
}

func newSMTPSender(client mailClient, from string, logger *zap.Logger) *smtpSender {
	if logger == nil {
		logger = zap.L()
	}
	return &smtpSender{client: client, from: from, logger: logger.Named("notification.smtp")}
}

func (s *smtpSender) Send(ctx context.Context, msg Message) Result {
	m, err := s.build(msg)
	if err != nil {
		s.logger.Warn("build mail failed", zap.String("to", msg.To), zap.Error(err))
		return Failed(err)
	}

	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		s.logger.Error("send mail failed", zap.String("to", msg.To), zap.Error(err))
		return Failed(err)
	}

	s.logger.Info("mail sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return Sent()
}

func (s *smtpSender) build(msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(s.from); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("to address: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	return m, nil
}
