package notification

import (
	"context"

	"go.uber.org/zap"
)

type logSender struct {
	logger *zap.Logger
}

// NewLogSender only records the message; nothing leaves the process.
func NewLogSender(logger *zap.Logger) Sender {
	if logger == nil {
		logger = zap.L()
	}
	return &logSender{logger: logger.Named("notification.log")}
}

func (s *logSender) Send(_ context.Context, msg Message) Result {
	s.logger.Info("notification not delivered, log transport",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return Skipped("log transport")
}
