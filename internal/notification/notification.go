package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go-leave/internal/config"

	"go.uber.org/zap"
)

const (
	StatusSent    = "sent"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

// Result is the outcome of one delivery attempt. Senders report transport
// problems here instead of returning an error.
type Result struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func Sent() Result { return Result{Status: StatusSent} }

func Failed(err error) Result { return Result{Status: StatusFailed, Reason: err.Error()} }

func Skipped(reason string) Result { return Result{Status: StatusSkipped, Reason: reason} }

//go:generate mockgen -source=notification.go -destination=mock/notification_mock.go -package=mock
type Sender interface {
	Send(ctx context.Context, msg Message) Result
}

// LeaveDetails is what HR sees about a committed application.
type LeaveDetails struct {
	Name        string
	Email       string
	StartDate   time.Time
	EndDate     time.Time
	Days        int
	Description string
	LeavesLeft  int
}

// LeaveMessage renders the HR mail. Dates are DD-MM-YYYY.
func LeaveMessage(to string, d LeaveDetails) Message {
	var b strings.Builder
	b.WriteString("Leave Application:\n\n")
	fmt.Fprintf(&b, "Name: %s\n", d.Name)
	fmt.Fprintf(&b, "Email: %s\n", d.Email)
	fmt.Fprintf(&b, "Start Date: %s\n", d.StartDate.Format("02-01-2006"))
	fmt.Fprintf(&b, "End Date: %s\n", d.EndDate.Format("02-01-2006"))
	fmt.Fprintf(&b, "Days: %d\n", d.Days)
	fmt.Fprintf(&b, "Reason: %s\n", d.Description)
	fmt.Fprintf(&b, "Leaves Left: %d\n", d.LeavesLeft)

	return Message{
		To:      to,
		Subject: "Leave Application from " + d.Name,
		Body:    b.String(),
	}
}

// NewSender builds the transport named by cfg.Transport.
func NewSender(cfg config.NotificationConfig, logger *zap.Logger) (Sender, error) {
	switch cfg.Transport {
	case config.TransportSMTP:
		return NewSMTPSender(cfg, logger)
	case config.TransportComposio:
		return NewComposioSender(cfg, nil, logger), nil
	case config.TransportLog, "":
		return NewLogSender(logger), nil
	default:
		return nil, fmt.Errorf("unknown notification transport %q", cfg.Transport)
	}
}
