package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go-leave/internal/config"

	"go.uber.org/zap"
)

const (
	ComposioSendEmailTool = "GMAIL_SEND_EMAIL"
	composioActive        = "ACTIVE"
)

// composioSender sends through a connected Gmail account: it checks the
// connection is ACTIVE, then executes the send tool.
type composioSender struct {
	baseURL   string
	apiKey    string
	accountID string
	client    *http.Client
	logger    *zap.Logger
}

func NewComposioSender(cfg config.NotificationConfig, client *http.Client, logger *zap.Logger) Sender {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if logger == nil {
		logger = zap.L()
	}
	return &composioSender{
		baseURL:   strings.TrimRight(cfg.ComposioBaseURL, "/"),
		apiKey:    cfg.ComposioAPIKey,
		accountID: cfg.ComposioConnectedAccountID,
		client:    client,
		logger:    logger.Named("notification.composio"),
	}
}

type connectedAccount struct {
	Connection struct {
		State struct {
			Val struct {
				Status string `json:"status"`
			} `json:"val"`
		} `json:"state"`
	} `json:"connection"`
	// some API versions report the status at the top level
	Status string `json:"status"`
}

func (a connectedAccount) status() string {
	if s := a.Connection.State.Val.Status; s != "" {
		return s
	}
	return a.Status
}

type executeToolRequest struct {
	ToolName  string            `json:"tool_name"`
	Arguments map[string]string `json:"arguments"`
}

type executeToolResponse struct {
	Successful *bool  `json:"successful"`
	Error      string `json:"error"`
}

func (s *composioSender) Send(ctx context.Context, msg Message) Result {
	if err := s.ensureActive(ctx); err != nil {
		s.logger.Warn("composio connection not usable", zap.String("account_id", s.accountID), zap.Error(err))
		return Failed(err)
	}

	if err := s.execute(ctx, msg); err != nil {
		s.logger.Error("composio send failed", zap.String("to", msg.To), zap.Error(err))
		return Failed(err)
	}

	s.logger.Info("mail sent via composio", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return Sent()
}

func (s *composioSender) ensureActive(ctx context.Context) error {
	url := fmt.Sprintf("%s/connected_accounts/%s", s.baseURL, s.accountID)
	var account connectedAccount
	if err := s.do(ctx, http.MethodGet, url, nil, &account); err != nil {
		return err
	}
	if status := account.status(); status != composioActive {
		return fmt.Errorf("connected account %s is not active (status=%s)", s.accountID, status)
	}
	return nil
}

func (s *composioSender) execute(ctx context.Context, msg Message) error {
	url := fmt.Sprintf("%s/connected_accounts/%s/execute_tool", s.baseURL, s.accountID)
	req := executeToolRequest{
		ToolName: ComposioSendEmailTool,
		Arguments: map[string]string{
			"to":      msg.To,
			"subject": msg.Subject,
			"body":    msg.Body,
		},
	}
	var resp executeToolResponse
	if err := s.do(ctx, http.MethodPost, url, req, &resp); err != nil {
		return err
	}
	if resp.Successful != nil && !*resp.Successful {
		return fmt.Errorf("tool %s reported failure: %s", ComposioSendEmailTool, resp.Error)
	}
	return nil
}

func (s *composioSender) do(ctx context.Context, method, url string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("%s %s: status %d: %s", method, url, res.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}
