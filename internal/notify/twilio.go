package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wichananm65/jewel-shop-backend/internal/config"
	"github.com/wichananm65/jewel-shop-backend/internal/logger"
)

const (
	defaultTwilioBaseURL        = "https://api.twilio.com/2010-04-01"
	responseBodyReadLimit int64 = 4096
)

var (
	errTwilioNotConfigured = errors.New("twilio account sid, auth token and from number are required")
)

// Sender delivers one text message to one phone number.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// TwilioSender posts messages to the Twilio REST API.
type TwilioSender struct {
	httpClient *http.Client
	baseURL    string
	accountSID string
	authToken  string
	from       string
}

// Option configures optional sender behavior.
type Option func(*TwilioSender)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *TwilioSender) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured API base URL.
func WithBaseURL(baseURL string) Option {
	return func(s *TwilioSender) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			s.baseURL = strings.TrimRight(trimmed, "/")
		}
	}
}

func NewTwilioSender(cfg config.TwilioConfig, opts ...Option) (*TwilioSender, error) {
	if !cfg.Configured() {
		return nil, errTwilioNotConfigured
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	s := &TwilioSender{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultTwilioBaseURL,
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		from:       cfg.From,
	}
	WithBaseURL(cfg.BaseURL)(s)
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

type twilioResponse struct {
	SID          string          `json:"sid"`
	ErrorCode    json.RawMessage `json:"error_code"`
	ErrorMessage string          `json:"error_message"`
	Message      string          `json:"message"`
}

func (s *TwilioSender) Send(ctx context.Context, to, body string) error {
	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", s.baseURL, url.PathEscape(s.accountSID))
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", s.from)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build twilio request: %w", err)
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute twilio request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return fmt.Errorf("read twilio response: %w", err)
	}
	var decoded twilioResponse
	_ = json.Unmarshal(raw, &decoded)

	if resp.StatusCode >= http.StatusBadRequest {
		msg := decoded.Message
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return fmt.Errorf("twilio returned %d: %s", resp.StatusCode, msg)
	}
	if code := strings.TrimSpace(string(decoded.ErrorCode)); code != "" && code != "null" {
		return fmt.Errorf("twilio error %s: %s", code, decoded.ErrorMessage)
	}
	return nil
}

// LogSender writes messages to the log instead of sending them. It stands in
// for Twilio in dev setups without credentials.
type LogSender struct {
	log *logger.Logger
}

func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(ctx context.Context, to, body string) error {
	s.log.Info(s.log.WithFields(ctx, map[string]any{"to": to, "body": body}), "sms not sent, twilio is not configured")
	return nil
}
