package messaging

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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/rickd5991-stack/jenny-bot/pkg/logging"
)

const (
	africasTalkingSandboxURL = "https://api.sandbox.africastalking.com/version1/messaging"
	africasTalkingLiveURL    = "https://api.africastalking.com/version1/messaging"
	sandboxUsername          = "sandbox"
	defaultSenderID          = "JENNY"
)

var africasTalkingTracer = otel.Tracer("jenny.internal.messaging.africastalking")

// AfricasTalkingConfig configures the Africa's Talking bulk SMS sender.
type AfricasTalkingConfig struct {
	APIKey   string
	Username string
	SenderID string
	// Endpoint overrides the sandbox/live URL picked from Username.
	Endpoint   string
	HTTPClient *http.Client
}

// AfricasTalkingSender posts SMS messages to the Africa's Talking messaging API.
type AfricasTalkingSender struct {
	apiKey     string
	username   string
	senderID   string
	endpoint   string
	httpClient *http.Client
	logger     *logging.Logger
}

var _ SMSSender = (*AfricasTalkingSender)(nil)

// NewAfricasTalkingSender builds a sender. The username "sandbox" selects the
// sandbox endpoint.
func NewAfricasTalkingSender(cfg AfricasTalkingConfig, logger *logging.Logger) *AfricasTalkingSender {
	if logger == nil {
		logger = logging.Default()
	}
	username := strings.TrimSpace(cfg.Username)
	if username == "" {
		username = sandboxUsername
	}
	senderID := cfg.SenderID
	if senderID == "" {
		senderID = defaultSenderID
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = africasTalkingLiveURL
		if username == sandboxUsername {
			endpoint = africasTalkingSandboxURL
		}
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &AfricasTalkingSender{
		apiKey:     cfg.APIKey,
		username:   username,
		senderID:   senderID,
		endpoint:   endpoint,
		httpClient: client,
		logger:     logger,
	}
}

type atResponse struct {
	SMSMessageData struct {
		Message    string `json:"Message"`
		Recipients []struct {
			StatusCode int    `json:"statusCode"`
			Number     string `json:"number"`
			Status     string `json:"status"`
			MessageID  string `json:"messageId"`
		} `json:"Recipients"`
	} `json:"SMSMessageData"`
}

// Send posts one message. A 2xx response whose recipient entry carries a
// failure status is reported as an error.
func (s *AfricasTalkingSender) Send(ctx context.Context, msg SMS) error {
	if s.apiKey == "" {
		return errors.New("messaging: africa's talking api key missing")
	}
	if err := msg.validate(); err != nil {
		return err
	}
	from := msg.From
	if from == "" {
		from = s.senderID
	}

	ctx, span := africasTalkingTracer.Start(ctx, "messaging.africastalking.send")
	defer span.End()
	span.SetAttributes(attribute.String("jenny.to", msg.To))

	form := url.Values{}
	form.Set("username", s.username)
	form.Set("to", msg.To)
	form.Set("message", msg.Body)
	form.Set("from", from)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("messaging: build request: %w", err)
	}
	req.Header.Set("apiKey", s.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("messaging: africa's talking request: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("messaging: africa's talking send failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		span.RecordError(err)
		return err
	}

	var parsed atResponse
	if err := json.Unmarshal(body, &parsed); err == nil {
		for _, r := range parsed.SMSMessageData.Recipients {
			// 100 Processed, 101 Sent, 102 Queued
			if r.StatusCode < 100 || r.StatusCode > 102 {
				err := fmt.Errorf("messaging: africa's talking rejected %s: %s (%d)", r.Number, r.Status, r.StatusCode)
				span.RecordError(err)
				return err
			}
			s.logger.Info("africa's talking sms sent", "to", r.Number, "message_id", r.MessageID)
		}
	}
	return nil
}
