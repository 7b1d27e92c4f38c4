package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/rickd5991-stack/jenny-bot/pkg/logging"
)

const (
	defaultFromName      = "Jenny"
	confirmationCategory = "booking-confirmation"
)

// EmailSender delivers a booking confirmation by e-mail.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is one confirmation addressed to the e-mail contact a caller
// gave during the dialogue. Body is plain text; senders derive the HTML part.
type EmailMessage struct {
	BookingID string
	To        string
	ToName    string
	Subject   string
	Body      string
}

func (m EmailMessage) validate() error {
	if strings.TrimSpace(m.To) == "" {
		return errors.New("notify: email recipient is required")
	}
	if strings.TrimSpace(m.Body) == "" {
		return errors.New("notify: email body is required")
	}
	return nil
}

// confirmationHTML renders the plain-text body as escaped paragraphs.
func confirmationHTML(body string) string {
	var b strings.Builder
	for _, para := range strings.Split(strings.TrimSpace(body), "\n") {
		if para = strings.TrimSpace(para); para == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(html.EscapeString(para))
		b.WriteString("</p>")
	}
	return b.String()
}

// SendGridSender sends confirmations through the SendGrid v3 API. Each
// message carries the booking id as a custom arg so delivery events can be
// matched to the ledger.
type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	logger    *logging.Logger
}

// SendGridConfig holds configuration for SendGrid.
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// NewSendGridSender returns nil when no API key is configured.
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = defaultFromName
	}
	return &SendGridSender{
		client:    sendgrid.NewSendClient(cfg.APIKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
	}
}

func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("notify: sendgrid client not configured")
	}
	if err := msg.validate(); err != nil {
		return err
	}

	message := mail.NewV3MailInit(
		mail.NewEmail(s.fromName, s.fromEmail),
		msg.Subject,
		mail.NewEmail(msg.ToName, msg.To),
		mail.NewContent("text/plain", msg.Body),
		mail.NewContent("text/html", confirmationHTML(msg.Body)),
	)
	message.AddCategories(confirmationCategory)
	if msg.BookingID != "" {
		message.Personalizations[0].SetCustomArg("booking_id", msg.BookingID)
	}

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("notify: sendgrid send for booking %s: %w", msg.BookingID, err)
	}
	if response.StatusCode >= 400 {
		s.logger.Error("sendgrid rejected booking confirmation",
			"booking_id", msg.BookingID, "status", response.StatusCode, "body", response.Body)
		return fmt.Errorf("notify: sendgrid returned status %d", response.StatusCode)
	}

	s.logger.Info("booking confirmation e-mailed", "provider", "sendgrid", "booking_id", msg.BookingID, "status", response.StatusCode)
	return nil
}

// StubEmailSender logs confirmations instead of sending them.
// EMAIL_PROVIDER=log wires it.
type StubEmailSender struct {
	logger *logging.Logger
}

func NewStubEmailSender(logger *logging.Logger) *StubEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubEmailSender{logger: logger}
}

func (s *StubEmailSender) Send(_ context.Context, msg EmailMessage) error {
	if err := msg.validate(); err != nil {
		return err
	}
	s.logger.Info("booking confirmation e-mail (not sent)",
		"booking_id", msg.BookingID, "to", msg.To, "subject", msg.Subject, "body", msg.Body)
	return nil
}

var (
	_ EmailSender = (*SendGridSender)(nil)
	_ EmailSender = (*StubEmailSender)(nil)
)
