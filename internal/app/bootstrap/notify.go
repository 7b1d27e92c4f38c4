package bootstrap

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/rickd5991-stack/jenny-bot/internal/config"
	"github.com/rickd5991-stack/jenny-bot/internal/messaging"
	"github.com/rickd5991-stack/jenny-bot/internal/notify"
	"github.com/rickd5991-stack/jenny-bot/internal/observability/metrics"
	"github.com/rickd5991-stack/jenny-bot/pkg/logging"
)

// BuildSMSSender returns the configured SMS sender, or nil with a warning
// when no provider has credentials.
func BuildSMSSender(cfg *appconfig.Config, logger *logging.Logger) messaging.SMSSender {
	if logger == nil {
		logger = logging.Default()
	}
	sender, provider, reason := messaging.BuildSMSSender(messaging.ProviderSelectionConfig{
		Preference:           cfg.SMSProvider,
		AfricasTalkingAPIKey: cfg.AfricasTalkingAPIKey,
		AfricasTalkingUser:   cfg.AfricasTalkingUser,
		AfricasTalkingSender: cfg.AfricasTalkingSender,
		TwilioAccountSID:     cfg.TwilioAccountSID,
		TwilioAuthToken:      cfg.TwilioAuthToken,
		TwilioFromNumber:     cfg.TwilioFromNumber,
	}, logger)
	if sender == nil {
		logger.Warn("confirmation sms disabled", "reason", reason)
		return nil
	}
	logger.Info("confirmation sms enabled", "provider", provider, "sandbox", cfg.IsSandbox())
	return sender
}

// BuildEmailSender returns the sender named by EMAIL_PROVIDER, or nil when
// e-mail confirmations are off.
func BuildEmailSender(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) (notify.EmailSender, error) {
	if logger == nil {
		logger = logging.Default()
	}
	switch cfg.EmailProvider {
	case "", "none":
		return nil, nil
	case "log":
		return notify.NewStubEmailSender(logger), nil
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sender == nil {
			return nil, fmt.Errorf("bootstrap: EMAIL_PROVIDER=sendgrid requires SENDGRID_API_KEY")
		}
		return sender, nil
	case "ses":
		if awsCfg == nil {
			return nil, fmt.Errorf("bootstrap: EMAIL_PROVIDER=ses requires AWS config")
		}
		if cfg.SESFromEmail == "" {
			return nil, fmt.Errorf("bootstrap: EMAIL_PROVIDER=ses requires SES_FROM_EMAIL")
		}
		return notify.NewSESSender(sesv2.NewFromConfig(*awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown email provider %q", cfg.EmailProvider)
	}
}

// BuildDispatcher wires the confirmation dispatcher.
func BuildDispatcher(cfg *appconfig.Config, sms messaging.SMSSender, email notify.EmailSender, m *metrics.DialogueMetrics, logger *logging.Logger) *notify.Dispatcher {
	return notify.NewDispatcher(notify.DispatcherConfig{
		SMS:         sms,
		Email:       email,
		Timeout:     cfg.NotifyTimeout,
		CountryCode: cfg.DefaultCountryCode,
		Metrics:     m,
		Logger:      logger,
	})
}
