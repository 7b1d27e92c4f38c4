package messaging

import (
	"fmt"
	"strings"

	"github.com/rickd5991-stack/jenny-bot/pkg/logging"
)

const (
	// SMSProviderAuto prefers Africa's Talking and fails over to Twilio.
	SMSProviderAuto = "auto"
	// SMSProviderAfricasTalking forces the Africa's Talking sender.
	SMSProviderAfricasTalking = "africastalking"
	// SMSProviderTwilio forces the Twilio sender.
	SMSProviderTwilio = "twilio"
)

// ProviderSelectionConfig captures the credentials required to build senders.
type ProviderSelectionConfig struct {
	Preference           string
	AfricasTalkingAPIKey string
	AfricasTalkingUser   string
	AfricasTalkingSender string
	TwilioAccountSID     string
	TwilioAuthToken      string
	TwilioFromNumber     string
}

// BuildSMSSender instantiates a sender based on the preferred provider.
// It returns the sender, the provider that was selected, and a reason when
// no provider could be initialized.
func BuildSMSSender(cfg ProviderSelectionConfig, logger *logging.Logger) (SMSSender, string, string) {
	if logger == nil {
		logger = logging.Default()
	}
	preference := strings.ToLower(strings.TrimSpace(cfg.Preference))
	if preference == "" {
		preference = SMSProviderAuto
	}

	missing := map[string]string{}
	var atSender, twilioSender SMSSender

	if cfg.AfricasTalkingAPIKey != "" {
		atSender = NewAfricasTalkingSender(AfricasTalkingConfig{
			APIKey:   cfg.AfricasTalkingAPIKey,
			Username: cfg.AfricasTalkingUser,
			SenderID: cfg.AfricasTalkingSender,
		}, logger)
	} else {
		missing[SMSProviderAfricasTalking] = "AFRICAS_TALKING_API_KEY missing"
	}

	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" && cfg.TwilioFromNumber != "" {
		twilioSender = NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger)
	} else {
		var reasons []string
		if cfg.TwilioAccountSID == "" {
			reasons = append(reasons, "TWILIO_ACCOUNT_SID missing")
		}
		if cfg.TwilioAuthToken == "" {
			reasons = append(reasons, "TWILIO_AUTH_TOKEN missing")
		}
		if cfg.TwilioFromNumber == "" {
			reasons = append(reasons, "TWILIO_FROM_NUMBER missing")
		}
		missing[SMSProviderTwilio] = strings.Join(reasons, ", ")
	}

	switch preference {
	case SMSProviderAfricasTalking:
		if atSender != nil {
			return atSender, SMSProviderAfricasTalking, ""
		}
		return nil, "", missing[SMSProviderAfricasTalking]
	case SMSProviderTwilio:
		if twilioSender != nil {
			return twilioSender, SMSProviderTwilio, ""
		}
		return nil, "", missing[SMSProviderTwilio]
	case SMSProviderAuto:
	default:
		return nil, "", fmt.Sprintf("unknown SMS provider %q", preference)
	}

	switch {
	case atSender != nil && twilioSender != nil:
		return NewFailoverSender(atSender, SMSProviderAfricasTalking, twilioSender, SMSProviderTwilio, logger),
			SMSProviderAfricasTalking + "+" + SMSProviderTwilio, ""
	case atSender != nil:
		return atSender, SMSProviderAfricasTalking, ""
	case twilioSender != nil:
		return twilioSender, SMSProviderTwilio, ""
	}
	return nil, "", fmt.Sprintf("%s: %s; %s: %s",
		SMSProviderAfricasTalking, missing[SMSProviderAfricasTalking],
		SMSProviderTwilio, missing[SMSProviderTwilio])
}
