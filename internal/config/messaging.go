package config

// MessagingConfig drives WhatsApp delivery. Provider is twilio, sns or none.
type MessagingConfig struct {
	Provider  string                     `yaml:"provider"`
	Twilio    *TwilioConfig              `yaml:"twilio"`
	AWS       *AWSSNSConfig              `yaml:"aws"`
	Templates map[string]MessageTemplate `yaml:"templates"`
}

type TwilioConfig struct {
	AccountSID   string `yaml:"account_sid"`
	AuthToken    string `yaml:"auth_token"`
	WhatsAppFrom string `yaml:"whatsapp_from"`
}

type AWSSNSConfig struct {
	Region string `yaml:"region"`
}

// MessageTemplate pairs a Twilio content SID with the text rendered for
// SMS. Text uses {{1}}, {{2}} placeholders in parameter order.
type MessageTemplate struct {
	ContentSID string `yaml:"content_sid"`
	Text       string `yaml:"text"`
}

func loadMessagingConfig() *MessagingConfig {
	return &MessagingConfig{
		Provider: getEnv("MESSAGING_PROVIDER", "none"),
		Twilio: &TwilioConfig{
			AccountSID:   getEnv("TWILIO_ACCOUNT_SID", ""),
			AuthToken:    getEnv("TWILIO_AUTH_TOKEN", ""),
			WhatsAppFrom: getEnv("TWILIO_WHATSAPP_FROM", ""),
		},
		AWS: &AWSSNSConfig{
			Region: getEnv("AWS_REGION", "us-east-1"),
		},
		Templates: map[string]MessageTemplate{
			"route_assigned": {
				ContentSID: getEnv("WHATSAPP_TEMPLATE_ROUTE_ASSIGNED", ""),
				Text:       getEnv("WHATSAPP_TEXT_ROUTE_ASSIGNED", "Hi {{1}}, you have been assigned route {{2}} with vehicle {{3}}."),
			},
			"driver_onboarded": {
				ContentSID: getEnv("WHATSAPP_TEMPLATE_DRIVER_ONBOARDED", ""),
				Text:       getEnv("WHATSAPP_TEXT_DRIVER_ONBOARDED", "Welcome to the fleet, {{1}}!"),
			},
		},
	}
}
