package cmd

type Config struct {
	HTTPPort      string
	WebhookSecret string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	CommerceBaseURL      string
	CommerceTokenURL     string
	CommerceClientID     string
	CommerceClientSecret string

	GeocoderBaseURL string
	GeocoderAPIKey  string

	ChatAPIBaseURL       string
	BotToken             string
	PaymentProviderToken string
	PaymentCurrency      string

	FeedbackDelay string
}
