package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingConfig is returned when a required setting has no value.
var ErrMissingConfig = errors.New("missing required configuration")

type Config struct {
	Port        int    `mapstructure:"PORT"`
	MetricsPort string `mapstructure:"METRICS_PORT"`

	MongoURI      string `mapstructure:"MONGO_URI"`
	MongoDatabase string `mapstructure:"MONGO_DATABASE"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	NATSURL      string `mapstructure:"NATS_URL"`
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	EmailAddress     string `mapstructure:"EMAIL_ADDRESS"`
	EmailPassword    string `mapstructure:"EMAIL_PASSWORD"`
	EmailSenderName  string `mapstructure:"EMAIL_SENDER_NAME"`
	SMTPHost         string `mapstructure:"SMTP_HOST"`
	SMTPSSLPort      int    `mapstructure:"SMTP_SSL_PORT"`
	SMTPStartTLSPort int    `mapstructure:"SMTP_STARTTLS_PORT"`
	MailProvider     string `mapstructure:"MAIL_PROVIDER"`
	MailerSendAPIKey string `mapstructure:"MAILERSEND_API_KEY"`

	SessionSecret      string        `mapstructure:"SESSION_SECRET"`
	SessionIdleTimeout time.Duration `mapstructure:"SESSION_IDLE_TIMEOUT"`
	SessionTTL         time.Duration `mapstructure:"SESSION_TTL"`
	SecureCookies      bool          `mapstructure:"SECURE_COOKIES"`

	SignupCodeTTL   time.Duration `mapstructure:"SIGNUP_CODE_TTL"`
	ResetTokenTTL   time.Duration `mapstructure:"RESET_TOKEN_TTL"`
	MaxCodeAttempts int           `mapstructure:"MAX_CODE_ATTEMPTS"`

	DisplayTimezone string `mapstructure:"DISPLAY_TIMEZONE"`
	AuthRateLimit   int    `mapstructure:"AUTH_RATE_LIMIT"`

	LogLevel      string `mapstructure:"LOG_LEVEL"`
	LogEncoding   string `mapstructure:"LOG_ENCODING"`
	LogTimeFormat string `mapstructure:"LOG_TIME_FORMAT"`
}

var defaults = map[string]interface{}{
	"PORT":                        8080,
	"METRICS_PORT":                "9093",
	"MONGO_DATABASE":              "disaster_relief_db",
	"REDIS_ADDR":                  "localhost:6379",
	"REDIS_PASSWORD":              "",
	"REDIS_DB":                    0,
	"NATS_URL":                    "",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "",
	"EMAIL_SENDER_NAME":           "Disaster Relief Dashboard",
	"SMTP_HOST":                   "smtp.gmail.com",
	"SMTP_SSL_PORT":               465,
	"SMTP_STARTTLS_PORT":          587,
	"MAIL_PROVIDER":               "smtp",
	"MAILERSEND_API_KEY":          "",
	"SESSION_SECRET":              "change-me-session-secret",
	"SESSION_IDLE_TIMEOUT":        "300s",
	"SESSION_TTL":                 "24h",
	"SECURE_COOKIES":              false,
	"SIGNUP_CODE_TTL":             "30m",
	"RESET_TOKEN_TTL":             "1h",
	"MAX_CODE_ATTEMPTS":           5,
	"DISPLAY_TIMEZONE":            "Asia/Kolkata",
	"AUTH_RATE_LIMIT":             30,
	"LOG_LEVEL":                   "info",
	"LOG_ENCODING":                "json",
	"LOG_TIME_FORMAT":             "",
}

// Required settings have no defaults and must come from the environment or config file.
var required = []string{"EMAIL_ADDRESS", "EMAIL_PASSWORD", "MONGO_URI"}

// LoadConfig reads .env, config.env and the process environment, in increasing priority.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on config.env and environment variables")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	// Keys without defaults are invisible to Unmarshal unless bound explicitly.
	for _, key := range required {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every missing required setting at once.
func (c *Config) Validate() error {
	values := map[string]string{
		"EMAIL_ADDRESS":  c.EmailAddress,
		"EMAIL_PASSWORD": c.EmailPassword,
		"MONGO_URI":      c.MongoURI,
	}
	var missing []string
	for _, key := range required {
		if strings.TrimSpace(values[key]) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(missing, ", "))
	}

	if c.SessionIdleTimeout <= 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT must be positive, got %s", c.SessionIdleTimeout)
	}
	if c.MaxCodeAttempts <= 0 {
		return fmt.Errorf("MAX_CODE_ATTEMPTS must be positive, got %d", c.MaxCodeAttempts)
	}
	switch c.MailProvider {
	case "smtp":
	case "mailersend":
		if c.MailerSendAPIKey == "" {
			return fmt.Errorf("%w: MAILERSEND_API_KEY", ErrMissingConfig)
		}
	default:
		return fmt.Errorf("unknown MAIL_PROVIDER %q", c.MailProvider)
	}
	if c.SessionSecret == defaults["SESSION_SECRET"] {
		log.Println("Warning: SESSION_SECRET is set to its default insecure value")
	}
	return nil
}
