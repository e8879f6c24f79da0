package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the service settings read from the environment.
type Config struct {
	Port           string `envconfig:"PORT" default:"8083"`
	GRPCHealthPort string `envconfig:"GRPC_HEALTH_PORT" default:"9083"`
	DatabaseDSN    string `envconfig:"DB_DSN" required:"true"`

	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"stream_chat.events"`

	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"stream-chat-service"`
	Environment  string `envconfig:"ENVIRONMENT" default:"development"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	MaxMessageLength   int     `envconfig:"MAX_MESSAGE_LENGTH" default:"300"`
	MessageRate        float64 `envconfig:"MESSAGE_RATE" default:"5"`
	MessageBurst       int     `envconfig:"MESSAGE_BURST" default:"10"`
	SendBufferSize     int     `envconfig:"SEND_BUFFER_SIZE" default:"256"`
	RejectUnauthorized bool    `envconfig:"REJECT_UNAUTHORIZED" default:"false"`
	JWTSecret          string  `envconfig:"JWT_SECRET"`

	// ModerationTerms is "flag:term|term;flag:term", e.g. "spam:buy now|free coins;toxic:idiot".
	ModerationTerms string `envconfig:"MODERATION_TERMS"`
	DebugRoutes     bool   `envconfig:"DEBUG_ROUTES" default:"false"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges envconfig cannot express.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseDSN) == "" {
		return errors.New("DB_DSN is required")
	}
	if c.MaxMessageLength <= 0 {
		return fmt.Errorf("MAX_MESSAGE_LENGTH must be positive, got %d", c.MaxMessageLength)
	}
	if c.MessageRate < 0 {
		return fmt.Errorf("MESSAGE_RATE must not be negative, got %v", c.MessageRate)
	}
	if c.SendBufferSize <= 0 {
		return fmt.Errorf("SEND_BUFFER_SIZE must be positive, got %d", c.SendBufferSize)
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}
	_, err := c.ModerationTermMap()
	return err
}

// ModerationTermMap parses ModerationTerms into flag -> terms.
func (c Config) ModerationTermMap() (map[string][]string, error) {
	terms := map[string][]string{}
	for _, group := range strings.Split(c.ModerationTerms, ";") {
		group = strings.TrimSpace(group)
		if group == "" {
			continue
		}
		flag, list, ok := strings.Cut(group, ":")
		if !ok {
			return nil, fmt.Errorf("MODERATION_TERMS: group %q has no flag", group)
		}
		flag = strings.ToLower(strings.TrimSpace(flag))
		for _, term := range strings.Split(list, "|") {
			if term = strings.TrimSpace(term); term != "" {
				terms[flag] = append(terms[flag], term)
			}
		}
	}
	return terms, nil
}
