package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Encryption EncryptionConfig
	Provider   ProviderConfig
	Engine     EngineConfig
	Exchange   ExchangeConfig
	TLS        TLSConfig
	Firebase   FirebaseConfig
	Telemetry  TelemetryConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	AllowedHosts []string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type JWTConfig struct {
	Secret string
}

// EncryptionConfig carries the deployment-wide field-encryption secret.
// Either Key (exactly 32 bytes, used as-is for AES-256) or Passphrase
// (arbitrary length, run through PBKDF2) must be set.
type EncryptionConfig struct {
	Key        string
	Passphrase string
}

type ProviderConfig struct {
	BaseURL       string
	ClientID      string
	ClientSecret  string
	WebhookSecret string
	Timeout       time.Duration
}

type EngineConfig struct {
	Enabled           bool
	RecurringInterval time.Duration
	ScheduledInterval time.Duration
	PollTimeout       time.Duration
}

type ExchangeConfig struct {
	BaseURL string
}

type TLSConfig struct {
	Enabled      bool
	CertPath     string
	KeyPath      string
	RedirectHTTP bool
}

type FirebaseConfig struct {
	CredentialsFile string
}

type TelemetryConfig struct {
	Enabled      bool
	ServiceName  string
	Environment  string
	OTLPEndpoint string
	MetricsPort  string
}

func Load() (*Config, error) {
	// Optional .env for local development; absence is not an error.
	_ = godotenv.Load()

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	providerTimeout, err := time.ParseDuration(getEnv("PROVIDER_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid PROVIDER_TIMEOUT: %w", err)
	}

	recurringInterval, err := time.ParseDuration(getEnv("ENGINE_RECURRING_INTERVAL", "60s"))
	if err != nil {
		return nil, fmt.Errorf("invalid ENGINE_RECURRING_INTERVAL: %w", err)
	}
	scheduledInterval, err := time.ParseDuration(getEnv("ENGINE_SCHEDULED_INTERVAL", "60s"))
	if err != nil {
		return nil, fmt.Errorf("invalid ENGINE_SCHEDULED_INTERVAL: %w", err)
	}
	pollTimeout, err := time.ParseDuration(getEnv("ENGINE_POLL_TIMEOUT", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid ENGINE_POLL_TIMEOUT: %w", err)
	}

	// Parse TLS configuration
	tlsEnabled := getBoolEnv("TLS_ENABLED", false)
	tlsCertPath := getEnv("TLS_CERT_PATH", "")
	tlsKeyPath := getEnv("TLS_KEY_PATH", "")
	tlsRedirectHTTP := getBoolEnv("TLS_REDIRECT_HTTP", false)

	// Parse allowed hosts (comma-separated list)
	allowedHostsStr := getEnv("ALLOWED_HOSTS", "")
	var allowedHosts []string
	if allowedHostsStr != "" {
		for _, host := range strings.Split(allowedHostsStr, ",") {
			host = strings.TrimSpace(host)
			if host != "" {
				allowedHosts = append(allowedHosts, host)
			}
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			Host:         getEnv("HOST", "0.0.0.0"),
			AllowedHosts: allowedHosts,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "finai"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
		},
		Encryption: EncryptionConfig{
			Key:        getEnv("ENCRYPTION_KEY", ""),
			Passphrase: getEnv("ENCRYPTION_PASSPHRASE", ""),
		},
		Provider: ProviderConfig{
			BaseURL:       getEnv("PROVIDER_BASE_URL", "https://api.pluggy.ai"),
			ClientID:      getEnv("PROVIDER_CLIENT_ID", ""),
			ClientSecret:  getEnv("PROVIDER_CLIENT_SECRET", ""),
			WebhookSecret: getEnv("PROVIDER_WEBHOOK_SECRET", ""),
			Timeout:       providerTimeout,
		},
		Engine: EngineConfig{
			Enabled:           getBoolEnv("ENGINE_ENABLED", true),
			RecurringInterval: recurringInterval,
			ScheduledInterval: scheduledInterval,
			PollTimeout:       pollTimeout,
		},
		Exchange: ExchangeConfig{
			BaseURL: getEnv("EXCHANGE_BASE_URL", "https://api.exchangerate.host"),
		},
		TLS: TLSConfig{
			Enabled:      tlsEnabled,
			CertPath:     tlsCertPath,
			KeyPath:      tlsKeyPath,
			RedirectHTTP: tlsRedirectHTTP,
		},
		Firebase: FirebaseConfig{
			CredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
		},
		Telemetry: TelemetryConfig{
			Enabled:      getBoolEnv("OTEL_ENABLED", false),
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "finai-api"),
			Environment:  getEnv("OTEL_ENVIRONMENT", "development"),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_ENDPOINT", "localhost:4318"),
			MetricsPort:  getEnv("OTEL_METRICS_PORT", "9090"),
		},
	}

	// Validate required fields
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Encryption.Key == "" && cfg.Encryption.Passphrase == "" {
		return nil, fmt.Errorf("ENCRYPTION_KEY or ENCRYPTION_PASSPHRASE is required")
	}
	if cfg.Encryption.Key != "" && len(cfg.Encryption.Key) != 32 {
		return nil, fmt.Errorf("ENCRYPTION_KEY must be exactly 32 bytes for AES-256")
	}
	if cfg.Provider.WebhookSecret == "" {
		return nil, fmt.Errorf("PROVIDER_WEBHOOK_SECRET is required")
	}

	// Validate TLS configuration
	if cfg.TLS.Enabled {
		if cfg.TLS.CertPath == "" {
			return nil, fmt.Errorf("TLS_CERT_PATH is required when TLS_ENABLED=true")
		}
		if cfg.TLS.KeyPath == "" {
			return nil, fmt.Errorf("TLS_KEY_PATH is required when TLS_ENABLED=true")
		}
	}

	return cfg, nil
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	// Accept: true, false, 1, 0, yes, no (case-insensitive)
	switch strings.ToLower(value) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return defaultValue
	}
}
