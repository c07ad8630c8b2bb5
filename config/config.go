package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Server      ServerConfig
	Redis       RedisConfig
	Providers   ProvidersConfig
	LogLevel    string
	Environment string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// RedisConfig holds cache backend configuration. URL follows the
// redis://[user:pass@]host:port/db form.
type RedisConfig struct {
	URL string
}

// ProvidersConfig holds upstream market-data provider configurations
type ProvidersConfig struct {
	AlphaVantage ProviderConfig
	CoinGecko    ProviderConfig
	FMP          ProviderConfig
	NewsAPI      ProviderConfig
	ExchangeRate ProviderConfig
	Polygon      ProviderConfig
}

// ProviderConfig holds one upstream's connection settings. RateLimit is a
// human-readable descriptor of the provider's quota, used for logging only;
// actual limiting is done upstream.
type ProviderConfig struct {
	APIKey      string
	BaseURL     string
	Timeout     time.Duration
	MaxAttempts int
	RetryDelay  time.Duration
	RateLimit   string
}

// New creates a new Config instance by loading environment variables
func New() (*Config, error) {
	// Load .env if present; real environment variables win.
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("PORT", 5000),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Providers: ProvidersConfig{
			AlphaVantage: providerConfig("ALPHA_VANTAGE", "https://www.alphavantage.co/query", "5 calls/minute"),
			CoinGecko:    providerConfig("COINGECKO", "https://api.coingecko.com/api/v3", "50 calls/minute"),
			FMP:          providerConfig("FMP", "https://financialmodelingprep.com/api/v3", "250 calls/day"),
			NewsAPI:      providerConfig("NEWS_API", "https://newsapi.org/v2", "100 calls/day"),
			ExchangeRate: providerConfig("EXCHANGE_RATE", "https://api.exchangerate-api.com/v4", "1500 calls/month"),
			Polygon:      providerConfig("POLYGON", "https://api.polygon.io", "5 calls/minute"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// providerConfig loads one provider's settings under a shared env prefix.
func providerConfig(prefix, defaultBaseURL, rateLimit string) ProviderConfig {
	return ProviderConfig{
		APIKey:      getEnv(prefix+"_API_KEY", ""),
		BaseURL:     getEnv(prefix+"_BASE_URL", defaultBaseURL),
		Timeout:     getEnvAsDuration(prefix+"_TIMEOUT", 10*time.Second),
		MaxAttempts: getEnvAsInt(prefix+"_MAX_ATTEMPTS", 3),
		RetryDelay:  getEnvAsDuration(prefix+"_RETRY_DELAY", time.Second),
		RateLimit:   rateLimit,
	}
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Redis.URL == "" {
		return fmt.Errorf("redis URL is required")
	}
	if c.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	// Keyed providers must be configured in production; in development the
	// gateway starts anyway and keyless operations keep working.
	if c.IsProduction() {
		if c.Providers.AlphaVantage.APIKey == "" {
			return fmt.Errorf("ALPHA_VANTAGE_API_KEY is required in production")
		}
		if c.Providers.FMP.APIKey == "" {
			return fmt.Errorf("FMP_API_KEY is required in production")
		}
		if c.Providers.NewsAPI.APIKey == "" {
			return fmt.Errorf("NEWS_API_API_KEY is required in production")
		}
		if c.Providers.Polygon.APIKey == "" {
			return fmt.Errorf("POLYGON_API_KEY is required in production")
		}
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
