package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Registry backend selectors.
const (
	RegistryBackendRedis  = "redis"
	RegistryBackendMemory = "memory"
)

type Config struct {
	Server struct {
		Address         string        `yaml:"address"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Internal struct {
		Address string `yaml:"address"`
	} `yaml:"internal"`

	Gateway struct {
		PingInterval time.Duration `yaml:"ping_interval"`
		PongTimeout  time.Duration `yaml:"pong_timeout"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"gateway"`

	Registry struct {
		Backend string `yaml:"backend"` // "redis" or "memory"
	} `yaml:"registry"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size"`
	} `yaml:"redis"`

	Postgres struct {
		Enabled bool   `yaml:"enabled"`
		DSN     string `yaml:"dsn"`
	} `yaml:"postgres"`

	Twitch struct {
		ClientID    string `yaml:"client_id"`
		Channel     string `yaml:"channel"`
		BotUsername string `yaml:"bot_username"`
		OAuthToken  string `yaml:"oauth_token"`
	} `yaml:"twitch"`

	IdentityToken struct {
		JWKSURL string `yaml:"jwks_url"`
		Issuer  string `yaml:"issuer"`
	} `yaml:"identity_token"`

	Analyzer struct {
		CredentialsFile string        `yaml:"credentials_file"`
		GatewayURL      string        `yaml:"gateway_url"`
		BatchSize       int           `yaml:"batch_size"`
		FlushInterval   time.Duration `yaml:"flush_interval"`
	} `yaml:"analyzer"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	RateLimiting struct {
		Enabled bool `yaml:"enabled"`

		HTTP struct {
			RequestsPerSecond float64 `yaml:"requests_per_second"`
			Burst             int     `yaml:"burst"`
			MaxConcurrent     int     `yaml:"max_concurrent"` // global concurrent HTTP requests
		} `yaml:"http"`
	} `yaml:"rate_limiting"`
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	// Server
	if c.Server.Address == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be > 0")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be > 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be > 0")
	}

	// Internal
	if c.Internal.Address == "" {
		return fmt.Errorf("internal.address must not be empty")
	}

	// Gateway
	if c.Gateway.PingInterval <= 0 {
		return fmt.Errorf("gateway.ping_interval must be > 0")
	}
	if c.Gateway.PongTimeout <= 0 {
		return fmt.Errorf("gateway.pong_timeout must be > 0")
	}
	if c.Gateway.ReadTimeout <= 0 {
		return fmt.Errorf("gateway.read_timeout must be > 0")
	}
	if c.Gateway.WriteTimeout <= 0 {
		return fmt.Errorf("gateway.write_timeout must be > 0")
	}

	// Registry
	if c.Registry.Backend != RegistryBackendRedis && c.Registry.Backend != RegistryBackendMemory {
		return fmt.Errorf("registry.backend must be \"redis\" or \"memory\"")
	}
	if c.Registry.Backend == RegistryBackendRedis {
		if c.Redis.Address == "" {
			return fmt.Errorf("redis.address must not be empty when registry.backend=redis")
		}
		if c.Redis.PoolSize <= 0 {
			return fmt.Errorf("redis.pool_size must be > 0 when registry.backend=redis")
		}
	}

	// Postgres
	if c.Postgres.Enabled && c.Postgres.DSN == "" {
		return fmt.Errorf("postgres.dsn must not be empty when postgres.enabled=true")
	}

	// Monitoring
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort <= 0 {
		return fmt.Errorf("monitoring.prometheus_port must be > 0 when prometheus_enabled=true")
	}

	// Logging
	if c.Logging.Level == "" {
		return fmt.Errorf("logging.level must not be empty")
	}

	// Analyzer
	if c.Analyzer.BatchSize <= 0 {
		return fmt.Errorf("analyzer.batch_size must be > 0")
	}
	if c.Analyzer.FlushInterval <= 0 {
		return fmt.Errorf("analyzer.flush_interval must be > 0")
	}

	// Rate limiting
	if c.RateLimiting.Enabled {
		if c.RateLimiting.HTTP.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate_limiting.http.requests_per_second must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.HTTP.Burst <= 0 {
			return fmt.Errorf("rate_limiting.http.burst must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.HTTP.MaxConcurrent < 0 {
			return fmt.Errorf("rate_limiting.http.max_concurrent must be >= 0 when rate limiting is enabled")
		}
	}

	return nil
}

// Load reads configuration from YAML file, applies defaults and env overrides.
func Load(configPath string) (*Config, error) {
	// If file does not exist, fall back to defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns configuration with sane defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Server.Address = ":8080"
	cfg.Server.ReadTimeout = 30 * time.Second
	cfg.Server.WriteTimeout = 30 * time.Second
	cfg.Server.ShutdownTimeout = 30 * time.Second

	cfg.Internal.Address = ":8082"

	cfg.Gateway.PingInterval = 30 * time.Second
	cfg.Gateway.PongTimeout = 60 * time.Second
	cfg.Gateway.ReadTimeout = 60 * time.Second
	cfg.Gateway.WriteTimeout = 10 * time.Second

	cfg.Registry.Backend = RegistryBackendMemory

	cfg.Redis.Address = "localhost:6379"
	cfg.Redis.DB = 0
	cfg.Redis.PoolSize = 10

	cfg.Postgres.Enabled = false
	cfg.Postgres.DSN = ""

	cfg.IdentityToken.JWKSURL = ""
	cfg.IdentityToken.Issuer = ""

	cfg.Analyzer.GatewayURL = "http://localhost:8082"
	cfg.Analyzer.BatchSize = 10
	cfg.Analyzer.FlushInterval = 2 * time.Second

	cfg.Monitoring.PrometheusEnabled = true
	cfg.Monitoring.PrometheusPort = 9090

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	cfg.RateLimiting.Enabled = false
	cfg.RateLimiting.HTTP.RequestsPerSecond = 50
	cfg.RateLimiting.HTTP.Burst = 100
	cfg.RateLimiting.HTTP.MaxConcurrent = 0

	return cfg
}

func (c *Config) applyEnvOverrides() {
	// Apply environment variable overrides
	if addr := os.Getenv("CHATPULSE_SERVER_ADDRESS"); addr != "" {
		c.Server.Address = addr
	}
	if addr := os.Getenv("CHATPULSE_INTERNAL_ADDRESS"); addr != "" {
		c.Internal.Address = addr
	}
	if level := os.Getenv("CHATPULSE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if addr := os.Getenv("CHATPULSE_REDIS_ADDRESS"); addr != "" {
		c.Redis.Address = addr
	}
	if dsn := os.Getenv("CHATPULSE_POSTGRES_DSN"); dsn != "" {
		c.Postgres.DSN = dsn
		c.Postgres.Enabled = true
	}
	if id := os.Getenv("CHATPULSE_TWITCH_CLIENT_ID"); id != "" {
		c.Twitch.ClientID = id
	}
	if ch := os.Getenv("CHATPULSE_TWITCH_CHANNEL"); ch != "" {
		c.Twitch.Channel = ch
	}
	if user := os.Getenv("CHATPULSE_TWITCH_BOT_USERNAME"); user != "" {
		c.Twitch.BotUsername = user
	}
	if tok := os.Getenv("CHATPULSE_TWITCH_OAUTH_TOKEN"); tok != "" {
		c.Twitch.OAuthToken = tok
	}
	if url := os.Getenv("CHATPULSE_JWKS_URL"); url != "" {
		c.IdentityToken.JWKSURL = url
	}
	if iss := os.Getenv("CHATPULSE_TOKEN_ISSUER"); iss != "" {
		c.IdentityToken.Issuer = iss
	}
}
