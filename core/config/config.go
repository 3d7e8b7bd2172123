package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// SearchBackendHTTP queries a JSON train-data service.
	SearchBackendHTTP = "http"
	// SearchBackendPostgres queries the local timetable.
	SearchBackendPostgres = "postgres"

	// SessionBackendMemory keeps sessions in process memory.
	SessionBackendMemory = "memory"
	// SessionBackendRedis keeps sessions in redis.
	SessionBackendRedis = "redis"
)

const (
	defaultSearchTimeout = 15 * time.Second
	defaultSessionTTL    = 30 * time.Minute
)

// ErrMissingToken is returned when no bot token is configured.
var ErrMissingToken = errors.New("telegram token is required (BOT_TOKEN)")

// TelegramConfig holds Telegram bot settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample" envconfig:"LOG_DEBUG_SAMPLE"`
	Dir         string `yaml:"dir" envconfig:"LOG_DIR"`
	BotFile     string `yaml:"bot_file" envconfig:"LOG_FILE"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

// SearchConfig selects and configures the train-data collaborator.
type SearchConfig struct {
	Backend string        `yaml:"backend" envconfig:"SEARCH_BACKEND"`
	BaseURL string        `yaml:"base_url" envconfig:"SEARCH_BASE_URL"`
	Timeout time.Duration `yaml:"timeout" envconfig:"SEARCH_TIMEOUT"`
}

// AffiliateConfig holds the booking link settings.
type AffiliateConfig struct {
	BaseURL string `yaml:"base_url" envconfig:"AFFILIATE_BASE_URL"`
	ID      string `yaml:"id" envconfig:"AFFILIATE_ID"`
}

// SessionConfig selects where conversation state lives.
type SessionConfig struct {
	Backend string        `yaml:"backend" envconfig:"SESSION_BACKEND"`
	TTL     time.Duration `yaml:"ttl" envconfig:"SESSION_TTL"`
	Redis   RedisConfig   `yaml:"redis"`
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Addr      string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password  string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB        int    `yaml:"db" envconfig:"REDIS_DB"`
	KeyPrefix string `yaml:"key_prefix" envconfig:"REDIS_KEY_PREFIX"`
}

// DatabaseConfig holds postgres connection settings.
type DatabaseConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
	Migrations     string `yaml:"migrations" envconfig:"DB_MIGRATIONS"`
}

// OpsConfig configures the health/version HTTP server. Empty Listen disables it.
type OpsConfig struct {
	Listen string `yaml:"listen" envconfig:"OPS_LISTEN"`
}

// Config aggregates the bot configuration.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	Search    SearchConfig    `yaml:"search"`
	Affiliate AffiliateConfig `yaml:"affiliate"`
	Session   SessionConfig   `yaml:"session"`
	Database  DatabaseConfig  `yaml:"database"`
	Ops       OpsConfig       `yaml:"ops"`
}

// Load reads an optional YAML file, applies environment overrides and
// validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	var cfg Config

	if path = strings.TrimSpace(path); path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse YAML config: %w", err)
			}
		}
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates required fields and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	cfg.Telegram.Token = strings.TrimSpace(cfg.Telegram.Token)
	if cfg.Telegram.Token == "" {
		return ErrMissingToken
	}
	if err := normalizeRunMode(cfg); err != nil {
		return err
	}
	if err := normalizeSearch(&cfg.Search, &cfg.Database); err != nil {
		return err
	}
	return normalizeSession(&cfg.Session)
}

func normalizeRunMode(cfg *Config) error {
	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" || rm == "polling" {
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm
	return nil
}

func normalizeSearch(sc *SearchConfig, db *DatabaseConfig) error {
	sc.Backend = strings.ToLower(strings.TrimSpace(sc.Backend))
	if sc.Backend == "" {
		sc.Backend = SearchBackendHTTP
	}
	if sc.Timeout <= 0 {
		sc.Timeout = defaultSearchTimeout
	}
	switch sc.Backend {
	case SearchBackendHTTP:
		sc.BaseURL = strings.TrimSpace(sc.BaseURL)
		if sc.BaseURL == "" {
			return fmt.Errorf("search.base_url is required when search.backend is 'http'")
		}
		if u, err := url.ParseRequestURI(sc.BaseURL); err != nil || u.Host == "" {
			return fmt.Errorf("invalid search.base_url %q", sc.BaseURL)
		}
	case SearchBackendPostgres:
		if strings.TrimSpace(db.Host) == "" || strings.TrimSpace(db.Name) == "" {
			return fmt.Errorf("database.host and database.name are required when search.backend is 'postgres'")
		}
		if db.Port == "" {
			db.Port = "5432"
		}
		if db.SSLMode == "" {
			db.SSLMode = "disable"
		}
		if db.MaxConnections <= 0 {
			db.MaxConnections = 5
		}
		if db.Migrations == "" {
			db.Migrations = "migrations"
		}
	default:
		return fmt.Errorf("invalid search.backend %q; allowed: http, postgres", sc.Backend)
	}
	return nil
}

func normalizeSession(sc *SessionConfig) error {
	sc.Backend = strings.ToLower(strings.TrimSpace(sc.Backend))
	if sc.Backend == "" {
		sc.Backend = SessionBackendMemory
	}
	if sc.TTL < 0 {
		return fmt.Errorf("session.ttl must be >= 0")
	}
	if sc.TTL == 0 {
		sc.TTL = defaultSessionTTL
	}
	switch sc.Backend {
	case SessionBackendMemory:
	case SessionBackendRedis:
		if strings.TrimSpace(sc.Redis.Addr) == "" {
			return fmt.Errorf("session.redis.addr is required when session.backend is 'redis'")
		}
	default:
		return fmt.Errorf("invalid session.backend %q; allowed: memory, redis", sc.Backend)
	}
	return nil
}
