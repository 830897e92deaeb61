package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Storage drivers for the assessment ledger
const (
	StorageSheets   = "sheets"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
	StorageMemory   = "memory"
	StorageNone     = "none"
)

// Config holds all configuration for the assessment service
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	SMTP      SMTPConfig
	Mail      MailConfig
	Sheets    SheetsConfig
	Storage   StorageConfig
	Redis     RedisConfig
	Catalog   CatalogConfig
	Delivery  DeliveryConfig
	Report    ReportConfig
	Telemetry TelemetryConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string        `env:"SERVER_HOST"     envDefault:"0.0.0.0"`
	Port           int           `env:"SERVER_PORT"     envDefault:"8080"`
	AllowedOrigins []string      `env:"CORS_ORIGINS"    envDefault:"*" envSeparator:","`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"90s"`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `env:"LOG_LEVEL"  envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// SlogLevel maps the configured level onto slog
func (l LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// SMTPConfig holds the outgoing mail server. An empty host disables email.
type SMTPConfig struct {
	Host     string        `env:"SMTP_HOST"`
	Port     int           `env:"SMTP_PORT"    envDefault:"587"`
	Secure   bool          `env:"SMTP_SECURE"`
	User     string        `env:"SMTP_USER"`
	Password string        `env:"SMTP_PASS"`
	From     string        `env:"FROM_EMAIL"`
	Timeout  time.Duration `env:"SMTP_TIMEOUT" envDefault:"30s"`
}

// MailConfig holds recipients and reply-to addresses
type MailConfig struct {
	InternalRecipients     []string `env:"INTERNAL_RECIPIENTS"     envSeparator:","`
	ConsultationRecipients []string `env:"CONSULTATION_RECIPIENTS" envSeparator:","`
	ReplyTo                string   `env:"REPLY_TO"                envDefault:"ladhikari@rsmsaudi.com"`
	ConsultationReplyTo    string   `env:"CONSULTATION_REPLY_TO"   envDefault:"enquiry@rsmmena.nexuses.xyz"`
	TimeZone               string   `env:"MAIL_TIMEZONE"           envDefault:"Asia/Dubai"`
}

// SheetsConfig holds the spreadsheet ledger settings
type SheetsConfig struct {
	SpreadsheetID   string `env:"GOOGLE_SHEET_ID"`
	CredentialsFile string `env:"GOOGLE_APPLICATION_CREDENTIALS"`
	CredentialsJSON string `env:"GOOGLE_SERVICE_ACCOUNT_CREDENTIALS"`
}

// StorageConfig selects and configures the ledger backend
type StorageConfig struct {
	Driver       string        `env:"STORAGE_DRIVER"         envDefault:"sheets"`
	DatabaseURL  string        `env:"DATABASE_URL"`
	SQLitePath   string        `env:"SQLITE_PATH"            envDefault:"assessments.db"`
	MaxOpenConns int           `env:"DATABASE_MAX_CONNS"     envDefault:"10"`
	MaxIdleConns int           `env:"DATABASE_MIN_CONNS"     envDefault:"2"`
	MaxLifetime  time.Duration `env:"DATABASE_MAX_LIFETIME"  envDefault:"30m"`
}

// RedisConfig holds the submission dedupe store. An empty address keeps dedupe in memory.
type RedisConfig struct {
	Address      string        `env:"REDIS_ADDR"`
	Password     string        `env:"REDIS_PASSWORD"`
	DB           int           `env:"REDIS_DB"            envDefault:"0"`
	DedupeWindow time.Duration `env:"REDIS_DEDUPE_WINDOW" envDefault:"10m"`
}

// CatalogConfig points at an optional on-disk catalog overriding the built-in one
type CatalogConfig struct {
	Dir            string        `env:"CATALOG_DIR"`
	ReloadInterval time.Duration `env:"CATALOG_RELOAD_INTERVAL" envDefault:"1m"`
}

// DeliveryConfig bounds the side effects of one request
type DeliveryConfig struct {
	EffectTimeout time.Duration `env:"DELIVERY_EFFECT_TIMEOUT" envDefault:"60s"`
}

// ReportConfig overrides the font embedded in PDF reports. Empty paths keep the built-in face.
type ReportConfig struct {
	FontPath     string `env:"REPORT_FONT"`
	BoldFontPath string `env:"REPORT_FONT_BOLD"`
}

// TelemetryConfig holds tracing export settings. An empty endpoint disables export.
type TelemetryConfig struct {
	ServiceName string `env:"OTEL_SERVICE_NAME"           envDefault:"carbon-assessment"`
	Endpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom loads configuration from the given variables instead of the process environment
func LoadFrom(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	c.Mail.InternalRecipients = compact(c.Mail.InternalRecipients)
	c.Mail.ConsultationRecipients = compact(c.Mail.ConsultationRecipients)
	c.Server.AllowedOrigins = compact(c.Server.AllowedOrigins)
	if c.SMTP.From == "" {
		c.SMTP.From = c.SMTP.User
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid server port: %d", c.Server.Port))
	}
	if c.SMTP.Port < 1 || c.SMTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid smtp port: %d", c.SMTP.Port))
	}

	switch c.Storage.Driver {
	case StorageSheets, StorageSQLite, StorageMemory, StorageNone:
	case StoragePostgres:
		if c.Storage.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres storage driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver: %q", c.Storage.Driver))
	}

	if c.Redis.DedupeWindow <= 0 {
		errs = append(errs, fmt.Errorf("dedupe window must be positive: %s", c.Redis.DedupeWindow))
	}
	if c.Delivery.EffectTimeout <= 0 {
		errs = append(errs, fmt.Errorf("effect timeout must be positive: %s", c.Delivery.EffectTimeout))
	}
	if c.Report.BoldFontPath != "" && c.Report.FontPath == "" {
		errs = append(errs, errors.New("REPORT_FONT_BOLD requires REPORT_FONT"))
	}
	if c.Catalog.Dir != "" && c.Catalog.ReloadInterval < 0 {
		errs = append(errs, fmt.Errorf("invalid catalog reload interval: %s", c.Catalog.ReloadInterval))
	}

	return errors.Join(errs...)
}

func compact(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
