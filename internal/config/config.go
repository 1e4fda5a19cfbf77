package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "JEWEL"

// Config holds every runtime setting of the storefront API.
// Values are read from the environment (optionally seeded from a .env file).
type Config struct {
	App     AppConfig
	DB      DBConfig
	Redis   RedisConfig
	JWT     JWTConfig
	Storage StorageConfig
	Twilio  TwilioConfig
	Notify  NotifyConfig
	Receipt ReceiptConfig
	Auth    AuthConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if _, err := time.LoadLocation(cfg.Notify.TimeZone); err != nil {
		return nil, fmt.Errorf("invalid notify timezone %q: %w", cfg.Notify.TimeZone, err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"JEWEL_APP_ENV" default:"dev"`
	Port         string   `envconfig:"JEWEL_APP_PORT" default:"8080"`
	LogLevel     string   `envconfig:"JEWEL_LOG_LEVEL" default:"info"`
	LogFormat    string   `envconfig:"JEWEL_LOG_FORMAT" default:"json"`
	LogWarnStack bool     `envconfig:"JEWEL_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"JEWEL_CORS_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, "dev")
}

type DBConfig struct {
	DSN             string        `envconfig:"JEWEL_DB_DSN" required:"true"`
	AutoMigrate     bool          `envconfig:"JEWEL_DB_AUTO_MIGRATE" default:"false"`
	MaxOpenConns    int           `envconfig:"JEWEL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"JEWEL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"JEWEL_DB_CONN_MAX_LIFETIME" default:"1h"`
}

// RedisConfig is optional; an empty URL keeps locks, confirmation tokens and
// notification status in process memory.
type RedisConfig struct {
	URL         string        `envconfig:"JEWEL_REDIS_URL"`
	DialTimeout time.Duration `envconfig:"JEWEL_REDIS_DIAL_TIMEOUT" default:"5s"`
	LockTTL     time.Duration `envconfig:"JEWEL_REDIS_LOCK_TTL" default:"10s"`
}

func (r RedisConfig) Enabled() bool {
	return r.URL != ""
}

type JWTConfig struct {
	Secret string        `envconfig:"JEWEL_JWT_SECRET" required:"true"`
	TTL    time.Duration `envconfig:"JEWEL_JWT_TTL" default:"72h"`
}

type StorageConfig struct {
	Root          string `envconfig:"JEWEL_STORAGE_ROOT" default:"./uploads"`
	PublicPrefix  string `envconfig:"JEWEL_STORAGE_PUBLIC_PREFIX" default:"/uploads"`
	PublicBaseURL string `envconfig:"JEWEL_STORAGE_PUBLIC_BASE_URL"`
	MaxUploadMB   int    `envconfig:"JEWEL_STORAGE_MAX_UPLOAD_MB" default:"10"`
}

type TwilioConfig struct {
	AccountSID string        `envconfig:"JEWEL_TWILIO_SID"`
	AuthToken  string        `envconfig:"JEWEL_TWILIO_AUTH_TOKEN"`
	From       string        `envconfig:"JEWEL_TWILIO_FROM"`
	BaseURL    string        `envconfig:"JEWEL_TWILIO_BASE_URL" default:"https://api.twilio.com/2010-04-01"`
	Timeout    time.Duration `envconfig:"JEWEL_TWILIO_TIMEOUT" default:"10s"`
}

func (t TwilioConfig) Configured() bool {
	return t.AccountSID != "" && t.AuthToken != "" && t.From != ""
}

type NotifyConfig struct {
	Recipients []string      `envconfig:"JEWEL_NOTIFY_RECIPIENTS"`
	TimeZone   string        `envconfig:"JEWEL_NOTIFY_TIMEZONE" default:"Asia/Kolkata"`
	QueueSize  int           `envconfig:"JEWEL_NOTIFY_QUEUE_SIZE" default:"64"`
	StatusTTL  time.Duration `envconfig:"JEWEL_NOTIFY_STATUS_TTL" default:"24h"`
	Channel    string        `envconfig:"JEWEL_NOTIFY_CHANNEL" default:"orders:notifications"`
}

type ReceiptConfig struct {
	ImageTimeout time.Duration `envconfig:"JEWEL_RECEIPT_IMAGE_TIMEOUT" default:"8s"`
	ShopName     string        `envconfig:"JEWEL_RECEIPT_SHOP_NAME" default:"Jewellery Store"`
}

type AuthConfig struct {
	// LegacyPhoneLogin accepts the phone number itself as the password.
	LegacyPhoneLogin bool          `envconfig:"JEWEL_AUTH_LEGACY_PHONE_LOGIN" default:"false"`
	ConfirmTTL       time.Duration `envconfig:"JEWEL_AUTH_CONFIRM_TTL" default:"5m"`
}
