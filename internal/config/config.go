package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DraftStoreDatabase = "database"
	DraftStoreRedis    = "redis"

	BalancePostDeduction = "post_deduction"
	BalancePreDeduction  = "pre_deduction"

	TransportLog      = "log"
	TransportSMTP     = "smtp"
	TransportComposio = "composio"
)

type Config struct {
	AppEnv       string
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Kafka        KafkaConfig
	Leave        LeaveConfig
	Notification NotificationConfig
}

type ServerConfig struct {
	Port           string
	RateLimitRPS   float64
	RateLimitBurst int
}

type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	Path       string
	MaxRetries int
}

type RedisConfig struct {
	Addr string
}

type KafkaConfig struct {
	Broker        string
	OutboxEnabled bool
}

type LeaveConfig struct {
	DraftStore       string
	DraftTTL         time.Duration
	DefaultLeaveDays int
	BalanceReporting string
}

type NotificationConfig struct {
	Transport string
	Timeout   time.Duration
	HREmail   string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	ComposioBaseURL            string
	ComposioAPIKey             string
	ComposioConnectedAccountID string
}

var defaults = map[string]any{
	"app_env":          "development",
	"port":             "3000",
	"rate_limit_rps":   5.0,
	"rate_limit_burst": 10,

	"db_driver":      "postgres",
	"db_host":        "localhost",
	"db_port":        "5432",
	"db_user":        "postgres",
	"db_password":    "",
	"db_name":        "leave",
	"db_sslmode":     "disable",
	"db_path":        "leave.db",
	"db_max_retries": 5,

	"redis_addr": "",

	"kafka_broker":   "",
	"outbox_enabled": false,

	"draft_store":        DraftStoreDatabase,
	"draft_ttl":          time.Duration(0),
	"default_leave_days": 22,
	"balance_reporting":  BalancePostDeduction,

	"notify_transport": TransportLog,
	"notify_timeout":   30 * time.Second,
	"hr_email":         "",

	"smtp_host":     "",
	"smtp_port":     587,
	"smtp_username": "",
	"smtp_password": "",
	"smtp_from":     "",

	"composio_base_url":             "https://backend.composio.dev/api/v3",
	"composio_api_key":              "",
	"composio_connected_account_id": "",
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromViper(viper.New())
}

// FromViper binds every known key to its upper-case environment variable
// (DB_HOST, HR_EMAIL, ...) and builds the Config.
func FromViper(v *viper.Viper) (*Config, error) {
	for key, val := range defaults {
		v.SetDefault(key, val)
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return nil, err
		}
	}

	cfg := Config{
		AppEnv: v.GetString("app_env"),
		Server: ServerConfig{
			Port:           v.GetString("port"),
			RateLimitRPS:   v.GetFloat64("rate_limit_rps"),
			RateLimitBurst: v.GetInt("rate_limit_burst"),
		},
		Database: DatabaseConfig{
			Driver:     v.GetString("db_driver"),
			Host:       v.GetString("db_host"),
			Port:       v.GetString("db_port"),
			User:       v.GetString("db_user"),
			Password:   v.GetString("db_password"),
			Name:       v.GetString("db_name"),
			SSLMode:    v.GetString("db_sslmode"),
			Path:       v.GetString("db_path"),
			MaxRetries: v.GetInt("db_max_retries"),
		},
		Redis: RedisConfig{Addr: v.GetString("redis_addr")},
		Kafka: KafkaConfig{
			Broker:        v.GetString("kafka_broker"),
			OutboxEnabled: v.GetBool("outbox_enabled"),
		},
		Leave: LeaveConfig{
			DraftStore:       v.GetString("draft_store"),
			DraftTTL:         v.GetDuration("draft_ttl"),
			DefaultLeaveDays: v.GetInt("default_leave_days"),
			BalanceReporting: v.GetString("balance_reporting"),
		},
		Notification: NotificationConfig{
			Transport:                  v.GetString("notify_transport"),
			Timeout:                    v.GetDuration("notify_timeout"),
			HREmail:                    v.GetString("hr_email"),
			SMTPHost:                   v.GetString("smtp_host"),
			SMTPPort:                   v.GetInt("smtp_port"),
			SMTPUsername:               v.GetString("smtp_username"),
			SMTPPassword:               v.GetString("smtp_password"),
			SMTPFrom:                   v.GetString("smtp_from"),
			ComposioBaseURL:            v.GetString("composio_base_url"),
			ComposioAPIKey:             v.GetString("composio_api_key"),
			ComposioConnectedAccountID: v.GetString("composio_connected_account_id"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.Database.Driver))
	}

	switch c.Leave.DraftStore {
	case DraftStoreDatabase:
	case DraftStoreRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("DRAFT_STORE=redis requires REDIS_ADDR"))
		}
	default:
		errs = append(errs, fmt.Errorf("DRAFT_STORE must be database or redis, got %q", c.Leave.DraftStore))
	}

	switch c.Leave.BalanceReporting {
	case BalancePostDeduction, BalancePreDeduction:
	default:
		errs = append(errs, fmt.Errorf("BALANCE_REPORTING must be post_deduction or pre_deduction, got %q", c.Leave.BalanceReporting))
	}

	if c.Leave.DefaultLeaveDays < 0 {
		errs = append(errs, errors.New("DEFAULT_LEAVE_DAYS must not be negative"))
	}

	switch c.Notification.Transport {
	case TransportLog:
	case TransportSMTP:
		if c.Notification.SMTPHost == "" || c.Notification.SMTPFrom == "" {
			errs = append(errs, errors.New("NOTIFY_TRANSPORT=smtp requires SMTP_HOST and SMTP_FROM"))
		}
	case TransportComposio:
		if c.Notification.ComposioAPIKey == "" || c.Notification.ComposioConnectedAccountID == "" {
			errs = append(errs, errors.New("NOTIFY_TRANSPORT=composio requires COMPOSIO_API_KEY and COMPOSIO_CONNECTED_ACCOUNT_ID"))
		}
	default:
		errs = append(errs, fmt.Errorf("NOTIFY_TRANSPORT must be log, smtp or composio, got %q", c.Notification.Transport))
	}

	if c.Notification.Transport != TransportLog && c.Notification.HREmail == "" {
		errs = append(errs, errors.New("HR_EMAIL is required when a mail transport is configured"))
	}

	if c.Kafka.OutboxEnabled && c.Database.Driver != "postgres" {
		errs = append(errs, errors.New("OUTBOX_ENABLED requires DB_DRIVER=postgres"))
	}

	return errors.Join(errs...)
}
