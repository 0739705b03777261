package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Withdrawal WithdrawalConfig
	Verify     VerifyConfig
	Alert      AlertConfig
	Redis      RedisConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

// WithdrawalConfig holds bootstrap defaults; the live values come from
// system settings so admins can change them without a rollout.
type WithdrawalConfig struct {
	MinAmountCents int64
	FeeBps         int64
}

// VerifyConfig selects how the secondary approval code is checked.
// Provider "vault" reads the code from a Vault KV v2 secret; "static"
// compares against StaticCode.
type VerifyConfig struct {
	Provider   string
	StaticCode string
	VaultAddr  string
	VaultToken string
	VaultMount string
	VaultPath  string
	VaultField string
}

type AlertConfig struct {
	TelegramToken  string
	TelegramChatID int64
}

// RedisConfig enables the asynq-based reconciliation schedule when Addr
// is set.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func Load() *Config {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)

	v.SetDefault("database.dsn", "coursepay:coursepay@tcp(localhost:3306)/coursepay?charset=utf8mb4&parseTime=True&loc=Local")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("jwt.access_secret", "change-me-in-production")
	v.SetDefault("jwt.refresh_secret", "change-me-refresh")
	v.SetDefault("jwt.access_expiry", 15*time.Minute)
	v.SetDefault("jwt.refresh_expiry", 168*time.Hour)
	v.SetDefault("jwt.issuer", "coursepay")

	v.SetDefault("withdrawal.min_amount_cents", 50000)
	v.SetDefault("withdrawal.fee_bps", 200)

	v.SetDefault("verify.provider", "static")
	v.SetDefault("verify.static_code", "")
	v.SetDefault("verify.vault_addr", "http://127.0.0.1:8200")
	v.SetDefault("verify.vault_token", "")
	v.SetDefault("verify.vault_mount", "secret")
	v.SetDefault("verify.vault_path", "coursepay/withdrawal-approval")
	v.SetDefault("verify.vault_field", "code")

	v.SetDefault("alert.telegram_token", "")
	v.SetDefault("alert.telegram_chat_id", 0)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	return &Config{
		Server: ServerConfig{
			Port:         v.GetString("server.port"),
			Env:          v.GetString("server.env"),
			ReadTimeout:  v.GetDuration("server.read_timeout"),
			WriteTimeout: v.GetDuration("server.write_timeout"),
		},
		Database: DatabaseConfig{
			DSN:             v.GetString("database.dsn"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
		},
		JWT: JWTConfig{
			AccessSecret:  v.GetString("jwt.access_secret"),
			RefreshSecret: v.GetString("jwt.refresh_secret"),
			AccessExpiry:  v.GetDuration("jwt.access_expiry"),
			RefreshExpiry: v.GetDuration("jwt.refresh_expiry"),
			Issuer:        v.GetString("jwt.issuer"),
		},
		Withdrawal: WithdrawalConfig{
			MinAmountCents: v.GetInt64("withdrawal.min_amount_cents"),
			FeeBps:         v.GetInt64("withdrawal.fee_bps"),
		},
		Verify: VerifyConfig{
			Provider:   v.GetString("verify.provider"),
			StaticCode: v.GetString("verify.static_code"),
			VaultAddr:  v.GetString("verify.vault_addr"),
			VaultToken: v.GetString("verify.vault_token"),
			VaultMount: v.GetString("verify.vault_mount"),
			VaultPath:  v.GetString("verify.vault_path"),
			VaultField: v.GetString("verify.vault_field"),
		},
		Alert: AlertConfig{
			TelegramToken:  v.GetString("alert.telegram_token"),
			TelegramChatID: v.GetInt64("alert.telegram_chat_id"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
	}
}
