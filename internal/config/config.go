// Package config defines the top-level configuration for the storefront
// settlement service and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by STOREFRONT_* environment
// variables.
type Config struct {
	Oracle   OracleConfig   `toml:"oracle"`
	Treasury TreasuryConfig `toml:"treasury"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Archive  ArchiveConfig  `toml:"archive"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	LogLevel string         `toml:"log_level"`
}

// OracleConfig holds the price-feed endpoint and validation parameters.
type OracleConfig struct {
	// RPCURL is the Ethereum JSON-RPC endpoint the aggregator is read from.
	RPCURL string `toml:"rpc_url"`
	// FeedAddress is the Chainlink AggregatorV3 contract address.
	FeedAddress string `toml:"feed_address"`
	// Heartbeat is the maximum age a feed observation may have.
	Heartbeat duration `toml:"heartbeat"`
}

// TreasuryConfig holds the payout wallet and chain parameters.
type TreasuryConfig struct {
	// OwnerAddress receives privileged withdrawals.
	OwnerAddress string `toml:"owner_address"`
	// PrivateKey is the hex-encoded payout key. Prefer EncryptedKeyPath.
	PrivateKey       string `toml:"private_key"`
	EncryptedKeyPath string `toml:"encrypted_key_path"`
	KeyPassword      string `toml:"key_password"`
	ChainID          int64  `toml:"chain_id"`
	// ConfirmTimeout bounds how long a payout waits to be mined before it is
	// reported as failed.
	ConfirmTimeout duration `toml:"confirm_timeout"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for history
// archival.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ArchiveConfig controls periodic archival of aged ledger history to object
// storage.
type ArchiveConfig struct {
	Enabled       bool     `toml:"enabled"`
	Interval      duration `toml:"interval"`
	RetentionDays int      `toml:"retention_days"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	// APIKey guards the whole API when set.
	APIKey string `toml:"api_key"`
	// AdminAPIKey guards privileged catalog and treasury operations. It must
	// be set; the settlement core itself carries no role machinery.
	AdminAPIKey string `toml:"admin_api_key"`
	// RateLimitPerMinute is the per-client request budget. Zero disables
	// rate limiting.
	RateLimitPerMinute int `toml:"rate_limit_per_minute"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "1h", "90s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings.
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Oracle: OracleConfig{
			RPCURL: "http://localhost:8545",
			// Chainlink ETH/USD on mainnet.
			FeedAddress: "0x5f4eC3Df9cbd43714FE2740f5E3616155c5b8419",
			Heartbeat:   duration{time.Hour},
		},
		Treasury: TreasuryConfig{
			ChainID:        1,
			ConfirmTimeout: duration{90 * time.Second},
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "storefront",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "storefront-history",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Archive: ArchiveConfig{
			Enabled:       false,
			Interval:      duration{24 * time.Hour},
			RetentionDays: 90,
		},
		Server: ServerConfig{
			Port:               8000,
			CORSOrigins:        []string{"http://localhost:3000"},
			RateLimitPerMinute: 120,
		},
		Notify: NotifyConfig{
			Events: []string{"purchase_made", "balance_withdrawn", "balance_transferred"},
		},
		LogLevel: "info",
	}
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Oracle
	if c.Oracle.RPCURL == "" {
		errs = append(errs, "oracle: rpc_url must not be empty")
	}
	if !common.IsHexAddress(c.Oracle.FeedAddress) {
		errs = append(errs, fmt.Sprintf("oracle: feed_address %q is not a valid address", c.Oracle.FeedAddress))
	} else if common.HexToAddress(c.Oracle.FeedAddress) == (common.Address{}) {
		errs = append(errs, "oracle: feed_address must not be the zero address")
	}
	if c.Oracle.Heartbeat.Duration <= 0 {
		errs = append(errs, "oracle: heartbeat must be positive")
	}

	// Treasury
	if !common.IsHexAddress(c.Treasury.OwnerAddress) {
		errs = append(errs, fmt.Sprintf("treasury: owner_address %q is not a valid address", c.Treasury.OwnerAddress))
	}
	if c.Treasury.PrivateKey == "" && c.Treasury.EncryptedKeyPath == "" {
		errs = append(errs, "treasury: either private_key or encrypted_key_path must be set")
	}
	if c.Treasury.EncryptedKeyPath != "" && c.Treasury.KeyPassword == "" {
		errs = append(errs, "treasury: key_password is required when encrypted_key_path is set")
	}
	if c.Treasury.ChainID <= 0 {
		errs = append(errs, "treasury: chain_id must be positive")
	}

	// Postgres
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}
	if c.Postgres.PoolMaxConns < 1 {
		errs = append(errs, "postgres: pool_max_conns must be >= 1")
	}
	if c.Postgres.PoolMinConns < 0 {
		errs = append(errs, "postgres: pool_min_conns must be >= 0")
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// S3 (only when archival is on)
	if c.Archive.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when archive is enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when archive is enabled")
		}
		if c.Archive.Interval.Duration <= 0 {
			errs = append(errs, "archive: interval must be positive")
		}
		if c.Archive.RetentionDays < 1 {
			errs = append(errs, "archive: retention_days must be >= 1")
		}
	}

	// Server
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.AdminAPIKey == "" {
		errs = append(errs, "server: admin_api_key must be set (catalog and treasury operations are privileged)")
	}
	if c.Server.RateLimitPerMinute < 0 {
		errs = append(errs, "server: rate_limit_per_minute must be >= 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
