package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies STOREFRONT_* environment variable overrides,
// and returns the final Config. The returned Config has NOT been validated;
// the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known STOREFRONT_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Oracle ──
	setStr(&cfg.Oracle.RPCURL, "STOREFRONT_ORACLE_RPC_URL")
	setStr(&cfg.Oracle.FeedAddress, "STOREFRONT_ORACLE_FEED_ADDRESS")
	setDuration(&cfg.Oracle.Heartbeat, "STOREFRONT_ORACLE_HEARTBEAT")

	// ── Treasury ──
	setStr(&cfg.Treasury.OwnerAddress, "STOREFRONT_TREASURY_OWNER_ADDRESS")
	setStr(&cfg.Treasury.PrivateKey, "STOREFRONT_TREASURY_PRIVATE_KEY")
	setStr(&cfg.Treasury.EncryptedKeyPath, "STOREFRONT_TREASURY_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Treasury.KeyPassword, "STOREFRONT_TREASURY_KEY_PASSWORD")
	setInt64(&cfg.Treasury.ChainID, "STOREFRONT_TREASURY_CHAIN_ID")
	setDuration(&cfg.Treasury.ConfirmTimeout, "STOREFRONT_TREASURY_CONFIRM_TIMEOUT")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "STOREFRONT_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "STOREFRONT_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "STOREFRONT_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "STOREFRONT_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "STOREFRONT_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "STOREFRONT_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "STOREFRONT_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "STOREFRONT_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "STOREFRONT_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "STOREFRONT_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "STOREFRONT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "STOREFRONT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "STOREFRONT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "STOREFRONT_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "STOREFRONT_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "STOREFRONT_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "STOREFRONT_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "STOREFRONT_S3_REGION")
	setStr(&cfg.S3.Bucket, "STOREFRONT_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "STOREFRONT_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "STOREFRONT_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "STOREFRONT_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "STOREFRONT_S3_FORCE_PATH_STYLE")

	// ── Archive ──
	setBool(&cfg.Archive.Enabled, "STOREFRONT_ARCHIVE_ENABLED")
	setDuration(&cfg.Archive.Interval, "STOREFRONT_ARCHIVE_INTERVAL")
	setInt(&cfg.Archive.RetentionDays, "STOREFRONT_ARCHIVE_RETENTION_DAYS")

	// ── Server ──
	setInt(&cfg.Server.Port, "STOREFRONT_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "STOREFRONT_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "STOREFRONT_SERVER_API_KEY")
	setStr(&cfg.Server.AdminAPIKey, "STOREFRONT_SERVER_ADMIN_API_KEY")
	setInt(&cfg.Server.RateLimitPerMinute, "STOREFRONT_SERVER_RATE_LIMIT_PER_MINUTE")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "STOREFRONT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "STOREFRONT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "STOREFRONT_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "STOREFRONT_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "STOREFRONT_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
