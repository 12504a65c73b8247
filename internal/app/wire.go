package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	s3blob "github.com/Yashwanthh933/chainlink-price-feed-integration/internal/blob/s3"
	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/cache/redis"
	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/config"
	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/crypto"
	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/domain"
	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/ledger"
	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/notify"
	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/oracle"
	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/store/postgres"
	"github.com/Yashwanthh933/chainlink-price-feed-integration/internal/treasury"
)

// Dependencies bundles everything the serving loop needs. It is constructed
// by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Core ledger
	Engine  *ledger.Engine
	Gateway *oracle.Gateway

	// Persistence
	PurchaseStore domain.PurchaseStore
	Journal       domain.EventJournal

	// Messaging
	Bus         domain.EventBus
	RateLimiter domain.RateLimiter

	// Blob storage, nil unless archiving is enabled.
	BlobReader domain.BlobReader
	Archiver   domain.Archiver

	// Notifications
	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Chain connection, shared by the oracle reads and the payout path ---
	ethClient, err := ethclient.DialContext(ctx, cfg.Oracle.RPCURL)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: dial rpc: %w", err)
	}
	closers = append(closers, ethClient.Close)

	feed, err := oracle.NewAggregatorFeed(ethClient, common.HexToAddress(cfg.Oracle.FeedAddress))
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: aggregator feed: %w", err)
	}
	if desc, err := feed.Description(ctx); err == nil {
		logger.InfoContext(ctx, "price feed connected",
			slog.String("feed", cfg.Oracle.FeedAddress),
			slog.String("description", desc),
		)
	}

	gateway, err := oracle.NewGateway(feed, cfg.Oracle.Heartbeat.Duration, logger)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: oracle gateway: %w", err)
	}
	deps.Gateway = gateway

	// --- Treasury payout wallet ---
	key, err := crypto.LoadKey(crypto.KeyConfig{
		RawPrivateKey:    cfg.Treasury.PrivateKey,
		EncryptedKeyPath: cfg.Treasury.EncryptedKeyPath,
		KeyPassword:      cfg.Treasury.KeyPassword,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: payout key: %w", err)
	}
	payout, err := treasury.NewPayout(ethClient, key, cfg.Treasury.ChainID, cfg.Treasury.ConfirmTimeout.Duration, logger)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: payout: %w", err)
	}

	deps.Engine = ledger.NewEngine(
		ledger.NewCatalog(),
		gateway,
		payout,
		common.HexToAddress(cfg.Treasury.OwnerAddress),
		logger,
	)

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	pool := pgClient.Pool()
	deps.PurchaseStore = postgres.NewPurchaseStore(pool)
	deps.Journal = postgres.NewJournalStore(pool)

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	deps.Bus = redis.NewEventBus(redisClient)
	deps.RateLimiter = redis.NewRateLimiter(redisClient)

	// --- S3 blob storage (only when archiving is on) ---
	if cfg.Archive.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.BlobReader = s3blob.NewReader(s3Client)
		deps.Archiver = s3blob.NewArchiver(
			s3blob.NewWriter(s3Client),
			deps.PurchaseStore,
			deps.Journal,
			deps.Journal,
			logger,
		)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	if len(senders) > 0 {
		deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)
	}

	return deps, cleanup, nil
}
