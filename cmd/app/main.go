package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
	_ "time/tzdata"

	"nexus-bot/internal/bot"
	"nexus-bot/internal/cache"
	"nexus-bot/internal/config"
	"nexus-bot/internal/discord"
	"nexus-bot/internal/httpserver"
	"nexus-bot/internal/logging"
	"nexus-bot/internal/metrics"
	"nexus-bot/internal/presence"
	"nexus-bot/internal/productsync"
	"nexus-bot/internal/repo"
	"nexus-bot/internal/retry"
	"nexus-bot/migrations"

	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting nexus-bot", "env", cfg.AppEnv, "store_driver", cfg.StoreDriver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricRegistry := metrics.Registry(cfg.MetricsNamespace)

	repository, migrationFiles, err := openStore(ctx, cfg, logger, metricRegistry)
	if err != nil {
		return fmt.Errorf("init repository: %w", err)
	}
	defer repository.Close()

	if cfg.RunMigrations {
		if err := repository.RunMigrations(ctx, migrationFiles); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("database migrated")
	}

	healthDeps := httpserver.Dependencies{"store": repository}
	var locker bot.RedemptionLocker
	if cfg.RedisAddr != "" {
		redisClient := cache.New(cache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			UseTLS:   cfg.RedisTLS,
		}, logger)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("failed closing redis", "error", err)
			}
		}()
		if err := redisClient.Ping(ctx); err != nil {
			logger.Warn("redis ping failed, redemptions run without lock", "error", err)
		} else {
			locker = redisClient
		}
		healthDeps["redis"] = redisClient
	} else {
		logger.Info("redis not configured, redemptions run without lock")
	}

	discordClient, err := discord.New(discord.Config{
		Token:   cfg.DiscordToken,
		Metrics: metricRegistry,
	}, logger)
	if err != nil {
		return fmt.Errorf("init discord client: %w", err)
	}

	engine := bot.New(discordClient, repository, locker, metricRegistry, logger, bot.Config{
		Admin:                 bot.PolicyForRole(cfg.AdminRoleID),
		VerificationChannelID: cfg.VerificationChannelID,
		TicketCategoryID:      cfg.TicketCategoryID,
		AnnouncementChannelID: cfg.AnnouncementChannelID,
		RulesChannelID:        cfg.RulesChannelID,
		LinksChannelID:        cfg.LinksChannelID,
		EntryChannelID:        cfg.EntryChannelID,
		ExitChannelID:         cfg.ExitChannelID,
		CloseDelay:            cfg.TicketCloseDelay,
		Location:              cfg.Location(),
		StoreURL:              cfg.StoreWebsiteURL,
		BlikPhone:             cfg.BlikPhone,
	})
	if cfg.AdminRoleID == "" {
		logger.Warn("ADMIN_ROLE_ID not set, every member may run administrative commands")
	}
	discordClient.SetEventProcessor(engine)

	if err := discordClient.Start(ctx); err != nil {
		return fmt.Errorf("discord login: %w", err)
	}
	defer discordClient.Close()

	var workers sync.WaitGroup
	workers.Add(1)
	go func() {
		defer workers.Done()
		presence.New(discordClient, repository, metricRegistry, logger, cfg.PresenceInterval).Run(ctx)
	}()

	if notifier, ok := repository.(*repo.PostgresRepository); ok {
		listener := productsync.New(notifier, discordClient, metricRegistry, logger, productsync.Config{
			ChannelID: cfg.ShopInfoChannelID,
			StoreURL:  cfg.StoreWebsiteURL,
			Retry:     retry.Default,
		})
		workers.Add(1)
		go func() {
			defer workers.Done()
			if err := listener.Run(ctx); err != nil {
				logger.Error("product sync stopped", "error", err)
			}
		}()
	} else {
		logger.Info("product sync disabled for store driver", "store_driver", cfg.StoreDriver)
	}

	httpSrv := httpserver.New(cfg.ListenAddr(), logger, metricRegistry, healthDeps)
	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Start(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	stop()
	workers.Wait()

	return nil
}

// openStore connects the configured store driver and returns its migration set.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (repo.Repository, fs.FS, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		r, err := repo.NewSQLite(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		return r, migrations.SQLite, nil
	default:
		r, err := repo.New(ctx, cfg.DatabaseURL, cfg.DatabaseSchema, logger, m)
		if err != nil {
			return nil, nil, err
		}
		return r, migrations.Postgres, nil
	}
}
