package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/DREDGV/crypto-portfolio/internal/backup"
	"github.com/DREDGV/crypto-portfolio/internal/config"
	"github.com/DREDGV/crypto-portfolio/internal/database"
	"github.com/DREDGV/crypto-portfolio/internal/history"
	"github.com/DREDGV/crypto-portfolio/internal/ledger"
	"github.com/DREDGV/crypto-portfolio/internal/portfolio"
	"github.com/DREDGV/crypto-portfolio/internal/pricing"
	"github.com/DREDGV/crypto-portfolio/internal/scheduler"
	"github.com/DREDGV/crypto-portfolio/internal/server"
	"github.com/DREDGV/crypto-portfolio/internal/stats"
	"github.com/DREDGV/crypto-portfolio/pkg/logger"
)

func main() {
	// Load configuration first so the logger honors LOG_LEVEL
	cfg, err := config.Load()
	if err != nil {
		errLog := logger.New(logger.Config{Level: "error"})
		errLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting crypto-portfolio")

	// Ledger database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Valuation history database
	historyStore, err := history.Open(cfg.HistoryDir, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open valuation history")
	}
	defer historyStore.Close()

	// Price resolver: live tiers first, synthetic terminal tier last
	resolver := pricing.NewResolver(
		[]pricing.Provider{
			pricing.NewCoinGeckoProvider(cfg.ReportingCurrency, cfg.ProviderTimeout, cfg.ProviderSpacing, log),
			pricing.NewBinanceProvider(cfg.ReportingCurrency, cfg.ProviderTimeout, cfg.ProviderSpacing, log),
			pricing.NewSyntheticProvider(cfg.ReportingCurrency, log),
		},
		cfg.CacheTTL,
		cfg.ProviderTimeout,
		log,
	)
	if err := resolver.LoadSnapshot(cfg.QuoteCachePath); err != nil {
		log.Warn().Err(err).Msg("Failed to load quote cache snapshot")
	}

	ledgerRepo := ledger.NewRepository(db.Conn(), log)
	aggregator := stats.NewAggregator(cfg.RiskFreeRate, log)
	portfolioService := portfolio.NewService(ledgerRepo, resolver, historyStore, aggregator, log)

	// Background jobs
	sched := scheduler.New(log)
	registerJobs(sched, cfg, portfolioService, db, log)
	sched.Start()
	defer sched.Stop()

	// HTTP server
	srv := server.New(server.Config{
		Port:      cfg.Port,
		Log:       log,
		Portfolio: portfolioService,
		DevMode:   cfg.DevMode,
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Keep warm quotes across restarts
	if err := resolver.SaveSnapshot(cfg.QuoteCachePath); err != nil {
		log.Warn().Err(err).Msg("Failed to save quote cache snapshot")
	}

	log.Info().Msg("Server stopped")
}

func registerJobs(
	sched *scheduler.Scheduler,
	cfg *config.Config,
	portfolioService *portfolio.Service,
	db *database.DB,
	log zerolog.Logger,
) {
	// Refresh at half the cache TTL so held-coin quotes never go stale
	refreshSchedule := fmt.Sprintf("@every %s", cfg.CacheTTL/2)
	refreshJob := scheduler.NewPriceRefreshJob(portfolioService, cfg.ProviderTimeout*4, log)
	if err := sched.AddJob(refreshSchedule, refreshJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register price refresh job")
	}

	snapshotJob := scheduler.NewDailySnapshotJob(portfolioService, log)
	if err := sched.AddJob("0 0 0 * * *", snapshotJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register daily snapshot job")
	}

	if cfg.BackupBucket != "" {
		uploader, err := backup.NewUploader(context.Background(), cfg.BackupBucket, cfg.BackupPrefix, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize S3 backup")
		}
		backupJob := scheduler.NewLedgerBackupJob(uploader, db.Path(), log)
		if err := sched.AddJob("0 30 0 * * *", backupJob); err != nil {
			log.Fatal().Err(err).Msg("Failed to register ledger backup job")
		}
	}
}
