package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"gamarr/internal/api"
	"gamarr/internal/artwork"
	"gamarr/internal/config"
	"gamarr/internal/dedup"
	"gamarr/internal/models"
	"gamarr/internal/pipeline"
	"gamarr/internal/providers"
	"gamarr/internal/resolver"
	"gamarr/internal/scanners"
	"gamarr/internal/scheduler"
	"gamarr/internal/services/igdb"
	"gamarr/internal/services/sgdb"
	"gamarr/internal/services/steam"
	"gamarr/internal/staging"
	"gamarr/internal/utils"
)

func main() {
	root := &cobra.Command{
		Use:          "gamarr",
		Short:        "Installed-game discovery, identity resolution and artwork caching",
		SilenceUsage: true,
	}

	root.AddCommand(&cobra.Command{
		Use:   "scan",
		Short: "Run a single import batch and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan()
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server with scheduled imports",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app bundles the wired components shared by the scan and serve commands
type app struct {
	cfg    *config.Config
	logger *logrus.Logger
	db     *models.Database
	pipe   *pipeline.Pipeline
	cache  *artwork.Cache
}

func (a *app) close() {
	a.db.Close()
}

// setup wires the full pipeline: scanners, providers, resolver, acquirer,
// cache, queue
func setup() (*app, error) {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Setup logger
	logger := utils.NewLogger(cfg.LogLevel)
	logger.Info("Starting Gamarr")
	logger.WithField("config_dir", filepath.Dir(cfg.DatabaseFile)).Info("Configuration loaded")

	// 3. Initialize database
	db, err := models.NewDatabase(cfg.DatabaseFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	logger.Info("Database initialized")

	// 4. Initialize providers. Steam needs no credentials; the others are
	// skipped when unconfigured.
	steamClient := steam.NewClient(cfg, logger)
	logger.Info("Steam client initialized")

	sgdbClient, err := sgdb.NewClient(cfg, logger)
	switch {
	case err == providers.ErrUnconfigured:
		logger.Info("SteamGridDB not configured, skipping")
		sgdbClient = nil
	case err != nil:
		db.Close()
		return nil, fmt.Errorf("failed to initialize SteamGridDB client: %w", err)
	default:
		logger.Info("SteamGridDB client initialized")
	}

	igdbClient, err := igdb.NewClient(cfg, logger)
	switch {
	case err == providers.ErrUnconfigured:
		logger.Info("IGDB not configured, skipping")
		igdbClient = nil
	case err != nil:
		db.Close()
		return nil, fmt.Errorf("failed to initialize IGDB client: %w", err)
	default:
		logger.Info("IGDB client initialized")
	}

	// 5. Assemble scanners
	franchise := scanners.LoadFranchiseMap(cfg.FranchiseMapFile, logger)

	var scanList []scanners.Scanner
	if cfg.XboxPackagesRoot != "" {
		scanList = append(scanList, scanners.NewXboxScanner(cfg.XboxPackagesRoot, scanners.NewRegistryQuery(logger), logger))
	}
	if cfg.GamePassRoot != "" {
		scanList = append(scanList, scanners.NewGamePassScanner(cfg.GamePassRoot, franchise, logger))
	}
	if len(cfg.ManualFolders) > 0 {
		scanList = append(scanList, scanners.NewManualScanner(cfg.ManualFolders, logger))
	}

	var manualRoots []string
	for _, folder := range cfg.ManualFolders {
		manualRoots = append(manualRoots, folder.Path)
	}

	// 6. Resolver search order: storefront first, then catalog, then
	// aggregator
	searchers := []providers.Searcher{steamClient}
	if sgdbClient != nil {
		searchers = append(searchers, sgdbClient)
	}
	if igdbClient != nil {
		searchers = append(searchers, igdbClient)
	}
	identityRes := resolver.NewResolver(searchers, logger)

	// 7. Acquirer and artwork cache. Nil clients must stay nil interfaces,
	// so only assign when constructed.
	var catalog artwork.CatalogClient
	if sgdbClient != nil {
		catalog = sgdbClient
	}
	var aggregator artwork.AggregatorClient
	if igdbClient != nil {
		aggregator = igdbClient
	}
	acquirer := artwork.NewAcquirer(steamClient, catalog, aggregator, time.Duration(cfg.ProviderDelayMs)*time.Millisecond, logger)

	cache, err := artwork.NewCache(db, cfg.ArtworkDir, time.Duration(cfg.FetchTimeoutSec)*time.Second, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize artwork cache: %w", err)
	}
	if err := cache.Verify(); err != nil {
		logger.WithError(err).Warn("Artwork cache verification failed, continuing")
	}

	// 8. Pipeline
	pipe := pipeline.NewPipeline(
		scanList,
		manualRoots,
		dedup.NewDeduplicator(logger),
		identityRes,
		acquirer,
		cache,
		staging.NewQueue(),
		db,
		cfg.Workers,
		logger,
	)
	logger.Info("Pipeline initialized")

	return &app{cfg: cfg, logger: logger, db: db, pipe: pipe, cache: cache}, nil
}

// runScan executes one batch in the foreground. Ctrl-C cancels: in-flight
// candidates finish, the rest are parked.
func runScan() error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = a.pipe.Run(ctx, func(progress pipeline.Progress) {
		a.logger.WithFields(logrus.Fields{
			"processed": progress.Processed,
			"total":     progress.Total,
			"title":     progress.CurrentTitle,
		}).Info("Import progress")
	})
	if err != nil {
		return fmt.Errorf("import batch failed: %w", err)
	}

	counts := a.pipe.Queue().Counts()
	a.logger.WithFields(logrus.Fields{
		"ready":     counts[models.StatusReady],
		"ambiguous": counts[models.StatusAmbiguous],
		"errored":   counts[models.StatusError],
	}).Info("Scan finished")
	return nil
}

// runServe runs the HTTP server with cron-scheduled imports until a
// shutdown signal arrives
func runServe() error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	sched := scheduler.NewScheduler(a.pipe, a.cfg.ScanCron, a.logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	server := api.NewServer(a.cfg, a.pipe, a.cache, a.logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	a.logger.Info("Gamarr is running")

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		a.logger.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
		if err := server.Shutdown(context.Background()); err != nil {
			a.logger.WithError(err).Error("Error during server shutdown")
		}
	}

	a.logger.Info("Gamarr stopped")
	return nil
}
