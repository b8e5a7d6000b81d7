package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	flags "github.com/jessevdk/go-flags"

	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/control"
	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/events"
	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/logging"
	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/snapshot"
	"github.com/2020visiontrader/stratix-ai-shopify-app-sub003/pkg/supervision"
)

type flagOptions struct {
	Config   string `long:"config" short:"c" description:"path to YAML configuration file" required:"true"`
	LogLevel string `long:"log-level" description:"override the configured log level"`
}

func logPrefix(module string) string {
	return fmt.Sprintf("module: %s , ", module)
}

const shutdownTimeout = 30 * time.Second

func main() {
	var opts flagOptions
	parser := flags.NewParser(&opts, flags.HelpFlag)
	if _, err := parser.ParseArgs(os.Args[1:]); err != nil {
		fmt.Printf("Command line flags parsing failed: %v\n", err)
		os.Exit(1)
	}

	bootLogger, err := logging.NewZapLogger(opts.LogLevel)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	config, err := supervision.LoadConfigFromFile(opts.Config, bootLogger)
	if err != nil {
		bootLogger.Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	level := config.Server.LogLevel
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	logger, err := logging.NewZapLogger(level)
	if err != nil {
		bootLogger.Errorf("Failed to create logger: %v", err)
		os.Exit(1)
	}

	if err := run(config, logger); err != nil {
		logger.Errorf("Supervisor exited with error: %v", err)
		os.Exit(1)
	}
}

func run(config *supervision.Config, logger logging.Logger) error {
	recorder := events.NewRecorder(config.Supervisor.HealthRetention, logging.NewPrefixLogger(logPrefix("events"), logger))
	supervisor := supervision.NewSupervisor(
		supervision.Options{
			HookTimeout:  config.Supervisor.HookTimeout,
			ProbeTimeout: config.Supervisor.ProbeTimeout,
		},
		recorder,
		logging.NewPrefixLogger(logPrefix("supervision"), logger),
	)

	registrations, err := supervision.BuildRegistrations(config, logging.NewPrefixLogger(logPrefix("services"), logger))
	if err != nil {
		return err
	}

	var store *snapshot.FileStore
	if config.Supervisor.SnapshotPath != "" {
		store = snapshot.NewFileStore(config.Supervisor.SnapshotPath, logging.NewPrefixLogger(logPrefix("snapshot"), logger))
	}

	ctx := context.Background()
	if err := bootstrap(ctx, supervisor, store, registrations, logger); err != nil {
		return err
	}

	gateway := control.NewGateway(supervisor, store, logging.NewPrefixLogger(logPrefix("control"), logger))
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", config.Server.Port),
		Handler: gateway.Router(),
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof("Control API listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-signals:
		logger.Infof("Received signal %v, shutting down", sig)
	case err := <-serverErr:
		logger.Errorf("Control API failed: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Control API shutdown failed: %v", err)
	}

	// Persist state before stopping so a restart recovers the services
	// that were running, not the drained end state.
	if store != nil {
		if err := store.Save(supervisor.ExportSnapshot()); err != nil {
			logger.Errorf("Failed to save snapshot: %v", err)
		}
	}

	if err := supervisor.StopAll(shutdownCtx); err != nil {
		logger.Errorf("Errors during shutdown: %v", err)
	}

	logger.Infof("Supervisor stopped")
	return nil
}

// bootstrap restores a previous snapshot when one exists, otherwise
// registers the configured services fresh.
func bootstrap(ctx context.Context, supervisor *supervision.Supervisor, store *snapshot.FileStore, registrations []supervision.Registration, logger logging.Logger) error {
	if store != nil && store.Exists() {
		doc, err := store.Load()
		if err == nil {
			if err = supervisor.ImportSnapshot(ctx, doc, supervision.Units(registrations)); err == nil {
				logger.Infof("State recovered from snapshot")
				return nil
			}
		}
		logger.Warnf("Snapshot recovery failed, starting fresh: %v", err)
	}

	return supervisor.RegisterAll(ctx, registrations)
}
