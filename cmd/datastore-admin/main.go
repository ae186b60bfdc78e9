package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/timmy/hdfsconnector/internal/config"
	"github.com/timmy/hdfsconnector/internal/logger"
	"github.com/timmy/hdfsconnector/internal/repository"
	"github.com/timmy/hdfsconnector/internal/service"
	"github.com/timmy/hdfsconnector/internal/storage"
)

// datastore-admin deletes the data stores a connector created, matched by
// display-name prefix.
func main() {
	configPath := flag.String("config", "", "Path or object URI of the connector config (defaults to $INPUT_FILE)")
	prefix := flag.String("prefix", "", "Display name prefix of the data stores to delete")
	purge := flag.Bool("purge", false, "Purge documents before deleting each data store")
	flag.Parse()

	appLogger, err := logger.New(logger.LoadFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	if *prefix == "" {
		appLogger.Error("-prefix is required")
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, canceling...")
		cancel()
	}()

	cfg, err := config.Load(ctx, *configPath, func(ctx context.Context, uri string) ([]byte, error) {
		blobs, closer, err := storage.NewBlobsFor(ctx, &storage.BackendsConfig{}, uri)
		if err != nil {
			return nil, err
		}
		defer closer.Close()
		return blobs.ReadAll(ctx, uri)
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	dataStores, err := repository.NewDataStoreRepository(ctx, repository.NewDataStoreConfig(&cfg.Destination), appLogger)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize data store client")
	}

	deleted, err := service.NewSearchIngestService(dataStores, appLogger).DeleteByPrefix(ctx, *prefix, *purge)
	if err != nil {
		appLogger.WithError(err).WithField(logger.FieldCount, deleted).Fatal("Failed to delete data stores")
	}

	appLogger.WithFields(logger.Fields{
		"prefix":          *prefix,
		logger.FieldCount: deleted,
	}).Info("Data store cleanup completed")
}
