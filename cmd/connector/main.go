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
	"github.com/timmy/hdfsconnector/internal/secret"
	"github.com/timmy/hdfsconnector/internal/service"
	"github.com/timmy/hdfsconnector/internal/source"
	"github.com/timmy/hdfsconnector/internal/source/hdfs"
	"github.com/timmy/hdfsconnector/internal/source/localfs"
	"github.com/timmy/hdfsconnector/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "Path or object URI of the connector config (defaults to $INPUT_FILE)")
	flag.Parse()

	appLogger, err := logger.New(logger.LoadFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
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

	err = run(ctx, *configPath, appLogger)
	if err != nil {
		appLogger.WithError(err).Error("Connector run failed")
	}
	_ = appLogger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, appLogger *logger.Logger) error {
	cfg, err := config.Load(ctx, configPath, fetchObject)
	if err != nil {
		return err
	}
	if err := service.CheckExportMethod(cfg.ExportMethod); err != nil {
		return err
	}

	appLogger.WithFields(logger.Fields{
		logger.FieldConnectorID: cfg.ConnectorID,
		"connector_name":        cfg.ConnectorName,
		"export_method":         cfg.ExportMethod,
		"staging_prefix":        cfg.StagingPrefix,
	}).Info("Starting HDFS export")

	backends := cfg.Storage.Backends()
	blobs, closer, err := storage.NewBlobsFor(ctx, &backends, cfg.StagingPrefix, cfg.StateLocation)
	if err != nil {
		return fmt.Errorf("failed to initialize object storage: %w", err)
	}
	defer closer.Close()

	src, err := newSource(ctx, cfg, appLogger)
	if err != nil {
		return err
	}

	dataStores, err := repository.NewDataStoreRepository(ctx, repository.NewDataStoreConfig(&cfg.Destination), appLogger)
	if err != nil {
		return err
	}

	var journal service.RunJournal
	db, err := repository.InitDB(&cfg.Journal, appLogger)
	if err != nil {
		appLogger.WithError(err).Warn("Run journal unavailable, continuing without it")
	} else if db != nil {
		defer repository.CloseDB(db)
		journal = repository.NewRunRepository(db)
	}

	state := service.NewStateTracker(cfg.StateLocation, blobs, appLogger)
	export := service.NewExportService(service.NewCopier(src, blobs, appLogger), state, blobs, appLogger)
	ingest := service.NewSearchIngestService(dataStores, appLogger)

	result, err := service.NewPipeline(cfg, state, export, ingest, journal, appLogger).Run(ctx)
	if err != nil {
		return err
	}

	fields := logger.Fields{
		logger.FieldRunID: result.RunID,
		logger.FieldCount: result.FilesExported,
		"working_dir":     result.WorkingDir,
	}
	if result.DataStore != nil {
		fields[logger.FieldDataStore] = result.DataStore.Name
	}
	appLogger.WithFields(fields).Info("Connector run finished")
	return nil
}

// newSource builds the file source: a mounted directory when mount_path is
// set, otherwise the WebHDFS client, resolving the NameNode through the
// cluster API when no address is configured. An unresolvable cluster yields a
// source with nothing to list.
func newSource(ctx context.Context, cfg *config.Config, log *logger.Logger) (source.FileSource, error) {
	if cfg.Source.MountPath != "" {
		var uriPrefix string
		if cfg.Source.InternalIP != "" {
			_, authority, err := hdfs.NormalizeAddress(cfg.Source.InternalIP, cfg.Source.HDFSPort)
			if err != nil {
				return nil, err
			}
			uriPrefix = "hdfs://" + authority
		}
		log.WithField("mount_path", cfg.Source.MountPath).Info("Reading HDFS through local mount")
		return localfs.NewAdapter(cfg.Source.MountPath, uriPrefix), nil
	}

	address := cfg.Source.InternalIP
	if address == "" {
		resolved, err := resolveNameNode(ctx, cfg)
		if err != nil {
			log.WithError(err).WithField("cluster", cfg.Source.ClusterName).Warn("Could not resolve HDFS NameNode address")
			return source.Unavailable(err), nil
		}
		address = resolved
		log.WithFields(logger.Fields{
			"cluster": cfg.Source.ClusterName,
			"address": address,
		}).Info("Resolved HDFS NameNode")
		cfg.Source.InternalIP = address
	}

	var token string
	if cfg.Source.AuthSecret != "" {
		secrets, err := secret.NewManager(ctx)
		if err != nil {
			return nil, err
		}
		token, err = secrets.Access(ctx, cfg.Source.AuthSecret)
		if err != nil {
			return nil, err
		}
	}

	return hdfs.NewClient(hdfs.Config{
		Address:         address,
		Port:            cfg.Source.HDFSPort,
		User:            cfg.Source.HDFSUser,
		DelegationToken: token,
	})
}

func resolveNameNode(ctx context.Context, cfg *config.Config) (string, error) {
	resolver, err := hdfs.NewClusterResolver(ctx, cfg.Source.Region)
	if err != nil {
		return "", err
	}
	return resolver.MasterInternalIP(ctx, cfg.Source.Project, cfg.Source.Region, cfg.Source.ClusterName)
}

// fetchObject reads a config file addressed by an object URI.
func fetchObject(ctx context.Context, uri string) ([]byte, error) {
	blobs, closer, err := storage.NewBlobsFor(ctx, &storage.BackendsConfig{}, uri)
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return blobs.ReadAll(ctx, uri)
}
