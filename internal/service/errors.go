package service

import (
	"errors"
	"fmt"

	"github.com/timmy/hdfsconnector/internal/config"
	"github.com/timmy/hdfsconnector/internal/logger"
)

var (
	// ErrIncrementalNotImplemented is returned for the incremental export method.
	ErrIncrementalNotImplemented = errors.New("incremental export is not implemented")

	// ErrDataStoreNotFound means no data store matched and creation is not allowed.
	ErrDataStoreNotFound = errors.New("data store not found")

	// ErrDataStoreCreateFailed means a created data store could not be read back.
	ErrDataStoreCreateFailed = errors.New("data store creation failed")

	// ErrImportPartialFailure means the import completed with error samples.
	ErrImportPartialFailure = errors.New("failed to import data")
)

// CheckExportMethod accepts only methods the pipeline can run.
// Unknown methods wrap config.ErrInvalidConfig.
func CheckExportMethod(method string) error {
	switch method {
	case config.ExportMethodFull:
		return nil
	case config.ExportMethodIncremental:
		return fmt.Errorf("%w: %w", config.ErrInvalidConfig, ErrIncrementalNotImplemented)
	default:
		return fmt.Errorf("%w: invalid export method: %s", config.ErrInvalidConfig, method)
	}
}

func orDiscard(log *logger.Logger) *logger.Logger {
	if log == nil {
		return logger.Discard()
	}
	return log
}
