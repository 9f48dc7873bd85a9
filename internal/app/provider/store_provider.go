package provider

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"crypto_tracker/internal/app/port"
	"crypto_tracker/internal/infrastructure/configloader"
	"crypto_tracker/internal/infrastructure/storage/jsonstore"
	"crypto_tracker/internal/infrastructure/storage/sqlstore"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewStore builds the persistence backend selected by cfg.Driver. The returned
// closer releases backend resources.
func NewStore(cfg configloader.StorageConfig, logger port.Logger) (port.Store, io.Closer, error) {
	switch cfg.Driver {
	case configloader.StorageDriverJSON, "":
		logger.Info("Using JSON file store", "dir", cfg.DataDir)
		return jsonstore.New(cfg.DataDir, logger), nopCloser{}, nil
	case configloader.StorageDriverSQLite:
		if dir := filepath.Dir(cfg.SQLitePath); !strings.HasPrefix(cfg.SQLitePath, "file:") && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("failed to create %s: %w", dir, err)
			}
		}
		store, err := sqlstore.New(cfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
