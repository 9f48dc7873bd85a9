package jsonstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"

	"crypto_tracker/internal/app/port"
	"crypto_tracker/internal/domain/entity"
	"crypto_tracker/internal/pkg/utils"
)

const (
	CatalogFile = "coins.json"
	LedgerFile  = "portfolio.json"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Store keeps the catalog and the ledger as two JSON documents in one directory.
type Store struct {
	dir    string
	logger port.Logger
}

// New creates a Store rooted at dir. Nothing is read until the first Load call.
func New(dir string, logger port.Logger) *Store {
	return &Store{dir: dir, logger: logger}
}

func (s *Store) catalogPath() string { return filepath.Join(s.dir, CatalogFile) }
func (s *Store) ledgerPath() string  { return filepath.Join(s.dir, LedgerFile) }

// LoadCatalog reads coins.json. A missing or unreadable file yields the default coins.
func (s *Store) LoadCatalog() []entity.CoinDefinition {
	var coins []entity.CoinDefinition
	if !s.readJSON(s.catalogPath(), &coins) || coins == nil {
		return entity.DefaultCoins()
	}
	return coins
}

// SaveCatalog replaces coins.json.
func (s *Store) SaveCatalog(coins []entity.CoinDefinition) error {
	if coins == nil {
		coins = []entity.CoinDefinition{}
	}
	return s.writeJSON(s.catalogPath(), coins)
}

// LoadLedger reads portfolio.json. A missing or unreadable file yields an empty ledger.
func (s *Store) LoadLedger() map[string]entity.PortfolioEntry {
	var ledger map[string]entity.PortfolioEntry
	if !s.readJSON(s.ledgerPath(), &ledger) || ledger == nil {
		return map[string]entity.PortfolioEntry{}
	}
	return ledger
}

// SaveLedger replaces portfolio.json.
func (s *Store) SaveLedger(ledger map[string]entity.PortfolioEntry) error {
	if ledger == nil {
		ledger = map[string]entity.PortfolioEntry{}
	}
	return s.writeJSON(s.ledgerPath(), ledger)
}

// SaveAll writes the ledger before the catalog. Each file is replaced
// atomically; if the catalog write fails after the ledger succeeded, the
// coin stays tracked with no holdings, never the reverse.
func (s *Store) SaveAll(coins []entity.CoinDefinition, ledger map[string]entity.PortfolioEntry) error {
	if err := s.SaveLedger(ledger); err != nil {
		return err
	}
	return s.SaveCatalog(coins)
}

func (s *Store) readJSON(path string, v any) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("Store file not found, using defaults", "path", path)
		} else {
			s.logger.Warn("Failed to read store file, using defaults", "path", path, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.logger.Warn("Store file is corrupt, using defaults", "path", path, "error", err)
		return false
	}
	return true
}

func (s *Store) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := utils.WriteFileAtomic(path, data, 0o644); err != nil {
		return err
	}
	s.logger.Debug("Store file written", "path", path, "bytes", len(data))
	return nil
}
