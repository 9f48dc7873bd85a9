package sqlstore

import (
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"crypto_tracker/internal/app/port"
	"crypto_tracker/internal/domain/entity"
)

// Store keeps the catalog and the ledger in a SQLite database.
type Store struct {
	db     *gorm.DB
	logger port.Logger
}

// New opens (or creates) the database at dsn and migrates the schema.
func New(dsn string, logger port.Logger) (*Store, error) {
	const op = "storage/sqlstore"

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open %s: %w", op, dsn, err)
	}
	if err := db.AutoMigrate(&coinRecord{}, &holdingRecord{}, &metaRecord{}); err != nil {
		return nil, fmt.Errorf("%s: failed to auto-migrate database: %w", op, err)
	}
	logger.Info("SQLite store ready", "dsn", dsn)
	return &Store{db: db, logger: logger}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// LoadCatalog returns the stored coins in order, or the defaults when no
// catalog was ever saved or the query fails.
func (s *Store) LoadCatalog() []entity.CoinDefinition {
	var meta metaRecord
	if err := s.db.Where("name = ?", catalogSavedKey).First(&meta).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("Failed to read catalog marker, using defaults", "error", err)
		}
		return entity.DefaultCoins()
	}

	var rows []coinRecord
	if err := s.db.Order("position").Find(&rows).Error; err != nil {
		s.logger.Warn("Failed to read catalog, using defaults", "error", err)
		return entity.DefaultCoins()
	}
	coins := make([]entity.CoinDefinition, len(rows))
	for i, r := range rows {
		coins[i] = entity.CoinDefinition{Name: r.Name, Ticker: r.Ticker, APIID: r.APIID}
	}
	return coins
}

// SaveCatalog replaces every catalog row.
func (s *Store) SaveCatalog(coins []entity.CoinDefinition) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return saveCatalog(tx, coins)
	})
}

// LoadLedger returns every holding, or an empty ledger when the query fails.
func (s *Store) LoadLedger() map[string]entity.PortfolioEntry {
	var rows []holdingRecord
	if err := s.db.Find(&rows).Error; err != nil {
		s.logger.Warn("Failed to read ledger, starting empty", "error", err)
		return map[string]entity.PortfolioEntry{}
	}
	ledger := make(map[string]entity.PortfolioEntry, len(rows))
	for _, r := range rows {
		ledger[r.APIID] = entity.PortfolioEntry{Amount: r.Amount, BuyPrice: r.BuyPrice}
	}
	return ledger
}

// SaveLedger replaces every holding row.
func (s *Store) SaveLedger(ledger map[string]entity.PortfolioEntry) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return saveLedger(tx, ledger)
	})
}

// SaveAll replaces catalog and ledger in one transaction.
func (s *Store) SaveAll(coins []entity.CoinDefinition, ledger map[string]entity.PortfolioEntry) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := saveLedger(tx, ledger); err != nil {
			return err
		}
		return saveCatalog(tx, coins)
	})
}

func saveCatalog(tx *gorm.DB, coins []entity.CoinDefinition) error {
	if err := tx.Where("1 = 1").Delete(&coinRecord{}).Error; err != nil {
		return fmt.Errorf("failed to clear catalog: %w", err)
	}
	if len(coins) > 0 {
		rows := make([]coinRecord, len(coins))
		for i, c := range coins {
			rows[i] = coinRecord{APIID: c.APIID, Position: i, Name: c.Name, Ticker: c.Ticker}
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to insert catalog: %w", err)
		}
	}
	if err := tx.Save(&metaRecord{Name: catalogSavedKey, Value: "1"}).Error; err != nil {
		return fmt.Errorf("failed to mark catalog saved: %w", err)
	}
	return nil
}

func saveLedger(tx *gorm.DB, ledger map[string]entity.PortfolioEntry) error {
	if err := tx.Where("1 = 1").Delete(&holdingRecord{}).Error; err != nil {
		return fmt.Errorf("failed to clear ledger: %w", err)
	}
	if len(ledger) == 0 {
		return nil
	}
	rows := make([]holdingRecord, 0, len(ledger))
	for id, e := range ledger {
		rows = append(rows, holdingRecord{APIID: id, Amount: e.Amount, BuyPrice: e.BuyPrice})
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to insert ledger: %w", err)
	}
	return nil
}
