package sqlstore

// coinRecord is one catalog row. Position keeps the display order.
type coinRecord struct {
	APIID    string `gorm:"primaryKey"`
	Position int    `gorm:"not null;index"`
	Name     string `gorm:"not null"`
	Ticker   string `gorm:"not null"`
}

func (coinRecord) TableName() string { return "coins" }

type holdingRecord struct {
	APIID    string  `gorm:"primaryKey"`
	Amount   float64 `gorm:"not null"`
	BuyPrice float64 `gorm:"not null"`
}

func (holdingRecord) TableName() string { return "holdings" }

// metaRecord stores flags about the database itself.
type metaRecord struct {
	Name  string `gorm:"primaryKey"`
	Value string
}

func (metaRecord) TableName() string { return "store_meta" }

// catalogSavedKey marks that a catalog was written at least once, so an empty
// coins table means "user removed everything" rather than "first start".
const catalogSavedKey = "catalog_saved"
