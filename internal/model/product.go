package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product groups sellable variants (e.g. "Ceramic coating" → 50ml, 100ml).
type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string    `gorm:"index;not null"`
	Category    string    `gorm:"not null"`
	Description *string
	Active      bool `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Variants []ProductVariant `gorm:"foreignKey:ProductID"`
}

// ProductVariant carries the materialized stock balance. Quantity must always
// equal the QuantityAfter of the variant's latest StockMovement; it is only
// written through the stock ledger.
type ProductVariant struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID         uuid.UUID       `gorm:"type:uuid;index;not null"`
	SKU               string          `gorm:"uniqueIndex;not null"`
	Name              string          `gorm:"not null"`
	Quantity          int             `gorm:"not null;default:0"`
	LowStockThreshold int             `gorm:"not null;default:5"`
	CostPrice         decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	SalePrice         decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Active            bool            `gorm:"not null;default:true"`
	CreatedAt         time.Time
	UpdatedAt         time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

// IsLowStock reports whether the balance is at or below the alert threshold.
func (v *ProductVariant) IsLowStock() bool {
	return v.Quantity <= v.LowStockThreshold
}
