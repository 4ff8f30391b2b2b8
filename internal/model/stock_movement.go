package model

import (
	"time"

	"github.com/google/uuid"
)

// Stock movement reasons.
const (
	ReasonPurchase   = "PURCHASE"
	ReasonSale       = "SALE"
	ReasonAdjustment = "ADJUSTMENT"
	ReasonDamage     = "DAMAGE"
	ReasonReturn     = "RETURN"
	ReasonTransfer   = "TRANSFER"
	ReasonInitial    = "INITIAL"
)

// ValidReason reports whether r is a known movement reason code.
func ValidReason(r string) bool {
	switch r {
	case ReasonPurchase, ReasonSale, ReasonAdjustment, ReasonDamage,
		ReasonReturn, ReasonTransfer, ReasonInitial:
		return true
	}
	return false
}

// SystemActor is recorded as CreatedBy when no user triggered the change.
const SystemActor = "System"

// StockMovement is an immutable ledger entry. Rows are never updated or
// deleted; corrections are new entries.
// Invariant: QuantityAfter = QuantityBefore + ChangeAmount and QuantityAfter >= 0.
// Seq is assigned by the database on insert and orders the ledger; CreatedAt
// is informational and may tie or skew across instances.
type StockMovement struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Seq              int64     `gorm:"autoIncrement;uniqueIndex;not null;index:idx_stock_movements_variant_seq,priority:2"`
	ProductVariantID uuid.UUID `gorm:"type:uuid;not null;index:idx_stock_movements_variant_seq,priority:1"`
	ChangeAmount     int       `gorm:"not null"` // positive = in, negative = out
	Reason           string    `gorm:"type:varchar(20);not null"`
	QuantityBefore   int       `gorm:"not null"`
	QuantityAfter    int       `gorm:"not null"`
	ReferenceID      string    `gorm:"type:varchar(100)"`
	CreatedBy        string    `gorm:"type:varchar(255);not null"`
	CreatedAt        time.Time `gorm:"index"`

	ProductVariant *ProductVariant `gorm:"foreignKey:ProductVariantID"`
}
