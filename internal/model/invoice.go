package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice statuses.
const (
	InvoiceIssued = "issued"
	InvoiceVoid   = "void"
)

// Invoice bills a customer for products consumed (and optionally a booking).
// Every item is backed by a SALE stock movement whose ReferenceID is Number.
type Invoice struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Number       string          `gorm:"uniqueIndex;not null"`
	BookingID    *uuid.UUID      `gorm:"type:uuid;index"`
	CustomerName string          `gorm:"not null"`
	Subtotal     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Discount     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Total        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Status       string          `gorm:"type:varchar(20);not null;default:'issued'"`
	CreatedBy    string          `gorm:"not null"`
	VoidReason   *string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Items []InvoiceItem `gorm:"foreignKey:InvoiceID"`
}

type InvoiceItem struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	InvoiceID        uuid.UUID       `gorm:"type:uuid;index;not null"`
	ProductVariantID uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity         int             `gorm:"not null"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Subtotal         decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	ProductVariant *ProductVariant `gorm:"foreignKey:ProductVariantID"`
}
