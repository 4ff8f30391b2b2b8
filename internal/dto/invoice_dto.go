package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type InvoiceItemRequest struct {
	VariantID string `json:"variant_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity"   validate:"required,min=1"`
	// UnitPrice overrides the variant sale price when set.
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

type CreateInvoiceRequest struct {
	CustomerName string               `json:"customer_name" validate:"required,min=2,max=120"`
	BookingID    *string              `json:"booking_id"    validate:"omitempty,uuid"`
	Discount     decimal.Decimal      `json:"discount"      validate:"min=0"`
	Items        []InvoiceItemRequest `json:"items"         validate:"required,min=1,dive"`
}

type VoidInvoiceRequest struct {
	Reason string `json:"reason" validate:"required,min=5"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type InvoiceFilter struct {
	Date   string `form:"date"   validate:"omitempty,datetime=2006-01-02"`
	Status string `form:"status"`
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type InvoiceItemResponse struct {
	VariantID string          `json:"variant_id"`
	SKU       string          `json:"sku"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type InvoiceResponse struct {
	ID           string                `json:"id"`
	Number       string                `json:"number"`
	BookingID    *string               `json:"booking_id"`
	CustomerName string                `json:"customer_name"`
	Items        []InvoiceItemResponse `json:"items"`
	Subtotal     decimal.Decimal       `json:"subtotal"`
	Discount     decimal.Decimal       `json:"discount"`
	Total        decimal.Decimal       `json:"total"`
	Status       string                `json:"status"`
	CreatedBy    string                `json:"created_by"`
	CreatedAt    string                `json:"created_at"`
}

type InvoiceListResponse struct {
	Data  []InvoiceResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}
