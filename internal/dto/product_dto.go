package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateProductRequest struct {
	Name        string  `json:"name"        validate:"required,min=2,max=120"`
	Category    string  `json:"category"    validate:"required"`
	Description *string `json:"description"`
}

// CreateVariantRequest creates a variant and, when InitialQuantity > 0, its
// INITIAL stock movement in the same transaction.
type CreateVariantRequest struct {
	SKU               string          `json:"sku"                 validate:"required,min=3,max=40"`
	Name              string          `json:"name"                validate:"required,min=1,max=120"`
	InitialQuantity   int             `json:"initial_quantity"    validate:"min=0"`
	LowStockThreshold int             `json:"low_stock_threshold" validate:"min=0"`
	CostPrice         decimal.Decimal `json:"cost_price"          validate:"required"`
	SalePrice         decimal.Decimal `json:"sale_price"          validate:"required"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type ProductFilter struct {
	Name     string `form:"name"`
	Category string `form:"category"`
	Page     int    `form:"page,default=1"  validate:"min=1"`
	Limit    int    `form:"limit,default=20" validate:"min=1,max=100"`
}

type VariantFilter struct {
	ProductID string `form:"product_id" validate:"omitempty,uuid"`
	SKU       string `form:"sku"`
	LowStock  bool   `form:"low_stock"`
	Page      int    `form:"page,default=1"  validate:"min=1"`
	Limit     int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type VariantResponse struct {
	ID                string          `json:"id"`
	ProductID         string          `json:"product_id"`
	SKU               string          `json:"sku"`
	Name              string          `json:"name"`
	Quantity          int             `json:"quantity"`
	LowStockThreshold int             `json:"low_stock_threshold"`
	LowStock          bool            `json:"low_stock"`
	CostPrice         decimal.Decimal `json:"cost_price"`
	SalePrice         decimal.Decimal `json:"sale_price"`
	Active            bool            `json:"active"`
}

type ProductResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Category    string            `json:"category"`
	Description *string           `json:"description"`
	Active      bool              `json:"active"`
	Variants    []VariantResponse `json:"variants"`
}

type ProductListResponse struct {
	Data  []ProductResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

type VariantListResponse struct {
	Data  []VariantResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}
