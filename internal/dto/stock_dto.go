package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// AdjustStockRequest is the body of POST /v1/variants/:id/stock/adjust.
// Amount is signed; zero is rejected.
type AdjustStockRequest struct {
	Amount      int    `json:"amount"       validate:"required"`
	Reason      string `json:"reason"       validate:"required,oneof=PURCHASE SALE ADJUSTMENT DAMAGE RETURN TRANSFER"`
	ReferenceID string `json:"reference_id" validate:"max=100"`
}

// StockQuantityRequest is shared by the sale / restock / damage endpoints.
type StockQuantityRequest struct {
	Quantity    int    `json:"quantity"     validate:"required,min=1"`
	ReferenceID string `json:"reference_id" validate:"max=100"`
}

// StockCountRequest is the body of POST /v1/variants/:id/stock/count.
type StockCountRequest struct {
	CountedQuantity *int   `json:"counted_quantity" validate:"required,min=0"`
	ReferenceID     string `json:"reference_id"     validate:"max=100"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type StockHistoryFilter struct {
	Limit int `form:"limit" validate:"min=0,max=1000"`
}

type StockMovementFilter struct {
	VariantID   string `form:"variant_id"   validate:"omitempty,uuid"`
	Reason      string `form:"reason"`
	ReferenceID string `form:"reference_id"`
	Page        int    `form:"page,default=1"   validate:"min=1"`
	Limit       int    `form:"limit,default=100" validate:"min=1,max=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type StockMovementResponse struct {
	ID             string `json:"id"`
	VariantID      string `json:"variant_id"`
	ChangeAmount   int    `json:"change_amount"`
	Reason         string `json:"reason"`
	QuantityBefore int    `json:"quantity_before"`
	QuantityAfter  int    `json:"quantity_after"`
	ReferenceID    string `json:"reference_id"`
	CreatedBy      string `json:"created_by"`
	CreatedAt      string `json:"created_at"`
}

type StockMovementListResponse struct {
	Data  []StockMovementResponse `json:"data"`
	Total int64                   `json:"total"`
	Page  int                     `json:"page"`
	Limit int                     `json:"limit"`
}

type AdjustmentSummaryResponse struct {
	VariantID        string `json:"variant_id"`
	QuantityBefore   int    `json:"quantity_before"`
	QuantityAfter    int    `json:"quantity_after"`
	AdjustmentAmount int    `json:"adjustment_amount"`
	MovementID       string `json:"movement_id"`
}

type StockSummaryResponse struct {
	VariantID     string                 `json:"variant_id"`
	SKU           string                 `json:"sku"`
	Quantity      int                    `json:"quantity"`
	LowStock      bool                   `json:"low_stock"`
	MovementCount int64                  `json:"movement_count"`
	TotalIn       int64                  `json:"total_in"`
	TotalOut      int64                  `json:"total_out"`
	StockValue    decimal.Decimal        `json:"stock_value"`
	LastMovement  *StockMovementResponse `json:"last_movement"`
}

type RecomputeResponse struct {
	VariantID string `json:"variant_id"`
	Stored    int    `json:"stored"`
	Replayed  int    `json:"replayed"`
	Corrected bool   `json:"corrected"`
}
