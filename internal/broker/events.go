package broker

import "time"

// Event types carried in the Type field.
const (
	EventStockMoved  = "stock.moved"
	EventSlotChanged = "availability.slot_changed"
)

type StockMovedEvent struct {
	Type             string    `json:"type"`
	MovementID       string    `json:"movement_id"`
	ProductVariantID string    `json:"product_variant_id"`
	ChangeAmount     int       `json:"change_amount"`
	Reason           string    `json:"reason"`
	QuantityBefore   int       `json:"quantity_before"`
	QuantityAfter    int       `json:"quantity_after"`
	ReferenceID      string    `json:"reference_id,omitempty"`
	CreatedBy        string    `json:"created_by"`
	OccurredAt       time.Time `json:"occurred_at"`
}

type SlotChangedEvent struct {
	Type           string    `json:"type"`
	Action         string    `json:"action"`
	Date           string    `json:"date"`
	TotalSlots     int       `json:"total_slots"`
	AvailableSlots int       `json:"available_slots"`
	IsAvailable    bool      `json:"is_available"`
	OccurredAt     time.Time `json:"occurred_at"`
}
