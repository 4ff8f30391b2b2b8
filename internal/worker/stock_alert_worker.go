package worker

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// StockAlertWorker reports variants that reached their low-stock threshold.
// Delivery is a structured warning; log shipping routes it to the operators.
type StockAlertWorker struct{}

func NewStockAlertWorker() *StockAlertWorker { return &StockAlertWorker{} }

func (w *StockAlertWorker) Process(_ context.Context, raw json.RawMessage) error {
	var payload StockAlertPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("stock_alert_worker: invalid payload")
		return nil
	}
	log.Warn().
		Str("variant_id", payload.VariantID).
		Str("sku", payload.SKU).
		Str("name", payload.Name).
		Int("quantity", payload.Quantity).
		Int("threshold", payload.Threshold).
		Msg("stock_alert_worker: low stock")
	return nil
}
