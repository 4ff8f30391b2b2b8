package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/YarKhan02/Workshop-sub000/internal/dto"
	"github.com/YarKhan02/Workshop-sub000/internal/metrics"
	"github.com/YarKhan02/Workshop-sub000/internal/model"
	"github.com/YarKhan02/Workshop-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AdjustmentSummary describes one committed adjustment.
type AdjustmentSummary struct {
	VariantID        uuid.UUID
	QuantityBefore   int
	QuantityAfter    int
	AdjustmentAmount int
	MovementID       uuid.UUID
}

// StockSummary is the read-only audit view of a variant's stock.
type StockSummary struct {
	Variant      *model.ProductVariant
	Totals       repository.MovementTotals
	StockValue   decimal.Decimal
	LastMovement *model.StockMovement
}

// RecomputeResult reports a replay of a variant's ledger.
type RecomputeResult struct {
	VariantID uuid.UUID
	Stored    int
	Replayed  int
	Corrected bool
}

// StockLedgerService serializes every quantity change of a variant through a
// row lock and records it as an append-only StockMovement. The variant's
// quantity column is a cache of the latest movement's QuantityAfter.
type StockLedgerService interface {
	// CreateInitialStock appends the INITIAL movement (0 → initialQuantity).
	// It does not write the variant's quantity; the caller has set it at
	// creation. initialQuantity <= 0 is a no-op returning (nil, nil).
	// HTTP variant creation goes through CreateInitialStockTx instead.
	CreateInitialStock(ctx context.Context, variantID uuid.UUID, initialQuantity int, createdBy, referenceID string) (*model.StockMovement, error)
	// CreateInitialStockTx is CreateInitialStock inside the caller's transaction.
	CreateInitialStockTx(tx *gorm.DB, variantID uuid.UUID, initialQuantity int, createdBy, referenceID string) (*model.StockMovement, error)

	AdjustStock(ctx context.Context, variantID uuid.UUID, amount int, reason, referenceID, actor string) (*AdjustmentSummary, error)
	CreateSaleMovement(ctx context.Context, variantID uuid.UUID, soldQuantity int, referenceID, actor string) (*AdjustmentSummary, error)
	CreateRestockMovement(ctx context.Context, variantID uuid.UUID, restockQuantity int, referenceID, actor string) (*AdjustmentSummary, error)
	CreateDamageMovement(ctx context.Context, variantID uuid.UUID, damagedQuantity int, referenceID, actor string) (*AdjustmentSummary, error)

	// TrackQuantityChange records old → new for a caller that already wrote
	// the quantity itself, such as a bulk import run from a script. No lock is
	// taken; the caller owns the race. It has no HTTP route because it never
	// touches the balance.
	TrackQuantityChange(ctx context.Context, variantID uuid.UUID, oldQuantity, newQuantity int, reason, referenceID, actor string) (*model.StockMovement, error)
	// RecordStockCount sets the balance to a physically counted quantity
	// under the variant lock and records the difference as an ADJUSTMENT.
	// A count equal to the balance writes nothing.
	RecordStockCount(ctx context.Context, variantID uuid.UUID, counted int, referenceID, actor string) (*AdjustmentSummary, error)

	// GetStockHistory returns movements newest first; limit <= 0 means all.
	GetStockHistory(ctx context.Context, variantID uuid.UUID, limit int) ([]model.StockMovement, error)
	GetStockSummary(ctx context.Context, variantID uuid.UUID) (*StockSummary, error)
	ListMovements(ctx context.Context, filter dto.StockMovementFilter) ([]model.StockMovement, int64, error)

	// RecomputeQuantityFromHistory replays the ledger and repairs the
	// variant's quantity when it drifted.
	RecomputeQuantityFromHistory(ctx context.Context, variantID uuid.UUID) (*RecomputeResult, error)
}

type stockLedgerService struct {
	products  repository.ProductRepository
	movements repository.StockMovementRepository
	tx        repository.TxRunner
	events    EventPublisher
	jobs      JobDispatcher
}

func NewStockLedgerService(
	products repository.ProductRepository,
	movements repository.StockMovementRepository,
	tx repository.TxRunner,
	events EventPublisher,
	jobs JobDispatcher,
) StockLedgerService {
	return &stockLedgerService{
		products:  products,
		movements: movements,
		tx:        tx,
		events:    publisherOrNoop(events),
		jobs:      jobs,
	}
}

func variantNotFound(id uuid.UUID) error {
	return notFoundErr(CodeVariantNotFound, "product variant %s not found", id)
}

func (s *stockLedgerService) CreateInitialStock(ctx context.Context, variantID uuid.UUID, initialQuantity int, createdBy, referenceID string) (*model.StockMovement, error) {
	if initialQuantity <= 0 {
		return nil, nil
	}
	if _, err := s.products.FindVariantByID(ctx, variantID); err != nil {
		if isNotFound(err) {
			return nil, variantNotFound(variantID)
		}
		return nil, fmt.Errorf("find variant: %w", err)
	}
	var mov *model.StockMovement
	err := runTx(ctx, s.tx, func(tx *gorm.DB) error {
		var err error
		mov, err = s.CreateInitialStockTx(tx, variantID, initialQuantity, createdBy, referenceID)
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.StockMovementsTotal.WithLabelValues(model.ReasonInitial).Inc()
	s.events.StockMoved(ctx, mov)
	return mov, nil
}

func (s *stockLedgerService) CreateInitialStockTx(tx *gorm.DB, variantID uuid.UUID, initialQuantity int, createdBy, referenceID string) (*model.StockMovement, error) {
	if initialQuantity <= 0 {
		return nil, nil
	}
	mov := &model.StockMovement{
		ProductVariantID: variantID,
		ChangeAmount:     initialQuantity,
		Reason:           model.ReasonInitial,
		QuantityBefore:   0,
		QuantityAfter:    initialQuantity,
		ReferenceID:      referenceID,
		CreatedBy:        actorOrSystem(createdBy),
	}
	if err := s.movements.CreateTx(tx, mov); err != nil {
		return nil, fmt.Errorf("create initial movement: %w", err)
	}
	return mov, nil
}

// AdjustStock is the canonical read-modify-write path:
//  1. lock the variant row
//  2. read quantity_before under the lock
//  3. reject if the result would be negative (nothing is written)
//  4. write the new quantity and append the movement in the same tx
func (s *stockLedgerService) AdjustStock(ctx context.Context, variantID uuid.UUID, amount int, reason, referenceID, actor string) (*AdjustmentSummary, error) {
	if amount == 0 {
		return nil, validationErr(CodeInvalidQuantity, "adjustment amount must not be zero")
	}
	if !model.ValidReason(reason) {
		return nil, validationErr(CodeInvalidReason, "unknown reason %q", reason)
	}
	if reason == model.ReasonInitial {
		return nil, validationErr(CodeInvalidReason, "INITIAL is only recorded at variant creation")
	}

	start := time.Now()
	var (
		summary *AdjustmentSummary
		mov     *model.StockMovement
		variant *model.ProductVariant
	)
	err := runTx(ctx, s.tx, func(tx *gorm.DB) error {
		v, err := s.products.FindVariantForUpdateTx(tx, variantID)
		if err != nil {
			if isNotFound(err) {
				return variantNotFound(variantID)
			}
			return fmt.Errorf("lock variant %s: %w", variantID, err)
		}

		before := v.Quantity
		after := before + amount
		if after < 0 {
			return invariantErr(CodeNegativeStock,
				"adjustment of %d would leave %s at %d (current quantity %d)", amount, v.SKU, after, before)
		}

		if err := s.products.UpdateQuantityTx(tx, v.ID, after); err != nil {
			return fmt.Errorf("update quantity: %w", err)
		}
		mov = &model.StockMovement{
			ProductVariantID: v.ID,
			ChangeAmount:     amount,
			Reason:           reason,
			QuantityBefore:   before,
			QuantityAfter:    after,
			ReferenceID:      referenceID,
			CreatedBy:        actorOrSystem(actor),
		}
		if err := s.movements.CreateTx(tx, mov); err != nil {
			return fmt.Errorf("create movement: %w", err)
		}

		v.Quantity = after
		variant = v
		summary = &AdjustmentSummary{
			VariantID:        v.ID,
			QuantityBefore:   before,
			QuantityAfter:    after,
			AdjustmentAmount: amount,
			MovementID:       mov.ID,
		}
		return nil
	})
	metrics.StockAdjustLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		var le *LedgerError
		if errors.As(err, &le) {
			metrics.StockAdjustRejectedTotal.WithLabelValues(le.Code).Inc()
		}
		return nil, err
	}

	metrics.StockMovementsTotal.WithLabelValues(reason).Inc()
	s.events.StockMoved(ctx, mov)
	s.alertIfCrossedThreshold(ctx, variant, summary.QuantityBefore)
	return summary, nil
}

func (s *stockLedgerService) alertIfCrossedThreshold(ctx context.Context, v *model.ProductVariant, before int) {
	if s.jobs == nil || !v.IsLowStock() || before <= v.LowStockThreshold {
		return
	}
	if err := s.jobs.EnqueueStockAlert(ctx, v); err != nil {
		log.Warn().Err(err).Str("sku", v.SKU).Msg("failed to enqueue low stock alert")
	}
}

func positive(name string, qty int) error {
	if qty <= 0 {
		return validationErr(CodeInvalidQuantity, "%s must be greater than zero, got %d", name, qty)
	}
	return nil
}

func (s *stockLedgerService) CreateSaleMovement(ctx context.Context, variantID uuid.UUID, soldQuantity int, referenceID, actor string) (*AdjustmentSummary, error) {
	if err := positive("sold quantity", soldQuantity); err != nil {
		return nil, err
	}
	return s.AdjustStock(ctx, variantID, -soldQuantity, model.ReasonSale, referenceID, actor)
}

func (s *stockLedgerService) CreateRestockMovement(ctx context.Context, variantID uuid.UUID, restockQuantity int, referenceID, actor string) (*AdjustmentSummary, error) {
	if err := positive("restock quantity", restockQuantity); err != nil {
		return nil, err
	}
	return s.AdjustStock(ctx, variantID, restockQuantity, model.ReasonPurchase, referenceID, actor)
}

func (s *stockLedgerService) CreateDamageMovement(ctx context.Context, variantID uuid.UUID, damagedQuantity int, referenceID, actor string) (*AdjustmentSummary, error) {
	if err := positive("damaged quantity", damagedQuantity); err != nil {
		return nil, err
	}
	return s.AdjustStock(ctx, variantID, -damagedQuantity, model.ReasonDamage, referenceID, actor)
}

func (s *stockLedgerService) TrackQuantityChange(ctx context.Context, variantID uuid.UUID, oldQuantity, newQuantity int, reason, referenceID, actor string) (*model.StockMovement, error) {
	if oldQuantity < 0 || newQuantity < 0 {
		return nil, validationErr(CodeInvalidQuantity, "quantities must not be negative (old %d, new %d)", oldQuantity, newQuantity)
	}
	if !model.ValidReason(reason) {
		return nil, validationErr(CodeInvalidReason, "unknown reason %q", reason)
	}
	if oldQuantity == newQuantity {
		return nil, nil
	}
	if _, err := s.products.FindVariantByID(ctx, variantID); err != nil {
		if isNotFound(err) {
			return nil, variantNotFound(variantID)
		}
		return nil, fmt.Errorf("find variant: %w", err)
	}

	var mov *model.StockMovement
	err := runTx(ctx, s.tx, func(tx *gorm.DB) error {
		var err error
		mov, err = s.trackTx(tx, variantID, oldQuantity, newQuantity, reason, referenceID, actor)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("track quantity change: %w", err)
	}
	metrics.StockMovementsTotal.WithLabelValues(reason).Inc()
	s.events.StockMoved(ctx, mov)
	return mov, nil
}

func (s *stockLedgerService) trackTx(tx *gorm.DB, variantID uuid.UUID, oldQuantity, newQuantity int, reason, referenceID, actor string) (*model.StockMovement, error) {
	mov := &model.StockMovement{
		ProductVariantID: variantID,
		ChangeAmount:     newQuantity - oldQuantity,
		Reason:           reason,
		QuantityBefore:   oldQuantity,
		QuantityAfter:    newQuantity,
		ReferenceID:      referenceID,
		CreatedBy:        actorOrSystem(actor),
	}
	if err := s.movements.CreateTx(tx, mov); err != nil {
		return nil, err
	}
	return mov, nil
}

func (s *stockLedgerService) RecordStockCount(ctx context.Context, variantID uuid.UUID, counted int, referenceID, actor string) (*AdjustmentSummary, error) {
	if counted < 0 {
		return nil, validationErr(CodeInvalidQuantity, "counted quantity must not be negative (got %d)", counted)
	}
	var (
		summary *AdjustmentSummary
		mov     *model.StockMovement
		variant *model.ProductVariant
	)
	err := runTx(ctx, s.tx, func(tx *gorm.DB) error {
		v, err := s.products.FindVariantForUpdateTx(tx, variantID)
		if err != nil {
			if isNotFound(err) {
				return variantNotFound(variantID)
			}
			return fmt.Errorf("lock variant %s: %w", variantID, err)
		}
		before := v.Quantity
		summary = &AdjustmentSummary{
			VariantID:        v.ID,
			QuantityBefore:   before,
			QuantityAfter:    counted,
			AdjustmentAmount: counted - before,
		}
		if counted == before {
			return nil
		}
		if err := s.products.UpdateQuantityTx(tx, v.ID, counted); err != nil {
			return fmt.Errorf("update quantity: %w", err)
		}
		mov, err = s.trackTx(tx, v.ID, before, counted, model.ReasonAdjustment, referenceID, actor)
		if err != nil {
			return fmt.Errorf("create movement: %w", err)
		}
		summary.MovementID = mov.ID
		v.Quantity = counted
		variant = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	if mov == nil {
		return summary, nil
	}
	metrics.StockMovementsTotal.WithLabelValues(model.ReasonAdjustment).Inc()
	s.events.StockMoved(ctx, mov)
	s.alertIfCrossedThreshold(ctx, variant, summary.QuantityBefore)
	log.Info().
		Str("sku", variant.SKU).
		Int("before", summary.QuantityBefore).
		Int("counted", counted).
		Msg("stock count recorded")
	return summary, nil
}

func (s *stockLedgerService) GetStockHistory(ctx context.Context, variantID uuid.UUID, limit int) ([]model.StockMovement, error) {
	if _, err := s.products.FindVariantByID(ctx, variantID); err != nil {
		if isNotFound(err) {
			return nil, variantNotFound(variantID)
		}
		return nil, fmt.Errorf("find variant: %w", err)
	}
	movements, err := s.movements.ListByVariant(ctx, variantID, limit)
	if err != nil {
		return nil, fmt.Errorf("stock history: %w", err)
	}
	return movements, nil
}

func (s *stockLedgerService) GetStockSummary(ctx context.Context, variantID uuid.UUID) (*StockSummary, error) {
	v, err := s.products.FindVariantByID(ctx, variantID)
	if err != nil {
		if isNotFound(err) {
			return nil, variantNotFound(variantID)
		}
		return nil, fmt.Errorf("find variant: %w", err)
	}
	totals, err := s.movements.Totals(ctx, variantID)
	if err != nil {
		return nil, fmt.Errorf("movement totals: %w", err)
	}
	last, err := s.movements.ListByVariant(ctx, variantID, 1)
	if err != nil {
		return nil, fmt.Errorf("last movement: %w", err)
	}

	summary := &StockSummary{
		Variant:    v,
		Totals:     totals,
		StockValue: v.CostPrice.Mul(decimal.NewFromInt(int64(v.Quantity))),
	}
	if len(last) > 0 {
		summary.LastMovement = &last[0]
	}
	return summary, nil
}

func (s *stockLedgerService) ListMovements(ctx context.Context, filter dto.StockMovementFilter) ([]model.StockMovement, int64, error) {
	if filter.Reason != "" && !model.ValidReason(filter.Reason) {
		return nil, 0, validationErr(CodeInvalidReason, "unknown reason %q", filter.Reason)
	}
	return s.movements.List(ctx, filter)
}

func (s *stockLedgerService) RecomputeQuantityFromHistory(ctx context.Context, variantID uuid.UUID) (*RecomputeResult, error) {
	var res *RecomputeResult
	err := runTx(ctx, s.tx, func(tx *gorm.DB) error {
		v, err := s.products.FindVariantForUpdateTx(tx, variantID)
		if err != nil {
			if isNotFound(err) {
				return variantNotFound(variantID)
			}
			return fmt.Errorf("lock variant %s: %w", variantID, err)
		}
		replayed, err := s.movements.SumChangesTx(tx, variantID)
		if err != nil {
			return fmt.Errorf("replay movements: %w", err)
		}
		res = &RecomputeResult{VariantID: v.ID, Stored: v.Quantity, Replayed: replayed}
		if replayed == v.Quantity {
			return nil
		}
		if replayed < 0 {
			return invariantErr(CodeNegativeStock,
				"ledger of %s replays to %d; refusing to store a negative quantity", v.SKU, replayed)
		}
		res.Corrected = true
		return s.products.UpdateQuantityTx(tx, v.ID, replayed)
	})
	if err != nil {
		return nil, err
	}
	if res.Corrected {
		metrics.StockDriftCorrectedTotal.Inc()
		log.Warn().
			Str("variant_id", variantID.String()).
			Int("stored", res.Stored).
			Int("replayed", res.Replayed).
			Msg("stock drift corrected from movement history")
	}
	return res, nil
}
