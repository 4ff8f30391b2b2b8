package repository

import (
	"context"

	"github.com/YarKhan02/Workshop-sub000/internal/dto"
	"github.com/YarKhan02/Workshop-sub000/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MovementTotals aggregates a variant's ledger.
type MovementTotals struct {
	Count    int64
	TotalIn  int64
	TotalOut int64 // absolute value of all negative changes
}

// StockMovementRepository is append-only: there is deliberately no Update or Delete.
type StockMovementRepository interface {
	CreateTx(tx *gorm.DB, m *model.StockMovement) error
	// ListByVariant returns newest first by insertion sequence; limit <= 0
	// means no cap.
	ListByVariant(ctx context.Context, variantID uuid.UUID, limit int) ([]model.StockMovement, error)
	List(ctx context.Context, filter dto.StockMovementFilter) ([]model.StockMovement, int64, error)
	Totals(ctx context.Context, variantID uuid.UUID) (MovementTotals, error)
	// SumChangesTx replays the ledger: SUM(change_amount) for the variant.
	SumChangesTx(tx *gorm.DB, variantID uuid.UUID) (int, error)
}

type stockMovementRepo struct{ db *gorm.DB }

func NewStockMovementRepository(db *gorm.DB) StockMovementRepository {
	return &stockMovementRepo{db: db}
}

func (r *stockMovementRepo) CreateTx(tx *gorm.DB, m *model.StockMovement) error {
	return tx.Omit("ProductVariant").Create(m).Error
}

func (r *stockMovementRepo) ListByVariant(ctx context.Context, variantID uuid.UUID, limit int) ([]model.StockMovement, error) {
	q := r.db.WithContext(ctx).
		Where("product_variant_id = ?", variantID).
		Order("seq DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var movements []model.StockMovement
	err := q.Find(&movements).Error
	return movements, err
}

func (r *stockMovementRepo) List(ctx context.Context, filter dto.StockMovementFilter) ([]model.StockMovement, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.StockMovement{})
	if filter.VariantID != "" {
		q = q.Where("product_variant_id = ?", filter.VariantID)
	}
	if filter.Reason != "" {
		q = q.Where("reason = ?", filter.Reason)
	}
	if filter.ReferenceID != "" {
		q = q.Where("reference_id = ?", filter.ReferenceID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	_, limit, offset := paginate(filter.Page, filter.Limit, 100, 500)
	var movements []model.StockMovement
	err := q.Order("seq DESC").Offset(offset).Limit(limit).Find(&movements).Error
	return movements, total, err
}

func (r *stockMovementRepo) Totals(ctx context.Context, variantID uuid.UUID) (MovementTotals, error) {
	var row struct {
		Count    int64
		TotalIn  int64
		TotalOut int64
	}
	err := r.db.WithContext(ctx).Model(&model.StockMovement{}).
		Select(`COUNT(*) AS count,
			COALESCE(SUM(CASE WHEN change_amount > 0 THEN change_amount ELSE 0 END), 0) AS total_in,
			COALESCE(SUM(CASE WHEN change_amount < 0 THEN -change_amount ELSE 0 END), 0) AS total_out`).
		Where("product_variant_id = ?", variantID).
		Scan(&row).Error
	return MovementTotals{Count: row.Count, TotalIn: row.TotalIn, TotalOut: row.TotalOut}, err
}

func (r *stockMovementRepo) SumChangesTx(tx *gorm.DB, variantID uuid.UUID) (int, error) {
	var sum int
	err := tx.Model(&model.StockMovement{}).
		Select("COALESCE(SUM(change_amount), 0)").
		Where("product_variant_id = ?", variantID).
		Scan(&sum).Error
	return sum, err
}
