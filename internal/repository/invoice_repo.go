package repository

import (
	"context"

	"github.com/YarKhan02/Workshop-sub000/internal/dto"
	"github.com/YarKhan02/Workshop-sub000/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InvoiceRepository interface {
	Create(ctx context.Context, inv *model.Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	// MarkVoid flips an issued invoice to void. It reports false when the
	// invoice was not issued, so only one concurrent caller wins.
	MarkVoid(ctx context.Context, id uuid.UUID, reason string) (bool, error)
	List(ctx context.Context, filter dto.InvoiceFilter) ([]model.Invoice, int64, error)
}

type invoiceRepo struct{ db *gorm.DB }

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository { return &invoiceRepo{db: db} }

// Create inserts the invoice; GORM saves Items through the association.
func (r *invoiceRepo) Create(ctx context.Context, inv *model.Invoice) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *invoiceRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var inv model.Invoice
	err := r.db.WithContext(ctx).Preload("Items.ProductVariant").First(&inv, "id = ?", id).Error
	return &inv, err
}

func (r *invoiceRepo) MarkVoid(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Invoice{}).
		Where("id = ? AND status = ?", id, model.InvoiceIssued).
		Updates(map[string]interface{}{
			"status":      model.InvoiceVoid,
			"void_reason": reason,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *invoiceRepo) List(ctx context.Context, filter dto.InvoiceFilter) ([]model.Invoice, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Invoice{})
	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Date != "" {
		q = q.Where("DATE(created_at) = ?", filter.Date)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	_, limit, offset := paginate(filter.Page, filter.Limit, 50, 200)
	var invoices []model.Invoice
	err := q.Preload("Items.ProductVariant").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&invoices).Error
	return invoices, total, err
}
