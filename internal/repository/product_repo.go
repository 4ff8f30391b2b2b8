package repository

import (
	"context"

	"github.com/YarKhan02/Workshop-sub000/internal/dto"
	"github.com/YarKhan02/Workshop-sub000/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRepository defines the data access contract for products and their
// variants. Services depend on this interface, not on the concrete GORM
// implementation, so unit tests can swap in an in-memory stub.
type ProductRepository interface {
	CreateProduct(ctx context.Context, p *model.Product) error
	FindProductByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	ListProducts(ctx context.Context, filter dto.ProductFilter) ([]model.Product, int64, error)

	CreateVariantTx(tx *gorm.DB, v *model.ProductVariant) error
	FindVariantByID(ctx context.Context, id uuid.UUID) (*model.ProductVariant, error)
	ListVariants(ctx context.Context, filter dto.VariantFilter) ([]model.ProductVariant, int64, error)
	ListVariantIDs(ctx context.Context) ([]uuid.UUID, error)

	// Stock balance. Only the stock ledger calls these, inside its transaction.
	FindVariantForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.ProductVariant, error)
	UpdateQuantityTx(tx *gorm.DB, id uuid.UUID, quantity int) error
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) CreateProduct(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Omit("Variants").Create(p).Error
}

func (r *productRepo) FindProductByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Preload("Variants").First(&p, "id = ?", id).Error
	return &p, err
}

func (r *productRepo) ListProducts(ctx context.Context, filter dto.ProductFilter) ([]model.Product, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Product{}).Where("active = ?", true)
	if filter.Name != "" {
		q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Name+"%")
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	_, limit, offset := paginate(filter.Page, filter.Limit, 20, 100)
	var products []model.Product
	err := q.Preload("Variants").Order("name ASC").Offset(offset).Limit(limit).Find(&products).Error
	return products, total, err
}

func (r *productRepo) CreateVariantTx(tx *gorm.DB, v *model.ProductVariant) error {
	return tx.Omit("Product").Create(v).Error
}

func (r *productRepo) FindVariantByID(ctx context.Context, id uuid.UUID) (*model.ProductVariant, error) {
	var v model.ProductVariant
	err := r.db.WithContext(ctx).First(&v, "id = ?", id).Error
	return &v, err
}

func (r *productRepo) ListVariants(ctx context.Context, filter dto.VariantFilter) ([]model.ProductVariant, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.ProductVariant{}).Where("active = ?", true)
	if filter.ProductID != "" {
		q = q.Where("product_id = ?", filter.ProductID)
	}
	if filter.SKU != "" {
		q = q.Where("sku = ?", filter.SKU)
	}
	if filter.LowStock {
		q = q.Where("quantity <= low_stock_threshold")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	_, limit, offset := paginate(filter.Page, filter.Limit, 20, 100)
	var variants []model.ProductVariant
	err := q.Order("sku ASC").Offset(offset).Limit(limit).Find(&variants).Error
	return variants, total, err
}

func (r *productRepo) ListVariantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.ProductVariant{}).
		Where("active = ?", true).Pluck("id", &ids).Error
	return ids, err
}

func (r *productRepo) FindVariantForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.ProductVariant, error) {
	var v model.ProductVariant
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&v, "id = ?", id).Error
	return &v, err
}

func (r *productRepo) UpdateQuantityTx(tx *gorm.DB, id uuid.UUID, quantity int) error {
	return tx.Model(&model.ProductVariant{}).Where("id = ?", id).Update("quantity", quantity).Error
}
