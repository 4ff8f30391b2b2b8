package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/YarKhan02/Workshop-sub000/internal/dto"
	"github.com/YarKhan02/Workshop-sub000/internal/model"
	"github.com/YarKhan02/Workshop-sub000/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductService manages the catalog. Stock balances are read here but only
// ever written through StockLedgerService.
type ProductService interface {
	CreateProduct(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error)
	ListProducts(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error)
	// CreateVariantWithStock inserts the variant and its INITIAL movement in
	// one transaction so the balance and the ledger start out consistent.
	CreateVariantWithStock(ctx context.Context, productID uuid.UUID, req dto.CreateVariantRequest, actor string) (*dto.VariantResponse, error)
	GetVariant(ctx context.Context, id uuid.UUID) (*dto.VariantResponse, error)
	ListVariants(ctx context.Context, filter dto.VariantFilter) (*dto.VariantListResponse, error)
}

type productService struct {
	repo   repository.ProductRepository
	ledger StockLedgerService
	tx     repository.TxRunner
	events EventPublisher
}

func NewProductService(repo repository.ProductRepository, ledger StockLedgerService, tx repository.TxRunner, events EventPublisher) ProductService {
	return &productService{repo: repo, ledger: ledger, tx: tx, events: publisherOrNoop(events)}
}

func (s *productService) CreateProduct(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	p := &model.Product{
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		Active:      true,
	}
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return productToResponse(p), nil
}

func (s *productService) GetProduct(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	p, err := s.repo.FindProductByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, notFoundErr(CodeProductNotFound, "product %s not found", id)
		}
		return nil, err
	}
	return productToResponse(p), nil
}

func (s *productService) ListProducts(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	products, total, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		data = append(data, *productToResponse(&products[i]))
	}
	return &dto.ProductListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *productService) CreateVariantWithStock(ctx context.Context, productID uuid.UUID, req dto.CreateVariantRequest, actor string) (*dto.VariantResponse, error) {
	if req.InitialQuantity < 0 {
		return nil, validationErr(CodeInvalidQuantity, "initial_quantity must not be negative")
	}
	if req.SalePrice.IsNegative() || req.CostPrice.IsNegative() {
		return nil, validationErr(CodeInvalidInput, "prices must not be negative")
	}
	if _, err := s.repo.FindProductByID(ctx, productID); err != nil {
		if isNotFound(err) {
			return nil, notFoundErr(CodeProductNotFound, "product %s not found", productID)
		}
		return nil, err
	}

	v := &model.ProductVariant{
		ProductID:         productID,
		SKU:               req.SKU,
		Name:              req.Name,
		Quantity:          req.InitialQuantity,
		LowStockThreshold: req.LowStockThreshold,
		CostPrice:         req.CostPrice,
		SalePrice:         req.SalePrice,
		Active:            true,
	}
	var mov *model.StockMovement
	err := runTx(ctx, s.tx, func(tx *gorm.DB) error {
		if err := s.repo.CreateVariantTx(tx, v); err != nil {
			return err
		}
		var err error
		mov, err = s.ledger.CreateInitialStockTx(tx, v.ID, req.InitialQuantity, actor, "variant:"+v.SKU)
		return err
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, validationErr(CodeInvalidInput, "sku %q already exists", req.SKU)
		}
		return nil, fmt.Errorf("create variant: %w", err)
	}
	if mov != nil {
		s.events.StockMoved(ctx, mov)
	}
	return variantToResponse(v), nil
}

func (s *productService) GetVariant(ctx context.Context, id uuid.UUID) (*dto.VariantResponse, error) {
	v, err := s.repo.FindVariantByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, variantNotFound(id)
		}
		return nil, err
	}
	return variantToResponse(v), nil
}

func (s *productService) ListVariants(ctx context.Context, filter dto.VariantFilter) (*dto.VariantListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	variants, total, err := s.repo.ListVariants(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.VariantResponse, 0, len(variants))
	for i := range variants {
		data = append(data, *variantToResponse(&variants[i]))
	}
	return &dto.VariantListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func productToResponse(p *model.Product) *dto.ProductResponse {
	variants := make([]dto.VariantResponse, 0, len(p.Variants))
	for i := range p.Variants {
		variants = append(variants, *variantToResponse(&p.Variants[i]))
	}
	return &dto.ProductResponse{
		ID:          p.ID.String(),
		Name:        p.Name,
		Category:    p.Category,
		Description: p.Description,
		Active:      p.Active,
		Variants:    variants,
	}
}

func variantToResponse(v *model.ProductVariant) *dto.VariantResponse {
	return &dto.VariantResponse{
		ID:                v.ID.String(),
		ProductID:         v.ProductID.String(),
		SKU:               v.SKU,
		Name:              v.Name,
		Quantity:          v.Quantity,
		LowStockThreshold: v.LowStockThreshold,
		LowStock:          v.IsLowStock(),
		CostPrice:         v.CostPrice,
		SalePrice:         v.SalePrice,
		Active:            v.Active,
	}
}
