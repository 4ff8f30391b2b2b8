package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/YarKhan02/Workshop-sub000/internal/dto"
	"github.com/YarKhan02/Workshop-sub000/internal/model"
	"github.com/YarKhan02/Workshop-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// InvoiceService bills products used on a job. Each item is a SALE movement
// in the stock ledger referenced by the invoice number. Ledger writes and the
// invoice row are separate transactions, so failures are compensated with
// RETURN movements.
type InvoiceService interface {
	Create(ctx context.Context, actor string, req dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error)
	Void(ctx context.Context, id uuid.UUID, reason, actor string) error
	Get(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error)
	List(ctx context.Context, filter dto.InvoiceFilter) (*dto.InvoiceListResponse, error)
}

type invoiceService struct {
	repo     repository.InvoiceRepository
	products repository.ProductRepository
	ledger   StockLedgerService
}

func NewInvoiceService(repo repository.InvoiceRepository, products repository.ProductRepository, ledger StockLedgerService) InvoiceService {
	return &invoiceService{repo: repo, products: products, ledger: ledger}
}

func newInvoiceNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("INV-%s-%s", now.Format("20060102"), suffix)
}

type saleLine struct {
	variantID uuid.UUID
	quantity  int
}

func (s *invoiceService) Create(ctx context.Context, actor string, req dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if len(req.Items) == 0 {
		return nil, validationErr(CodeInvalidInput, "an invoice needs at least one item")
	}
	if req.Discount.IsNegative() {
		return nil, validationErr(CodeInvalidInput, "discount must not be negative")
	}

	var bookingID *uuid.UUID
	if req.BookingID != nil && *req.BookingID != "" {
		id, err := uuid.Parse(*req.BookingID)
		if err != nil {
			return nil, validationErr(CodeInvalidInput, "invalid booking_id")
		}
		bookingID = &id
	}

	// 1. Resolve variants and price the lines (outside any tx)
	items := make([]model.InvoiceItem, 0, len(req.Items))
	subtotal := decimal.Zero
	for _, it := range req.Items {
		vid, err := uuid.Parse(it.VariantID)
		if err != nil {
			return nil, validationErr(CodeInvalidInput, "invalid variant_id %q", it.VariantID)
		}
		if err := positive("quantity", it.Quantity); err != nil {
			return nil, err
		}
		v, err := s.products.FindVariantByID(ctx, vid)
		if err != nil {
			if isNotFound(err) {
				return nil, variantNotFound(vid)
			}
			return nil, err
		}
		if !v.Active {
			return nil, validationErr(CodeInvalidInput, "variant %s is inactive", v.SKU)
		}
		price := v.SalePrice
		if it.UnitPrice != nil {
			if it.UnitPrice.IsNegative() {
				return nil, validationErr(CodeInvalidInput, "unit_price must not be negative")
			}
			price = *it.UnitPrice
		}
		line := price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		subtotal = subtotal.Add(line)
		items = append(items, model.InvoiceItem{
			ProductVariantID: vid,
			Quantity:         it.Quantity,
			UnitPrice:        price,
			Subtotal:         line,
			ProductVariant:   v,
		})
	}
	if req.Discount.GreaterThan(subtotal) {
		return nil, validationErr(CodeInvalidInput, "discount %s exceeds subtotal %s", req.Discount, subtotal)
	}

	number := newInvoiceNumber(time.Now())

	// 2. One SALE movement per line; undo applied lines on the first failure
	applied := make([]saleLine, 0, len(items))
	for _, it := range items {
		if _, err := s.ledger.CreateSaleMovement(ctx, it.ProductVariantID, it.Quantity, number, actor); err != nil {
			s.compensate(ctx, number, actor, applied)
			return nil, err
		}
		applied = append(applied, saleLine{variantID: it.ProductVariantID, quantity: it.Quantity})
	}

	// 3. Persist the invoice
	inv := &model.Invoice{
		Number:       number,
		BookingID:    bookingID,
		CustomerName: req.CustomerName,
		Subtotal:     subtotal,
		Discount:     req.Discount,
		Total:        subtotal.Sub(req.Discount),
		Status:       model.InvoiceIssued,
		CreatedBy:    actorOrSystem(actor),
	}
	for _, it := range items {
		it.ProductVariant = nil
		inv.Items = append(inv.Items, it)
	}
	if err := s.repo.Create(ctx, inv); err != nil {
		s.compensate(ctx, number, actor, applied)
		return nil, fmt.Errorf("create invoice: %w", err)
	}

	resp := invoiceToResponse(inv)
	for i := range resp.Items {
		resp.Items[i].SKU = items[i].ProductVariant.SKU
	}
	return resp, nil
}

// compensate restores stock for sale lines whose invoice was not saved.
func (s *invoiceService) compensate(ctx context.Context, number, actor string, lines []saleLine) {
	for _, l := range lines {
		if _, err := s.ledger.AdjustStock(ctx, l.variantID, l.quantity, model.ReasonReturn, number, actor); err != nil {
			log.Error().Err(err).
				Str("invoice", number).
				Str("variant_id", l.variantID.String()).
				Int("quantity", l.quantity).
				Msg("invoice: compensation failed, stock needs manual correction")
			continue
		}
		log.Warn().Str("invoice", number).Str("variant_id", l.variantID.String()).
			Int("quantity", l.quantity).Msg("invoice: sale movement compensated")
	}
}

// Void marks the invoice void, then returns every line to stock. Only the
// caller whose status change lands posts the RETURN movements. A failed
// return is logged and reported; the remaining lines are still processed.
func (s *invoiceService) Void(ctx context.Context, id uuid.UUID, reason, actor string) error {
	inv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return notFoundErr(CodeInvoiceNotFound, "invoice %s not found", id)
		}
		return err
	}
	if inv.Status == model.InvoiceVoid {
		return invariantErr(CodeAlreadyVoid, "invoice %s is already void", inv.Number)
	}
	voided, err := s.repo.MarkVoid(ctx, id, reason)
	if err != nil {
		return fmt.Errorf("void invoice: %w", err)
	}
	if !voided {
		return invariantErr(CodeAlreadyVoid, "invoice %s is already void", inv.Number)
	}

	failed := 0
	for _, it := range inv.Items {
		if _, err := s.ledger.AdjustStock(ctx, it.ProductVariantID, it.Quantity, model.ReasonReturn, inv.Number, actor); err != nil {
			failed++
			log.Error().Err(err).Str("invoice", inv.Number).
				Str("variant_id", it.ProductVariantID.String()).
				Msg("invoice: failed to return stock on void")
		}
	}
	if failed > 0 {
		return fmt.Errorf("invoice %s voided but %d line(s) were not returned to stock", inv.Number, failed)
	}
	return nil
}

func (s *invoiceService) Get(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error) {
	inv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, notFoundErr(CodeInvoiceNotFound, "invoice %s not found", id)
		}
		return nil, err
	}
	return invoiceToResponse(inv), nil
}

func (s *invoiceService) List(ctx context.Context, filter dto.InvoiceFilter) (*dto.InvoiceListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	invoices, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		data = append(data, *invoiceToResponse(&invoices[i]))
	}
	return &dto.InvoiceListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func invoiceToResponse(inv *model.Invoice) *dto.InvoiceResponse {
	items := make([]dto.InvoiceItemResponse, 0, len(inv.Items))
	for _, it := range inv.Items {
		sku := ""
		if it.ProductVariant != nil {
			sku = it.ProductVariant.SKU
		}
		items = append(items, dto.InvoiceItemResponse{
			VariantID: it.ProductVariantID.String(),
			SKU:       sku,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Subtotal:  it.Subtotal,
		})
	}
	var bookingID *string
	if inv.BookingID != nil {
		s := inv.BookingID.String()
		bookingID = &s
	}
	return &dto.InvoiceResponse{
		ID:           inv.ID.String(),
		Number:       inv.Number,
		BookingID:    bookingID,
		CustomerName: inv.CustomerName,
		Items:        items,
		Subtotal:     inv.Subtotal,
		Discount:     inv.Discount,
		Total:        inv.Total,
		Status:       inv.Status,
		CreatedBy:    inv.CreatedBy,
		CreatedAt:    inv.CreatedAt.Format(time.RFC3339),
	}
}
