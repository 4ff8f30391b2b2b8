package service_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/YarKhan02/Workshop-sub000/internal/dto"
	"github.com/YarKhan02/Workshop-sub000/internal/model"
	"github.com/YarKhan02/Workshop-sub000/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type invoiceFixture struct {
	*ledgerFixture
	invoices *stubInvoiceRepo
	svc      service.InvoiceService
}

func newInvoiceFixture() *invoiceFixture {
	lf := newLedgerFixture()
	inv := newStubInvoiceRepo()
	return &invoiceFixture{
		ledgerFixture: lf,
		invoices:      inv,
		svc:           service.NewInvoiceService(inv, lf.products, lf.svc),
	}
}

func (f *invoiceFixture) priced(t *testing.T, sku string, qty int, price string) *model.ProductVariant {
	t.Helper()
	v := f.seed(t, sku, qty)
	f.products.variants[v.ID].SalePrice = decimal.RequireFromString(price)
	return v
}

func line(v *model.ProductVariant, qty int) dto.InvoiceItemRequest {
	return dto.InvoiceItemRequest{VariantID: v.ID.String(), Quantity: qty}
}

func (f *invoiceFixture) reasons(id uuid.UUID) []string {
	var out []string
	for _, m := range f.movements.all(id) {
		out = append(out, m.Reason)
	}
	return out
}

func TestInvoiceCreate_RecordsSales(t *testing.T) {
	f := newInvoiceFixture()
	wax := f.priced(t, "WAX-500", 10, "25.00")
	towel := f.priced(t, "TOWEL-3", 20, "4.50")

	resp, err := f.svc.Create(context.Background(), "staff@shop.test", dto.CreateInvoiceRequest{
		CustomerName: "Bilal",
		Discount:     decimal.RequireFromString("5"),
		Items:        []dto.InvoiceItemRequest{line(wax, 2), line(towel, 4)},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(resp.Number, "INV-"))
	assert.True(t, decimal.RequireFromString("68").Equal(resp.Subtotal))
	assert.True(t, decimal.RequireFromString("63").Equal(resp.Total))
	assert.Equal(t, model.InvoiceIssued, resp.Status)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "WAX-500", resp.Items[0].SKU)

	assert.Equal(t, 8, f.products.quantity(wax.ID))
	assert.Equal(t, 16, f.products.quantity(towel.ID))
	movs := f.movements.all(wax.ID)
	assert.Equal(t, resp.Number, movs[len(movs)-1].ReferenceID)
	assert.Equal(t, "staff@shop.test", movs[len(movs)-1].CreatedBy)
	f.assertReplay(t, wax.ID)
	f.assertReplay(t, towel.ID)
}

func TestInvoiceCreate_UnitPriceOverride(t *testing.T) {
	f := newInvoiceFixture()
	v := f.priced(t, "COATING", 5, "100")
	override := decimal.RequireFromString("80")
	item := line(v, 1)
	item.UnitPrice = &override

	resp, err := f.svc.Create(context.Background(), "", dto.CreateInvoiceRequest{
		CustomerName: "Sara", Items: []dto.InvoiceItemRequest{item},
	})
	require.NoError(t, err)
	assert.True(t, override.Equal(resp.Total))
	assert.Equal(t, model.SystemActor, resp.CreatedBy)
}

func TestInvoiceCreate_SecondLineFailsCompensatesFirst(t *testing.T) {
	f := newInvoiceFixture()
	ok := f.priced(t, "SPRAY", 10, "3")
	short := f.priced(t, "FILTER", 1, "9")

	_, err := f.svc.Create(context.Background(), "", dto.CreateInvoiceRequest{
		CustomerName: "Omar",
		Items:        []dto.InvoiceItemRequest{line(ok, 4), line(short, 2)},
	})
	require.Error(t, err)
	assert.True(t, service.IsCode(err, service.CodeNegativeStock))

	assert.Equal(t, 10, f.products.quantity(ok.ID))
	assert.Equal(t, []string{model.ReasonInitial, model.ReasonSale, model.ReasonReturn}, f.reasons(ok.ID))
	assert.Equal(t, 1, f.products.quantity(short.ID))
	assert.Empty(t, f.invoices.invoices)
	f.assertReplay(t, ok.ID)
}

func TestInvoiceCreate_SaveFailureCompensatesAll(t *testing.T) {
	f := newInvoiceFixture()
	a := f.priced(t, "BRUSH", 6, "7")
	b := f.priced(t, "GLOVES", 6, "2")
	f.invoices.failCreate = true

	_, err := f.svc.Create(context.Background(), "", dto.CreateInvoiceRequest{
		CustomerName: "Hina",
		Items:        []dto.InvoiceItemRequest{line(a, 1), line(b, 3)},
	})
	require.Error(t, err)
	assert.Equal(t, 6, f.products.quantity(a.ID))
	assert.Equal(t, 6, f.products.quantity(b.ID))
	assert.Equal(t, []string{model.ReasonInitial, model.ReasonSale, model.ReasonReturn}, f.reasons(b.ID))
}

func TestInvoiceCreate_Validation(t *testing.T) {
	f := newInvoiceFixture()
	v := f.priced(t, "SOAP", 10, "10")
	ctx := context.Background()

	_, err := f.svc.Create(ctx, "", dto.CreateInvoiceRequest{CustomerName: "X"})
	assert.True(t, service.IsCode(err, service.CodeInvalidInput))

	_, err = f.svc.Create(ctx, "", dto.CreateInvoiceRequest{
		CustomerName: "X", Discount: decimal.NewFromInt(50), Items: []dto.InvoiceItemRequest{line(v, 1)},
	})
	assert.True(t, service.IsCode(err, service.CodeInvalidInput), "discount above subtotal")

	bad := "not-a-uuid"
	_, err = f.svc.Create(ctx, "", dto.CreateInvoiceRequest{
		CustomerName: "X", BookingID: &bad, Items: []dto.InvoiceItemRequest{line(v, 1)},
	})
	assert.True(t, service.IsCode(err, service.CodeInvalidInput))

	_, err = f.svc.Create(ctx, "", dto.CreateInvoiceRequest{
		CustomerName: "X", Items: []dto.InvoiceItemRequest{{VariantID: uuid.NewString(), Quantity: 1}},
	})
	assert.True(t, service.IsCode(err, service.CodeVariantNotFound))

	assert.Equal(t, 10, f.products.quantity(v.ID))
	assert.Empty(t, f.invoices.invoices)
}

func TestInvoiceCreate_InactiveVariantRejected(t *testing.T) {
	f := newInvoiceFixture()
	v := f.priced(t, "OLD-WAX", 10, "10")
	f.products.variants[v.ID].Active = false

	_, err := f.svc.Create(context.Background(), "", dto.CreateInvoiceRequest{
		CustomerName: "X", Items: []dto.InvoiceItemRequest{line(v, 1)},
	})
	assert.True(t, service.IsCode(err, service.CodeInvalidInput))
	assert.Equal(t, 10, f.products.quantity(v.ID))
}

func TestInvoiceVoid_ReturnsStock(t *testing.T) {
	f := newInvoiceFixture()
	v := f.priced(t, "RESIN", 10, "15")
	ctx := context.Background()

	resp, err := f.svc.Create(ctx, "", dto.CreateInvoiceRequest{
		CustomerName: "Zain", Items: []dto.InvoiceItemRequest{line(v, 3)},
	})
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)
	assert.Equal(t, 7, f.products.quantity(v.ID))

	require.NoError(t, f.svc.Void(ctx, id, "customer returned goods", "admin@shop.test"))
	assert.Equal(t, 10, f.products.quantity(v.ID))

	got, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceVoid, got.Status)

	err = f.svc.Void(ctx, id, "second try", "")
	assert.True(t, service.IsCode(err, service.CodeAlreadyVoid))
	assert.Equal(t, 10, f.products.quantity(v.ID))
	f.assertReplay(t, v.ID)
}

func TestInvoiceVoid_ConcurrentReturnsStockOnce(t *testing.T) {
	f := newInvoiceFixture()
	v := f.priced(t, "SEALANT", 50, "30")
	ctx := context.Background()

	resp, err := f.svc.Create(ctx, "", dto.CreateInvoiceRequest{
		CustomerName: "Hamza", Items: []dto.InvoiceItemRequest{line(v, 10)},
	})
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)
	require.Equal(t, 40, f.products.quantity(v.ID))

	// Both callers read the invoice as issued before either marks it void.
	var read sync.WaitGroup
	read.Add(2)
	f.invoices.afterFind = func() {
		read.Done()
		read.Wait()
	}

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.svc.Void(ctx, id, "duplicate click", "admin@shop.test")
		}(i)
	}
	wg.Wait()
	f.invoices.afterFind = nil

	failed := 0
	for _, err := range errs {
		if err != nil {
			assert.True(t, service.IsCode(err, service.CodeAlreadyVoid))
			failed++
		}
	}
	assert.Equal(t, 1, failed)
	assert.Equal(t, 50, f.products.quantity(v.ID))
	assert.Equal(t, []string{model.ReasonInitial, model.ReasonSale, model.ReasonReturn}, f.reasons(v.ID))
	f.assertReplay(t, v.ID)
}

func TestInvoiceVoid_NotFound(t *testing.T) {
	f := newInvoiceFixture()
	err := f.svc.Void(context.Background(), uuid.New(), "whatever", "")
	assert.True(t, service.IsCode(err, service.CodeInvoiceNotFound))
}
