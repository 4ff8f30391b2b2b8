package service_test

import (
	"context"
	"testing"

	"github.com/YarKhan02/Workshop-sub000/internal/dto"
	"github.com/YarKhan02/Workshop-sub000/internal/model"
	"github.com/YarKhan02/Workshop-sub000/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type productFixture struct {
	*ledgerFixture
	svc service.ProductService
}

func newProductFixture() *productFixture {
	lf := newLedgerFixture()
	return &productFixture{
		ledgerFixture: lf,
		svc:           service.NewProductService(lf.products, lf.svc, &serialTx{}, lf.events),
	}
}

func variantReq(sku string, qty int) dto.CreateVariantRequest {
	return dto.CreateVariantRequest{
		SKU:               sku,
		Name:              "Carnauba wax 500ml",
		InitialQuantity:   qty,
		LowStockThreshold: 3,
		CostPrice:         decimal.RequireFromString("12.00"),
		SalePrice:         decimal.RequireFromString("20.00"),
	}
}

func (f *productFixture) product(t *testing.T) uuid.UUID {
	t.Helper()
	p, err := f.svc.CreateProduct(context.Background(), dto.CreateProductRequest{Name: "Wax", Category: "protection"})
	require.NoError(t, err)
	return uuid.MustParse(p.ID)
}

func TestCreateVariantWithStock_WritesInitialMovement(t *testing.T) {
	f := newProductFixture()
	pid := f.product(t)

	v, err := f.svc.CreateVariantWithStock(context.Background(), pid, variantReq("WAX-500", 12), "admin@shop.test")
	require.NoError(t, err)
	assert.Equal(t, 12, v.Quantity)
	assert.False(t, v.LowStock)

	id := uuid.MustParse(v.ID)
	movs := f.movements.all(id)
	require.Len(t, movs, 1)
	assert.Equal(t, model.ReasonInitial, movs[0].Reason)
	assert.Equal(t, 12, movs[0].QuantityAfter)
	assert.Equal(t, "admin@shop.test", movs[0].CreatedBy)
	assert.Len(t, f.events.moved, 1)
	f.assertReplay(t, id)
}

func TestCreateVariantWithStock_ZeroInitialHasNoMovement(t *testing.T) {
	f := newProductFixture()
	pid := f.product(t)

	v, err := f.svc.CreateVariantWithStock(context.Background(), pid, variantReq("WAX-0", 0), "")
	require.NoError(t, err)
	assert.True(t, v.LowStock)
	assert.Empty(t, f.movements.all(uuid.MustParse(v.ID)))
	assert.Empty(t, f.events.moved)
}

func TestCreateVariantWithStock_DuplicateSKU(t *testing.T) {
	f := newProductFixture()
	pid := f.product(t)
	ctx := context.Background()

	_, err := f.svc.CreateVariantWithStock(ctx, pid, variantReq("DUP-1", 4), "")
	require.NoError(t, err)
	_, err = f.svc.CreateVariantWithStock(ctx, pid, variantReq("DUP-1", 4), "")
	assert.Equal(t, service.KindValidation, service.KindOf(err))
	assert.True(t, service.IsCode(err, service.CodeInvalidInput))
}

func TestCreateVariantWithStock_Validation(t *testing.T) {
	f := newProductFixture()
	pid := f.product(t)
	ctx := context.Background()

	_, err := f.svc.CreateVariantWithStock(ctx, pid, variantReq("NEG-1", -1), "")
	assert.True(t, service.IsCode(err, service.CodeInvalidQuantity))

	req := variantReq("NEG-2", 1)
	req.SalePrice = decimal.NewFromInt(-1)
	_, err = f.svc.CreateVariantWithStock(ctx, pid, req, "")
	assert.True(t, service.IsCode(err, service.CodeInvalidInput))

	_, err = f.svc.CreateVariantWithStock(ctx, uuid.New(), variantReq("ORPHAN", 1), "")
	assert.True(t, service.IsCode(err, service.CodeProductNotFound))
	assert.Empty(t, f.products.variants)
}

func TestCreateVariantWithStock_InsertFailureWritesNothing(t *testing.T) {
	f := newProductFixture()
	pid := f.product(t)
	f.products.failCreateVariant = errStubWrite

	_, err := f.svc.CreateVariantWithStock(context.Background(), pid, variantReq("FAIL-1", 5), "")
	require.ErrorIs(t, err, errStubWrite)
	assert.Empty(t, f.movements.movements)
}

func TestGetProduct_IncludesVariants(t *testing.T) {
	f := newProductFixture()
	pid := f.product(t)
	_, err := f.svc.CreateVariantWithStock(context.Background(), pid, variantReq("V-1", 2), "")
	require.NoError(t, err)

	p, err := f.svc.GetProduct(context.Background(), pid)
	require.NoError(t, err)
	require.Len(t, p.Variants, 1)
	assert.Equal(t, "V-1", p.Variants[0].SKU)

	_, err = f.svc.GetProduct(context.Background(), uuid.New())
	assert.True(t, service.IsCode(err, service.CodeProductNotFound))
}

func TestListVariants_LowStockFilter(t *testing.T) {
	f := newProductFixture()
	pid := f.product(t)
	ctx := context.Background()
	_, err := f.svc.CreateVariantWithStock(ctx, pid, variantReq("LOW", 1), "")
	require.NoError(t, err)
	_, err = f.svc.CreateVariantWithStock(ctx, pid, variantReq("HIGH", 50), "")
	require.NoError(t, err)

	res, err := f.svc.ListVariants(ctx, dto.VariantFilter{LowStock: true})
	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "LOW", res.Data[0].SKU)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, 20, res.Limit)
}

func TestGetVariant_NotFound(t *testing.T) {
	f := newProductFixture()
	_, err := f.svc.GetVariant(context.Background(), uuid.New())
	assert.True(t, service.IsCode(err, service.CodeVariantNotFound))
}
