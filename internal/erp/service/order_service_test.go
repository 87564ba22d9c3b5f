package service

import (
	"context"
	"errors"
	"testing"

	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/entity"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/erp/repository"
	"github.com/DnyaneshwarWantace/rajdhani-trace-flow-sub000/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(entity.OrderStatusPending, entity.OrderStatusAccepted))
	assert.True(t, CanTransition(entity.OrderStatusAccepted, entity.OrderStatusDispatched))
	assert.True(t, CanTransition(entity.OrderStatusDispatched, entity.OrderStatusDelivered))
	assert.True(t, CanTransition(entity.OrderStatusAccepted, entity.OrderStatusCancelled))
	assert.False(t, CanTransition(entity.OrderStatusPending, entity.OrderStatusDispatched))
	assert.False(t, CanTransition(entity.OrderStatusDispatched, entity.OrderStatusCancelled))
	assert.False(t, CanTransition(entity.OrderStatusDelivered, entity.OrderStatusPending))
	assert.False(t, CanTransition(entity.OrderStatusCancelled, entity.OrderStatusAccepted))
}

func TestComputeTotals(t *testing.T) {
	items := []entity.OrderItem{{TotalPrice: 1000.10}, {TotalPrice: 999.90}}
	totals, err := computeTotals(items, 18, 60, 500)
	require.NoError(t, err)
	assert.Equal(t, "2000.00", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "360.00", totals.GST.StringFixed(2))
	assert.Equal(t, "2300.00", totals.Total.StringFixed(2))
	assert.Equal(t, "1800.00", totals.Outstanding.StringFixed(2))

	_, err = computeTotals(items, 0, 5000, 0)
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))

	_, err = computeTotals(items, 0, 0, 2500)
	assert.True(t, errors.As(err, &verr))
}

func TestOrderDispatchSellsSelectedUnits(t *testing.T) {
	svc, db := setupServices(t)
	ctx := context.Background()

	customer := testutil.SeedCustomer(t, db, "Sharma Interiors")
	product := testutil.SeedProduct(t, db, "Persian Red", 2, 1.5)
	units := testutil.SeedUnits(t, db, product, 3)

	order, err := svc.Order.Create(ctx, CreateOrderRequest{
		CustomerID: customer.ID,
		GSTRate:    18,
		Items:      []OrderItemInput{{ProductID: product.ID, Quantity: 2, UnitPrice: 1000}},
	}, testUser)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusPending, order.Status)
	assert.InDelta(t, 2360.0, order.TotalAmount, 1e-9)
	assert.InDelta(t, 2360.0, order.OutstandingAmount, 1e-9)
	require.Len(t, order.Items, 1)
	itemID := order.Items[0].ID

	_, err = svc.Order.UpdateStatus(ctx, order.ID, UpdateOrderStatusRequest{Status: entity.OrderStatusDispatched}, testUser)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = svc.Order.UpdateStatus(ctx, order.ID, UpdateOrderStatusRequest{Status: entity.OrderStatusAccepted}, testUser)
	require.NoError(t, err)

	// nothing selected yet
	_, err = svc.Order.UpdateStatus(ctx, order.ID, UpdateOrderStatusRequest{Status: entity.OrderStatusDispatched}, testUser)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = svc.Order.SelectIndividualProducts(ctx, order.ID, itemID, SelectUnitsRequest{
		IndividualProductIDs: []string{units[0].ID, units[1].ID, units[2].ID},
	}, testUser)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))

	item, err := svc.Order.SelectIndividualProducts(ctx, order.ID, itemID, SelectUnitsRequest{
		IndividualProductIDs: []string{units[0].ID, units[1].ID},
	}, testUser)
	require.NoError(t, err)
	assert.Len(t, item.SelectedIndividualProducts, 2)
	assert.InDelta(t, 1.0, reloadProduct(t, db, product.ID).CurrentStock, 1e-9)

	dispatched, err := svc.Order.UpdateStatus(ctx, order.ID, UpdateOrderStatusRequest{Status: entity.OrderStatusDispatched}, testUser)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusDispatched, dispatched.Status)
	assert.NotNil(t, dispatched.DispatchedAt)

	sold, err := svc.Product.GetIndividualProduct(ctx, units[0].ID)
	require.NoError(t, err)
	assert.Equal(t, entity.IPStatusSold, sold.Status)
	spare, err := svc.Product.GetIndividualProduct(ctx, units[2].ID)
	require.NoError(t, err)
	assert.Equal(t, entity.IPStatusAvailable, spare.Status)

	movements, total, err := svc.Inventory.ListMovements(ctx, repository.StockMovementListParams{
		ItemID:       product.ID,
		MovementType: entity.MoveTypeSalesOut,
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	assert.InDelta(t, -2.0, movements[0].Quantity, 1e-9)

	_, err = svc.Order.SelectIndividualProducts(ctx, order.ID, itemID, SelectUnitsRequest{}, testUser)
	assert.ErrorIs(t, err, ErrInvalidState)

	delivered, err := svc.Order.UpdateStatus(ctx, order.ID, UpdateOrderStatusRequest{Status: entity.OrderStatusDelivered}, testUser)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusDelivered, delivered.Status)
}

func TestDispatchBulkLineNeedsSelectedUnits(t *testing.T) {
	svc, db := setupServices(t)
	ctx := context.Background()

	customer := testutil.SeedCustomer(t, db, "Mehta Traders")
	product, units := seedBulkProduct(t, db, "Jute Roll", 10, 3)

	order, err := svc.Order.Create(ctx, CreateOrderRequest{
		CustomerID: customer.ID,
		Items:      []OrderItemInput{{ProductID: product.ID, Quantity: 2, UnitPrice: 400}},
	}, testUser)
	require.NoError(t, err)
	_, err = svc.Order.UpdateStatus(ctx, order.ID, UpdateOrderStatusRequest{Status: entity.OrderStatusAccepted}, testUser)
	require.NoError(t, err)

	_, err = svc.Order.UpdateStatus(ctx, order.ID, UpdateOrderStatusRequest{Status: entity.OrderStatusDispatched}, testUser)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.InDelta(t, 10.0, reloadProduct(t, db, product.ID).CurrentStock, 1e-9)

	_, err = svc.Order.SelectIndividualProducts(ctx, order.ID, order.Items[0].ID, SelectUnitsRequest{
		IndividualProductIDs: []string{units[0].ID},
	}, testUser)
	require.NoError(t, err)
	_, err = svc.Order.UpdateStatus(ctx, order.ID, UpdateOrderStatusRequest{Status: entity.OrderStatusDispatched}, testUser)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = svc.Order.SelectIndividualProducts(ctx, order.ID, order.Items[0].ID, SelectUnitsRequest{
		IndividualProductIDs: []string{units[0].ID, units[1].ID},
	}, testUser)
	require.NoError(t, err)
	dispatched, err := svc.Order.UpdateStatus(ctx, order.ID, UpdateOrderStatusRequest{Status: entity.OrderStatusDispatched}, testUser)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusDispatched, dispatched.Status)

	assert.InDelta(t, 8.0, reloadProduct(t, db, product.ID).CurrentStock, 1e-9)
	sold, err := svc.Product.GetIndividualProduct(ctx, units[1].ID)
	require.NoError(t, err)
	assert.Equal(t, entity.IPStatusSold, sold.Status)

	movements, total, err := svc.Inventory.ListMovements(ctx, repository.StockMovementListParams{
		ItemID:       product.ID,
		MovementType: entity.MoveTypeSalesOut,
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	assert.InDelta(t, -2.0, movements[0].Quantity, 1e-9)
}

func TestCancelOrderReleasesUnits(t *testing.T) {
	svc, db := setupServices(t)
	ctx := context.Background()

	customer := testutil.SeedCustomer(t, db, "Gupta Homes")
	product := testutil.SeedProduct(t, db, "Kashmir Blue", 2, 1.5)
	units := testutil.SeedUnits(t, db, product, 2)

	order, err := svc.Order.Create(ctx, CreateOrderRequest{
		CustomerID: customer.ID,
		Items:      []OrderItemInput{{ProductID: product.ID, Quantity: 1, UnitPrice: 500}},
	}, testUser)
	require.NoError(t, err)

	_, err = svc.Order.SelectIndividualProducts(ctx, order.ID, order.Items[0].ID, SelectUnitsRequest{
		IndividualProductIDs: []string{units[0].ID},
	}, testUser)
	require.NoError(t, err)

	held, err := svc.Product.GetIndividualProduct(ctx, units[0].ID)
	require.NoError(t, err)
	assert.Equal(t, entity.IPStatusReserved, held.Status)

	cancelled, err := svc.Order.UpdateStatus(ctx, order.ID, UpdateOrderStatusRequest{
		Status: entity.OrderStatusCancelled,
		Reason: "customer changed mind",
	}, testUser)
	require.NoError(t, err)
	assert.Equal(t, "customer changed mind", cancelled.CancelReason)

	released, err := svc.Product.GetIndividualProduct(ctx, units[0].ID)
	require.NoError(t, err)
	assert.Equal(t, entity.IPStatusAvailable, released.Status)
	assert.InDelta(t, 2.0, reloadProduct(t, db, product.ID).CurrentStock, 1e-9)
}

func TestCreateOrderRejectsUnknownItems(t *testing.T) {
	svc, db := setupServices(t)
	ctx := context.Background()
	customer := testutil.SeedCustomer(t, db, "Mehta Traders")

	_, err := svc.Order.Create(ctx, CreateOrderRequest{
		CustomerID: customer.ID,
		Items: []OrderItemInput{
			{ProductID: "nope-1", Quantity: 1},
			{ProductID: "nope-2", Quantity: 1},
		},
	}, testUser)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Details, 2)

	_, err = svc.Order.Create(ctx, CreateOrderRequest{CustomerID: "missing"}, testUser)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordPayment(t *testing.T) {
	svc, db := setupServices(t)
	ctx := context.Background()

	customer := testutil.SeedCustomer(t, db, "Rao Carpets")
	wool := testutil.SeedRawMaterial(t, db, "Wool", "kg", 100, 10)

	order, err := svc.Order.Create(ctx, CreateOrderRequest{
		CustomerID: customer.ID,
		Items:      []OrderItemInput{{ProductID: wool.ID, ProductType: "raw_material", Quantity: 10, UnitPrice: 100}},
	}, testUser)
	require.NoError(t, err)

	paid, err := svc.Order.RecordPayment(ctx, order.ID, PaymentRequest{Amount: 400}, testUser)
	require.NoError(t, err)
	assert.InDelta(t, 400.0, paid.PaidAmount, 1e-9)
	assert.InDelta(t, 600.0, paid.OutstandingAmount, 1e-9)

	_, err = svc.Order.RecordPayment(ctx, order.ID, PaymentRequest{Amount: 700}, testUser)
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))

	// raw material lines need no unit selection
	_, err = svc.Order.UpdateStatus(ctx, order.ID, UpdateOrderStatusRequest{Status: entity.OrderStatusAccepted}, testUser)
	require.NoError(t, err)
	_, err = svc.Order.UpdateStatus(ctx, order.ID, UpdateOrderStatusRequest{Status: entity.OrderStatusDispatched}, testUser)
	require.NoError(t, err)
	assert.InDelta(t, 90.0, reloadMaterial(t, db, wool.ID).CurrentStock, 1e-9)
}
