package service_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/restaurant-backoffice/internal/model"
	"github.com/mmeshcher/restaurant-backoffice/internal/repository"
	"github.com/mmeshcher/restaurant-backoffice/internal/service"
)

type fixture struct {
	repo     *memRepo
	svc      *service.Service
	order    *model.Order
	pizza    *model.Product
	lemonade *model.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctx := context.Background()
	repo := newMemRepo()
	svc := service.NewService(repo)

	pizza, err := svc.CreateProduct(ctx, model.ProductInput{
		Name: "Pizza", Price: decimal.RequireFromString("10.00"), Status: model.ProductStatusAvailable, Description: "Margherita",
	})
	require.NoError(t, err)

	lemonade, err := svc.CreateProduct(ctx, model.ProductInput{
		Name: "Lemonade", Price: decimal.RequireFromString("2.35"), Status: model.ProductStatusAvailable, Description: "Fresh",
	})
	require.NoError(t, err)

	client, err := svc.CreateClient(ctx, model.ClientInput{Name: "Ana", LastName: "Lopez", Phone: "5551234", Email: "ana@example.com"})
	require.NoError(t, err)

	order, err := svc.CreateOrder(ctx, model.OrderInput{
		Date: testDate, ClientID: client.ID, PaymentMethod: model.PaymentMethodCash, Status: model.OrderStatusPending,
	})
	require.NoError(t, err)

	return &fixture{repo: repo, svc: svc, order: order, pizza: pizza, lemonade: lemonade}
}

func (f *fixture) total(t *testing.T) decimal.Decimal {
	t.Helper()
	d, err := f.svc.GetOrder(context.Background(), f.order.ID)
	require.NoError(t, err)
	return d.Total
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestCreateOrder_StartsWithZeroTotal(t *testing.T) {
	f := newFixture(t)

	assertDecimal(t, "0", f.order.Total)
	assertDecimal(t, "0", f.total(t))

	d, err := f.svc.GetOrder(context.Background(), f.order.ID)
	require.NoError(t, err)
	assert.Empty(t, d.Items)
}

func TestCreateOrder_UnknownClient(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateOrder(context.Background(), model.OrderInput{Date: testDate, ClientID: 999})
	assert.ErrorIs(t, err, repository.ErrClientNotFound)
}

func TestAddLineItem_SnapshotsPriceAndIncrementsTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item, err := f.svc.AddLineItem(ctx, f.order.ID, model.LineItemInput{ProductID: f.pizza.ID, Quantity: 3})
	require.NoError(t, err)

	assertDecimal(t, "10.00", item.UnitPrice)
	assertDecimal(t, "30.00", item.Subtotal)
	assertDecimal(t, "30.00", f.total(t))

	// Изменение цены в меню не влияет на уже добавленную позицию.
	_, err = f.svc.UpdateProduct(ctx, f.pizza.ID, model.ProductInput{
		Name: "Pizza", Price: decimal.RequireFromString("12.00"), Status: model.ProductStatusAvailable, Description: "Margherita",
	})
	require.NoError(t, err)

	stored, err := f.svc.GetLineItem(ctx, item.ID)
	require.NoError(t, err)
	assertDecimal(t, "10.00", stored.UnitPrice)
	assertDecimal(t, "30.00", f.total(t))
}

func TestAddLineItem_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		orderID int64
		in      model.LineItemInput
		wantErr error
	}{
		{name: "zero quantity", orderID: f.order.ID, in: model.LineItemInput{ProductID: f.pizza.ID}, wantErr: service.ErrInvalidQuantity},
		{name: "negative quantity", orderID: f.order.ID, in: model.LineItemInput{ProductID: f.pizza.ID, Quantity: -2}, wantErr: service.ErrInvalidQuantity},
		{name: "unknown product", orderID: f.order.ID, in: model.LineItemInput{ProductID: 999, Quantity: 1}, wantErr: repository.ErrProductNotFound},
		{name: "unknown order", orderID: 999, in: model.LineItemInput{ProductID: f.pizza.ID, Quantity: 1}, wantErr: repository.ErrOrderNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.AddLineItem(ctx, tt.orderID, tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.repo.items)
			assertDecimal(t, "0", f.total(t))
		})
	}
}

func TestEditLineItem_AdjustsByDifference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item, err := f.svc.AddLineItem(ctx, f.order.ID, model.LineItemInput{ProductID: f.pizza.ID, Quantity: 3})
	require.NoError(t, err)
	before := f.total(t)

	edited, err := f.svc.EditLineItem(ctx, item.ID, model.LineItemInput{ProductID: f.pizza.ID, Quantity: 5})
	require.NoError(t, err)

	assertDecimal(t, "50.00", edited.Subtotal)
	assertDecimal(t, "20.00", f.total(t).Sub(before))
	assertDecimal(t, "50.00", f.total(t))
}

func TestEditLineItem_ChangesProductAndRefreshesPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddLineItem(ctx, f.order.ID, model.LineItemInput{ProductID: f.lemonade.ID, Quantity: 2})
	require.NoError(t, err)
	item, err := f.svc.AddLineItem(ctx, f.order.ID, model.LineItemInput{ProductID: f.pizza.ID, Quantity: 1})
	require.NoError(t, err)
	assertDecimal(t, "14.70", f.total(t))

	edited, err := f.svc.EditLineItem(ctx, item.ID, model.LineItemInput{ProductID: f.lemonade.ID, Quantity: 4})
	require.NoError(t, err)

	assert.Equal(t, f.lemonade.ID, edited.ProductID)
	assertDecimal(t, "2.35", edited.UnitPrice)
	assertDecimal(t, "9.40", edited.Subtotal)
	assertDecimal(t, "14.10", f.total(t))
}

func TestEditLineItem_UnknownProductLeavesItemUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item, err := f.svc.AddLineItem(ctx, f.order.ID, model.LineItemInput{ProductID: f.pizza.ID, Quantity: 3})
	require.NoError(t, err)

	_, err = f.svc.EditLineItem(ctx, item.ID, model.LineItemInput{ProductID: 999, Quantity: 1})
	assert.ErrorIs(t, err, repository.ErrProductNotFound)

	stored, err := f.svc.GetLineItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Quantity)
	assertDecimal(t, "30.00", f.total(t))
}

func TestEditLineItem_UnknownItem(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.EditLineItem(context.Background(), 999, model.LineItemInput{ProductID: f.pizza.ID, Quantity: 1})
	assert.ErrorIs(t, err, repository.ErrLineItemNotFound)
}

func TestRemoveLineItem_DecrementsTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddLineItem(ctx, f.order.ID, model.LineItemInput{ProductID: f.lemonade.ID, Quantity: 1})
	require.NoError(t, err)
	item, err := f.svc.AddLineItem(ctx, f.order.ID, model.LineItemInput{ProductID: f.pizza.ID, Quantity: 3})
	require.NoError(t, err)
	before := f.total(t)

	orderID, err := f.svc.RemoveLineItem(ctx, item.ID)
	require.NoError(t, err)

	assert.Equal(t, f.order.ID, orderID)
	assertDecimal(t, "30.00", before.Sub(f.total(t)))
	assertDecimal(t, "2.35", f.total(t))

	_, err = f.svc.GetLineItem(ctx, item.ID)
	assert.ErrorIs(t, err, repository.ErrLineItemNotFound)
}

func TestRemoveLineItem_RejectsNegativeTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item, err := f.svc.AddLineItem(ctx, f.order.ID, model.LineItemInput{ProductID: f.pizza.ID, Quantity: 3})
	require.NoError(t, err)

	// Сумма, расходящаяся с позициями, не должна уходить в минус.
	o := f.repo.orders[f.order.ID]
	o.Total = decimal.RequireFromString("5.00")
	f.repo.orders[f.order.ID] = o

	_, err = f.svc.RemoveLineItem(ctx, item.ID)
	assert.ErrorIs(t, err, service.ErrNegativeTotal)

	_, err = f.svc.GetLineItem(ctx, item.ID)
	require.NoError(t, err, "line item must survive a rejected removal")
	assertDecimal(t, "5.00", f.total(t))

	fixed, err := f.svc.RecalculateOrderTotal(ctx, f.order.ID)
	require.NoError(t, err)
	assertDecimal(t, "30.00", fixed.Total)
	assertDecimal(t, "30.00", f.total(t))
}

func TestAddLineItem_RejectsAmountsBeyondColumnRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	caviar, err := f.svc.CreateProduct(ctx, model.ProductInput{
		Name: "Caviar", Price: decimal.RequireFromString("9999999999.99"), Status: model.ProductStatusAvailable, Description: "Beluga",
	})
	require.NoError(t, err)

	_, err = f.svc.AddLineItem(ctx, f.order.ID, model.LineItemInput{ProductID: caviar.ID, Quantity: 2_000_000})
	assert.ErrorIs(t, err, service.ErrAmountOutOfRange)
	assertDecimal(t, "0", f.total(t))

	_, err = f.svc.AddLineItem(ctx, f.order.ID, model.LineItemInput{ProductID: caviar.ID, Quantity: 1_000_000})
	require.NoError(t, err)
	assertDecimal(t, "9999999999990000", f.total(t))

	_, err = f.svc.AddLineItem(ctx, f.order.ID, model.LineItemInput{ProductID: caviar.ID, Quantity: 1})
	assert.ErrorIs(t, err, service.ErrAmountOutOfRange)

	d, err := f.svc.GetOrder(ctx, f.order.ID)
	require.NoError(t, err)
	assert.Len(t, d.Items, 1)
	assertDecimal(t, "9999999999990000", d.Total)
}

func TestAddLineItem_RollsBackOnTotalFailure(t *testing.T) {
	f := newFixture(t)
	f.repo.setTotalErr = errors.New("connection reset by peer")

	_, err := f.svc.AddLineItem(context.Background(), f.order.ID, model.LineItemInput{ProductID: f.pizza.ID, Quantity: 2})
	require.Error(t, err)

	assert.Empty(t, f.repo.items, "line item must not be persisted without the total update")
}

func TestDeleteOrder_CascadesLineItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.svc.AddLineItem(ctx, f.order.ID, model.LineItemInput{ProductID: f.pizza.ID, Quantity: i + 1})
		require.NoError(t, err)
	}

	other, err := f.svc.CreateOrder(ctx, model.OrderInput{Date: testDate, ClientID: f.order.ClientID})
	require.NoError(t, err)
	kept, err := f.svc.AddLineItem(ctx, other.ID, model.LineItemInput{ProductID: f.lemonade.ID, Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteOrder(ctx, f.order.ID))

	_, err = f.svc.GetOrder(ctx, f.order.ID)
	assert.ErrorIs(t, err, repository.ErrOrderNotFound)

	for _, it := range f.repo.items {
		assert.NotEqual(t, f.order.ID, it.OrderID, "orphaned line item %d", it.ID)
	}
	_, err = f.svc.GetLineItem(ctx, kept.ID)
	assert.NoError(t, err)
}

func TestDeleteOrder_Unknown(t *testing.T) {
	f := newFixture(t)

	err := f.svc.DeleteOrder(context.Background(), 999)
	assert.ErrorIs(t, err, repository.ErrOrderNotFound)
}

func TestUpdateOrder_DoesNotTouchTotal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddLineItem(ctx, f.order.ID, model.LineItemInput{ProductID: f.pizza.ID, Quantity: 2})
	require.NoError(t, err)

	updated, err := f.svc.UpdateOrder(ctx, f.order.ID, model.OrderInput{
		Date: testDate, ClientID: f.order.ClientID, PaymentMethod: model.PaymentMethodCard, Status: model.OrderStatusPaid,
	})
	require.NoError(t, err)

	assert.Equal(t, model.PaymentMethodCard, updated.PaymentMethod)
	assertDecimal(t, "20.00", updated.Total)
}

func TestUpdateOrder_ZeroDateKeepsStoredDate(t *testing.T) {
	f := newFixture(t)

	updated, err := f.svc.UpdateOrder(context.Background(), f.order.ID, model.OrderInput{
		ClientID: f.order.ClientID, PaymentMethod: model.PaymentMethodTransfer, Status: model.OrderStatusPreparing,
	})
	require.NoError(t, err)

	assert.Equal(t, testDate, updated.Date)
	assert.Equal(t, model.OrderStatusPreparing, updated.Status)

	_, err = f.svc.UpdateOrder(context.Background(), 999, model.OrderInput{ClientID: f.order.ClientID})
	assert.ErrorIs(t, err, repository.ErrOrderNotFound)
}

func TestListOrders_NewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	older, err := f.svc.CreateOrder(ctx, model.OrderInput{
		Date: testDate.Add(-48 * time.Hour), ClientID: f.order.ClientID,
		PaymentMethod: model.PaymentMethodCash, Status: model.OrderStatusPending,
	})
	require.NoError(t, err)
	newer, err := f.svc.CreateOrder(ctx, model.OrderInput{
		Date: testDate.Add(24 * time.Hour), ClientID: f.order.ClientID,
		PaymentMethod: model.PaymentMethodCard, Status: model.OrderStatusPending,
	})
	require.NoError(t, err)
	sameDate, err := f.svc.CreateOrder(ctx, model.OrderInput{
		Date: testDate, ClientID: f.order.ClientID,
		PaymentMethod: model.PaymentMethodCash, Status: model.OrderStatusPending,
	})
	require.NoError(t, err)

	orders, err := f.svc.ListOrders(ctx)
	require.NoError(t, err)

	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	assert.Equal(t, []int64{newer.ID, sameDate.ID, f.order.ID, older.ID}, ids)
}

func TestDeleteReferencedProductAndClientIsBlocked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddLineItem(ctx, f.order.ID, model.LineItemInput{ProductID: f.pizza.ID, Quantity: 1})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.DeleteProduct(ctx, f.pizza.ID), repository.ErrProductInUse)
	assert.ErrorIs(t, f.svc.DeleteClient(ctx, f.order.ClientID), repository.ErrClientInUse)
	assert.NoError(t, f.svc.DeleteProduct(ctx, f.lemonade.ID))
}

func TestTotalMatchesSubtotalsAfterRandomMutations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rnd := rand.New(rand.NewSource(42))
	products := []int64{f.pizza.ID, f.lemonade.ID}

	var live []int64
	for step := 0; step < 300; step++ {
		switch op := rnd.Intn(3); {
		case op == 0 || len(live) == 0:
			item, err := f.svc.AddLineItem(ctx, f.order.ID, model.LineItemInput{
				ProductID: products[rnd.Intn(len(products))],
				Quantity:  rnd.Intn(9) + 1,
			})
			require.NoError(t, err)
			live = append(live, item.ID)
		case op == 1:
			_, err := f.svc.EditLineItem(ctx, live[rnd.Intn(len(live))], model.LineItemInput{
				ProductID: products[rnd.Intn(len(products))],
				Quantity:  rnd.Intn(9) + 1,
			})
			require.NoError(t, err)
		default:
			i := rnd.Intn(len(live))
			_, err := f.svc.RemoveLineItem(ctx, live[i])
			require.NoError(t, err)
			live = append(live[:i], live[i+1:]...)
		}

		if got, want := f.total(t), f.repo.sumSubtotals(f.order.ID); !got.Equal(want) {
			t.Fatalf("step %d: total = %s, sum of subtotals = %s", step, got, want)
		}
	}
}
