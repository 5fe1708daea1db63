package refund

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/commerce-import/internal/domain"
)

func qty(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func qtyStrings(m map[string]decimal.Decimal) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v.String()
	}
	return out
}

func sampleOrder() domain.Order {
	return domain.Order{
		ID:          "order-1",
		IncrementID: "100000001",
		Items: []domain.OrderItem{
			{ID: "item-a", SKU: "A", QtyOrdered: qty("10"), Price: decimal.NewFromInt(5)},
			{ID: "item-b", SKU: "B", QtyOrdered: qty("2"), Price: decimal.NewFromInt(50)},
		},
	}
}

func TestReconcile_SubtractsPreviousRefunds(t *testing.T) {
	memos := []domain.CreditMemo{
		{Items: []domain.CreditMemoItem{{OrderItemID: "item-a", Qty: qty("3")}}},
		{Items: []domain.CreditMemoItem{{OrderItemID: "item-a", Qty: qty("1")}}},
	}

	net, err := Reconcile(sampleOrder(), []domain.ReturnLineRecord{{SKU: "A", Qty: qty("7")}}, memos, "100000001")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"item-a": "3"}, qtyStrings(net))
}

func TestReconcile_DropsZeroNetLines(t *testing.T) {
	memos := []domain.CreditMemo{
		{Items: []domain.CreditMemoItem{{OrderItemID: "item-b", Qty: qty("2")}}},
	}

	net, err := Reconcile(sampleOrder(), []domain.ReturnLineRecord{{SKU: "A", Qty: qty("1")}, {SKU: "B", Qty: qty("2")}}, memos, "100000001")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"item-a": "1"}, qtyStrings(net))
}

func TestReconcile_AllZeroIsWriterError(t *testing.T) {
	memos := []domain.CreditMemo{
		{Items: []domain.CreditMemoItem{{OrderItemID: "item-a", Qty: qty("4")}}},
	}

	_, err := Reconcile(sampleOrder(), []domain.ReturnLineRecord{{SKU: "A", Qty: qty("4")}}, memos, "100000001")
	require.Error(t, err)
	assert.True(t, domain.IsWriterError(err))
	assert.Equal(t, `Credit Memo cannot be created with no Items to Refund. Order ID: "100000001"`, err.Error())
}

func TestReconcile_FractionalRefundsNetToZero(t *testing.T) {
	memos := []domain.CreditMemo{
		{Items: []domain.CreditMemoItem{{OrderItemID: "item-a", Qty: qty("0.1")}}},
		{Items: []domain.CreditMemoItem{{OrderItemID: "item-a", Qty: qty("0.2")}}},
	}

	_, err := Reconcile(sampleOrder(), []domain.ReturnLineRecord{{SKU: "A", Qty: qty("0.3")}}, memos, "100000001")
	require.Error(t, err)
	assert.True(t, domain.IsWriterError(err), "got %v", err)
	assert.Equal(t, `Credit Memo cannot be created with no Items to Refund. Order ID: "100000001"`, err.Error())
}

func TestReconcile_FractionalRemainder(t *testing.T) {
	memos := []domain.CreditMemo{
		{Items: []domain.CreditMemoItem{{OrderItemID: "item-a", Qty: qty("0.1")}}},
	}

	net, err := Reconcile(sampleOrder(), []domain.ReturnLineRecord{{SKU: "A", Qty: qty("0.3")}}, memos, "100000001")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"item-a": "0.2"}, qtyStrings(net))
}

func TestReconcile_UnknownSKU(t *testing.T) {
	_, err := Reconcile(sampleOrder(), []domain.ReturnLineRecord{{SKU: "Z", Qty: qty("1")}}, nil, "100000001")
	require.Error(t, err)
	assert.True(t, domain.IsWriterError(err))
	assert.Equal(t, `Item with SKU: "Z" does not exist in Order: "100000001"`, err.Error())
}

func TestReconcile_KeepsNegativeNet(t *testing.T) {
	memos := []domain.CreditMemo{
		{Items: []domain.CreditMemoItem{{OrderItemID: "item-a", Qty: qty("5")}}},
	}

	net, err := Reconcile(sampleOrder(), []domain.ReturnLineRecord{{SKU: "A", Qty: qty("2")}}, memos, "100000001")
	require.NoError(t, err)
	assert.Equal(t, "-3", net["item-a"].String())
}

func TestReconcile_DuplicateSKULastWins(t *testing.T) {
	net, err := Reconcile(sampleOrder(), []domain.ReturnLineRecord{{SKU: "A", Qty: qty("1")}, {SKU: "A", Qty: qty("4")}}, nil, "100000001")
	require.NoError(t, err)
	assert.Equal(t, "4", net["item-a"].String())
}

func TestNewCreditMemo_ComputesAmounts(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	memo, err := NewCreditMemo(sampleOrder(), map[string]decimal.Decimal{"item-a": qty("2"), "item-b": qty("1")}, now)
	require.NoError(t, err)

	require.Len(t, memo.Items, 2)
	assert.Equal(t, "item-a", memo.Items[0].OrderItemID)
	assert.True(t, memo.Subtotal.Equal(decimal.NewFromInt(60)), memo.Subtotal.String())
	assert.True(t, memo.ShippingAmount.IsZero())
	assert.True(t, memo.GrandTotal.Equal(decimal.NewFromInt(60)))
	assert.Equal(t, now, memo.CreatedAt)
}

func TestNewCreditMemo_FractionalQtyRowTotal(t *testing.T) {
	memo, err := NewCreditMemo(sampleOrder(), map[string]decimal.Decimal{"item-a": qty("0.5")}, time.Now())
	require.NoError(t, err)

	require.Len(t, memo.Items, 1)
	assert.Equal(t, "2.5", memo.Items[0].RowTotal.String())
}

func TestNewCreditMemo_RejectsInvalidQty(t *testing.T) {
	order := sampleOrder()
	order.Items[1].QtyRefunded = qty("1")

	_, err := NewCreditMemo(order, map[string]decimal.Decimal{"item-b": qty("2")}, time.Now())
	assert.True(t, errors.Is(err, domain.ErrRefundExceedsOrdered))

	_, err = NewCreditMemo(order, map[string]decimal.Decimal{"item-a": qty("-1")}, time.Now())
	assert.True(t, errors.Is(err, domain.ErrInvalidRefundQty))
}

func TestRegister_UpdatesOrder(t *testing.T) {
	order := sampleOrder()
	memo, err := NewCreditMemo(order, map[string]decimal.Decimal{"item-a": qty("3")}, time.Now())
	require.NoError(t, err)

	Register(&order, memo)

	assert.Equal(t, "3", order.Items[0].QtyRefunded.String())
	assert.True(t, order.TotalRefunded.Equal(decimal.NewFromInt(15)))
}
