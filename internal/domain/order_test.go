package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/commerce-import/internal/domain"
)

// helper для создания базового заказа с одной позицией.
func makeOrder() domain.Order {
	now := time.Now().UTC()
	return domain.Order{
		ID:          "order-1",
		IncrementID: "100000001",
		CustomerID:  "customer-1",
		Status:      domain.OrderStatusPending,
		Items: []domain.OrderItem{
			{ID: "item-1", SKU: "sku-1", QtyOrdered: decimal.NewFromInt(2), Price: decimal.NewFromInt(50)},
		},
		Subtotal:       decimal.NewFromInt(120),
		ShippingAmount: decimal.NewFromInt(10),
		GiftWrapPrice:  decimal.NewFromInt(5),
		DiscountAmount: decimal.NewFromInt(15),
		GrandTotal:     decimal.NewFromInt(120),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestOrderValidateInvariants_Ok(t *testing.T) {
	order := makeOrder()
	if errs := order.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}
}

func TestOrderValidateInvariants_Errors(t *testing.T) {
	cases := []struct {
		name string
		mut  func(o *domain.Order)
		want error
	}{
		{
			name: "no customer",
			mut:  func(o *domain.Order) { o.CustomerID = "" },
			want: domain.ErrCustomerRequired,
		},
		{
			name: "no items",
			mut:  func(o *domain.Order) { o.Items = nil },
			want: domain.ErrItemsRequired,
		},
		{
			name: "grand total mismatch",
			mut:  func(o *domain.Order) { o.GrandTotal = decimal.NewFromInt(1) },
			want: domain.ErrTotalsMismatch,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := makeOrder()
			tc.mut(&order)
			errs := order.ValidateInvariants()
			if len(errs) != 1 || !errors.Is(errs[0], tc.want) {
				t.Fatalf("expected [%v], got %v", tc.want, errs)
			}
		})
	}
}

func TestOrderItemBySKU_FirstMatchWins(t *testing.T) {
	order := domain.Order{Items: []domain.OrderItem{
		{ID: "a", SKU: "dup"},
		{ID: "b", SKU: "dup"},
	}}

	item, ok := order.ItemBySKU("dup")
	if !ok || item.ID != "a" {
		t.Fatalf("expected first item, got %+v", item)
	}
	if _, ok := order.ItemBySKU("missing"); ok {
		t.Fatalf("expected miss for unknown sku")
	}
}

func TestOrderAddStatusHistoryComment_LowercasesStatus(t *testing.T) {
	order := makeOrder()
	order.AddStatusHistoryComment("Returned", "CLOSED", time.Now())

	if order.Status != domain.OrderStatusClosed {
		t.Fatalf("expected closed, got %s", order.Status)
	}
	if len(order.StatusHistory) != 1 || order.StatusHistory[0].Comment != "Returned" {
		t.Fatalf("unexpected history %+v", order.StatusHistory)
	}
}

func TestOrderItemQtyToShip(t *testing.T) {
	item := domain.OrderItem{QtyOrdered: decimal.NewFromInt(5), QtyShipped: decimal.NewFromInt(2), QtyRefunded: decimal.NewFromInt(1)}
	if got := item.QtyToShip(); !got.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("expected 2, got %s", got)
	}
	item.QtyRefunded = decimal.NewFromInt(10)
	if got := item.QtyToShip(); !got.IsZero() {
		t.Fatalf("expected 0, got %s", got)
	}
}

func TestOrderItemQtyToInvoice(t *testing.T) {
	item := domain.OrderItem{QtyOrdered: decimal.RequireFromString("2.5"), QtyInvoiced: decimal.NewFromInt(1)}
	if got := item.QtyToInvoice(); got.String() != "1.5" {
		t.Fatalf("expected 1.5, got %s", got)
	}
	item.QtyRefunded = decimal.NewFromInt(2)
	if got := item.QtyToInvoice(); !got.IsZero() {
		t.Fatalf("expected 0, got %s", got)
	}
	if got := item.QtyToRefund(); got.String() != "0.5" {
		t.Fatalf("expected 0.5 refundable, got %s", got)
	}
}

func TestQuoteToOrder(t *testing.T) {
	quote := domain.Quote{ID: "q-1", ReservedOrderID: "100000009", PaymentMethod: "checkmo"}
	quote.AssignCustomer(domain.Customer{ID: "c-1", Email: "a@b.c"})
	quote.AddProduct(domain.Product{ID: "p-1", SKU: "sku-1"}, decimal.NewFromInt(3), decimal.NewFromInt(10))
	quote.CollectTotals()

	if !quote.Subtotal.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("expected quote subtotal 30, got %s", quote.Subtotal)
	}
	item := quote.Items[0]
	for _, price := range []decimal.Decimal{item.Price, item.BasePrice, item.OriginalPrice, item.CustomPrice, item.OriginalCustomPrice} {
		if !price.Equal(decimal.NewFromInt(10)) {
			t.Fatalf("expected every price facet to be 10, got %+v", item)
		}
	}

	order := quote.ToOrder()
	if order.IncrementID != "100000009" || order.CustomerID != "c-1" || order.QuoteID != "q-1" {
		t.Fatalf("unexpected order header %+v", order)
	}
	if len(order.Items) != 1 || !order.Items[0].QtyOrdered.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("unexpected order items %+v", order.Items)
	}
}
