package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus описывает статус заказа на платформе.
type OrderStatus string

const (
	// OrderStatusPending — заказ размещён, но ещё не обработан.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusProcessing — заказ в работе (например, отгружается).
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusComplete — заказ полностью исполнен.
	OrderStatusComplete OrderStatus = "complete"
	// OrderStatusClosed — заказ закрыт, например после полного возврата.
	OrderStatusClosed OrderStatus = "closed"
)

// OrderItem представляет одну позицию заказа.
type OrderItem struct {
	ID             string
	ProductID      string
	SKU            string
	Name           string
	QtyOrdered     decimal.Decimal
	QtyInvoiced    decimal.Decimal
	QtyShipped     decimal.Decimal
	QtyRefunded    decimal.Decimal
	Price          decimal.Decimal
	BasePrice      decimal.Decimal
	OriginalPrice  decimal.Decimal
	TaxAmount      decimal.Decimal
	TaxPercent     decimal.Decimal
	DiscountAmount decimal.Decimal
	GiftWrapPrice  decimal.Decimal
}

// QtyToShip — количество, которое ещё можно отгрузить.
func (i OrderItem) QtyToShip() decimal.Decimal {
	qty := i.QtyOrdered.Sub(i.QtyShipped).Sub(i.QtyRefunded)
	if qty.IsNegative() {
		return decimal.Zero
	}
	return qty
}

// QtyToInvoice — количество, по которому ещё не выставлен счёт.
func (i OrderItem) QtyToInvoice() decimal.Decimal {
	qty := i.QtyOrdered.Sub(i.QtyInvoiced).Sub(i.QtyRefunded)
	if qty.IsNegative() {
		return decimal.Zero
	}
	return qty
}

// QtyToRefund — количество, которое ещё можно вернуть.
func (i OrderItem) QtyToRefund() decimal.Decimal {
	return i.QtyOrdered.Sub(i.QtyRefunded)
}

// StatusHistoryEntry — комментарий в истории статусов заказа.
type StatusHistoryEntry struct {
	Comment   string
	Status    OrderStatus
	CreatedAt time.Time
}

// Order агрегирует состояние заказа и его позиции.
type Order struct {
	ID              string
	IncrementID     string
	QuoteID         string
	CustomerID      string
	CustomerEmail   string
	Status          OrderStatus
	IsInProcess     bool
	BillingAddress  Address
	ShippingAddress Address
	PaymentMethod   string
	Items           []OrderItem
	ShippingAmount  decimal.Decimal
	GiftWrapPrice   decimal.Decimal
	DiscountAmount  decimal.Decimal
	Subtotal        decimal.Decimal
	GrandTotal      decimal.Decimal
	TotalInvoiced   decimal.Decimal
	TotalRefunded   decimal.Decimal
	StatusHistory   []StatusHistoryEntry
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ItemBySKU возвращает первую позицию заказа с указанным SKU.
func (o *Order) ItemBySKU(sku string) (*OrderItem, bool) {
	for i := range o.Items {
		if o.Items[i].SKU == sku {
			return &o.Items[i], true
		}
	}
	return nil, false
}

// ItemByID возвращает позицию заказа по идентификатору.
func (o *Order) ItemByID(id string) (*OrderItem, bool) {
	for i := range o.Items {
		if o.Items[i].ID == id {
			return &o.Items[i], true
		}
	}
	return nil, false
}

// AddStatusHistoryComment добавляет комментарий и переводит заказ в новый статус.
// Статус приводится к нижнему регистру.
func (o *Order) AddStatusHistoryComment(comment, status string, at time.Time) {
	next := OrderStatus(strings.ToLower(status))
	o.Status = next
	o.StatusHistory = append(o.StatusHistory, StatusHistoryEntry{
		Comment:   comment,
		Status:    next,
		CreatedAt: at,
	})
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.CustomerID == "" {
		errs = append(errs, ErrCustomerRequired)
	}
	if len(o.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}

	// Итог должен сходиться: subtotal + доставка + упаковка − скидка.
	expected := o.Subtotal.Add(o.ShippingAmount).Add(o.GiftWrapPrice).Sub(o.DiscountAmount)
	if !expected.Equal(o.GrandTotal) {
		errs = append(errs, ErrTotalsMismatch)
	}

	return errs
}

// QuoteItem — позиция корзины, из которой будет создан заказ.
type QuoteItem struct {
	ID                  string
	ProductID           string
	SKU                 string
	Name                string
	Qty                 decimal.Decimal
	Price               decimal.Decimal
	BasePrice           decimal.Decimal
	OriginalPrice       decimal.Decimal
	CustomPrice         decimal.Decimal
	OriginalCustomPrice decimal.Decimal
}

// Quote — корзина клиента. После размещения заказа деактивируется.
type Quote struct {
	ID                string
	CustomerID        string
	CustomerEmail     string
	CustomerFirstname string
	CustomerLastname  string
	BillingAddress    Address
	ShippingAddress   Address
	PaymentMethod     string
	ReservedOrderID   string
	Items             []QuoteItem
	Subtotal          decimal.Decimal
	IsActive          bool
	CreatedAt         time.Time
}

// AssignCustomer переносит данные клиента в корзину.
func (q *Quote) AssignCustomer(customer Customer) {
	q.CustomerID = customer.ID
	q.CustomerEmail = customer.Email
	q.CustomerFirstname = customer.Firstname
	q.CustomerLastname = customer.Lastname
}

// AddProduct добавляет товар в корзину. Цена одинакова для всех ценовых фасетов.
func (q *Quote) AddProduct(product Product, qty, price decimal.Decimal) {
	q.Items = append(q.Items, QuoteItem{
		ProductID:           product.ID,
		SKU:                 product.SKU,
		Name:                product.Name,
		Qty:                 qty,
		Price:               price,
		BasePrice:           price,
		OriginalPrice:       price,
		CustomPrice:         price,
		OriginalCustomPrice: price,
	})
}

// CollectTotals пересчитывает subtotal корзины.
func (q *Quote) CollectTotals() {
	total := decimal.Zero
	for _, item := range q.Items {
		total = total.Add(item.Price.Mul(item.Qty))
	}
	q.Subtotal = total
}

// ToOrder конвертирует корзину в заказ без пересчёта итогов.
func (q *Quote) ToOrder() Order {
	order := Order{
		QuoteID:         q.ID,
		IncrementID:     q.ReservedOrderID,
		CustomerID:      q.CustomerID,
		CustomerEmail:   q.CustomerEmail,
		Status:          OrderStatusPending,
		BillingAddress:  q.BillingAddress,
		ShippingAddress: q.ShippingAddress,
		PaymentMethod:   q.PaymentMethod,
		CreatedAt:       q.CreatedAt,
		Items:           make([]OrderItem, 0, len(q.Items)),
	}
	for _, item := range q.Items {
		order.Items = append(order.Items, OrderItem{
			ProductID:     item.ProductID,
			SKU:           item.SKU,
			Name:          item.Name,
			QtyOrdered:    item.Qty,
			Price:         item.Price,
			BasePrice:     item.BasePrice,
			OriginalPrice: item.OriginalPrice,
		})
	}
	return order
}
