package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// CarrierCodeCustom — код перевозчика для треков, импортированных извне.
	CarrierCodeCustom = "custom"
	// CaptureOffline — оплата по счёту принята вне платформы.
	CaptureOffline = "offline"
)

// CreditMemoItem — позиция документа возврата.
type CreditMemoItem struct {
	OrderItemID string
	SKU         string
	Qty         decimal.Decimal
	Price       decimal.Decimal
	RowTotal    decimal.Decimal
}

// CreditMemo — документ возврата по заказу.
type CreditMemo struct {
	ID               string
	OrderID          string
	OrderIncrementID string
	Items            []CreditMemoItem
	Subtotal         decimal.Decimal
	ShippingAmount   decimal.Decimal
	GrandTotal       decimal.Decimal
	OfflineRequested bool
	Comments         []string
	CreatedAt        time.Time
}

// AddComment прикрепляет комментарий к документу возврата.
func (m *CreditMemo) AddComment(comment string) {
	m.Comments = append(m.Comments, comment)
}

// InvoiceItem — позиция счёта.
type InvoiceItem struct {
	OrderItemID string
	SKU         string
	Qty         decimal.Decimal
	Price       decimal.Decimal
	RowTotal    decimal.Decimal
}

// Invoice — счёт по заказу.
type Invoice struct {
	ID               string
	OrderID          string
	OrderIncrementID string
	Items            []InvoiceItem
	TotalQty         decimal.Decimal
	Subtotal         decimal.Decimal
	ShippingAmount   decimal.Decimal
	GrandTotal       decimal.Decimal
	CaptureCase      string
	CreatedAt        time.Time
}

// ShipmentItem — позиция отгрузки.
type ShipmentItem struct {
	OrderItemID string
	SKU         string
	Qty         decimal.Decimal
}

// Shipment — документ отгрузки по заказу.
type Shipment struct {
	ID               string
	OrderID          string
	OrderIncrementID string
	Items            []ShipmentItem
	TotalQty         decimal.Decimal
	CreatedAt        time.Time
}

// Track — трек-номер, привязанный к отгрузке.
type Track struct {
	ID          string
	ShipmentID  string
	OrderID     string
	CarrierCode string
	Title       string
	Number      string
	CreatedAt   time.Time
}
