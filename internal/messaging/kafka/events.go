package kafka

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/commerce-import/internal/domain"
)

// EventType — тип события уведомления.
type EventType string

const (
	EventTypeCreditMemoCreated EventType = "sales.creditmemo.created"
	EventTypeShipmentCreated   EventType = "sales.shipment.created"
)

// TopicSalesNotifications — topic по умолчанию для писем клиенту.
const TopicSalesNotifications = "commerce.import.sales-notifications"

// EventItem — строка документа в событии.
type EventItem struct {
	SKU      string          `json:"sku"`
	Qty      decimal.Decimal `json:"qty"`
	RowTotal decimal.Decimal `json:"row_total,omitzero"`
}

// SalesDocumentEvent описывает созданный документ, по которому клиенту уходит письмо.
type SalesDocumentEvent struct {
	EventType        EventType        `json:"event_type"`
	DocumentID       string           `json:"document_id"`
	OrderID          string           `json:"order_id"`
	OrderIncrementID string           `json:"order_increment_id"`
	CustomerEmail    string           `json:"customer_email"`
	Items            []EventItem      `json:"items"`
	GrandTotal       *decimal.Decimal `json:"grand_total,omitempty"`
	Comments         []string         `json:"comments,omitempty"`
	Timestamp        time.Time        `json:"timestamp"`
}

// NewCreditMemoEvent собирает событие о документе возврата.
func NewCreditMemoEvent(memo domain.CreditMemo, order domain.Order, at time.Time) *SalesDocumentEvent {
	items := make([]EventItem, 0, len(memo.Items))
	for _, item := range memo.Items {
		items = append(items, EventItem{SKU: item.SKU, Qty: item.Qty, RowTotal: item.RowTotal})
	}
	total := memo.GrandTotal
	return &SalesDocumentEvent{
		EventType:        EventTypeCreditMemoCreated,
		DocumentID:       memo.ID,
		OrderID:          order.ID,
		OrderIncrementID: order.IncrementID,
		CustomerEmail:    order.CustomerEmail,
		Items:            items,
		GrandTotal:       &total,
		Comments:         memo.Comments,
		Timestamp:        at,
	}
}

// NewShipmentEvent собирает событие об отгрузке.
func NewShipmentEvent(shipment domain.Shipment, order domain.Order, at time.Time) *SalesDocumentEvent {
	items := make([]EventItem, 0, len(shipment.Items))
	for _, item := range shipment.Items {
		items = append(items, EventItem{SKU: item.SKU, Qty: item.Qty})
	}
	return &SalesDocumentEvent{
		EventType:        EventTypeShipmentCreated,
		DocumentID:       shipment.ID,
		OrderID:          order.ID,
		OrderIncrementID: order.IncrementID,
		CustomerEmail:    order.CustomerEmail,
		Items:            items,
		Timestamp:        at,
	}
}
