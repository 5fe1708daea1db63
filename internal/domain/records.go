package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AddressRecord — адрес клиента во входной записи.
type AddressRecord struct {
	Firstname string
	Lastname  string
	Street    string
	City      string
	Postcode  string
	Telephone string
	CountryID string
	Region    string
}

// CustomerRecord — входная запись клиента.
type CustomerRecord struct {
	Email      string
	Firstname  string
	Lastname   string
	Attributes map[string]string
	Addresses  []AddressRecord
}

// OrderLineRecord — позиция входной записи заказа.
type OrderLineRecord struct {
	SKU            string
	Qty            decimal.Decimal
	Price          decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	GiftWrapPrice  decimal.Decimal
}

// OrderRecord — входная запись заказа.
type OrderRecord struct {
	IncrementID    string
	CustomerRef    string
	CreatedAt      time.Time
	ShippingAmount decimal.Decimal
	GiftWrapPrice  decimal.Decimal
	DiscountAmount decimal.Decimal
	Items          []OrderLineRecord
}

// Validate проверяет структуру записи до обращения к хранилищам.
func (r OrderRecord) Validate() error {
	if len(r.Items) == 0 {
		return NewWriterError(`No Order Items for Order: "%s"`, r.IncrementID)
	}
	return nil
}

// ProductRecord — входная запись товара. Пустые указатели означают «взять значение по умолчанию».
type ProductRecord struct {
	SKU                    string
	Name                   string
	TypeID                 ProductType
	AttributeSetID         *int64
	Status                 *int
	TaxClassID             *int
	WebsiteIDs             []int64
	Weight                 *string
	Price                  decimal.Decimal
	URLKey                 string
	Stock                  *StockData
	Data                   map[string]string
	Attributes             map[string]string
	ConfigurableAttributes []string
	ParentSKU              string
	Images                 []Image
}

// Validate проверяет обязательные поля записи товара.
func (r ProductRecord) Validate() error {
	if r.SKU == "" {
		return NewWriterError("sku must be set")
	}
	return nil
}

// ProductUpdateRecord — частичное обновление существующего товара.
type ProductUpdateRecord struct {
	SKU  string
	Data map[string]string
}

// Validate проверяет обязательные поля записи обновления.
func (r ProductUpdateRecord) Validate() error {
	if r.SKU == "" {
		return NewWriterError("sku must be set")
	}
	return nil
}

// TrackRecord — трек-номер во входной записи отгрузки.
type TrackRecord struct {
	Carrier        string
	TrackingNumber string
}

// ShipmentRecord — входная запись отгрузки.
type ShipmentRecord struct {
	OrderID string
	Tracks  []TrackRecord
}

// Validate проверяет наличие идентификатора заказа.
func (r ShipmentRecord) Validate() error {
	if r.OrderID == "" {
		return NewWriterError("order_id must be set")
	}
	return nil
}

// InvoiceRecord — входная запись счёта по заказу.
type InvoiceRecord struct {
	OrderID string
}

// Validate проверяет наличие идентификатора заказа.
func (r InvoiceRecord) Validate() error {
	if r.OrderID == "" {
		return NewWriterError("order_id must be set")
	}
	return nil
}

// ReturnLineRecord — запрошенное к возврату количество по SKU.
type ReturnLineRecord struct {
	SKU string
	Qty decimal.Decimal
}

// ReturnRecord — входная запись возврата.
type ReturnRecord struct {
	OrderID     string
	Items       []ReturnLineRecord
	Comment     string
	OrderStatus string
}

// Validate проверяет наличие идентификатора заказа.
func (r ReturnRecord) Validate() error {
	if r.OrderID == "" {
		return NewWriterError("order_id must be set")
	}
	return nil
}
