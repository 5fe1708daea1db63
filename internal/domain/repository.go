package domain

import "context"

// CustomerRepository описывает требования к хранилищу клиентов.
type CustomerRepository interface {
	// FindByAttribute ищет клиента по значению атрибута. Возвращает ErrCustomerNotFound, если его нет.
	FindByAttribute(ctx context.Context, attribute, value string) (Customer, error)
	// Save создаёт или обновляет клиента вместе с адресами, заполняя ID.
	Save(ctx context.Context, customer *Customer) error
}

// ProductRepository описывает требования к хранилищу каталога.
type ProductRepository interface {
	// DefaultAttributeSetID возвращает набор атрибутов товара по умолчанию.
	DefaultAttributeSetID(ctx context.Context) (int64, error)
	// FindBySKU возвращает товар или ErrProductNotFound.
	FindBySKU(ctx context.Context, sku string) (Product, error)
	// Save создаёт или обновляет товар, заполняя ID.
	Save(ctx context.Context, product *Product) error
	// Delete удаляет товар по ID (компенсация частично сохранённого товара).
	Delete(ctx context.Context, id string) error
}

// QuoteRepository сохраняет корзины.
type QuoteRepository interface {
	Save(ctx context.Context, quote *Quote) error
}

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// FindBy ищет заказ по полю (increment_id или entity_id). Возвращает ErrOrderNotFound.
	FindBy(ctx context.Context, field, value string) (Order, error)
	// Place размещает новый заказ. Возвращает ErrAggregateExists при повторе increment_id.
	Place(ctx context.Context, order *Order) error
	// Save применяет обновления к заказу с учётом optimistic locking.
	Save(ctx context.Context, order *Order) error
}

// CreditMemoRepository даёт доступ к уже созданным документам возврата.
type CreditMemoRepository interface {
	ListByOrder(ctx context.Context, orderID string) ([]CreditMemo, error)
}

// TrackRepository сохраняет трек-номера отгрузок.
type TrackRepository interface {
	Save(ctx context.Context, track *Track) error
}

// SalesTransaction атомарно фиксирует документ вместе с изменённым заказом.
type SalesTransaction interface {
	CommitCreditMemo(ctx context.Context, memo *CreditMemo, order *Order) error
	CommitShipment(ctx context.Context, shipment *Shipment, order *Order) error
	CommitInvoice(ctx context.Context, invoice *Invoice, order *Order) error
}
