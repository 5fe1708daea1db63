package domain

import "context"

// RegionSource отдаёт справочник регионов всех стран.
type RegionSource interface {
	ListRegions(ctx context.Context) ([]Region, error)
}

// AttributeStore возвращает идентификатор значения атрибута, создавая его при отсутствии.
// Повторный вызов с теми же аргументами обязан вернуть тот же ID.
type AttributeStore interface {
	ResolveOrCreate(ctx context.Context, entityType, code, value string) (int64, error)
}

// ConfigurableProductService управляет связями configurable-товаров.
type ConfigurableProductService interface {
	// SetupConfigurable фиксирует набор configurable-атрибутов родителя.
	SetupConfigurable(ctx context.Context, product *Product, attributeCodes []string) error
	// AssignToParent привязывает simple-товар к родителю по SKU.
	AssignToParent(ctx context.Context, product *Product, parentSKU string) error
}

// ImageTransfer переносит изображение товара в хранилище медиа.
type ImageTransfer interface {
	ImportImage(ctx context.Context, product Product, image Image) error
}

// Notifier отправляет уведомления клиенту о документах по заказу.
type Notifier interface {
	CreditMemoCreated(ctx context.Context, memo CreditMemo, order Order) error
	ShipmentCreated(ctx context.Context, shipment Shipment, order Order) error
}
