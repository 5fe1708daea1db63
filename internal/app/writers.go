package app

import (
	"fmt"

	"github.com/vladislavdragonenkov/commerce-import/internal/config"
	"github.com/vladislavdragonenkov/commerce-import/internal/domain"
	"github.com/vladislavdragonenkov/commerce-import/internal/importer/writer"
)

// Writers — писатели всех сущностей, собранные из одной конфигурации.
type Writers struct {
	Customers      *writer.CustomerWriter
	Invoices       *writer.InvoiceWriter
	Orders         *writer.OrderWriter
	Products       *writer.ProductWriter
	ProductUpdates *writer.ProductUpdateWriter
	Returns        *writer.ReturnsWriter
	Shipments      *writer.ShipmentWriter
}

// NewWriters строит писателей. Ошибка конфигурации заказов или профиля товара возвращается сразу.
func NewWriters(cfg *config.Config, deps *Dependencies) (*Writers, error) {
	options := func(name string) []writer.Option {
		return []writer.Option{
			writer.WithLogger(deps.Logger.WithField("writer", name)),
			writer.WithRegionMissRecorder(deps.Metrics),
			writer.WithCompensationRecorder(deps.Metrics),
		}
	}

	orders, err := writer.NewOrderWriter(deps.Customers, deps.Products, deps.Quotes, deps.Orders, writer.OrderConfig{
		CustomerMappingAttribute: cfg.Order.CustomerMappingAttribute,
		PaymentMethodCode:        cfg.Order.PaymentMethodCode,
	}, options("order")...)
	if err != nil {
		return nil, fmt.Errorf("order writer: %w", err)
	}

	profile, err := config.LoadProductProfile(cfg.Product.DefaultsFile)
	if err != nil {
		return nil, err
	}

	return &Writers{
		Customers: writer.NewCustomerWriter(deps.Customers, deps.Regions, writer.CustomerConfig{
			WithAddresses:  cfg.Customer.WithAddresses,
			TitleCaseNames: cfg.Customer.TitleCaseNames,
		}, options("customer")...),
		Invoices: writer.NewInvoiceWriter(deps.Orders, deps.Sales, options("invoice")...),
		Orders:   orders,
		Products: writer.NewProductWriter(deps.Products, deps.Attributes, deps.Configurable, deps.Images,
			productDefaults(profile), options("product")...),
		ProductUpdates: writer.NewProductUpdateWriter(deps.Products, options("product-update")...),
		Returns: writer.NewReturnsWriter(deps.Orders, deps.CreditMemos, deps.Sales, deps.Notifier, writer.ReturnsConfig{
			OrderIDField:        cfg.Returns.OrderIDField,
			SendCreditMemoEmail: cfg.Returns.SendCreditMemoEmail,
		}, options("returns")...),
		Shipments: writer.NewShipmentWriter(deps.Orders, deps.Sales, deps.Tracks, deps.Notifier, writer.ShipmentConfig{
			SendShipmentEmail: cfg.Shipment.SendShipmentEmail,
		}, options("shipment")...),
	}, nil
}

// productDefaults накладывает YAML-профиль на встроенный профиль товара.
func productDefaults(profile config.ProductProfile) writer.ProductDefaults {
	defaults := writer.DefaultProductDefaults()
	if profile.Status != nil {
		defaults.Status = *profile.Status
	}
	if profile.TaxClassID != nil {
		defaults.TaxClassID = *profile.TaxClassID
	}
	if len(profile.WebsiteIDs) > 0 {
		defaults.WebsiteIDs = profile.WebsiteIDs
	}
	if profile.TypeID != "" {
		defaults.TypeID = domain.ProductType(profile.TypeID)
	}
	if profile.Weight != "" {
		defaults.Weight = profile.Weight
	}
	if profile.Stock != nil {
		defaults.Stock = *profile.Stock
	}
	return defaults
}
