package writer

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/commerce-import/internal/domain"
	"github.com/vladislavdragonenkov/commerce-import/internal/importer/totals"
)

const (
	// DefaultCustomerMappingAttribute — атрибут клиента, по которому ищется владелец заказа.
	DefaultCustomerMappingAttribute = "email"
	// DefaultPaymentMethodCode — способ оплаты импортированных заказов.
	DefaultPaymentMethodCode = "checkmo"
)

var codePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// OrderConfig задаёт поведение писателя заказов.
type OrderConfig struct {
	CustomerMappingAttribute string
	PaymentMethodCode        string
}

func (c *OrderConfig) normalize() error {
	if c.CustomerMappingAttribute == "" {
		c.CustomerMappingAttribute = DefaultCustomerMappingAttribute
	}
	if c.PaymentMethodCode == "" {
		c.PaymentMethodCode = DefaultPaymentMethodCode
	}
	if !codePattern.MatchString(c.CustomerMappingAttribute) {
		return fmt.Errorf("customer mapping attribute %q is not a valid attribute code", c.CustomerMappingAttribute)
	}
	if !codePattern.MatchString(c.PaymentMethodCode) {
		return fmt.Errorf("payment method code %q is not a valid code", c.PaymentMethodCode)
	}
	return nil
}

// OrderWriter создаёт заказы через корзину: клиент → корзина → позиции → заказ → сохранение.
type OrderWriter struct {
	customers domain.CustomerRepository
	products  domain.ProductRepository
	quotes    domain.QuoteRepository
	orders    domain.OrderRepository
	cfg       OrderConfig
	opts      Options
}

// NewOrderWriter создаёт писателя заказов. Невалидная конфигурация отклоняется сразу.
func NewOrderWriter(
	customers domain.CustomerRepository,
	products domain.ProductRepository,
	quotes domain.QuoteRepository,
	orders domain.OrderRepository,
	cfg OrderConfig,
	options ...Option,
) (*OrderWriter, error) {
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &OrderWriter{
		customers: customers,
		products:  products,
		quotes:    quotes,
		orders:    orders,
		cfg:       cfg,
		opts:      buildOptions("order-writer", options),
	}, nil
}

// Prepare ничего не кэширует.
func (w *OrderWriter) Prepare(context.Context) error {
	return nil
}

// WriteItem создаёт один заказ.
func (w *OrderWriter) WriteItem(ctx context.Context, record domain.OrderRecord) error {
	logger := w.opts.Logger.WithField("increment_id", record.IncrementID)

	customer, err := w.customers.FindByAttribute(ctx, w.cfg.CustomerMappingAttribute, record.CustomerRef)
	switch {
	case errors.Is(err, domain.ErrCustomerNotFound) || (err == nil && customer.ID == ""):
		return domain.NewWriterError(`Customer could not be found. Using field "%s" with value "%s"`, w.cfg.CustomerMappingAttribute, record.CustomerRef)
	case err != nil:
		return domain.NewSaveError(err, "customer lookup failed: %v", err)
	}

	if err := record.Validate(); err != nil {
		return err
	}

	quote, err := w.buildQuote(ctx, customer, record)
	if err != nil {
		return err
	}

	quote.CollectTotals()
	if err := w.quotes.Save(ctx, &quote); err != nil {
		logger.WithError(err).Warn("failed to save quote")
		return domain.NewSaveError(err, "%v", err)
	}

	order := quote.ToOrder()
	totals.Apply(&order, record)
	if err := w.orders.Place(ctx, &order); err != nil {
		logger.WithError(err).Warn("failed to place order")
		return domain.NewSaveError(err, "%v", err)
	}

	quote.IsActive = false
	if err := w.quotes.Save(ctx, &quote); err != nil {
		logger.WithError(err).Warn("failed to deactivate quote")
		return domain.NewSaveError(err, "%v", err)
	}

	logger.WithFields(log.Fields{
		"order_id":    order.ID,
		"grand_total": order.GrandTotal.String(),
	}).Debug("order imported")
	return nil
}

func (w *OrderWriter) buildQuote(ctx context.Context, customer domain.Customer, record domain.OrderRecord) (domain.Quote, error) {
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = w.opts.Now()
	}

	quote := domain.Quote{
		IsActive:        true,
		ReservedOrderID: record.IncrementID,
		PaymentMethod:   w.cfg.PaymentMethodCode,
		CreatedAt:       createdAt,
	}
	quote.AssignCustomer(customer)

	for _, line := range record.Items {
		product, err := w.products.FindBySKU(ctx, line.SKU)
		if errors.Is(err, domain.ErrProductNotFound) {
			return domain.Quote{}, domain.NewWriterError("Product with SKU: %s does not exist", line.SKU)
		}
		if err != nil {
			return domain.Quote{}, domain.NewSaveError(err, "product lookup failed for SKU %s: %v", line.SKU, err)
		}
		quote.AddProduct(product, line.Qty, line.Price)
	}

	quote.BillingAddress, quote.ShippingAddress = quoteAddresses(customer)
	return quote, nil
}

// quoteAddresses: счёт — адрес по умолчанию либо первый, доставка — адрес по умолчанию либо адрес счёта.
func quoteAddresses(customer domain.Customer) (billing, shipping domain.Address) {
	billing, ok := customer.DefaultBillingAddress()
	if !ok && len(customer.Addresses) > 0 {
		billing = customer.Addresses[0]
	}
	shipping, ok = customer.DefaultShippingAddress()
	if !ok {
		shipping = billing
	}
	return billing, shipping
}

// Finish ничего не делает.
func (w *OrderWriter) Finish(context.Context) error {
	return nil
}

var _ Writer[domain.OrderRecord] = (*OrderWriter)(nil)
