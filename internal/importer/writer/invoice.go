package writer

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/commerce-import/internal/domain"
)

// InvoiceWriter выставляет счёт на всё ещё не оплаченное количество заказа
// и фиксирует оплату как принятую вне платформы.
type InvoiceWriter struct {
	orders domain.OrderRepository
	tx     domain.SalesTransaction
	opts   Options
}

// NewInvoiceWriter создаёт писателя счетов.
func NewInvoiceWriter(orders domain.OrderRepository, tx domain.SalesTransaction, options ...Option) *InvoiceWriter {
	return &InvoiceWriter{
		orders: orders,
		tx:     tx,
		opts:   buildOptions("invoice-writer", options),
	}
}

// Prepare ничего не делает.
func (w *InvoiceWriter) Prepare(context.Context) error {
	return nil
}

// WriteItem выставляет счёт по заказу с указанным increment_id.
func (w *InvoiceWriter) WriteItem(ctx context.Context, record domain.InvoiceRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	logger := w.opts.Logger.WithField("order_id", record.OrderID)

	order, err := w.orders.FindBy(ctx, DefaultOrderIDField, record.OrderID)
	if err != nil {
		if domain.IsOrderNotFound(err) {
			return domain.NewWriterError(`Order with ID: "%s" cannot be found`, record.OrderID)
		}
		return domain.NewSaveError(err, "%v", err)
	}

	invoice := prepareInvoice(order, w.opts.Now())
	if !invoice.TotalQty.IsPositive() {
		return domain.NewWriterError(`Cannot create invoice without products. Order ID: "%s"`, record.OrderID)
	}
	invoice.CaptureCase = domain.CaptureOffline
	registerInvoice(&order, invoice)

	if err := w.tx.CommitInvoice(ctx, &invoice, &order); err != nil {
		logger.WithError(err).Warn("failed to commit invoice")
		return domain.NewSaveError(err, "%v", err)
	}

	logger.WithFields(log.Fields{
		"invoice_id":  invoice.ID,
		"grand_total": invoice.GrandTotal.String(),
	}).Debug("invoice created")
	return nil
}

// Finish ничего не делает.
func (w *InvoiceWriter) Finish(context.Context) error {
	return nil
}

// prepareInvoice включает в счёт весь ещё не выставленный остаток позиций.
// Доставка попадает только в первый счёт заказа.
func prepareInvoice(order domain.Order, now time.Time) domain.Invoice {
	invoice := domain.Invoice{
		OrderID:          order.ID,
		OrderIncrementID: order.IncrementID,
		CreatedAt:        now,
	}
	for _, item := range order.Items {
		qty := item.QtyToInvoice()
		if !qty.IsPositive() {
			continue
		}
		rowTotal := item.Price.Mul(qty)
		invoice.Items = append(invoice.Items, domain.InvoiceItem{
			OrderItemID: item.ID,
			SKU:         item.SKU,
			Qty:         qty,
			Price:       item.Price,
			RowTotal:    rowTotal,
		})
		invoice.TotalQty = invoice.TotalQty.Add(qty)
		invoice.Subtotal = invoice.Subtotal.Add(rowTotal)
	}
	if order.TotalInvoiced.IsZero() {
		invoice.ShippingAmount = order.ShippingAmount
	}
	invoice.GrandTotal = invoice.Subtotal.Add(invoice.ShippingAmount)
	return invoice
}

func registerInvoice(order *domain.Order, invoice domain.Invoice) {
	for _, invoiced := range invoice.Items {
		if item, ok := order.ItemByID(invoiced.OrderItemID); ok {
			item.QtyInvoiced = item.QtyInvoiced.Add(invoiced.Qty)
		}
	}
	order.TotalInvoiced = order.TotalInvoiced.Add(invoice.GrandTotal)
	if order.Status == domain.OrderStatusPending {
		order.Status = domain.OrderStatusProcessing
	}
}

var _ Writer[domain.InvoiceRecord] = (*InvoiceWriter)(nil)
