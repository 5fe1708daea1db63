package writer

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/commerce-import/internal/domain"
	"github.com/vladislavdragonenkov/commerce-import/internal/importer/refund"
)

// DefaultOrderIDField — поле, по которому ищется заказ возврата.
const DefaultOrderIDField = "increment_id"

// ReturnsConfig задаёт поведение писателя возвратов.
type ReturnsConfig struct {
	OrderIDField        string
	SendCreditMemoEmail bool
}

// DefaultReturnsConfig возвращает конфигурацию по умолчанию: поиск по increment_id, письмо отправляется.
func DefaultReturnsConfig() ReturnsConfig {
	return ReturnsConfig{
		OrderIDField:        DefaultOrderIDField,
		SendCreditMemoEmail: true,
	}
}

// ReturnsWriter создаёт офлайн-возвраты по существующим заказам.
type ReturnsWriter struct {
	orders      domain.OrderRepository
	creditMemos domain.CreditMemoRepository
	tx          domain.SalesTransaction
	notifier    domain.Notifier
	cfg         ReturnsConfig
	opts        Options
}

// NewReturnsWriter создаёт писателя возвратов. notifier может быть nil.
func NewReturnsWriter(
	orders domain.OrderRepository,
	creditMemos domain.CreditMemoRepository,
	tx domain.SalesTransaction,
	notifier domain.Notifier,
	cfg ReturnsConfig,
	options ...Option,
) *ReturnsWriter {
	if cfg.OrderIDField == "" {
		cfg.OrderIDField = DefaultOrderIDField
	}
	return &ReturnsWriter{
		orders:      orders,
		creditMemos: creditMemos,
		tx:          tx,
		notifier:    notifier,
		cfg:         cfg,
		opts:        buildOptions("returns-writer", options),
	}
}

// Prepare ничего не делает.
func (w *ReturnsWriter) Prepare(context.Context) error {
	return nil
}

// WriteItem создаёт один документ возврата.
func (w *ReturnsWriter) WriteItem(ctx context.Context, record domain.ReturnRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	logger := w.opts.Logger.WithField("order_id", record.OrderID)

	order, err := w.orders.FindBy(ctx, w.cfg.OrderIDField, record.OrderID)
	if err != nil {
		if domain.IsOrderNotFound(err) {
			return domain.NewWriterError(`Cannot find order with id: "%s", using: "%s" as id field`, record.OrderID, w.cfg.OrderIDField)
		}
		return domain.NewSaveError(err, "%v", err)
	}

	memos, err := w.creditMemos.ListByOrder(ctx, order.ID)
	if err != nil {
		return domain.NewSaveError(err, "%v", err)
	}

	qtys, err := refund.Reconcile(order, record.Items, memos, record.OrderID)
	if err != nil {
		return err
	}

	memo, err := refund.NewCreditMemo(order, qtys, w.opts.Now())
	if err != nil {
		logger.WithError(err).Warn("credit memo rejected")
		return domain.NewSaveError(err, "%v", err)
	}
	memo.OfflineRequested = true
	if record.Comment != "" {
		memo.AddComment(record.Comment)
	}
	refund.Register(&order, memo)

	if err := w.tx.CommitCreditMemo(ctx, &memo, &order); err != nil {
		logger.WithError(err).Warn("failed to commit credit memo")
		return domain.NewSaveError(err, "%v", err)
	}

	// Статус выставляется после фиксации: при сохранении документа платформа переводит заказ в свой статус.
	if record.OrderStatus != "" {
		order.AddStatusHistoryComment("Returned", record.OrderStatus, w.opts.Now())
		if err := w.orders.Save(ctx, &order); err != nil {
			logger.WithError(err).Warn("failed to update order status")
			return domain.NewSaveError(err, "%v", err)
		}
	}

	if w.cfg.SendCreditMemoEmail && w.notifier != nil {
		if err := w.notifier.CreditMemoCreated(ctx, memo, order); err != nil {
			logger.WithError(err).WithField("credit_memo_id", memo.ID).Warn("credit memo notification failed")
		}
	}

	logger.WithFields(log.Fields{
		"credit_memo_id": memo.ID,
		"items":          len(memo.Items),
	}).Debug("credit memo created")
	return nil
}

// Finish ничего не делает.
func (w *ReturnsWriter) Finish(context.Context) error {
	return nil
}

var _ Writer[domain.ReturnRecord] = (*ReturnsWriter)(nil)
