package writer

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/commerce-import/internal/domain"
)

// ShipmentConfig задаёт поведение писателя отгрузок.
type ShipmentConfig struct {
	SendShipmentEmail bool
}

// ShipmentWriter отгружает заказы целиком и сохраняет трек-номера.
type ShipmentWriter struct {
	orders   domain.OrderRepository
	tx       domain.SalesTransaction
	tracks   domain.TrackRepository
	notifier domain.Notifier
	cfg      ShipmentConfig
	opts     Options
}

// NewShipmentWriter создаёт писателя отгрузок. notifier может быть nil.
func NewShipmentWriter(
	orders domain.OrderRepository,
	tx domain.SalesTransaction,
	tracks domain.TrackRepository,
	notifier domain.Notifier,
	cfg ShipmentConfig,
	options ...Option,
) *ShipmentWriter {
	return &ShipmentWriter{
		orders:   orders,
		tx:       tx,
		tracks:   tracks,
		notifier: notifier,
		cfg:      cfg,
		opts:     buildOptions("shipment-writer", options),
	}
}

// Prepare ничего не делает.
func (w *ShipmentWriter) Prepare(context.Context) error {
	return nil
}

// WriteItem создаёт отгрузку по заказу с указанным increment_id.
func (w *ShipmentWriter) WriteItem(ctx context.Context, record domain.ShipmentRecord) error {
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

	shipment, err := prepareShipment(order, w.opts.Now())
	if err != nil {
		return domain.NewSaveError(err, "%v", err)
	}
	registerShipment(&order, shipment)
	order.IsInProcess = true

	if err := w.tx.CommitShipment(ctx, &shipment, &order); err != nil {
		logger.WithError(err).Warn("failed to commit shipment")
		return domain.NewSaveError(err, "%v", err)
	}

	for _, data := range record.Tracks {
		track := domain.Track{
			ShipmentID:  shipment.ID,
			OrderID:     order.ID,
			CarrierCode: domain.CarrierCodeCustom,
			Title:       data.Carrier,
			Number:      data.TrackingNumber,
			CreatedAt:   w.opts.Now(),
		}
		if err := w.tracks.Save(ctx, &track); err != nil {
			logger.WithError(err).WithField("tracking_number", data.TrackingNumber).Warn("failed to save track")
			return domain.NewSaveError(err, "%v", err)
		}
	}

	if w.cfg.SendShipmentEmail && w.notifier != nil {
		if err := w.notifier.ShipmentCreated(ctx, shipment, order); err != nil {
			logger.WithError(err).WithField("shipment_id", shipment.ID).Warn("shipment notification failed")
		}
	}

	logger.WithFields(log.Fields{
		"shipment_id": shipment.ID,
		"tracks":      len(record.Tracks),
	}).Debug("shipment created")
	return nil
}

// prepareShipment отгружает всё, что ещё не отгружено и не возвращено.
func prepareShipment(order domain.Order, now time.Time) (domain.Shipment, error) {
	shipment := domain.Shipment{
		OrderID:          order.ID,
		OrderIncrementID: order.IncrementID,
		CreatedAt:        now,
	}
	for _, item := range order.Items {
		qty := item.QtyToShip()
		if !qty.IsPositive() {
			continue
		}
		shipment.Items = append(shipment.Items, domain.ShipmentItem{
			OrderItemID: item.ID,
			SKU:         item.SKU,
			Qty:         qty,
		})
		shipment.TotalQty = shipment.TotalQty.Add(qty)
	}
	if len(shipment.Items) == 0 {
		return domain.Shipment{}, domain.ErrNothingToShip
	}
	return shipment, nil
}

func registerShipment(order *domain.Order, shipment domain.Shipment) {
	for _, shipped := range shipment.Items {
		if item, ok := order.ItemByID(shipped.OrderItemID); ok {
			item.QtyShipped = item.QtyShipped.Add(shipped.Qty)
		}
	}
	order.Status = domain.OrderStatusProcessing
}

// Finish ничего не делает.
func (w *ShipmentWriter) Finish(context.Context) error {
	return nil
}

var _ Writer[domain.ShipmentRecord] = (*ShipmentWriter)(nil)
