package writer_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/commerce-import/internal/domain"
	"github.com/vladislavdragonenkov/commerce-import/internal/importer/writer"
	"github.com/vladislavdragonenkov/commerce-import/internal/storage/memory"
)

type salesFixture struct {
	orders domain.OrderRepository
	sales  *memory.SalesStore
	order  domain.Order
}

func newSalesFixture(t *testing.T) salesFixture {
	t.Helper()
	orders := memory.NewOrderRepository()
	order := domain.Order{
		IncrementID: "100000007",
		CustomerID:  "c-1",
		Status:      domain.OrderStatusPending,
		Items: []domain.OrderItem{
			{SKU: "A", QtyOrdered: decimal.NewFromInt(10), Price: decimal.NewFromInt(5)},
			{SKU: "B", QtyOrdered: decimal.NewFromInt(1), Price: decimal.NewFromInt(40)},
		},
	}
	require.NoError(t, orders.Place(context.Background(), &order))
	return salesFixture{orders: orders, sales: memory.NewSalesStore(orders), order: order}
}

func TestShipmentWriter_ShipsOrderWithoutTracks(t *testing.T) {
	ctx := context.Background()
	f := newSalesFixture(t)
	tracks := &countingTracks{TrackRepository: f.sales}
	w := writer.NewShipmentWriter(f.orders, f.sales, tracks, nil, writer.ShipmentConfig{}, testOptions("shipment")...)
	require.NoError(t, w.Prepare(ctx))

	require.NoError(t, w.WriteItem(ctx, domain.ShipmentRecord{OrderID: "100000007"}))

	assert.Zero(t, tracks.calls)
	shipments := f.sales.Shipments(f.order.ID)
	require.Len(t, shipments, 1)
	assert.Equal(t, "11", shipments[0].TotalQty.String())

	stored, err := f.orders.FindBy(ctx, "entity_id", f.order.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsInProcess)
	assert.Equal(t, "10", stored.Items[0].QtyShipped.String())
}

func TestShipmentWriter_SavesTracks(t *testing.T) {
	ctx := context.Background()
	f := newSalesFixture(t)
	tracks := &countingTracks{TrackRepository: f.sales}
	w := writer.NewShipmentWriter(f.orders, f.sales, tracks, nil, writer.ShipmentConfig{}, testOptions("shipment")...)

	require.NoError(t, w.WriteItem(ctx, domain.ShipmentRecord{
		OrderID: "100000007",
		Tracks: []domain.TrackRecord{
			{Carrier: "DHL", TrackingNumber: "JD0001"},
			{Carrier: "UPS", TrackingNumber: "1Z999"},
		},
	}))

	assert.Equal(t, 2, tracks.calls)
	saved := f.sales.Tracks(f.order.ID)
	require.Len(t, saved, 2)
	assert.Equal(t, domain.CarrierCodeCustom, saved[0].CarrierCode)
	assert.Equal(t, "DHL", saved[0].Title)
	assert.Equal(t, "JD0001", saved[0].Number)
	assert.Equal(t, f.order.ID, saved[0].OrderID)
	assert.Equal(t, f.sales.Shipments(f.order.ID)[0].ID, saved[0].ShipmentID)
}

func TestShipmentWriter_Validation(t *testing.T) {
	ctx := context.Background()
	f := newSalesFixture(t)
	w := writer.NewShipmentWriter(f.orders, f.sales, f.sales, nil, writer.ShipmentConfig{}, testOptions("shipment")...)

	err := w.WriteItem(ctx, domain.ShipmentRecord{})
	require.Error(t, err)
	assert.True(t, domain.IsWriterError(err))
	assert.Equal(t, "order_id must be set", err.Error())

	err = w.WriteItem(ctx, domain.ShipmentRecord{OrderID: "404"})
	require.Error(t, err)
	assert.True(t, domain.IsWriterError(err))
	assert.Equal(t, `Order with ID: "404" cannot be found`, err.Error())

	err = w.WriteItem(ctx, domain.ShipmentRecord{OrderID: f.order.ID})
	require.Error(t, err)
	assert.Equal(t, fmt.Sprintf(`Order with ID: "%s" cannot be found`, f.order.ID), err.Error(), "lookup goes by increment id only")
}

func TestShipmentWriter_NothingLeftToShip(t *testing.T) {
	ctx := context.Background()
	f := newSalesFixture(t)
	w := writer.NewShipmentWriter(f.orders, f.sales, f.sales, nil, writer.ShipmentConfig{}, testOptions("shipment")...)

	require.NoError(t, w.WriteItem(ctx, domain.ShipmentRecord{OrderID: "100000007"}))
	err := w.WriteItem(ctx, domain.ShipmentRecord{OrderID: "100000007"})

	assert.True(t, domain.IsSaveError(err))
	assert.ErrorIs(t, err, domain.ErrNothingToShip)
}

func TestShipmentWriter_TrackFailureIsSaveError(t *testing.T) {
	ctx := context.Background()
	f := newSalesFixture(t)
	tracks := &countingTracks{TrackRepository: f.sales, err: errors.New("constraint violation")}
	w := writer.NewShipmentWriter(f.orders, f.sales, tracks, nil, writer.ShipmentConfig{}, testOptions("shipment")...)

	err := w.WriteItem(ctx, domain.ShipmentRecord{OrderID: "100000007", Tracks: []domain.TrackRecord{{Carrier: "DHL", TrackingNumber: "1"}}})
	assert.True(t, domain.IsSaveError(err))
}

func TestShipmentWriter_NotificationGate(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled by default", func(t *testing.T) {
		f := newSalesFixture(t)
		notifier := &recordingNotifier{}
		w := writer.NewShipmentWriter(f.orders, f.sales, f.sales, notifier, writer.ShipmentConfig{}, testOptions("shipment")...)

		require.NoError(t, w.WriteItem(ctx, domain.ShipmentRecord{OrderID: "100000007"}))
		assert.Empty(t, notifier.shipments)
	})

	t.Run("enabled and failing is not an error", func(t *testing.T) {
		f := newSalesFixture(t)
		notifier := &recordingNotifier{err: errors.New("smtp down")}
		w := writer.NewShipmentWriter(f.orders, f.sales, f.sales, notifier, writer.ShipmentConfig{SendShipmentEmail: true}, testOptions("shipment")...)

		require.NoError(t, w.WriteItem(ctx, domain.ShipmentRecord{OrderID: "100000007"}))
		assert.Len(t, notifier.shipments, 1)
	})
}
