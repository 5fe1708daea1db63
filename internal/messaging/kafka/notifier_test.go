package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/commerce-import/internal/domain"
)

var notifiedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	topic string
	key   string
	event any
	err   error
}

func (p *recordingPublisher) PublishEvent(topic string, key string, event any) error {
	p.topic, p.key, p.event = topic, key, event
	return p.err
}

func testOrder() domain.Order {
	return domain.Order{ID: "o-1", IncrementID: "100000001", CustomerEmail: "john@example.com"}
}

func TestNotifier_CreditMemoCreated(t *testing.T) {
	publisher := &recordingPublisher{}
	notifier := NewNotifier(publisher, "", WithNotifierClock(func() time.Time { return notifiedAt }))

	memo := domain.CreditMemo{
		ID:         "cm-1",
		Items:      []domain.CreditMemoItem{{SKU: "SKU-A", Qty: decimal.NewFromInt(3), RowTotal: decimal.NewFromInt(30)}},
		GrandTotal: decimal.NewFromInt(30),
		Comments:   []string{"damaged"},
	}
	require.NoError(t, notifier.CreditMemoCreated(context.Background(), memo, testOrder()))

	assert.Equal(t, TopicSalesNotifications, publisher.topic)
	assert.Equal(t, "100000001", publisher.key)
	event, ok := publisher.event.(*SalesDocumentEvent)
	require.True(t, ok)
	assert.Equal(t, EventTypeCreditMemoCreated, event.EventType)
	assert.Equal(t, "cm-1", event.DocumentID)
	assert.Equal(t, "john@example.com", event.CustomerEmail)
	assert.Equal(t, notifiedAt, event.Timestamp)
	require.NotNil(t, event.GrandTotal)
	assert.True(t, event.GrandTotal.Equal(decimal.NewFromInt(30)))
}

func TestNotifier_ShipmentCreatedPayload(t *testing.T) {
	publisher := &recordingPublisher{}
	notifier := NewNotifier(publisher, "custom.topic", WithNotifierClock(func() time.Time { return notifiedAt }))

	shipment := domain.Shipment{ID: "sh-1", Items: []domain.ShipmentItem{{SKU: "SKU-A", Qty: decimal.NewFromInt(2)}}}
	require.NoError(t, notifier.ShipmentCreated(context.Background(), shipment, testOrder()))
	assert.Equal(t, "custom.topic", publisher.topic)

	payload, err := json.Marshal(publisher.event)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"event_type": "sales.shipment.created",
		"document_id": "sh-1",
		"order_id": "o-1",
		"order_increment_id": "100000001",
		"customer_email": "john@example.com",
		"items": [{"sku": "SKU-A", "qty": "2"}],
		"timestamp": "2024-03-01T12:00:00Z"
	}`, string(payload))
}

func TestNotifier_Errors(t *testing.T) {
	publishErr := errors.New("broker down")
	notifier := NewNotifier(&recordingPublisher{err: publishErr}, "")

	err := notifier.ShipmentCreated(context.Background(), domain.Shipment{}, testOrder())
	assert.ErrorIs(t, err, publishErr)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = NewNotifier(&recordingPublisher{}, "").CreditMemoCreated(ctx, domain.CreditMemo{}, testOrder())
	assert.ErrorIs(t, err, context.Canceled)

	var nilNotifier *Notifier
	assert.Error(t, nilNotifier.ShipmentCreated(context.Background(), domain.Shipment{}, testOrder()))
}

func TestNotifier_WithSaramaProducer(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageAndSucceed()
	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	producer := newProducer(mockProducer, log.WithField("test", "notifier"))
	notifier := NewNotifier(producer, "")

	require.NoError(t, notifier.ShipmentCreated(context.Background(), domain.Shipment{ID: "sh-1"}, testOrder()))
	assert.Error(t, notifier.CreditMemoCreated(context.Background(), domain.CreditMemo{ID: "cm-1"}, testOrder()))

	require.NoError(t, producer.Close())
}
