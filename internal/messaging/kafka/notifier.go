package kafka

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/commerce-import/internal/domain"
)

// EventPublisher отправляет событие в topic.
type EventPublisher interface {
	PublishEvent(topic string, key string, event any) error
}

// Notifier реализует domain.Notifier: письма клиенту уходят через сервис рассылки,
// который читает события из Kafka.
type Notifier struct {
	publisher EventPublisher
	topic     string
	now       func() time.Time
	logger    *log.Entry
}

// NotifierOption настраивает Notifier.
type NotifierOption func(*Notifier)

// WithNotifierClock подменяет источник времени событий.
func WithNotifierClock(now func() time.Time) NotifierOption {
	return func(n *Notifier) {
		if now != nil {
			n.now = now
		}
	}
}

// WithNotifierLogger задаёт logger.
func WithNotifierLogger(logger *log.Entry) NotifierOption {
	return func(n *Notifier) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// NewNotifier создаёт Notifier. Пустой topic заменяется TopicSalesNotifications.
func NewNotifier(publisher EventPublisher, topic string, options ...NotifierOption) *Notifier {
	if topic == "" {
		topic = TopicSalesNotifications
	}
	n := &Notifier{
		publisher: publisher,
		topic:     topic,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    log.WithField("component", "kafka-notifier"),
	}
	for _, option := range options {
		option(n)
	}
	return n
}

// CreditMemoCreated публикует событие о документе возврата. Ключ — increment ID заказа.
func (n *Notifier) CreditMemoCreated(ctx context.Context, memo domain.CreditMemo, order domain.Order) error {
	return n.publish(ctx, order.IncrementID, NewCreditMemoEvent(memo, order, n.now()))
}

// ShipmentCreated публикует событие об отгрузке.
func (n *Notifier) ShipmentCreated(ctx context.Context, shipment domain.Shipment, order domain.Order) error {
	return n.publish(ctx, order.IncrementID, NewShipmentEvent(shipment, order, n.now()))
}

func (n *Notifier) publish(ctx context.Context, key string, event *SalesDocumentEvent) error {
	if n == nil || n.publisher == nil {
		return fmt.Errorf("kafka notifier is not initialized")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := n.publisher.PublishEvent(n.topic, key, event); err != nil {
		return fmt.Errorf("publish %s for order %s: %w", event.EventType, key, err)
	}
	n.logger.WithFields(log.Fields{
		"event":    event.EventType,
		"order_id": key,
		"document": event.DocumentID,
	}).Info("customer notification queued")
	return nil
}

var _ domain.Notifier = (*Notifier)(nil)
