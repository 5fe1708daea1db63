package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/commerce-import/internal/domain"
)

// orderRepositoryInMemory — простая in-memory реализация OrderRepository.
type orderRepositoryInMemory struct {
	mu          sync.RWMutex
	items       map[string]domain.Order
	byIncrement map[string]string
}

// NewOrderRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewOrderRepository() domain.OrderRepository {
	return &orderRepositoryInMemory{
		items:       make(map[string]domain.Order),
		byIncrement: make(map[string]string),
	}
}

func cloneOrder(order domain.Order) domain.Order {
	order.Items = slices.Clone(order.Items)
	order.StatusHistory = slices.Clone(order.StatusHistory)
	return order
}

// FindBy ищет заказ по increment_id или по внутреннему ID.
func (r *orderRepositoryInMemory) FindBy(_ context.Context, field, value string) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var id string
	switch field {
	case "increment_id":
		id = r.byIncrement[value]
	case "entity_id", "id":
		id = value
	default:
		return domain.Order{}, fmt.Errorf("unsupported order lookup field %q", field)
	}

	order, ok := r.items[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

// Place сохраняет новый заказ, если increment_id ещё не занят.
func (r *orderRepositoryInMemory) Place(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.IncrementID != "" {
		if _, exists := r.byIncrement[order.IncrementID]; exists {
			return fmt.Errorf("order %s: %w", order.IncrementID, domain.ErrAggregateExists)
		}
	}
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.NewString()
		}
	}
	order.Version = 0

	r.items[order.ID] = cloneOrder(*order)
	if order.IncrementID != "" {
		r.byIncrement[order.IncrementID] = order.ID
	}
	return nil
}

// Save перезаписывает заказ, проверяя версию (optimistic locking).
func (r *orderRepositoryInMemory) Save(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[order.ID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if current.Version != order.Version {
		return domain.ErrOrderVersionConflict
	}
	// Инкрементируем версию перед сохранением.
	order.Version++
	r.items[order.ID] = cloneOrder(*order)
	return nil
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
