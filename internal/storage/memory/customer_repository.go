package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/commerce-import/internal/domain"
)

// customerRepositoryInMemory хранит клиентов по ID; email уникален.
type customerRepositoryInMemory struct {
	mu      sync.RWMutex
	items   map[string]domain.Customer
	byEmail map[string]string
}

// NewCustomerRepository возвращает in-memory репозиторий клиентов.
func NewCustomerRepository() domain.CustomerRepository {
	return &customerRepositoryInMemory{
		items:   make(map[string]domain.Customer),
		byEmail: make(map[string]string),
	}
}

func cloneCustomer(customer domain.Customer) domain.Customer {
	customer.Addresses = slices.Clone(customer.Addresses)
	customer.Attributes = maps.Clone(customer.Attributes)
	return customer
}

// FindByAttribute выполняет линейный поиск по атрибуту; email ищется по индексу.
func (r *customerRepositoryInMemory) FindByAttribute(_ context.Context, attribute, value string) (domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if attribute == "email" {
		if customer, ok := r.items[r.byEmail[value]]; ok {
			return cloneCustomer(customer), nil
		}
		return domain.Customer{}, domain.ErrCustomerNotFound
	}

	for _, customer := range r.items {
		if customer.Attribute(attribute) == value {
			return cloneCustomer(customer), nil
		}
	}
	return domain.Customer{}, domain.ErrCustomerNotFound
}

// Save создаёт клиента или обновляет существующего с тем же email.
func (r *customerRepositoryInMemory) Save(_ context.Context, customer *domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if customer.ID == "" {
		if id, ok := r.byEmail[customer.Email]; ok && customer.Email != "" {
			customer.ID = id
		} else {
			customer.ID = uuid.NewString()
		}
	}
	for i := range customer.Addresses {
		if customer.Addresses[i].ID == "" {
			customer.Addresses[i].ID = uuid.NewString()
		}
	}

	if previous, ok := r.items[customer.ID]; ok && previous.Email != customer.Email {
		delete(r.byEmail, previous.Email)
	}
	r.items[customer.ID] = cloneCustomer(*customer)
	if customer.Email != "" {
		r.byEmail[customer.Email] = customer.ID
	}
	return nil
}

var _ domain.CustomerRepository = (*customerRepositoryInMemory)(nil)
