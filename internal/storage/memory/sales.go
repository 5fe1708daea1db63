package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/commerce-import/internal/domain"
)

// quoteRepositoryInMemory хранит корзины по ID.
type quoteRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Quote
}

// NewQuoteRepository возвращает in-memory репозиторий корзин.
func NewQuoteRepository() domain.QuoteRepository {
	return &quoteRepositoryInMemory{items: make(map[string]domain.Quote)}
}

// Save создаёт или перезаписывает корзину.
func (r *quoteRepositoryInMemory) Save(_ context.Context, quote *domain.Quote) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if quote.ID == "" {
		quote.ID = uuid.NewString()
	}
	for i := range quote.Items {
		if quote.Items[i].ID == "" {
			quote.Items[i].ID = uuid.NewString()
		}
	}
	stored := *quote
	stored.Items = slices.Clone(quote.Items)
	r.items[quote.ID] = stored
	return nil
}

// SalesStore хранит документы возврата, счета, отгрузки и трек-номера. Фиксация документа
// и заказа выполняется под одной блокировкой.
type SalesStore struct {
	orders domain.OrderRepository

	mu        sync.RWMutex
	memos     map[string][]domain.CreditMemo
	invoices  map[string][]domain.Invoice
	shipments map[string][]domain.Shipment
	tracks    map[string][]domain.Track
}

// NewSalesStore создаёт хранилище документов поверх репозитория заказов.
func NewSalesStore(orders domain.OrderRepository) *SalesStore {
	return &SalesStore{
		orders:    orders,
		memos:     make(map[string][]domain.CreditMemo),
		invoices:  make(map[string][]domain.Invoice),
		shipments: make(map[string][]domain.Shipment),
		tracks:    make(map[string][]domain.Track),
	}
}

// ListByOrder возвращает документы возврата заказа.
func (s *SalesStore) ListByOrder(_ context.Context, orderID string) ([]domain.CreditMemo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.memos[orderID]), nil
}

// CommitCreditMemo сохраняет заказ и документ возврата. При конфликте версий документ не сохраняется.
func (s *SalesStore) CommitCreditMemo(ctx context.Context, memo *domain.CreditMemo, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.orders.Save(ctx, order); err != nil {
		return err
	}
	if memo.ID == "" {
		memo.ID = uuid.NewString()
	}
	stored := *memo
	stored.Items = slices.Clone(memo.Items)
	stored.Comments = slices.Clone(memo.Comments)
	s.memos[order.ID] = append(s.memos[order.ID], stored)
	return nil
}

// CommitShipment сохраняет заказ и отгрузку.
func (s *SalesStore) CommitShipment(ctx context.Context, shipment *domain.Shipment, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.orders.Save(ctx, order); err != nil {
		return err
	}
	if shipment.ID == "" {
		shipment.ID = uuid.NewString()
	}
	stored := *shipment
	stored.Items = slices.Clone(shipment.Items)
	s.shipments[order.ID] = append(s.shipments[order.ID], stored)
	return nil
}

// CommitInvoice сохраняет заказ и счёт.
func (s *SalesStore) CommitInvoice(ctx context.Context, invoice *domain.Invoice, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.orders.Save(ctx, order); err != nil {
		return err
	}
	if invoice.ID == "" {
		invoice.ID = uuid.NewString()
	}
	stored := *invoice
	stored.Items = slices.Clone(invoice.Items)
	s.invoices[order.ID] = append(s.invoices[order.ID], stored)
	return nil
}

// Save сохраняет трек-номер.
func (s *SalesStore) Save(_ context.Context, track *domain.Track) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if track.ID == "" {
		track.ID = uuid.NewString()
	}
	s.tracks[track.OrderID] = append(s.tracks[track.OrderID], *track)
	return nil
}

// Shipments возвращает отгрузки заказа.
func (s *SalesStore) Shipments(orderID string) []domain.Shipment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.shipments[orderID])
}

// Invoices возвращает счета заказа.
func (s *SalesStore) Invoices(orderID string) []domain.Invoice {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.invoices[orderID])
}

// Tracks возвращает трек-номера заказа.
func (s *SalesStore) Tracks(orderID string) []domain.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.tracks[orderID])
}

var (
	_ domain.QuoteRepository      = (*quoteRepositoryInMemory)(nil)
	_ domain.CreditMemoRepository = (*SalesStore)(nil)
	_ domain.SalesTransaction     = (*SalesStore)(nil)
	_ domain.TrackRepository      = (*SalesStore)(nil)
)
