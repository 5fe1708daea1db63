package writer_test

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/commerce-import/internal/domain"
	"github.com/vladislavdragonenkov/commerce-import/internal/importer/writer"
	"github.com/vladislavdragonenkov/commerce-import/internal/storage/memory"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testOptions(name string) []writer.Option {
	return []writer.Option{
		writer.WithLogger(log.New().WithField("test", name)),
		writer.WithClock(func() time.Time { return fixedNow }),
	}
}

type failingCustomers struct {
	domain.CustomerRepository
	saveErr error
}

func (f failingCustomers) Save(context.Context, *domain.Customer) error {
	return f.saveErr
}

// countingProducts считает обращения к каталогу и позволяет подменять ошибки.
type countingProducts struct {
	*memory.ProductRepository

	mu        sync.Mutex
	saves     int
	deletes   []string
	saveErr   error
	assignErr error
	setupErr  error
}

func newCountingProducts() *countingProducts {
	return &countingProducts{ProductRepository: memory.NewProductRepository()}
}

func (c *countingProducts) Save(ctx context.Context, product *domain.Product) error {
	c.mu.Lock()
	c.saves++
	err := c.saveErr
	c.mu.Unlock()
	if err != nil {
		return err
	}
	return c.ProductRepository.Save(ctx, product)
}

func (c *countingProducts) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	c.deletes = append(c.deletes, id)
	c.mu.Unlock()
	return c.ProductRepository.Delete(ctx, id)
}

func (c *countingProducts) AssignToParent(ctx context.Context, product *domain.Product, parentSKU string) error {
	if c.assignErr != nil {
		return c.assignErr
	}
	return c.ProductRepository.AssignToParent(ctx, product, parentSKU)
}

func (c *countingProducts) SetupConfigurable(ctx context.Context, product *domain.Product, codes []string) error {
	if c.setupErr != nil {
		return c.setupErr
	}
	return c.ProductRepository.SetupConfigurable(ctx, product, codes)
}

type countingAttributes struct {
	domain.AttributeStore
	calls int
}

func (c *countingAttributes) ResolveOrCreate(ctx context.Context, entityType, code, value string) (int64, error) {
	c.calls++
	return c.AttributeStore.ResolveOrCreate(ctx, entityType, code, value)
}

type failingImages struct {
	err     error
	failAt  int
	calls   int
	success []domain.Image
}

func (f *failingImages) ImportImage(_ context.Context, _ domain.Product, image domain.Image) error {
	f.calls++
	if f.calls == f.failAt {
		return f.err
	}
	f.success = append(f.success, image)
	return nil
}

type countingRegions struct {
	domain.RegionSource
	calls int
}

func (c *countingRegions) ListRegions(ctx context.Context) ([]domain.Region, error) {
	c.calls++
	return c.RegionSource.ListRegions(ctx)
}

// recordingQuotes запоминает состояние корзины при каждом сохранении.
type recordingQuotes struct {
	domain.QuoteRepository
	saved []domain.Quote
	err   error
}

func (r *recordingQuotes) Save(ctx context.Context, quote *domain.Quote) error {
	if r.err != nil {
		return r.err
	}
	if err := r.QuoteRepository.Save(ctx, quote); err != nil {
		return err
	}
	r.saved = append(r.saved, *quote)
	return nil
}

type failingOrders struct {
	domain.OrderRepository
	placeErr error
	saveErr  error
}

func (f failingOrders) Place(ctx context.Context, order *domain.Order) error {
	if f.placeErr != nil {
		return f.placeErr
	}
	return f.OrderRepository.Place(ctx, order)
}

func (f failingOrders) Save(ctx context.Context, order *domain.Order) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.OrderRepository.Save(ctx, order)
}

type countingTracks struct {
	domain.TrackRepository
	calls int
	err   error
}

func (c *countingTracks) Save(ctx context.Context, track *domain.Track) error {
	c.calls++
	if c.err != nil {
		return c.err
	}
	return c.TrackRepository.Save(ctx, track)
}

type recordingNotifier struct {
	memos     []domain.CreditMemo
	shipments []domain.Shipment
	err       error
}

func (r *recordingNotifier) CreditMemoCreated(_ context.Context, memo domain.CreditMemo, _ domain.Order) error {
	r.memos = append(r.memos, memo)
	return r.err
}

func (r *recordingNotifier) ShipmentCreated(_ context.Context, shipment domain.Shipment, _ domain.Order) error {
	r.shipments = append(r.shipments, shipment)
	return r.err
}

type recordingCompensations struct {
	reasons []string
}

func (r *recordingCompensations) RecordCompensation(_ string, reason string) {
	r.reasons = append(r.reasons, reason)
}
