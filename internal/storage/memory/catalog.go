package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/vladislavdragonenkov/commerce-import/internal/domain"
)

type attributeKey struct {
	entityType string
	code       string
	value      string
}

// attributeStoreInMemory выдаёт последовательные ID опций атрибутов.
type attributeStoreInMemory struct {
	mu      sync.Mutex
	options map[attributeKey]int64
	next    int64
}

// NewAttributeStore возвращает идемпотентное хранилище значений атрибутов.
func NewAttributeStore() domain.AttributeStore {
	return &attributeStoreInMemory{options: make(map[attributeKey]int64)}
}

// ResolveOrCreate возвращает существующий ID или создаёт новую опцию.
func (s *attributeStoreInMemory) ResolveOrCreate(_ context.Context, entityType, code, value string) (int64, error) {
	if value == "" {
		return 0, domain.ErrAttributeValueRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := attributeKey{entityType: entityType, code: code, value: value}
	if id, ok := s.options[key]; ok {
		return id, nil
	}
	s.next++
	s.options[key] = s.next
	return s.next, nil
}

// regionSourceInMemory отдаёт фиксированный справочник регионов.
type regionSourceInMemory struct {
	regions []domain.Region
}

// NewRegionSource возвращает справочник регионов из переданного списка.
func NewRegionSource(regions ...domain.Region) domain.RegionSource {
	return &regionSourceInMemory{regions: slices.Clone(regions)}
}

// ListRegions возвращает копию справочника.
func (s *regionSourceInMemory) ListRegions(context.Context) ([]domain.Region, error) {
	return slices.Clone(s.regions), nil
}

// ImageGallery — in-memory медиагалерея: запоминает импортированные изображения по SKU.
type ImageGallery struct {
	mu     sync.RWMutex
	images map[string][]domain.Image
}

// NewImageGallery возвращает пустую галерею.
func NewImageGallery() *ImageGallery {
	return &ImageGallery{images: make(map[string][]domain.Image)}
}

// ImportImage добавляет изображение в галерею товара.
func (g *ImageGallery) ImportImage(_ context.Context, product domain.Product, image domain.Image) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.images[product.SKU] = append(g.images[product.SKU], image)
	return nil
}

// Images возвращает изображения товара.
func (g *ImageGallery) Images(sku string) []domain.Image {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return slices.Clone(g.images[sku])
}

var (
	_ domain.AttributeStore = (*attributeStoreInMemory)(nil)
	_ domain.RegionSource   = (*regionSourceInMemory)(nil)
	_ domain.ImageTransfer  = (*ImageGallery)(nil)
)
