package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/commerce-import/internal/domain"
)

// DefaultAttributeSetID — набор атрибутов по умолчанию для каталога в памяти.
const DefaultAttributeSetID int64 = 4

// ProductRepository — in-memory каталог. Реализует также ConfigurableProductService,
// потому что связи родитель-потомок живут в том же хранилище.
type ProductRepository struct {
	mu             sync.RWMutex
	items          map[string]domain.Product
	bySKU          map[string]string
	attributeSetID int64
}

// NewProductRepository возвращает пустой каталог.
func NewProductRepository() *ProductRepository {
	return &ProductRepository{
		items:          make(map[string]domain.Product),
		bySKU:          make(map[string]string),
		attributeSetID: DefaultAttributeSetID,
	}
}

func cloneProduct(product domain.Product) domain.Product {
	product.WebsiteIDs = slices.Clone(product.WebsiteIDs)
	product.ConfigurableAttributes = slices.Clone(product.ConfigurableAttributes)
	product.ChildIDs = slices.Clone(product.ChildIDs)
	product.Data = maps.Clone(product.Data)
	product.Attributes = maps.Clone(product.Attributes)
	return product
}

// DefaultAttributeSetID возвращает набор атрибутов по умолчанию.
func (r *ProductRepository) DefaultAttributeSetID(context.Context) (int64, error) {
	return r.attributeSetID, nil
}

// FindBySKU возвращает товар или ErrProductNotFound.
func (r *ProductRepository) FindBySKU(_ context.Context, sku string) (domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.items[r.bySKU[sku]]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return cloneProduct(product), nil
}

// Save создаёт товар или обновляет существующий с тем же SKU.
func (r *ProductRepository) Save(_ context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		if id, ok := r.bySKU[product.SKU]; ok {
			product.ID = id
		} else {
			product.ID = uuid.NewString()
		}
	}
	r.items[product.ID] = cloneProduct(*product)
	r.bySKU[product.SKU] = product.ID
	return nil
}

// Delete удаляет товар и снимает его с родителя.
func (r *ProductRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.items[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	if parent, ok := r.items[product.ParentID]; ok {
		parent.ChildIDs = slices.DeleteFunc(slices.Clone(parent.ChildIDs), func(child string) bool { return child == id })
		r.items[parent.ID] = parent
	}
	delete(r.items, id)
	delete(r.bySKU, product.SKU)
	return nil
}

// SetupConfigurable фиксирует configurable-атрибуты родителя до сохранения.
func (r *ProductRepository) SetupConfigurable(_ context.Context, product *domain.Product, attributeCodes []string) error {
	if !product.IsConfigurable() {
		return domain.ErrParentNotConfigurable
	}
	product.ConfigurableAttributes = slices.Clone(attributeCodes)
	return nil
}

// AssignToParent привязывает сохранённый simple-товар к configurable-родителю.
func (r *ProductRepository) AssignToParent(_ context.Context, product *domain.Product, parentSKU string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	parent, ok := r.items[r.bySKU[parentSKU]]
	if !ok {
		return domain.ErrProductNotFound
	}
	if !parent.IsConfigurable() {
		return domain.ErrParentNotConfigurable
	}
	for _, code := range parent.ConfigurableAttributes {
		if _, ok := product.Attributes[code]; !ok {
			return fmt.Errorf("child %s lacks configurable attribute %q: %w", product.SKU, code, domain.ErrUnknownAttribute)
		}
	}

	if !slices.Contains(parent.ChildIDs, product.ID) {
		parent.ChildIDs = append(slices.Clone(parent.ChildIDs), product.ID)
	}
	r.items[parent.ID] = parent

	product.ParentID = parent.ID
	if stored, ok := r.items[product.ID]; ok {
		stored.ParentID = parent.ID
		r.items[product.ID] = stored
	}
	return nil
}

var (
	_ domain.ProductRepository          = (*ProductRepository)(nil)
	_ domain.ConfigurableProductService = (*ProductRepository)(nil)
)
