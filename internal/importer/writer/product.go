package writer

import (
	"context"
	"fmt"
	"maps"
	"slices"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/commerce-import/internal/domain"
	"github.com/vladislavdragonenkov/commerce-import/internal/importer/attribute"
)

// ProductDefaults — значения, которые подставляются, если запись их не задаёт.
type ProductDefaults struct {
	Status     int
	TaxClassID int
	WebsiteIDs []int64
	TypeID     domain.ProductType
	Weight     string
	Stock      domain.StockData
}

// DefaultProductDefaults возвращает стандартный профиль товара.
func DefaultProductDefaults() ProductDefaults {
	return ProductDefaults{
		Status:     1,
		TaxClassID: 2,
		WebsiteIDs: []int64{1},
		TypeID:     domain.ProductTypeSimple,
		Weight:     "0",
		Stock: domain.StockData{
			UseConfigManageStock: true,
			ManageStock:          true,
			MinSaleQty:           1,
			MaxSaleQty:           10000,
			NotifyStockQty:       1,
		},
	}
}

// ProductWriter сохраняет товары каталога вместе со связями и изображениями.
// Если шаг после сохранения падает, созданный записью товар удаляется,
// а у существовавшего товара восстанавливается прежнее состояние.
type ProductWriter struct {
	products     domain.ProductRepository
	attributes   *attribute.Resolver
	configurable domain.ConfigurableProductService
	images       domain.ImageTransfer
	defaults     ProductDefaults
	opts         Options

	attributeSetID int64
	prepared       bool
}

// NewProductWriter создаёт писателя товаров.
func NewProductWriter(
	products domain.ProductRepository,
	attributes domain.AttributeStore,
	configurable domain.ConfigurableProductService,
	images domain.ImageTransfer,
	defaults ProductDefaults,
	options ...Option,
) *ProductWriter {
	opts := buildOptions("product-writer", options)
	return &ProductWriter{
		products:     products,
		attributes:   attribute.NewResolver(attributes, opts.Logger),
		configurable: configurable,
		images:       images,
		defaults:     defaults,
		opts:         opts,
	}
}

// Prepare запоминает набор атрибутов по умолчанию.
func (w *ProductWriter) Prepare(ctx context.Context) error {
	if w.prepared {
		return nil
	}
	id, err := w.products.DefaultAttributeSetID(ctx)
	if err != nil {
		return fmt.Errorf("load default attribute set: %w", err)
	}
	w.attributeSetID = id
	w.prepared = true
	return nil
}

// WriteItem сохраняет один товар.
func (w *ProductWriter) WriteItem(ctx context.Context, record domain.ProductRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	logger := w.opts.Logger.WithField("sku", record.SKU)

	product := w.build(record)
	if product.IsConfigurable() && len(record.ConfigurableAttributes) == 0 {
		return domain.NewSaveError(nil, `Configurable product with SKU: "%s" must have at least one "configurable_attribute" defined`, record.SKU)
	}

	resolved, err := w.attributes.ResolveAll(ctx, domain.EntityTypeProduct, record.Attributes)
	if err != nil {
		return domain.NewSaveError(err, "%v", err)
	}
	product.Attributes = resolved

	if product.IsConfigurable() {
		if err := w.configurable.SetupConfigurable(ctx, &product, record.ConfigurableAttributes); err != nil {
			return domain.NewSaveError(err, "%v", err)
		}
	}

	previous, existed, err := w.snapshot(ctx, record.SKU)
	if err != nil {
		return domain.NewSaveError(err, "%v", err)
	}
	if existed {
		product.ID = previous.ID
	}

	if err := w.products.Save(ctx, &product); err != nil {
		logger.WithError(err).Warn("failed to save product")
		return domain.NewSaveError(err, "%v", err)
	}

	rollback := func(reason string) {
		if existed {
			w.restore(ctx, previous, reason, logger)
			return
		}
		w.rollback(ctx, product, reason, logger)
	}

	if product.TypeID == domain.ProductTypeSimple && record.ParentSKU != "" {
		if err := w.configurable.AssignToParent(ctx, &product, record.ParentSKU); err != nil {
			rollback("parent_link")
			return domain.NewSaveError(err, "%v", err)
		}
	}

	if len(record.Images) > 0 {
		product.URLKey = ""
		for _, image := range record.Images {
			if err := w.images.ImportImage(ctx, product, image); err != nil {
				rollback("image")
				return domain.NewSaveError(err, `Error importing image for product with SKU: "%s". Error: "%s"`, record.SKU, err.Error())
			}
		}
	}

	logger.WithField("product_id", product.ID).Debug("product imported")
	return nil
}

// build применяет слои значений: запись > значения из Prepare > профиль по умолчанию.
func (w *ProductWriter) build(record domain.ProductRecord) domain.Product {
	product := domain.Product{
		SKU:                    record.SKU,
		Name:                   record.Name,
		TypeID:                 w.defaults.TypeID,
		AttributeSetID:         w.attributeSetID,
		Status:                 w.defaults.Status,
		TaxClassID:             w.defaults.TaxClassID,
		WebsiteIDs:             slices.Clone(w.defaults.WebsiteIDs),
		Weight:                 w.defaults.Weight,
		Price:                  record.Price,
		URLKey:                 record.URLKey,
		Stock:                  w.defaults.Stock,
		Data:                   maps.Clone(record.Data),
		ConfigurableAttributes: slices.Clone(record.ConfigurableAttributes),
		CreatedAt:              w.opts.Now(),
	}

	if record.TypeID != "" {
		product.TypeID = record.TypeID
	}
	if record.AttributeSetID != nil {
		product.AttributeSetID = *record.AttributeSetID
	}
	if record.Status != nil {
		product.Status = *record.Status
	}
	if record.TaxClassID != nil {
		product.TaxClassID = *record.TaxClassID
	}
	if record.WebsiteIDs != nil {
		product.WebsiteIDs = slices.Clone(record.WebsiteIDs)
	}
	if record.Weight != nil {
		product.Weight = *record.Weight
	}
	if record.Stock != nil {
		product.Stock = *record.Stock
	}
	return product
}

// snapshot возвращает товар с тем же SKU, если он уже есть в каталоге.
func (w *ProductWriter) snapshot(ctx context.Context, sku string) (domain.Product, bool, error) {
	previous, err := w.products.FindBySKU(ctx, sku)
	switch {
	case err == nil:
		return previous, true, nil
	case domain.IsProductNotFound(err):
		return domain.Product{}, false, nil
	default:
		return domain.Product{}, false, fmt.Errorf("load product %s: %w", sku, err)
	}
}

// restore возвращает существовавший товар в состояние до записи.
func (w *ProductWriter) restore(ctx context.Context, previous domain.Product, reason string, logger *log.Entry) {
	w.opts.recordCompensation("product", reason)
	if err := w.products.Save(ctx, &previous); err != nil {
		logger.WithError(err).WithField("product_id", previous.ID).Error("failed to restore product")
		return
	}
	logger.WithFields(log.Fields{
		"product_id": previous.ID,
		"reason":     reason,
	}).Warn("product restored to its previous state")
}

func (w *ProductWriter) rollback(ctx context.Context, product domain.Product, reason string, logger *log.Entry) {
	w.opts.recordCompensation("product", reason)
	if err := w.products.Delete(ctx, product.ID); err != nil {
		logger.WithError(err).WithField("product_id", product.ID).Error("failed to delete partially imported product")
		return
	}
	logger.WithFields(log.Fields{
		"product_id": product.ID,
		"reason":     reason,
	}).Warn("partially imported product deleted")
}

// Finish ничего не делает.
func (w *ProductWriter) Finish(context.Context) error {
	return nil
}

// ProductUpdateWriter обновляет плоские поля существующих товаров.
type ProductUpdateWriter struct {
	products domain.ProductRepository
	opts     Options
}

// NewProductUpdateWriter создаёт писателя обновлений товаров.
func NewProductUpdateWriter(products domain.ProductRepository, options ...Option) *ProductUpdateWriter {
	return &ProductUpdateWriter{
		products: products,
		opts:     buildOptions("product-update-writer", options),
	}
}

// Prepare ничего не делает.
func (w *ProductUpdateWriter) Prepare(context.Context) error {
	return nil
}

// WriteItem применяет поля записи к товару с тем же SKU.
func (w *ProductUpdateWriter) WriteItem(ctx context.Context, record domain.ProductUpdateRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	product, err := w.products.FindBySKU(ctx, record.SKU)
	if err != nil {
		if domain.IsProductNotFound(err) {
			return domain.NewWriterError("Product with SKU: %s does not exist", record.SKU)
		}
		return domain.NewSaveError(err, "%v", err)
	}

	for key, value := range record.Data {
		product.SetData(key, value)
	}
	product.UpdatedAt = w.opts.Now()

	if err := w.products.Save(ctx, &product); err != nil {
		w.opts.Logger.WithError(err).WithField("sku", record.SKU).Warn("failed to update product")
		return domain.NewSaveError(err, "%v", err)
	}
	return nil
}

// Finish ничего не делает.
func (w *ProductUpdateWriter) Finish(context.Context) error {
	return nil
}

var (
	_ Writer[domain.ProductRecord]       = (*ProductWriter)(nil)
	_ Writer[domain.ProductUpdateRecord] = (*ProductUpdateWriter)(nil)
)
