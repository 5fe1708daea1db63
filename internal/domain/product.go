package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductType — тип товара на платформе.
type ProductType string

const (
	ProductTypeSimple       ProductType = "simple"
	ProductTypeConfigurable ProductType = "configurable"
)

// Типы сущностей для справочника значений атрибутов.
const (
	EntityTypeProduct  = "catalog_product"
	EntityTypeCustomer = "customer"
)

// StockData — складские настройки товара.
type StockData struct {
	UseConfigManageStock bool    `yaml:"use_config_manage_stock"`
	ManageStock          bool    `yaml:"manage_stock"`
	Qty                  float64 `yaml:"qty"`
	MinQty               float64 `yaml:"min_qty"`
	MinSaleQty           float64 `yaml:"min_sale_qty"`
	MaxSaleQty           float64 `yaml:"max_sale_qty"`
	IsQtyDecimal         bool    `yaml:"is_qty_decimal"`
	Backorders           int     `yaml:"backorders"`
	NotifyStockQty       float64 `yaml:"notify_stock_qty"`
	IsInStock            bool    `yaml:"is_in_stock"`
}

// Image описывает изображение товара, которое нужно перенести в хранилище медиа.
type Image struct {
	URL      string
	Label    string
	Position int
	Types    []string
}

// Product агрегирует товар каталога. Бизнес-ключ — SKU.
type Product struct {
	ID                     string
	SKU                    string
	Name                   string
	TypeID                 ProductType
	AttributeSetID         int64
	Status                 int
	TaxClassID             int
	WebsiteIDs             []int64
	Weight                 string
	Price                  decimal.Decimal
	URLKey                 string
	Stock                  StockData
	Data                   map[string]string
	Attributes             map[string]int64
	ConfigurableAttributes []string
	ChildIDs               []string
	ParentID               string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// SetData записывает значение плоского поля товара.
func (p *Product) SetData(key, value string) {
	if p.Data == nil {
		p.Data = make(map[string]string)
	}
	p.Data[key] = value
}

// IsConfigurable сообщает, является ли товар configurable.
func (p *Product) IsConfigurable() bool {
	return p.TypeID == ProductTypeConfigurable
}
