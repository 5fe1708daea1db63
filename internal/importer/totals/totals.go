package totals

import (
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/commerce-import/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// TaxPercent вычисляет ставку налога по цене и сумме налога, округляя до одного знака.
// Налог, целая часть которого равна нулю, даёт ставку 0. Нулевая цена тоже даёт 0.
func TaxPercent(price, taxAmount decimal.Decimal) decimal.Decimal {
	if taxAmount.Truncate(0).IsZero() || price.IsZero() {
		return decimal.Zero
	}
	return hundred.Div(price).Mul(taxAmount).Round(1)
}

// Subtotal суммирует цену и налог каждой позиции заказа.
func Subtotal(items []domain.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price).Add(item.TaxAmount)
	}
	return total
}

// GrandTotal = subtotal + доставка + подарочная упаковка − скидка.
func GrandTotal(subtotal, shipping, giftWrap, discount decimal.Decimal) decimal.Decimal {
	return subtotal.Add(shipping).Add(giftWrap).Sub(discount)
}

// matchLine возвращает первую строку входной записи с указанным SKU.
func matchLine(lines []domain.OrderLineRecord, sku string) (domain.OrderLineRecord, bool) {
	for _, line := range lines {
		if line.SKU == sku {
			return line, true
		}
	}
	return domain.OrderLineRecord{}, false
}

// Apply переносит корректировки из входной записи на позиции заказа и пересчитывает итоги.
// Позиции сопоставляются со строками записи по SKU.
func Apply(order *domain.Order, record domain.OrderRecord) {
	for i := range order.Items {
		item := &order.Items[i]
		line, ok := matchLine(record.Items, item.SKU)
		if !ok {
			continue
		}
		item.DiscountAmount = line.DiscountAmount
		item.TaxAmount = line.TaxAmount
		item.GiftWrapPrice = line.GiftWrapPrice
		item.TaxPercent = TaxPercent(line.Price, line.TaxAmount)
	}

	order.ShippingAmount = record.ShippingAmount
	order.GiftWrapPrice = record.GiftWrapPrice
	order.DiscountAmount = record.DiscountAmount
	order.Subtotal = Subtotal(order.Items)
	order.GrandTotal = GrandTotal(order.Subtotal, record.ShippingAmount, record.GiftWrapPrice, record.DiscountAmount)
}
