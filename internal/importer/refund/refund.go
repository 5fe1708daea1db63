package refund

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/commerce-import/internal/domain"
)

// Ledger — накопленное возвращённое количество по ID позиции заказа.
type Ledger map[string]decimal.Decimal

// BuildLedger собирает ledger из уже созданных документов возврата заказа.
func BuildLedger(memos []domain.CreditMemo) Ledger {
	ledger := make(Ledger)
	for _, memo := range memos {
		for _, item := range memo.Items {
			ledger[item.OrderItemID] = ledger[item.OrderItemID].Add(item.Qty)
		}
	}
	return ledger
}

// Reconcile сверяет запрошенный возврат с заказом и прошлыми возвратами.
// Возвращает чистое количество к возврату по ID позиции заказа. Нулевые позиции отбрасываются,
// отрицательные сохраняются. orderRef используется только в сообщениях об ошибках.
func Reconcile(order domain.Order, lines []domain.ReturnLineRecord, memos []domain.CreditMemo, orderRef string) (map[string]decimal.Decimal, error) {
	requested := make(map[string]decimal.Decimal, len(lines))
	for _, line := range lines {
		item, ok := order.ItemBySKU(line.SKU)
		if !ok {
			return nil, domain.NewWriterError(`Item with SKU: "%s" does not exist in Order: "%s"`, line.SKU, order.IncrementID)
		}
		requested[item.ID] = line.Qty
	}

	ledger := BuildLedger(memos)
	net := make(map[string]decimal.Decimal, len(requested))
	for itemID, qty := range requested {
		remaining := qty.Sub(ledger[itemID])
		if remaining.IsZero() {
			continue
		}
		net[itemID] = remaining
	}

	if len(net) == 0 {
		return nil, domain.NewWriterError(`Credit Memo cannot be created with no Items to Refund. Order ID: "%s"`, orderRef)
	}
	return net, nil
}

// NewCreditMemo готовит документ возврата по заказу. Количество по позиции не может быть
// отрицательным и не может превышать доступное к возврату. Доставка не возвращается.
func NewCreditMemo(order domain.Order, qtys map[string]decimal.Decimal, now time.Time) (domain.CreditMemo, error) {
	ids := make([]string, 0, len(qtys))
	for id := range qtys {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	memo := domain.CreditMemo{
		OrderID:          order.ID,
		OrderIncrementID: order.IncrementID,
		ShippingAmount:   decimal.Zero,
		CreatedAt:        now,
	}
	subtotal := decimal.Zero
	for _, id := range ids {
		qty := qtys[id]
		item, ok := order.ItemByID(id)
		if !ok {
			return domain.CreditMemo{}, fmt.Errorf("order item %s not found in order %s", id, order.IncrementID)
		}
		if qty.IsNegative() {
			return domain.CreditMemo{}, fmt.Errorf("sku %s qty %s: %w", item.SKU, qty, domain.ErrInvalidRefundQty)
		}
		if refundable := item.QtyToRefund(); qty.GreaterThan(refundable) {
			return domain.CreditMemo{}, fmt.Errorf("sku %s qty %s > %s: %w", item.SKU, qty, refundable, domain.ErrRefundExceedsOrdered)
		}

		rowTotal := item.Price.Mul(qty)
		memo.Items = append(memo.Items, domain.CreditMemoItem{
			OrderItemID: item.ID,
			SKU:         item.SKU,
			Qty:         qty,
			Price:       item.Price,
			RowTotal:    rowTotal,
		})
		subtotal = subtotal.Add(rowTotal)
	}
	memo.Subtotal = subtotal
	memo.GrandTotal = subtotal.Add(memo.ShippingAmount)
	return memo, nil
}

// Register отражает документ возврата в заказе: количества и общую сумму возврата.
func Register(order *domain.Order, memo domain.CreditMemo) {
	for _, memoItem := range memo.Items {
		if item, ok := order.ItemByID(memoItem.OrderItemID); ok {
			item.QtyRefunded = item.QtyRefunded.Add(memoItem.Qty)
		}
	}
	order.TotalRefunded = order.TotalRefunded.Add(memo.GrandTotal)
}
