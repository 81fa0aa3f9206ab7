package commerce

import "github.com/mohitkumar/resolveflow/model"

// EligibleItems returns the line items that can carry a warranty claim: they
// reference a product, still have quantity and were not removed or refunded.
// Items sharing a product and variant collapse into the first occurrence.
func EligibleItems(order *model.OrderContext) []model.LineItem {
	if order == nil {
		return nil
	}
	var res []model.LineItem
	seen := make(map[string]bool)
	for _, item := range order.LineItems {
		if len(item.ProductId) == 0 || item.Quantity <= 0 || item.Removed || item.Refunded {
			continue
		}
		key := item.ProductId + "/" + item.VariantId
		if seen[key] {
			continue
		}
		seen[key] = true
		res = append(res, item)
	}
	return res
}

// FindEligible returns the eligible item for productId, if any.
func FindEligible(order *model.OrderContext, productId string) (model.LineItem, bool) {
	for _, item := range EligibleItems(order) {
		if item.ProductId == productId {
			return item, true
		}
	}
	return model.LineItem{}, false
}
