package content

import (
	"context"
	"fmt"
	"strings"

	"github.com/mohitkumar/resolveflow/commerce"
	"github.com/mohitkumar/resolveflow/logger"
	"github.com/mohitkumar/resolveflow/model"
	"github.com/mohitkumar/resolveflow/variables"
	"go.uber.org/zap"
)

// warrantyCandidates lists one candidate per eligible product.
func warrantyCandidates(order *model.OrderContext) []ProductCandidate {
	var res []ProductCandidate
	seen := make(map[string]bool)
	for _, item := range commerce.EligibleItems(order) {
		if seen[item.ProductId] {
			continue
		}
		seen[item.ProductId] = true
		res = append(res, ProductCandidate{
			ProductId: item.ProductId,
			VariantId: item.VariantId,
			Title:     item.Title,
			Variant:   item.Variant,
		})
	}
	return res
}

func resolveWarranty(ctx context.Context, r *Resolver, node *model.FlowNode, thread *model.Thread, order *model.OrderContext) Resolution {
	candidates := warrantyCandidates(order)
	if len(candidates) == 0 {
		return errorResolution("no eligible products", "This order has no products eligible for warranty coverage.")
	}

	var item model.LineItem
	found := false
	if len(thread.SelectedProductId) > 0 {
		item, found = commerce.FindEligible(order, thread.SelectedProductId)
		if !found {
			logger.Info("ignoring stale product selection", zap.String("threadId", thread.Id), zap.String("productId", thread.SelectedProductId))
		}
	}
	if !found && len(candidates) == 1 {
		item, found = commerce.FindEligible(order, candidates[0].ProductId)
	}
	if !found {
		return Resolution{
			Status:     STATUS_NEEDS_DISAMBIGUATION,
			Content:    fmt.Sprintf("This order contains %d products. Select the product the customer is asking about.", len(candidates)),
			Warning:    "product selection required",
			Candidates: candidates,
		}
	}

	terms, err := r.provider.GetWarrantyTerms(ctx, item.ProductId)
	if err != nil {
		logger.Warn("error in loading warranty", zap.String("productId", item.ProductId), zap.Error(err))
		res := errorResolution("warranty unavailable", fmt.Sprintf("No warranty information is available for %s.", variables.ItemName(item)))
		res.ProductId = item.ProductId
		return res
	}
	return Resolution{
		Status:    STATUS_RESOLVED,
		Content:   FormatWarranty(variables.ItemName(item), terms),
		ProductId: item.ProductId,
	}
}

func coveredText(b bool) string {
	if b {
		return "covered"
	}
	return "not covered"
}

// FormatWarranty renders warranty terms. The duration line always comes first,
// followed by lost, damaged and late delivery coverage in that order.
func FormatWarranty(productName string, terms *model.WarrantyTerms) string {
	var b strings.Builder
	if terms.WarrantyDays > 0 {
		fmt.Fprintf(&b, "**%s** is covered by a %d-day warranty.\n\n", productName, terms.WarrantyDays)
	} else {
		fmt.Fprintf(&b, "**%s** has no warranty period.\n\n", productName)
	}
	b.WriteString("Shipment coverage:\n")
	fmt.Fprintf(&b, "- Lost items: %s\n", coveredText(terms.CoversLostItems))
	fmt.Fprintf(&b, "- Damaged items: %s\n", coveredText(terms.CoversDamagedItems))
	fmt.Fprintf(&b, "- Late delivery: %s", coveredText(terms.CoversLateDelivery))
	return b.String()
}
