// Package variables builds the map of template variables for an order thread.
package variables

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mohitkumar/resolveflow/commerce"
	"github.com/mohitkumar/resolveflow/logger"
	"github.com/mohitkumar/resolveflow/model"
	"github.com/mohitkumar/resolveflow/persistence"
	"github.com/oliveagle/jsonpath"
	"go.uber.org/zap"
)

// DefaultPaths maps variable names to jsonpath expressions over the document
// assembled by Build. The document has order, merchant, warranty and product keys.
func DefaultPaths() map[string]string {
	return map[string]string{
		"order_id":            "$.order.order_id",
		"order_number":        "$.order.order_number",
		"fulfillment_status":  "$.order.fulfillment_status",
		"customer_first_name": "$.order.customer.first_name",
		"customer_last_name":  "$.order.customer.last_name",
		"customer_email":      "$.order.customer.email",
		"customer_phone":      "$.order.customer.phone",
		"shipping_city":       "$.order.shipping_address.city",
		"shipping_country":    "$.order.shipping_address.country",
		"tracking_number":     "$.order.tracking.number",
		"carrier":             "$.order.tracking.company",
		"tracking_status":     "$.order.tracking.status",
		"tracking_url":        "$.order.tracking.url",
		"merchant_name":       "$.merchant.name",
		"store_name":          "$.merchant.store_name",
		"support_email":       "$.merchant.support_email",
		"return_window_days":  "$.merchant.policy.return_window_days",
		"refund_policy":       "$.merchant.policy.refund_policy",
		"shipping_policy":     "$.merchant.policy.shipping_policy",
		"warranty_days":       "$.warranty.warranty_days",
		"product_name":        "$.product.title",
		"variant_name":        "$.product.variant_title",
	}
}

type Builder struct {
	threads  persistence.ThreadStore
	provider commerce.Provider
	paths    map[string]string
}

func NewBuilder(threads persistence.ThreadStore, provider commerce.Provider) *Builder {
	return &Builder{
		threads:  threads,
		provider: provider,
		paths:    DefaultPaths(),
	}
}

// WithPaths replaces the variable table.
func (b *Builder) WithPaths(paths map[string]string) *Builder {
	b.paths = paths
	return b
}

type sources struct {
	order    *model.OrderContext
	merchant *model.MerchantContext
	warranty *model.WarrantyTerms
	product  *model.LineItem
	items    []model.LineItem
}

// Build resolves every known variable it can from the identifiers in rc.
// Lookups that fail are logged and skipped, the result may be empty.
func (b *Builder) Build(ctx context.Context, rc model.VariableResolutionContext) model.ResolvedVariables {
	rc = b.completeContext(ctx, rc)
	src := b.fetch(ctx, rc)

	doc := make(map[string]any)
	addDocument(doc, "order", src.order)
	addDocument(doc, "merchant", src.merchant)
	addDocument(doc, "warranty", src.warranty)
	addDocument(doc, "product", src.product)

	vars := make(model.ResolvedVariables)
	for name, path := range b.paths {
		value, err := jsonpath.JsonPathLookup(doc, path)
		if err != nil {
			continue
		}
		if s, ok := format(value); ok && len(s) > 0 {
			vars[name] = s
		}
	}
	for name, value := range computed(src) {
		if len(value) > 0 {
			vars[name] = value
		}
	}
	return vars
}

func (b *Builder) completeContext(ctx context.Context, rc model.VariableResolutionContext) model.VariableResolutionContext {
	if len(rc.ThreadId) == 0 || b.threads == nil {
		return rc
	}
	thread, err := b.threads.GetThread(ctx, rc.ThreadId)
	if err != nil {
		if !persistence.IsNotFound(err) {
			logger.Warn("error in loading thread for variables", zap.String("threadId", rc.ThreadId), zap.Error(err))
		}
		return rc
	}
	if len(rc.OrderId) == 0 {
		rc.OrderId = thread.OrderId
	}
	if len(rc.UserId) == 0 {
		rc.UserId = thread.UserId
	}
	if len(rc.ProductIds) == 0 && len(thread.SelectedProductId) > 0 {
		rc.ProductIds = []string{thread.SelectedProductId}
	}
	return rc
}

func (b *Builder) fetch(ctx context.Context, rc model.VariableResolutionContext) sources {
	var src sources
	if b.provider == nil {
		return src
	}
	if len(rc.OrderId) > 0 {
		order, err := b.provider.GetOrderContext(ctx, rc.OrderId)
		if err != nil {
			logger.Warn("error in loading order for variables", zap.String("orderId", rc.OrderId), zap.Error(err))
		} else {
			src.order = order
			src.items = commerce.EligibleItems(order)
		}
	}
	if len(rc.UserId) > 0 {
		merchant, err := b.provider.GetMerchantContext(ctx, rc.UserId)
		if err != nil {
			logger.Warn("error in loading merchant for variables", zap.String("userId", rc.UserId), zap.Error(err))
		} else {
			src.merchant = merchant
		}
	}

	productId := ""
	if len(rc.ProductIds) > 0 {
		productId = rc.ProductIds[0]
		src.items = filterItems(src.items, rc.ProductIds)
	} else if len(src.items) == 1 {
		productId = src.items[0].ProductId
	}
	if len(productId) == 0 {
		return src
	}
	for i := range src.items {
		if src.items[i].ProductId == productId {
			item := src.items[i]
			src.product = &item
			break
		}
	}
	warranty, err := b.provider.GetWarrantyTerms(ctx, productId)
	if err != nil {
		logger.Warn("error in loading warranty for variables", zap.String("productId", productId), zap.Error(err))
	} else {
		src.warranty = warranty
	}
	return src
}

func filterItems(items []model.LineItem, productIds []string) []model.LineItem {
	wanted := make(map[string]bool, len(productIds))
	for _, id := range productIds {
		wanted[id] = true
	}
	var res []model.LineItem
	for _, item := range items {
		if wanted[item.ProductId] {
			res = append(res, item)
		}
	}
	return res
}

func addDocument(doc map[string]any, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil || m == nil {
		return
	}
	doc[key] = m
}

func format(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	case nil:
		return "", false
	case map[string]any, []any:
		return "", false
	default:
		return fmt.Sprintf("%v", v), true
	}
}

func computed(src sources) map[string]string {
	res := make(map[string]string)
	if src.order != nil {
		c := src.order.Customer
		res["customer_name"] = strings.TrimSpace(c.FirstName + " " + c.LastName)
		res["shipping_address"] = FormatAddress(src.order.ShippingAddress)
		res["billing_address"] = FormatAddress(src.order.BillingAddress)
		if !src.order.CreatedAt.IsZero() {
			res["order_date"] = src.order.CreatedAt.Format("January 2, 2006")
		}
		res["item_count"] = strconv.Itoa(len(src.items))
	}
	if len(src.items) > 0 {
		names := make([]string, 0, len(src.items))
		for _, item := range src.items {
			names = append(names, ItemName(item))
		}
		res["product_names"] = strings.Join(names, ", ")
	}
	if src.product != nil {
		res["product_full_name"] = ItemName(*src.product)
	}
	if src.warranty != nil {
		res["warranty_coverage"] = coverage(src.warranty)
	}
	return res
}

// ItemName is the display name of a line item, with its variant when it has one.
func ItemName(item model.LineItem) string {
	if len(item.Variant) == 0 {
		return item.Title
	}
	return fmt.Sprintf("%s (%s)", item.Title, item.Variant)
}

func FormatAddress(a model.Address) string {
	var parts []string
	for _, p := range []string{a.Address1, a.Address2, a.City, strings.TrimSpace(a.Province + " " + a.Zip), a.Country} {
		if len(p) > 0 {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func coverage(w *model.WarrantyTerms) string {
	var covered []string
	if w.CoversLostItems {
		covered = append(covered, "lost items")
	}
	if w.CoversDamagedItems {
		covered = append(covered, "damaged items")
	}
	if w.CoversLateDelivery {
		covered = append(covered, "late delivery")
	}
	if len(covered) == 0 {
		return "no shipment issues"
	}
	return strings.Join(covered, ", ")
}
