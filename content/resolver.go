// Package content computes the displayed content of dynamic flow nodes.
package content

import (
	"context"
	"fmt"

	"github.com/mohitkumar/resolveflow/commerce"
	"github.com/mohitkumar/resolveflow/logger"
	"github.com/mohitkumar/resolveflow/model"
	"github.com/mohitkumar/resolveflow/persistence"
	"go.uber.org/zap"
)

type Status string

const STATUS_STATIC Status = "static"
const STATUS_RESOLVED Status = "resolved"
const STATUS_NEEDS_DISAMBIGUATION Status = "needs_disambiguation"
const STATUS_ERROR Status = "error"

const SOURCE_PRODUCT_WARRANTY = "product_warranty"
const SOURCE_ORDER_TRACKING = "order_tracking"

type ProductCandidate struct {
	ProductId string `json:"productId"`
	VariantId string `json:"variantId,omitempty"`
	Title     string `json:"title"`
	Variant   string `json:"variant,omitempty"`
}

// Resolution is what a node shows. An error status is a display state, the
// node stays answerable.
type Resolution struct {
	Status     Status             `json:"status"`
	Content    string             `json:"content"`
	Warning    string             `json:"warning,omitempty"`
	Candidates []ProductCandidate `json:"candidates,omitempty"`
	ProductId  string             `json:"productId,omitempty"`
}

// Degraded reports whether the UI should show a warning next to the content.
func (r Resolution) Degraded() bool {
	return r.Status == STATUS_ERROR || r.Status == STATUS_NEEDS_DISAMBIGUATION
}

// InvalidSelectionError is returned when a selected product is not one of the candidates.
type InvalidSelectionError struct {
	ProductId string
}

func (e InvalidSelectionError) Error() string {
	return fmt.Sprintf("product %s is not eligible for this order", e.ProductId)
}

// sourceFunc resolves one content source for a thread that has a linked order.
type sourceFunc func(ctx context.Context, r *Resolver, node *model.FlowNode, thread *model.Thread, order *model.OrderContext) Resolution

type Resolver struct {
	threads  persistence.ThreadStore
	provider commerce.Provider
	sources  map[string]sourceFunc
}

func NewResolver(threads persistence.ThreadStore, provider commerce.Provider) *Resolver {
	return &Resolver{
		threads:  threads,
		provider: provider,
		sources: map[string]sourceFunc{
			SOURCE_PRODUCT_WARRANTY: resolveWarranty,
			SOURCE_ORDER_TRACKING:   resolveTracking,
		},
	}
}

func errorResolution(warning string, content string) Resolution {
	return Resolution{Status: STATUS_ERROR, Warning: warning, Content: content}
}

// Resolve returns the content to display for node on threadId. It never fails:
// problems come back as an error status with an explanation.
func (r *Resolver) Resolve(ctx context.Context, node *model.FlowNode, threadId string) Resolution {
	if !node.Metadata.DynamicContent {
		return Resolution{Status: STATUS_STATIC, Content: node.Content}
	}
	source, ok := r.sources[node.Metadata.ContentSource]
	if !ok {
		logger.Warn("unknown content source", zap.String("node", node.Id), zap.String("source", node.Metadata.ContentSource))
		return errorResolution("content unavailable", node.Content)
	}
	thread, order, res, ok := r.loadOrder(ctx, threadId)
	if !ok {
		return res
	}
	return source(ctx, r, node, thread, order)
}

// ResolveSelection records the operator's product choice on the thread and resolves again.
func (r *Resolver) ResolveSelection(ctx context.Context, node *model.FlowNode, threadId string, productId string) (Resolution, error) {
	_, order, res, ok := r.loadOrder(ctx, threadId)
	if !ok {
		return res, nil
	}
	if _, found := commerce.FindEligible(order, productId); !found {
		return Resolution{}, InvalidSelectionError{ProductId: productId}
	}
	if err := r.threads.SaveProductSelection(ctx, threadId, productId); err != nil {
		return Resolution{}, err
	}
	return r.Resolve(ctx, node, threadId), nil
}

func (r *Resolver) loadOrder(ctx context.Context, threadId string) (*model.Thread, *model.OrderContext, Resolution, bool) {
	noOrder := errorResolution("no linked order", "No order is linked to this conversation yet. Link an order to load this information.")
	if len(threadId) == 0 || r.threads == nil {
		return nil, nil, noOrder, false
	}
	thread, err := r.threads.GetThread(ctx, threadId)
	if err != nil {
		if !persistence.IsNotFound(err) {
			logger.Error("error in loading thread", zap.String("threadId", threadId), zap.Error(err))
		}
		return nil, nil, noOrder, false
	}
	if len(thread.OrderId) == 0 {
		return nil, nil, noOrder, false
	}
	if r.provider == nil {
		return nil, nil, errorResolution("order unavailable", "Order details are unavailable right now."), false
	}
	order, err := r.provider.GetOrderContext(ctx, thread.OrderId)
	if err != nil {
		logger.Warn("error in loading order", zap.String("threadId", threadId), zap.String("orderId", thread.OrderId), zap.Error(err))
		return nil, nil, errorResolution("order unavailable", fmt.Sprintf("We couldn't load order %s right now.", thread.OrderId)), false
	}
	return thread, order, Resolution{}, true
}
