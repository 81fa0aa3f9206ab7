package templating

import (
	"context"

	"github.com/mohitkumar/resolveflow/model"
)

// DefaultFallbacks is the process-wide fallback table. Callers get a copy.
func DefaultFallbacks() map[string]string {
	return map[string]string{
		"customer_name":      "there",
		"merchant_name":      "our team",
		"store_name":         "our store",
		"support_email":      "our support team",
		"order_number":       "your order",
		"tracking_number":    "your tracking number",
		"carrier":            "the carrier",
		"tracking_url":       "the tracking link in your shipping confirmation",
		"product_name":       "your item",
		"product_names":      "your items",
		"return_window_days": "30",
		"shipping_address":   "the shipping address on file",
	}
}

// VariableBuilder resolves the variables for a render.
type VariableBuilder interface {
	Build(ctx context.Context, rc model.VariableResolutionContext) model.ResolvedVariables
}

type Engine struct {
	builder   VariableBuilder
	fallbacks map[string]string
}

func NewEngine(builder VariableBuilder, fallbacks map[string]string) *Engine {
	if fallbacks == nil {
		fallbacks = DefaultFallbacks()
	}
	return &Engine{builder: builder, fallbacks: fallbacks}
}

// RenderForContext resolves variables once for rc and renders tpl with them.
func (e *Engine) RenderForContext(ctx context.Context, tpl model.TemplateDefinition, rc model.VariableResolutionContext) Message {
	var vars model.ResolvedVariables
	if e.builder != nil {
		vars = e.builder.Build(ctx, rc)
	}
	return Render(tpl, vars, e.fallbacks)
}
