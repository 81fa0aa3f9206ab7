package content

import (
	"context"
	"fmt"
	"strings"

	"github.com/mohitkumar/resolveflow/model"
)

func resolveTracking(ctx context.Context, r *Resolver, node *model.FlowNode, thread *model.Thread, order *model.OrderContext) Resolution {
	t := order.Tracking
	if t == nil || len(t.Number) == 0 {
		return errorResolution("no tracking", fmt.Sprintf("No tracking information is available for order %s yet.", orderLabel(order)))
	}
	lines := []string{fmt.Sprintf("**Tracking for order %s**", orderLabel(order))}
	carrier := t.Company
	if len(carrier) == 0 {
		carrier = "Carrier"
	}
	lines = append(lines, fmt.Sprintf("%s: %s", carrier, t.Number))
	if len(t.Status) > 0 {
		lines = append(lines, fmt.Sprintf("Status: %s", t.Status))
	}
	if len(order.FulfillmentStatus) > 0 {
		lines = append(lines, fmt.Sprintf("Fulfillment: %s", order.FulfillmentStatus))
	}
	if len(t.URL) > 0 {
		lines = append(lines, t.URL)
	}
	return Resolution{Status: STATUS_RESOLVED, Content: strings.Join(lines, "\n")}
}

func orderLabel(order *model.OrderContext) string {
	if len(order.OrderNumber) > 0 {
		return order.OrderNumber
	}
	return order.OrderId
}
