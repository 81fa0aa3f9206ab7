package variables

import (
	"context"
	"testing"
	"time"

	"github.com/mohitkumar/resolveflow/commerce"
	"github.com/mohitkumar/resolveflow/model"
	"github.com/mohitkumar/resolveflow/persistence/memory"
	"github.com/mohitkumar/resolveflow/templating"
	"github.com/stretchr/testify/require"
)

func fixtures() (*memory.Storage, *commerce.StaticProvider) {
	store := memory.NewStorage()
	provider := commerce.NewStaticProvider()
	provider.AddOrder(model.OrderContext{
		OrderId:     "o1",
		OrderNumber: "#1001",
		Customer:    model.Customer{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com"},
		ShippingAddress: model.Address{
			Address1: "1 Main St", City: "Springfield", Province: "IL", Zip: "62701", Country: "US",
		},
		FulfillmentStatus: "fulfilled",
		Tracking:          &model.Tracking{Number: "1Z999", Company: "UPS", URL: "https://track/1Z999"},
		LineItems: []model.LineItem{
			{Id: "li1", ProductId: "p1", Title: "Lamp", Variant: "Red", Quantity: 1},
			{Id: "li2", ProductId: "p2", Title: "Desk", Quantity: 1},
		},
		CreatedAt: time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
	})
	provider.AddOrder(model.OrderContext{
		OrderId:     "o2",
		OrderNumber: "#1002",
		LineItems:   []model.LineItem{{Id: "li3", ProductId: "p1", Title: "Lamp", Quantity: 1}},
	})
	provider.AddWarranty(model.WarrantyTerms{ProductId: "p1", WarrantyDays: 90, CoversLostItems: true})
	provider.AddMerchant(model.MerchantContext{
		UserId: "u1", Name: "Sam", StoreName: "Acme Home", SupportEmail: "help@acme.test",
		Policy: model.MerchantPolicy{ReturnWindowDays: 30},
	})
	return store, provider
}

func TestBuildFromThread(t *testing.T) {
	ctx := context.Background()
	store, provider := fixtures()
	require.NoError(t, store.SaveThread(ctx, model.Thread{Id: "t1", OrderId: "o1", UserId: "u1"}))

	vars := NewBuilder(store, provider).Build(ctx, model.VariableResolutionContext{ThreadId: "t1"})
	require.Equal(t, "#1001", vars["order_number"])
	require.Equal(t, "Jane", vars["customer_first_name"])
	require.Equal(t, "Jane Doe", vars["customer_name"])
	require.Equal(t, "1Z999", vars["tracking_number"])
	require.Equal(t, "UPS", vars["carrier"])
	require.Equal(t, "Acme Home", vars["store_name"])
	require.Equal(t, "30", vars["return_window_days"])
	require.Equal(t, "1 Main St, Springfield, IL 62701, US", vars["shipping_address"])
	require.Equal(t, "Lamp (Red), Desk", vars["product_names"])
	require.Equal(t, "March 5, 2024", vars["order_date"])
	require.Equal(t, "2", vars["item_count"])
	_, ok := vars["warranty_days"]
	require.False(t, ok)
	_, ok = vars["billing_address"]
	require.False(t, ok)
}

func TestBuildWithProduct(t *testing.T) {
	ctx := context.Background()
	store, provider := fixtures()

	vars := NewBuilder(store, provider).Build(ctx, model.VariableResolutionContext{OrderId: "o1", ProductIds: []string{"p1"}})
	require.Equal(t, "90", vars["warranty_days"])
	require.Equal(t, "Lamp", vars["product_name"])
	require.Equal(t, "Red", vars["variant_name"])
	require.Equal(t, "Lamp (Red)", vars["product_full_name"])
	require.Equal(t, "lost items", vars["warranty_coverage"])
	require.Equal(t, "Lamp (Red)", vars["product_names"])
}

func TestBuildUsesThreadSelection(t *testing.T) {
	ctx := context.Background()
	store, provider := fixtures()
	require.NoError(t, store.SaveThread(ctx, model.Thread{Id: "t1", OrderId: "o1", SelectedProductId: "p1"}))

	vars := NewBuilder(store, provider).Build(ctx, model.VariableResolutionContext{ThreadId: "t1"})
	require.Equal(t, "90", vars["warranty_days"])
}

func TestBuildSingleItemOrder(t *testing.T) {
	ctx := context.Background()
	store, provider := fixtures()

	vars := NewBuilder(store, provider).Build(ctx, model.VariableResolutionContext{OrderId: "o2"})
	require.Equal(t, "90", vars["warranty_days"])
	require.Equal(t, "#1002", vars["order_number"])
	_, ok := vars["customer_first_name"]
	require.False(t, ok)
	_, ok = vars["tracking_number"]
	require.False(t, ok)
}

func TestBuildDegrades(t *testing.T) {
	ctx := context.Background()
	store, provider := fixtures()
	b := NewBuilder(store, provider)

	require.Empty(t, b.Build(ctx, model.VariableResolutionContext{}))
	require.Empty(t, b.Build(ctx, model.VariableResolutionContext{ThreadId: "unknown"}))
	require.Empty(t, b.Build(ctx, model.VariableResolutionContext{OrderId: "missing", UserId: "missing"}))
	require.Empty(t, NewBuilder(nil, nil).Build(ctx, model.VariableResolutionContext{OrderId: "o1"}))
}

func TestCustomPaths(t *testing.T) {
	ctx := context.Background()
	store, provider := fixtures()
	b := NewBuilder(store, provider).WithPaths(map[string]string{
		"first_item": "$.order.line_items[0].title",
	})
	vars := b.Build(ctx, model.VariableResolutionContext{OrderId: "o1"})
	require.Equal(t, "Lamp", vars["first_item"])
	_, ok := vars["order_number"]
	require.False(t, ok)
}

func TestBuildUnsetPolicyFallsBack(t *testing.T) {
	ctx := context.Background()
	store, provider := fixtures()
	provider.AddMerchant(model.MerchantContext{UserId: "u2", StoreName: "Bare Shop"})
	provider.AddWarranty(model.WarrantyTerms{ProductId: "p2", CoversLostItems: true})

	b := NewBuilder(store, provider)
	vars := b.Build(ctx, model.VariableResolutionContext{UserId: "u2", ProductIds: []string{"p2"}})
	require.Equal(t, "Bare Shop", vars["store_name"])
	_, ok := vars["return_window_days"]
	require.False(t, ok)
	_, ok = vars["warranty_days"]
	require.False(t, ok)

	msg := templating.NewEngine(b, nil).RenderForContext(ctx, model.TemplateDefinition{
		Id:   "returns",
		Body: "Returns accepted within {{return_window_days}} days.",
	}, model.VariableResolutionContext{UserId: "u2"})
	require.Equal(t, "Returns accepted within 30 days.", msg.Body)
	require.Equal(t, []string{"return_window_days"}, msg.Fallback)
	require.True(t, msg.HasWarnings())
}
