package commerce

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mohitkumar/resolveflow/model"
	"github.com/stretchr/testify/require"
)

func TestEligibleItems(t *testing.T) {
	order := &model.OrderContext{
		OrderId: "o1",
		LineItems: []model.LineItem{
			{Id: "1", ProductId: "p1", VariantId: "v1", Title: "Lamp", Quantity: 1},
			{Id: "2", ProductId: "p1", VariantId: "v1", Title: "Lamp", Quantity: 2},
			{Id: "3", ProductId: "p1", VariantId: "v2", Title: "Lamp", Variant: "Red", Quantity: 1},
			{Id: "4", ProductId: "", Title: "Tip", Quantity: 1},
			{Id: "5", ProductId: "p2", Title: "Desk", Quantity: 0},
			{Id: "6", ProductId: "p3", Title: "Chair", Quantity: 1, Removed: true},
			{Id: "7", ProductId: "p4", Title: "Rug", Quantity: 1, Refunded: true},
			{Id: "8", ProductId: "p5", Title: "Shelf", Quantity: 1},
		},
	}
	items := EligibleItems(order)
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.Id)
	}
	require.Equal(t, []string{"1", "3", "8"}, ids)

	_, ok := FindEligible(order, "p3")
	require.False(t, ok)
	item, ok := FindEligible(order, "p5")
	require.True(t, ok)
	require.Equal(t, "Shelf", item.Title)

	require.Empty(t, EligibleItems(nil))
}

func TestStaticProvider(t *testing.T) {
	ctx := context.Background()
	p := NewStaticProvider()
	p.AddOrder(model.OrderContext{OrderId: "o1", OrderNumber: "#1001"})
	p.AddWarranty(model.WarrantyTerms{ProductId: "p1", WarrantyDays: 30})
	p.AddMerchant(model.MerchantContext{UserId: "u1", StoreName: "Acme"})

	order, err := p.GetOrderContext(ctx, "o1")
	require.NoError(t, err)
	require.Equal(t, "#1001", order.OrderNumber)

	_, err = p.GetOrderContext(ctx, "o2")
	var nf RecordNotFoundError
	require.True(t, errors.As(err, &nf))
	require.Equal(t, "order", nf.Kind)

	w, err := p.GetWarrantyTerms(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, 30, w.WarrantyDays)

	m, err := p.GetMerchantContext(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, "Acme", m.StoreName)
}

func TestLoadStaticProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commerce.yaml")
	body := `orders:
  - order_id: o1
    order_number: "#1001"
    customer:
      first_name: Jane
    line_items:
      - id: li1
        product_id: p1
        title: Lamp
        quantity: 1
warranties:
  - product_id: p1
    warranty_days: 365
    covers_lost_items: true
merchants:
  - user_id: u1
    store_name: Acme
    policy:
      return_window_days: 30
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	p, err := LoadStaticProvider(path)
	require.NoError(t, err)
	ctx := context.Background()

	order, err := p.GetOrderContext(ctx, "o1")
	require.NoError(t, err)
	require.Equal(t, "Jane", order.Customer.FirstName)
	require.Len(t, order.LineItems, 1)

	w, err := p.GetWarrantyTerms(ctx, "p1")
	require.NoError(t, err)
	require.True(t, w.CoversLostItems)
	require.Equal(t, 365, w.WarrantyDays)

	m, err := p.GetMerchantContext(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 30, m.Policy.ReturnWindowDays)
}
