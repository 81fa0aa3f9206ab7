// Package commerce is the read side of the order, product and merchant records
// the engine consults. The records themselves live in the commerce platform.
package commerce

import (
	"context"
	"fmt"
	"sync"

	"github.com/mohitkumar/resolveflow/config"
	"github.com/mohitkumar/resolveflow/model"
)

type Provider interface {
	GetOrderContext(ctx context.Context, orderId string) (*model.OrderContext, error)
	GetWarrantyTerms(ctx context.Context, productId string) (*model.WarrantyTerms, error)
	GetMerchantContext(ctx context.Context, userId string) (*model.MerchantContext, error)
}

type RecordNotFoundError struct {
	Kind string
	Id   string
}

func (e RecordNotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Id)
}

// Fixtures is the file format read by LoadStaticProvider.
type Fixtures struct {
	Orders     []model.OrderContext    `json:"orders"`
	Warranties []model.WarrantyTerms   `json:"warranties"`
	Merchants  []model.MerchantContext `json:"merchants"`
}

var _ Provider = new(StaticProvider)

// StaticProvider serves records from memory. It backs local runs and tests.
type StaticProvider struct {
	mu         sync.RWMutex
	orders     map[string]model.OrderContext
	warranties map[string]model.WarrantyTerms
	merchants  map[string]model.MerchantContext
}

func NewStaticProvider() *StaticProvider {
	return &StaticProvider{
		orders:     make(map[string]model.OrderContext),
		warranties: make(map[string]model.WarrantyTerms),
		merchants:  make(map[string]model.MerchantContext),
	}
}

func LoadStaticProvider(path string) (*StaticProvider, error) {
	var fixtures Fixtures
	if err := config.LoadFile(path, &fixtures); err != nil {
		return nil, err
	}
	p := NewStaticProvider()
	p.Load(fixtures)
	return p, nil
}

func (p *StaticProvider) Load(fixtures Fixtures) {
	for _, o := range fixtures.Orders {
		p.AddOrder(o)
	}
	for _, w := range fixtures.Warranties {
		p.AddWarranty(w)
	}
	for _, m := range fixtures.Merchants {
		p.AddMerchant(m)
	}
}

func (p *StaticProvider) AddOrder(order model.OrderContext) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.orders[order.OrderId] = order
}

func (p *StaticProvider) AddWarranty(terms model.WarrantyTerms) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.warranties[terms.ProductId] = terms
}

func (p *StaticProvider) AddMerchant(merchant model.MerchantContext) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.merchants[merchant.UserId] = merchant
}

func (p *StaticProvider) GetOrderContext(ctx context.Context, orderId string) (*model.OrderContext, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	o, ok := p.orders[orderId]
	if !ok {
		return nil, RecordNotFoundError{Kind: "order", Id: orderId}
	}
	o.LineItems = append([]model.LineItem(nil), o.LineItems...)
	return &o, nil
}

func (p *StaticProvider) GetWarrantyTerms(ctx context.Context, productId string) (*model.WarrantyTerms, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	w, ok := p.warranties[productId]
	if !ok {
		return nil, RecordNotFoundError{Kind: "warranty", Id: productId}
	}
	return &w, nil
}

func (p *StaticProvider) GetMerchantContext(ctx context.Context, userId string) (*model.MerchantContext, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	m, ok := p.merchants[userId]
	if !ok {
		return nil, RecordNotFoundError{Kind: "merchant", Id: userId}
	}
	return &m, nil
}
