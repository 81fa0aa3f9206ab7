package cache

import (
	"context"
	"strings"
	"time"

	"github.com/mohitkumar/resolveflow/model"
	"github.com/mohitkumar/resolveflow/persistence"
	c "github.com/patrickmn/go-cache"
)

const flowPrefix = "flow:"
const templatePrefix = "template:"
const categoryPrefix = "category:"

var _ persistence.DefinitionStore = new(DefinitionCache)

// DefinitionCache keeps recently read flow and template definitions in memory.
// Writes go through to the wrapped store and evict what they touch.
type DefinitionCache struct {
	persistence.DefinitionStore
	cache *c.Cache
}

func NewDefinitionCache(store persistence.DefinitionStore, ttl time.Duration) *DefinitionCache {
	return &DefinitionCache{
		DefinitionStore: store,
		cache:           c.New(ttl, 10*time.Minute),
	}
}

func (dc *DefinitionCache) GetFlowDefinition(ctx context.Context, flowId string) (*model.FlowDefinition, error) {
	if v, found := dc.cache.Get(flowPrefix + flowId); found {
		flow := v.(model.FlowDefinition)
		return &flow, nil
	}
	flow, err := dc.DefinitionStore.GetFlowDefinition(ctx, flowId)
	if err != nil {
		return nil, err
	}
	dc.cache.SetDefault(flowPrefix+flowId, *flow)
	return flow, nil
}

func (dc *DefinitionCache) SaveFlowDefinition(ctx context.Context, flow model.FlowDefinition) error {
	dc.cache.Delete(flowPrefix + flow.Id)
	return dc.DefinitionStore.SaveFlowDefinition(ctx, flow)
}

func (dc *DefinitionCache) DeleteFlowDefinition(ctx context.Context, flowId string) error {
	dc.cache.Delete(flowPrefix + flowId)
	return dc.DefinitionStore.DeleteFlowDefinition(ctx, flowId)
}

func (dc *DefinitionCache) GetTemplate(ctx context.Context, templateId string) (*model.TemplateDefinition, error) {
	if v, found := dc.cache.Get(templatePrefix + templateId); found {
		tpl := v.(model.TemplateDefinition)
		return &tpl, nil
	}
	tpl, err := dc.DefinitionStore.GetTemplate(ctx, templateId)
	if err != nil {
		return nil, err
	}
	dc.cache.SetDefault(templatePrefix+templateId, *tpl)
	return tpl, nil
}

func (dc *DefinitionCache) ListTemplatesByCategory(ctx context.Context, category string) ([]model.TemplateDefinition, error) {
	if v, found := dc.cache.Get(categoryPrefix + category); found {
		return append([]model.TemplateDefinition(nil), v.([]model.TemplateDefinition)...), nil
	}
	tpls, err := dc.DefinitionStore.ListTemplatesByCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	dc.cache.SetDefault(categoryPrefix+category, append([]model.TemplateDefinition(nil), tpls...))
	return tpls, nil
}

// SaveTemplate evicts the template and every cached category list, the
// template may have moved between categories.
func (dc *DefinitionCache) SaveTemplate(ctx context.Context, tpl model.TemplateDefinition) error {
	dc.cache.Delete(templatePrefix + tpl.Id)
	for key := range dc.cache.Items() {
		if strings.HasPrefix(key, categoryPrefix) {
			dc.cache.Delete(key)
		}
	}
	return dc.DefinitionStore.SaveTemplate(ctx, tpl)
}
