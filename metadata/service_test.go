package metadata

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mohitkumar/resolveflow/commerce"
	"github.com/mohitkumar/resolveflow/container"
	"github.com/mohitkumar/resolveflow/model"
	"github.com/mohitkumar/resolveflow/persistence"
	"github.com/mohitkumar/resolveflow/persistence/memory"
	"github.com/mohitkumar/resolveflow/recommend"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (MetadataService, *memory.Storage) {
	store := memory.NewStorage()
	provider := commerce.NewStaticProvider()
	provider.AddOrder(model.OrderContext{OrderId: "o1", OrderNumber: "#1001", Customer: model.Customer{FirstName: "Ada"}})
	require.NoError(t, store.SaveThread(context.Background(), model.Thread{Id: "t1", OrderId: "o1"}))
	c := container.NewDiContainer()
	c.InitWith(store, provider, recommend.DefaultRules(), nil)
	return NewMetadataService(c), store
}

func TestSaveFlowValidates(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	err := s.SaveFlow(ctx, model.FlowDefinition{Id: "f", Category: "shipping", Nodes: []model.FlowNode{
		{Id: "q", Type: model.NODE_TYPE_SINGLE_CHOICE},
	}})
	var invalid InvalidDefinitionError
	require.True(t, errors.As(err, &invalid))

	flow := model.FlowDefinition{Id: "f", Category: "shipping", Nodes: []model.FlowNode{
		{Id: "q", Type: model.NODE_TYPE_TEXT_INPUT},
		{Id: "q2", Type: model.NODE_TYPE_COMPLETION},
	}}
	require.NoError(t, s.SaveFlow(ctx, flow))
	got, err := s.GetFlow(ctx, "f")
	require.NoError(t, err)
	require.Equal(t, flow, *got)

	require.NoError(t, s.DeleteFlow(ctx, "f"))
	_, err = s.GetFlow(ctx, "f")
	require.True(t, persistence.IsNotFound(err))
}

func TestSaveTemplateValidates(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	for _, tpl := range []model.TemplateDefinition{
		{Category: "shipping", Body: "x"},
		{Id: "a", Body: "x"},
		{Id: "a", Category: "shipping"},
	} {
		var invalid InvalidDefinitionError
		require.True(t, errors.As(s.SaveTemplate(ctx, tpl), &invalid))
	}
	require.NoError(t, s.SaveTemplate(ctx, model.TemplateDefinition{Id: "a", Category: "shipping", Body: "x", Active: true}))
	list, err := s.ListTemplates(ctx, "shipping")
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestRenderTemplate(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()
	require.NoError(t, s.SaveTemplate(ctx, model.TemplateDefinition{
		Id:       "shipped",
		Category: "shipping",
		Subject:  "Order {{order_number}}",
		Body:     "Hi {{customer_name}}, {{order_number}} shipped from {{store_name}}. {{mystery}}",
	}))
	msg, err := s.RenderTemplate(ctx, "shipped", model.VariableResolutionContext{ThreadId: "t1"})
	require.NoError(t, err)
	require.Equal(t, "Order #1001", msg.Subject)
	require.Equal(t, "Hi Ada, #1001 shipped from our store. {{mystery}}", msg.Body)
	require.Equal(t, []string{"store_name"}, msg.Fallback)
	require.Equal(t, []string{"mystery"}, msg.Unresolved)

	_, err = s.RenderTemplate(ctx, "nope", model.VariableResolutionContext{})
	require.True(t, persistence.IsNotFound(err))
}

func TestLoadCatalog(t *testing.T) {
	s, store := newService(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	body := `
flows:
  - id: shipping_issue
    name: Shipping issue
    category: shipping
    nodes:
      - id: shipping_issue_type
        type: single_choice
        content: What happened?
        options:
          - id: o1
            label: Lost
            value: lost
      - id: photos
        type: attachment
        content: Photos please
        metadata:
          skipable: true
          attachmentConfig:
            minFiles: 2
      - id: done
        type: completion
        content: Thanks
        metadata:
          resolution: escalate
templates:
  - id: shipping_lost_package
    category: shipping
    subject: Your package
    body: We are sorry {{customer_name}}
    active: true
    sortOrder: 3
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	require.NoError(t, s.LoadCatalog(ctx, path))

	flow, err := store.GetFlowDefinition(ctx, "shipping_issue")
	require.NoError(t, err)
	require.Len(t, flow.Nodes, 3)
	require.Equal(t, model.NODE_TYPE_ATTACHMENT, flow.Nodes[1].Type)
	require.True(t, flow.Nodes[1].Metadata.Skipable)
	min, _ := flow.Nodes[1].Metadata.AttachmentConfig.Limits()
	require.Equal(t, 2, min)
	require.Equal(t, "escalate", flow.Nodes[2].Metadata.Resolution)

	tpl, err := store.GetTemplate(ctx, "shipping_lost_package")
	require.NoError(t, err)
	require.Equal(t, 3, tpl.SortOrder)
	require.True(t, tpl.Active)
}

func TestLoadCatalogRejectsInvalid(t *testing.T) {
	s, store := newService(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.json")
	body := `{"flows": [{"id": "ok", "category": "misc", "nodes": [{"id": "a", "type": "info"}]}],
	"templates": [{"id": "broken"}]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	var invalid InvalidDefinitionError
	require.True(t, errors.As(s.LoadCatalog(ctx, path), &invalid))
	_, err := store.GetFlowDefinition(ctx, "ok")
	require.True(t, persistence.IsNotFound(err))
}
