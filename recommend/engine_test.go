package recommend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mohitkumar/resolveflow/model"
	"github.com/mohitkumar/resolveflow/persistence/memory"
	"github.com/stretchr/testify/require"
)

func state(pairs ...string) *model.FlowState {
	s := model.NewFlowState()
	for i := 0; i+1 < len(pairs); i += 2 {
		s.Set(pairs[i], model.ChoiceResponse(pairs[i+1]))
	}
	return s
}

func newEngine(t *testing.T) *Engine {
	ctx := context.Background()
	store := memory.NewStorage()
	for _, tpl := range []model.TemplateDefinition{
		{Id: "shipping_stalled_escalated", Category: "shipping", Body: "escalated", Active: true, SortOrder: 5},
		{Id: "shipping_lost_package", Category: "shipping", Body: "lost", Active: false},
		{Id: "shipping_general", Category: "shipping", Body: "general", Active: true, SortOrder: 1},
		{Id: "shipping_old", Category: "shipping", Body: "old", Active: false, SortOrder: 0},
		{Id: "defective_replacement", Category: "defective", Body: "replace", Active: true, SortOrder: 2},
		{Id: "defective_lead", Category: "defective", Body: "lead", Active: true, SortOrder: 1},
	} {
		require.NoError(t, store.SaveTemplate(ctx, tpl))
	}
	return NewEngine(DefaultRules(), store)
}

func TestTemplateKey(t *testing.T) {
	e := newEngine(t)
	for expected, s := range map[string]*model.FlowState{
		"shipping:not_updating:7_plus_days": state("intro", "x", "shipping_issue_type", "not_updating", "not_updating_duration", "7_plus_days"),
		"shipping:not_updating":             state("shipping_issue_type", "not_updating"),
		"shipping:lost":                     state("shipping_issue_type", "lost", "not_updating_duration", "7_plus_days"),
		"shipping":                          state(),
	} {
		require.Equal(t, expected, e.TemplateKey("shipping", s))
	}

	skipped := state("shipping_issue_type", "not_updating")
	skipped.Set("not_updating_duration", model.SkippedResponse())
	require.Equal(t, "shipping:not_updating", e.TemplateKey("shipping", skipped))

	require.Equal(t, "billing", e.TemplateKey("billing", state("anything", "x")))
	require.Equal(t, "shipping", e.TemplateKey("shipping", nil))
}

func TestRecommendTemplateExactRule(t *testing.T) {
	e := newEngine(t)
	s := state("shipping_issue_type", "not_updating", "not_updating_duration", "7_plus_days")
	rec := e.RecommendTemplate(context.Background(), "shipping", s)
	require.Equal(t, "shipping:not_updating:7_plus_days", rec.Key)
	require.Equal(t, SOURCE_RULE, rec.Source)
	require.Equal(t, DefaultRules().TemplateRules["shipping:not_updating:7_plus_days"], rec.Template.Id)
}

func TestRecommendTemplateIsDeterministic(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	s := state("shipping_issue_type", "not_updating", "not_updating_duration", "7_plus_days")
	first := e.RecommendTemplate(ctx, "shipping", s)
	for i := 0; i < 20; i++ {
		require.Equal(t, first, e.RecommendTemplate(ctx, "shipping", s.Clone()))
	}
	fallback := e.RecommendTemplate(ctx, "replacement", state())
	for i := 0; i < 20; i++ {
		require.Equal(t, fallback, e.RecommendTemplate(ctx, "replacement", state()))
	}
}

func TestRecommendTemplateFallsBack(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	// rule matches but its template is inactive
	rec := e.RecommendTemplate(ctx, "shipping", state("shipping_issue_type", "lost"))
	require.Equal(t, SOURCE_CATEGORY_FALLBACK, rec.Source)
	require.Equal(t, "shipping_general", rec.Template.Id)

	// no rule, mapped fallback category
	rec = e.RecommendTemplate(ctx, "replacement", state("replacement_reason", "other"))
	require.Equal(t, "replacement:other", rec.Key)
	require.Equal(t, SOURCE_CATEGORY_FALLBACK, rec.Source)
	require.Equal(t, "defective_lead", rec.Template.Id)
}

func TestRecommendTemplateEmpty(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	rec := e.RecommendTemplate(ctx, "return", state("return_reason", "changed_mind"))
	require.Equal(t, "return:changed_mind", rec.Key)
	require.Nil(t, rec.Template)
	require.Empty(t, rec.Source)

	rec = NewEngine(DefaultRules(), nil).RecommendTemplate(ctx, "shipping", state())
	require.Nil(t, rec.Template)
}

func TestRecommendFlows(t *testing.T) {
	e := newEngine(t)
	completed := &model.FlowSession{Id: "s1", FlowId: "damage_claim", Status: model.SESSION_COMPLETED, FlowState: state()}

	res := e.RecommendFlows(completed, nil)
	require.Equal(t, []FlowCandidate{
		{FlowId: "replacement_request", Reason: "a damaged item usually needs a replacement", Rank: 1},
		{FlowId: "return_request", Reason: "the customer may prefer a refund over a replacement", Rank: 2},
	}, res)

	history := []*model.FlowSession{
		completed,
		{Id: "s0", FlowId: "replacement_request", Status: model.SESSION_COMPLETED},
		{Id: "s2", FlowId: "return_request", Status: model.SESSION_ABANDONED},
	}
	res = e.RecommendFlows(completed, history)
	require.Len(t, res, 1)
	require.Equal(t, "return_request", res[0].FlowId)
	require.Equal(t, 1, res[0].Rank)
}

func TestRecommendFlowsConditions(t *testing.T) {
	e := newEngine(t)
	completed := &model.FlowSession{FlowId: "shipping_issue", FlowState: state("shipping_issue_type", "lost")}
	res := e.RecommendFlows(completed, nil)
	require.Len(t, res, 1)
	require.Equal(t, "return_request", res[0].FlowId)

	completed.FlowState = state("shipping_issue_type", "delivered_damaged")
	res = e.RecommendFlows(completed, nil)
	require.Len(t, res, 2)
	require.Equal(t, "damage_claim", res[0].FlowId)

	completed.FlowState = model.NewFlowState()
	completed.FlowState.Set("shipping_issue_type", model.ChoicesResponse([]string{"lost", "delivered_damaged"}))
	require.Len(t, e.RecommendFlows(completed, nil), 2)

	require.Empty(t, e.RecommendFlows(&model.FlowSession{FlowId: "unknown"}, nil))
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	body := `decision_trees:
  shipping:
    node_id: shipping_issue_type
    next:
      not_updating:
        node_id: not_updating_duration
template_rules:
  "shipping:not_updating:7_plus_days": custom_template
category_fallbacks:
  replacement: defective
continuations:
  shipping_issue:
    - flow_id: damage_claim
      reason: might be damaged
      when:
        shipping_issue_type: delivered_damaged
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	require.Equal(t, "custom_template", rules.TemplateRules["shipping:not_updating:7_plus_days"])
	require.Equal(t, "defective", rules.CategoryFallbacks["replacement"])
	require.Equal(t, "delivered_damaged", rules.Continuations["shipping_issue"][0].When["shipping_issue_type"])

	e := NewEngine(rules, nil)
	s := state("shipping_issue_type", "not_updating", "not_updating_duration", "7_plus_days")
	require.Equal(t, "shipping:not_updating:7_plus_days", e.TemplateKey("shipping", s))

	_, err = LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadRulesKeepsKeyCase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	body := `decision_trees:
  Shipping:
    node_id: issueType
    next:
      Lost:
        node_id: lostWhere
template_rules:
  "Shipping:Lost": tpl_lost
continuations:
  shippingIssue:
    - flow_id: returnRequest
      reason: refund the lost item
      when:
        issueType: Lost
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	require.Contains(t, rules.TemplateRules, "Shipping:Lost")
	require.Contains(t, rules.Continuations, "shippingIssue")

	store := memory.NewStorage()
	require.NoError(t, store.SaveTemplate(ctx, model.TemplateDefinition{Id: "tpl_lost", Category: "Shipping", Body: "lost", Active: true}))
	e := NewEngine(rules, store)

	s := model.NewFlowState()
	s.Set("issueType", model.ChoiceResponse("Lost"))
	rec := e.RecommendTemplate(ctx, "Shipping", s)
	require.Equal(t, "Shipping:Lost", rec.Key)
	require.Equal(t, SOURCE_RULE, rec.Source)
	require.NotNil(t, rec.Template)
	require.Equal(t, "tpl_lost", rec.Template.Id)

	flows := e.RecommendFlows(&model.FlowSession{Id: "s1", FlowId: "shippingIssue", FlowState: s}, nil)
	require.Len(t, flows, 1)
	require.Equal(t, "returnRequest", flows[0].FlowId)
}
