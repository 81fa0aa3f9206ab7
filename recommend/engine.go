package recommend

import (
	"context"
	"strings"

	"github.com/mohitkumar/resolveflow/logger"
	"github.com/mohitkumar/resolveflow/model"
	"github.com/mohitkumar/resolveflow/persistence"
	"go.uber.org/zap"
)

const SOURCE_RULE = "rule"
const SOURCE_CATEGORY_FALLBACK = "category_fallback"

// TemplateSource is the part of the definition store the engine reads.
type TemplateSource interface {
	GetTemplate(ctx context.Context, templateId string) (*model.TemplateDefinition, error)
	ListTemplatesByCategory(ctx context.Context, category string) ([]model.TemplateDefinition, error)
}

// TemplateRecommendation has a nil Template when nothing matched.
type TemplateRecommendation struct {
	Key      string                    `json:"key"`
	Source   string                    `json:"source,omitempty"`
	Template *model.TemplateDefinition `json:"template,omitempty"`
}

type FlowCandidate struct {
	FlowId string `json:"flowId"`
	Reason string `json:"reason"`
	Rank   int    `json:"rank"`
}

type Engine struct {
	rules     Rules
	templates TemplateSource
}

func NewEngine(rules Rules, templates TemplateSource) *Engine {
	return &Engine{rules: rules, templates: templates}
}

// TemplateKey joins the category with the answers recorded at the category's
// decision nodes, stopping at the first node without a discrete answer.
func (e *Engine) TemplateKey(category string, state *model.FlowState) string {
	parts := []string{category}
	decision, ok := e.rules.DecisionTrees[category]
	for ok {
		resp, found := state.Get(decision.NodeId)
		if !found || resp.IsSkipped() {
			break
		}
		value, scalar := resp.Scalar()
		if !scalar || len(value) == 0 {
			break
		}
		parts = append(parts, value)
		decision, ok = decision.Next[value]
	}
	return strings.Join(parts, ":")
}

// RecommendTemplate looks up the exact rule for the session's key, then the
// lead active template of the category's fallback category.
func (e *Engine) RecommendTemplate(ctx context.Context, category string, state *model.FlowState) TemplateRecommendation {
	key := e.TemplateKey(category, state)
	res := TemplateRecommendation{Key: key}
	if e.templates == nil {
		return res
	}
	if templateId, ok := e.rules.TemplateRules[key]; ok {
		tpl, err := e.templates.GetTemplate(ctx, templateId)
		switch {
		case err == nil && tpl.Active:
			res.Source = SOURCE_RULE
			res.Template = tpl
			return res
		case err != nil && !persistence.IsNotFound(err):
			logger.Error("error in loading recommended template", zap.String("key", key), zap.String("template", templateId), zap.Error(err))
		default:
			logger.Debug("recommended template unavailable", zap.String("key", key), zap.String("template", templateId))
		}
	}
	fallback, ok := e.rules.CategoryFallbacks[category]
	if !ok {
		fallback = category
	}
	tpls, err := e.templates.ListTemplatesByCategory(ctx, fallback)
	if err != nil {
		logger.Error("error in loading fallback templates", zap.String("category", fallback), zap.Error(err))
		return res
	}
	for i := range tpls {
		if tpls[i].Active {
			res.Source = SOURCE_CATEGORY_FALLBACK
			res.Template = &tpls[i]
			return res
		}
	}
	return res
}

// RecommendFlows ranks follow-up flows for the completed session. Flows already
// completed on the thread, and the completed flow itself, are left out.
func (e *Engine) RecommendFlows(completed *model.FlowSession, history []*model.FlowSession) []FlowCandidate {
	excluded := map[string]bool{completed.FlowId: true}
	for _, s := range history {
		if s.IsCompleted() {
			excluded[s.FlowId] = true
		}
	}
	var res []FlowCandidate
	for _, rule := range e.rules.Continuations[completed.FlowId] {
		if excluded[rule.FlowId] || !matches(rule.When, completed.FlowState) {
			continue
		}
		excluded[rule.FlowId] = true
		res = append(res, FlowCandidate{FlowId: rule.FlowId, Reason: rule.Reason, Rank: len(res) + 1})
	}
	return res
}

func matches(when map[string]string, state *model.FlowState) bool {
	for nodeId, expected := range when {
		resp, ok := state.Get(nodeId)
		if !ok {
			return false
		}
		if resp.Kind == model.RESPONSE_CHOICES {
			if !contains(resp.Values, expected) {
				return false
			}
			continue
		}
		value, ok := resp.Scalar()
		if !ok || value != expected {
			return false
		}
	}
	return true
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
