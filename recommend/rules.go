// Package recommend suggests a message template and follow-up flows for a
// completed session. All decisions come from static rule tables.
package recommend

import (
	"github.com/mohitkumar/resolveflow/config"
)

// Decision names the node whose answer extends the template key, and the
// decision that follows for each answer.
type Decision struct {
	NodeId string              `json:"node_id"`
	Next   map[string]Decision `json:"next,omitempty"`
}

type ContinuationRule struct {
	FlowId string `json:"flow_id"`
	Reason string `json:"reason"`
	// When restricts the rule to sessions whose recorded answers match.
	When map[string]string `json:"when,omitempty"`
}

// Rules is immutable once handed to an Engine.
type Rules struct {
	DecisionTrees     map[string]Decision           `json:"decision_trees"`
	TemplateRules     map[string]string             `json:"template_rules"`
	CategoryFallbacks map[string]string             `json:"category_fallbacks"`
	Continuations     map[string][]ContinuationRule `json:"continuations"`
}

// LoadRules reads rule tables from a yaml or json file. Keys match exactly.
func LoadRules(path string) (Rules, error) {
	var rules Rules
	if err := config.LoadFile(path, &rules); err != nil {
		return Rules{}, err
	}
	return rules, nil
}

func DefaultRules() Rules {
	return Rules{
		DecisionTrees: map[string]Decision{
			"shipping": {
				NodeId: "shipping_issue_type",
				Next: map[string]Decision{
					"not_updating": {NodeId: "not_updating_duration"},
					"delayed":      {NodeId: "delay_duration"},
				},
			},
			"damage":      {NodeId: "damage_type"},
			"return":      {NodeId: "return_reason"},
			"defective":   {NodeId: "defect_type"},
			"replacement": {NodeId: "replacement_reason"},
		},
		TemplateRules: map[string]string{
			"shipping:not_updating:7_plus_days":  "shipping_stalled_escalated",
			"shipping:not_updating:3_to_7_days":  "shipping_stalled_investigating",
			"shipping:not_updating:under_3_days": "shipping_in_transit",
			"shipping:delayed:over_a_week":       "shipping_delayed_escalated",
			"shipping:delayed:few_days":          "shipping_delayed",
			"shipping:lost":                      "shipping_lost_package",
			"shipping:wrong_address":             "shipping_address_issue",
			"damage:packaging":                   "damage_packaging",
			"damage:item_broken":                 "damage_item_broken",
			"damage:missing_parts":               "damage_missing_parts",
			"return:changed_mind":                "return_standard",
			"return:wrong_item":                  "return_wrong_item",
			"defective:not_working":              "defective_replacement",
			"defective:partially_working":        "defective_troubleshoot",
		},
		CategoryFallbacks: map[string]string{
			"shipping":    "shipping",
			"damage":      "damage",
			"return":      "return",
			"defective":   "defective",
			"replacement": "defective",
			"warranty":    "defective",
		},
		Continuations: map[string][]ContinuationRule{
			"shipping_issue": {
				{FlowId: "damage_claim", Reason: "the package arrived, the customer might still have a damage claim", When: map[string]string{"shipping_issue_type": "delivered_damaged"}},
				{FlowId: "return_request", Reason: "the customer may want to return the item once it arrives"},
			},
			"damage_claim": {
				{FlowId: "replacement_request", Reason: "a damaged item usually needs a replacement"},
				{FlowId: "return_request", Reason: "the customer may prefer a refund over a replacement"},
			},
			"defective_product": {
				{FlowId: "warranty_check", Reason: "the product may still be under warranty"},
				{FlowId: "replacement_request", Reason: "a defective item may need a replacement"},
			},
			"warranty_check": {
				{FlowId: "replacement_request", Reason: "the warranty covers a replacement"},
			},
		},
	}
}
