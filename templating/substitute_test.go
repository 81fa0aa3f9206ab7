package templating

import (
	"context"
	"testing"

	"github.com/mohitkumar/resolveflow/model"
	"github.com/stretchr/testify/require"
)

func TestSubstitutePriority(t *testing.T) {
	vars := model.ResolvedVariables{"order_number": "#1001", "carrier": ""}
	fallbacks := map[string]string{"carrier": "the carrier", "order_number": "your order"}

	res := Substitute("{{order_number}} via {{carrier}} to {{city}}", vars, fallbacks)
	require.Equal(t, "#1001 via the carrier to {{city}}", res.Text)
	require.Equal(t, []string{"carrier"}, res.Fallback)
	require.Equal(t, []string{"city"}, res.Unresolved)
}

func TestSubstituteLeavesUnresolvedCustomerName(t *testing.T) {
	tpl := "Hi {{customer_first_name}}, your order {{order_number}} shipped."
	vars := model.ResolvedVariables{"order_number": "#1001"}

	res := Substitute(tpl, vars, DefaultFallbacks())
	require.Equal(t, "Hi {{customer_first_name}}, your order #1001 shipped.", res.Text)
	require.Equal(t, []string{"customer_first_name"}, res.Unresolved)
	require.Empty(t, res.Fallback)
}

func TestSubstituteIsTotal(t *testing.T) {
	for scenario, text := range map[string]string{
		"empty":         "",
		"only tokens":   "{{a}}{{b}}{{a}}",
		"plain":         "Thanks for reaching out!",
		"unicode":       "Olá {{nome}} 🚚",
		"nested braces": "{{{a}}}",
		"unclosed":      "{{a",
	} {
		t.Run(scenario, func(t *testing.T) {
			for _, vars := range []model.ResolvedVariables{nil, {}, {"a": "1"}} {
				res := Substitute(text, vars, nil)
				for _, name := range Tokens(res.Text) {
					require.Contains(t, res.Unresolved, name)
					require.Empty(t, vars[name])
				}
			}
		})
	}
}

func TestSubstitutePlainTextUnchanged(t *testing.T) {
	text := "We're sorry about the delay.\nOur team is on it. {not a token} { {x} }"
	res := Substitute(text, model.ResolvedVariables{"x": "y"}, DefaultFallbacks())
	require.Equal(t, text, res.Text)
	require.Empty(t, res.Fallback)
	require.Empty(t, res.Unresolved)
}

func TestSubstituteMalformedTokens(t *testing.T) {
	vars := model.ResolvedVariables{"name": "Jane", "Name": "JANE"}
	for input, expected := range map[string]string{
		"{{ name }}":    "{{ name }}",
		"{{name}":       "{{name}",
		"{name}}":       "{name}}",
		"{{na-me}}":     "{{na-me}}",
		"{{}}":          "{{}}",
		"{{{name}}}":    "{Jane}",
		"{{Name}}":      "JANE",
		"{{name}}{{x}}": "Jane{{x}}",
	} {
		require.Equal(t, expected, Substitute(input, vars, nil).Text, input)
	}
}

func TestSubstituteIsIdempotent(t *testing.T) {
	text := "Hi {{customer_name}}, {{order_number}} {{missing}} {{store_name}}"
	vars := model.ResolvedVariables{"order_number": "#9"}
	first := Substitute(text, vars, DefaultFallbacks())
	second := Substitute(text, vars, DefaultFallbacks())
	require.Equal(t, first, second)
	require.Equal(t, []string{"customer_name", "store_name"}, first.Fallback)
	require.Equal(t, []string{"missing"}, first.Unresolved)
}

func TestRenderMergesTracking(t *testing.T) {
	tpl := model.TemplateDefinition{
		Id:      "tpl",
		Subject: "Order {{order_number}} for {{customer_name}}",
		Body:    "Hi {{customer_name}}, {{carrier}} says {{tracking_status}}. {{order_number}}",
	}
	msg := Render(tpl, model.ResolvedVariables{"tracking_status": "in transit"}, DefaultFallbacks())
	require.Equal(t, "tpl", msg.TemplateId)
	require.Equal(t, "Order your order for there", msg.Subject)
	require.Equal(t, "Hi there, the carrier says in transit. your order", msg.Body)
	require.Equal(t, []string{"carrier", "customer_name", "order_number"}, msg.Fallback)
	require.Empty(t, msg.Unresolved)
	require.True(t, msg.HasWarnings())
}

func TestTokens(t *testing.T) {
	require.Equal(t, []string{"a", "b"}, Tokens("{{a}} {{b}} {{a}} {{ c }}"))
	require.Empty(t, Tokens("nothing"))
}

type staticBuilder model.ResolvedVariables

func (b staticBuilder) Build(ctx context.Context, rc model.VariableResolutionContext) model.ResolvedVariables {
	return model.ResolvedVariables(b)
}

func TestEngineRenderForContext(t *testing.T) {
	e := NewEngine(staticBuilder{"customer_first_name": "Jane"}, nil)
	msg := e.RenderForContext(context.Background(), model.TemplateDefinition{Id: "x", Body: "Hi {{customer_first_name}} from {{store_name}}"}, model.VariableResolutionContext{})
	require.Equal(t, "Hi Jane from our store", msg.Body)
	require.Equal(t, []string{"store_name"}, msg.Fallback)
	require.False(t, Message{}.HasWarnings())
}
