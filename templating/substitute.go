// Package templating replaces {{variable}} placeholders in message templates.
package templating

import (
	"regexp"
	"sort"

	"github.com/mohitkumar/resolveflow/model"
)

var tokenPattern = regexp.MustCompile(`\{\{([a-zA-Z0-9_]+)\}\}`)

// Result is the outcome of one substitution pass. Every token that was not
// resolved from the variable map is named in exactly one of Fallback or Unresolved.
type Result struct {
	Text       string   `json:"text"`
	Fallback   []string `json:"fallback"`
	Unresolved []string `json:"unresolved"`
}

// Substitute replaces tokens in text. A non-empty value in vars wins, then a
// fallback, otherwise the token is left as it is.
func Substitute(text string, vars model.ResolvedVariables, fallbacks map[string]string) Result {
	fallback := make(map[string]bool)
	unresolved := make(map[string]bool)
	out := tokenPattern.ReplaceAllStringFunc(text, func(token string) string {
		name := token[2 : len(token)-2]
		if v, ok := vars[name]; ok && len(v) > 0 {
			return v
		}
		if v, ok := fallbacks[name]; ok {
			fallback[name] = true
			return v
		}
		unresolved[name] = true
		return token
	})
	return Result{
		Text:       out,
		Fallback:   sortedKeys(fallback),
		Unresolved: sortedKeys(unresolved),
	}
}

// Tokens lists the distinct variable names referenced by text, in order of appearance.
func Tokens(text string) []string {
	var res []string
	seen := make(map[string]bool)
	for _, m := range tokenPattern.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			res = append(res, m[1])
		}
	}
	return res
}

func sortedKeys(m map[string]bool) []string {
	res := make([]string, 0, len(m))
	for k := range m {
		res = append(res, k)
	}
	sort.Strings(res)
	return res
}

// Message is a rendered template ready for an operator to review.
type Message struct {
	TemplateId string   `json:"templateId"`
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
	Fallback   []string `json:"fallback"`
	Unresolved []string `json:"unresolved"`
}

// HasWarnings reports whether anything in the message was not cleanly resolved.
func (m Message) HasWarnings() bool {
	return len(m.Fallback) > 0 || len(m.Unresolved) > 0
}

// Render substitutes subject and body and merges their tracking sets.
func Render(tpl model.TemplateDefinition, vars model.ResolvedVariables, fallbacks map[string]string) Message {
	subject := Substitute(tpl.Subject, vars, fallbacks)
	body := Substitute(tpl.Body, vars, fallbacks)
	return Message{
		TemplateId: tpl.Id,
		Subject:    subject.Text,
		Body:       body.Text,
		Fallback:   merge(subject.Fallback, body.Fallback),
		Unresolved: merge(subject.Unresolved, body.Unresolved),
	}
}

func merge(a []string, b []string) []string {
	set := make(map[string]bool, len(a)+len(b))
	for _, v := range a {
		set[v] = true
	}
	for _, v := range b {
		set[v] = true
	}
	return sortedKeys(set)
}
