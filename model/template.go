package model

type TemplateDefinition struct {
	Id        string `json:"id" yaml:"id"`
	Category  string `json:"category" yaml:"category"`
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
	Subject   string `json:"subject" yaml:"subject"`
	Body      string `json:"body" yaml:"body"`
	Active    bool   `json:"active" yaml:"active"`
	SortOrder int    `json:"sortOrder,omitempty" yaml:"sortOrder,omitempty"`
}

// VariableResolutionContext carries whatever identifiers a caller has for a render.
type VariableResolutionContext struct {
	ThreadId   string   `json:"threadId,omitempty"`
	OrderId    string   `json:"orderId,omitempty"`
	UserId     string   `json:"userId,omitempty"`
	ProductIds []string `json:"productIds,omitempty"`
}

type ResolvedVariables map[string]string
