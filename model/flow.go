package model

import "fmt"

type NodeType string

const NODE_TYPE_INFO NodeType = "info"
const NODE_TYPE_TEXT_INPUT NodeType = "text_input"
const NODE_TYPE_NUMBER_INPUT NodeType = "number_input"
const NODE_TYPE_SINGLE_CHOICE NodeType = "single_choice"
const NODE_TYPE_MULTIPLE_CHOICE NodeType = "multiple_choice"
const NODE_TYPE_ATTACHMENT NodeType = "attachment"
const NODE_TYPE_COMPLETION NodeType = "completion"

var NodeTypes = []NodeType{
	NODE_TYPE_INFO,
	NODE_TYPE_TEXT_INPUT,
	NODE_TYPE_NUMBER_INPUT,
	NODE_TYPE_SINGLE_CHOICE,
	NODE_TYPE_MULTIPLE_CHOICE,
	NODE_TYPE_ATTACHMENT,
	NODE_TYPE_COMPLETION,
}

func (t NodeType) Valid() bool {
	for _, nt := range NodeTypes {
		if nt == t {
			return true
		}
	}
	return false
}

func (t NodeType) IsChoice() bool {
	return t == NODE_TYPE_SINGLE_CHOICE || t == NODE_TYPE_MULTIPLE_CHOICE
}

const DEFAULT_MIN_FILES = 1
const DEFAULT_MAX_FILES = 10

type NodeOption struct {
	Id          string `json:"id" yaml:"id"`
	Label       string `json:"label" yaml:"label"`
	Value       string `json:"value" yaml:"value"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// AttachmentConfig bounds are pointers so an explicit minFiles of 0 differs from unset.
type AttachmentConfig struct {
	MinFiles *int `json:"minFiles,omitempty" yaml:"minFiles,omitempty"`
	MaxFiles *int `json:"maxFiles,omitempty" yaml:"maxFiles,omitempty"`
}

func FileLimits(min int, max int) *AttachmentConfig {
	return &AttachmentConfig{MinFiles: &min, MaxFiles: &max}
}

func MinFiles(min int) *AttachmentConfig {
	return &AttachmentConfig{MinFiles: &min}
}

// Limits returns the effective bounds, applying defaults for unset values.
func (c *AttachmentConfig) Limits() (int, int) {
	min, max := DEFAULT_MIN_FILES, DEFAULT_MAX_FILES
	if c == nil {
		return min, max
	}
	if c.MinFiles != nil {
		min = *c.MinFiles
	}
	if c.MaxFiles != nil && *c.MaxFiles > 0 {
		max = *c.MaxFiles
	}
	return min, max
}

type NodeMetadata struct {
	DynamicContent      bool              `json:"dynamicContent,omitempty" yaml:"dynamicContent,omitempty"`
	ContentSource       string            `json:"contentSource,omitempty" yaml:"contentSource,omitempty"`
	AttachmentConfig    *AttachmentConfig `json:"attachmentConfig,omitempty" yaml:"attachmentConfig,omitempty"`
	Resolution          string            `json:"resolution,omitempty" yaml:"resolution,omitempty"`
	Skipable            bool              `json:"skipable,omitempty" yaml:"skipable,omitempty"`
	HelpText            string            `json:"helpText,omitempty" yaml:"helpText,omitempty"`
	RequiresAgentAction bool              `json:"requiresAgentAction,omitempty" yaml:"requiresAgentAction,omitempty"`
}

type FlowNode struct {
	Id           string       `json:"id" yaml:"id"`
	Type         NodeType     `json:"type" yaml:"type"`
	Content      string       `json:"content" yaml:"content"`
	ResponseType string       `json:"responseType,omitempty" yaml:"responseType,omitempty"`
	Options      []NodeOption `json:"options,omitempty" yaml:"options,omitempty"`
	Metadata     NodeMetadata `json:"metadata" yaml:"metadata"`
}

func (n *FlowNode) HasOption(value string) bool {
	for _, opt := range n.Options {
		if opt.Value == value {
			return true
		}
	}
	return false
}

type FlowDefinition struct {
	Id       string     `json:"id" yaml:"id"`
	Name     string     `json:"name" yaml:"name"`
	Category string     `json:"category" yaml:"category"`
	Nodes    []FlowNode `json:"nodes" yaml:"nodes"`
}

// NodeIndex returns the position of the node in definition order or -1.
func (f *FlowDefinition) NodeIndex(nodeId string) int {
	for i := range f.Nodes {
		if f.Nodes[i].Id == nodeId {
			return i
		}
	}
	return -1
}

func (f *FlowDefinition) Node(nodeId string) (*FlowNode, bool) {
	idx := f.NodeIndex(nodeId)
	if idx < 0 {
		return nil, false
	}
	return &f.Nodes[idx], true
}

func (f *FlowDefinition) Validate() error {
	if len(f.Id) == 0 {
		return fmt.Errorf("flow id can not be empty")
	}
	if len(f.Category) == 0 {
		return fmt.Errorf("flow %s, category can not be empty", f.Id)
	}
	if len(f.Nodes) == 0 {
		return fmt.Errorf("flow %s should have at least one node", f.Id)
	}
	if f.Nodes[0].Type == NODE_TYPE_COMPLETION {
		return fmt.Errorf("flow %s can not start with a completion node", f.Id)
	}
	seen := make(map[string]bool, len(f.Nodes))
	for _, node := range f.Nodes {
		if len(node.Id) == 0 {
			return fmt.Errorf("flow %s, node id can not be empty", f.Id)
		}
		if seen[node.Id] {
			return fmt.Errorf("flow %s, node id %s is duplicate", f.Id, node.Id)
		}
		seen[node.Id] = true
		if !node.Type.Valid() {
			return fmt.Errorf("flow %s, node %s has invalid type %s", f.Id, node.Id, node.Type)
		}
		if node.Type.IsChoice() {
			if len(node.Options) == 0 {
				return fmt.Errorf("flow %s, node %s should have at least one option", f.Id, node.Id)
			}
			values := make(map[string]bool, len(node.Options))
			for _, opt := range node.Options {
				if values[opt.Value] {
					return fmt.Errorf("flow %s, node %s option value %s is duplicate", f.Id, node.Id, opt.Value)
				}
				if opt.Value == SKIPPED_SENTINEL {
					return fmt.Errorf("flow %s, node %s option value %s is reserved", f.Id, node.Id, opt.Value)
				}
				values[opt.Value] = true
			}
		}
		if node.Type == NODE_TYPE_ATTACHMENT {
			min, max := node.Metadata.AttachmentConfig.Limits()
			if min < 0 {
				return fmt.Errorf("flow %s, node %s minFiles %d can not be negative", f.Id, node.Id, min)
			}
			if min > max {
				return fmt.Errorf("flow %s, node %s minFiles %d greater than maxFiles %d", f.Id, node.Id, min, max)
			}
		}
	}
	return nil
}
