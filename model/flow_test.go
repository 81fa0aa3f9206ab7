package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func validFlow() FlowDefinition {
	return FlowDefinition{
		Id:       "returns",
		Category: "return",
		Nodes: []FlowNode{
			{Id: "reason", Type: NODE_TYPE_SINGLE_CHOICE, Options: []NodeOption{{Id: "a", Label: "Changed mind", Value: "changed_mind"}}},
			{Id: "photos", Type: NODE_TYPE_ATTACHMENT},
			{Id: "done", Type: NODE_TYPE_COMPLETION},
		},
	}
}

func TestValidateFlow(t *testing.T) {
	scenarios := map[string]struct {
		mutate  func(f *FlowDefinition)
		wantErr bool
	}{
		"valid": {
			mutate: func(f *FlowDefinition) {},
		},
		"starts with completion": {
			mutate:  func(f *FlowDefinition) { f.Nodes = f.Nodes[2:] },
			wantErr: true,
		},
		"option value is the skip marker": {
			mutate: func(f *FlowDefinition) {
				f.Nodes[0].Options = append(f.Nodes[0].Options, NodeOption{Id: "s", Label: "Skip", Value: SKIPPED_SENTINEL})
			},
			wantErr: true,
		},
		"explicit zero minFiles": {
			mutate: func(f *FlowDefinition) { f.Nodes[1].Metadata.AttachmentConfig = MinFiles(0) },
		},
		"negative minFiles": {
			mutate:  func(f *FlowDefinition) { f.Nodes[1].Metadata.AttachmentConfig = MinFiles(-1) },
			wantErr: true,
		},
		"minFiles above maxFiles": {
			mutate:  func(f *FlowDefinition) { f.Nodes[1].Metadata.AttachmentConfig = FileLimits(4, 2) },
			wantErr: true,
		},
	}
	for name, s := range scenarios {
		t.Run(name, func(t *testing.T) {
			f := validFlow()
			s.mutate(&f)
			if s.wantErr {
				require.Error(t, f.Validate())
			} else {
				require.NoError(t, f.Validate())
			}
		})
	}
}

func TestAttachmentLimitsFromJson(t *testing.T) {
	var node FlowNode
	require.NoError(t, json.Unmarshal([]byte(`{"id": "photos", "type": "attachment", "metadata": {"attachmentConfig": {"minFiles": 0}}}`), &node))
	min, max := node.Metadata.AttachmentConfig.Limits()
	require.Equal(t, 0, min)
	require.Equal(t, DEFAULT_MAX_FILES, max)

	var unset *AttachmentConfig
	min, max = unset.Limits()
	require.Equal(t, DEFAULT_MIN_FILES, min)
	require.Equal(t, DEFAULT_MAX_FILES, max)
}
