package node

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mohitkumar/resolveflow/model"
)

type validatorFunc func(n *model.FlowNode, sub model.Submission) (model.Response, error)

var validators = map[model.NodeType]validatorFunc{
	model.NODE_TYPE_INFO:            validateInfo,
	model.NODE_TYPE_TEXT_INPUT:      validateText,
	model.NODE_TYPE_NUMBER_INPUT:    validateNumber,
	model.NODE_TYPE_SINGLE_CHOICE:   validateSingleChoice,
	model.NODE_TYPE_MULTIPLE_CHOICE: validateMultipleChoice,
	model.NODE_TYPE_ATTACHMENT:      validateAttachments,
	model.NODE_TYPE_COMPLETION:      validateCompletion,
}

// Validate checks a submission against the node and returns the response to record.
func Validate(n *model.FlowNode, sub model.Submission) (model.Response, error) {
	fn, ok := validators[n.Type]
	if !ok {
		return model.Response{}, ValidationError{NodeId: n.Id, Reason: fmt.Sprintf("unsupported node type %s", n.Type)}
	}
	return fn(n, sub)
}

// Skip returns the sentinel response for a skipable node.
func Skip(n *model.FlowNode) (model.Response, error) {
	if !n.Metadata.Skipable {
		return model.Response{}, NotSkipableError{NodeId: n.Id}
	}
	return model.SkippedResponse(), nil
}

func validateInfo(n *model.FlowNode, sub model.Submission) (model.Response, error) {
	return model.AcknowledgedResponse(), nil
}

func validateCompletion(n *model.FlowNode, sub model.Submission) (model.Response, error) {
	return model.Response{}, ValidationError{NodeId: n.Id, Reason: "completion node does not accept responses"}
}

func validateText(n *model.FlowNode, sub model.Submission) (model.Response, error) {
	value := strings.TrimSpace(sub.Value)
	if len(value) == 0 {
		if n.Metadata.Skipable {
			return model.SkippedResponse(), nil
		}
		return model.Response{}, ValidationError{NodeId: n.Id, Reason: "response can not be empty"}
	}
	if value == model.SKIPPED_SENTINEL {
		return model.Response{}, ValidationError{NodeId: n.Id, Reason: fmt.Sprintf("%q is reserved", value)}
	}
	return model.TextResponse(value), nil
}

func validateNumber(n *model.FlowNode, sub model.Submission) (model.Response, error) {
	value := strings.TrimSpace(sub.Value)
	if len(value) == 0 {
		if n.Metadata.Skipable {
			return model.SkippedResponse(), nil
		}
		return model.Response{}, ValidationError{NodeId: n.Id, Reason: "response can not be empty"}
	}
	if _, err := strconv.ParseFloat(value, 64); err != nil {
		return model.Response{}, ValidationError{NodeId: n.Id, Reason: fmt.Sprintf("%q is not a number", value)}
	}
	return model.TextResponse(value), nil
}

func validateSingleChoice(n *model.FlowNode, sub model.Submission) (model.Response, error) {
	value := sub.Value
	if len(value) == 0 && len(sub.Values) == 1 {
		value = sub.Values[0]
	}
	if len(value) == 0 {
		if n.Metadata.Skipable {
			return model.SkippedResponse(), nil
		}
		return model.Response{}, ValidationError{NodeId: n.Id, Reason: "a choice is required"}
	}
	if !n.HasOption(value) {
		return model.Response{}, ValidationError{NodeId: n.Id, Reason: fmt.Sprintf("%q is not a valid option", value)}
	}
	return model.ChoiceResponse(value), nil
}

func validateMultipleChoice(n *model.FlowNode, sub model.Submission) (model.Response, error) {
	values := sub.Values
	if len(values) == 0 && len(sub.Value) > 0 {
		values = []string{sub.Value}
	}
	if len(values) == 0 {
		if n.Metadata.Skipable {
			return model.SkippedResponse(), nil
		}
		return model.Response{}, ValidationError{NodeId: n.Id, Reason: "at least one choice is required"}
	}
	selected := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if !n.HasOption(v) {
			return model.Response{}, ValidationError{NodeId: n.Id, Reason: fmt.Sprintf("%q is not a valid option", v)}
		}
		if seen[v] {
			continue
		}
		seen[v] = true
		selected = append(selected, v)
	}
	return model.ChoicesResponse(selected), nil
}

func validateAttachments(n *model.FlowNode, sub model.Submission) (model.Response, error) {
	min, max := n.Metadata.AttachmentConfig.Limits()
	got := len(sub.Attachments)
	if got < min || got > max {
		return model.Response{}, InsufficientAttachmentsError{NodeId: n.Id, Min: min, Max: max, Got: got}
	}
	return model.AttachmentsResponse(sub.Attachments), nil
}
