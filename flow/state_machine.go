package flow

import (
	"time"

	"github.com/mohitkumar/resolveflow/model"
	"github.com/mohitkumar/resolveflow/node"
)

type NodeState string

const NODE_PENDING NodeState = "pending"
const NODE_ACTIVE NodeState = "active"
const NODE_ANSWERED NodeState = "answered"

// FlowMachine applies transitions to a copy of a session. Nothing is persisted here.
type FlowMachine struct {
	flow    *model.FlowDefinition
	session *model.FlowSession
	now     func() time.Time
}

// NewSession creates a session positioned at the first node of flow.
func NewSession(flow *model.FlowDefinition, sessionId string, threadId string, now time.Time) *model.FlowSession {
	return &model.FlowSession{
		Id:            sessionId,
		FlowId:        flow.Id,
		Category:      flow.Category,
		ThreadId:      threadId,
		StartedAt:     now,
		UpdatedAt:     now,
		CurrentNodeId: flow.Nodes[0].Id,
		Status:        model.SESSION_NOT_STARTED,
		FlowState:     model.NewFlowState(),
		IsActive:      true,
	}
}

func NewFlowMachine(flow *model.FlowDefinition, session *model.FlowSession, now func() time.Time) *FlowMachine {
	if now == nil {
		now = time.Now
	}
	return &FlowMachine{
		flow:    flow,
		session: session.Clone(),
		now:     now,
	}
}

func (f *FlowMachine) Session() *model.FlowSession {
	return f.session
}

func (f *FlowMachine) Flow() *model.FlowDefinition {
	return f.flow
}

// CurrentNode returns the node the session points at, if any.
func (f *FlowMachine) CurrentNode() (*model.FlowNode, bool) {
	return f.flow.Node(f.session.CurrentNodeId)
}

func (f *FlowMachine) ValidateExecutionRequest(nodeId string) error {
	if f.session.IsCompleted() {
		return SessionAlreadyCompletedError{SessionId: f.session.Id}
	}
	if f.session.IsAbandoned() {
		return SessionNotActiveError{SessionId: f.session.Id}
	}
	if nodeId != f.session.CurrentNodeId {
		return NodeMismatchError{SessionId: f.session.Id, SubmittedNode: nodeId, CurrentNode: f.session.CurrentNodeId}
	}
	if _, ok := f.CurrentNode(); !ok {
		return ValidationError{NodeId: nodeId, Reason: "node is not part of flow " + f.flow.Id}
	}
	return nil
}

// Advance validates sub against the current node, records the response and moves on.
func (f *FlowMachine) Advance(sub model.Submission) (model.Response, error) {
	if err := f.ValidateExecutionRequest(sub.NodeId); err != nil {
		return model.Response{}, err
	}
	current, _ := f.CurrentNode()
	resp, err := node.Validate(current, sub)
	if err != nil {
		return model.Response{}, err
	}
	f.record(current.Id, resp)
	return resp, nil
}

// Skip records the skip sentinel for a skipable current node and moves on.
func (f *FlowMachine) Skip(nodeId string) error {
	if err := f.ValidateExecutionRequest(nodeId); err != nil {
		return err
	}
	current, _ := f.CurrentNode()
	resp, err := node.Skip(current)
	if err != nil {
		return err
	}
	f.record(current.Id, resp)
	return nil
}

// Abandon ends the session without completing it. It returns false when the
// session already was abandoned.
func (f *FlowMachine) Abandon() (bool, error) {
	if f.session.IsAbandoned() {
		return false, nil
	}
	if f.session.IsCompleted() {
		return false, SessionAlreadyCompletedError{SessionId: f.session.Id}
	}
	f.session.Status = model.SESSION_ABANDONED
	f.session.IsActive = false
	f.session.CompletedAt = nil
	f.session.UpdatedAt = f.now().UTC()
	return true, nil
}

func (f *FlowMachine) record(nodeId string, resp model.Response) {
	f.session.FlowState.Set(nodeId, resp)
	f.session.Status = model.SESSION_IN_PROGRESS
	f.session.UpdatedAt = f.now().UTC()

	idx := f.flow.NodeIndex(nodeId)
	if idx+1 >= len(f.flow.Nodes) {
		f.session.CurrentNodeId = ""
		f.markComplete()
		return
	}
	next := f.flow.Nodes[idx+1]
	f.session.CurrentNodeId = next.Id
	if next.Type == model.NODE_TYPE_COMPLETION {
		f.markComplete()
	}
}

func (f *FlowMachine) markComplete() {
	completedAt := f.session.UpdatedAt
	f.session.Status = model.SESSION_COMPLETED
	f.session.IsActive = false
	f.session.CompletedAt = &completedAt
}

// Resolution is the outcome tag of the completion node the session ended on.
func (f *FlowMachine) Resolution() string {
	if n, ok := f.CurrentNode(); ok && n.Type == model.NODE_TYPE_COMPLETION {
		return n.Metadata.Resolution
	}
	return ""
}

// NodeStates reports every node as pending, active or answered.
func (f *FlowMachine) NodeStates() []NodeProgress {
	res := make([]NodeProgress, 0, len(f.flow.Nodes))
	for _, n := range f.flow.Nodes {
		state := NODE_PENDING
		if _, ok := f.session.FlowState.Get(n.Id); ok {
			state = NODE_ANSWERED
		} else if n.Id == f.session.CurrentNodeId && !f.session.IsAbandoned() {
			state = NODE_ACTIVE
		}
		res = append(res, NodeProgress{NodeId: n.Id, State: state})
	}
	return res
}

type NodeProgress struct {
	NodeId string    `json:"nodeId"`
	State  NodeState `json:"state"`
}
