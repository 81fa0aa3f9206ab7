package flow

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mohitkumar/resolveflow/container"
	"github.com/mohitkumar/resolveflow/content"
	"github.com/mohitkumar/resolveflow/logger"
	"github.com/mohitkumar/resolveflow/model"
	"github.com/mohitkumar/resolveflow/persistence"
	"github.com/mohitkumar/resolveflow/recommend"
	"github.com/mohitkumar/resolveflow/templating"
	"github.com/mohitkumar/resolveflow/variables"
	"go.uber.org/zap"
)

type NodeView struct {
	Node        model.FlowNode     `json:"node"`
	Resolution  content.Resolution `json:"resolution"`
	Attachments []model.Attachment `json:"attachments,omitempty"`
}

type Recommendation struct {
	Resolution          string                           `json:"resolution,omitempty"`
	RequiresAgentAction bool                             `json:"requiresAgentAction"`
	Template            recommend.TemplateRecommendation `json:"template"`
	Message             *templating.Message              `json:"message,omitempty"`
	Flows               []recommend.FlowCandidate        `json:"flows"`
}

// StepResult is what the UI renders after every operation.
type StepResult struct {
	Session        *model.FlowSession `json:"session"`
	Node           *NodeView          `json:"node,omitempty"`
	Progress       []NodeProgress     `json:"progress"`
	Completed      bool               `json:"completed"`
	Recommendation *Recommendation    `json:"recommendation,omitempty"`
}

type FlowService struct {
	container   *container.DIContiner
	resolver    *content.Resolver
	templates   *templating.Engine
	recommender *recommend.Engine
	now         func() time.Time
	newId       func() string
}

func NewFlowService(container *container.DIContiner) *FlowService {
	storage := container.GetStorage()
	provider := container.GetCommerceProvider()
	builder := variables.NewBuilder(storage, provider)
	return &FlowService{
		container:   container,
		resolver:    content.NewResolver(storage, provider),
		templates:   templating.NewEngine(builder, nil),
		recommender: recommend.NewEngine(container.GetRules(), container.GetDefinitionStore()),
		now:         time.Now,
		newId:       uuid.NewString,
	}
}

func (s *FlowService) Start(ctx context.Context, flowId string, threadId string) (*StepResult, error) {
	if len(threadId) == 0 {
		return nil, ValidationError{Reason: "thread id can not be empty"}
	}
	flow, err := s.loadFlow(ctx, flowId)
	if err != nil {
		return nil, err
	}
	if err := flow.Validate(); err != nil {
		return nil, ValidationError{Reason: err.Error()}
	}
	session := NewSession(flow, s.newId(), threadId, s.now().UTC())
	if err := s.container.GetStorage().CreateSession(ctx, session); err != nil {
		var exists persistence.ActiveSessionExistsError
		if errors.As(err, &exists) {
			return nil, DuplicateActiveSessionError{ThreadId: threadId, Category: flow.Category, ActiveSessionId: exists.ActiveSessionId}
		}
		logger.Error("error in creating session", zap.String("flow", flowId), zap.String("threadId", threadId), zap.Error(err))
		return nil, err
	}
	logger.Info("flow session started", zap.String("flow", flowId), zap.String("threadId", threadId), zap.String("sessionId", session.Id))
	return s.stepResult(ctx, NewFlowMachine(flow, session, s.now)), nil
}

// Advance records sub for the current node. An attachment node submitted
// without attachments takes the ones uploaded through AddAttachment.
func (s *FlowService) Advance(ctx context.Context, sessionId string, sub model.Submission) (*StepResult, error) {
	fm, err := s.machine(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	if err := fm.ValidateExecutionRequest(sub.NodeId); err != nil {
		return nil, err
	}
	current, _ := fm.CurrentNode()
	if current.Type == model.NODE_TYPE_ATTACHMENT && len(sub.Attachments) == 0 {
		uploaded, err := s.container.GetStorage().ListAttachments(ctx, sessionId, current.Id)
		if err != nil {
			return nil, err
		}
		sub.Attachments = uploaded
	}
	if _, err := fm.Advance(sub); err != nil {
		logger.Debug("submission rejected", zap.String("sessionId", sessionId), zap.String("node", sub.NodeId), zap.Error(err))
		return nil, err
	}
	if err := s.save(ctx, fm, sub.NodeId); err != nil {
		return nil, err
	}
	s.afterStep(ctx, fm, current)
	return s.stepResult(ctx, fm), nil
}

func (s *FlowService) Skip(ctx context.Context, sessionId string, nodeId string) (*StepResult, error) {
	fm, err := s.machine(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	current, _ := fm.CurrentNode()
	if err := fm.Skip(nodeId); err != nil {
		return nil, err
	}
	if err := s.save(ctx, fm, nodeId); err != nil {
		return nil, err
	}
	s.afterStep(ctx, fm, current)
	return s.stepResult(ctx, fm), nil
}

func (s *FlowService) Abandon(ctx context.Context, sessionId string) (*StepResult, error) {
	fm, err := s.machine(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	changed, err := fm.Abandon()
	if err != nil {
		return nil, err
	}
	if changed {
		session := fm.Session()
		if err := s.save(ctx, fm, session.CurrentNodeId); err != nil {
			return nil, err
		}
		if n, ok := fm.CurrentNode(); ok && n.Type == model.NODE_TYPE_ATTACHMENT {
			s.clearAttachments(ctx, session.Id, n.Id)
		}
		s.container.GetCollector().RecordAbandoned(session)
		logger.Info("flow session abandoned", zap.String("sessionId", session.Id), zap.String("node", session.CurrentNodeId))
	}
	return s.stepResult(ctx, fm), nil
}

// AddAttachment appends an uploaded file to the active attachment node. Counts
// are only checked when the node is advanced.
func (s *FlowService) AddAttachment(ctx context.Context, sessionId string, nodeId string, attachment model.Attachment) ([]model.Attachment, error) {
	fm, err := s.machine(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	if err := fm.ValidateExecutionRequest(nodeId); err != nil {
		return nil, err
	}
	if current, _ := fm.CurrentNode(); current.Type != model.NODE_TYPE_ATTACHMENT {
		return nil, ValidationError{NodeId: nodeId, Reason: "node does not accept attachments"}
	}
	if len(attachment.Id) == 0 {
		attachment.Id = s.newId()
	}
	if attachment.UploadedAt.IsZero() {
		attachment.UploadedAt = s.now().UTC()
	}
	storage := s.container.GetStorage()
	if err := storage.AppendAttachment(ctx, sessionId, nodeId, attachment); err != nil {
		return nil, err
	}
	return storage.ListAttachments(ctx, sessionId, nodeId)
}

func (s *FlowService) View(ctx context.Context, sessionId string) (*StepResult, error) {
	fm, err := s.machine(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	return s.stepResult(ctx, fm), nil
}

// SelectProduct stores the operator's choice for a disambiguation prompt on the
// thread and resolves the current node again.
func (s *FlowService) SelectProduct(ctx context.Context, sessionId string, productId string) (*StepResult, error) {
	fm, err := s.machine(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	session := fm.Session()
	if err := fm.ValidateExecutionRequest(session.CurrentNodeId); err != nil {
		return nil, err
	}
	current, _ := fm.CurrentNode()
	if !current.Metadata.DynamicContent {
		return nil, ValidationError{NodeId: current.Id, Reason: "node has no dynamic content"}
	}
	if _, err := s.resolver.ResolveSelection(ctx, current, session.ThreadId, productId); err != nil {
		var invalid content.InvalidSelectionError
		if errors.As(err, &invalid) {
			return nil, ValidationError{NodeId: current.Id, Reason: invalid.Error()}
		}
		return nil, err
	}
	logger.Info("product selected", zap.String("sessionId", sessionId), zap.String("threadId", session.ThreadId), zap.String("productId", productId))
	return s.stepResult(ctx, fm), nil
}

func (s *FlowService) Recommend(ctx context.Context, sessionId string) (*Recommendation, error) {
	fm, err := s.machine(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	if !fm.Session().IsCompleted() {
		return nil, SessionNotCompletedError{SessionId: sessionId}
	}
	return s.recommendation(ctx, fm), nil
}

// StartContinuation starts flowId on the thread of fromSessionId and records
// the edge between the two sessions.
func (s *FlowService) StartContinuation(ctx context.Context, fromSessionId string, flowId string) (*StepResult, error) {
	from, err := s.loadSession(ctx, fromSessionId)
	if err != nil {
		return nil, err
	}
	res, err := s.Start(ctx, flowId, from.ThreadId)
	if err != nil {
		return nil, err
	}
	continuation := model.Continuation{
		Id:            s.newId(),
		FromSessionId: from.Id,
		ToSessionId:   res.Session.Id,
		ThreadId:      from.ThreadId,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.container.GetStorage().RecordContinuation(ctx, continuation); err != nil {
		logger.Error("error in recording continuation", zap.String("from", from.Id), zap.String("to", res.Session.Id), zap.Error(err))
		return res, nil
	}
	s.container.GetCollector().RecordContinuation(continuation)
	return res, nil
}

func (s *FlowService) ThreadHistory(ctx context.Context, threadId string) ([]*model.FlowSession, error) {
	return s.container.GetStorage().ListThreadSessions(ctx, threadId)
}

func (s *FlowService) Continuations(ctx context.Context, sessionId string) ([]model.Continuation, error) {
	return s.container.GetStorage().ListContinuations(ctx, sessionId)
}

func (s *FlowService) loadSession(ctx context.Context, sessionId string) (*model.FlowSession, error) {
	session, err := s.container.GetStorage().GetSession(ctx, sessionId)
	if err != nil {
		if persistence.IsNotFound(err) {
			return nil, SessionNotFoundError{SessionId: sessionId}
		}
		return nil, err
	}
	return session, nil
}

func (s *FlowService) loadFlow(ctx context.Context, flowId string) (*model.FlowDefinition, error) {
	flow, err := s.container.GetDefinitionStore().GetFlowDefinition(ctx, flowId)
	if err != nil {
		if persistence.IsNotFound(err) {
			return nil, FlowNotFoundError{FlowId: flowId}
		}
		return nil, err
	}
	return flow, nil
}

func (s *FlowService) machine(ctx context.Context, sessionId string) (*FlowMachine, error) {
	session, err := s.loadSession(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	flow, err := s.loadFlow(ctx, session.FlowId)
	if err != nil {
		return nil, err
	}
	return NewFlowMachine(flow, session, s.now), nil
}

func (s *FlowService) save(ctx context.Context, fm *FlowMachine, expectedNodeId string) error {
	session := fm.Session()
	err := s.container.GetStorage().SaveSession(ctx, session, expectedNodeId)
	if err == nil {
		return nil
	}
	var stale persistence.StaleSessionError
	switch {
	case errors.As(err, &stale):
		return NodeMismatchError{SessionId: session.Id, SubmittedNode: expectedNodeId, CurrentNode: stale.ActualNodeId}
	case persistence.IsNotFound(err):
		return SessionNotFoundError{SessionId: session.Id}
	}
	logger.Error("error in saving session", zap.String("sessionId", session.Id), zap.Error(err))
	return err
}

func (s *FlowService) afterStep(ctx context.Context, fm *FlowMachine, answered *model.FlowNode) {
	session := fm.Session()
	if answered.Type == model.NODE_TYPE_ATTACHMENT {
		s.clearAttachments(ctx, session.Id, answered.Id)
	}
	if session.IsCompleted() {
		s.container.GetCollector().RecordCompleted(session, fm.Resolution())
		logger.Info("flow session completed", zap.String("sessionId", session.Id), zap.String("flow", session.FlowId), zap.String("resolution", fm.Resolution()))
	}
}

func (s *FlowService) clearAttachments(ctx context.Context, sessionId string, nodeId string) {
	if err := s.container.GetStorage().ClearAttachments(ctx, sessionId, nodeId); err != nil {
		logger.Warn("error in clearing attachments", zap.String("sessionId", sessionId), zap.String("node", nodeId), zap.Error(err))
	}
}

func (s *FlowService) stepResult(ctx context.Context, fm *FlowMachine) *StepResult {
	session := fm.Session()
	res := &StepResult{
		Session:   session,
		Progress:  fm.NodeStates(),
		Completed: session.IsCompleted(),
	}
	if n, ok := fm.CurrentNode(); ok && !session.IsAbandoned() {
		res.Node = s.nodeView(ctx, session, n)
	}
	if res.Completed {
		res.Recommendation = s.recommendation(ctx, fm)
	}
	return res
}

func (s *FlowService) nodeView(ctx context.Context, session *model.FlowSession, n *model.FlowNode) *NodeView {
	view := &NodeView{Node: *n, Resolution: s.resolver.Resolve(ctx, n, session.ThreadId)}
	if n.Type == model.NODE_TYPE_ATTACHMENT && session.IsActive {
		uploaded, err := s.container.GetStorage().ListAttachments(ctx, session.Id, n.Id)
		if err != nil {
			logger.Warn("error in listing attachments", zap.String("sessionId", session.Id), zap.Error(err))
		}
		view.Attachments = uploaded
	}
	return view
}

func (s *FlowService) recommendation(ctx context.Context, fm *FlowMachine) *Recommendation {
	session := fm.Session()
	rec := &Recommendation{Resolution: fm.Resolution()}
	if n, ok := fm.CurrentNode(); ok {
		rec.RequiresAgentAction = n.Metadata.RequiresAgentAction
	}
	rec.Template = s.recommender.RecommendTemplate(ctx, session.Category, session.FlowState)
	if rec.Template.Template != nil {
		msg := s.templates.RenderForContext(ctx, *rec.Template.Template, model.VariableResolutionContext{ThreadId: session.ThreadId})
		rec.Message = &msg
	}
	history, err := s.container.GetStorage().ListThreadSessions(ctx, session.ThreadId)
	if err != nil {
		logger.Warn("error in loading thread history", zap.String("threadId", session.ThreadId), zap.Error(err))
	}
	rec.Flows = s.recommender.RecommendFlows(session, history)
	return rec
}
