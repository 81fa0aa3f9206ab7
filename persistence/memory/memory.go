// Package memory keeps sessions, definitions and threads in process maps.
package memory

import (
	"context"
	"sync"

	"github.com/mohitkumar/resolveflow/model"
	"github.com/mohitkumar/resolveflow/persistence"
)

var _ persistence.SessionStore = new(Storage)
var _ persistence.DefinitionStore = new(Storage)
var _ persistence.ThreadStore = new(Storage)

type Storage struct {
	mu            sync.Mutex
	sessions      map[string]*model.FlowSession
	active        map[pairKey]string
	attachments   map[pairKey][]model.Attachment
	continuations map[string][]model.Continuation
	flows         map[string]model.FlowDefinition
	templates     map[string]model.TemplateDefinition
	threads       map[string]model.Thread
}

func NewStorage() *Storage {
	return &Storage{
		sessions:      make(map[string]*model.FlowSession),
		active:        make(map[pairKey]string),
		attachments:   make(map[pairKey][]model.Attachment),
		continuations: make(map[string][]model.Continuation),
		flows:         make(map[string]model.FlowDefinition),
		templates:     make(map[string]model.TemplateDefinition),
		threads:       make(map[string]model.Thread),
	}
}

// pairKey keeps both parts apart so ids containing ':' can not collide.
type pairKey struct {
	first  string
	second string
}

func activeKey(threadId string, category string) pairKey {
	return pairKey{first: threadId, second: category}
}

func attachmentKey(sessionId string, nodeId string) pairKey {
	return pairKey{first: sessionId, second: nodeId}
}

func (s *Storage) CreateSession(ctx context.Context, session *model.FlowSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := activeKey(session.ThreadId, session.Category)
	if existing, ok := s.active[key]; ok {
		return persistence.ActiveSessionExistsError{ThreadId: session.ThreadId, Category: session.Category, ActiveSessionId: existing}
	}
	s.sessions[session.Id] = session.Clone()
	if session.IsActive {
		s.active[key] = session.Id
	}
	return nil
}

func (s *Storage) GetSession(ctx context.Context, sessionId string) (*model.FlowSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionId]
	if !ok {
		return nil, persistence.NotFoundError{Kind: persistence.KIND_SESSION, Id: sessionId}
	}
	return session.Clone(), nil
}

func (s *Storage) GetActiveSession(ctx context.Context, threadId string, category string) (*model.FlowSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.active[activeKey(threadId, category)]
	if !ok {
		return nil, persistence.NotFoundError{Kind: persistence.KIND_SESSION, Id: threadId + ":" + category}
	}
	return s.sessions[id].Clone(), nil
}

func (s *Storage) SaveSession(ctx context.Context, session *model.FlowSession, expectedNodeId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.sessions[session.Id]
	if !ok {
		return persistence.NotFoundError{Kind: persistence.KIND_SESSION, Id: session.Id}
	}
	if stored.CurrentNodeId != expectedNodeId {
		return persistence.StaleSessionError{SessionId: session.Id, ExpectedNodeId: expectedNodeId, ActualNodeId: stored.CurrentNodeId}
	}
	s.sessions[session.Id] = session.Clone()
	key := activeKey(session.ThreadId, session.Category)
	if !session.IsActive && s.active[key] == session.Id {
		delete(s.active, key)
	}
	return nil
}

func (s *Storage) ListThreadSessions(ctx context.Context, threadId string) ([]*model.FlowSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []*model.FlowSession
	for _, session := range s.sessions {
		if session.ThreadId == threadId {
			res = append(res, session.Clone())
		}
	}
	persistence.SortSessions(res)
	return res, nil
}

func (s *Storage) AppendAttachment(ctx context.Context, sessionId string, nodeId string, attachment model.Attachment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := attachmentKey(sessionId, nodeId)
	s.attachments[key] = append(s.attachments[key], attachment)
	return nil
}

func (s *Storage) ListAttachments(ctx context.Context, sessionId string, nodeId string) ([]model.Attachment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Attachment(nil), s.attachments[attachmentKey(sessionId, nodeId)]...), nil
}

func (s *Storage) ClearAttachments(ctx context.Context, sessionId string, nodeId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attachments, attachmentKey(sessionId, nodeId))
	return nil
}

func (s *Storage) RecordContinuation(ctx context.Context, continuation model.Continuation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.continuations[continuation.FromSessionId] = append(s.continuations[continuation.FromSessionId], continuation)
	return nil
}

func (s *Storage) ListContinuations(ctx context.Context, fromSessionId string) ([]model.Continuation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Continuation(nil), s.continuations[fromSessionId]...), nil
}

func (s *Storage) SaveFlowDefinition(ctx context.Context, flow model.FlowDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flows[flow.Id] = flow
	return nil
}

func (s *Storage) GetFlowDefinition(ctx context.Context, flowId string) (*model.FlowDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	flow, ok := s.flows[flowId]
	if !ok {
		return nil, persistence.NotFoundError{Kind: persistence.KIND_FLOW, Id: flowId}
	}
	return &flow, nil
}

func (s *Storage) DeleteFlowDefinition(ctx context.Context, flowId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.flows, flowId)
	return nil
}

func (s *Storage) SaveTemplate(ctx context.Context, tpl model.TemplateDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[tpl.Id] = tpl
	return nil
}

func (s *Storage) GetTemplate(ctx context.Context, templateId string) (*model.TemplateDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tpl, ok := s.templates[templateId]
	if !ok {
		return nil, persistence.NotFoundError{Kind: persistence.KIND_TEMPLATE, Id: templateId}
	}
	return &tpl, nil
}

func (s *Storage) ListTemplatesByCategory(ctx context.Context, category string) ([]model.TemplateDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []model.TemplateDefinition
	for _, tpl := range s.templates {
		if tpl.Category == category {
			res = append(res, tpl)
		}
	}
	persistence.SortTemplates(res)
	return res, nil
}

func (s *Storage) GetThread(ctx context.Context, threadId string) (*model.Thread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	thread, ok := s.threads[threadId]
	if !ok {
		return nil, persistence.NotFoundError{Kind: persistence.KIND_THREAD, Id: threadId}
	}
	return &thread, nil
}

func (s *Storage) SaveThread(ctx context.Context, thread model.Thread) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threads[thread.Id] = thread
	return nil
}

func (s *Storage) SaveProductSelection(ctx context.Context, threadId string, productId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	thread, ok := s.threads[threadId]
	if !ok {
		thread = model.Thread{Id: threadId}
	}
	thread.SelectedProductId = productId
	s.threads[threadId] = thread
	return nil
}
