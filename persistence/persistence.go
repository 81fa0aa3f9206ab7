package persistence

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/mohitkumar/resolveflow/model"
)

type StorageLayerError struct {
	Message string
}

func (e StorageLayerError) Error() string {
	return fmt.Sprintf("storage layer error %s", e.Message)
}

type NotFoundError struct {
	Kind string
	Id   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Id)
}

// ActiveSessionExistsError is returned when a thread already has an active
// session for the category being started.
type ActiveSessionExistsError struct {
	ThreadId        string
	Category        string
	ActiveSessionId string
}

func (e ActiveSessionExistsError) Error() string {
	return fmt.Sprintf("thread %s already has active session %s for category %s", e.ThreadId, e.ActiveSessionId, e.Category)
}

// StaleSessionError is returned when a compare-and-save finds the session moved on.
type StaleSessionError struct {
	SessionId      string
	ExpectedNodeId string
	ActualNodeId   string
}

func (e StaleSessionError) Error() string {
	return fmt.Sprintf("session %s is at node %s, expected %s", e.SessionId, e.ActualNodeId, e.ExpectedNodeId)
}

const KIND_SESSION = "session"
const KIND_FLOW = "flow"
const KIND_TEMPLATE = "template"
const KIND_THREAD = "thread"

type SessionStore interface {
	// CreateSession stores a new active session, failing with ActiveSessionExistsError
	// when the thread already has an active session for the same category.
	CreateSession(ctx context.Context, session *model.FlowSession) error
	GetSession(ctx context.Context, sessionId string) (*model.FlowSession, error)
	GetActiveSession(ctx context.Context, threadId string, category string) (*model.FlowSession, error)
	// SaveSession writes the session only if the stored current node equals expectedNodeId.
	SaveSession(ctx context.Context, session *model.FlowSession, expectedNodeId string) error
	ListThreadSessions(ctx context.Context, threadId string) ([]*model.FlowSession, error)
	AppendAttachment(ctx context.Context, sessionId string, nodeId string, attachment model.Attachment) error
	ListAttachments(ctx context.Context, sessionId string, nodeId string) ([]model.Attachment, error)
	ClearAttachments(ctx context.Context, sessionId string, nodeId string) error
	RecordContinuation(ctx context.Context, continuation model.Continuation) error
	ListContinuations(ctx context.Context, fromSessionId string) ([]model.Continuation, error)
}

type DefinitionStore interface {
	SaveFlowDefinition(ctx context.Context, flow model.FlowDefinition) error
	GetFlowDefinition(ctx context.Context, flowId string) (*model.FlowDefinition, error)
	DeleteFlowDefinition(ctx context.Context, flowId string) error
	SaveTemplate(ctx context.Context, tpl model.TemplateDefinition) error
	GetTemplate(ctx context.Context, templateId string) (*model.TemplateDefinition, error)
	ListTemplatesByCategory(ctx context.Context, category string) ([]model.TemplateDefinition, error)
}

type ThreadStore interface {
	GetThread(ctx context.Context, threadId string) (*model.Thread, error)
	SaveThread(ctx context.Context, thread model.Thread) error
	SaveProductSelection(ctx context.Context, threadId string, productId string) error
}

// Storage is what a single backend provides to the engine.
type Storage interface {
	SessionStore
	DefinitionStore
	ThreadStore
}

func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}

// SortTemplates orders templates by sort order, then id, so the lead template is first.
func SortTemplates(tpls []model.TemplateDefinition) {
	sort.SliceStable(tpls, func(i, j int) bool {
		if tpls[i].SortOrder != tpls[j].SortOrder {
			return tpls[i].SortOrder < tpls[j].SortOrder
		}
		return tpls[i].Id < tpls[j].Id
	})
}

// SortSessions orders sessions by start time, oldest first.
func SortSessions(sessions []*model.FlowSession) {
	sort.SliceStable(sessions, func(i, j int) bool {
		if !sessions[i].StartedAt.Equal(sessions[j].StartedAt) {
			return sessions[i].StartedAt.Before(sessions[j].StartedAt)
		}
		return sessions[i].Id < sessions[j].Id
	})
}
