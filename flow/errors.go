package flow

import (
	"fmt"

	"github.com/mohitkumar/resolveflow/node"
)

type ValidationError = node.ValidationError
type InsufficientAttachmentsError = node.InsufficientAttachmentsError
type NotSkipableError = node.NotSkipableError

// DuplicateActiveSessionError means the thread already has an active session
// for the category. Resume ActiveSessionId or abandon it first.
type DuplicateActiveSessionError struct {
	ThreadId        string
	Category        string
	ActiveSessionId string
}

func (e DuplicateActiveSessionError) Error() string {
	return fmt.Sprintf("thread %s already has active %s session %s", e.ThreadId, e.Category, e.ActiveSessionId)
}

type SessionAlreadyCompletedError struct {
	SessionId string
}

func (e SessionAlreadyCompletedError) Error() string {
	return fmt.Sprintf("session %s is already completed", e.SessionId)
}

type SessionNotActiveError struct {
	SessionId string
}

func (e SessionNotActiveError) Error() string {
	return fmt.Sprintf("session %s was abandoned", e.SessionId)
}

type SessionNotCompletedError struct {
	SessionId string
}

func (e SessionNotCompletedError) Error() string {
	return fmt.Sprintf("session %s is not completed", e.SessionId)
}

// NodeMismatchError is returned when a submission targets a node other than the current one.
type NodeMismatchError struct {
	SessionId     string
	SubmittedNode string
	CurrentNode   string
}

func (e NodeMismatchError) Error() string {
	return fmt.Sprintf("session %s is at node %s, submission was for %s", e.SessionId, e.CurrentNode, e.SubmittedNode)
}

type SessionNotFoundError struct {
	SessionId string
}

func (e SessionNotFoundError) Error() string {
	return fmt.Sprintf("session %s not found", e.SessionId)
}

type FlowNotFoundError struct {
	FlowId string
}

func (e FlowNotFoundError) Error() string {
	return fmt.Sprintf("flow %s not found", e.FlowId)
}
