package model

import "time"

type SessionStatus string

const SESSION_NOT_STARTED SessionStatus = "not_started"
const SESSION_IN_PROGRESS SessionStatus = "in_progress"
const SESSION_COMPLETED SessionStatus = "completed"
const SESSION_ABANDONED SessionStatus = "abandoned"

type FlowSession struct {
	Id            string        `json:"id"`
	FlowId        string        `json:"flowId"`
	Category      string        `json:"category"`
	ThreadId      string        `json:"threadId"`
	StartedAt     time.Time     `json:"startedAt"`
	CompletedAt   *time.Time    `json:"completedAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
	CurrentNodeId string        `json:"currentNodeId"`
	Status        SessionStatus `json:"status"`
	FlowState     *FlowState    `json:"flowState"`
	IsActive      bool          `json:"isActive"`
}

func (s *FlowSession) IsCompleted() bool {
	return s.Status == SESSION_COMPLETED
}

func (s *FlowSession) IsAbandoned() bool {
	return s.Status == SESSION_ABANDONED
}

// Clone returns a deep copy so callers can mutate without touching stored state.
func (s *FlowSession) Clone() *FlowSession {
	c := *s
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		c.CompletedAt = &t
	}
	c.FlowState = s.FlowState.Clone()
	return &c
}

type Attachment struct {
	Id          string    `json:"id"`
	FileName    string    `json:"fileName"`
	URL         string    `json:"url"`
	ContentType string    `json:"contentType,omitempty"`
	Size        int64     `json:"size,omitempty"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

type Continuation struct {
	Id            string    `json:"id"`
	FromSessionId string    `json:"fromSessionId"`
	ToSessionId   string    `json:"toSessionId"`
	ThreadId      string    `json:"threadId"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Thread is the slice of an external conversation the engine cares about.
type Thread struct {
	Id                string `json:"id"`
	OrderId           string `json:"orderId,omitempty"`
	UserId            string `json:"userId,omitempty"`
	SelectedProductId string `json:"selectedProductId,omitempty"`
}
