package model

// Submission is one user action against the node the caller believes is current.
type Submission struct {
	NodeId      string       `json:"nodeId"`
	Value       string       `json:"value,omitempty"`
	Values      []string     `json:"values,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}
