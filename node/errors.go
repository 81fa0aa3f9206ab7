package node

import "fmt"

type ValidationError struct {
	NodeId string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid response for node %s: %s", e.NodeId, e.Reason)
}

type InsufficientAttachmentsError struct {
	NodeId string
	Min    int
	Max    int
	Got    int
}

func (e InsufficientAttachmentsError) Error() string {
	return fmt.Sprintf("node %s expects between %d and %d attachments, got %d", e.NodeId, e.Min, e.Max, e.Got)
}

type NotSkipableError struct {
	NodeId string
}

func (e NotSkipableError) Error() string {
	return fmt.Sprintf("node %s can not be skipped", e.NodeId)
}
