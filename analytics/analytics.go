package analytics

import (
	"github.com/mohitkumar/resolveflow/config"
	"github.com/mohitkumar/resolveflow/model"
)

// Collector receives session lifecycle events for later analysis.
type Collector interface {
	RecordCompleted(session *model.FlowSession, resolution string)
	RecordAbandoned(session *model.FlowSession)
	RecordContinuation(continuation model.Continuation)
}

// NewCollector returns the log file collector when a file is configured.
func NewCollector(conf config.AnalyticsConfig) (Collector, error) {
	if len(conf.FileName) == 0 {
		return NoopCollector{}, nil
	}
	return NewLogFileDataCollector(conf.FileName)
}

type NoopCollector struct{}

func (NoopCollector) RecordCompleted(session *model.FlowSession, resolution string) {}

func (NoopCollector) RecordAbandoned(session *model.FlowSession) {}

func (NoopCollector) RecordContinuation(continuation model.Continuation) {}
