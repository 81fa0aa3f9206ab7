package analytics

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mohitkumar/resolveflow/config"
	"github.com/mohitkumar/resolveflow/model"
	"github.com/stretchr/testify/require"
)

func TestNewCollectorWithoutFileIsNoop(t *testing.T) {
	c, err := NewCollector(config.AnalyticsConfig{})
	require.NoError(t, err)
	require.IsType(t, NoopCollector{}, c)
	c.RecordAbandoned(&model.FlowSession{})
}

func TestLogFileDataCollector(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "analytics.log")
	c, err := NewCollector(config.AnalyticsConfig{FileName: fileName})
	require.NoError(t, err)

	started := time.Now().UTC()
	completed := started.Add(time.Minute)
	state := model.NewFlowState()
	state.Set("a", model.TextResponse("x"))
	session := &model.FlowSession{Id: "s1", FlowId: "f1", Category: "shipping", ThreadId: "t1", StartedAt: started, CompletedAt: &completed, FlowState: state}

	c.RecordCompleted(session, "resolved")
	c.RecordAbandoned(session)
	c.RecordContinuation(model.Continuation{FromSessionId: "s1", ToSessionId: "s2", ThreadId: "t1"})
	require.NoError(t, c.(*LogFileDataCollector).Close())

	data, err := os.ReadFile(fileName)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.Equal(t, "completed", first["msg"])
	require.Equal(t, "s1", first["sessionId"])
	require.Equal(t, "resolved", first["resolution"])
	require.Equal(t, float64(1), first["answered"])
}
