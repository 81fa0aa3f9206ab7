package agent

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mohitkumar/resolveflow/config"
	"github.com/stretchr/testify/require"
)

func TestAgentLoadsCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	body := "flows:\n  - id: quick\n    category: misc\n    nodes:\n      - id: ask\n        type: text_input\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	conf := config.Default()
	conf.CatalogFile = path
	a, err := New(conf)
	require.NoError(t, err)

	flow, err := a.metadataService.GetFlow(context.Background(), "quick")
	require.NoError(t, err)
	require.Equal(t, "misc", flow.Category)

	res, err := a.flowService.Start(context.Background(), "quick", "t1")
	require.NoError(t, err)
	require.Equal(t, "ask", res.Session.CurrentNodeId)

	require.NoError(t, a.Shutdown())
	require.NoError(t, a.Shutdown())
	select {
	case <-a.Done():
	default:
		t.Fatal("expected done to be closed")
	}
}

func TestAgentFailsOnBadCatalog(t *testing.T) {
	conf := config.Default()
	conf.CatalogFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := New(conf)
	require.Error(t, err)
}
