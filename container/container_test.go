package container

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mohitkumar/resolveflow/analytics"
	"github.com/mohitkumar/resolveflow/cache"
	"github.com/mohitkumar/resolveflow/config"
	"github.com/mohitkumar/resolveflow/persistence/memory"
	"github.com/mohitkumar/resolveflow/persistence/sqldb"
	"github.com/stretchr/testify/require"
)

func TestGettersPanicBeforeInit(t *testing.T) {
	d := NewDiContainer()
	require.Panics(t, func() { d.GetStorage() })
	require.Panics(t, func() { d.GetRules() })
}

func TestInitMemoryWithCache(t *testing.T) {
	conf := config.Default()
	d := NewDiContainer()
	require.NoError(t, d.Init(conf))
	defer d.Close()

	_, ok := d.GetStorage().(*memory.Storage)
	require.True(t, ok)
	_, ok = d.GetDefinitionStore().(*cache.DefinitionCache)
	require.True(t, ok)
	_, ok = d.GetCollector().(analytics.NoopCollector)
	require.True(t, ok)
	require.NotEmpty(t, d.GetRules().DecisionTrees)
}

func TestInitSqlite(t *testing.T) {
	conf := config.Default()
	conf.StorageType = config.STORAGE_TYPE_SQL
	conf.SQLConfig.DSN = "file:" + filepath.Join(t.TempDir(), "flows.db")
	conf.CacheTTL = 0
	conf.AnalyticsConfig.FileName = filepath.Join(t.TempDir(), "analytics.log")
	d := NewDiContainer()
	require.NoError(t, d.Init(conf))

	_, ok := d.GetStorage().(*sqldb.Store)
	require.True(t, ok)
	_, ok = d.GetDefinitionStore().(*sqldb.Store)
	require.True(t, ok)
	_, ok = d.GetCollector().(*analytics.LogFileDataCollector)
	require.True(t, ok)
	require.NoError(t, d.Close())
}

func TestInitLoadsFiles(t *testing.T) {
	dir := t.TempDir()
	rules := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(rules, []byte("template_rules:\n  \"billing:refund\": billing_refund\n"), 0644))
	fixtures := filepath.Join(dir, "commerce.yaml")
	require.NoError(t, os.WriteFile(fixtures, []byte("orders:\n  - order_id: o1\n    order_number: \"1001\"\n"), 0644))

	conf := config.Default()
	conf.RulesFile = rules
	conf.CommerceFile = fixtures
	conf.CacheTTL = time.Second
	d := NewDiContainer()
	require.NoError(t, d.Init(conf))
	require.Equal(t, "billing_refund", d.GetRules().TemplateRules["billing:refund"])
	require.NotNil(t, d.GetCommerceProvider())
}

func TestInitUnsupportedStorage(t *testing.T) {
	conf := config.Default()
	conf.StorageType = "cassandra"
	require.Error(t, NewDiContainer().Init(conf))
}
