package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type sample struct {
	StoreName string            `json:"store_name"`
	Limits    []int             `json:"limits"`
	Keys      map[string]string `json:"keys"`
}

func TestLoadFileYaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.yaml")
	body := "store_name: Acme\nlimits: [1, 2]\nkeys:\n  \"shipping:lost\": tpl_lost\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	var s sample
	require.NoError(t, LoadFile(path, &s))
	require.Equal(t, "Acme", s.StoreName)
	require.Equal(t, []int{1, 2}, s.Limits)
	require.Equal(t, "tpl_lost", s.Keys["shipping:lost"])
}

func TestLoadFileJson(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"store_name": "Acme", "limits": [3]}`), 0644))

	var s sample
	require.NoError(t, LoadFile(path, &s))
	require.Equal(t, []int{3}, s.Limits)
}

func TestLoadFileKeepsKeyCase(t *testing.T) {
	for name, body := range map[string]string{
		"sample.yaml": "store_name: Acme\nkeys:\n  \"Shipping:Lost\": tpl_lost\n  shippingIssue: x\n  7: seven\n",
		"sample.json": `{"store_name": "Acme", "keys": {"Shipping:Lost": "tpl_lost", "shippingIssue": "x", "7": "seven"}}`,
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, os.WriteFile(path, []byte(body), 0644))

			var s sample
			require.NoError(t, LoadFile(path, &s))
			require.Equal(t, map[string]string{"Shipping:Lost": "tpl_lost", "shippingIssue": "x", "7": "seven"}, s.Keys)
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	var s sample
	require.Error(t, LoadFile(filepath.Join(t.TempDir(), "nope.yaml"), &s))
}

func TestDefault(t *testing.T) {
	c := Default()
	require.Equal(t, STORAGE_TYPE_INMEM, c.StorageType)
	require.Equal(t, SQL_DRIVER_SQLITE, c.SQLConfig.Driver)
	require.Equal(t, 8080, c.HttpPort)
}
