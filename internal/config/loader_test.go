package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const sampleYAML = `
output: json
sources:
  users:
    type: csv
    path: data/users.csv
    key_column: id
    entity:
      - name: id
        type: string
      - name: amount
        type: int
        optional: true
  api:
    type: rest
    url: https://example.test/items
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, sampleYAML)
	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Output)
	require.Contains(t, cfg.Sources, "users")
	users := cfg.Sources["users"]
	assert.Equal(t, TypeCSV, users.Type)
	assert.Equal(t, "id", users.KeyColumn)
	require.Len(t, users.Entity, 2)
	assert.True(t, users.Entity[1].Optional)

	// Relative paths resolve against the config file's directory.
	assert.Equal(t, filepath.Join(filepath.Dir(path), "data/users.csv"), users.Path)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "table", cfg.Output)
	assert.False(t, cfg.Verbose)
	assert.Empty(t, cfg.Sources)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, sampleYAML)
	t.Setenv("VANTAGE_OUTPUT", "csv")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "csv", cfg.Output)
}

func TestFlagsOverrideEverything(t *testing.T) {
	path := writeConfig(t, sampleYAML)
	t.Setenv("VANTAGE_OUTPUT", "csv")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("output", "table", "")
	require.NoError(t, flags.Set("output", "table"))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, "table", cfg.Output)
}

func TestLoadMarshalledConfig(t *testing.T) {
	doc := map[string]any{
		"output": "csv",
		"sources": map[string]any{
			"inventory": map[string]any{
				"type":       "sqlite",
				"path":       "/tmp/inv.db",
				"table":      "items",
				"key_column": "sku",
				"columns":    []string{"name", "qty"},
			},
		},
	}
	raw, err := yaml.Marshal(doc)
	require.NoError(t, err)
	path := writeConfig(t, string(raw))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "csv", cfg.Output)
	inv := cfg.Sources["inventory"]
	assert.Equal(t, TypeSQLite, inv.Type)
	assert.Equal(t, "sku", inv.KeyColumn)
	assert.Equal(t, []string{"name", "qty"}, inv.Columns)
}

func TestValidateRejectsBadSource(t *testing.T) {
	path := writeConfig(t, `
sources:
  broken:
    type: warehouse
`)
	_, err := Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown source type "warehouse"`)
}

func TestValidateRejectsBadFieldType(t *testing.T) {
	path := writeConfig(t, `
sources:
  users:
    type: memory
    entity:
      - name: n
        type: decimal
`)
	_, err := Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown type "decimal"`)
}

func TestValidateRequiresSQLiteSettings(t *testing.T) {
	path := writeConfig(t, `
sources:
  db:
    type: sqlite
    path: state.db
`)
	_, err := Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key_column")
}
