// Package commands_test provides tests for CLI command creation.
package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romaninsh/vantage/internal/catalog"
	"github.com/romaninsh/vantage/internal/config"
	"github.com/romaninsh/vantage/pkg/dataset"
	"github.com/romaninsh/vantage/pkg/record"
	"github.com/romaninsh/vantage/pkg/source"
	"github.com/romaninsh/vantage/pkg/value"
)

func TestNewListCommand(t *testing.T) {
	cmd := NewListCommand()

	assert.Equal(t, "list [source]", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	flags := []string{"raw", "all"}
	for _, flag := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewInsertCommand(t *testing.T) {
	cmd := NewInsertCommand()

	assert.Equal(t, "insert <source>", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")

	flags := []string{"field", "key"}
	for _, flag := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewGetCommand(t *testing.T) {
	cmd := NewGetCommand()

	assert.Equal(t, "get <source> <id>", cmd.Use)
	assert.NotNil(t, cmd.Flags().Lookup("raw"), "flag raw should exist")
}

func TestParseLiteral(t *testing.T) {
	tests := []struct {
		in   string
		want value.Value
	}{
		{"true", value.Bool(true)},
		{"false", value.Bool(false)},
		{"null", value.Null()},
		{"42", value.Int(42)},
		{"-7", value.Int(-7)},
		{"3.5", value.Float(3.5)},
		{"hello", value.Str("hello")},
		{"42abc", value.Str("42abc")},
		{"", value.Str("")},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.True(t, tt.want.Equal(parseLiteral(tt.in)))
		})
	}
}

func typedHandle(t *testing.T) *catalog.Handle {
	t.Helper()
	cat, err := catalog.Open(&config.Config{Sources: map[string]config.SourceConfig{
		"users": {
			Type: config.TypeMemory,
			Entity: []config.FieldConfig{
				{Name: "name", Type: "string"},
				{Name: "age", Type: "int"},
			},
		},
	}}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cat.Close() })
	h, err := cat.Get("users")
	require.NoError(t, err)
	return h
}

func TestParseFieldsDeclaredTypes(t *testing.T) {
	h := typedHandle(t)

	rec, err := parseFields(h, []string{"name=7", "age=30"})
	require.NoError(t, err)

	// name is declared string, so a numeric literal stays text
	v, err := rec.Get("name")
	require.NoError(t, err)
	assert.True(t, value.Str("7").Equal(v))
	v, err = rec.Get("age")
	require.NoError(t, err)
	assert.True(t, value.Int(30).Equal(v))
}

func TestParseFieldsRejectsUndeclared(t *testing.T) {
	h := typedHandle(t)

	_, err := parseFields(h, []string{"shoe_size=44"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not declared")
}

func TestParseFieldsRejectsBadSyntax(t *testing.T) {
	h := typedHandle(t)

	_, err := parseFields(h, []string{"age"})
	require.Error(t, err)

	_, err = parseFields(h, []string{"age=oops"})
	require.Error(t, err)

	_, err = parseFields(h, nil)
	require.Error(t, err)
}

func sampleEntries() []dataset.Entry[record.Record] {
	return []dataset.Entry[record.Record]{
		{
			ID: source.StringID("u1"),
			Entity: record.Of(
				record.Pair{Name: "name", Value: value.Str("alice")},
				record.Pair{Name: "age", Value: value.Int(30)},
			),
		},
		{
			ID: source.StringID("u2"),
			Entity: record.Of(
				record.Pair{Name: "name", Value: value.Str("bo,b")},
				record.Pair{Name: "note", Value: value.Str("extra")},
			),
		},
	}
}

func TestRenderEntriesTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderEntries(&buf, sampleEntries(), "table"))

	out := buf.String()
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "(2 rows)")
	// union of columns in first-seen order
	assert.Contains(t, out, "note")
}

func TestRenderEntriesCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderEntries(&buf, sampleEntries(), "csv"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,name,age,note", lines[0])
	assert.Equal(t, "u1,alice,30,", lines[1])
	assert.Equal(t, `u2,"bo,b",,extra`, lines[2])
}

func TestRenderEntriesJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderEntries(&buf, sampleEntries(), "json"))

	out := buf.String()
	assert.Contains(t, out, `"id": "u1"`)
	assert.Contains(t, out, `"age": 30`)
}

func TestRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderEntries(&buf, nil, "table"))
	assert.Contains(t, buf.String(), "(0 rows)")
}
