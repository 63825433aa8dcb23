// Package config loads the vantage project configuration: a set of
// named data sources, each optionally paired with an entity declaration
// that types its records.
package config

import "fmt"

// Source types accepted in configuration.
const (
	TypeMemory = "memory"
	TypeCSV    = "csv"
	TypeSQLite = "sqlite"
	TypeREST   = "rest"
)

// Config is the root configuration.
type Config struct {
	// Output selects the CLI rendering mode: table, json or csv.
	Output string `koanf:"output"`

	// Verbose enables debug logging.
	Verbose bool `koanf:"verbose"`

	// Sources maps source names to their configuration.
	Sources map[string]SourceConfig `koanf:"sources"`
}

// SourceConfig describes one named data source.
type SourceConfig struct {
	// Type is one of memory, csv, sqlite or rest.
	Type string `koanf:"type"`

	// Path locates the backing file for csv and sqlite sources.
	Path string `koanf:"path"`

	// URL is the collection base URL for rest sources.
	URL string `koanf:"url"`

	// Table and Columns configure sqlite sources.
	Table   string   `koanf:"table"`
	Columns []string `koanf:"columns"`

	// KeyColumn identifies rows for csv and sqlite sources.
	KeyColumn string `koanf:"key_column"`

	// IDField names the identifier field of rest sources (default id).
	IDField string `koanf:"id_field"`

	// Entity optionally declares typed fields; without it the source
	// is accessed untyped.
	Entity []FieldConfig `koanf:"entity"`
}

// FieldConfig declares one typed entity field.
type FieldConfig struct {
	Name     string `koanf:"name"`
	Type     string `koanf:"type"` // string, int, float or bool
	Optional bool   `koanf:"optional"`

	// Default, when set, applies to records lacking the field. It is
	// written in the field's type syntax ("42", "true", "text").
	Default *string `koanf:"default"`
}

// Validate checks the configuration for the problems a typo produces.
func (c *Config) Validate() error {
	for name, src := range c.Sources {
		if err := src.validate(); err != nil {
			return fmt.Errorf("source %q: %w", name, err)
		}
	}
	switch c.Output {
	case "", "table", "json", "csv":
	default:
		return fmt.Errorf("unknown output mode %q", c.Output)
	}
	return nil
}

func (s *SourceConfig) validate() error {
	switch s.Type {
	case TypeMemory:
	case TypeCSV:
		if s.Path == "" {
			return fmt.Errorf("csv source needs a path")
		}
	case TypeSQLite:
		if s.Path == "" {
			return fmt.Errorf("sqlite source needs a path")
		}
		if s.Table == "" || s.KeyColumn == "" || len(s.Columns) == 0 {
			return fmt.Errorf("sqlite source needs table, key_column and columns")
		}
	case TypeREST:
		if s.URL == "" {
			return fmt.Errorf("rest source needs a url")
		}
	case "":
		return fmt.Errorf("source type not specified")
	default:
		return fmt.Errorf("unknown source type %q", s.Type)
	}
	for _, f := range s.Entity {
		if f.Name == "" {
			return fmt.Errorf("entity field with empty name")
		}
		switch f.Type {
		case "string", "int", "float", "bool":
		default:
			return fmt.Errorf("entity field %q: unknown type %q", f.Name, f.Type)
		}
	}
	return nil
}
