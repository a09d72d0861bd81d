// Package config loads the schema a host registers with the engine from
// a YAML file, so a caller can describe its tables declaratively instead
// of building sqlschema.Table values by hand.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sqlfront/sqlfront/internal/sqlschema"
)

// Config is the top-level shape of a sqlfront.yaml file.
type Config struct {
	// Tables lists the schema the engine should register before
	// analyzing any SQL against it.
	Tables []TableSpec `yaml:"tables"`
}

// TableSpec is one table entry of the config file.
type TableSpec struct {
	Name    string       `yaml:"name"`
	Columns []ColumnSpec `yaml:"columns"`
}

// ColumnSpec is one column entry of a TableSpec.
type ColumnSpec struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Nullable   bool   `yaml:"nullable,omitempty"`
	PrimaryKey bool   `yaml:"primary_key,omitempty"`
	Unique     bool   `yaml:"unique,omitempty"`
	AutoInc    bool   `yaml:"auto_increment,omitempty"`
}

// LoadConfig reads and parses a sqlfront.yaml file at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return ParseConfig(data, path)
}

// ParseConfig parses sqlfront.yaml content from bytes. path is used only
// for error messages.
func ParseConfig(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FindConfig searches for sqlfront.yaml (or .yml) starting from dir and
// walking up to parent directories, the way a project's nearest config
// file is conventionally located. Returns "" with a nil error if none is
// found before the filesystem root.
func FindConfig(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("config: resolving directory: %w", err)
	}
	for {
		for _, name := range []string{"sqlfront.yaml", "sqlfront.yml"} {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func (c *Config) validate(path string) error {
	seen := make(map[string]bool)
	for i, tbl := range c.Tables {
		if tbl.Name == "" {
			return fmt.Errorf("config: %s: tables[%d]: name is required", path, i)
		}
		if seen[strings.ToLower(tbl.Name)] {
			return fmt.Errorf("config: %s: tables[%d]: duplicate table name %q", path, i, tbl.Name)
		}
		seen[strings.ToLower(tbl.Name)] = true
		if len(tbl.Columns) == 0 {
			return fmt.Errorf("config: %s: table %q: no columns defined", path, tbl.Name)
		}
		for j, col := range tbl.Columns {
			if col.Name == "" {
				return fmt.Errorf("config: %s: table %q: columns[%d]: name is required", path, tbl.Name, j)
			}
			if _, ok := baseTypeFromSpec(col.Type); !ok {
				return fmt.Errorf("config: %s: table %q: column %q: unrecognized type %q", path, tbl.Name, col.Name, col.Type)
			}
		}
	}
	return nil
}

// SchemaTables converts the config's declarative TableSpecs into the
// sqlschema.Table values Engine.RegisterTable expects.
func (c *Config) SchemaTables() []sqlschema.Table {
	out := make([]sqlschema.Table, len(c.Tables))
	for i, spec := range c.Tables {
		out[i] = spec.toSchema()
	}
	return out
}

func (t TableSpec) toSchema() sqlschema.Table {
	cols := make([]sqlschema.Column, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = c.toSchema()
	}
	return sqlschema.Table{Name: t.Name, Columns: cols}
}

func (c ColumnSpec) toSchema() sqlschema.Column {
	base, _ := baseTypeFromSpec(c.Type)
	col := sqlschema.Column{Name: c.Name, Type: base, Nullable: c.Nullable}
	if c.PrimaryKey {
		col.Features = append(col.Features, sqlschema.Feature{Kind: sqlschema.PrimaryKey})
	}
	if c.Unique {
		col.Features = append(col.Features, sqlschema.Feature{Kind: sqlschema.UniqueKey})
	}
	if c.AutoInc {
		col.Features = append(col.Features, sqlschema.Feature{Kind: sqlschema.AutoIncrement})
	}
	if !c.Nullable {
		col.Features = append(col.Features, sqlschema.Feature{Kind: sqlschema.NotNull})
	}
	return col
}

func baseTypeFromSpec(name string) (sqlschema.BaseType, bool) {
	switch strings.ToLower(name) {
	case "integer", "int":
		return sqlschema.Integer, true
	case "text", "varchar", "char":
		return sqlschema.Text, true
	case "real", "double", "float", "numeric":
		return sqlschema.Real, true
	case "blob":
		return sqlschema.Blob, true
	case "boolean", "bool":
		return sqlschema.Boolean, true
	case "datetime", "timestamp":
		return sqlschema.DateTime, true
	default:
		return 0, false
	}
}
