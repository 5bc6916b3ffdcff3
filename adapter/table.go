package adapter

import (
	"fmt"
	"strings"
)

// TableName is a DuckDB object name, up to three parts
// (catalog.schema.table). Catalog and Schema may be empty, in which case the
// connection's current catalog and schema apply.
type TableName struct {
	Catalog string
	Schema  string
	Name    string
}

// SchemaName identifies a schema, optionally qualified by catalog.
type SchemaName struct {
	Catalog string
	Schema  string
}

// ParseTableName splits a dotted object name into its parts. Double-quoted
// segments may contain dots and embedded "" escapes.
func ParseTableName(name string) (TableName, error) {
	parts, err := splitIdents(name)
	if err != nil {
		return TableName{}, err
	}
	switch len(parts) {
	case 1:
		return TableName{Name: parts[0]}, nil
	case 2:
		return TableName{Schema: parts[0], Name: parts[1]}, nil
	case 3:
		return TableName{Catalog: parts[0], Schema: parts[1], Name: parts[2]}, nil
	default:
		return TableName{}, fmt.Errorf("invalid table name %q: expected at most catalog.schema.table", name)
	}
}

func splitIdents(name string) ([]string, error) {
	var parts []string
	var cur strings.Builder
	inQuotes := false

	runes := []rune(name)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				cur.WriteRune('"')
				i++
				continue
			}
			inQuotes = !inQuotes
		case r == '.' && !inQuotes:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if inQuotes {
		return nil, fmt.Errorf("invalid object name %q: unterminated quote", name)
	}
	parts = append(parts, cur.String())

	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("invalid object name %q: empty identifier", name)
		}
	}
	return parts, nil
}

// String renders the fully quoted name.
func (t TableName) String() string {
	parts := make([]string, 0, 3)
	if t.Catalog != "" {
		parts = append(parts, quoteIdent(t.Catalog))
	}
	if t.Schema != "" {
		parts = append(parts, quoteIdent(t.Schema))
	}
	parts = append(parts, quoteIdent(t.Name))
	return strings.Join(parts, ".")
}

// SchemaName returns the schema part of the table name, if any.
func (t TableName) SchemaName() SchemaName {
	return SchemaName{Catalog: t.Catalog, Schema: t.Schema}
}

// String renders the fully quoted schema name.
func (s SchemaName) String() string {
	if s.Catalog != "" {
		return quoteIdent(s.Catalog) + "." + quoteIdent(s.Schema)
	}
	return quoteIdent(s.Schema)
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
