package adapter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // driver import
)

// DuckDB quotes identifiers and escapes literals the way postgres does, so
// the postgres goqu dialect renders valid DuckDB SQL.
var dialect = goqu.Dialect("postgres")

// Column is one column definition for CREATE TABLE, with a DuckDB type name.
type Column struct {
	Name string
	Type string
}

func createSchemaSQL(s SchemaName, ifNotExists bool) string {
	var b strings.Builder
	b.WriteString("CREATE SCHEMA ")
	if ifNotExists {
		b.WriteString("IF NOT EXISTS ")
	}
	b.WriteString(s.String())
	return b.String()
}

func dropSchemaSQL(s SchemaName, ifExists, cascade bool) string {
	var b strings.Builder
	b.WriteString("DROP SCHEMA ")
	if ifExists {
		b.WriteString("IF EXISTS ")
	}
	b.WriteString(s.String())
	if cascade {
		b.WriteString(" CASCADE")
	}
	return b.String()
}

func createTableSQL(t TableName, columns []Column, ifNotExists bool) string {
	defs := make([]string, len(columns))
	for i, col := range columns {
		defs[i] = quoteIdent(col.Name) + " " + col.Type
	}

	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	if ifNotExists {
		b.WriteString("IF NOT EXISTS ")
	}
	b.WriteString(t.String())
	b.WriteString(" (")
	b.WriteString(strings.Join(defs, ", "))
	b.WriteString(")")
	return b.String()
}

func ctasSQL(t TableName, query string, columns []Column, ifNotExists bool) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	if ifNotExists {
		b.WriteString("IF NOT EXISTS ")
	}
	b.WriteString(t.String())
	b.WriteString(" AS ")
	if len(columns) > 0 {
		// Pin the column types with explicit casts.
		casts := make([]string, len(columns))
		for i, col := range columns {
			casts[i] = fmt.Sprintf("CAST(%s AS %s) AS %s", quoteIdent(col.Name), col.Type, quoteIdent(col.Name))
		}
		fmt.Fprintf(&b, "SELECT %s FROM (%s)", strings.Join(casts, ", "), query)
	} else {
		b.WriteString(query)
	}
	return b.String()
}

func attachSQL(name, path string) string {
	if path == "" {
		path = ":memory:"
	}
	return fmt.Sprintf("ATTACH %s AS %s", quoteLiteral(path), quoteIdent(name))
}

func detachSQL(name string) string {
	return "DETACH " + quoteIdent(name)
}

func useSQL(name string) string {
	return "USE " + quoteIdent(name)
}

const currentCatalogSQL = "SELECT current_catalog()"

func listCatalogsSQL() (string, error) {
	sql, _, err := dialect.
		From(goqu.L("duckdb_databases()")).
		Select(goqu.C("database_name")).
		Order(goqu.C("database_name").Asc()).
		ToSQL()
	return sql, err
}

func tableExistsSQL(t TableName) (string, error) {
	ex := goqu.Ex{"table_name": t.Name}
	if t.Schema != "" {
		ex["table_schema"] = t.Schema
	}
	if t.Catalog != "" {
		ex["table_catalog"] = t.Catalog
	}
	sql, _, err := dialect.
		From(goqu.L("information_schema.tables")).
		Select(goqu.L("1")).
		Where(ex).
		ToSQL()
	return sql, err
}

func schemaExistsSQL(s SchemaName) (string, error) {
	ex := goqu.Ex{"schema_name": s.Schema}
	if s.Catalog != "" {
		ex["catalog_name"] = s.Catalog
	}
	sql, _, err := dialect.
		From(goqu.L("information_schema.schemata")).
		Select(goqu.C("schema_name")).
		Where(ex).
		ToSQL()
	return sql, err
}

func deleteAllSQL(t TableName) string {
	return "DELETE FROM " + t.String()
}

// insertValuesSQL renders a multi-row INSERT. Values are literalized here
// because the rows originate from Arrow records, not driver parameters.
func insertValuesSQL(t TableName, columns []string, rows []Row) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c)
	}

	tuples := make([]string, len(rows))
	for i, row := range rows {
		vals := make([]string, len(row))
		for j, v := range row {
			vals[j] = literal(v)
		}
		tuples[i] = "(" + strings.Join(vals, ", ") + ")"
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		t.String(), strings.Join(quoted, ", "), strings.Join(tuples, ", "))
}

// literal renders a Go value as a DuckDB SQL literal.
func literal(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	case string:
		return quoteLiteral(val)
	case []byte:
		return quoteLiteral(string(val))
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case time.Time:
		return quoteLiteral(val.UTC().Format("2006-01-02 15:04:05.999999"))
	default:
		return quoteLiteral(fmt.Sprintf("%v", val))
	}
}
