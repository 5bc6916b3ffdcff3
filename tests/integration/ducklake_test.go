package integration

import (
	"context"
	"fmt"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gizmodata/gizmosql-go/adapter"
	"github.com/gizmodata/gizmosql-go/arrowutil"
	"github.com/gizmodata/gizmosql-go/ducklake"
)

func ducklakeConfig() ducklake.Config {
	return ducklake.Config{
		CatalogName: "my_ducklake",
		DataPath:    "/tmp/ducklake/",
		Metadata: ducklake.PostgresMetadata{
			Host:     envOr("POSTGRES_HOST", "postgres"),
			Port:     5432,
			Database: envOr("POSTGRES_DB", "ducklake_catalog"),
			User:     envOr("POSTGRES_USER", "postgres"),
			Password: envOr("POSTGRES_PASSWORD", "mysecretpassword"),
		},
	}
}

// setupDuckLake attaches the DuckLake catalog with PostgreSQL metadata and
// detaches it on cleanup.
func setupDuckLake(t *testing.T, a *adapter.Adapter) ducklake.Config {
	t.Helper()
	ctx := context.Background()
	cfg := ducklakeConfig()

	require.NoError(t, ducklake.Setup(ctx, a, cfg))
	t.Cleanup(func() { _ = ducklake.Teardown(ctx, a, cfg) })
	return cfg
}

// dropDuckLakeSchema removes a schema and its tables after a test.
func dropDuckLakeSchema(t *testing.T, a *adapter.Adapter, catalog, schema string) {
	t.Cleanup(func() {
		_ = a.DropSchema(context.Background(), adapter.SchemaName{Catalog: catalog, Schema: schema}, true)
	})
}

func TestDuckLakeAttach(t *testing.T) {
	a := setupAdapter(t)
	cfg := setupDuckLake(t, a)

	names, err := a.ListCatalogs(context.Background())
	require.NoError(t, err)
	assert.Contains(t, names, cfg.CatalogName)
}

func TestDuckLakeCreateSchema(t *testing.T) {
	a := setupAdapter(t)
	cfg := setupDuckLake(t, a)
	ctx := context.Background()

	schema := adapter.SchemaName{Catalog: cfg.CatalogName, Schema: "dl_test_schema"}
	dropDuckLakeSchema(t, a, cfg.CatalogName, "dl_test_schema")
	require.NoError(t, a.CreateSchema(ctx, schema))

	exists, err := a.SchemaExists(ctx, schema)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDuckLakeCreateTable(t *testing.T) {
	a := setupAdapter(t)
	cfg := setupDuckLake(t, a)
	ctx := context.Background()

	dropDuckLakeSchema(t, a, cfg.CatalogName, "dl_table_schema")
	table := fmt.Sprintf("%s.dl_table_schema.dl_test_table", cfg.CatalogName)
	cols := []adapter.Column{
		{Name: "id", Type: "INT"},
		{Name: "name", Type: "VARCHAR"},
		{Name: "created_at", Type: "TIMESTAMP"},
	}
	require.NoError(t, a.CreateTable(ctx, table, cols))

	require.NoError(t, a.Execute(ctx, fmt.Sprintf(
		"INSERT INTO %s (id, name, created_at) VALUES (1, 'ducklake_test', '2024-01-01 12:00:00')", table)))

	row, err := a.Fetchone(ctx, fmt.Sprintf("SELECT id, name FROM %s", table))
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.EqualValues(t, 1, row[0])
	assert.Equal(t, "ducklake_test", row[1])
}

func TestDuckLakeCTAS(t *testing.T) {
	a := setupAdapter(t)
	cfg := setupDuckLake(t, a)
	ctx := context.Background()

	dropDuckLakeSchema(t, a, cfg.CatalogName, "dl_ctas_schema")
	table := fmt.Sprintf("%s.dl_ctas_schema.dl_ctas_table", cfg.CatalogName)
	require.NoError(t, a.CTAS(ctx, table, "SELECT 42 AS id, 'ducklake_ctas' AS value", nil))

	row, err := a.Fetchone(ctx, "SELECT * FROM "+table)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.EqualValues(t, 42, row[0])
	assert.Equal(t, "ducklake_ctas", row[1])
}

func TestDuckLakeTableExists(t *testing.T) {
	a := setupAdapter(t)
	cfg := setupDuckLake(t, a)
	ctx := context.Background()

	dropDuckLakeSchema(t, a, cfg.CatalogName, "dl_exists_schema")
	require.NoError(t, a.CreateSchema(ctx, adapter.SchemaName{Catalog: cfg.CatalogName, Schema: "dl_exists_schema"}))

	table := fmt.Sprintf("%s.dl_exists_schema.dl_exists_table", cfg.CatalogName)
	exists, err := a.TableExists(ctx, table)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, a.CreateTable(ctx, table, []adapter.Column{{Name: "id", Type: "INT"}}))

	exists, err = a.TableExists(ctx, table)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDuckLakeCatalogSwitching(t *testing.T) {
	a := setupAdapter(t)
	cfg := setupDuckLake(t, a)
	ctx := context.Background()

	original, err := a.CurrentCatalog(ctx)
	require.NoError(t, err)

	require.NoError(t, a.SetCurrentCatalog(ctx, cfg.CatalogName))
	current, err := a.CurrentCatalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, cfg.CatalogName, current)

	require.NoError(t, a.SetCurrentCatalog(ctx, original))
}

func TestDuckLakeBulkIngestion(t *testing.T) {
	a := setupAdapter(t)
	cfg := setupDuckLake(t, a)
	ctx := context.Background()

	dropDuckLakeSchema(t, a, cfg.CatalogName, "dl_bulk_schema")
	table := fmt.Sprintf("%s.dl_bulk_schema.dl_bulk_table", cfg.CatalogName)

	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int32, Nullable: true},
		{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "score", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	}, nil)
	bldr := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer bldr.Release()
	bldr.Field(0).(*array.Int32Builder).AppendValues([]int32{1, 2, 3, 4, 5}, nil)
	bldr.Field(1).(*array.StringBuilder).AppendValues([]string{"alice", "bob", "charlie", "diana", "eve"}, nil)
	bldr.Field(2).(*array.Float64Builder).AppendValues([]float64{85.5, 92.0, 78.5, 95.0, 88.5}, nil)
	rr := arrowutil.NewSingleRecordReader(bldr.NewRecord())
	defer rr.Release()

	cols := []adapter.Column{
		{Name: "id", Type: "INT"},
		{Name: "name", Type: "VARCHAR"},
		{Name: "score", Type: "DOUBLE"},
	}
	require.NoError(t, a.ReplaceQuery(ctx, table, rr, cols))

	rows, err := a.Fetchall(ctx, fmt.Sprintf("SELECT * FROM %s ORDER BY id", table))
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.EqualValues(t, 1, rows[0][0])
	assert.Equal(t, "alice", rows[0][1])
}

func TestDuckLakeAutoCreateSchema(t *testing.T) {
	a := setupAdapter(t)
	cfg := setupDuckLake(t, a)
	ctx := context.Background()

	schema := adapter.SchemaName{Catalog: cfg.CatalogName, Schema: "sqlmesh__duck"}
	require.NoError(t, a.DropSchema(ctx, schema, true))
	dropDuckLakeSchema(t, a, cfg.CatalogName, "sqlmesh__duck")

	exists, err := a.SchemaExists(ctx, schema)
	require.NoError(t, err)
	require.False(t, exists, "Schema should not exist before test")

	table := fmt.Sprintf("%s.sqlmesh__duck.dl_auto_table", cfg.CatalogName)
	cols := []adapter.Column{
		{Name: "id", Type: "INT"},
		{Name: "name", Type: "VARCHAR"},
	}
	require.NoError(t, a.CreateTable(ctx, table, cols))

	exists, err = a.SchemaExists(ctx, schema)
	require.NoError(t, err)
	assert.True(t, exists, "Schema should have been auto-created in DuckLake catalog")

	require.NoError(t, a.Execute(ctx, fmt.Sprintf("INSERT INTO %s (id, name) VALUES (1, 'ducklake_auto')", table)))
	row, err := a.Fetchone(ctx, "SELECT * FROM "+table)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.EqualValues(t, 1, row[0])
	assert.Equal(t, "ducklake_auto", row[1])
}

func TestDuckLakeCTASAutoCreateSchema(t *testing.T) {
	a := setupAdapter(t)
	cfg := setupDuckLake(t, a)
	ctx := context.Background()

	schema := adapter.SchemaName{Catalog: cfg.CatalogName, Schema: "sqlmesh__duck_ctas"}
	require.NoError(t, a.DropSchema(ctx, schema, true))
	dropDuckLakeSchema(t, a, cfg.CatalogName, "sqlmesh__duck_ctas")

	exists, err := a.SchemaExists(ctx, schema)
	require.NoError(t, err)
	require.False(t, exists, "Schema should not exist before test")

	table := fmt.Sprintf("%s.sqlmesh__duck_ctas.dl_ctas_auto_table", cfg.CatalogName)
	require.NoError(t, a.CTAS(ctx, table, "SELECT 99 AS id, 'ducklake_ctas_auto' AS value", nil))

	exists, err = a.SchemaExists(ctx, schema)
	require.NoError(t, err)
	assert.True(t, exists, "Schema should have been auto-created in DuckLake")

	row, err := a.Fetchone(ctx, "SELECT * FROM "+table)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.EqualValues(t, 99, row[0])
	assert.Equal(t, "ducklake_ctas_auto", row[1])
}

// TestDuckLakeMetadataStore checks the PostgreSQL metadata database
// directly. It runs only when POSTGRES_HOST points somewhere reachable
// from the test process.
func TestDuckLakeMetadataStore(t *testing.T) {
	a := setupAdapter(t)
	cfg := setupDuckLake(t, a)

	ctx := context.Background()
	if err := cfg.Metadata.Ping(ctx); err != nil {
		t.Skipf("metadata store not reachable from test process: %v", err)
	}

	conn, err := pgx.Connect(ctx, cfg.Metadata.URI())
	require.NoError(t, err)
	defer func() { _ = conn.Close(ctx) }()

	// DuckLake keeps its catalog state in ducklake_* tables.
	var count int
	err = conn.QueryRow(ctx,
		`SELECT count(*) FROM information_schema.tables WHERE table_name LIKE 'ducklake%'`).Scan(&count)
	require.NoError(t, err)
	assert.Greater(t, count, 0, "DuckLake should have created metadata tables in PostgreSQL")
}
