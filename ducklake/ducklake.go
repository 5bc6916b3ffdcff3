// Package ducklake configures the DuckLake catalog extension on a GizmoSQL
// server, with catalog metadata stored in PostgreSQL.
package ducklake

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/gizmodata/gizmosql-go/logger"
)

// PostgresMetadata locates the PostgreSQL database holding DuckLake catalog
// metadata.
type PostgresMetadata struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	Database string `yaml:"database" mapstructure:"database"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
}

// URI builds a PostgreSQL connection URI for direct metadata-store access.
func (m PostgresMetadata) URI() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s", m.User, m.Password, m.Host, m.Port, m.Database)
}

// Ping verifies the metadata store is reachable before DuckLake setup. The
// server-side secret would otherwise fail only at first catalog access.
func (m PostgresMetadata) Ping(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, m.URI())
	if err != nil {
		return fmt.Errorf("failed to reach DuckLake metadata store: %w", err)
	}
	defer func() { _ = conn.Close(ctx) }()

	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("DuckLake metadata store ping failed: %w", err)
	}
	return nil
}

// Config describes one DuckLake catalog attachment.
type Config struct {
	// CatalogName is the name the DuckLake catalog is attached under.
	CatalogName string `yaml:"catalog_name" mapstructure:"catalog_name"`

	// DataPath is where DuckLake stores table data files on the server.
	DataPath string `yaml:"data_path" mapstructure:"data_path"`

	// PostgresSecretName and SecretName are the server-side secret names.
	PostgresSecretName string `yaml:"postgres_secret_name" mapstructure:"postgres_secret_name"`
	SecretName         string `yaml:"secret_name" mapstructure:"secret_name"`

	Metadata PostgresMetadata `yaml:"metadata" mapstructure:"metadata"`
}

func (c *Config) withDefaults() Config {
	cfg := *c
	if cfg.PostgresSecretName == "" {
		cfg.PostgresSecretName = "postgres_secret"
	}
	if cfg.SecretName == "" {
		cfg.SecretName = "ducklake_secret"
	}
	if cfg.Metadata.Port == 0 {
		cfg.Metadata.Port = 5432
	}
	return cfg
}

func (c *Config) Validate() error {
	if c.CatalogName == "" {
		return fmt.Errorf("catalog name is required")
	}
	if c.DataPath == "" {
		return fmt.Errorf("data path is required")
	}
	if c.Metadata.Host == "" || c.Metadata.Database == "" || c.Metadata.User == "" {
		return fmt.Errorf("metadata store host, database and user are required")
	}
	return nil
}

// Executor runs SQL statements; *adapter.Adapter satisfies it.
type Executor interface {
	Execute(ctx context.Context, sql string) error
}

// SetupStatements returns the statement sequence that installs the
// extensions, creates both secrets and attaches the DuckLake catalog.
func (c Config) SetupStatements() []string {
	cfg := c.withDefaults()
	return []string{
		"INSTALL ducklake",
		"INSTALL postgres",
		"LOAD ducklake",
		"LOAD postgres",
		cfg.postgresSecretSQL(),
		cfg.ducklakeSecretSQL(),
		cfg.attachSQL(),
	}
}

func (c Config) postgresSecretSQL() string {
	return fmt.Sprintf(
		"CREATE OR REPLACE SECRET %s (TYPE postgres, HOST %s, PORT %d, DATABASE %s, USER %s, PASSWORD %s)",
		ident(c.PostgresSecretName),
		quote(c.Metadata.Host),
		c.Metadata.Port,
		quote(c.Metadata.Database),
		quote(c.Metadata.User),
		quote(c.Metadata.Password),
	)
}

func (c Config) ducklakeSecretSQL() string {
	return fmt.Sprintf(
		"CREATE OR REPLACE SECRET %s (TYPE DUCKLAKE, METADATA_PATH '', DATA_PATH %s, "+
			"METADATA_PARAMETERS MAP {'TYPE': 'postgres', 'SECRET': %s})",
		ident(c.SecretName),
		quote(c.DataPath),
		quote(c.PostgresSecretName),
	)
}

func (c Config) attachSQL() string {
	return fmt.Sprintf("ATTACH %s AS %s", quote("ducklake:"+c.SecretName), ident(c.CatalogName))
}

// Setup installs the DuckLake and postgres extensions, creates the secrets
// and attaches the catalog.
func Setup(ctx context.Context, exec Executor, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid DuckLake config: %w", err)
	}
	log := logger.GetLogger()
	for _, sql := range cfg.SetupStatements() {
		if err := exec.Execute(ctx, sql); err != nil {
			return fmt.Errorf("DuckLake setup failed: %w", err)
		}
	}
	log.Info("attached DuckLake catalog",
		zap.String("catalog", cfg.CatalogName),
		zap.String("metadata_host", cfg.Metadata.Host))
	return nil
}

// Teardown detaches the DuckLake catalog. Errors are returned but a missing
// catalog is not treated as one. DuckDB phrases a missing database as
// "does not exist"; "not found" is kept for older releases.
func Teardown(ctx context.Context, exec Executor, cfg Config) error {
	err := exec.Execute(ctx, "DETACH "+ident(cfg.CatalogName))
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "does not exist") || strings.Contains(msg, "not found") {
		return nil
	}
	return err
}

func ident(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
