// Package config holds the GizmoSQL connection configuration and
// gateway-file loading.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Dialect is the SQL dialect spoken by GizmoSQL servers. GizmoSQL uses
// DuckDB as its execution engine, so identifier quoting, type names and
// catalog semantics all follow DuckDB.
const Dialect = "duckdb"

// EngineType is the gateway connection type handled by this package.
const EngineType = "gizmosql"

// DisplayName is the human-readable engine name.
const DisplayName = "GizmoSQL"

// DefaultPort is the port GizmoSQL servers listen on by default.
const DefaultPort = 31337

// --- Configuration Structs ---

// ConnectionConfig describes how to reach a GizmoSQL server over Arrow
// Flight SQL. Credentials are required; everything else has a default.
type ConnectionConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`

	// UseEncryption selects grpc+tls; DisableCertificateVerification skips
	// certificate checks, for self-signed development servers.
	UseEncryption                  bool `yaml:"use_encryption" mapstructure:"use_encryption"`
	DisableCertificateVerification bool `yaml:"disable_certificate_verification" mapstructure:"disable_certificate_verification"`

	// Database is the default catalog to use, if any.
	Database string `yaml:"database,omitempty" mapstructure:"database"`

	// ConcurrentTasks is the maximum number of concurrent tasks a caller
	// should schedule against this connection.
	ConcurrentTasks int `yaml:"concurrent_tasks" mapstructure:"concurrent_tasks"`

	// RegisterComments is surfaced to callers as capability metadata, like
	// ConcurrentTasks; the connection itself does not act on it.
	RegisterComments bool `yaml:"register_comments" mapstructure:"register_comments"`

	// PrePing makes OpenConnection ping the server before handing the
	// connection out.
	PrePing bool `yaml:"pre_ping" mapstructure:"pre_ping"`

	// SkipBackendCheck disables the connect-time verification that the
	// server backend is DuckDB.
	SkipBackendCheck bool `yaml:"skip_backend_check" mapstructure:"skip_backend_check"`
}

// GatewayConfig is a named set of connections, mirroring the gateway layout
// of transformation-framework config files.
type GatewayConfig struct {
	Gateways map[string]ConnectionConfig `yaml:"gateways" mapstructure:"gateways"`
}

// NewConnectionConfig returns a config populated with defaults.
func NewConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		Host:             "localhost",
		Port:             DefaultPort,
		UseEncryption:    true,
		ConcurrentTasks:  4,
		RegisterComments: true,
	}
}

// --- Load Configuration ---

// LoadGateways reads a YAML gateway file and applies defaults to each
// connection before returning.
func LoadGateways(configPath string) (*GatewayConfig, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg GatewayConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	raw := viper.GetStringMap("gateways")
	for name, conn := range cfg.Gateways {
		conn = withDefaults(conn)
		// An absent use_encryption key means TLS on, not off.
		if sub, ok := raw[strings.ToLower(name)].(map[string]any); ok {
			if _, set := sub["use_encryption"]; !set {
				conn.UseEncryption = true
			}
			if _, set := sub["register_comments"]; !set {
				conn.RegisterComments = true
			}
		}
		cfg.Gateways[name] = conn
	}
	return &cfg, nil
}

func withDefaults(c ConnectionConfig) ConnectionConfig {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.ConcurrentTasks == 0 {
		c.ConcurrentTasks = 4
	}
	return c
}

// --- Validation Functions ---

// validate is a helper function to reduce repetition.
func validate(condition bool, format string, a ...any) error {
	if !condition {
		return fmt.Errorf(format, a...)
	}
	return nil
}

func (c *GatewayConfig) Validate() error {
	if err := validate(len(c.Gateways) > 0, "at least one gateway is required"); err != nil {
		return err
	}
	for name, conn := range c.Gateways {
		if err := conn.Validate(); err != nil {
			return fmt.Errorf("gateway '%s' validation failed: %w", name, err)
		}
	}
	return nil
}

func (c *ConnectionConfig) Validate() error {
	if err := validate(c.Host != "", "host is required"); err != nil {
		return err
	}
	if err := validate(c.Port > 0 && c.Port <= 65535, "port must be between 1 and 65535"); err != nil {
		return err
	}
	if err := validate(c.Username != "", "username is required"); err != nil {
		return err
	}
	if err := validate(c.Password != "", "password is required"); err != nil {
		return err
	}
	if err := validate(c.ConcurrentTasks >= 1, "concurrent tasks must be at least 1"); err != nil {
		return err
	}
	if c.DisableCertificateVerification {
		if err := validate(c.UseEncryption, "disable_certificate_verification requires use_encryption"); err != nil {
			return err
		}
	}
	return nil
}

// URI builds the Flight SQL endpoint URI for this connection.
func (c *ConnectionConfig) URI() string {
	scheme := "grpc"
	if c.UseEncryption {
		scheme = "grpc+tls"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Host, c.Port)
}

// Catalog returns the default catalog for this connection, or empty if the
// server default should be used.
func (c *ConnectionConfig) Catalog() string {
	return c.Database
}
