package main

import (
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/gizmodata/gizmosql-go/client"
	"github.com/gizmodata/gizmosql-go/config"
)

// ConnectOptions represents the connection flags shared by all commands.
type ConnectOptions struct {
	ConfigPath string
	Gateway    string

	Host             string
	Port             int
	Username         string
	Password         string
	NoEncryption     bool
	SkipVerify       bool
	Database         string
	SkipBackendCheck bool
}

func addConnectFlags(cmd *cobra.Command, options *ConnectOptions) {
	cmd.Flags().StringVar(&options.ConfigPath, "config", "", "Path to a YAML gateway config file")
	cmd.Flags().StringVar(&options.Gateway, "gateway", "", "Gateway name inside the config file")
	cmd.Flags().StringVar(&options.Host, "host", "localhost", "GizmoSQL server host")
	cmd.Flags().IntVar(&options.Port, "port", config.DefaultPort, "GizmoSQL server port")
	cmd.Flags().StringVarP(&options.Username, "username", "u", "", "Username for authentication")
	cmd.Flags().StringVarP(&options.Password, "password", "p", "", "Password for authentication")
	cmd.Flags().BoolVar(&options.NoEncryption, "no-tls", false, "Disable TLS encryption")
	cmd.Flags().BoolVar(&options.SkipVerify, "tls-skip-verify", false, "Skip TLS certificate verification")
	cmd.Flags().StringVarP(&options.Database, "database", "d", "", "Default catalog to use")
	cmd.Flags().BoolVar(&options.SkipBackendCheck, "skip-backend-check", false, "Skip the DuckDB backend verification")
}

// resolveConfig builds a connection config from flags, or from a gateway
// file when one is given.
func resolveConfig(options *ConnectOptions) (config.ConnectionConfig, error) {
	if options.ConfigPath != "" {
		gateways, err := config.LoadGateways(options.ConfigPath)
		if err != nil {
			return config.ConnectionConfig{}, fmt.Errorf("failed to load config: %w", err)
		}
		name := options.Gateway
		if name == "" && len(gateways.Gateways) == 1 {
			for n := range gateways.Gateways {
				name = n
			}
		}
		cfg, ok := gateways.Gateways[name]
		if !ok {
			return config.ConnectionConfig{}, fmt.Errorf("gateway %q not found in %s", name, options.ConfigPath)
		}
		return cfg, cfg.Validate()
	}

	cfg := config.NewConnectionConfig()
	cfg.Host = options.Host
	cfg.Port = options.Port
	cfg.Username = options.Username
	cfg.Password = options.Password
	cfg.UseEncryption = !options.NoEncryption
	cfg.DisableCertificateVerification = options.SkipVerify
	cfg.Database = options.Database
	cfg.SkipBackendCheck = options.SkipBackendCheck
	return cfg, cfg.Validate()
}

// connect opens a connection to the configured server. The caller must
// Close the returned DB.
func connect(options *ConnectOptions) (*client.DB, *client.Conn, error) {
	cfg, err := resolveConfig(options)
	if err != nil {
		return nil, nil, err
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = fmt.Sprintf(" connecting to %s", cfg.URI())
	s.Start()
	defer s.Stop()

	db, err := client.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	conn, err := db.OpenConnection()
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, conn, nil
}
