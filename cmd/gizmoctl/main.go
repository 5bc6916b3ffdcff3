// Package main provides the entry point for the gizmoctl GizmoSQL client tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gizmodata/gizmosql-go/version"
)

// Main entry point for the gizmoctl tool
func main() {
	// Create root command
	rootCmd := &cobra.Command{
		Use:   "gizmoctl",
		Short: "gizmoctl is a client for GizmoSQL servers",
		Long: `gizmoctl talks to GizmoSQL servers over Arrow Flight SQL.
GizmoSQL runs DuckDB as its execution engine, so statements use the
DuckDB dialect and its catalog.schema namespace, including attached
catalogs and DuckLake.`,
	}

	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of gizmoctl",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("gizmoctl v%s (%s)\n", version.Version, version.BuildDate)
		},
	})

	// Add subcommands
	rootCmd.AddCommand(newPingCommand())
	rootCmd.AddCommand(newExecCommand())
	rootCmd.AddCommand(newQueryCommand())
	rootCmd.AddCommand(newCatalogsCommand())
	rootCmd.AddCommand(newEnginesCommand())
	rootCmd.AddCommand(newServeCommand())

	// Execute the command
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
