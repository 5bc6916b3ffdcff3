package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gizmodata/gizmosql-go/adapter"
	"github.com/gizmodata/gizmosql-go/client"
	"github.com/gizmodata/gizmosql-go/config"
	"github.com/gizmodata/gizmosql-go/registry"
)

// newAdapter resolves the engine adapter through the registry so the CLI
// goes through the same factory path a gateway lookup would.
func newAdapter(conn *client.Conn) (*adapter.Adapter, error) {
	reg, err := registry.Lookup(config.EngineType)
	if err != nil {
		return nil, err
	}
	return reg.Factory(conn), nil
}

func newPingCommand() *cobra.Command {
	options := &ConnectOptions{}
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Verify connectivity to a GizmoSQL server",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, conn, err := connect(options)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := conn.Ping(ctx); err != nil {
				return err
			}
			vendor, err := conn.VendorVersion(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("server OK: %s\n", vendor)
			return nil
		},
	}
	addConnectFlags(cmd, options)
	return cmd
}

func newExecCommand() *cobra.Command {
	options := &ConnectOptions{}
	cmd := &cobra.Command{
		Use:   "exec <sql>",
		Short: "Execute a statement that returns no result set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, conn, err := connect(options)
			if err != nil {
				return err
			}
			defer db.Close()

			a, err := newAdapter(conn)
			if err != nil {
				return err
			}
			if err := a.Execute(context.Background(), args[0]); err != nil {
				return err
			}
			fmt.Println("OK")
			return nil
		},
	}
	addConnectFlags(cmd, options)
	return cmd
}

func newQueryCommand() *cobra.Command {
	options := &ConnectOptions{}
	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Run a query and print the result rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, conn, err := connect(options)
			if err != nil {
				return err
			}
			defer db.Close()

			a, err := newAdapter(conn)
			if err != nil {
				return err
			}
			rows, err := a.Fetchall(context.Background(), args[0])
			if err != nil {
				return err
			}
			for _, row := range rows {
				cells := make([]string, len(row))
				for i, v := range row {
					if v == nil {
						cells[i] = "NULL"
						continue
					}
					cells[i] = fmt.Sprintf("%v", v)
				}
				fmt.Println(strings.Join(cells, "\t"))
			}
			fmt.Printf("(%d rows)\n", len(rows))
			return nil
		},
	}
	addConnectFlags(cmd, options)
	return cmd
}

func newCatalogsCommand() *cobra.Command {
	options := &ConnectOptions{}
	cmd := &cobra.Command{
		Use:   "catalogs",
		Short: "List the catalogs attached on the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, conn, err := connect(options)
			if err != nil {
				return err
			}
			defer db.Close()

			a, err := newAdapter(conn)
			if err != nil {
				return err
			}
			names, err := a.ListCatalogs(context.Background())
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		},
	}
	addConnectFlags(cmd, options)
	return cmd
}

func newEnginesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "engines",
		Short: "List the registered engine types",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range registry.Engines() {
				reg, err := registry.Lookup(name)
				if err != nil {
					continue
				}
				fmt.Printf("%s\t%s\t%s\n", reg.Type, reg.Dialect, reg.DisplayName)
			}
		},
	}
}
