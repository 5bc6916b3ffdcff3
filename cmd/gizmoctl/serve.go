package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gizmodata/gizmosql-go/api"
	"github.com/gizmodata/gizmosql-go/logger"
)

func newServeCommand() *cobra.Command {
	options := &ConnectOptions{}
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the diagnostics API backed by a GizmoSQL connection",
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
			server := api.NewServer(api.ServerOptions{
				Port:    port,
				Adapter: a,
			})

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Start()
			}()

			select {
			case err := <-errCh:
				return err
			case <-quit:
			}

			logger.GetLogger().Info("shutting down", zap.String("signal", "interrupt"))
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(ctx)
		},
	}

	cmd.Flags().StringVar(&port, "api-port", "3000", "Port for the diagnostics API")
	addConnectFlags(cmd, options)
	return cmd
}
