package main

import (
	pkgconfig "github.com/Egham-7/embedding-advisor/pkg/config"

	"github.com/spf13/cobra"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API until interrupted.

The benchmark dataset is loaded once at startup; the server does not start if
it cannot be loaded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Server.Port = port
			}
			return pkgconfig.NewServer(cfg).Run()
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Override server.port from the config file")
	return cmd
}
