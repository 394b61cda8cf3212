package cmd

import (
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/estatelens-cli/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analyze and compare API over HTTP",
	Long: `Loads the dataset once and serves (analyze and compare also accept a POST JSON body):
  GET /api/analyze?query=...|area=...[&where=...]
  GET /api/compare?areas=A,B[&prompt=...][&where=...]
  GET /api/profile[?top=N]
  GET /healthz
  GET /metrics (Prometheus)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService(cmd.Context())
		if err != nil {
			return cliError(err)
		}
		addr := cfg.ListenAddr
		if cmd.Flags().Changed("addr") || addr == "" {
			addr = serveAddr
		}
		api := server.New(svc, addr, server.Options{DebugErrors: cfg.DebugErrors}, logger)
		return api.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address (overrides listen_addr)")
}
