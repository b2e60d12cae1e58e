package commands

import (
	"time"
	"tipranks-client/internal/gateway"
	"tipranks-client/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

const defaultListen = "127.0.0.1:8080"

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the endpoints as json over http with a single signed in client.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, cleanup, err := createClient(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		listen := cfg.Gateway.Listen
		if listen == "" {
			listen = defaultListen
		}
		router := gateway.NewRouter(client, gateway.Options{
			AccessToken: cfg.Gateway.AccessToken,
			CacheTTL:    time.Duration(cfg.Gateway.CacheSeconds) * time.Second,
		})
		return serviceutil.StartHttpServer(cmd.Context(), listen, router)
	},
}
