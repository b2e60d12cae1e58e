package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Signs in (or reuses the cached session) and prints the session cookie.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, cleanup, err := createClient(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		slog.Info("signed in", "email", cfg.Email, "mode", cfg.loginMode())
		_, err = fmt.Fprintln(cmd.OutOrStdout(), client.Session().Cookie)
		return err
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Removes the cached session of the configured account.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		store, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		if store == nil {
			return fmt.Errorf("no session store configured")
		}
		defer store.Close()

		err = store.Delete(cmd.Context(), cfg.sessionKey())
		if err != nil {
			return err
		}
		slog.Info("removed cached session", "key", cfg.sessionKey())
		return nil
	},
}
