package commands

import (
	"context"
	"fmt"
	"os"
	"tipranks-client/internal/components/telemetry"

	"github.com/spf13/cobra"
)

var (
	configPath string
	asTable    bool
	verbose    bool
	dumpHttp   string
)

var rootCmd = &cobra.Command{
	Use:   "tipranks-cli",
	Short: "tipranks-cli signs in to TipRanks and prints the responses of its read-only endpoints.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(cmd.ErrOrStderr(), verbose)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "The config file to use, defaults to the nearest tipranks.json5.")
	rootCmd.PersistentFlags().BoolVarP(&asTable, "table", "t", false, "Print responses as a table instead of json.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging.")
	rootCmd.PersistentFlags().StringVar(&dumpHttp, "dump-http", "", "Write every request/response pair into this directory.")
}

func ExecuteContext(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	return err
}
