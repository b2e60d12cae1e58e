package commands

import (
	"context"
	"tipranks-client/lib/platforms/tipranks"

	"github.com/spf13/cobra"
)

type endpoint struct {
	use   string
	short string
	// args validates the positional arguments before signing in.
	args cobra.PositionalArgs
	call func(ctx context.Context, client *tipranks.Client, args []string) (any, error)
}

func noArgs(fetch func(*tipranks.Client, context.Context) (any, error)) func(context.Context, *tipranks.Client, []string) (any, error) {
	return func(ctx context.Context, client *tipranks.Client, _ []string) (any, error) {
		return fetch(client, ctx)
	}
}

func oneArg(fetch func(*tipranks.Client, context.Context, string) (any, error)) func(context.Context, *tipranks.Client, []string) (any, error) {
	return func(ctx context.Context, client *tipranks.Client, args []string) (any, error) {
		return fetch(client, ctx, args[0])
	}
}

var endpoints = []endpoint{
	{
		use:   "top-analyst-stocks",
		short: "Prints the stocks most recommended by top analysts.",
		args:  cobra.NoArgs,
		call:  noArgs((*tipranks.Client).TopAnalystStocks),
	},
	{
		use:   "top-smart-score-stocks",
		short: "Prints the stocks with the highest smart score.",
		args:  cobra.NoArgs,
		call:  noArgs((*tipranks.Client).TopSmartScoreStocks),
	},
	{
		use:   "top-insider-stocks",
		short: "Prints the stocks trending among insiders.",
		args:  cobra.NoArgs,
		call:  noArgs((*tipranks.Client).TopInsiderStocks),
	},
	{
		use:   "stock-screener",
		short: "Prints the first page of the stock screener.",
		args:  cobra.NoArgs,
		call:  noArgs((*tipranks.Client).StockScreener),
	},
	{
		use:   "top-online-growth-stocks",
		short: "Prints the stocks with the most website traffic growth.",
		args:  cobra.NoArgs,
		call:  noArgs((*tipranks.Client).TopOnlineGrowthStocks),
	},
	{
		use:   "trending-stocks",
		short: "Prints the most trending stocks of the last 30 days.",
		args:  cobra.NoArgs,
		call:  noArgs((*tipranks.Client).TrendingStocks),
	},
	{
		use:   "experts <analyst|blogger|insider|institutional|user>",
		short: "Prints the top 25 experts of a type.",
		args: cobra.MatchAll(cobra.ExactArgs(1), func(cmd *cobra.Command, args []string) error {
			return tipranks.ValidateExpertType(args[0])
		}),
		call: oneArg((*tipranks.Client).TopExperts),
	},
	{
		use:   "projection <ticker>",
		short: "Prints the analyst price projection of a ticker.",
		args:  cobra.ExactArgs(1),
		call:  oneArg((*tipranks.Client).AnalystProjection),
	},
	{
		use:   "news <ticker>",
		short: "Prints the news sentiment of a ticker.",
		args:  cobra.ExactArgs(1),
		call:  oneArg((*tipranks.Client).NewsSentiment),
	},
}

func init() {
	for _, e := range endpoints {
		rootCmd.AddCommand(&cobra.Command{
			Use:   e.use,
			Short: e.short,
			Args:  e.args,
			RunE: func(cmd *cobra.Command, args []string) error {
				client, _, cleanup, err := createClient(cmd.Context())
				if err != nil {
					return err
				}
				defer cleanup()

				res, err := e.call(cmd.Context(), client, args)
				if err != nil {
					return err
				}
				return printResult(cmd.OutOrStdout(), res, asTable)
			},
		})
	}
}
