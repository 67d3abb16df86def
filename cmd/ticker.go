package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/edgar-harvest/internal/edgar"
	"github.com/sells-group/edgar-harvest/internal/fetcher"
)

var tickerCmd = &cobra.Command{
	Use:   "ticker CIK [CIK...]",
	Short: "Resolve ticker symbols for CIKs (diagnostic)",
	Long: "Exercises the ticker resolver the same way a harvest does: bulk table " +
		"first, then the per-CIK submissions endpoint for misses.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			UserAgent:    cfg.EDGAR.UserAgent,
			RateLimiters: fetcher.SECRateLimiters(cfg.EDGAR.RequestsPerSec),
		})

		tickers := edgar.NewTickerResolver(f, cfg.EDGAR.DataBaseURL)
		if skipBulk, _ := cmd.Flags().GetBool("no-bulk"); !skipBulk {
			tickers.LoadBulk(ctx)
		}

		for _, cik := range args {
			sym := tickers.Resolve(ctx, cik)
			if sym == "" {
				fmt.Fprintf(os.Stdout, "%s\t(no ticker)\n", cik)
				continue
			}
			fmt.Fprintf(os.Stdout, "%s\t%s\n", cik, sym)
		}
		return nil
	},
}

func init() {
	tickerCmd.Flags().Bool("no-bulk", false, "skip the bulk table, force per-CIK lookups")
	rootCmd.AddCommand(tickerCmd)
}
