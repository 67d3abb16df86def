package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/edgar-harvest/internal/runlog"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List past harvest runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		store, err := runlog.Open(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Migrate(ctx); err != nil {
			return err
		}

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := store.List(ctx, limit)
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STARTED\tWINDOW\tSEEN\tKEPT\tOUTPUT")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%dd\t%d\t%d\t%s\n",
				r.StartedAt.Format("2006-01-02 15:04"),
				r.WindowDays, r.FilingsSeen, r.FilingsKept, r.OutputPath)
		}
		return w.Flush()
	},
}

func init() {
	runsCmd.Flags().Int("limit", 20, "maximum runs to list")
	rootCmd.AddCommand(runsCmd)
}
