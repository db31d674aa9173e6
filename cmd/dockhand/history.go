package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/artpar/dockhand/internal/shell/history"
)

var (
	historyLimit   int
	historySession string

	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "Show step records from past deployment sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(configPath)
			if err != nil {
				return &exitError{code: ExitConfigError, err: err}
			}

			store, err := history.Open(cfg.History.DSN)
			if err != nil {
				return &exitError{code: ExitConfigError, err: err}
			}
			defer store.Close()

			var rows []history.Row
			if historySession != "" {
				rows, err = store.Session(cmd.Context(), historySession)
			} else {
				rows, err = store.Recent(cmd.Context(), historyLimit)
			}
			if err != nil {
				return &exitError{code: ExitConfigError, err: err}
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SESSION\tSEQ\tSTAGE\tSTATUS\tFINISHED\tDETAIL")
			for _, r := range rows {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\n",
					r.SessionID, r.Seq, r.Stage, r.Status,
					r.FinishedAt.Format("2006-01-02 15:04:05"), r.Detail)
			}
			return w.Flush()
		},
	}
)

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 50, "Maximum records to show")
	historyCmd.Flags().StringVar(&historySession, "session", "", "Show one session's records")
}
