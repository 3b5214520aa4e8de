package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show per-caller usage from the request history",
		RunE: func(cmd *cobra.Command, args []string) error {
			h, cleanup, err := openHistory(configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			summaries, err := h.CallerSummaries(context.Background())
			if err != nil {
				return err
			}

			if len(summaries) == 0 {
				fmt.Println("No usage data found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "USER\tREQUESTS\tPROVIDER\tCACHED\tLAST SEEN")
			for _, s := range summaries {
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\n",
					s.UserID, s.RequestCount, s.Provider, s.Cached,
					s.LastSeen.Format("2006-01-02T15:04:05"))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to signbridge config file")
	return cmd
}
