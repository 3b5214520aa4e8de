package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/signbridge-ai/signbridge/pkg/models"
)

func newCacheCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and clear a running server's feedback cache",
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			var stats models.CacheStats
			if err := newAPIClient(addr).get("/api/feedback/cache/stats", &stats); err != nil {
				return err
			}

			fmt.Printf("Entries: %d\nHits:    %d\nMisses:  %d\n", stats.Size, stats.Hits, stats.Misses)
			if len(stats.Entries) == 0 {
				return nil
			}

			fmt.Println()
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SIGN\tERROR CODE\tSOURCE\tAGE")
			for _, e := range stats.Entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%.0fs\n", e.Sign, e.ErrorCode, e.Origin, e.AgeSeconds)
			}
			return w.Flush()
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear all cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result struct {
				Cleared int `json:"cleared"`
			}
			if err := newAPIClient(addr).post("/api/feedback/cache/clear", &result); err != nil {
				return err
			}
			fmt.Printf("Cleared %d cache entries.\n", result.Cleared)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&addr, "addr", "http://127.0.0.1:8080", "address of the running server")
	cmd.AddCommand(statsCmd, clearCmd)
	return cmd
}
