package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/signbridge-ai/signbridge/pkg/config"
	"github.com/signbridge-ai/signbridge/pkg/history"
	"github.com/signbridge-ai/signbridge/pkg/models"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Query and manage the feedback request history",
	}

	cmd.AddCommand(
		newHistorySearchCmd(),
		newHistoryShowCmd(),
		newHistoryStatsCmd(),
		newHistoryCleanupCmd(),
	)
	return cmd
}

func newHistorySearchCmd() *cobra.Command {
	var (
		configPath string
		user       string
		sign       string
		source     string
		since      string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search history records",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, cleanup, err := openHistory(configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			opts := models.HistoryQueryOpts{
				UserID: user,
				Sign:   sign,
				Origin: source,
				Limit:  limit,
			}
			if since != "" {
				t, err := time.Parse("2006-01-02", since)
				if err != nil {
					return fmt.Errorf("invalid --since date (use YYYY-MM-DD): %w", err)
				}
				opts.Since = t
			}

			records, err := s.Query(context.Background(), opts)
			if err != nil {
				return err
			}
			fmt.Print(formatHistoryRecords(records))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to signbridge config file")
	cmd.Flags().StringVar(&user, "user", "", "filter by caller ID")
	cmd.Flags().StringVar(&sign, "sign", "", "filter by sign name")
	cmd.Flags().StringVar(&source, "source", "", "filter by result source (provider, fallback, ...)")
	cmd.Flags().StringVar(&since, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 50, "max records to return")

	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	var (
		configPath string
		requestID  string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a single history record by request ID",
		RunE: func(cmd *cobra.Command, args []string) error {
			if requestID == "" {
				return fmt.Errorf("--request-id is required")
			}

			s, cleanup, err := openHistory(configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			rec, err := s.Get(context.Background(), requestID)
			if errors.Is(err, history.ErrNotFound) {
				fmt.Println("No record found for that request ID.")
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Printf("Request ID:  %s\n", rec.RequestID)
			fmt.Printf("User:        %s\n", rec.UserID)
			fmt.Printf("Sign:        %s\n", rec.Sign)
			fmt.Printf("Error Code:  %s\n", rec.ErrorCode)
			fmt.Printf("Source:      %s\n", rec.Origin)
			fmt.Printf("Success:     %t\n", rec.Succeeded)
			fmt.Printf("Cached:      %t\n", rec.Cached)
			fmt.Printf("Latency:     %dms\n", rec.LatencyMs)
			fmt.Printf("Time:        %s\n", rec.CreatedAt.Format(time.RFC3339))
			if rec.Message != "" {
				fmt.Printf("\n--- Feedback ---\n%s\n", rec.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to signbridge config file")
	cmd.Flags().StringVar(&requestID, "request-id", "", "request ID to show")

	return cmd
}

func newHistoryStatsCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show request counts by source and day",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, cleanup, err := openHistory(configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			stats, err := s.OriginStats(context.Background())
			if err != nil {
				return err
			}
			fmt.Print(formatOriginStats(stats))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to signbridge config file")
	return cmd
}

func newHistoryCleanupCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete history records older than the retention period",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, cleanup, err := openHistory(configPath)
			if err != nil {
				return err
			}
			defer cleanup()

			deleted, err := s.Cleanup(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("Deleted %d history records.\n", deleted)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to signbridge config file")
	return cmd
}

func openHistory(configPath string) (*history.Store, func(), error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return nil, nil, err
		}
	}

	s, err := history.New(cfg.History.DBPath, cfg.History.RetentionDays, zerolog.Nop())
	if err != nil {
		return nil, nil, fmt.Errorf("open history db: %w", err)
	}
	return s, func() { _ = s.Close() }, nil
}

func formatHistoryRecords(records []models.HistoryRecord) string {
	if len(records) == 0 {
		return "No history records found.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-38s %-12s %-15s %-20s %-28s %-6s %-20s\n",
		"REQUEST ID", "USER", "SIGN", "ERROR CODE", "SOURCE", "CACHED", "TIME")
	b.WriteString(strings.Repeat("-", 144) + "\n")
	for _, r := range records {
		fmt.Fprintf(&b, "%-38s %-12s %-15s %-20s %-28s %-6t %-20s\n",
			r.RequestID, r.UserID, r.Sign, r.ErrorCode, r.Origin, r.Cached,
			r.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return b.String()
}

func formatOriginStats(stats []models.OriginStat) string {
	if len(stats) == 0 {
		return "No history stats found.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-28s %-12s %8s\n", "SOURCE", "DAY", "COUNT")
	b.WriteString(strings.Repeat("-", 50) + "\n")
	for _, s := range stats {
		fmt.Fprintf(&b, "%-28s %-12s %8d\n", s.Origin, s.Day, s.Count)
	}
	return b.String()
}
