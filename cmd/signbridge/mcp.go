package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/signbridge-ai/signbridge/pkg/config"
	"github.com/signbridge-ai/signbridge/pkg/history"
	"github.com/signbridge-ai/signbridge/pkg/mcp"
	"github.com/signbridge-ai/signbridge/pkg/store"
)

func newMCPCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start SignBridge as an MCP server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				var err error
				cfg, err = config.Load(configPath)
				if err != nil {
					return err
				}
			}
			// Stdout carries the JSON-RPC stream, so logs go to stderr only.
			logger := newLogger(cfg.LogLevel)

			st, err := store.New(cfg.Storage.BaseDir, logger)
			if err != nil {
				return fmt.Errorf("init storage: %w", err)
			}

			var reader mcp.HistoryReader
			if cfg.History.Enabled {
				hist, err := history.New(cfg.History.DBPath, cfg.History.RetentionDays, logger)
				if err != nil {
					return fmt.Errorf("init history: %w", err)
				}
				defer func() { _ = hist.Close() }()
				reader = hist
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return mcp.New(reader, st, cfg, version, logger).Run(ctx, os.Stdin, os.Stdout)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to signbridge config file")
	return cmd
}
