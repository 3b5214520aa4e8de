package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/signbridge-ai/signbridge/pkg/broker"
	"github.com/signbridge-ai/signbridge/pkg/cache"
	"github.com/signbridge-ai/signbridge/pkg/config"
	"github.com/signbridge-ai/signbridge/pkg/history"
	"github.com/signbridge-ai/signbridge/pkg/httpapi"
	"github.com/signbridge-ai/signbridge/pkg/intake"
	"github.com/signbridge-ai/signbridge/pkg/provider"
	"github.com/signbridge-ai/signbridge/pkg/quota"
	"github.com/signbridge-ai/signbridge/pkg/stats"
	"github.com/signbridge-ai/signbridge/pkg/store"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the feedback API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger := newLogger(cfg.LogLevel)

			st, err := store.New(cfg.Storage.BaseDir, logger)
			if err != nil {
				return fmt.Errorf("init storage: %w", err)
			}

			var hist *history.Store
			if cfg.History.Enabled {
				hist, err = history.New(cfg.History.DBPath, cfg.History.RetentionDays, logger)
				if err != nil {
					return fmt.Errorf("init history: %w", err)
				}
				defer func() { _ = hist.Close() }()
			}

			extractor := intake.NewHTTPExtractor(cfg.Intake.ExtractorURL, cfg.Intake.ExtractorTimeout, logger)
			processor := intake.NewProcessor(st, extractor, cfg.Intake.MaxUploadMB, cfg.Intake.ReprocessWorkers, logger)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// A failed upstream init is not fatal: the broker serves canned
			// fallbacks whenever the generator is nil.
			var gen provider.Generator
			if cfg.Upstream.Enabled {
				bedrock, err := provider.NewBedrock(ctx, provider.BedrockConfig{
					Region:    cfg.Upstream.Region,
					ModelID:   cfg.Upstream.ModelID,
					MaxTokens: cfg.Upstream.MaxTokens,
					Timeout:   cfg.Upstream.Timeout,
				}, logger)
				if err != nil {
					logger.Warn().Err(err).Msg("upstream client unavailable, serving fallbacks")
				} else {
					gen = bedrock
				}
			}

			opts := broker.Options{
				Enabled:   cfg.Upstream.Enabled,
				Region:    cfg.Upstream.Region,
				ModelID:   cfg.Upstream.ModelID,
				Generator: gen,
				Cache:     cache.New(cfg.Cache.TTL, cfg.Cache.MaxEntries),
				Quota: quota.New(quota.Limits{
					GlobalPerMinute:  cfg.RateLimits.GlobalPerMinute,
					GlobalPerHour:    cfg.RateLimits.GlobalPerHour,
					PerUserPerMinute: cfg.RateLimits.PerUserPerMinute,
				}),
				Stats:  stats.New(),
				Logger: logger,
			}
			if hist != nil {
				opts.History = hist
			}

			srv := httpapi.New(cfg, broker.New(opts), processor, st, hist, logger)

			logger.Info().Str("listen", cfg.Listen).Str("config", configPath).Msg("starting signbridge")
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "signbridge.yaml", "path to config file")
	return cmd
}

// newLogger builds the root logger all components hang off. Unknown level
// strings fall back to info.
func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}
