package mcp

import (
	"fmt"
	"strings"

	"github.com/signbridge-ai/signbridge/pkg/catalog"
	"github.com/signbridge-ai/signbridge/pkg/config"
	"github.com/signbridge-ai/signbridge/pkg/models"
)

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// formatHistory formats history records as a text table, newest first.
func formatHistory(records []models.HistoryRecord) string {
	if len(records) == 0 {
		return "No history records found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-20s %-12s %-14s %-20s %-28s %-4s %-6s %9s\n",
		"Time", "User", "Sign", "Error Code", "Source", "OK", "Cached", "Latency")
	b.WriteString(strings.Repeat("-", 120) + "\n")
	for _, r := range records {
		fmt.Fprintf(&b, "%-20s %-12s %-14s %-20s %-28s %-4s %-6s %7dms\n",
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			clip(r.UserID, 12), clip(r.Sign, 14), clip(r.ErrorCode, 20),
			r.Origin, yesNo(r.Succeeded), yesNo(r.Cached), r.LatencyMs)
	}
	return b.String()
}

// formatHistoryStats formats per-source/day counts and caller summaries.
func formatHistoryStats(origins []models.OriginStat, callers []models.CallerSummary) string {
	if len(origins) == 0 {
		return "No requests recorded."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-28s %-12s %8s\n", "Source", "Day", "Requests")
	b.WriteString(strings.Repeat("-", 50) + "\n")
	for _, o := range origins {
		fmt.Fprintf(&b, "%-28s %-12s %8d\n", o.Origin, o.Day, o.Count)
	}

	if len(callers) > 0 {
		b.WriteString("\n")
		fmt.Fprintf(&b, "%-16s %8s %10s %8s %-20s\n",
			"Caller", "Requests", "Provider", "Cached", "Last Seen")
		b.WriteString(strings.Repeat("-", 66) + "\n")
		for _, c := range callers {
			fmt.Fprintf(&b, "%-16s %8d %10d %8d %-20s\n",
				clip(c.UserID, 16), c.RequestCount, c.Provider, c.Cached,
				c.LastSeen.Format("2006-01-02 15:04:05"))
		}
	}
	return b.String()
}

// formatCatalog lists every error code with its fallback message.
func formatCatalog(codes []string) string {
	m := catalog.Mapping()
	var b strings.Builder
	fmt.Fprintf(&b, "%-22s %s\n", "Code", "Fallback Message")
	b.WriteString(strings.Repeat("-", 90) + "\n")
	for _, c := range codes {
		fmt.Fprintf(&b, "%-22s %s\n", c, m.Fallbacks[c])
	}
	fmt.Fprintf(&b, "\n%d codes. Call with {\"code\": ...} for the prompt template.\n", len(codes))
	return b.String()
}

// formatCatalogEntry shows one code's prompt template and fallback message.
func formatCatalogEntry(code string) string {
	m := catalog.Mapping()
	var b strings.Builder
	b.WriteString(code + "\n")
	fmt.Fprintf(&b, "  Prompt:   %s\n", m.Prompts[code])
	fmt.Fprintf(&b, "  Fallback: %s\n", m.Fallbacks[code])
	return b.String()
}

// formatSigns lists processed signs plus storage totals.
func formatSigns(signs []models.SignInfo, stats models.StorageStats) string {
	var b strings.Builder
	if len(signs) == 0 {
		b.WriteString("No processed signs found.\n")
	} else {
		fmt.Fprintf(&b, "%-20s %-34s %s\n", "Sign", "Video", "Landmarks")
		b.WriteString(strings.Repeat("-", 96) + "\n")
		for _, s := range signs {
			fmt.Fprintf(&b, "%-20s %-34s %s\n", s.Name, s.VideoURL, s.DataURL)
		}
	}
	fmt.Fprintf(&b, "\nStorage: %d signs, %d videos, %d landmark files, %.2f MB under %s\n",
		stats.TotalSigns, stats.VideoFiles, stats.DataFiles, stats.StorageSizeMB, stats.BaseDirectory)
	return b.String()
}

// formatConfig renders the active configuration.
func formatConfig(cfg *config.Config) string {
	var b strings.Builder
	b.WriteString("SignBridge Configuration\n")
	fmt.Fprintf(&b, "  Listen:    %s\n", cfg.Listen)
	fmt.Fprintf(&b, "  Log Level: %s\n\n", cfg.LogLevel)

	b.WriteString("Upstream\n")
	fmt.Fprintf(&b, "  Enabled:    %t\n", cfg.Upstream.Enabled)
	fmt.Fprintf(&b, "  Region:     %s\n", cfg.Upstream.Region)
	fmt.Fprintf(&b, "  Model:      %s\n", cfg.Upstream.ModelID)
	fmt.Fprintf(&b, "  Max Tokens: %d\n", cfg.Upstream.MaxTokens)
	fmt.Fprintf(&b, "  Timeout:    %s\n\n", cfg.Upstream.Timeout)

	b.WriteString("Rate Limits\n")
	fmt.Fprintf(&b, "  Global/minute:   %d\n", cfg.RateLimits.GlobalPerMinute)
	fmt.Fprintf(&b, "  Global/hour:     %d\n", cfg.RateLimits.GlobalPerHour)
	fmt.Fprintf(&b, "  Per-user/minute: %d\n\n", cfg.RateLimits.PerUserPerMinute)

	b.WriteString("Cache\n")
	fmt.Fprintf(&b, "  TTL:         %s\n", cfg.Cache.TTL)
	fmt.Fprintf(&b, "  Max Entries: %d\n\n", cfg.Cache.MaxEntries)

	b.WriteString("History\n")
	fmt.Fprintf(&b, "  Enabled:   %t\n", cfg.History.Enabled)
	fmt.Fprintf(&b, "  DB Path:   %s\n", cfg.History.DBPath)
	fmt.Fprintf(&b, "  Retention: %d days\n\n", cfg.History.RetentionDays)

	b.WriteString("Storage & Intake\n")
	fmt.Fprintf(&b, "  Base Dir:   %s\n", cfg.Storage.BaseDir)
	fmt.Fprintf(&b, "  Extractor:  %s (timeout %s)\n", cfg.Intake.ExtractorURL, cfg.Intake.ExtractorTimeout)
	fmt.Fprintf(&b, "  Max Upload: %d MB\n", cfg.Intake.MaxUploadMB)
	fmt.Fprintf(&b, "  Workers:    %d\n", cfg.Intake.ReprocessWorkers)
	return b.String()
}
