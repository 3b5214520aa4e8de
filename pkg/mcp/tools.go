package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/signbridge-ai/signbridge/pkg/catalog"
	"github.com/signbridge-ai/signbridge/pkg/models"
)

// toolHandler handles one tool call.
type toolHandler func(ctx context.Context, s *Server, args json.RawMessage) ToolCallResult

var toolHandlers = map[string]toolHandler{
	"signbridge_history_search": handleHistorySearch,
	"signbridge_history_stats":  handleHistoryStats,
	"signbridge_error_codes":    handleErrorCodes,
	"signbridge_signs":          handleSigns,
	"signbridge_config":         handleConfig,
}

// allTools is the list of tool definitions exposed via tools/list.
var allTools = []ToolDefinition{
	{
		Name:        "signbridge_history_search",
		Description: "Search served feedback requests with optional filters.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"user_id": map[string]any{
					"type":        "string",
					"description": "Filter by caller ID (optional)",
				},
				"sign": map[string]any{
					"type":        "string",
					"description": "Filter by practiced sign (optional)",
				},
				"source": map[string]any{
					"type":        "string",
					"description": "Filter by result source, e.g. provider, fallback, fallback_error (optional)",
				},
				"since": map[string]any{
					"type":        "string",
					"description": "Start date in YYYY-MM-DD format (optional)",
				},
				"limit": map[string]any{
					"type":        "integer",
					"description": "Maximum rows to return (optional, default 25)",
				},
			},
		},
	},
	{
		Name:        "signbridge_history_stats",
		Description: "Show request counts per result source and day, plus per-caller summaries.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	},
	{
		Name:        "signbridge_error_codes",
		Description: "Show the error-code catalog: prompt templates and fallback messages.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"code": map[string]any{
					"type":        "string",
					"description": "Show full detail for one error code (optional, omit to list all)",
				},
			},
		},
	},
	{
		Name:        "signbridge_signs",
		Description: "List processed reference signs and storage usage.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	},
	{
		Name:        "signbridge_config",
		Description: "Show the active service configuration.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	},
}

func textResult(text string) ToolCallResult {
	return ToolCallResult{
		Content: []ContentBlock{{Type: "text", Text: text}},
	}
}

func errorResult(text string) ToolCallResult {
	return ToolCallResult{
		Content: []ContentBlock{{Type: "text", Text: text}},
		IsError: true,
	}
}

type historySearchArgs struct {
	UserID string `json:"user_id"`
	Sign   string `json:"sign"`
	Source string `json:"source"`
	Since  string `json:"since"`
	Limit  int    `json:"limit"`
}

func handleHistorySearch(ctx context.Context, s *Server, rawArgs json.RawMessage) ToolCallResult {
	if s.history == nil {
		return textResult("Request history is not configured.")
	}
	var args historySearchArgs
	if len(rawArgs) > 0 {
		_ = json.Unmarshal(rawArgs, &args)
	}

	opts := models.HistoryQueryOpts{
		UserID: args.UserID,
		Sign:   args.Sign,
		Origin: args.Source,
		Limit:  args.Limit,
	}
	if opts.Limit <= 0 {
		opts.Limit = 25
	}
	if args.Since != "" {
		t, err := time.Parse("2006-01-02", args.Since)
		if err != nil {
			return errorResult("Invalid since date (use YYYY-MM-DD): " + err.Error())
		}
		opts.Since = t
	}

	records, err := s.history.Query(ctx, opts)
	if err != nil {
		return errorResult("Error searching history: " + err.Error())
	}
	return textResult(formatHistory(records))
}

func handleHistoryStats(ctx context.Context, s *Server, _ json.RawMessage) ToolCallResult {
	if s.history == nil {
		return textResult("Request history is not configured.")
	}
	origins, err := s.history.OriginStats(ctx)
	if err != nil {
		return errorResult("Error fetching history stats: " + err.Error())
	}
	callers, err := s.history.CallerSummaries(ctx)
	if err != nil {
		return errorResult("Error fetching caller summaries: " + err.Error())
	}
	return textResult(formatHistoryStats(origins, callers))
}

type errorCodesArgs struct {
	Code string `json:"code"`
}

func handleErrorCodes(_ context.Context, _ *Server, rawArgs json.RawMessage) ToolCallResult {
	var args errorCodesArgs
	if len(rawArgs) > 0 {
		_ = json.Unmarshal(rawArgs, &args)
	}
	if args.Code != "" {
		if !catalog.Known(args.Code) {
			return errorResult("Unknown error code: " + args.Code)
		}
		return textResult(formatCatalogEntry(args.Code))
	}

	return textResult(formatCatalog(catalog.Codes()))
}

func handleSigns(_ context.Context, s *Server, _ json.RawMessage) ToolCallResult {
	signs, err := s.signs.List()
	if err != nil {
		return errorResult("Error listing signs: " + err.Error())
	}
	stats, err := s.signs.Stats()
	if err != nil {
		return errorResult("Error fetching storage stats: " + err.Error())
	}
	return textResult(formatSigns(signs, stats))
}

func handleConfig(_ context.Context, s *Server, _ json.RawMessage) ToolCallResult {
	return textResult(formatConfig(s.cfg))
}
