package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/answerly/knowledge/internal/ingest"
	"github.com/answerly/knowledge/internal/retrieval"
)

// MCPStore is the storage surface the MCP tools read from.
type MCPStore interface {
	CountRecords(tenantID string) (int, error)
	GetUsage(tenantID, period string) (int, error)
}

// MCPDeps holds dependencies for the operator-facing MCP server.
type MCPDeps struct {
	Store     MCPStore
	Retriever *retrieval.Retriever
	Builder   *ingest.Builder
}

// NewMCPServer exposes the knowledge engine to operator tooling over MCP:
// searching a tenant's knowledge base, appending training pairs, and
// reading tenant stats.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"knowledge",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions("Knowledge ingestion and retrieval engine for tenant chatbots."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("search_knowledge",
			mcp.WithDescription("Search a tenant's knowledge base and return ranked matching records."),
			mcp.WithString("tenant_id", mcp.Description("Tenant to search"), mcp.Required()),
			mcp.WithString("query", mcp.Description("Free-text query"), mcp.Required()),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 3)")),
		),
		mcpSearchKnowledge(deps),
	)

	s.AddTool(
		mcp.NewTool("train_qa",
			mcp.WithDescription("Append a question/answer pair to a tenant's knowledge base."),
			mcp.WithString("tenant_id", mcp.Description("Tenant to train"), mcp.Required()),
			mcp.WithString("question", mcp.Description("The question"), mcp.Required()),
			mcp.WithString("answer", mcp.Description("The answer"), mcp.Required()),
		),
		mcpTrainQA(deps),
	)

	s.AddTool(
		mcp.NewTool("tenant_stats",
			mcp.WithDescription("Report a tenant's knowledge record count and message usage for a period."),
			mcp.WithString("tenant_id", mcp.Description("Tenant to inspect"), mcp.Required()),
			mcp.WithString("period", mcp.Description("Usage period as YYYY-MM (default: current month)")),
		),
		mcpTenantStats(deps),
	)

	return s
}

func mcpSearchKnowledge(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tenantID, err := req.RequireString("tenant_id")
		if err != nil {
			return mcpError("tenant_id is required"), nil
		}
		query, err := req.RequireString("query")
		if err != nil {
			return mcpError("query is required"), nil
		}

		limit := req.GetInt("limit", retrieval.DefaultLimit)
		if limit > 20 {
			limit = 20
		}

		results, err := deps.Retriever.Query(tenantID, query, limit)
		if err != nil {
			return mcpError(fmt.Sprintf("search failed: %v", err)), nil
		}
		if len(results) == 0 {
			return mcpText("[]"), nil
		}

		type searchResult struct {
			Content     string `json:"content"`
			ContentType string `json:"content_type"`
			Score       int    `json:"score"`
		}
		out := make([]searchResult, len(results))
		for i, r := range results {
			out[i] = searchResult{Content: r.Content, ContentType: r.ContentType, Score: r.Score}
		}

		b, err := json.Marshal(out)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpTrainQA(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tenantID, err := req.RequireString("tenant_id")
		if err != nil {
			return mcpError("tenant_id is required"), nil
		}
		question, err := req.RequireString("question")
		if err != nil {
			return mcpError("question is required"), nil
		}
		answer, err := req.RequireString("answer")
		if err != nil {
			return mcpError("answer is required"), nil
		}

		if err := deps.Builder.Train(tenantID, []ingest.QAPair{{Question: question, Answer: answer}}); err != nil {
			return mcpError(fmt.Sprintf("training failed: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Trained 1 pair for tenant %s", tenantID)), nil
	}
}

func mcpTenantStats(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tenantID, err := req.RequireString("tenant_id")
		if err != nil {
			return mcpError("tenant_id is required"), nil
		}
		period := req.GetString("period", time.Now().UTC().Format("2006-01"))

		count, err := deps.Store.CountRecords(tenantID)
		if err != nil {
			return mcpError(fmt.Sprintf("counting records: %v", err)), nil
		}
		usage, err := deps.Store.GetUsage(tenantID, period)
		if err != nil {
			return mcpError(fmt.Sprintf("reading usage: %v", err)), nil
		}

		stats := map[string]any{
			"tenant_id":    tenantID,
			"record_count": count,
			"period":       period,
			"messages":     usage,
		}

		b, err := json.Marshal(stats)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal stats: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
