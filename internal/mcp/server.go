package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/patrology/internal/corpus"
	"github.com/Aman-CERP/patrology/internal/search"
	"github.com/Aman-CERP/patrology/internal/telemetry"
	"github.com/Aman-CERP/patrology/pkg/version"
)

const serverName = "patrology"

// Searcher is the part of the search engine the server exposes.
// *search.Engine satisfies it.
type Searcher interface {
	Search(ctx context.Context, req search.Request) (*search.Response, error)
	Stats(ctx context.Context) (corpus.Stats, error)
	Authors(ctx context.Context) ([]corpus.AuthorSummary, error)
	AuthorChapters(ctx context.Context, author, phrase string, limit int) ([]search.Hit, error)
}

var _ Searcher = (*search.Engine)(nil)

// Server is the MCP server for patrology.
// It lets AI clients search the corpus and inspect its statistics.
type Server struct {
	mcp    *mcp.Server
	engine Searcher
	logger *slog.Logger

	// Query telemetry (optional, set via SetMetrics)
	metrics *telemetry.QueryMetrics

	mu sync.RWMutex
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

var tools = []ToolInfo{
	{
		Name: "search",
		Description: "Search the Church Fathers corpus. Types: exact (phrase of 2-10 words), proximity " +
			"(all words within a distance), fuzzy (approximate phrase), boolean (AND/OR/NOT expression) " +
			"and combined (several types side by side). Results carry author, work, chapter and context.",
	},
	{
		Name:        "stats",
		Description: "Counts of authors, works, chapters, indexed phrases and trigrams in the corpus.",
	},
	{
		Name:        "authors",
		Description: "List every author in the corpus, ordered by name, with dates, titles and work counts.",
	},
	{
		Name:        "author_chapters",
		Description: "Browse the chapters of an author, optionally only those containing an exact phrase.",
	},
}

// NewServer creates a new MCP server over engine.
func NewServer(engine Searcher) (*Server, error) {
	if engine == nil {
		return nil, errors.New("search engine is required")
	}

	s := &Server{
		engine: engine,
		logger: slog.Default(),
	}

	// Capabilities are inferred from the registered tools and resources.
	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    serverName,
			Version: version.Version,
		},
		nil,
	)

	s.registerTools()
	s.registerResources()

	return s, nil
}

// SetMetrics sets the query metrics collector for telemetry.
// When set, a query_metrics resource is registered.
func (s *Server) SetMetrics(m *telemetry.QueryMetrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = m

	if m != nil {
		s.registerQueryMetricsResource()
	}
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Info returns the server name and version.
func (s *Server) Info() (name, ver string) {
	return serverName, version.Version
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	out := make([]ToolInfo, len(tools))
	copy(out, tools)
	return out
}

// CallTool invokes a tool by name with JSON-style arguments and returns its
// structured output. It runs the same handlers as the protocol path.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case "search":
		var in SearchInput
		if err := decodeArgs(args, &in); err != nil {
			return nil, err
		}
		_, out, err := s.mcpSearchHandler(ctx, nil, in)
		return out, err
	case "stats":
		_, out, err := s.mcpStatsHandler(ctx, nil, StatsInput{})
		return out, err
	case "authors":
		_, out, err := s.mcpAuthorsHandler(ctx, nil, AuthorsInput{})
		return out, err
	case "author_chapters":
		var in AuthorChaptersInput
		if err := decodeArgs(args, &in); err != nil {
			return nil, err
		}
		_, out, err := s.mcpAuthorChaptersHandler(ctx, nil, in)
		return out, err
	default:
		return nil, NewMethodNotFoundError(name)
	}
}

func decodeArgs(args map[string]any, v any) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return NewInvalidParamsError(err.Error())
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return NewInvalidParamsError(fmt.Sprintf("invalid arguments: %v", err))
	}
	return nil
}

// registerTools registers all MCP tools with the SDK server.
func (s *Server) registerTools() {
	s.logger.Debug("registering_mcp_tools")

	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[0].Name, Description: tools[0].Description}, s.mcpSearchHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[1].Name, Description: tools[1].Description}, s.mcpStatsHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[2].Name, Description: tools[2].Description}, s.mcpAuthorsHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[3].Name, Description: tools[3].Description}, s.mcpAuthorChaptersHandler)

	s.logger.Debug("mcp_tools_registered", slog.Int("count", len(tools)))
}

// searchRequest validates tool input and turns it into an engine request.
func searchRequest(in SearchInput) (search.Request, error) {
	req := search.Request{
		Query:       in.Query,
		Limit:       in.Limit,
		Author:      in.Author,
		MaxDistance: in.Distance,
		Threshold:   in.Threshold,
	}
	if in.Type != "" {
		t, err := search.ParseStrategy(in.Type)
		if err != nil {
			return req, err
		}
		req.Type = t
	}
	if len(in.Strategies) > 0 {
		strategies, err := search.ParseStrategies(in.Strategies)
		if err != nil {
			return req, err
		}
		req.Strategies = strategies
	}
	return req, nil
}

// mcpSearchHandler is the MCP SDK handler for the search tool.
// The text content is markdown; the structured content is SearchOutput.
func (s *Server) mcpSearchHandler(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (
	*mcp.CallToolResult,
	SearchOutput,
	error,
) {
	requestID := generateRequestID()
	s.logger.Debug("mcp_search_called",
		slog.String("request_id", requestID),
		slog.String("query", input.Query),
		slog.String("type", input.Type))

	req, err := searchRequest(input)
	if err != nil {
		return nil, SearchOutput{}, MapError(err)
	}

	resp, err := s.engine.Search(ctx, req)
	if err != nil {
		s.logger.Warn("mcp_search_failed",
			slog.String("request_id", requestID),
			slog.String("error", err.Error()))
		return nil, SearchOutput{}, MapError(err)
	}

	return textResult(FormatSearchResponse(resp)), ToSearchOutput(resp), nil
}

// mcpStatsHandler is the MCP SDK handler for the stats tool.
func (s *Server) mcpStatsHandler(ctx context.Context, _ *mcp.CallToolRequest, _ StatsInput) (
	*mcp.CallToolResult,
	StatsOutput,
	error,
) {
	st, err := s.engine.Stats(ctx)
	if err != nil {
		return nil, StatsOutput{}, MapError(err)
	}
	return textResult(FormatStats(st)), toStatsOutput(st), nil
}

// mcpAuthorsHandler is the MCP SDK handler for the authors tool.
func (s *Server) mcpAuthorsHandler(ctx context.Context, _ *mcp.CallToolRequest, _ AuthorsInput) (
	*mcp.CallToolResult,
	AuthorsOutput,
	error,
) {
	authors, err := s.engine.Authors(ctx)
	if err != nil {
		return nil, AuthorsOutput{}, MapError(err)
	}
	return textResult(FormatAuthors(authors)), toAuthorsOutput(authors), nil
}

// mcpAuthorChaptersHandler is the MCP SDK handler for the author_chapters tool.
func (s *Server) mcpAuthorChaptersHandler(ctx context.Context, _ *mcp.CallToolRequest, input AuthorChaptersInput) (
	*mcp.CallToolResult,
	AuthorChaptersOutput,
	error,
) {
	hits, err := s.engine.AuthorChapters(ctx, input.Author, input.Phrase, input.Limit)
	if err != nil {
		return nil, AuthorChaptersOutput{}, MapError(err)
	}
	out := AuthorChaptersOutput{Author: input.Author, Chapters: toHitOutputs(hits)}

	text := fmt.Sprintf("No chapters found for author \"%s\"", input.Author)
	if len(hits) > 0 {
		text = FormatSearchResponse(&search.Response{
			Query: input.Author,
			Type:  search.StrategyExact,
			Hits:  hits,
			Total: len(hits),
		})
	}
	return textResult(text), out, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// Serve starts the MCP server on the given transport. Only stdio is served
// here; HTTP clients use Handler mounted on an HTTP server.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("mcp_server_starting", slog.String("transport", transport))

	switch transport {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("mcp_server_stopped", slog.String("error", err.Error()))
		} else {
			s.logger.Info("mcp_server_stopped")
		}
		return err
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}

// Handler serves the MCP streamable HTTP transport for this server.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcp
	}, nil)
}

// generateRequestID returns a short id correlating the log lines of one call.
func generateRequestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()[:8]
	}
	s := id.String()
	return s[len(s)-8:]
}
