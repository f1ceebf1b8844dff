package mcp

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	statsURI        = "patrology://stats"
	authorsURI      = "patrology://authors"
	queryMetricsURI = "patrology://query_metrics"
)

// registerResources registers the corpus resources.
func (s *Server) registerResources() {
	s.mcp.AddResource(
		&mcp.Resource{
			Name:        "stats",
			URI:         statsURI,
			Description: "Corpus and index statistics",
			MIMEType:    "application/json",
		},
		s.jsonResource(statsURI, func(ctx context.Context) (any, error) {
			st, err := s.engine.Stats(ctx)
			if err != nil {
				return nil, err
			}
			return toStatsOutput(st), nil
		}),
	)
	s.mcp.AddResource(
		&mcp.Resource{
			Name:        "authors",
			URI:         authorsURI,
			Description: "Authors of the corpus ordered by name",
			MIMEType:    "application/json",
		},
		s.jsonResource(authorsURI, func(ctx context.Context) (any, error) {
			authors, err := s.engine.Authors(ctx)
			if err != nil {
				return nil, err
			}
			return toAuthorsOutput(authors), nil
		}),
	)
}

// jsonResource adapts a loader into a resource handler returning indented JSON.
func (s *Server) jsonResource(uri string, load func(context.Context) (any, error)) mcp.ResourceHandler {
	return func(ctx context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, MapError(err)
		}
		content, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, MapError(err)
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      uri,
					MIMEType: "application/json",
					Text:     string(content),
				},
			},
		}, nil
	}
}

// QueryMetricsOutput is the JSON structure for the query_metrics resource.
type QueryMetricsOutput struct {
	Summary             QueryMetricsSummary `json:"summary"`
	QueryTypeCounts     map[string]int64    `json:"query_type_counts"`
	TopTerms            []QueryTermCount    `json:"top_terms"`
	ZeroResultQueries   []string            `json:"zero_result_queries"`
	LatencyDistribution map[string]int64    `json:"latency_distribution"`
}

// QueryMetricsSummary provides overview statistics.
type QueryMetricsSummary struct {
	TotalQueries  int64   `json:"total_queries"`
	TimePeriod    string  `json:"time_period"`
	ZeroResultPct float64 `json:"zero_result_pct"`
}

// QueryTermCount represents a term and its frequency.
type QueryTermCount struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}

// registerQueryMetricsResource registers the query_metrics resource.
func (s *Server) registerQueryMetricsResource() {
	s.mcp.AddResource(
		&mcp.Resource{
			Name:        "query_metrics",
			URI:         queryMetricsURI,
			Description: "Per-strategy query telemetry for this session",
			MIMEType:    "application/json",
		},
		s.jsonResource(queryMetricsURI, func(context.Context) (any, error) {
			return s.queryMetrics()
		}),
	)
}

// queryMetrics converts the current telemetry snapshot to its output form.
func (s *Server) queryMetrics() (QueryMetricsOutput, error) {
	s.mu.RLock()
	metrics := s.metrics
	s.mu.RUnlock()

	if metrics == nil {
		return QueryMetricsOutput{}, ErrMetricsUnavailable
	}

	snapshot := metrics.Snapshot()
	output := QueryMetricsOutput{
		Summary: QueryMetricsSummary{
			TotalQueries:  snapshot.TotalQueries,
			TimePeriod:    "session",
			ZeroResultPct: snapshot.ZeroResultPercentage(),
		},
		QueryTypeCounts:     make(map[string]int64, len(snapshot.QueryTypeCounts)),
		TopTerms:            make([]QueryTermCount, 0, len(snapshot.TopTerms)),
		ZeroResultQueries:   snapshot.ZeroResultQueries,
		LatencyDistribution: make(map[string]int64, len(snapshot.LatencyDistribution)),
	}
	for qt, count := range snapshot.QueryTypeCounts {
		output.QueryTypeCounts[string(qt)] = count
	}
	for _, tc := range snapshot.TopTerms {
		output.TopTerms = append(output.TopTerms, QueryTermCount{Term: tc.Term, Count: tc.Count})
	}
	for bucket, count := range snapshot.LatencyDistribution {
		output.LatencyDistribution[string(bucket)] = count
	}
	return output, nil
}
