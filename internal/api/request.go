package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	perrors "github.com/Aman-CERP/patrology/internal/errors"
	"github.com/Aman-CERP/patrology/internal/search"
)

// maxBodyBytes bounds a POST /api/search body.
const maxBodyBytes = 64 << 10

// searchInput is a search request as sent by a client, before validation.
type searchInput struct {
	Query      string   `json:"query"`
	Type       string   `json:"type,omitempty"`
	Limit      int      `json:"limit,omitempty"`
	Author     string   `json:"author,omitempty"`
	Strategies []string `json:"strategies,omitempty"`
	Distance   *int     `json:"distance,omitempty"`
	Threshold  *float64 `json:"threshold,omitempty"`
}

// parseSearchQuery reads q (or query), type, limit, author, strategies,
// distance and threshold from the URL.
func parseSearchQuery(v url.Values) (searchInput, error) {
	in := searchInput{
		Query:  v.Get("q"),
		Type:   v.Get("type"),
		Author: v.Get("author"),
	}
	if in.Query == "" {
		in.Query = v.Get("query")
	}
	if s := v.Get("strategies"); s != "" {
		in.Strategies = []string{s}
	}

	if s := v.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return in, perrors.New(perrors.ErrCodeInvalidLimit, fmt.Sprintf("limit must be an integer, got %q", s), err)
		}
		in.Limit = n
	}
	if s := v.Get("distance"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return in, perrors.QueryError(fmt.Sprintf("distance must be an integer, got %q", s), err)
		}
		in.Distance = &n
	}
	if s := v.Get("threshold"); s != "" {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return in, perrors.QueryError(fmt.Sprintf("threshold must be a number, got %q", s), err)
		}
		in.Threshold = &f
	}
	return in, nil
}

func decodeSearchBody(r *http.Request) (searchInput, error) {
	var in searchInput
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return in, perrors.New(perrors.ErrCodeInvalidInput, fmt.Sprintf("invalid request body: %v", err), err)
	}
	return in, nil
}

// request resolves strategy names into an engine request.
func (in searchInput) request() (search.Request, error) {
	req := search.Request{
		Query:       in.Query,
		Limit:       in.Limit,
		Author:      strings.TrimSpace(in.Author),
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

// searchResponse is the JSON body of a successful search. Results is a
// list for single-strategy searches and an object keyed by strategy for
// combined search.
type searchResponse struct {
	Query   string `json:"query"`
	Type    string `json:"type"`
	Results any    `json:"results"`
	Total   int    `json:"total"`
	TookMS  int64  `json:"took_ms"`
}

func newSearchResponse(resp *search.Response) searchResponse {
	out := searchResponse{
		Query:  resp.Query,
		Type:   resp.Type.String(),
		Total:  resp.Total,
		TookMS: resp.TookMS,
	}
	switch {
	case resp.Groups != nil:
		out.Results = resp.Groups
	case resp.Hits != nil:
		out.Results = resp.Hits
	default:
		out.Results = []search.Hit{}
	}
	return out
}
