// Package validation runs suites of golden queries against an indexed
// corpus and reports which strategies still find what they should.
//
// Suites are YAML. The suite for the demo corpus is embedded; others are
// loaded from disk so they can change without a rebuild.
package validation

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/patrology/internal/errors"
	"github.com/Aman-CERP/patrology/internal/search"
)

//go:embed suites/demo.yaml
var demoSuite []byte

// QuerySpec defines a query with its expected results.
type QuerySpec struct {
	ID        string   `yaml:"id" json:"id"`
	Name      string   `yaml:"name" json:"name"`
	Strategy  string   `yaml:"strategy" json:"strategy"`
	Query     string   `yaml:"query" json:"query"`
	Author    string   `yaml:"author,omitempty" json:"author,omitempty"`
	Distance  *int     `yaml:"distance,omitempty" json:"distance,omitempty"`
	Threshold *float64 `yaml:"threshold,omitempty" json:"threshold,omitempty"`

	// Expected lists author or work substrings; any one in the results passes.
	Expected []string `yaml:"expected,omitempty" json:"expected,omitempty"`

	// Error is the error code a negative query must produce.
	Error string `yaml:"error,omitempty" json:"error,omitempty"`

	Tier int `yaml:"-" json:"tier"`
}

// Suite holds the queries of one validation run.
type Suite struct {
	Tier1    []QuerySpec `yaml:"tier1"`
	Tier2    []QuerySpec `yaml:"tier2"`
	Negative []QuerySpec `yaml:"negative"`
}

// DemoSuite returns the embedded suite for the demo corpus.
func DemoSuite() (*Suite, error) {
	return ParseSuite(demoSuite)
}

// LoadSuite reads a suite from path.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ConfigError(fmt.Sprintf("failed to read suite %s", path), err)
	}
	return ParseSuite(data)
}

// ParseSuite decodes a YAML suite and checks every strategy name.
func ParseSuite(data []byte) (*Suite, error) {
	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.ConfigError("failed to parse suite YAML", err)
	}

	for tier, specs := range map[int][]QuerySpec{1: s.Tier1, 2: s.Tier2, 0: s.Negative} {
		for i := range specs {
			specs[i].Tier = tier
			if _, err := search.ParseStrategy(specs[i].Strategy); err != nil {
				return nil, errors.ConfigError(fmt.Sprintf("query %s: invalid strategy", specs[i].ID), err)
			}
		}
	}
	return &s, nil
}

// TestResult is the outcome of one query.
type TestResult struct {
	Spec       QuerySpec `json:"spec"`
	Passed     bool      `json:"passed"`
	DurationMS int64     `json:"duration_ms"`
	TopResults []string  `json:"top_results"`
	MatchedAt  int       `json:"matched_at"`
	Error      string    `json:"error,omitempty"`
}

// Result summarizes a full run.
type Result struct {
	Timestamp  time.Time    `json:"timestamp"`
	Tier1      []TestResult `json:"tier1"`
	Tier2      []TestResult `json:"tier2"`
	Negative   []TestResult `json:"negative"`
	Tier1Pass  int          `json:"tier1_pass"`
	Tier1Total int          `json:"tier1_total"`
	Tier2Pass  int          `json:"tier2_pass"`
	Tier2Total int          `json:"tier2_total"`
	NegPass    int          `json:"negative_pass"`
	NegTotal   int          `json:"negative_total"`
}

// Passed reports whether every tier 1 and negative query passed.
func (r *Result) Passed() bool {
	return r.Tier1Pass == r.Tier1Total && r.NegPass == r.NegTotal
}

// Searcher is the part of the search engine a Validator needs.
type Searcher interface {
	Search(ctx context.Context, req search.Request) (*search.Response, error)
}

// Validator runs suites against a Searcher.
type Validator struct {
	searcher Searcher
	limit    int
}

// NewValidator creates a validator that inspects the top limit hits.
func NewValidator(s Searcher, limit int) *Validator {
	if limit <= 0 {
		limit = 10
	}
	return &Validator{searcher: s, limit: limit}
}

// RunQuery executes one query.
func (v *Validator) RunQuery(ctx context.Context, spec QuerySpec) TestResult {
	result := TestResult{Spec: spec, MatchedAt: -1}

	strategy, err := search.ParseStrategy(spec.Strategy)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	start := time.Now()
	resp, err := v.searcher.Search(ctx, search.Request{
		Query:       spec.Query,
		Type:        strategy,
		Limit:       v.limit,
		Author:      spec.Author,
		MaxDistance: spec.Distance,
		Threshold:   spec.Threshold,
	})
	result.DurationMS = time.Since(start).Milliseconds()

	if err != nil {
		result.Error = err.Error()
		result.Passed = spec.Error != "" && errors.GetCode(err) == spec.Error
		return result
	}
	if spec.Error != "" {
		result.Error = "expected " + spec.Error + ", got no error"
		return result
	}

	result.TopResults = topResults(resp)
	if len(spec.Expected) == 0 {
		result.Passed = true
		return result
	}
	result.Passed, result.MatchedAt = checkExpected(result.TopResults, spec.Expected)
	return result
}

// RunAll executes every query of the suite.
func (v *Validator) RunAll(ctx context.Context, s *Suite) *Result {
	r := &Result{Timestamp: time.Now()}

	run := func(specs []QuerySpec, out *[]TestResult, pass, total *int) {
		for _, spec := range specs {
			tr := v.RunQuery(ctx, spec)
			*out = append(*out, tr)
			*total++
			if tr.Passed {
				*pass++
			}
		}
	}
	run(s.Tier1, &r.Tier1, &r.Tier1Pass, &r.Tier1Total)
	run(s.Tier2, &r.Tier2, &r.Tier2Pass, &r.Tier2Total)
	run(s.Negative, &r.Negative, &r.NegPass, &r.NegTotal)
	return r
}

// topResults renders each hit as "author / work #chapter", in rank order.
// Combined groups are concatenated in strategy display order.
func topResults(resp *search.Response) []string {
	hits := resp.Hits
	if resp.Groups != nil {
		hits = nil
		for _, s := range search.Strategies() {
			hits = append(hits, resp.Groups[s]...)
		}
	}
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, fmt.Sprintf("%s / %s #%d", h.Author, h.Work, h.ChapterNumber))
	}
	return out
}

// checkExpected returns the rank of the first result containing any
// expected substring, ignoring case.
func checkExpected(results, expected []string) (bool, int) {
	for i, r := range results {
		lr := strings.ToLower(r)
		for _, exp := range expected {
			if strings.Contains(lr, strings.ToLower(exp)) {
				return true, i
			}
		}
	}
	return false, -1
}
