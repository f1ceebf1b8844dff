package search

import (
	"fmt"
	"strings"

	"github.com/Aman-CERP/patrology/internal/errors"
)

// Strategy selects how a query is matched against the indexes.
type Strategy uint8

const (
	StrategyExact Strategy = iota + 1
	StrategyProximity
	StrategyFuzzy
	StrategyBoolean
	StrategyCombined
)

var strategyNames = map[Strategy]string{
	StrategyExact:     "exact",
	StrategyProximity: "proximity",
	StrategyFuzzy:     "fuzzy",
	StrategyBoolean:   "boolean",
	StrategyCombined:  "combined",
}

// Strategies lists every strategy in display order.
func Strategies() []Strategy {
	return []Strategy{StrategyExact, StrategyProximity, StrategyFuzzy, StrategyBoolean, StrategyCombined}
}

// String returns the lowercase strategy name.
func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("strategy(%d)", uint8(s))
}

// MarshalText renders the strategy name, so strategies work as JSON map keys.
func (s Strategy) MarshalText() ([]byte, error) {
	if _, ok := strategyNames[s]; !ok {
		return nil, fmt.Errorf("unknown strategy %d", uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText parses a strategy name.
func (s *Strategy) UnmarshalText(b []byte) error {
	parsed, err := ParseStrategy(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStrategy maps a case-insensitive name to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for s, n := range strategyNames {
		if n == key {
			return s, nil
		}
	}
	return 0, errors.New(errors.ErrCodeInvalidStrategy, fmt.Sprintf("unknown search type %q", name), nil).
		WithSuggestion("Use one of: exact, proximity, fuzzy, boolean, combined")
}

// ParseStrategies parses a list of names for combined search. Combined
// cannot nest and duplicates are dropped.
func ParseStrategies(names []string) ([]Strategy, error) {
	var out []Strategy
	seen := make(map[Strategy]bool)
	for _, n := range names {
		for _, part := range strings.Split(n, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			s, err := ParseStrategy(part)
			if err != nil {
				return nil, err
			}
			if s == StrategyCombined {
				return nil, invalidNesting()
			}
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out, nil
}

func invalidNesting() error {
	return errors.New(errors.ErrCodeInvalidStrategy, "combined search cannot include itself", nil)
}

func unknownStrategy(s Strategy) error {
	return errors.InternalError(fmt.Sprintf("no dispatch for %s", s), nil)
}
