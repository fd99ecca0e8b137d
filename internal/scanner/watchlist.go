package scanner

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"okx-analysis/internal/analysis"
	"okx-analysis/internal/model"
)

// Entry is one instrument to scan. Bar and Limit fall back to the analysis
// request defaults when omitted.
type Entry struct {
	InstID string `yaml:"instId"`
	Bar    string `yaml:"bar"`
	Limit  int    `yaml:"limit"`
}

type watchlistFile struct {
	Entries []Entry `yaml:"entries"`
}

// LoadWatchlist reads a YAML watchlist and returns one normalized signal
// request per entry. Duplicate instId/bar pairs are rejected.
func LoadWatchlist(path string) ([]analysis.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read watchlist: %w", err)
	}
	return ParseWatchlist(data)
}

// ParseWatchlist is LoadWatchlist over an in-memory document.
func ParseWatchlist(data []byte) ([]analysis.Request, error) {
	var f watchlistFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse watchlist: %w", err)
	}

	reqs := make([]analysis.Request, 0, len(f.Entries))
	seen := make(map[string]bool, len(f.Entries))
	for i, e := range f.Entries {
		if e.InstID == "" {
			return nil, fmt.Errorf("watchlist entry %d: instId is required", i)
		}
		req := analysis.Request{
			Action: analysis.ActionSignal,
			InstID: e.InstID,
			Bar:    e.Bar,
			Limit:  e.Limit,
		}
		if err := req.Normalize(); err != nil {
			return nil, fmt.Errorf("watchlist entry %d (%s): %w", i, e.InstID, err)
		}
		key := model.Key(req.InstID, req.BarValue())
		if seen[key] {
			return nil, fmt.Errorf("watchlist entry %d: duplicate %s", i, key)
		}
		seen[key] = true
		reqs = append(reqs, req)
	}
	return reqs, nil
}
