// Package config loads a grammar.Grammar from a JSON file discovered
// by walking up from a starting directory, the same way other
// per-project config files (.eslintrc, .golangci.yml, ...) are found.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/streamlex/streamlex/internal/grammar"
)

// FileNames are the names searched for, in order of preference, in
// each directory walked.
var FileNames = []string{
	"lexspec.json",
	".lexspecrc",
	".lexspecrc.json",
}

// file is the on-disk JSON shape. grammar.Grammar itself is kept free
// of JSON tags since it is also the programmatic construction API the
// test suite uses directly.
type file struct {
	Rules []struct {
		Pattern  string `json:"pattern"`
		Kind     uint8  `json:"kind"`
		Filtered bool   `json:"filtered,omitempty"`
	} `json:"rules"`
	EndsPrimary []uint8 `json:"endsPrimary,omitempty"`
	Retag       []struct {
		Source        uint8 `json:"source"`
		IfEndsPrimary uint8 `json:"ifEndsPrimary"`
		Otherwise     uint8 `json:"otherwise"`
	} `json:"retag,omitempty"`
}

// Load searches startDir and its parents for one of FileNames and
// parses the first one found. Returns nil, "", nil if none is found.
func Load(startDir string) (*grammar.Grammar, string, error) {
	dir := startDir
	for {
		for _, name := range FileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				g, err := LoadFile(path)
				return g, path, err
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, "", nil
		}
		dir = parent
	}
}

// LoadFile parses a single grammar file at path.
func LoadFile(path string) (*grammar.Grammar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a grammar from JSON bytes, for callers that already
// have the file contents (embedded configs, tests).
func Parse(data []byte) (*grammar.Grammar, error) {
	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	g := &grammar.Grammar{
		Rules:       make([]grammar.Rule, len(f.Rules)),
		EndsPrimary: make(map[grammar.Kind]bool, len(f.EndsPrimary)),
		Retag:       make([]grammar.RetagRule, len(f.Retag)),
	}
	for i, r := range f.Rules {
		g.Rules[i] = grammar.Rule{
			Pattern:  r.Pattern,
			Kind:     grammar.Kind(r.Kind),
			Filtered: r.Filtered,
		}
	}
	for _, k := range f.EndsPrimary {
		g.EndsPrimary[grammar.Kind(k)] = true
	}
	for i, rr := range f.Retag {
		g.Retag[i] = grammar.RetagRule{
			Source:        grammar.Kind(rr.Source),
			IfEndsPrimary: grammar.Kind(rr.IfEndsPrimary),
			Otherwise:     grammar.Kind(rr.Otherwise),
		}
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}
