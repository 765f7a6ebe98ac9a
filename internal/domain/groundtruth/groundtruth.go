// Package groundtruth maps seasons to the team that actually won the title.
package groundtruth

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/okian/titlerace/internal/domain/model"
)

// builtin is keyed by season year as the source's season ids encode it (22003 -> 2003).
var builtin = map[int]string{
	2003: "San Antonio Spurs",
	2004: "Detroit Pistons",
	2005: "San Antonio Spurs",
	2006: "Miami Heat",
	2007: "San Antonio Spurs",
	2008: "Boston Celtics",
	2009: "Los Angeles Lakers",
	2010: "Los Angeles Lakers",
	2011: "Dallas Mavericks",
	2012: "Miami Heat",
	2013: "Miami Heat",
	2014: "San Antonio Spurs",
	2015: "Golden State Warriors",
	2016: "Cleveland Cavaliers",
	2017: "Golden State Warriors",
	2018: "Golden State Warriors",
	2019: "Toronto Raptors",
	2020: "Los Angeles Lakers",
	2021: "Milwaukee Bucks",
	2022: "Golden State Warriors",
}

// Table is a read-only season -> champion mapping.
type Table struct {
	champions map[int]string
}

// Default returns the built-in table.
func Default() *Table {
	t := &Table{champions: make(map[int]string, len(builtin))}
	for y, team := range builtin {
		t.champions[y] = team
	}
	return t
}

// New builds a table from year -> team entries. Season ids are accepted as keys.
func New(entries map[int]string) *Table {
	t := &Table{champions: make(map[int]string, len(entries))}
	for s, team := range entries {
		t.champions[model.SeasonYear(s)] = team
	}
	return t
}

// file is the YAML layout read by LoadFile.
type file struct {
	Champions map[int]string `yaml:"champions"`
}

// LoadFile merges the champions listed in a YAML file over base and returns
// a new table. base is not modified.
func LoadFile(base *Table, path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read champions file: %w", err)
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse champions file %s: %w", path, err)
	}

	merged := make(map[int]string, len(base.champions)+len(f.Champions))
	for y, team := range base.champions {
		merged[y] = team
	}
	for s, team := range f.Champions {
		if team == "" {
			return nil, fmt.Errorf("%w: champions file %s: empty team for season %d", model.ErrData, path, s)
		}
		merged[model.SeasonYear(s)] = team
	}
	return &Table{champions: merged}, nil
}

// Champion returns the champion of a season given as id (22010) or year (2010).
func (t *Table) Champion(season int) (string, bool) {
	team, ok := t.champions[model.SeasonYear(season)]
	return team, ok
}

// Seasons returns the known season years in ascending order.
func (t *Table) Seasons() []int {
	out := make([]int, 0, len(t.champions))
	for y := range t.champions {
		out = append(out, y)
	}
	sort.Ints(out)
	return out
}
