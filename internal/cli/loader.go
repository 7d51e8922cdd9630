package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/roach88/ankicheck/internal/harness"
)

// scenarioSource selects the scenarios a command runs: files and
// directories given as arguments, or the default scenario built from
// flags when there are none.
type scenarioSource struct {
	Paths      []string
	Filter     string
	Collection string
	Document   string
	Deck       string
}

// load resolves the source to validated scenarios. defaultDeck applies to
// the flag-built scenario when Deck is empty.
func (s scenarioSource) load(defaultDeck string) ([]*harness.Scenario, error) {
	if len(s.Paths) == 0 {
		if s.Collection == "" || s.Document == "" {
			return nil, fmt.Errorf("either scenario paths or both --collection and --document are required")
		}
		sc := harness.DefaultScenario(s.Collection, s.Document)
		sc.Deck = defaultDeck
		if s.Deck != "" {
			sc.Deck = s.Deck
		}
		return []*harness.Scenario{sc}, sc.Validate()
	}
	if s.Collection != "" || s.Document != "" {
		return nil, fmt.Errorf("--collection and --document cannot be combined with scenario paths")
	}

	var files []string
	for _, p := range s.Paths {
		found, err := findScenarioFiles(p, s.Filter)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no scenario files found in %s", strings.Join(s.Paths, ", "))
	}

	scenarios := make([]*harness.Scenario, 0, len(files))
	for _, f := range files {
		sc, err := harness.LoadScenario(f)
		if err != nil {
			return nil, err
		}
		if s.Deck != "" {
			sc.Deck = s.Deck
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, nil
}

// findScenarioFiles returns path itself when it is a file, or every YAML
// file below it when it is a directory, in lexical order. A non-empty
// filter keeps only files whose base name contains it.
func findScenarioFiles(path, filter string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("scenario path: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(p)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" && !strings.Contains(filepath.Base(p), filter) {
			return nil
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", path, err)
	}
	sort.Strings(files)
	return files, nil
}
