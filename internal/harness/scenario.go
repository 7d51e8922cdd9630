package harness

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var scenarioSchema string

// Values the default scenario checks against.
const (
	DefaultDeck      = "Default"
	DefaultCardCount = 1
	DefaultNoteType  = "Basic"
)

// DefaultFields are the field values of the note the inline_notes fixture
// produces.
var DefaultFields = []string{"This is a test.", "Test successful!"}

// Scenario describes one verification run.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description,omitempty"`

	// Collection is the path of the collection.anki2 file.
	// Relative paths resolve against the scenario file location.
	Collection string `yaml:"collection"`

	// Document is the path of the reference markdown document. Required
	// by checks that compare against it.
	Document string `yaml:"document,omitempty"`

	// Deck scopes deck-based checks. Defaults to DefaultDeck.
	Deck string `yaml:"deck,omitempty"`

	// Checks run in order against the collection.
	Checks []Check `yaml:"checks"`
}

// Check is one assertion of a scenario.
type Check struct {
	// Type selects the assertion. See the package documentation.
	Type string `yaml:"type"`

	// Name labels the check in results. Defaults to Type.
	Name string `yaml:"name,omitempty"`

	// Count is the expected number of cards (card_count).
	Count *int `yaml:"count,omitempty"`

	// Fields are the expected field values of the first note, compared
	// position by position (note_content).
	Fields []string `yaml:"fields,omitempty"`

	// NoteType is the expected note type name (note_content).
	NoteType string `yaml:"note_type,omitempty"`

	// Tags the first note must carry (note_tags).
	Tags []string `yaml:"tags,omitempty"`
}

// DisplayName returns Name, or Type when Name is empty.
func (c Check) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Type
}

// Check type constants.
const (
	CheckNotEmpty        = "not_empty"
	CheckDeckExists      = "deck_exists"
	CheckCardCount       = "card_count"
	CheckIDParity        = "id_parity"
	CheckNoteContent     = "note_content"
	CheckDeletedAbsent   = "deleted_absent"
	CheckInlineNoteCount = "inline_note_count"
	CheckNoteTags        = "note_tags"
)

// DefaultScenario returns the standard end-to-end scenario: the
// collection is not empty, the Default deck exists and holds one card,
// the document ids match the deck's notes, and the note is a Basic note
// with the expected fields.
func DefaultScenario(collectionPath, documentPath string) *Scenario {
	count := DefaultCardCount
	return &Scenario{
		Name:        "inline_notes",
		Description: "Inline note sync produces the expected Basic note",
		Collection:  collectionPath,
		Document:    documentPath,
		Deck:        DefaultDeck,
		Checks: []Check{
			{Type: CheckNotEmpty},
			{Type: CheckDeckExists},
			{Type: CheckCardCount, Count: &count},
			{Type: CheckIDParity},
			{Type: CheckNoteContent, Fields: append([]string(nil), DefaultFields...), NoteType: DefaultNoteType},
		},
	}
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, does not
// match the scenario schema, or is missing required fields.
// Relative paths in the scenario resolve against the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML, resolving relative paths against
// baseDir. An empty baseDir leaves paths untouched.
func ParseScenario(data []byte, baseDir string) (*Scenario, error) {
	if err := validateSchema(data); err != nil {
		return nil, err
	}

	// Parse YAML with strict field validation (catches typos like "check:" vs "checks:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Deck == "" {
		scenario.Deck = DefaultDeck
	}
	scenario.Collection = resolvePath(baseDir, scenario.Collection)
	scenario.Document = resolvePath(baseDir, scenario.Document)

	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func resolvePath(baseDir, p string) string {
	if p == "" || baseDir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}

// validateSchema checks the raw YAML against #Scenario.
func validateSchema(data []byte) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	if raw == nil {
		return fmt.Errorf("scenario is empty")
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(scenarioSchema)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile scenario schema: %w", err)
	}

	value := schema.LookupPath(cue.ParsePath("#Scenario")).Unify(ctx.Encode(raw))
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("scenario does not match schema: %v", err)
	}
	return nil
}

// Validate checks that required fields are present and that every check
// has what its type needs.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Collection == "" {
		return fmt.Errorf("collection is required")
	}
	if len(s.Checks) == 0 {
		return fmt.Errorf("checks list is required and must be non-empty")
	}

	for i, c := range s.Checks {
		if err := s.validateCheck(c); err != nil {
			return fmt.Errorf("checks[%d]: %w", i, err)
		}
	}
	return nil
}

func (s *Scenario) validateCheck(c Check) error {
	if c.Type == "" {
		return fmt.Errorf("type is required")
	}
	if _, ok := checkFuncs[c.Type]; !ok {
		return fmt.Errorf("unknown check type %q", c.Type)
	}

	switch c.Type {
	case CheckCardCount:
		if c.Count == nil {
			return fmt.Errorf("count is required for %s", c.Type)
		}
		if *c.Count < 0 {
			return fmt.Errorf("count must be non-negative for %s", c.Type)
		}
	case CheckNoteContent:
		if len(c.Fields) == 0 && c.NoteType == "" {
			return fmt.Errorf("fields or note_type is required for %s", c.Type)
		}
	case CheckNoteTags:
		if len(c.Tags) == 0 {
			return fmt.Errorf("tags is required for %s", c.Type)
		}
	case CheckIDParity, CheckDeletedAbsent, CheckInlineNoteCount:
		if s.Document == "" {
			return fmt.Errorf("document is required for %s", c.Type)
		}
	}
	return nil
}
