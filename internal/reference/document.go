package reference

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is a parsed reference document.
type Document struct {
	// Content is the whole document.
	Content string
	// Frontmatter is the decoded YAML block, empty when there is none.
	Frontmatter map[string]any
	// Body is the text after the frontmatter block.
	Body string

	syntax         Syntax
	frontmatterErr error
}

// Load reads and parses the document at path with the default syntax.
func Load(path string) (*Document, error) {
	return DefaultSyntax().Load(path)
}

// Load reads and parses the document at path.
func (s Syntax) Load(path string) (*Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	doc, err := s.Parse(string(b))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if doc.frontmatterErr != nil {
		doc.frontmatterErr = fmt.Errorf("%s: %w", path, doc.frontmatterErr)
	}
	return doc, nil
}

// Parse parses content with the default syntax.
func Parse(content string) (*Document, error) {
	return DefaultSyntax().Parse(content)
}

// Parse splits content into frontmatter and body and decodes the
// frontmatter as YAML.
//
// A frontmatter block that is not valid YAML does not fail the parse:
// ids are scanned from the raw text, so the document stays usable.
// Frontmatter is then empty and FrontmatterErr reports the decode error.
func (s Syntax) Parse(content string) (*Document, error) {
	doc := &Document{
		Content:     content,
		Frontmatter: map[string]any{},
		Body:        content,
		syntax:      s,
	}

	loc := frontmatterPattern.FindStringSubmatchIndex(content)
	if loc == nil {
		return doc, nil
	}

	doc.Body = strings.TrimPrefix(content[loc[1]:], "\n")

	block := content[loc[2]:loc[3]]
	if err := yaml.Unmarshal([]byte(block), &doc.Frontmatter); err != nil {
		doc.Frontmatter = map[string]any{}
		doc.frontmatterErr = fmt.Errorf("decode frontmatter: %w", err)
	}
	if doc.Frontmatter == nil {
		doc.Frontmatter = map[string]any{}
	}
	return doc, nil
}

// FrontmatterErr returns the error from decoding the frontmatter block,
// or nil. Deck, Front, Tags and DeletedIDs see no properties when it is
// set; IDs and InlineNotes are unaffected.
func (d *Document) FrontmatterErr() error {
	return d.frontmatterErr
}

// IDs returns the note ids of the document. See Syntax.ExtractIDs.
func (d *Document) IDs() []string {
	return d.syntax.ExtractIDs(d.Content)
}

// Deck returns the deck named in the frontmatter.
func (d *Document) Deck() (string, bool) {
	v, ok := d.Frontmatter[d.syntax.DeckProperty]
	if !ok || v == nil {
		return "", false
	}
	s := strings.TrimSpace(fmt.Sprint(v))
	return s, s != ""
}

// Front returns the front text set in the frontmatter, if any.
func (d *Document) Front() (string, bool) {
	v, ok := d.Frontmatter[d.syntax.FrontProperty]
	if !ok || v == nil {
		return "", false
	}
	s := strings.TrimSpace(fmt.Sprint(v))
	return s, s != ""
}

// Tags returns the frontmatter tags. Both a YAML list and a single
// string of space or comma separated tags are accepted.
func (d *Document) Tags() []string {
	tags := []string{}
	switch v := d.Frontmatter[d.syntax.TagsProperty].(type) {
	case string:
		tags = append(tags, strings.FieldsFunc(v, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		})...)
	case []any:
		for _, item := range v {
			if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
				tags = append(tags, s)
			}
		}
	}
	return tags
}

// DeletedIDs returns the ids whose frontmatter value carries the delete
// postfix, as in "anki-id: 1555555555-delete". Such notes are expected to
// have been removed from the collection.
func (d *Document) DeletedIDs() []int64 {
	ids := []int64{}
	postfix := d.syntax.DeletePostfix

	var values []any
	switch v := d.Frontmatter[d.syntax.IDProperty].(type) {
	case []any:
		values = v
	case nil:
	default:
		values = []any{v}
	}

	for _, v := range values {
		s, ok := v.(string)
		if !ok || postfix == "" || !strings.HasSuffix(s, postfix) {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSpace(strings.TrimSuffix(s, postfix)), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// InlineNotes returns the text of every inline note block, in document
// order, with surrounding whitespace trimmed.
func (d *Document) InlineNotes() ([]string, error) {
	re, err := d.syntax.inlinePattern()
	if err != nil {
		return nil, err
	}
	notes := []string{}
	for _, m := range re.FindAllStringSubmatch(d.Body, -1) {
		notes = append(notes, strings.TrimSpace(m[1]))
	}
	return notes, nil
}
