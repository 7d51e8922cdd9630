package reference

import (
	"fmt"
	"os"
	"regexp"
)

var (
	// legacyIDPattern matches a body marker such as "ID: 1001" or
	// "<!--ID: 1001-->".
	legacyIDPattern = regexp.MustCompile(`\n?(?:<!--)?(?:ID:[ \t]+(\d+).*)`)

	// frontmatterPattern matches a YAML frontmatter block at the very
	// start of a document.
	frontmatterPattern = regexp.MustCompile(`(?s)^---\s*\n(.*?)\n---`)
)

// ExtractIDs returns every note id in content using the default syntax.
func ExtractIDs(content string) []string {
	return DefaultSyntax().ExtractIDs(content)
}

// ExtractIDs returns every note id in content as decimal strings.
//
// Legacy body markers come first in document order, then every id
// property found in the frontmatter block. The result is never nil.
func (s Syntax) ExtractIDs(content string) []string {
	ids := []string{}
	for _, m := range legacyIDPattern.FindAllStringSubmatch(content, -1) {
		ids = append(ids, m[1])
	}

	block, ok := frontmatterBlock(content)
	if !ok {
		return ids
	}
	for _, m := range s.idPattern().FindAllStringSubmatch(block, -1) {
		ids = append(ids, m[1])
	}
	return ids
}

// ReadIDs reads the document at path and extracts its ids.
func ReadIDs(path string) ([]string, error) {
	return DefaultSyntax().ReadIDs(path)
}

// ReadIDs reads the document at path and extracts its ids.
func (s Syntax) ReadIDs(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return s.ExtractIDs(string(b)), nil
}

// frontmatterBlock returns the text between the opening and closing
// "---" lines.
func frontmatterBlock(content string) (string, bool) {
	m := frontmatterPattern.FindStringSubmatch(content)
	if m == nil {
		return "", false
	}
	return m[1], true
}
