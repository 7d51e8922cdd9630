// Package reference reads the markdown documents that notes were
// generated from.
//
// A reference document carries the ids of the Anki notes created from it
// in two places:
//
//   - legacy inline markers in the body, "ID: 1555555555" optionally
//     wrapped in an HTML comment
//   - the YAML frontmatter property (by default "anki-id")
//
// ExtractIDs returns both kinds in one ordered list, legacy markers first.
// Parse additionally decodes the frontmatter so the deck, tags, delete
// markers and inline note blocks of the document can be inspected.
package reference
