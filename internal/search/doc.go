// Package search provides the intermediate representation for Anki
// search strings.
//
// Anki selects cards and notes with a small query language:
//
//	deck:Default tag:geography -note:Cloze "nid:1555555555"
//
// This package parses that language into a sealed Predicate tree and
// renders SearchNode values back into search strings, so a caller can
// write
//
//	search.BuildSearchString(search.SearchNode{Deck: "Default"})
//
// instead of hand-quoting names. The SQL backend lives in querysql.
//
// Supported terms:
//   - deck:NAME    cards in deck NAME or one of its children
//   - note:NAME    notes of note type NAME
//   - tag:NAME     notes tagged NAME or NAME::child
//   - nid:1,2,3    notes by id
//   - cid:1,2,3    cards by id
//   - TEXT         notes whose fields contain TEXT
//
// Terms are joined with implicit AND (the keyword "and" is accepted). A
// leading "-" negates a term. Names match case-insensitively and "*" is a
// wildcard; "\*" matches a literal asterisk. OR and grouping are not
// supported.
package search
