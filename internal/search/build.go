package search

import (
	"strconv"
	"strings"
)

// BuildSearchString renders nodes as a search string.
//
// Each set field of each node becomes one quoted term, so names with
// spaces or colons survive a round trip through Parse:
//
//	BuildSearchString(SearchNode{Deck: "Default"}) == `"deck:Default"`
//
// Names are treated literally: "*", `"` and `\` are escaped.
func BuildSearchString(nodes ...SearchNode) string {
	var terms []string
	for _, n := range nodes {
		if n.Deck != "" {
			terms = append(terms, quoteTerm("deck", EscapeLiteral(n.Deck)))
		}
		if n.NoteType != "" {
			terms = append(terms, quoteTerm("note", EscapeLiteral(n.NoteType)))
		}
		if n.Tag != "" {
			terms = append(terms, quoteTerm("tag", EscapeLiteral(n.Tag)))
		}
		if len(n.NoteIDs) > 0 {
			terms = append(terms, quoteTerm("nid", joinIDs(n.NoteIDs)))
		}
		if len(n.CardIDs) > 0 {
			terms = append(terms, quoteTerm("cid", joinIDs(n.CardIDs)))
		}
	}
	return strings.Join(terms, " ")
}

// EscapeLiteral escapes a name so that a pattern matches it literally.
func EscapeLiteral(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\', '"', '*':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Unescape removes pattern escapes, returning the literal text.
// Wildcards are kept as "*".
func Unescape(pattern string) string {
	var b strings.Builder
	escaped := false
	for _, r := range pattern {
		if !escaped && r == '\\' {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return b.String()
}

func quoteTerm(key, value string) string {
	return `"` + key + ":" + value + `"`
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
