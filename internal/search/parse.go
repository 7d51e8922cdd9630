package search

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ErrSyntax is wrapped by every error Parse returns.
var ErrSyntax = errors.New("invalid search")

// term is one whitespace-separated unit of a search string, with its outer
// quotes removed and its escapes intact.
type term struct {
	negated bool
	text    string
}

// Parse converts a search string into a predicate tree.
//
// The empty string parses to All. A single term parses to its predicate;
// several terms parse to And in source order.
func Parse(s string) (Predicate, error) {
	terms, err := tokenize(s)
	if err != nil {
		return nil, err
	}

	var preds []Predicate
	for _, t := range terms {
		lower := strings.ToLower(t.text)
		if !t.negated && lower == "and" {
			continue
		}
		if !t.negated && lower == "or" {
			return nil, fmt.Errorf("%w: OR is not supported", ErrSyntax)
		}

		p, err := parseTerm(t.text)
		if err != nil {
			return nil, err
		}
		if t.negated {
			p = Not{Predicate: p}
		}
		preds = append(preds, p)
	}

	switch len(preds) {
	case 0:
		return All{}, nil
	case 1:
		return preds[0], nil
	default:
		return And{Predicates: preds}, nil
	}
}

// MustParse is like Parse but panics on error. For tests and constants.
func MustParse(s string) Predicate {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

func tokenize(s string) ([]term, error) {
	rs := []rune(s)
	var terms []term

	i := 0
	for {
		for i < len(rs) && unicode.IsSpace(rs[i]) {
			i++
		}
		if i >= len(rs) {
			break
		}

		t := term{}
		if rs[i] == '-' {
			t.negated = true
			i++
		}

		var b strings.Builder
		inQuote := false
		for i < len(rs) {
			r := rs[i]
			if r == '\\' && i+1 < len(rs) {
				b.WriteRune(r)
				b.WriteRune(rs[i+1])
				i += 2
				continue
			}
			if r == '"' {
				inQuote = !inQuote
				i++
				continue
			}
			if !inQuote && unicode.IsSpace(r) {
				break
			}
			if !inQuote && (r == '(' || r == ')') {
				return nil, fmt.Errorf("%w: grouping with parentheses is not supported", ErrSyntax)
			}
			b.WriteRune(r)
			i++
		}

		if inQuote {
			return nil, fmt.Errorf("%w: unterminated quote", ErrSyntax)
		}
		t.text = b.String()
		if t.text == "" {
			return nil, fmt.Errorf("%w: empty term", ErrSyntax)
		}
		terms = append(terms, t)
	}

	return terms, nil
}

func parseTerm(text string) (Predicate, error) {
	idx := unescapedIndex(text, ':')
	if idx < 0 {
		return Text{Pattern: text}, nil
	}

	key := strings.ToLower(text[:idx])
	value := text[idx+1:]

	switch key {
	case "deck", "note", "tag":
		if value == "" {
			return nil, fmt.Errorf("%w: %s: requires a name", ErrSyntax, key)
		}
		switch key {
		case "deck":
			return Deck{Pattern: value}, nil
		case "note":
			return NoteType{Pattern: value}, nil
		default:
			return Tag{Pattern: value}, nil
		}
	case "nid":
		ids, err := parseIDs(key, value)
		if err != nil {
			return nil, err
		}
		return NoteIDs{IDs: ids}, nil
	case "cid":
		ids, err := parseIDs(key, value)
		if err != nil {
			return nil, err
		}
		return CardIDs{IDs: ids}, nil
	default:
		return nil, fmt.Errorf("%w: unknown search key %q", ErrSyntax, key)
	}
}

func parseIDs(key, value string) ([]int64, error) {
	raw := Unescape(value)
	if raw == "" {
		return nil, fmt.Errorf("%w: %s: requires ids", ErrSyntax, key)
	}

	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: invalid id %q", ErrSyntax, key, part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// unescapedIndex returns the byte index of the first c not preceded by a
// backslash escape, or -1.
func unescapedIndex(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' {
			i++
			continue
		}
		if s[i] == c {
			return i
		}
	}
	return -1
}
