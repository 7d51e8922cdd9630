package search

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

// Matcher tests names against a pattern, ignoring case.
type Matcher struct {
	re *regexp.Regexp
}

// NewMatcher compiles an escaped glob pattern.
//
// Matching uses Unicode case folding on both sides. With children set, a
// name also matches when it is a "::"-separated descendant of a match, the
// way deck and tag hierarchies work.
func NewMatcher(pattern string, children bool) (*Matcher, error) {
	fold := cases.Fold()

	var b strings.Builder
	b.WriteString("^(?:")
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			b.WriteString(regexp.QuoteMeta(fold.String(lit.String())))
			lit.Reset()
		}
	}

	escaped := false
	for _, r := range pattern {
		switch {
		case escaped:
			lit.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '*':
			flush()
			b.WriteString(".*")
		default:
			lit.WriteRune(r)
		}
	}
	flush()
	b.WriteString(")")
	if children {
		b.WriteString("(?:::.*)?")
	}
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, err
	}
	return &Matcher{re: re}, nil
}

// Match reports whether name matches the pattern.
func (m *Matcher) Match(name string) bool {
	return m.re.MatchString(cases.Fold().String(name))
}
