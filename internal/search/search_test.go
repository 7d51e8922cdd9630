package search

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSearchString_Deck(t *testing.T) {
	assert.Equal(t, `"deck:Default"`, BuildSearchString(SearchNode{Deck: "Default"}))
}

func TestBuildSearchString_Empty(t *testing.T) {
	assert.Equal(t, "", BuildSearchString())
	assert.Equal(t, "", BuildSearchString(SearchNode{}))
}

func TestBuildSearchString_AllFields(t *testing.T) {
	got := BuildSearchString(
		SearchNode{Deck: "My Deck", NoteType: "Basic"},
		SearchNode{Tag: "geo", NoteIDs: []int64{1, 2}, CardIDs: []int64{3}},
	)
	assert.Equal(t, `"deck:My Deck" "note:Basic" "tag:geo" "nid:1,2" "cid:3"`, got)
}

func TestBuildSearchString_EscapesSpecials(t *testing.T) {
	got := BuildSearchString(SearchNode{Deck: `a*b"c\d`})
	assert.Equal(t, `"deck:a\*b\"c\\d"`, got)
}

func TestParse_Empty(t *testing.T) {
	p, err := Parse("   ")
	require.NoError(t, err)
	assert.Equal(t, All{}, p)
}

func TestParse_BuiltStringRoundTrip(t *testing.T) {
	p, err := Parse(BuildSearchString(SearchNode{Deck: "Default"}))
	require.NoError(t, err)
	assert.Equal(t, Deck{Pattern: "Default"}, p)
}

func TestParse_Terms(t *testing.T) {
	tests := []struct {
		in   string
		want Predicate
	}{
		{"deck:Default", Deck{Pattern: "Default"}},
		{`deck:"My Deck"`, Deck{Pattern: "My Deck"}},
		{`"deck:My Deck"`, Deck{Pattern: "My Deck"}},
		{"DECK:Default", Deck{Pattern: "Default"}},
		{"note:Basic", NoteType{Pattern: "Basic"}},
		{"tag:geo::europe", Tag{Pattern: "geo::europe"}},
		{"nid:1555555555", NoteIDs{IDs: []int64{1555555555}}},
		{"cid:1,2,3", CardIDs{IDs: []int64{1, 2, 3}}},
		{"capital", Text{Pattern: "capital"}},
		{`deck:a\*b`, Deck{Pattern: `a\*b`}},
		{`"deck:a\"b"`, Deck{Pattern: `a\"b`}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p)
		})
	}
}

func TestParse_AndNegation(t *testing.T) {
	p, err := Parse("deck:Default and -tag:skip note:Basic")
	require.NoError(t, err)

	assert.Equal(t, And{Predicates: []Predicate{
		Deck{Pattern: "Default"},
		Not{Predicate: Tag{Pattern: "skip"}},
		NoteType{Pattern: "Basic"},
	}}, p)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		msg  string
	}{
		{"unterminated quote", `"deck:Default`, "unterminated quote"},
		{"unknown key", "flag:1", "unknown search key"},
		{"or", "deck:a or deck:b", "OR is not supported"},
		{"grouping", "(deck:a)", "parentheses"},
		{"empty deck", "deck:", "requires a name"},
		{"bad id", "nid:abc", "invalid id"},
		{"empty ids", "nid:", "requires ids"},
		{"trailing comma", "cid:1,2,", "invalid id"},
		{"empty quoted term", `""`, "empty term"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSyntax))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParse("deck:") })
	assert.NotPanics(t, func() { MustParse("deck:Default") })
}

func TestUnescape(t *testing.T) {
	assert.Equal(t, "a*b", Unescape(`a\*b`))
	assert.Equal(t, `a"b`, Unescape(`a\"b`))
	assert.Equal(t, `a\b`, Unescape(`a\\b`))
	assert.Equal(t, "plain", Unescape("plain"))
}

func TestEscapeLiteral_UnescapeInverse(t *testing.T) {
	for _, s := range []string{"Default", `a*b`, `"quoted"`, `back\slash`, "Ünïcode::Child"} {
		assert.Equal(t, s, Unescape(EscapeLiteral(s)))
	}
}

func TestMatcher(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		children bool
		input    string
		want     bool
	}{
		{"exact", "Default", false, "Default", true},
		{"case folded", "default", false, "DEFAULT", true},
		{"unicode fold", "äpfel", false, "ÄPFEL", true},
		{"no partial", "Def", false, "Default", false},
		{"wildcard", "Def*", false, "Default", true},
		{"wildcard middle", "a*c", false, "abbbc", true},
		{"child excluded", "Default", false, "Default::Sub", false},
		{"child included", "Default", true, "Default::Sub", true},
		{"grandchild included", "Default", true, "Default::Sub::Leaf", true},
		{"sibling prefix", "Default", true, "Defaults", false},
		{"escaped star literal", `a\*`, false, "a*", true},
		{"escaped star not wildcard", `a\*`, false, "abc", false},
		{"regex metachar literal", "a.b", false, "axb", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMatcher(tt.pattern, tt.children)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Match(tt.input))
		})
	}
}
