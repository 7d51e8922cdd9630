package search

// Predicate represents a filter condition over cards and their notes.
//
// This is a sealed interface - only types in this package implement it.
// Backends switch exhaustively over the concrete types.
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// All matches every card. It is the result of parsing an empty search.
type All struct{}

func (All) predicateNode() {}

// Deck matches cards whose deck (or original deck, for cards moved into a
// filtered deck) matches Pattern or is a child of a matching deck.
//
// Pattern is in escaped glob form: "*" is a wildcard, "\x" is a literal x.
type Deck struct {
	Pattern string
}

func (Deck) predicateNode() {}

// NoteType matches notes whose note type name matches Pattern.
type NoteType struct {
	Pattern string
}

func (NoteType) predicateNode() {}

// Tag matches notes carrying a tag that matches Pattern or is a child of
// a matching tag ("geo" matches "geo" and "geo::europe").
type Tag struct {
	Pattern string
}

func (Tag) predicateNode() {}

// NoteIDs matches notes by id.
type NoteIDs struct {
	IDs []int64
}

func (NoteIDs) predicateNode() {}

// CardIDs matches cards by id.
type CardIDs struct {
	IDs []int64
}

func (CardIDs) predicateNode() {}

// Text matches notes whose fields contain Pattern.
type Text struct {
	Pattern string
}

func (Text) predicateNode() {}

// And matches when every predicate matches. An empty And matches all.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Not inverts a predicate.
type Not struct {
	Predicate Predicate
}

func (Not) predicateNode() {}

// SearchNode is the structured way to build a search string.
// Every non-empty field becomes one term; terms are ANDed.
type SearchNode struct {
	Deck     string
	NoteType string
	Tag      string
	NoteIDs  []int64
	CardIDs  []int64
}
