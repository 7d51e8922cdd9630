package collection

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/ankicheck/internal/store"
)

// Deck is a deck id and its full "::"-separated name.
type Deck struct {
	ID   int64
	Name string
}

// Decks is the deck list of a collection, sorted by id.
type Decks struct {
	list   []Deck
	byName map[string]int64
	byID   map[int64]Deck
}

func newDecks(list []Deck) *Decks {
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	d := &Decks{
		list:   list,
		byName: make(map[string]int64, len(list)),
		byID:   make(map[int64]Deck, len(list)),
	}
	for _, deck := range list {
		d.byName[deck.Name] = deck.ID
		d.byID[deck.ID] = deck
	}
	return d
}

// IDForName returns the id of the deck named exactly name.
// The second result is false when no deck has that name.
func (d *Decks) IDForName(name string) (int64, bool) {
	id, ok := d.byName[name]
	return id, ok
}

// ByID returns the deck with the given id.
func (d *Decks) ByID(id int64) (Deck, bool) {
	deck, ok := d.byID[id]
	return deck, ok
}

// All returns every deck, sorted by id.
func (d *Decks) All() []Deck {
	out := make([]Deck, len(d.list))
	copy(out, d.list)
	return out
}

// Names returns every deck name, sorted by id.
func (d *Decks) Names() []string {
	names := make([]string, len(d.list))
	for i, deck := range d.list {
		names[i] = deck.Name
	}
	return names
}

// Len returns the number of decks.
func (d *Decks) Len() int {
	return len(d.list)
}

// legacyDeck is one value of the col.decks JSON object.
type legacyDeck struct {
	Name string `json:"name"`
}

// parseLegacyDecks decodes col.decks, which maps deck id strings to deck
// objects.
func parseLegacyDecks(raw string) (*Decks, error) {
	var m map[string]legacyDeck
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("decode col.decks: %w", err)
	}

	list := make([]Deck, 0, len(m))
	for key, deck := range m {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode col.decks: invalid deck id %q", key)
		}
		list = append(list, Deck{ID: id, Name: deck.Name})
	}
	return newDecks(list), nil
}

// Modern collections store the "::" separator as \x1f.
const modernDeckSeparator = "\x1f"

func loadModernDecks(ctx context.Context, s *store.Store) (*Decks, error) {
	rows, err := s.Query(ctx, "SELECT id, name FROM decks ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("query decks: %w", err)
	}
	defer rows.Close()

	var list []Deck
	for rows.Next() {
		var deck Deck
		if err := rows.Scan(&deck.ID, &deck.Name); err != nil {
			return nil, fmt.Errorf("scan deck: %w", err)
		}
		deck.Name = strings.ReplaceAll(deck.Name, modernDeckSeparator, "::")
		list = append(list, deck)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query decks: %w", err)
	}
	return newDecks(list), nil
}
