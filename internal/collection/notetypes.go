package collection

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/roach88/ankicheck/internal/store"
)

// NoteType is a note type ("model") with its field names in ordinal order.
type NoteType struct {
	ID     int64
	Name   string
	Fields []string
}

// NoteTypes is the note type list of a collection, sorted by id.
type NoteTypes struct {
	list []NoteType
	byID map[int64]NoteType
}

func newNoteTypes(list []NoteType) *NoteTypes {
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	nt := &NoteTypes{list: list, byID: make(map[int64]NoteType, len(list))}
	for _, t := range list {
		nt.byID[t.ID] = t
	}
	return nt
}

// ByID returns the note type with the given id.
func (n *NoteTypes) ByID(id int64) (NoteType, bool) {
	t, ok := n.byID[id]
	return t, ok
}

// ByName returns the note type named exactly name.
func (n *NoteTypes) ByName(name string) (NoteType, bool) {
	for _, t := range n.list {
		if t.Name == name {
			return t, true
		}
	}
	return NoteType{}, false
}

// All returns every note type, sorted by id.
func (n *NoteTypes) All() []NoteType {
	out := make([]NoteType, len(n.list))
	copy(out, n.list)
	return out
}

type legacyField struct {
	Name string `json:"name"`
	Ord  int    `json:"ord"`
}

type legacyModel struct {
	Name string        `json:"name"`
	Flds []legacyField `json:"flds"`
}

// parseLegacyNoteTypes decodes col.models, which maps note type id
// strings to model objects.
func parseLegacyNoteTypes(raw string) (*NoteTypes, error) {
	var m map[string]legacyModel
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("decode col.models: %w", err)
	}

	list := make([]NoteType, 0, len(m))
	for key, model := range m {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode col.models: invalid note type id %q", key)
		}
		flds := append([]legacyField(nil), model.Flds...)
		sort.SliceStable(flds, func(i, j int) bool { return flds[i].Ord < flds[j].Ord })
		fields := make([]string, len(flds))
		for i, f := range flds {
			fields[i] = f.Name
		}
		list = append(list, NoteType{ID: id, Name: model.Name, Fields: fields})
	}
	return newNoteTypes(list), nil
}

func loadModernNoteTypes(ctx context.Context, s *store.Store) (*NoteTypes, error) {
	rows, err := s.Query(ctx, "SELECT id, name FROM notetypes ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("query notetypes: %w", err)
	}
	var list []NoteType
	index := make(map[int64]int)
	for rows.Next() {
		var t NoteType
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan notetype: %w", err)
		}
		index[t.ID] = len(list)
		list = append(list, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query notetypes: %w", err)
	}

	// Single connection: the first result set must be closed before the
	// second query runs.
	rows, err = s.Query(ctx, "SELECT ntid, name FROM fields ORDER BY ntid ASC, ord ASC")
	if err != nil {
		return nil, fmt.Errorf("query fields: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ntid int64
		var name string
		if err := rows.Scan(&ntid, &name); err != nil {
			return nil, fmt.Errorf("scan field: %w", err)
		}
		if i, ok := index[ntid]; ok {
			list[i].Fields = append(list[i].Fields, name)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query fields: %w", err)
	}
	return newNoteTypes(list), nil
}
