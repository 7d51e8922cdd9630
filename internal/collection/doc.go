// Package collection is a read-only client for Anki collection files.
//
// A Collection is opened from a collection.anki2 path and never writes to
// it. Deck and note type metadata is loaded once at open time from
// whichever layout the file uses, so lookups by name or id do not touch
// the database afterwards.
//
// Searches use the Anki search language understood by package search and
// are compiled to SQL by package querysql. Results are ordered by id.
//
//	col, err := collection.Open(path)
//	if err != nil {
//	    return err
//	}
//	defer col.Close()
//
//	ids, err := col.FindNotes(ctx, search.BuildSearchString(search.SearchNode{Deck: "Default"}))
package collection
