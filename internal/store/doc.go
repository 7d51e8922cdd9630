// Package store provides SQLite access to Anki collection files.
//
// An Anki collection (collection.anki2) is a SQLite database. Two layouts
// exist in the wild:
//
//   - Legacy (schema 11): decks and note types ("models") are JSON objects
//     stored in the single row of the col table.
//   - Modern (schema 15+): decks, notetypes and fields are real tables whose
//     name columns are declared COLLATE unicase.
//
// Both layouts keep notes and cards in the notes and cards tables.
//
// # Driver
//
// The package registers DriverName, the go-sqlite3 driver with Anki's
// unicase collation attached on every connection. Open uses it in
// read-only mode (PRAGMA query_only). OpenWritable and ApplySchema exist
// for building fixture collections in tests.
package store
