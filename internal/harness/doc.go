// Package harness verifies the Anki collection produced by a sync run.
//
// A scenario names a collection file, an optional reference document and
// a list of checks. The harness opens the collection read-only, runs every
// check against it and reports each outcome separately. A failing check
// does not stop the others.
//
// # Scenario Format
//
// Scenarios are YAML files validated against an embedded CUE schema:
//
//	name: inline_notes
//	description: "Inline note sync produces one Basic note"
//	collection: ../test_outputs/inline_notes/Anki2/User 1/collection.anki2
//	document: ../test_outputs/inline_notes/Obsidian/inline_notes/inline_notes.md
//	deck: Default
//	checks:
//	  - type: not_empty
//	  - type: deck_exists
//	  - type: card_count
//	    count: 1
//	  - type: id_parity
//	  - type: note_content
//	    fields: ["This is a test.", "Test successful!"]
//	    note_type: Basic
//
// Relative paths resolve against the directory of the scenario file.
//
// # Check Types
//
//   - not_empty: the collection holds at least one card
//   - deck_exists: a deck with exactly the scenario's deck name exists
//   - card_count: the deck holds exactly count cards
//   - id_parity: the document ids equal the deck's note ids, position by position
//   - note_content: the deck's first note has the expected fields and note type
//   - deleted_absent: ids marked for deletion in the document are gone
//   - inline_note_count: the document has one inline note block per deck note
//   - note_tags: the deck's first note carries every expected tag
//
// # Skipping
//
// The collection is produced by an earlier pipeline step. When the file
// does not exist the run is skipped, not failed, and the result carries
// the reason.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/inline_notes.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := harness.Run(ctx, scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, c := range result.Failed() {
//	    log.Println(c.Name, c.Error)
//	}
package harness
