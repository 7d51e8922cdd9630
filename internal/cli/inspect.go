package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ankicheck/internal/collection"
	"github.com/roach88/ankicheck/internal/search"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Deck  string
	Query string
}

// InspectReport is the JSON payload of the inspect command.
type InspectReport struct {
	Path          string          `json:"path"`
	Layout        string          `json:"layout"`
	SchemaVersion int             `json:"schema_version"`
	Decks         []InspectDeck   `json:"decks"`
	NoteTypes     []InspectType   `json:"note_types"`
	Query         string          `json:"query"`
	Notes         []InspectedNote `json:"notes"`
}

type InspectDeck struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type InspectType struct {
	ID     int64    `json:"id"`
	Name   string   `json:"name"`
	Fields []string `json:"fields"`
}

type InspectedNote struct {
	ID       int64    `json:"id"`
	NoteType string   `json:"note_type"`
	Fields   []string `json:"fields"`
	Tags     []string `json:"tags"`
	Cards    []int64  `json:"cards"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect <collection>",
		Short: "Show the decks, note types and notes of a collection",
		Long: `Open a collection read-only and print its decks, note types and notes.

Notes are limited to --deck (including child decks) or to a search
--query such as "tag:geo note:Basic". Without either, every note is listed.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd.Context(), opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Deck, "deck", "", "only list notes of this deck")
	cmd.Flags().StringVar(&opts.Query, "query", "", "only list notes matching this search")
	cmd.MarkFlagsMutuallyExclusive("deck", "query")

	return cmd
}

func runInspect(ctx context.Context, opts *InspectOptions, cmd *cobra.Command, path string) error {
	f := opts.formatter(cmd)

	col, err := collection.OpenContext(ctx, path)
	if err != nil {
		if errors.Is(err, collection.ErrNotFound) {
			return f.Fail(ExitCommandError, CodeCollection, "collection not found", err)
		}
		return f.Fail(ExitCommandError, CodeCollection, "opening collection", err)
	}
	defer col.Close()

	query := opts.Query
	if opts.Deck != "" {
		query = search.BuildSearchString(search.SearchNode{Deck: opts.Deck})
	}

	report, err := inspectCollection(ctx, col, query)
	if err != nil {
		if errors.Is(err, search.ErrSyntax) {
			return f.Fail(ExitCommandError, CodeInvalidArgs, "invalid query", err)
		}
		return f.Fail(ExitCommandError, CodeCollection, "reading collection", err)
	}

	if f.Format == "json" {
		return f.encode(CLIResponse{Status: "ok", Data: report})
	}
	writeInspectText(f.Writer, report)
	return nil
}

func inspectCollection(ctx context.Context, col *collection.Collection, query string) (*InspectReport, error) {
	report := &InspectReport{
		Path:          col.Path(),
		Layout:        col.Layout().String(),
		SchemaVersion: col.SchemaVersion(),
		Decks:         []InspectDeck{},
		NoteTypes:     []InspectType{},
		Query:         query,
		Notes:         []InspectedNote{},
	}
	for _, d := range col.Decks().All() {
		report.Decks = append(report.Decks, InspectDeck{ID: d.ID, Name: d.Name})
	}
	for _, nt := range col.NoteTypes().All() {
		report.NoteTypes = append(report.NoteTypes, InspectType{ID: nt.ID, Name: nt.Name, Fields: nt.Fields})
	}

	ids, err := col.FindNotes(ctx, query)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		note, err := col.GetNote(ctx, id)
		if err != nil {
			return nil, err
		}
		cards, err := col.CardsOfNote(ctx, id)
		if err != nil {
			return nil, err
		}
		report.Notes = append(report.Notes, InspectedNote{
			ID:       note.ID,
			NoteType: note.NoteType().Name,
			Fields:   note.Fields,
			Tags:     note.Tags,
			Cards:    cards,
		})
	}
	return report, nil
}

func writeInspectText(w io.Writer, r *InspectReport) {
	fmt.Fprintf(w, "Collection: %s (%s, schema %d)\n", r.Path, r.Layout, r.SchemaVersion)

	fmt.Fprintf(w, "\nDecks (%d):\n", len(r.Decks))
	for _, d := range r.Decks {
		fmt.Fprintf(w, "  %d  %s\n", d.ID, d.Name)
	}

	fmt.Fprintf(w, "\nNote types (%d):\n", len(r.NoteTypes))
	for _, nt := range r.NoteTypes {
		fmt.Fprintf(w, "  %d  %s [%s]\n", nt.ID, nt.Name, strings.Join(nt.Fields, ", "))
	}

	fmt.Fprintf(w, "\nNotes (%d):\n", len(r.Notes))
	for _, n := range r.Notes {
		fmt.Fprintf(w, "  %d  %s  cards=%d", n.ID, n.NoteType, len(n.Cards))
		if len(n.Tags) > 0 {
			fmt.Fprintf(w, "  tags=%s", strings.Join(n.Tags, " "))
		}
		fmt.Fprintln(w)
		for i, v := range n.Fields {
			fmt.Fprintf(w, "      %d: %q\n", i, v)
		}
	}
}
