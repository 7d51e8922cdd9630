package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/spf13/cobra"
)

// IDsReport is the JSON payload of the ids command.
type IDsReport struct {
	Document string   `json:"document"`
	IDs      []string `json:"ids"`
	Deleted  []string `json:"deleted"`
	Deck     string   `json:"deck,omitempty"`
	Tags     []string `json:"tags"`
	// FrontmatterError is set when the frontmatter is not valid YAML.
	// Ids are still extracted; deck, tags and deleted ids are then empty.
	FrontmatterError string `json:"frontmatter_error,omitempty"`
}

// NewIDsCommand creates the ids command.
func NewIDsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ids <document>",
		Short: "Print the note ids recorded in a reference document",
		Long: `Print the note ids a sync recorded in a reference markdown document,
in document order: inline ID markers first, then the frontmatter id.

Text output prints one id per line. JSON output also lists ids marked for
deletion and the document's deck and tags.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIDs(rootOpts, cmd, args[0])
		},
	}
	return cmd
}

func runIDs(opts *RootOptions, cmd *cobra.Command, path string) error {
	f := opts.formatter(cmd)

	doc, err := opts.Config.Syntax.Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return f.Fail(ExitCommandError, CodeDocument, "document not found", err)
		}
		return f.Fail(ExitCommandError, CodeDocument, "reading document", err)
	}

	report := IDsReport{
		Document: path,
		IDs:      doc.IDs(),
		Deleted:  []string{},
		Tags:     doc.Tags(),
	}
	for _, id := range doc.DeletedIDs() {
		report.Deleted = append(report.Deleted, strconv.FormatInt(id, 10))
	}
	if deck, ok := doc.Deck(); ok {
		report.Deck = deck
	}
	if ferr := doc.FrontmatterErr(); ferr != nil {
		report.FrontmatterError = ferr.Error()
		opts.Logger.Warn("frontmatter is not valid YAML", "document", path, "error", ferr)
	}

	if f.Format == "json" {
		return f.encode(CLIResponse{Status: "ok", Data: report})
	}
	for _, id := range report.IDs {
		fmt.Fprintln(f.Writer, id)
	}
	f.VerboseLog("%d id(s) in %s", len(report.IDs), path)
	return nil
}
