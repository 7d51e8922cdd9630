package reference

import (
	"fmt"
	"regexp"
)

// Syntax holds the markers a document uses. The zero value is not
// usable; start from DefaultSyntax.
type Syntax struct {
	IDProperty    string `koanf:"id_property" yaml:"id_property" validate:"required"`
	DeckProperty  string `koanf:"deck_property" yaml:"deck_property" validate:"required"`
	TagsProperty  string `koanf:"tags_property" yaml:"tags_property" validate:"required"`
	FrontProperty string `koanf:"front_property" yaml:"front_property" validate:"required"`
	DeletePostfix string `koanf:"delete_postfix" yaml:"delete_postfix" validate:"required"`
	InlineBegin   string `koanf:"inline_begin" yaml:"inline_begin" validate:"required"`
	InlineEnd     string `koanf:"inline_end" yaml:"inline_end" validate:"required"`
}

// DefaultSyntax returns the markers used when nothing is configured.
func DefaultSyntax() Syntax {
	return Syntax{
		IDProperty:    "anki-id",
		DeckProperty:  "deck",
		TagsProperty:  "tags",
		FrontProperty: "anki-front",
		DeletePostfix: "-delete",
		InlineBegin:   "««",
		InlineEnd:     "»»",
	}
}

// idPattern matches one id property line inside a frontmatter block.
func (s Syntax) idPattern() *regexp.Regexp {
	return regexp.MustCompile(regexp.QuoteMeta(s.IDProperty) + `:\s*(\d+)`)
}

// inlinePattern matches one inline note block, capturing its body.
func (s Syntax) inlinePattern() (*regexp.Regexp, error) {
	if s.InlineBegin == "" || s.InlineEnd == "" {
		return nil, fmt.Errorf("inline note markers must not be empty")
	}
	return regexp.Compile(`(?s)` + regexp.QuoteMeta(s.InlineBegin) + `(.*?)` + regexp.QuoteMeta(s.InlineEnd))
}
