package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/ankicheck/internal/search"
)

// Target selects which ids a compiled query returns.
type Target int

const (
	// Cards returns card ids, one row per matching card.
	Cards Target = iota
	// Notes returns note ids, one row per note with at least one matching card.
	Notes
)

// String returns the target name.
func (t Target) String() string {
	if t == Notes {
		return "notes"
	}
	return "cards"
}

// Resolver maps name patterns to ids.
//
// Deck and note type names do not live in a queryable column in every
// collection layout (legacy collections keep them as JSON), so the
// compiler asks the collection for matching ids instead of joining.
type Resolver interface {
	// MatchDecks returns ids of decks whose name matches pattern or is a
	// child of a match.
	MatchDecks(pattern string) ([]int64, error)
	// MatchNoteTypes returns ids of note types whose name matches pattern.
	MatchNoteTypes(pattern string) ([]int64, error)
}

// SQLCompiler compiles search predicates to parameterized SQL for SQLite.
//
// CRITICAL: ALL queries include ORDER BY so results are deterministic.
// CRITICAL: All values are parameterized (never interpolated).
type SQLCompiler struct {
	Resolver Resolver
}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler(r Resolver) *SQLCompiler {
	return &SQLCompiler{Resolver: r}
}

// Compile converts a predicate to a SELECT over cards c JOIN notes n.
// Returns (sql, params, error) tuple.
func (c *SQLCompiler) Compile(p search.Predicate, target Target) (string, []any, error) {
	if p == nil {
		return "", nil, fmt.Errorf("cannot compile nil predicate")
	}

	where, params, err := c.compilePredicate(p)
	if err != nil {
		return "", nil, err
	}

	var sql string
	switch target {
	case Cards:
		sql = "SELECT c.id FROM cards c JOIN notes n ON n.id = c.nid WHERE " + where +
			" ORDER BY c.id ASC"
	case Notes:
		sql = "SELECT DISTINCT n.id FROM cards c JOIN notes n ON n.id = c.nid WHERE " + where +
			" ORDER BY n.id ASC"
	default:
		return "", nil, fmt.Errorf("unsupported target: %d", target)
	}

	return sql, params, nil
}

// compilePredicate compiles a predicate to a WHERE clause fragment.
// CRITICAL: Values NEVER interpolated - always use ? placeholders.
func (c *SQLCompiler) compilePredicate(p search.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case search.All:
		return "1 = 1", nil, nil
	case search.Deck:
		return c.compileDeck(pred)
	case search.NoteType:
		return c.compileNoteType(pred)
	case search.Tag:
		return compileTag(pred), []any{tagPattern(pred.Pattern, false), tagPattern(pred.Pattern, true)}, nil
	case search.NoteIDs:
		return inClause("n.id", pred.IDs)
	case search.CardIDs:
		return inClause("c.id", pred.IDs)
	case search.Text:
		return `n.flds LIKE ? ESCAPE '\'`, []any{"%" + likePattern(pred.Pattern) + "%"}, nil
	case search.And:
		return c.compileAnd(pred)
	case search.Not:
		if pred.Predicate == nil {
			return "", nil, fmt.Errorf("cannot compile NOT of nil predicate")
		}
		sql, params, err := c.compilePredicate(pred.Predicate)
		if err != nil {
			return "", nil, err
		}
		return "NOT (" + sql + ")", params, nil
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// compileDeck matches the card's current deck or, for cards sitting in a
// filtered deck, the deck they came from.
func (c *SQLCompiler) compileDeck(d search.Deck) (string, []any, error) {
	if c.Resolver == nil {
		return "", nil, fmt.Errorf("deck search requires a resolver")
	}
	ids, err := c.Resolver.MatchDecks(d.Pattern)
	if err != nil {
		return "", nil, fmt.Errorf("resolve deck %q: %w", d.Pattern, err)
	}
	if len(ids) == 0 {
		return "0 = 1", nil, nil
	}

	placeholders := placeholderList(len(ids))
	params := make([]any, 0, 2*len(ids))
	for _, id := range ids {
		params = append(params, id)
	}
	for _, id := range ids {
		params = append(params, id)
	}
	sql := fmt.Sprintf("(c.did IN (%s) OR c.odid IN (%s))", placeholders, placeholders)
	return sql, params, nil
}

func (c *SQLCompiler) compileNoteType(nt search.NoteType) (string, []any, error) {
	if c.Resolver == nil {
		return "", nil, fmt.Errorf("note type search requires a resolver")
	}
	ids, err := c.Resolver.MatchNoteTypes(nt.Pattern)
	if err != nil {
		return "", nil, fmt.Errorf("resolve note type %q: %w", nt.Pattern, err)
	}
	return inClause("n.mid", ids)
}

// compileAnd compiles an And predicate to conjunction with AND.
func (c *SQLCompiler) compileAnd(and search.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil // Always true (vacuous truth)
	}

	var sqlParts []string
	var allParams []any

	for _, pred := range and.Predicates {
		sql, params, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		sqlParts = append(sqlParts, "("+sql+")")
		allParams = append(allParams, params...)
	}

	return strings.Join(sqlParts, " AND "), allParams, nil
}

// compileTag matches against the space-padded tag column. Anki stores
// tags as " tag1 tag2 ".
func compileTag(search.Tag) string {
	return `((' ' || n.tags || ' ') LIKE ? ESCAPE '\' OR (' ' || n.tags || ' ') LIKE ? ESCAPE '\')`
}

func tagPattern(pattern string, child bool) string {
	like := likePattern(pattern)
	if child {
		return "% " + like + "::%"
	}
	return "% " + like + " %"
}

// likePattern converts an escaped glob pattern to a LIKE pattern with
// backslash as the escape character.
func likePattern(pattern string) string {
	var b strings.Builder
	escaped := false
	for _, r := range pattern {
		if !escaped && r == '\\' {
			escaped = true
			continue
		}
		switch {
		case !escaped && r == '*':
			b.WriteByte('%')
		case r == '%' || r == '_' || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
		escaped = false
	}
	return b.String()
}

func inClause(column string, ids []int64) (string, []any, error) {
	if len(ids) == 0 {
		return "0 = 1", nil, nil
	}
	params := make([]any, len(ids))
	for i, id := range ids {
		params[i] = id
	}
	return fmt.Sprintf("%s IN (%s)", column, placeholderList(len(ids))), params, nil
}

func placeholderList(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
