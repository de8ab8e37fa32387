package search

import (
	"database/sql"
	"fmt"
	"strings"
	"unicode"

	"github.com/halvore/scour/internal/index"
)

type Result struct {
	SessionKey string
	SessionID  string
	Source     string
	Project    string
	Title      string
	Model      string
	CWD        string
	StartTime  string
	EndTime    string
	Snippet    string
	Rank       float64
}

type Options struct {
	Query   string
	Source  string // "" = all, "claude", "cursor"
	Project string // "" = all, display-name filter
	Since   string // "" = no filter, e.g. "2024-01-01"
	Limit   int
}

// containsCJK returns true if the string contains any CJK Unified Ideograph.
// FTS5's unicode61 tokenizer cannot split CJK text, so those queries take
// the LIKE path.
func containsCJK(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// makeSnippet extracts a snippet around the first occurrence of query in text.
func makeSnippet(text, query string, contextChars int) string {
	lower := strings.ToLower(text)
	qLower := strings.ToLower(query)
	idx := strings.Index(lower, qLower)
	if idx < 0 {
		// no match, return head
		if len([]rune(text)) > contextChars*2 {
			return string([]rune(text)[:contextChars*2]) + "..."
		}
		return text
	}
	runes := []rune(text)
	qRunes := []rune(query)
	runePos := len([]rune(text[:idx]))
	start := runePos - contextChars
	if start < 0 {
		start = 0
	}
	end := runePos + len(qRunes) + contextChars
	if end > len(runes) {
		end = len(runes)
	}
	prefix := ""
	suffix := ""
	if start > 0 {
		prefix = "..."
	}
	if end < len(runes) {
		suffix = "..."
	}
	snippet := string(runes[start:runePos]) +
		">>>" + string(runes[runePos:runePos+len(qRunes)]) + "<<<" +
		string(runes[runePos+len(qRunes):end])
	return prefix + snippet + suffix
}

// Search runs a full-text query. CJK queries fall back to a LIKE scan; so
// does an FTS query whose syntax FTS5 rejects.
func Search(db *index.DB, opts Options) ([]Result, error) {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}
	if containsCJK(opts.Query) {
		return searchLike(db, opts)
	}
	results, err := searchFTS(db, opts)
	if err != nil {
		// FTS5 rejects queries with unbalanced quotes or stray operators;
		// fall back to a literal scan rather than surfacing a syntax error.
		return searchLike(db, opts)
	}
	return results, nil
}

const sessionColumns = `
	s.session_key, s.session_id, s.source, s.project, s.model, s.cwd, s.start_time, s.end_time`

func searchFTS(db *index.DB, opts Options) ([]Result, error) {
	conditions := []string{"docs_fts MATCH ?"}
	args := []any{opts.Query}
	conditions, args = appendFilters(conditions, args, opts)

	query := fmt.Sprintf(`
		SELECT`+sessionColumns+`,
			d.title,
			snippet(docs_fts, 1, '>>>', '<<<', '...', 40) AS snip,
			bm25(docs_fts, 2.0, 1.0) AS rank
		FROM docs_fts
		JOIN docs d ON docs_fts.rowid = d.rowid
		JOIN sessions s ON d.session_key = s.session_key
		WHERE %s
		ORDER BY rank
		LIMIT ?`, strings.Join(conditions, " AND "))
	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := scanSessionColumns(rows, &r, &r.Title, &r.Snippet, &r.Rank); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func searchLike(db *index.DB, opts Options) ([]Result, error) {
	conditions := []string{"d.content LIKE ?"}
	args := []any{"%" + opts.Query + "%"}
	conditions, args = appendFilters(conditions, args, opts)

	query := fmt.Sprintf(`
		SELECT`+sessionColumns+`,
			d.title,
			d.content
		FROM docs d
		JOIN sessions s ON d.session_key = s.session_key
		WHERE %s
		ORDER BY s.end_time DESC
		LIMIT ?`, strings.Join(conditions, " AND "))
	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var content string
		if err := scanSessionColumns(rows, &r, &r.Title, &content); err != nil {
			return nil, err
		}
		r.Snippet = makeSnippet(content, opts.Query, 30)
		results = append(results, r)
	}
	return results, rows.Err()
}

// ListAll returns sessions newest-first without a text match, for browse
// mode. The snippet is the head of the document content.
func ListAll(db *index.DB, opts Options) ([]Result, error) {
	if opts.Limit <= 0 {
		opts.Limit = 500
	}
	conditions := []string{"1=1"}
	var args []any
	conditions, args = appendFilters(conditions, args, opts)

	query := fmt.Sprintf(`
		SELECT`+sessionColumns+`,
			COALESCE(d.title, s.project),
			COALESCE(substr(d.content, 1, 200), '')
		FROM sessions s
		LEFT JOIN docs d ON d.session_key = s.session_key
		WHERE %s
		ORDER BY s.end_time DESC
		LIMIT ?`, strings.Join(conditions, " AND "))
	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := scanSessionColumns(rows, &r, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func appendFilters(conditions []string, args []any, opts Options) ([]string, []any) {
	if opts.Source != "" {
		conditions = append(conditions, "s.source = ?")
		args = append(args, opts.Source)
	}
	if opts.Project != "" {
		conditions = append(conditions, "s.project = ?")
		args = append(args, opts.Project)
	}
	if opts.Since != "" {
		conditions = append(conditions, "s.end_time >= ?")
		args = append(args, opts.Since)
	}
	return conditions, args
}

func scanSessionColumns(rows *sql.Rows, r *Result, extra ...any) error {
	dest := []any{
		&r.SessionKey, &r.SessionID, &r.Source, &r.Project,
		&r.Model, &r.CWD, &r.StartTime, &r.EndTime,
	}
	dest = append(dest, extra...)
	return rows.Scan(dest...)
}
