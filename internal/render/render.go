package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/halvore/scour/internal/anonymize"
	"github.com/halvore/scour/internal/parse"
)

const (
	colorReset   = "\033[0m"
	colorUser    = "\033[1;34m" // bold blue
	colorAssist  = "\033[1;32m" // bold green
	colorThink   = "\033[2;35m" // dim magenta for thinking
	colorTool    = "\033[36m"   // cyan for tool summaries
	colorDim     = "\033[2m"
	colorBoldRed = "\033[1;31m" // bold red for keyword highlights
)

type Options struct {
	Width int    // wrap width (0 = no wrap)
	Query string // search query for keyword highlighting
}

// fts5Operators are FTS5 operators that should not be highlighted as keywords.
var fts5Operators = map[string]bool{
	"AND": true, "OR": true, "NOT": true, "NEAR": true,
	"and": true, "or": true, "not": true, "near": true,
}

// highlightKeywords wraps case-insensitive matches of query terms in bold red ANSI codes.
func highlightKeywords(text, query string) string {
	if query == "" {
		return text
	}
	terms := strings.Fields(query)
	var filtered []string
	for _, t := range terms {
		if !fts5Operators[t] {
			filtered = append(filtered, strings.Trim(t, `"`))
		}
	}
	for _, term := range filtered {
		if term == "" {
			continue
		}
		lower := strings.ToLower(term)
		i := 0
		for i < len(text) {
			idx := strings.Index(strings.ToLower(text[i:]), lower)
			if idx < 0 {
				break
			}
			pos := i + idx
			orig := text[pos : pos+len(term)]
			replacement := colorBoldRed + orig + colorReset
			text = text[:pos] + replacement + text[pos+len(term):]
			i = pos + len(replacement)
		}
	}
	return text
}

// indentLines prepends each line of text with the given prefix.
func indentLines(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// wrapLine breaks a single line into multiple lines that fit within maxWidth
// visible columns, correctly skipping ANSI escape sequences when measuring width.
func wrapLine(line string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{line}
	}

	var result []string
	var cur strings.Builder
	visW := 0

	i := 0
	for i < len(line) {
		// check for ANSI escape sequence: ESC[ ... m
		if i+1 < len(line) && line[i] == '\033' && line[i+1] == '[' {
			j := i + 2
			for j < len(line) && line[j] != 'm' {
				j++
			}
			if j < len(line) {
				j++ // include 'm'
			}
			cur.WriteString(line[i:j])
			i = j
			continue
		}

		r, size := utf8.DecodeRuneInString(line[i:])
		rw := runewidth.RuneWidth(r)

		if visW+rw > maxWidth {
			result = append(result, cur.String())
			cur.Reset()
			visW = 0
		}

		cur.WriteRune(r)
		visW += rw
		i += size
	}

	if cur.Len() > 0 {
		result = append(result, cur.String())
	}

	if len(result) == 0 {
		return []string{""}
	}
	return result
}

// Conversation renders a parsed session as an ANSI transcript. It returns
// the content and the 0-based line number of the first message containing
// the query (-1 if none), so viewers can scroll straight to the hit.
func Conversation(s *parse.Session, opts Options) (string, int) {
	if s == nil || len(s.Messages) == 0 {
		return "(empty session)", -1
	}

	var b strings.Builder
	hitLine := -1
	lineCount := 0
	separator := colorDim + "--------------------------------------------------" + colorReset
	queryLower := strings.ToLower(opts.Query)

	writeLine := func(line string) {
		for _, wl := range wrapLine(line, opts.Width) {
			b.WriteString(wl)
			b.WriteString("\n")
			lineCount++
		}
	}

	header := fmt.Sprintf("%s--- %s [%s]", colorDim, s.SessionID, s.Source)
	if s.Model != "" {
		header += " " + s.Model
	}
	if s.CWD != "" {
		header += " " + s.CWD
	}
	writeLine(header + " ---" + colorReset)

	for i, m := range s.Messages {
		if i > 0 {
			writeLine(separator)
		}

		isHit := hitLine < 0 && opts.Query != "" &&
			(strings.Contains(strings.ToLower(m.Content), queryLower) ||
				strings.Contains(strings.ToLower(m.Thinking), queryLower))
		if isHit {
			hitLine = lineCount
		}

		var roleColor, roleLabel string
		switch m.Role {
		case "user":
			roleColor, roleLabel = colorUser, "USER"
		case "assistant":
			roleColor, roleLabel = colorAssist, "ASST"
		default:
			roleColor, roleLabel = colorDim, strings.ToUpper(m.Role)
		}
		writeLine(fmt.Sprintf("%s%s >%s %s%s%s", roleColor, roleLabel, colorReset, colorDim, m.Timestamp, colorReset))

		if m.Thinking != "" {
			think := colorDim + "THINK " + m.Thinking + colorReset
			for _, tl := range strings.Split(indentLines(think, "  "), "\n") {
				writeLine(tl)
			}
		}

		if m.Content != "" {
			text := highlightKeywords(m.Content, opts.Query)
			for _, tl := range strings.Split(indentLines(text, "  "), "\n") {
				writeLine(tl)
			}
		}

		for _, tu := range m.ToolUses {
			line := fmt.Sprintf("%sTOOL %s%s %s", colorTool, tu.Tool, colorReset, tu.Input)
			if tu.Status != "" && tu.Status != "unknown" {
				line += " " + colorDim + "[" + tu.Status + "]" + colorReset
			}
			writeLine("  " + line)
		}

		writeLine("") // blank line after message
	}

	return b.String(), hitLine
}

// Loader re-parses an indexed session from its source with a display
// anonymizer, so rendered conversations are anonymized by construction
// rather than by filtering index contents.
type Loader struct {
	CursorDB        string
	Anon            anonymize.Anonymizer
	IncludeThinking bool
}

// Load resolves a session row back to its source and parses it.
func (l *Loader) Load(source, filePath, sessionID string) (*parse.Session, error) {
	switch source {
	case "claude":
		return parse.ParseClaudeFile(filePath, l.Anon, l.IncludeThinking)
	case "cursor":
		dbPath := l.CursorDB
		if dbPath == "" {
			dbPath = filePath
		}
		store, err := parse.OpenCursorStore(dbPath)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		return store.ParseCursorSession(sessionID, l.Anon, l.IncludeThinking)
	default:
		return nil, fmt.Errorf("unknown source: %s", source)
	}
}
