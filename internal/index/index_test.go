package index_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halvore/scour/internal/index"
	"github.com/halvore/scour/internal/search"
)

const sessionUUID = "2f1b9c4e-5a6d-4e7f-8a9b-0c1d2e3f4a5b"

const sessionLog = `{"type":"user","timestamp":"2026-03-01T10:00:00Z","cwd":"/Users/alice/dev/myapp","gitBranch":"main","version":"1.2.3","sessionId":"` + sessionUUID + `","message":{"role":"user","content":"please refactor the flux capacitor wiring"}}
{"type":"assistant","timestamp":"2026-03-01T10:00:05Z","message":{"role":"assistant","model":"claude-opus-4","content":[{"type":"text","text":"done, the flux capacitor now uses /Users/alice/dev/myapp/pkg"}],"usage":{"input_tokens":10,"output_tokens":7}}}
`

// writeClaudeFixture lays out <root>/<projectDir>/<uuid>.jsonl and returns
// the session file path.
func writeClaudeFixture(t *testing.T, root, log string) string {
	t.Helper()
	dir := filepath.Join(root, "-Users-alice-dev-myapp")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, sessionUUID+".jsonl")
	require.NoError(t, os.WriteFile(path, []byte(log), 0o644))
	return path
}

func openTestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.OpenDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestIndexAllRoundTrip(t *testing.T) {
	root := t.TempDir()
	writeClaudeFixture(t, root, sessionLog)
	db := openTestDB(t)

	stats, err := index.IndexAll(db, index.Options{ClaudeRoot: root})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Scanned)
	assert.Equal(t, 1, stats.Indexed)
	assert.Equal(t, 0, stats.Failed)

	count, err := db.SessionCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	results, err := search.Search(db, search.Options{Query: "capacitor"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "claude:-Users-alice-dev-myapp/"+sessionUUID, results[0].SessionKey)
	assert.Equal(t, "claude", results[0].Source)
	assert.Equal(t, "dev-myapp", results[0].Project)
	assert.Equal(t, "claude-opus-4", results[0].Model)
	assert.Contains(t, results[0].Title, "dev-myapp - 2026-03-01")
}

func TestIndexStoresRawContent(t *testing.T) {
	// anonymization happens at display time; the index keeps source text
	root := t.TempDir()
	writeClaudeFixture(t, root, sessionLog)
	db := openTestDB(t)

	_, err := index.IndexAll(db, index.Options{ClaudeRoot: root})
	require.NoError(t, err)

	var content string
	err = db.Raw().QueryRow("SELECT content FROM docs").Scan(&content)
	require.NoError(t, err)
	assert.Contains(t, content, "/Users/alice/dev/myapp")
}

func TestIndexSkipsUnchanged(t *testing.T) {
	root := t.TempDir()
	path := writeClaudeFixture(t, root, sessionLog)
	db := openTestDB(t)

	_, err := index.IndexAll(db, index.Options{ClaudeRoot: root})
	require.NoError(t, err)

	stats, err := index.IndexAll(db, index.Options{ClaudeRoot: root})
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Indexed)
	assert.Equal(t, 1, stats.Skipped)

	// growing the file forces a re-parse
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"type":"user","message":{"content":"one more thing"}}` + "\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	// size changed; mtime granularity does not matter
	_ = os.Chtimes(path, time.Now(), time.Now())

	stats, err = index.IndexAll(db, index.Options{ClaudeRoot: root})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Indexed)
}

func TestIndexPrunesDeletedSessions(t *testing.T) {
	root := t.TempDir()
	path := writeClaudeFixture(t, root, sessionLog)
	db := openTestDB(t)

	_, err := index.IndexAll(db, index.Options{ClaudeRoot: root})
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))

	stats, err := index.IndexAll(db, index.Options{ClaudeRoot: root})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Pruned)

	count, err := db.SessionCount()
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	docs, err := db.DocCount()
	require.NoError(t, err)
	assert.Equal(t, 0, docs)
}

func TestIndexDiscardsEmptySessions(t *testing.T) {
	root := t.TempDir()
	writeClaudeFixture(t, root, `{"type":"summary","summary":"nothing conversational"}`+"\n")
	db := openTestDB(t)

	stats, err := index.IndexAll(db, index.Options{ClaudeRoot: root})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Scanned)
	assert.Equal(t, 0, stats.Indexed)

	count, err := db.SessionCount()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestIndexContentCapKeepsValidUTF8(t *testing.T) {
	// a cap landing inside a multibyte sequence must cut on the rune boundary
	root := t.TempDir()
	log := `{"type":"user","timestamp":"2026-03-01T10:00:00Z","sessionId":"` + sessionUUID + `","cwd":"/work","message":{"role":"user","content":"日本語のテキストで長さ制限を確認する"}}` + "\n"
	writeClaudeFixture(t, root, log)
	db := openTestDB(t)

	_, err := index.IndexAll(db, index.Options{ClaudeRoot: root, MaxContentLength: 5})
	require.NoError(t, err)

	var content string
	err = db.Raw().QueryRow("SELECT content FROM docs").Scan(&content)
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(content))
	assert.Equal(t, "日本語のテ", content)
}

func TestListAllAndFilters(t *testing.T) {
	root := t.TempDir()
	writeClaudeFixture(t, root, sessionLog)
	db := openTestDB(t)

	_, err := index.IndexAll(db, index.Options{ClaudeRoot: root})
	require.NoError(t, err)

	results, err := search.ListAll(db, search.Options{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "dev-myapp", results[0].Project)
	assert.NotEmpty(t, results[0].Snippet)

	results, err = search.Search(db, search.Options{Query: "capacitor", Source: "cursor"})
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = search.Search(db, search.Options{Query: "capacitor", Since: "2026-04-01"})
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = search.Search(db, search.Options{Query: "capacitor", Project: "dev-myapp"})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}
