package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halvore/scour/internal/parse"
)

func testSession() *parse.Session {
	return &parse.Session{
		SessionID: "abc-123",
		Source:    "claude",
		Model:     "claude-opus-4",
		CWD:       "/work/proj",
		Messages: []parse.Message{
			{Role: "user", Content: "how do I parse this log", Timestamp: "2026-03-01T10:00:00Z"},
			{
				Role:     "assistant",
				Content:  "use a streaming scanner",
				Thinking: "the file can be large",
				ToolUses: []parse.ToolUse{
					{Tool: "read", Input: "/work/proj/main.go", Status: "completed"},
				},
				Timestamp: "2026-03-01T10:00:05Z",
			},
		},
	}
}

func TestConversationLayout(t *testing.T) {
	out, hit := Conversation(testSession(), Options{})
	assert.Equal(t, -1, hit, "no query means no hit line")

	assert.Contains(t, out, "abc-123")
	assert.Contains(t, out, "USER >")
	assert.Contains(t, out, "ASST >")
	assert.Contains(t, out, "how do I parse this log")
	assert.Contains(t, out, "use a streaming scanner")
	assert.Contains(t, out, "THINK the file can be large")
	assert.Contains(t, out, "TOOL read")
	assert.Contains(t, out, "/work/proj/main.go")
	assert.Contains(t, out, "[completed]")
}

func TestConversationHitLine(t *testing.T) {
	out, hit := Conversation(testSession(), Options{Query: "scanner"})
	require.Greater(t, hit, 0, "hit should land past the header")

	lines := strings.Split(out, "\n")
	// the hit line marks the start of the matching message block
	assert.Contains(t, lines[hit], "ASST")
	assert.Contains(t, out, colorBoldRed+"scanner"+colorReset)
}

func TestConversationEmpty(t *testing.T) {
	out, hit := Conversation(nil, Options{})
	assert.Equal(t, "(empty session)", out)
	assert.Equal(t, -1, hit)
}

func TestHighlightKeywordsSkipsOperators(t *testing.T) {
	out := highlightKeywords("cache AND disk", "cache AND")
	assert.Contains(t, out, colorBoldRed+"cache"+colorReset)
	assert.NotContains(t, out, colorBoldRed+"AND")
}

func TestWrapLine(t *testing.T) {
	t.Run("plain text wraps at width", func(t *testing.T) {
		lines := wrapLine("abcdefghij", 4)
		assert.Equal(t, []string{"abcd", "efgh", "ij"}, lines)
	})

	t.Run("ansi escapes cost no width", func(t *testing.T) {
		colored := "\033[1;31mabcd\033[0m"
		lines := wrapLine(colored, 4)
		require.Len(t, lines, 1)
		assert.Equal(t, colored, lines[0])
	})

	t.Run("zero width disables wrapping", func(t *testing.T) {
		lines := wrapLine("abcdefghij", 0)
		assert.Equal(t, []string{"abcdefghij"}, lines)
	})

	t.Run("wide runes count double", func(t *testing.T) {
		lines := wrapLine("日本語", 4)
		assert.Equal(t, []string{"日本", "語"}, lines)
	})
}
