package parse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halvore/scour/internal/anonymize"
)

func parseClaudeString(t *testing.T, log string, anon anonymize.Anonymizer, includeThinking bool) *Session {
	t.Helper()
	s, err := ParseClaude(strings.NewReader(log), "test-session", anon, includeThinking)
	require.NoError(t, err)
	return s
}

func TestParseClaudeBasicConversation(t *testing.T) {
	log := `{"type":"user","timestamp":"2026-03-01T10:00:00Z","cwd":"/Users/alice/proj","gitBranch":"main","version":"1.2.3","sessionId":"abc-123","message":{"role":"user","content":"hello there"}}
{"type":"assistant","timestamp":"2026-03-01T10:00:05Z","message":{"role":"assistant","model":"claude-opus-4","content":[{"type":"text","text":"hi!"}],"usage":{"input_tokens":10,"cache_read_input_tokens":5,"output_tokens":7}}}
`
	s := parseClaudeString(t, log, anonymize.Passthrough{}, true)
	require.NotNil(t, s)

	assert.Equal(t, "abc-123", s.SessionID, "sessionId from the log overrides the default")
	assert.Equal(t, "claude", s.Source)
	assert.Equal(t, "/Users/alice/proj", s.CWD)
	assert.Equal(t, "main", s.GitBranch)
	assert.Equal(t, "1.2.3", s.Version)
	assert.Equal(t, "claude-opus-4", s.Model)
	assert.Equal(t, "2026-03-01T10:00:00Z", s.StartTime)
	assert.Equal(t, "2026-03-01T10:00:05Z", s.EndTime)

	require.Len(t, s.Messages, 2)
	assert.Equal(t, Message{Role: "user", Content: "hello there", Timestamp: "2026-03-01T10:00:00Z"}, s.Messages[0])
	assert.Equal(t, "assistant", s.Messages[1].Role)
	assert.Equal(t, "hi!", s.Messages[1].Content)

	assert.Equal(t, 1, s.Stats.UserMessages)
	assert.Equal(t, 1, s.Stats.AssistantMessages)
	assert.Equal(t, 15, s.Stats.InputTokens)
	assert.Equal(t, 7, s.Stats.OutputTokens)
	assert.Equal(t, 0, s.Stats.SkippedLines)
}

func TestParseClaudeSkipsMalformedLines(t *testing.T) {
	log := `{"type":"user","message":{"content":"still parsed"}}
this line is not json at all
`
	s := parseClaudeString(t, log, anonymize.Passthrough{}, true)
	require.NotNil(t, s)
	assert.Len(t, s.Messages, 1)
	assert.Equal(t, 1, s.Stats.SkippedLines)
}

func TestParseClaudeEmptyTurnsDropped(t *testing.T) {
	log := `{"type":"user","message":{"content":"   \n "}}
{"type":"assistant","message":{"content":[]}}
{"type":"assistant","message":{"content":[{"type":"text","text":"  "}]}}
{"type":"summary","summary":"ignored record type"}
`
	s := parseClaudeString(t, log, anonymize.Passthrough{}, true)
	assert.Nil(t, s, "zero-message sessions are discarded")
}

func TestParseClaudeSegmentedUserContent(t *testing.T) {
	log := `{"type":"user","message":{"content":[{"type":"text","text":"part one"},{"type":"image"},{"type":"text","text":"part two"}]}}
`
	s := parseClaudeString(t, log, anonymize.Passthrough{}, true)
	require.NotNil(t, s)
	require.Len(t, s.Messages, 1)
	assert.Equal(t, "part one\npart two", s.Messages[0].Content)
}

func TestParseClaudeThinkingOptIn(t *testing.T) {
	log := `{"type":"assistant","message":{"content":[{"type":"thinking","thinking":"private reasoning"},{"type":"text","text":"answer"}]}}
`
	t.Run("included when requested", func(t *testing.T) {
		s := parseClaudeString(t, log, anonymize.Passthrough{}, true)
		require.NotNil(t, s)
		assert.Equal(t, "private reasoning", s.Messages[0].Thinking)
	})

	t.Run("excluded otherwise", func(t *testing.T) {
		s := parseClaudeString(t, log, anonymize.Passthrough{}, false)
		require.NotNil(t, s)
		assert.Empty(t, s.Messages[0].Thinking)
		assert.Equal(t, "answer", s.Messages[0].Content)
	})

	t.Run("thinking-only turn dropped without opt-in", func(t *testing.T) {
		thinkOnly := `{"type":"assistant","message":{"content":[{"type":"thinking","thinking":"just thoughts"}]}}
`
		s := parseClaudeString(t, thinkOnly, anonymize.Passthrough{}, false)
		assert.Nil(t, s)
	})
}

func TestParseClaudeToolUses(t *testing.T) {
	log := `{"type":"assistant","message":{"content":[{"type":"tool_use","name":"Read","input":{"file_path":"/Users/alice/main.go"}},{"type":"tool_use","name":"Bash","input":{"command":"ls -la"}}]}}
`
	s := parseClaudeString(t, log, anonymize.Passthrough{}, true)
	require.NotNil(t, s)
	require.Len(t, s.Messages, 1)
	require.Len(t, s.Messages[0].ToolUses, 2)
	assert.Equal(t, ToolUse{Tool: "read", Input: "/Users/alice/main.go"}, s.Messages[0].ToolUses[0])
	assert.Equal(t, ToolUse{Tool: "bash", Input: "ls -la"}, s.Messages[0].ToolUses[1])
	assert.Equal(t, 2, s.Stats.ToolUses)
}

func TestParseClaudeTokensAccumulateWithoutMessage(t *testing.T) {
	// An assistant record with no usable segments still contributes usage.
	log := `{"type":"assistant","message":{"model":"claude-haiku","content":[],"usage":{"input_tokens":100,"output_tokens":3}}}
{"type":"user","message":{"content":"keep session non-empty"}}
`
	s := parseClaudeString(t, log, anonymize.Passthrough{}, true)
	require.NotNil(t, s)
	assert.Equal(t, 100, s.Stats.InputTokens)
	assert.Equal(t, 3, s.Stats.OutputTokens)
	assert.Equal(t, "claude-haiku", s.Model)
}

func TestParseClaudeEnvironmentContextFirstWins(t *testing.T) {
	log := `{"type":"user","cwd":"/Users/alice/first","gitBranch":"dev","message":{"content":"one"}}
{"type":"user","cwd":"/Users/alice/second","gitBranch":"other","message":{"content":"two"}}
`
	hash := anonymize.HashIdentity("alice")
	anon := anonymize.NewForIdentity("/Users/alice", "alice", nil, nil)
	s := parseClaudeString(t, log, anon, true)
	require.NotNil(t, s)
	assert.Equal(t, "/Users/"+hash+"/first", s.CWD)
	assert.Equal(t, "dev", s.GitBranch)
}

func TestParseClaudeAnonymizesContent(t *testing.T) {
	log := `{"type":"user","message":{"content":"ask alice about /Users/alice/notes.md"}}
`
	hash := anonymize.HashIdentity("alice")
	anon := anonymize.NewForIdentity("/Users/alice", "alice", nil, nil)
	s := parseClaudeString(t, log, anon, true)
	require.NotNil(t, s)
	assert.Equal(t, "ask "+hash+" about /Users/"+hash+"/notes.md", s.Messages[0].Content)
}

func TestParseClaudeTimestamps(t *testing.T) {
	t.Run("epoch millis to ISO-8601 UTC", func(t *testing.T) {
		log := `{"type":"user","timestamp":1767225600000,"message":{"content":"epoch"}}
`
		s := parseClaudeString(t, log, anonymize.Passthrough{}, true)
		require.NotNil(t, s)
		assert.Equal(t, "2026-01-01T00:00:00Z", s.Messages[0].Timestamp)
	})

	t.Run("unrecognized shape yields absent", func(t *testing.T) {
		log := `{"type":"user","timestamp":{"weird":true},"message":{"content":"odd"}}
`
		s := parseClaudeString(t, log, anonymize.Passthrough{}, true)
		require.NotNil(t, s)
		assert.Empty(t, s.Messages[0].Timestamp)
	})

	t.Run("end time follows processing order", func(t *testing.T) {
		log := `{"type":"user","timestamp":"2026-03-01T12:00:00Z","message":{"content":"late"}}
{"type":"user","timestamp":"2026-03-01T09:00:00Z","message":{"content":"early"}}
`
		s := parseClaudeString(t, log, anonymize.Passthrough{}, true)
		require.NotNil(t, s)
		assert.Equal(t, "2026-03-01T12:00:00Z", s.StartTime)
		assert.Equal(t, "2026-03-01T09:00:00Z", s.EndTime)
	})
}

func TestParseClaudeFileMissing(t *testing.T) {
	_, err := ParseClaudeFile("/nonexistent/path/x.jsonl", anonymize.Passthrough{}, true)
	assert.Error(t, err)
}
