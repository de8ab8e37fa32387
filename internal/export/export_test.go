package export

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halvore/scour/internal/parse"
)

func sampleSession() *parse.Session {
	return &parse.Session{
		SessionID: "abc-123",
		Source:    "claude",
		Project:   "myapp",
		Model:     "claude-sonnet-4",
		StartTime: "2026-01-01T00:00:00Z",
		EndTime:   "2026-01-01T00:05:00Z",
		Messages: []parse.Message{
			{Role: "user", Content: "hello there", Timestamp: "2026-01-01T00:00:00Z"},
			{Role: "assistant", Content: "hi", Timestamp: "2026-01-01T00:05:00Z"},
		},
		Stats: parse.Stats{UserMessages: 1, AssistantMessages: 1},
	}
}

func TestWriteSessionPlainJSON(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteSession(sampleSession(), Options{Dir: dir})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "claude-abc-123.json"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"hello there"`)

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sampleSession(), got)
}

func TestWriteSessionCompressed(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteSession(sampleSession(), Options{Dir: dir, Compress: true})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".json.zst"))

	// the raw file must not contain the plaintext
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hello there")

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sampleSession(), got)
}

func TestWriteSessionSanitizesID(t *testing.T) {
	dir := t.TempDir()
	s := sampleSession()
	s.SessionID = "weird/id:here"
	path, err := WriteSession(s, Options{Dir: dir})
	require.NoError(t, err)
	assert.Contains(t, path, "weird_id_here")
}

func TestWriteSessionNil(t *testing.T) {
	_, err := WriteSession(nil, Options{Dir: t.TempDir()})
	assert.Error(t, err)
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile("/nonexistent/file.json")
	assert.Error(t, err)
}
