package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	cfg, err := loadFrom(filepath.Join(home, "no-such-config.toml"), home)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".claude", "projects"), cfg.ClaudeRoot)
	assert.Equal(t, filepath.Join(home, ".config", "scour", "scour.db"), cfg.DBPath)
	assert.NotEmpty(t, cfg.CursorDB)
	assert.Empty(t, cfg.RedactUsernames)
	assert.False(t, cfg.IncludeThinking)
	assert.Zero(t, cfg.MaxContentLength)
}

func TestLoadFromFile(t *testing.T) {
	home := t.TempDir()
	cfgPath := filepath.Join(home, "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
claude_root = "~/logs/claude"
cursor_db = "/data/cursor/state.vscdb"
redact_usernames = ["alice", "bob"]
include_thinking = true
max_content_length = 5000
`), 0o644))

	cfg, err := loadFrom(cfgPath, home)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "logs", "claude"), cfg.ClaudeRoot)
	assert.Equal(t, "/data/cursor/state.vscdb", cfg.CursorDB)
	assert.Equal(t, []string{"alice", "bob"}, cfg.RedactUsernames)
	assert.True(t, cfg.IncludeThinking)
	assert.Equal(t, 5000, cfg.MaxContentLength)
	// db_path not set in the file falls back to the default
	assert.Equal(t, filepath.Join(home, ".config", "scour", "scour.db"), cfg.DBPath)
}

func TestLoadBadToml(t *testing.T) {
	home := t.TempDir()
	cfgPath := filepath.Join(home, "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("claude_root = ["), 0o644))

	_, err := loadFrom(cfgPath, home)
	assert.Error(t, err)
}
