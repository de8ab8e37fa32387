package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

type Config struct {
	ClaudeRoot       string   `toml:"claude_root"`
	CursorDB         string   `toml:"cursor_db"`
	DBPath           string   `toml:"db_path"`
	RedactUsernames  []string `toml:"redact_usernames"`
	IncludeThinking  bool     `toml:"include_thinking"`
	MaxContentLength int      `toml:"max_content_length"`
}

func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return loadFrom(filepath.Join(home, ".config", "scour", "config.toml"), home)
}

func loadFrom(cfgPath, home string) (*Config, error) {
	cfg := &Config{
		ClaudeRoot: filepath.Join(home, ".claude", "projects"),
		CursorDB:   defaultCursorDB(home),
		DBPath:     filepath.Join(home, ".config", "scour", "scour.db"),
	}

	if _, err := os.Stat(cfgPath); err == nil {
		if _, err := toml.DecodeFile(cfgPath, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
	}

	// expand ~ in paths
	cfg.ClaudeRoot = expandHome(cfg.ClaudeRoot, home)
	cfg.CursorDB = expandHome(cfg.CursorDB, home)
	cfg.DBPath = expandHome(cfg.DBPath, home)

	return cfg, nil
}

// defaultCursorDB is the per-platform location of Cursor's global
// key-value store.
func defaultCursorDB(home string) string {
	const tail = "state.vscdb"
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Cursor",
			"User", "globalStorage", tail)
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "Cursor", "User", "globalStorage", tail)
		}
		return filepath.Join(home, "AppData", "Roaming", "Cursor",
			"User", "globalStorage", tail)
	default:
		return filepath.Join(home, ".config", "Cursor", "User",
			"globalStorage", tail)
	}
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
