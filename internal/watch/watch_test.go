package watch

import (
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
)

func TestRelevant(t *testing.T) {
	w := New("/logs/claude", "/cursor/state.vscdb", nil, nil)

	cases := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"session write under claude root",
			fsnotify.Event{Name: "/logs/claude/proj/abc.jsonl", Op: fsnotify.Write}, true},
		{"session create under claude root",
			fsnotify.Event{Name: "/logs/claude/proj/abc.jsonl", Op: fsnotify.Create}, true},
		{"non-session file under claude root",
			fsnotify.Event{Name: "/logs/claude/proj/notes.txt", Op: fsnotify.Write}, false},
		{"cursor store write",
			fsnotify.Event{Name: "/cursor/state.vscdb", Op: fsnotify.Write}, true},
		{"cursor wal sibling",
			fsnotify.Event{Name: "/cursor/state.vscdb-wal", Op: fsnotify.Write}, false},
		{"unrelated path",
			fsnotify.Event{Name: "/tmp/other.jsonl", Op: fsnotify.Write}, false},
		{"chmod only",
			fsnotify.Event{Name: "/logs/claude/proj/abc.jsonl", Op: fsnotify.Chmod}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, w.relevant(tc.ev))
		})
	}
}

func TestUnderClaudeRoot(t *testing.T) {
	w := New("/logs/claude", "", nil, nil)

	assert.True(t, w.underClaudeRoot("/logs/claude/proj"))
	assert.False(t, w.underClaudeRoot("/logs/claude"))
	assert.False(t, w.underClaudeRoot("/logs/other"))
	assert.False(t, w.underClaudeRoot("/elsewhere"))

	none := New("", "", nil, nil)
	assert.False(t, none.underClaudeRoot("/logs/claude/proj"))
}
