package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestScanClaude(t *testing.T) {
	root := t.TempDir()
	proj := filepath.Join(root, "-Users-alice-Documents-myapp")

	writeFile(t, filepath.Join(proj, "0e8bbd2c-8c5a-4a6b-9f00-1b2c3d4e5f60.jsonl"), "{}\n")
	writeFile(t, filepath.Join(proj, "not-a-uuid.jsonl"), "{}\n")
	writeFile(t, filepath.Join(proj, "sessions-index.jsonl"), "{}\n")
	writeFile(t, filepath.Join(proj, "notes.txt"), "skip\n")
	writeFile(t, filepath.Join(proj, "subagents", "1e8bbd2c-8c5a-4a6b-9f00-1b2c3d4e5f60.jsonl"), "{}\n")

	refs, err := ScanClaude(root)
	require.NoError(t, err)
	require.Len(t, refs, 1, "only UUID-named session files count")

	r := refs[0]
	assert.Equal(t, "claude", r.Source)
	assert.Equal(t, "0e8bbd2c-8c5a-4a6b-9f00-1b2c3d4e5f60", r.SessionID)
	assert.Equal(t, "-Users-alice-Documents-myapp", r.ProjectDir)
	assert.Equal(t, "myapp", r.Project)
	assert.Equal(t, "claude:-Users-alice-Documents-myapp/0e8bbd2c-8c5a-4a6b-9f00-1b2c3d4e5f60", r.Key)
	assert.Positive(t, r.Mtime)
	assert.Positive(t, r.Size)
}

func TestScanClaudeMissingRoot(t *testing.T) {
	refs, err := ScanClaude(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestScanCursorMissingStore(t *testing.T) {
	refs, err := ScanCursor(filepath.Join(t.TempDir(), "state.vscdb"))
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestProjects(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "-Users-alice-appone", "0e8bbd2c-8c5a-4a6b-9f00-1b2c3d4e5f60.jsonl"), "{}\n")
	writeFile(t, filepath.Join(root, "-Users-alice-appone", "1e8bbd2c-8c5a-4a6b-9f00-1b2c3d4e5f60.jsonl"), "{}\n")
	writeFile(t, filepath.Join(root, "-Users-alice-apptwo", "2e8bbd2c-8c5a-4a6b-9f00-1b2c3d4e5f60.jsonl"), "{}\n")

	projects, err := Projects(root, "")
	require.NoError(t, err)
	require.Len(t, projects, 2)

	assert.Equal(t, "appone", projects[0].DisplayName)
	assert.Equal(t, 2, projects[0].SessionCount)
	assert.Positive(t, projects[0].TotalSizeBytes)
	assert.Equal(t, "apptwo", projects[1].DisplayName)
	assert.Equal(t, 1, projects[1].SessionCount)
}
