package scan

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/halvore/scour/internal/parse"
)

// SessionRef identifies one discoverable session before parsing.
type SessionRef struct {
	Key        string // "claude:<projectDir>/<id>" or "cursor:<composerID>"
	Source     string // "claude" or "cursor"
	SessionID  string
	Path       string // session file, or the cursor store file
	ProjectDir string // hyphen-encoded dir name, or workspace path
	Project    string // display name
	Mtime      int64
	Size       int64
}

// Project groups sessions for discovery listings.
type Project struct {
	DirName        string
	DisplayName    string
	Source         string
	SessionCount   int
	TotalSizeBytes int64
}

// ScanClaude walks <root>/<project>/*.jsonl. Session files are UUID-named;
// anything else (index artifacts, subagent logs) is skipped.
func ScanClaude(root string) ([]SessionRef, error) {
	var refs []SessionRef
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip unreadable dirs
		}
		if info.IsDir() {
			if filepath.Base(path) == "subagents" {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".jsonl" {
			return nil
		}
		base := filepath.Base(path)
		if strings.Contains(base, "sessions-index") {
			return nil
		}
		sessionID := strings.TrimSuffix(base, ".jsonl")
		if _, err := uuid.Parse(sessionID); err != nil {
			return nil
		}
		projectDir := filepath.Base(filepath.Dir(path))
		refs = append(refs, SessionRef{
			Key:        "claude:" + projectDir + "/" + sessionID,
			Source:     "claude",
			SessionID:  sessionID,
			Path:       path,
			ProjectDir: projectDir,
			Project:    DisplayName(projectDir),
			Mtime:      info.ModTime().Unix(),
			Size:       info.Size(),
		})
		return nil
	})
	if os.IsNotExist(err) {
		return nil, nil
	}
	return refs, err
}

// ScanCursor enumerates conversations in the cursor store. The store has no
// per-session mtime, so refs carry the store file's own mtime and an even
// size split; any store change reindexes all cursor sessions.
func ScanCursor(dbPath string) ([]SessionRef, error) {
	info, err := os.Stat(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	store, err := parse.OpenCursorStore(dbPath)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	sessions, err := store.Sessions()
	if err != nil {
		return nil, err
	}

	size := info.Size()
	if n := int64(len(sessions)); n > 0 {
		size /= n
	}

	refs := make([]SessionRef, 0, len(sessions))
	for _, s := range sessions {
		refs = append(refs, SessionRef{
			Key:        "cursor:" + s.ComposerID,
			Source:     "cursor",
			SessionID:  s.ComposerID,
			Path:       dbPath,
			ProjectDir: s.Workspace,
			Project:    CursorDisplayName(s.Workspace),
			Mtime:      info.ModTime().Unix(),
			Size:       size,
		})
	}
	return refs, nil
}

// ScanAll discovers sessions from both sources. A missing root or store is
// an empty contribution, not an error.
func ScanAll(claudeRoot, cursorDB string) ([]SessionRef, error) {
	var refs []SessionRef
	if claudeRoot != "" {
		cr, err := ScanClaude(claudeRoot)
		if err != nil {
			return nil, err
		}
		refs = append(refs, cr...)
	}
	if cursorDB != "" {
		cu, err := ScanCursor(cursorDB)
		if err != nil {
			return nil, err
		}
		refs = append(refs, cu...)
	}
	return refs, nil
}

// Projects aggregates discovered sessions per project, sorted by display
// name for stable output.
func Projects(claudeRoot, cursorDB string) ([]Project, error) {
	refs, err := ScanAll(claudeRoot, cursorDB)
	if err != nil {
		return nil, err
	}

	byDir := make(map[string]*Project)
	var order []string
	for _, r := range refs {
		key := r.Source + ":" + r.ProjectDir
		p, ok := byDir[key]
		if !ok {
			p = &Project{DirName: r.ProjectDir, DisplayName: r.Project, Source: r.Source}
			byDir[key] = p
			order = append(order, key)
		}
		p.SessionCount++
		p.TotalSizeBytes += r.Size
	}

	projects := make([]Project, 0, len(order))
	for _, key := range order {
		projects = append(projects, *byDir[key])
	}
	sort.Slice(projects, func(i, j int) bool {
		if projects[i].DisplayName != projects[j].DisplayName {
			return projects[i].DisplayName < projects[j].DisplayName
		}
		return projects[i].DirName < projects[j].DirName
	})
	return projects, nil
}
