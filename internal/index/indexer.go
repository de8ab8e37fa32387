package index

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/halvore/scour/internal/anonymize"
	"github.com/halvore/scour/internal/parse"
	"github.com/halvore/scour/internal/scan"
)

type Stats struct {
	Scanned int
	Indexed int
	Skipped int
	Pruned  int
	Failed  int
}

func (s Stats) String() string {
	return fmt.Sprintf("scanned=%d indexed=%d skipped=%d pruned=%d failed=%d",
		s.Scanned, s.Indexed, s.Skipped, s.Pruned, s.Failed)
}

// Options controls an index pass.
type Options struct {
	ClaudeRoot string
	CursorDB   string
	// MaxContentLength caps a document's indexed content in characters.
	MaxContentLength int
	Log              *zap.Logger
}

const defaultMaxContentLength = 20000

// IndexAll scans both sources and brings the index up to date. Sessions are
// parsed with the pass-through anonymizer: the index holds raw, searchable
// terms at rest, protected by file permissions, and anonymization happens at
// display time only. Per-session failures are logged and counted, never
// fatal to the pass.
func IndexAll(db *DB, opts Options) (Stats, error) {
	var stats Stats
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MaxContentLength <= 0 {
		opts.MaxContentLength = defaultMaxContentLength
	}

	refs, err := scan.ScanAll(opts.ClaudeRoot, opts.CursorDB)
	if err != nil {
		return stats, fmt.Errorf("scan: %w", err)
	}
	stats.Scanned = len(refs)

	// A single read-only handle serves every cursor session in the pass.
	var cursorStore *parse.CursorStore
	if opts.CursorDB != "" {
		if cs, err := parse.OpenCursorStore(opts.CursorDB); err == nil {
			cursorStore = cs
			defer cursorStore.Close()
		} else {
			log.Warn("cursor store unavailable", zap.String("path", opts.CursorDB), zap.Error(err))
		}
	}

	// track which sessions we see, for pruning
	seenKeys := make(map[string]struct{})

	for _, ref := range refs {
		seenKeys[ref.Key] = struct{}{}

		needs, err := needsUpdate(db, ref.Key, ref.Mtime, ref.Size)
		if err != nil {
			stats.Failed++
			log.Warn("index state lookup failed", zap.String("session", ref.Key), zap.Error(err))
			continue
		}
		if !needs {
			stats.Skipped++
			continue
		}

		session, err := parseRef(ref, cursorStore)
		if err != nil {
			stats.Failed++
			log.Warn("parse failed", zap.String("session", ref.Key), zap.Error(err))
			continue
		}
		if session == nil {
			delete(seenKeys, ref.Key) // empty sessions get pruned if previously indexed
			continue
		}
		session.Project = ref.Project

		if err := indexSession(db, ref, session, opts.MaxContentLength); err != nil {
			stats.Failed++
			log.Warn("index write failed", zap.String("session", ref.Key), zap.Error(err))
			continue
		}
		stats.Indexed++
	}

	pruned, err := pruneSessions(db, seenKeys)
	if err != nil {
		return stats, fmt.Errorf("prune: %w", err)
	}
	stats.Pruned = pruned

	log.Info("index pass complete",
		zap.Int("scanned", stats.Scanned),
		zap.Int("indexed", stats.Indexed),
		zap.Int("skipped", stats.Skipped),
		zap.Int("pruned", stats.Pruned),
		zap.Int("failed", stats.Failed))
	return stats, nil
}

func parseRef(ref scan.SessionRef, cursorStore *parse.CursorStore) (*parse.Session, error) {
	switch ref.Source {
	case "claude":
		return parse.ParseClaudeFile(ref.Path, anonymize.Passthrough{}, true)
	case "cursor":
		if cursorStore == nil {
			return nil, fmt.Errorf("cursor store not open")
		}
		return cursorStore.ParseCursorSession(ref.SessionID, anonymize.Passthrough{}, true)
	default:
		return nil, fmt.Errorf("unknown source: %s", ref.Source)
	}
}

func needsUpdate(db *DB, sessionKey string, mtime, size int64) (bool, error) {
	info, err := db.GetSessionInfo(sessionKey)
	if err != nil {
		return false, err
	}
	if info == nil {
		return true, nil // new session
	}
	return info.Mtime != mtime || info.Size != size, nil
}

// buildDocument flattens a session into the one searchable document shape:
// id, title "<project> - <date>", and space-joined message content. Thinking
// is excluded; it is bulky and rarely what anyone searches for.
func buildDocument(session *parse.Session, maxContentLength int) (title, content string) {
	var parts []string
	for _, m := range session.Messages {
		if m.Content != "" {
			parts = append(parts, m.Content)
		}
	}
	content = strings.Join(parts, " ")
	// cap on a rune boundary so a split multibyte character never reaches FTS
	if runes := []rune(content); len(runes) > maxContentLength {
		content = string(runes[:maxContentLength])
	}

	date := "unknown"
	if len(session.StartTime) >= 10 {
		date = session.StartTime[:10]
	}
	return session.Project + " - " + date, content
}

func indexSession(db *DB, ref scan.SessionRef, session *parse.Session, maxContentLength int) error {
	if err := db.DeleteSession(ref.Key); err != nil {
		return err
	}

	tx, err := db.Raw().Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO sessions (session_key, session_id, source, file_path, project, model, cwd, git_branch,
		                       start_time, end_time, user_messages, assistant_messages, tool_uses,
		                       input_tokens, output_tokens, skipped_lines, mtime, size)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ref.Key,
		session.SessionID,
		session.Source,
		ref.Path,
		session.Project,
		session.Model,
		session.CWD,
		session.GitBranch,
		session.StartTime,
		session.EndTime,
		session.Stats.UserMessages,
		session.Stats.AssistantMessages,
		session.Stats.ToolUses,
		session.Stats.InputTokens,
		session.Stats.OutputTokens,
		session.Stats.SkippedLines,
		ref.Mtime,
		ref.Size,
	)
	if err != nil {
		return err
	}

	title, content := buildDocument(session, maxContentLength)
	if content != "" {
		if _, err := tx.Exec(
			"INSERT INTO docs (session_key, title, content) VALUES (?, ?, ?)",
			ref.Key, title, content,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func pruneSessions(db *DB, seenKeys map[string]struct{}) (int, error) {
	allKeys, err := db.AllSessionKeys()
	if err != nil {
		return 0, err
	}

	pruned := 0
	for key := range allKeys {
		if _, ok := seenKeys[key]; !ok {
			if err := db.DeleteSession(key); err != nil {
				return pruned, err
			}
			pruned++
		}
	}
	return pruned, nil
}
