package parse

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/halvore/scour/internal/anonymize"
	"github.com/halvore/scour/internal/secrets"
)

// Cursor reports "no model" with an explicit placeholder instead of leaving
// the field absent.
const UnknownCursorModel = "cursor-unknown"

// UnknownCursorCwd groups sessions whose first turn carried no workspace.
const UnknownCursorCwd = "<unknown-cwd>"

// Bubble type discriminants in the cursorDiskKV store.
const (
	bubbleTypeUser      = 1
	bubbleTypeAssistant = 2
)

// CursorStore is a read-only handle on Cursor's state.vscdb key-value store.
// Read-only open keeps concurrent parses safe while Cursor itself is running.
type CursorStore struct {
	db   *sql.DB
	path string
}

// OpenCursorStore opens the store at path. The store is never written.
func OpenCursorStore(path string) (*CursorStore, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open cursor store: %w", err)
	}
	return &CursorStore{db: db, path: path}, nil
}

func (cs *CursorStore) Close() error { return cs.db.Close() }

// Path returns the store file location.
func (cs *CursorStore) Path() string { return cs.path }

type composerData struct {
	FullConversationHeadersOnly []bubbleHeader `json:"fullConversationHeadersOnly"`
	Conversation                []bubbleHeader `json:"conversation"`
}

type bubbleHeader struct {
	BubbleID string `json:"bubbleId"`
}

type cursorBubble struct {
	Type           int             `json:"type"`
	Text           string          `json:"text"`
	CreatedAt      json.RawMessage `json:"createdAt"`
	WorkspaceUris  []string        `json:"workspaceUris"`
	ModelInfo      *cursorModel    `json:"modelInfo"`
	Thinking       *cursorThinking `json:"thinking"`
	ToolFormerData *toolFormerData `json:"toolFormerData"`
	TokenCount     *tokenCount     `json:"tokenCount"`
}

type cursorModel struct {
	ModelName string `json:"modelName"`
}

type cursorThinking struct {
	Text string `json:"text"`
}

type toolFormerData struct {
	Name   string          `json:"name"`
	Params json.RawMessage `json:"params"`
	Result json.RawMessage `json:"result"`
	Status json.RawMessage `json:"status"`
}

type tokenCount struct {
	InputTokens  json.RawMessage `json:"inputTokens"`
	OutputTokens json.RawMessage `json:"outputTokens"`
}

// ParseCursorSession reconstructs one conversation from the store: the
// composer header supplies turn order, the bubble records supply payloads.
// A nil session with nil error means the header was absent, unparseable, or
// produced no messages. Headers referencing pruned bubbles are not an error;
// those turns are simply omitted.
func (cs *CursorStore) ParseCursorSession(composerID string, anon anonymize.Anonymizer, includeThinking bool) (*Session, error) {
	var value []byte
	err := cs.db.QueryRow(
		"SELECT value FROM cursorDiskKV WHERE key = ?",
		"composerData:"+composerID,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load composer %s: %w", composerID, err)
	}

	var composer composerData
	if err := json.Unmarshal(value, &composer); err != nil {
		return nil, nil
	}

	// Prefer the lightweight header list; fall back to the embedded
	// conversation when it is absent.
	headers := composer.FullConversationHeadersOnly
	if len(headers) == 0 {
		for _, b := range composer.Conversation {
			if b.BubbleID != "" {
				headers = append(headers, b)
			}
		}
	}
	if len(headers) == 0 {
		return nil, nil
	}

	bubbles, err := cs.fetchBubbles(composerID)
	if err != nil {
		return nil, fmt.Errorf("load bubbles %s: %w", composerID, err)
	}

	s := &Session{
		SessionID: composerID,
		Source:    "cursor",
	}

	for _, h := range headers {
		bubble, ok := bubbles[h.BubbleID]
		if !ok {
			continue
		}

		ts := normalizeTimestamp(bubble.CreatedAt)

		if s.CWD == "" && len(bubble.WorkspaceUris) > 0 && bubble.WorkspaceUris[0] != "" {
			s.CWD = anon.Path(strings.TrimPrefix(bubble.WorkspaceUris[0], "file://"))
		}
		if s.Model == "" && bubble.ModelInfo != nil && strings.TrimSpace(bubble.ModelInfo.ModelName) != "" {
			s.Model = bubble.ModelInfo.ModelName
		}

		switch bubble.Type {
		case bubbleTypeUser:
			text := strings.TrimSpace(bubble.Text)
			if text == "" {
				continue
			}
			redacted, _ := secrets.Redact(text)
			s.appendMessage(Message{Role: "user", Content: anon.Text(redacted), Timestamp: ts})
			s.Stats.UserMessages++

		case bubbleTypeAssistant:
			m, ok := cursorAssistantMessage(bubble, anon, includeThinking)
			if !ok {
				continue
			}
			m.Timestamp = ts
			s.appendMessage(m)
			s.Stats.AssistantMessages++
			s.Stats.ToolUses += len(m.ToolUses)
		}

		if tc := bubble.TokenCount; tc != nil {
			s.Stats.InputTokens += coerceInt(tc.InputTokens)
			s.Stats.OutputTokens += coerceInt(tc.OutputTokens)
		}
	}

	if len(s.Messages) == 0 {
		return nil, nil
	}
	if s.Model == "" {
		s.Model = UnknownCursorModel
	}
	return s, nil
}

// fetchBubbles bulk-loads every turn payload for one composer in a single
// prefix query, keyed by bubble id. One query instead of one round trip per
// header keeps reconstruction linear in conversation size.
func (cs *CursorStore) fetchBubbles(composerID string) (map[string]*cursorBubble, error) {
	rows, err := cs.db.Query(
		"SELECT key, value FROM cursorDiskKV WHERE key LIKE ?",
		"bubbleId:"+composerID+":%",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bubbles := make(map[string]*cursorBubble)
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		bid := key[strings.LastIndex(key, ":")+1:]
		var bubble cursorBubble
		if err := json.Unmarshal(value, &bubble); err != nil {
			continue
		}
		bubbles[bid] = &bubble
	}
	return bubbles, rows.Err()
}

func cursorAssistantMessage(bubble *cursorBubble, anon anonymize.Anonymizer, includeThinking bool) (Message, bool) {
	var m Message
	m.Role = "assistant"

	if bubble.ToolFormerData != nil && bubble.ToolFormerData.Name != "" {
		m.ToolUses = []ToolUse{buildCursorToolUse(bubble.ToolFormerData, anon)}
	}

	if includeThinking && bubble.Thinking != nil {
		m.Thinking = strings.TrimSpace(bubble.Thinking.Text)
		if m.Thinking != "" {
			m.Thinking = anon.Text(m.Thinking)
		}
	}
	if text := strings.TrimSpace(bubble.Text); text != "" {
		redacted, _ := secrets.Redact(text)
		m.Content = anon.Text(redacted)
	}

	if m.Content == "" && m.Thinking == "" && len(m.ToolUses) == 0 {
		return Message{}, false
	}
	return m, true
}

func buildCursorToolUse(tfd *toolFormerData, anon anonymize.Anonymizer) ToolUse {
	name := stripMCPPrefix(tfd.Name)

	params := decodeRawNested(tfd.Params)
	// A params value wrapping a single nested tool-call descriptor unwraps
	// to the inner call's own parameters.
	if pm, ok := params.(map[string]any); ok {
		if tools, ok := pm["tools"].([]any); ok && len(tools) == 1 {
			if call, ok := tools[0].(map[string]any); ok {
				if inner, ok := decodeNestedJSON(call["parameters"]).(map[string]any); ok {
					params = inner
				}
			}
		}
	}
	if _, ok := params.(map[string]any); !ok {
		params = map[string]any{}
	}

	tu := ToolUse{
		Tool:  strings.ToLower(name),
		Input: summarizeToolInput(name, params, anon),
	}

	switch result := decodeRawNested(tfd.Result).(type) {
	case nil:
	case string:
		if strings.TrimSpace(result) != "" {
			redacted, _ := secrets.Redact(result)
			tu.Output = map[string]any{"text": anon.Text(redacted)}
		}
	case map[string]any:
		out := make(map[string]any, len(result))
		for k, v := range result {
			if sv, ok := v.(string); ok {
				out[k] = anon.Text(sv)
			} else {
				out[k] = v
			}
		}
		if len(out) > 0 {
			tu.Output = out
		}
	default:
		tu.Output = map[string]any{"text": anon.Text(stringify(result))}
	}

	tu.Status = "unknown"
	switch status := decodeRawNested(tfd.Status).(type) {
	case string:
		tu.Status = status
	case map[string]any:
		if sv, ok := status["status"].(string); ok {
			tu.Status = sv
		}
	}

	return tu
}

// CursorSessionInfo is one discoverable conversation in the store.
type CursorSessionInfo struct {
	ComposerID string
	Workspace  string // first turn's workspace path, or UnknownCursorCwd
	TurnCount  int
}

// Sessions enumerates conversations with at least two turn references.
// One-bubble drafts are not worth indexing. The workspace comes from each
// conversation's first bubble, fetched in chunked batches rather than one
// query per conversation.
func (cs *CursorStore) Sessions() ([]CursorSessionInfo, error) {
	rows, err := cs.db.Query("SELECT key, value FROM cursorDiskKV WHERE key LIKE 'composerData:%'")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []CursorSessionInfo
	firstBubbleKey := make(map[string]string) // bubble key -> composer id
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		cid := strings.TrimPrefix(key, "composerData:")
		var composer composerData
		if err := json.Unmarshal(value, &composer); err != nil {
			continue
		}
		headers := composer.FullConversationHeadersOnly
		if len(headers) == 0 {
			headers = composer.Conversation
		}
		if len(headers) < 2 {
			continue
		}
		infos = append(infos, CursorSessionInfo{
			ComposerID: cid,
			Workspace:  UnknownCursorCwd,
			TurnCount:  len(headers),
		})
		if bid := headers[0].BubbleID; bid != "" {
			firstBubbleKey["bubbleId:"+cid+":"+bid] = cid
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	workspaces, err := cs.firstWorkspaces(firstBubbleKey)
	if err != nil {
		return nil, err
	}
	for i := range infos {
		if ws, ok := workspaces[infos[i].ComposerID]; ok {
			infos[i].Workspace = ws
		}
	}
	return infos, nil
}

func (cs *CursorStore) firstWorkspaces(keys map[string]string) (map[string]string, error) {
	const chunkSize = 200

	flat := make([]string, 0, len(keys))
	for k := range keys {
		flat = append(flat, k)
	}

	workspaces := make(map[string]string)
	for start := 0; start < len(flat); start += chunkSize {
		end := start + chunkSize
		if end > len(flat) {
			end = len(flat)
		}
		chunk := flat[start:end]

		placeholders := strings.Repeat("?,", len(chunk)-1) + "?"
		args := make([]any, len(chunk))
		for i, k := range chunk {
			args[i] = k
		}
		rows, err := cs.db.Query(
			"SELECT key, value FROM cursorDiskKV WHERE key IN ("+placeholders+")", args...)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var key string
			var value []byte
			if err := rows.Scan(&key, &value); err != nil {
				rows.Close()
				return nil, err
			}
			var bubble cursorBubble
			if err := json.Unmarshal(value, &bubble); err != nil {
				continue
			}
			if len(bubble.WorkspaceUris) > 0 && bubble.WorkspaceUris[0] != "" {
				workspaces[keys[key]] = strings.TrimPrefix(bubble.WorkspaceUris[0], "file://")
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return workspaces, nil
}

// decodeRawNested decodes a raw JSON value and keeps decoding while the
// result is itself a serialized document.
func decodeRawNested(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return decodeNestedJSON(v)
}

// coerceInt extracts a best-effort integer from a raw JSON value. Numbers
// and numeric strings count; everything else contributes zero.
func coerceInt(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int(f)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return n
		}
	}
	return 0
}
