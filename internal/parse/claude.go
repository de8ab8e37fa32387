package parse

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/halvore/scour/internal/anonymize"
)

const maxLineSize = 10 * 1024 * 1024 // 10MB

type claudeRecord struct {
	Type      string          `json:"type"`
	Timestamp json.RawMessage `json:"timestamp"`
	Cwd       string          `json:"cwd"`
	GitBranch string          `json:"gitBranch"`
	Version   string          `json:"version"`
	SessionID string          `json:"sessionId"`
	Message   json.RawMessage `json:"message"`
}

type claudeMessage struct {
	Model   string          `json:"model"`
	Content json.RawMessage `json:"content"`
	Usage   claudeUsage     `json:"usage"`
}

type claudeUsage struct {
	InputTokens          int `json:"input_tokens"`
	CacheReadInputTokens int `json:"cache_read_input_tokens"`
	OutputTokens         int `json:"output_tokens"`
}

type claudeContentBlock struct {
	Type     string          `json:"type"`
	Text     string          `json:"text"`
	Thinking string          `json:"thinking"`
	Name     string          `json:"name"`
	Input    json.RawMessage `json:"input"`
}

// ParseClaudeFile parses one Claude Code session log. The session id defaults
// to the file stem; a sessionId inside the log overrides it.
func ParseClaudeFile(path string, anon anonymize.Anonymizer, includeThinking bool) (*Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sessionID := strings.TrimSuffix(filepath.Base(path), ".jsonl")
	return ParseClaude(f, sessionID, anon, includeThinking)
}

// ParseClaude reconstructs a conversation from an append-only JSONL event
// stream. Malformed lines are counted and skipped, never fatal. A nil session
// with nil error means the stream produced no messages.
func ParseClaude(r io.Reader, sessionID string, anon anonymize.Anonymizer, includeThinking bool) (*Session, error) {
	s := &Session{
		SessionID: sessionID,
		Source:    "claude",
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec claudeRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			s.Stats.SkippedLines++
			continue
		}

		// Environment context from the first record that carries a cwd.
		if s.CWD == "" && rec.Cwd != "" {
			s.CWD = anon.Path(rec.Cwd)
			s.GitBranch = rec.GitBranch
			s.Version = rec.Version
			if rec.SessionID != "" {
				s.SessionID = rec.SessionID
			}
		}

		ts := normalizeTimestamp(rec.Timestamp)

		switch rec.Type {
		case "user":
			content := extractUserContent(rec.Message, anon)
			if content == "" {
				continue
			}
			s.appendMessage(Message{Role: "user", Content: content, Timestamp: ts})
			s.Stats.UserMessages++

		case "assistant":
			var msg claudeMessage
			if err := json.Unmarshal(rec.Message, &msg); err != nil {
				continue
			}
			if s.Model == "" && msg.Model != "" {
				s.Model = msg.Model
			}
			s.Stats.InputTokens += msg.Usage.InputTokens + msg.Usage.CacheReadInputTokens
			s.Stats.OutputTokens += msg.Usage.OutputTokens

			m, ok := extractAssistantContent(msg.Content, anon, includeThinking)
			if !ok {
				continue
			}
			m.Timestamp = ts
			s.appendMessage(m)
			s.Stats.AssistantMessages++
			s.Stats.ToolUses += len(m.ToolUses)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(s.Messages) == 0 {
		return nil, nil
	}
	return s, nil
}

// appendMessage records a message and advances the time bounds. StartTime is
// set once from the first message; EndTime tracks the last processed message,
// relying on the log being append-ordered.
func (s *Session) appendMessage(m Message) {
	if s.StartTime == "" {
		s.StartTime = m.Timestamp
	}
	s.EndTime = m.Timestamp
	s.Messages = append(s.Messages, m)
}

func extractUserContent(raw json.RawMessage, anon anonymize.Anonymizer) string {
	var msg claudeMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return ""
	}

	var content string
	if err := json.Unmarshal(msg.Content, &content); err != nil {
		var blocks []claudeContentBlock
		if err := json.Unmarshal(msg.Content, &blocks); err != nil {
			return ""
		}
		var parts []string
		for _, b := range blocks {
			if b.Type == "text" {
				parts = append(parts, b.Text)
			}
		}
		content = strings.Join(parts, "\n")
	}
	if strings.TrimSpace(content) == "" {
		return ""
	}
	return anon.Text(content)
}

func extractAssistantContent(raw json.RawMessage, anon anonymize.Anonymizer, includeThinking bool) (Message, bool) {
	var blocks []claudeContentBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return Message{}, false
	}

	var textParts, thinkingParts []string
	var toolUses []ToolUse

	for _, b := range blocks {
		switch b.Type {
		case "text":
			if text := strings.TrimSpace(b.Text); text != "" {
				textParts = append(textParts, anon.Text(text))
			}
		case "thinking":
			if !includeThinking {
				continue
			}
			if thinking := strings.TrimSpace(b.Thinking); thinking != "" {
				thinkingParts = append(thinkingParts, anon.Text(thinking))
			}
		case "tool_use":
			var input any
			if len(b.Input) > 0 {
				json.Unmarshal(b.Input, &input)
			}
			toolUses = append(toolUses, ToolUse{
				Tool:  strings.ToLower(b.Name),
				Input: summarizeToolInput(b.Name, input, anon),
			})
		}
	}

	if len(textParts) == 0 && len(thinkingParts) == 0 && len(toolUses) == 0 {
		return Message{}, false
	}
	return Message{
		Role:     "assistant",
		Content:  strings.Join(textParts, "\n\n"),
		Thinking: strings.Join(thinkingParts, "\n\n"),
		ToolUses: toolUses,
	}, true
}

// normalizeTimestamp accepts an ISO-8601 string (kept as-is) or an
// epoch-milliseconds number (rendered as UTC ISO-8601). Anything else is
// treated as absent.
func normalizeTimestamp(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var ms float64
	if err := json.Unmarshal(raw, &ms); err == nil {
		return time.UnixMilli(int64(ms)).UTC().Format(time.RFC3339)
	}
	return ""
}
