package parse

// Session is one reconstructed conversation, shared by both source parsers.
// Timestamps are ISO-8601 strings; "" means the source never supplied one.
type Session struct {
	SessionID string    `json:"session_id"`
	Source    string    `json:"source"` // "claude" or "cursor"
	Project   string    `json:"project,omitempty"`
	Model     string    `json:"model,omitempty"`
	GitBranch string    `json:"git_branch,omitempty"`
	CWD       string    `json:"cwd,omitempty"`
	Version   string    `json:"version,omitempty"`
	StartTime string    `json:"start_time,omitempty"`
	EndTime   string    `json:"end_time,omitempty"`
	Messages  []Message `json:"messages"`
	Stats     Stats     `json:"stats"`
}

// Message is one conversational turn. A message is only appended when it
// carries at least one of content, thinking, or tool uses.
type Message struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content,omitempty"`
	Thinking  string    `json:"thinking,omitempty"`
	ToolUses  []ToolUse `json:"tool_uses,omitempty"`
	Timestamp string    `json:"timestamp,omitempty"`
}

// ToolUse summarizes one tool invocation. Output and Status are only
// populated by the cursor parser; the claude log format does not carry them.
type ToolUse struct {
	Tool   string         `json:"tool"`
	Input  string         `json:"input"`
	Output map[string]any `json:"output,omitempty"`
	Status string         `json:"status,omitempty"`
}

type Stats struct {
	UserMessages      int `json:"user_messages"`
	AssistantMessages int `json:"assistant_messages"`
	ToolUses          int `json:"tool_uses"`
	InputTokens       int `json:"input_tokens"`
	OutputTokens      int `json:"output_tokens"`
	SkippedLines      int `json:"skipped_lines"`
}
