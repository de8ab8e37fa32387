package parse

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/halvore/scour/internal/anonymize"
	"github.com/halvore/scour/internal/secrets"
)

// maxToolInputLen bounds every tool-input summary.
const maxToolInputLen = 300

// redactAndTruncate processes free text in the only safe order: secrets out
// first, then identities, then the length cap, so truncation can never split
// a secret in half or leave a recognizable identity at the cut.
func redactAndTruncate(text string, anon anonymize.Anonymizer) string {
	text, _ = secrets.Redact(text)
	return truncate(anon.Text(text), maxToolInputLen)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// toolSummarizer formats one tool's input map into a short display string.
type toolSummarizer func(in map[string]any, anon anonymize.Anonymizer) string

// toolSummaries maps a lower-cased tool name to its formatter. Adding a tool
// is one entry here; unknown tools fall through to the default branch in
// summarizeToolInput.
var toolSummaries = map[string]toolSummarizer{
	"read": func(in map[string]any, anon anonymize.Anonymizer) string {
		return anon.Path(str(in["file_path"]))
	},
	"edit": func(in map[string]any, anon anonymize.Anonymizer) string {
		return anon.Path(str(in["file_path"]))
	},
	"write": func(in map[string]any, anon anonymize.Anonymizer) string {
		return fmt.Sprintf("%s (%d chars)", anon.Path(str(in["file_path"])), len(str(in["content"])))
	},
	"bash": func(in map[string]any, anon anonymize.Anonymizer) string {
		return redactAndTruncate(str(in["command"]), anon)
	},
	"grep": func(in map[string]any, anon anonymize.Anonymizer) string {
		pattern, _ := secrets.Redact(str(in["pattern"]))
		return fmt.Sprintf("pattern=%s path=%s", anon.Text(pattern), anon.Path(str(in["path"])))
	},
	"glob": func(in map[string]any, anon anonymize.Anonymizer) string {
		return fmt.Sprintf("pattern=%s path=%s", anon.Text(str(in["pattern"])), anon.Path(str(in["path"])))
	},
	"task": func(in map[string]any, anon anonymize.Anonymizer) string {
		return redactAndTruncate(str(in["prompt"]), anon)
	},
	// Search queries and fetched URLs are already public text; they pass
	// through unredacted.
	"websearch": func(in map[string]any, _ anonymize.Anonymizer) string {
		return str(in["query"])
	},
	"webfetch": func(in map[string]any, _ anonymize.Anonymizer) string {
		return str(in["url"])
	},
}

// summarizeToolInput renders a bounded, redacted, anonymized summary of one
// tool invocation's input. Non-map inputs and unknown tools get the whole
// value stringified through the default path.
func summarizeToolInput(toolName string, input any, anon anonymize.Anonymizer) string {
	in, ok := input.(map[string]any)
	if !ok {
		return redactAndTruncate(stringify(input), anon)
	}
	if fn, ok := toolSummaries[strings.ToLower(toolName)]; ok {
		return fn(in, anon)
	}
	return redactAndTruncate(stringify(in), anon)
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// stripMCPPrefix removes the provider namespace from MCP-generated tool
// names. The underscore form is fixed-width ("mcp_server_tool"); the hyphen
// form embeds a variable-length server name ("mcp-srv-srv_tool-name" or
// "mcp-srv-user-srv_tool-name"), so it takes a scan to find where the server
// segment ends.
func stripMCPPrefix(name string) string {
	if !strings.HasPrefix(name, "mcp") {
		return name
	}
	if strings.HasPrefix(name, "mcp_") {
		parts := strings.SplitN(name, "_", 3)
		if len(parts) >= 3 {
			return parts[2]
		}
		return name
	}
	if strings.HasPrefix(name, "mcp-") {
		if pos := strings.Index(name[4:], "_"); pos >= 0 {
			underscorePos := pos + 4
			if dash := strings.LastIndex(name[:underscorePos], "-"); dash > 3 {
				return name[dash+1:]
			}
		}
		rest := name[4:]
		for length := 1; length <= len(rest)/2; length++ {
			server := rest[:length]
			after := rest[length:]
			for _, sep := range []string{"-", "-user-"} {
				marker := sep + server + "-"
				if strings.HasPrefix(after, marker) {
					return after[len(marker):]
				}
			}
		}
	}
	return name
}

// decodeNestedJSON unwraps values that were serialized again as text inside
// themselves, repeating until the value stops being a decodable string.
func decodeNestedJSON(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	var decoded any
	if err := json.Unmarshal([]byte(s), &decoded); err != nil {
		return v
	}
	return decodeNestedJSON(decoded)
}
