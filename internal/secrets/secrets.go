// Package secrets redacts credential-shaped substrings from session text
// before it is summarized, exported, or displayed.
package secrets

import (
	"regexp"
	"strings"
	"sync"
)

// Placeholder replaces every matched secret.
const Placeholder = "[REDACTED]"

// Finding reports one rule that fired. It never carries the secret value.
type Finding struct {
	RuleID string
	Count  int
}

type rule struct {
	id      string
	pattern string
	// keywords is a cheap lowercase prefilter; the regex only runs when one
	// of them occurs in the text. Empty means the pattern prefix is
	// self-identifying and always worth running.
	keywords []string
	re       *regexp.Regexp
}

var rules = []rule{
	{
		id:       "aws-access-key-id",
		pattern:  `(?:A3T[A-Z0-9]|AKIA|AGPA|AIDA|AROA|AIPA|ANPA|ANVA|ASIA)[A-Z0-9]{16}`,
		keywords: []string{"akia", "asia", "aroa", "aida", "a3t", "agpa", "aipa", "anpa", "anva"},
	},
	{
		id:       "aws-secret-access-key",
		pattern:  `(?i)(?:aws_secret_access_key|aws_secret_key|secret_access_key)\s*[:=]\s*['"]?[A-Za-z0-9/+=]{40}['"]?`,
		keywords: []string{"secret"},
	},
	{
		id:      "github-token",
		pattern: `(?:ghp|gho|ghu|ghs|ghr)_[A-Za-z0-9]{36}`,
	},
	{
		id:      "github-fine-grained",
		pattern: `github_pat_[A-Za-z0-9_]{22,}`,
	},
	{
		id:      "gitlab-token",
		pattern: `glpat-[A-Za-z0-9\-]{20,}`,
	},
	{
		id:      "slack-token",
		pattern: `xox[baprs]-[A-Za-z0-9\-]{10,}`,
	},
	{
		id:      "stripe-key",
		pattern: `(?:sk|pk|rk)_(?:live|test)_[A-Za-z0-9]{24,}`,
	},
	// anthropic-key must precede openai-key: the broader sk- pattern also
	// matches sk-ant- keys, and rules consume text in declaration order.
	{
		id:      "anthropic-key",
		pattern: `sk-ant-[A-Za-z0-9\-_]{32,}`,
	},
	{
		id:      "openai-key",
		pattern: `sk-(?:proj-)?[A-Za-z0-9_\-]{32,}`,
	},
	{
		id:      "private-key-block",
		pattern: `-----BEGIN (?:RSA |DSA |EC |OPENSSH |PGP )?PRIVATE KEY(?: BLOCK)?-----`,
	},
	{
		id:       "bearer-header",
		pattern:  `(?i)(?:authorization|bearer)[:\s]+[A-Za-z0-9._\-]{20,}`,
		keywords: []string{"authorization", "bearer"},
	},
	{
		id:       "url-credentials",
		pattern:  `(?i)(?:postgres|postgresql|mysql|mongodb|redis|amqp|https?)://[^\s:/@]+:[^\s@]+@[^\s]+`,
		keywords: []string{"://"},
	},
	{
		id:       "generic-assignment",
		pattern:  `(?i)(?:api[_-]?key|apikey|secret|token|password|passwd)\s*[:=]\s*['"]?[A-Za-z0-9/+_\-]{16,}['"]?`,
		keywords: []string{"key", "secret", "token", "password", "passwd"},
	},
}

var compileOnce sync.Once

func compileRules() {
	for i := range rules {
		rules[i].re = regexp.MustCompile(rules[i].pattern)
	}
}

// Redact replaces every secret-shaped match in text with Placeholder and
// reports which rules fired. Callers that also anonymize must redact first so
// truncation can never expose part of a secret.
func Redact(text string) (string, []Finding) {
	if text == "" {
		return text, nil
	}
	compileOnce.Do(compileRules)

	lower := strings.ToLower(text)
	var findings []Finding
	for i := range rules {
		r := &rules[i]
		if len(r.keywords) > 0 && !containsAny(lower, r.keywords) {
			continue
		}
		n := 0
		text = r.re.ReplaceAllStringFunc(text, func(string) string {
			n++
			return Placeholder
		})
		if n > 0 {
			findings = append(findings, Finding{RuleID: r.id, Count: n})
			lower = strings.ToLower(text)
		}
	}
	return text, findings
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
