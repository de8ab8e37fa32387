// Package anonymize rewrites identity markers (usernames, home-directory
// paths) in session text with stable hashed tokens.
package anonymize

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

const hashPrefix = "user_"

// HashIdentity maps an identity string to its replacement token. The token is
// a pure function of the input, so the same person gets the same token across
// sessions and across processes.
func HashIdentity(name string) string {
	sum := sha256.Sum256([]byte(name))
	return hashPrefix + hex.EncodeToString(sum[:])[:8]
}

// Anonymizer rewrites identity markers in free text and filesystem paths.
type Anonymizer interface {
	Text(s string) string
	Path(s string) string
}

// Passthrough satisfies Anonymizer without changing anything. The search
// indexer uses it so raw terms stay searchable; anonymization then happens at
// display time only.
type Passthrough struct{}

func (Passthrough) Text(s string) string { return s }
func (Passthrough) Path(s string) string { return s }

// Engine is a stateful anonymizer bound to one primary identity plus optional
// alternate identities (chat handles, VCS usernames).
type Engine struct {
	home     string
	username string
	hash     string
	extras   map[string]string
	extraRe  *regexp.Regexp
	log      *zap.Logger
}

var (
	_ Anonymizer = (*Engine)(nil)
	_ Anonymizer = Passthrough{}
)

// New builds an Engine for the current OS user. Extra identities shorter than
// four characters or equal to the detected username are dropped.
func New(extra []string, log *zap.Logger) *Engine {
	home, username := detectHome()
	return NewForIdentity(home, username, extra, log)
}

// NewForIdentity builds an Engine for an explicit home directory and
// username. Used by tests and by callers that anonymize on behalf of a
// different account than the one running the process.
func NewForIdentity(home, username string, extra []string, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		home:     home,
		username: username,
		hash:     HashIdentity(username),
		extras:   make(map[string]string),
		log:      log,
	}
	for _, name := range extra {
		name = strings.TrimSpace(name)
		if name == "" || name == username || utf8.RuneCountInString(name) < 4 {
			continue
		}
		e.extras[strings.ToLower(name)] = HashIdentity(name)
	}
	if len(e.extras) > 0 {
		names := make([]string, 0, len(e.extras))
		for name := range e.extras {
			names = append(names, name)
		}
		// Longer identities first so one name cannot shadow another that
		// contains it as a substring.
		sort.Slice(names, func(i, j int) bool {
			if len(names[i]) != len(names[j]) {
				return len(names[i]) > len(names[j])
			}
			return names[i] < names[j]
		})
		for i, n := range names {
			names[i] = regexp.QuoteMeta(n)
		}
		re, err := regexp.Compile("(?i)(?:" + strings.Join(names, "|") + ")")
		if err != nil {
			log.Warn("extra identity pattern failed to compile, alternate identities disabled", zap.Error(err))
		} else {
			e.extraRe = re
		}
	}
	return e
}

func detectHome() (home, username string) {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "", ""
	}
	return home, filepath.Base(home)
}

// Text rewrites every recognized identity occurrence in content.
func (e *Engine) Text(content string) string {
	result := anonymizeText(content, e.username, e.hash, e.home, e.log)
	if e.extraRe != nil && result != "" {
		result = replaceToken(result, e.extraRe, func(m string) string {
			if h, ok := e.extras[strings.ToLower(m)]; ok {
				return h
			}
			return m
		})
	}
	return result
}

// Path rewrites identity occurrences in a filesystem path. Paths are just
// text containing path-shaped substrings, so this delegates to Text.
func (e *Engine) Path(p string) string { return e.Text(p) }

// AnonymizeText rewrites occurrences of username in text with hash. Usernames
// of four or more characters are replaced wherever they appear as whole
// tokens; shorter ones only where a home-directory marker anchors them,
// because bare two- and three-letter tokens collide with ordinary words.
// home, when set to a non-conventional home directory, widens the short-name
// rule to occurrences of that exact path under any separator convention.
func AnonymizeText(text, username, hash, home string) string {
	return anonymizeText(text, username, hash, home, zap.NewNop())
}

func anonymizeText(text, username, hash, home string, log *zap.Logger) string {
	if text == "" || username == "" {
		return text
	}
	if !strings.Contains(strings.ToLower(text), strings.ToLower(username)) {
		return text
	}
	userRe, err := usernamePattern(username)
	if err != nil {
		log.Warn("username pattern failed to compile, text returned unanonymized", zap.Error(err))
		return text
	}
	if utf8.RuneCountInString(username) >= 4 {
		return replaceToken(text, userRe, func(string) string { return hash })
	}

	homeRe, err := homePattern(username)
	if err != nil {
		log.Warn("home pattern failed to compile, text returned unanonymized", zap.Error(err))
		return text
	}
	text = replaceHomeToken(text, homeRe, hash)

	if home != "" {
		customRe, err := customHomePattern(home)
		if err != nil {
			log.Warn("custom home pattern failed to compile", zap.Error(err), zap.String("home", home))
			return text
		}
		if customRe != nil {
			text = customRe.ReplaceAllStringFunc(text, func(m string) string {
				return replaceToken(m, userRe, func(string) string { return hash })
			})
		}
	}
	return text
}

// AnonymizePath is an alias for AnonymizeText; see Engine.Path.
func AnonymizePath(path, username, hash, home string) string {
	return AnonymizeText(path, username, hash, home)
}

// patternCache bounds compiled-pattern memory across identities. Values are
// immutable once inserted; racing duplicate compiles are harmless.
var patternCache, _ = lru.New[string, *regexp.Regexp](32)

func cachedPattern(key, expr string) (*regexp.Regexp, error) {
	if re, ok := patternCache.Get(key); ok {
		return re, nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	patternCache.Add(key, re)
	return re, nil
}

// usernamePattern matches the identity anywhere, case-insensitively. RE2 has
// no lookaround, so token boundaries are checked on the match edges in
// replaceToken instead.
func usernamePattern(username string) (*regexp.Regexp, error) {
	return cachedPattern("word:"+username, "(?i)"+regexp.QuoteMeta(username))
}

// homePattern matches /Users/<name>, \Users\<name>, -Users-<name> and the
// same shapes spelled "home", keeping the marker prefix as group 1. Case is
// ignored for Windows-style paths.
func homePattern(username string) (*regexp.Regexp, error) {
	return cachedPattern("home:"+username, `(?i)([/\\-]+(?:Users|home)[/\\-]+)`+regexp.QuoteMeta(username))
}

// customHomePattern matches a non-conventional home directory with its
// separators relaxed, so "/srv/builds/ab" also matches "-srv-builds-ab" and
// "\srv\builds\ab". Conventional homes return nil; the standard patterns
// already cover them. A drive-letter colon becomes optional because WSL and
// MSYS2 render C:\ as /c/.
func customHomePattern(home string) (*regexp.Regexp, error) {
	if strings.HasPrefix(home, "/Users/") ||
		strings.HasPrefix(home, "/home/") ||
		strings.HasPrefix(home, `C:\Users\`) {
		return nil, nil
	}
	expr := regexp.QuoteMeta(strings.ReplaceAll(home, `\`, "/"))
	expr = strings.ReplaceAll(expr, "/", `[/\\-]+`)
	expr = strings.ReplaceAll(expr, ":", ":?")
	return cachedPattern("custom:"+home, "(?i)"+expr)
}

func isAlnum(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// replaceToken applies repl to every whole-token match of re in text. A match
// is a whole token when the bytes adjacent to it are not alphanumeric;
// underscore and hyphen count as separators so identities embedded in joined
// path segments and filenames are still caught.
func replaceToken(text string, re *regexp.Regexp, repl func(match string) string) string {
	locs := re.FindAllStringIndex(text, -1)
	if locs == nil {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, loc := range locs {
		start, end := loc[0], loc[1]
		if start > 0 && isAlnum(text[start-1]) {
			continue
		}
		if end < len(text) && isAlnum(text[end]) {
			continue
		}
		b.WriteString(text[last:start])
		b.WriteString(repl(text[start:end]))
		last = end
	}
	b.WriteString(text[last:])
	return b.String()
}

// replaceHomeToken rewrites home-marker-anchored occurrences of a short
// username, keeping the marker prefix: "/Users/ab/x" -> "/Users/<hash>/x".
// The pattern anchors the left edge itself; only the right edge needs a
// boundary check.
func replaceHomeToken(text string, re *regexp.Regexp, hash string) string {
	locs := re.FindAllStringSubmatchIndex(text, -1)
	if locs == nil {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, loc := range locs {
		end := loc[1]
		prefixEnd := loc[3]
		if end < len(text) && isAlnum(text[end]) {
			continue
		}
		b.WriteString(text[last:prefixEnd])
		b.WriteString(hash)
		last = end
	}
	b.WriteString(text[last:])
	return b.String()
}
