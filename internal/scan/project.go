package scan

import (
	"path/filepath"
	"strings"
)

// containerDirs are common home subdirectories skipped when deriving a
// project label from an encoded path.
var containerDirs = map[string]bool{
	"Documents": true,
	"Downloads": true,
	"Desktop":   true,
}

// DisplayName converts a hyphen-encoded project directory name to a
// human-readable label:
//
//	-Users-alice-Documents-myapp -> myapp
//	-home-bob-project            -> project
//	standalone                   -> standalone
//
// The meaningful tail is re-joined from the original hyphen segments so a
// hyphenated project name like "my-app" survives the round trip.
func DisplayName(dirName string) string {
	path := strings.ReplaceAll(dirName, "-", "/")
	path = strings.TrimLeft(path, "/")
	parts := strings.Split(path, "/")

	var meaningful []string
	switch {
	case len(parts) >= 2 && parts[0] == "Users":
		if len(parts) >= 4 && containerDirs[parts[2]] {
			meaningful = parts[3:]
		} else if len(parts) >= 3 && !containerDirs[parts[2]] {
			meaningful = parts[2:]
		}
	case len(parts) >= 2 && parts[0] == "home":
		if len(parts) > 2 {
			meaningful = parts[2:]
		}
	default:
		meaningful = parts
	}

	if len(meaningful) > 0 {
		segments := strings.Split(strings.TrimLeft(dirName, "-"), "-")
		prefix := len(parts) - len(meaningful)
		if name := strings.Join(segments[prefix:], "-"); name != "" {
			return name
		}
		return dirName
	}

	// No tail: a home-marker placeholder beats echoing the raw identifier.
	if len(parts) >= 2 && (parts[0] == "Users" || parts[0] == "home") {
		if len(parts) == 2 {
			return "~home"
		}
		if len(parts) == 3 && containerDirs[parts[2]] {
			return "~" + parts[2]
		}
	}
	if name := strings.Trim(dirName, "-"); name != "" {
		return name
	}
	return "unknown"
}

// CursorDisplayName labels a cursor workspace path.
func CursorDisplayName(cwd string) string {
	if cwd == "" || strings.HasPrefix(cwd, "<") {
		return "cursor:unknown"
	}
	name := filepath.Base(cwd)
	if name == "" || name == "." || name == "/" {
		name = cwd
	}
	return "cursor:" + name
}
