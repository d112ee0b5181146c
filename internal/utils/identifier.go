package utils

import (
	"path"
	"strings"
)

// CleanIdentifier reduces a client-supplied filename to the identifier used
// for both content and metadata. Directory components are dropped so content
// always lands directly in the content directory. The boolean is false when
// nothing usable remains, which callers treat like an empty filename.
func CleanIdentifier(fileName string) (string, bool) {
	name := strings.ReplaceAll(fileName, "\\", "/")
	name = path.Base(name)

	if !ValidIdentifier(name) {
		return "", false
	}
	return name, true
}

// ValidIdentifier reports whether id can address stored content without
// escaping the content directory.
func ValidIdentifier(id string) bool {
	if id == "" || id == "." || id == ".." || len(id) > 255 {
		return false
	}
	return !strings.ContainsAny(id, "/\\\x00")
}
