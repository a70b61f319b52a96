package parser

import (
	"path"
	"strings"
)

const noteExt = ".md"

// LinkTarget strips wikilink brackets and an alias segment from ref:
// "[[people/Alice|Al]]" becomes "people/Alice". Directories and the
// extension are kept.
func LinkTarget(ref string) string {
	s := ref
	// Removing one bracket pair can join two halves into another.
	for strings.Contains(s, "[[") || strings.Contains(s, "]]") {
		s = strings.ReplaceAll(s, "[[", "")
		s = strings.ReplaceAll(s, "]]", "")
	}
	if i := strings.Index(s, "|"); i >= 0 {
		s = s[:i]
	}
	// Heading and block anchors point into the same note.
	if i := strings.Index(s, "#"); i > 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// Normalize reduces a person or group reference to its comparison key: the
// lowercase basename without link syntax, alias, or .md extension.
//
// Two notes with the same file name in different folders share a key.
func Normalize(ref string) string {
	s := strings.ReplaceAll(LinkTarget(ref), "\\", "/")
	s = strings.TrimRight(s, "/")
	if s == "" {
		return ""
	}
	s = cutAnchor(strings.TrimSpace(path.Base(s)))
	for len(s) >= len(noteExt) && strings.EqualFold(s[len(s)-len(noteExt):], noteExt) {
		s = strings.TrimSpace(s[:len(s)-len(noteExt)])
	}
	return strings.ToLower(s)
}

func cutAnchor(s string) string {
	if i := strings.Index(s, "#"); i > 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
