// Package records turns vault notes into typed records and locates the note a
// wikilink reference points at.
package records

import (
	"slices"
	"strings"

	"github.com/starford/herald/internal/models"
)

// Source is the record collaborator consumed by the group registry and the
// preference resolver.
type Source interface {
	// List returns handles for the notes matching filter.
	List(filter Filter) ([]models.RecordHandle, error)
	// Read parses the note at path. Missing notes yield apperr.ErrNotFound.
	Read(path string) (*models.Record, error)
	// Locate maps a reference (link, alias, bare name, or path) to a note path.
	Locate(ref string) (string, bool)
}

// Filter narrows a listing to a folder and/or a tag.
type Filter struct {
	Folder string `yaml:"folder" json:"folder,omitempty"`
	Tag    string `yaml:"tag" json:"tag,omitempty"`
}

// matchTag reports whether tags include the filter tag (case-insensitive,
// nested tags like "team/eng" match "team").
func (f Filter) matchTag(tags []string) bool {
	want := strings.ToLower(strings.TrimPrefix(f.Tag, "#"))
	if want == "" {
		return true
	}
	return slices.ContainsFunc(tags, func(t string) bool {
		t = strings.ToLower(t)
		return t == want || strings.HasPrefix(t, want+"/")
	})
}
