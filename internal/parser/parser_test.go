package parser

import "testing"

func TestParse_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Team Alpha\ntype: group\ntags:\n  - team\nmembers:\n  - \"[[Alice]]\"\n---\n# Heading\nBody text.\n")
	r := Parse("teams/alpha.md", input)
	if r.Title != "Team Alpha" {
		t.Errorf("title = %q, want %q", r.Title, "Team Alpha")
	}
	if len(r.Tags) != 1 || r.Tags[0] != "team" {
		t.Errorf("tags = %v, want [team]", r.Tags)
	}
	if r.Frontmatter["type"] != "group" {
		t.Errorf("type = %v", r.Frontmatter["type"])
	}
	if r.Body != "# Heading\nBody text.\n" {
		t.Errorf("body = %q", r.Body)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	r := Parse("a.md", []byte("# Just a heading\nSome text.\n"))
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter, got %v", r.Frontmatter)
	}
	if r.Title != "Just a heading" {
		t.Errorf("title = %q, want %q", r.Title, "Just a heading")
	}
}

func TestParse_InvalidYAMLFallback(t *testing.T) {
	r := Parse("a.md", []byte("---\n: invalid: yaml: {{{\n---\nBody\n"))
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter on invalid YAML")
	}
}

func TestDeriveTitle_FileStemFallback(t *testing.T) {
	if got := deriveTitle(nil, "no heading", "people/Alice Smith.md"); got != "Alice Smith" {
		t.Errorf("title = %q", got)
	}
}

func TestExtractTags_InlineAndFrontmatter(t *testing.T) {
	fm := map[string]any{"tags": []any{"alpha", 3}}
	tags := extractTags("Some text #beta and #alpha again.", fm)
	if len(tags) != 2 || tags[0] != "alpha" || tags[1] != "beta" {
		t.Errorf("tags = %v, want [alpha beta]", tags)
	}
}

func TestExtractTags_SingleString(t *testing.T) {
	tags := extractTags("", map[string]any{"tags": "#people"})
	if len(tags) != 1 || tags[0] != "people" {
		t.Errorf("tags = %v, want [people]", tags)
	}
}
