package parser

import "testing"

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"[[Alice]]":                   "alice",
		"[[people/Alice|Al]]":         "alice",
		"people/Alice.md":             "alice",
		"  Bob  ":                     "bob",
		"[[Team Alpha]]":              "team alpha",
		"[[Teams/Team Alpha#Roster]]": "team alpha",
		`people\Carol.MD`:             "carol",
		"":                            "",
		"[[]]":                        "",
		"[]][Alice]]":                 "alice",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"[[people/Alice|Al]]",
		"a.md.md",
		"x/[[y",
		"dir/ spaced .md",
		"UPPER/Case.Md",
		"#tag",
		"/",
		".md",
		"a|b|c",
		"[]][x",
		"[]][Alice]]",
		"[[[[a]]]]",
		"#a/b#c",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestNormalize_BasenameCollision(t *testing.T) {
	if Normalize("eng/Alice") != Normalize("sales/alice.md") {
		t.Error("same basename in different folders should share a key")
	}
}

func TestLinkTarget(t *testing.T) {
	if got := LinkTarget("[[people/Alice|Al]]"); got != "people/Alice" {
		t.Errorf("LinkTarget = %q", got)
	}
	if got := LinkTarget("Bob"); got != "Bob" {
		t.Errorf("LinkTarget = %q", got)
	}
}
