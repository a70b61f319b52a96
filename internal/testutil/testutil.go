// Package testutil provides shared test helpers for setting up vaults and
// local stores.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/herald/internal/localstore"
	"github.com/starford/herald/internal/storage"
)

// TestDB creates a temporary SQLite key/value store that is automatically
// cleaned up.
func TestDB(t *testing.T) *localstore.DB {
	t.Helper()
	db, err := localstore.Open(filepath.Join(t.TempDir(), "herald-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory with a storage.Provider.
func TestVault(t *testing.T) (string, storage.Provider) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// WriteNote writes a Markdown note at rel (relative to vaultDir), creating
// parent folders.
func WriteNote(t *testing.T, vaultDir, rel, content string) {
	t.Helper()
	abs := filepath.Join(vaultDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// Person returns note content for a person record with the given extra
// frontmatter lines.
func Person(extra ...string) string {
	return frontmatter(append([]string{"type: person"}, extra...))
}

// Group returns note content for a group record listing members.
func Group(members ...string) string {
	lines := []string{"type: group", "members:"}
	for _, m := range members {
		lines = append(lines, "  - \""+m+"\"")
	}
	return frontmatter(lines)
}

func frontmatter(lines []string) string {
	out := "---\n"
	for _, l := range lines {
		out += l + "\n"
	}
	return out + "---\n"
}
