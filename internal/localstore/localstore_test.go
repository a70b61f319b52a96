package localstore

import (
	"path/filepath"
	"testing"
)

func testDB(t *testing.T) (*DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "herald.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, path
}

func TestSchemaCreation(t *testing.T) {
	db, _ := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM kv`).Scan(&count); err != nil {
		t.Fatalf("kv table missing: %v", err)
	}
}

func TestLoadMissing(t *testing.T) {
	db, _ := testDB(t)
	v, ok, err := db.Load("nothing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok || v != "" {
		t.Errorf("Load = %q, %v; want absent", v, ok)
	}
}

func TestSaveAndOverwrite(t *testing.T) {
	db, _ := testDB(t)
	if err := db.Save("prefs", `{"checkInterval":3}`); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := db.Save("prefs", `{"checkInterval":7}`); err != nil {
		t.Fatalf("Save: %v", err)
	}
	v, ok, err := db.Load("prefs")
	if err != nil || !ok {
		t.Fatalf("Load: %v, %v", ok, err)
	}
	if v != `{"checkInterval":7}` {
		t.Errorf("value = %q", v)
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	db, path := testDB(t)
	_ = db.Save("k", "v")
	db.Close()

	again, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer again.Close()
	if v, ok, _ := again.Load("k"); !ok || v != "v" {
		t.Errorf("after reopen = %q, %v", v, ok)
	}
}
