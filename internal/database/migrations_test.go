package database

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestLoadMigrations_OrdersByVersionAndSkipsNonNumbered(t *testing.T) {
	fsys := fstest.MapFS{
		"002_b.sql": {Data: []byte("SELECT 2")},
		"001_a.sql": {Data: []byte("SELECT 1")},
		"README.md": {Data: []byte("docs")},
		"x.sql":     {Data: []byte("SELECT 0")},
		"010_c.sql": {Data: []byte("SELECT 10")},
	}

	got, err := loadMigrations(fsys)
	if err != nil {
		t.Fatalf("loadMigrations: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(got))
	}
	want := []int{1, 2, 10}
	for i, m := range got {
		if m.version != want[i] {
			t.Fatalf("migration %d: expected version %d, got %d", i, want[i], m.version)
		}
	}
}

func TestEmbeddedMigrationsCreateTables(t *testing.T) {
	got, err := loadMigrations(Migrations())
	if err != nil {
		t.Fatalf("loadMigrations: %v", err)
	}
	var all strings.Builder
	for _, m := range got {
		all.WriteString(m.sql)
	}
	for _, table := range []string{"llm_logs", "feature_flags"} {
		if !strings.Contains(all.String(), table) {
			t.Fatalf("expected embedded migrations to create %s", table)
		}
	}
}

func TestOpenSQLite_CreatesSchema(t *testing.T) {
	db, err := OpenSQLite(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer db.Close()

	for _, table := range []string{"llm_logs", "feature_flags"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name = ?", table).Scan(&name)
		if err != nil {
			t.Fatalf("expected table %s: %v", table, err)
		}
	}
}
