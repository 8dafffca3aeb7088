package database

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestMigrationFilesOrdering(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"0002_add_index.up.sql",
		"0001_init.up.sql",
		"0001_init.down.sql",
		"0002_add_index.down.sql",
		"README.md",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	up, err := MigrationFiles(dir, "up")
	if err != nil {
		t.Fatalf("up: %v", err)
	}
	if want := []string{"0001_init.up.sql", "0002_add_index.up.sql"}; !reflect.DeepEqual(up, want) {
		t.Fatalf("up order = %v, want %v", up, want)
	}

	down, err := MigrationFiles(dir, "down")
	if err != nil {
		t.Fatalf("down: %v", err)
	}
	if want := []string{"0002_add_index.down.sql", "0001_init.down.sql"}; !reflect.DeepEqual(down, want) {
		t.Fatalf("down order = %v, want %v", down, want)
	}
}

func TestMigrationFilesRejectsDirection(t *testing.T) {
	if _, err := MigrationFiles(t.TempDir(), "sideways"); err == nil {
		t.Fatalf("expected error for unknown direction")
	}
}
