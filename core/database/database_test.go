package database

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/m3rciful/trainbot/core/config"
)

func TestConnectionStrings(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host: "db", Port: "5432", User: "bot", Password: "p@ss word", Name: "trains", SSLMode: "disable",
	}
	if got := DSN(cfg); got != "user=bot password=p@ss word host=db port=5432 dbname=trains sslmode=disable" {
		t.Fatalf("DSN = %s", got)
	}
	if got := MigrateURL(cfg); got != "postgres://bot:p%40ss%20word@db:5432/trains?sslmode=disable" {
		t.Fatalf("MigrateURL = %s", got)
	}
}

func TestMigrationFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000002_seed.up.sql", "000001_init.up.sql", "000001_init.down.sql", "notes.txt",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	files := listMigrationFiles(dir)
	want := []string{"000001_init.up.sql", "000002_seed.up.sql"}
	if !reflect.DeepEqual(files, want) {
		t.Fatalf("files = %v", files)
	}
	if got := appliedBetween(files, 1, 2); !reflect.DeepEqual(got, want[1:]) {
		t.Fatalf("applied = %v", got)
	}
	if got := appliedBetween(files, 2, 2); len(got) != 0 {
		t.Fatalf("applied = %v", got)
	}
	if migrationVersion("bogus.up.sql") != 0 {
		t.Fatal("bogus version parsed")
	}
}

func TestMigrationsDirIsValid(t *testing.T) {
	files := listMigrationFiles(filepath.Join("..", "..", "migrations"))
	if len(files) == 0 {
		t.Fatal("no migrations found")
	}
	for _, f := range files {
		down := filepath.Join("..", "..", "migrations", f[:len(f)-len(".up.sql")]+".down.sql")
		if _, err := os.Stat(down); err != nil {
			t.Fatalf("missing down migration for %s", f)
		}
	}
}
