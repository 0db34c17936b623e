package storage

import (
	"testing"

	"tweetlink/internal/models"
)

func TestOpenAndMigrate(t *testing.T) {
	db, err := Open(":memory:", false)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer Close(db)

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	for _, m := range models.All() {
		if !db.Migrator().HasTable(m) {
			t.Errorf("table for %T not created", m)
		}
	}

	// Running twice must be harmless.
	if err := Migrate(db); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
}

func TestWithPragmas(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"app.db", "app.db?_foreign_keys=on"},
		{"file:x?mode=memory", "file:x?mode=memory&_foreign_keys=on"},
	}
	for _, tt := range tests {
		if got := withPragmas(tt.in); got != tt.want {
			t.Errorf("withPragmas(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
