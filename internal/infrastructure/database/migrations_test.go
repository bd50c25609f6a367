package database

import (
	"context"
	"embed"
	"testing"
	"testing/fstest"
)

//go:embed testdata
var testMigrationsFS embed.FS

const testMigrationsDir = "testdata"

func tableExists(t *testing.T, db *DB, kind, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM sqlite_master WHERE type = ? AND name = ?", kind, name,
	).Scan(&n)
	if err != nil {
		t.Fatalf("sqlite_master query error = %v", err)
	}
	return n > 0
}

func TestMigrate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx, testMigrationsFS, testMigrationsDir); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	if !tableExists(t, db, "table", "probes") {
		t.Error("table probes not created")
	}
	if !tableExists(t, db, "index", "idx_probes_uri") {
		t.Error("index idx_probes_uri not created")
	}

	applied, pending, err := db.MigrationStatus(ctx, testMigrationsFS, testMigrationsDir)
	if err != nil {
		t.Fatalf("MigrationStatus() error = %v", err)
	}
	if len(applied) != 2 || len(pending) != 0 {
		t.Errorf("applied = %d, pending = %d; want 2, 0", len(applied), len(pending))
	}
	if applied[0].AppliedAt.IsZero() {
		t.Error("AppliedAt not recorded")
	}

	// Idempotent.
	if err := db.Migrate(ctx, testMigrationsFS, testMigrationsDir); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
}

func TestMigrateDown(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx, testMigrationsFS, testMigrationsDir); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	// Only the latest migration is rolled back.
	if err := db.MigrateDown(ctx, testMigrationsFS, testMigrationsDir); err != nil {
		t.Fatalf("MigrateDown() error = %v", err)
	}
	if tableExists(t, db, "index", "idx_probes_uri") {
		t.Error("index idx_probes_uri should have been dropped")
	}
	if !tableExists(t, db, "table", "probes") {
		t.Error("table probes should remain")
	}

	applied, pending, err := db.MigrationStatus(ctx, testMigrationsFS, testMigrationsDir)
	if err != nil {
		t.Fatalf("MigrationStatus() error = %v", err)
	}
	if len(applied) != 1 || len(pending) != 1 {
		t.Errorf("applied = %d, pending = %d; want 1, 1", len(applied), len(pending))
	}
}

func TestMigrateDown_NothingApplied(t *testing.T) {
	db := openTestDB(t)

	if err := db.MigrateDown(context.Background(), testMigrationsFS, testMigrationsDir); err != nil {
		t.Errorf("MigrateDown() on fresh database error = %v", err)
	}
}

func TestMigrate_NilFS(t *testing.T) {
	db := openTestDB(t)

	if err := db.Migrate(context.Background(), nil, "."); err != nil {
		t.Errorf("Migrate() with nil FS error = %v", err)
	}
}

func TestMigrate_FailureStopsRun(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	fsys := fstest.MapFS{
		"20260101_000000_ok.up.sql":     {Data: []byte("CREATE TABLE ok_table (id TEXT);")},
		"20260102_000000_broken.up.sql": {Data: []byte("CREATE TABLE;")},
		"20260103_000000_later.up.sql":  {Data: []byte("CREATE TABLE later_table (id TEXT);")},
	}

	if err := db.Migrate(ctx, fsys, "."); err == nil {
		t.Fatal("Migrate() expected error for broken migration")
	}

	if !tableExists(t, db, "table", "ok_table") {
		t.Error("migration before the failure should stay applied")
	}
	if tableExists(t, db, "table", "later_table") {
		t.Error("migration after the failure should not run")
	}
}

func TestLoadMigrations(t *testing.T) {
	t.Run("sorted and paired", func(t *testing.T) {
		migrations, err := LoadMigrations(testMigrationsFS, testMigrationsDir)
		if err != nil {
			t.Fatalf("LoadMigrations() error = %v", err)
		}
		if len(migrations) != 2 {
			t.Fatalf("len = %d, want 2", len(migrations))
		}
		if migrations[0].Version != "20260101_000000" || migrations[0].Name != "create_probes" {
			t.Errorf("migrations[0] = %s/%s", migrations[0].Version, migrations[0].Name)
		}
		if migrations[0].DownSQL == "" {
			t.Error("migrations[0].DownSQL is empty")
		}
	})

	t.Run("down without up", func(t *testing.T) {
		fsys := fstest.MapFS{
			"20260101_000000_orphan.down.sql": {Data: []byte("DROP TABLE x;")},
		}
		if _, err := LoadMigrations(fsys, "."); err == nil {
			t.Error("LoadMigrations() expected error for missing up SQL")
		}
	})

	t.Run("missing directory", func(t *testing.T) {
		if _, err := LoadMigrations(fstest.MapFS{}, "nope"); err == nil {
			t.Error("LoadMigrations() expected error for missing directory")
		}
	})
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		filename    string
		wantVersion string
		wantName    string
		wantUp      bool
		wantOK      bool
	}{
		{"20260101_000000_diagnostic_requests.up.sql", "20260101_000000", "diagnostic_requests", true, true},
		{"20260101_000000_diagnostic_requests.down.sql", "20260101_000000", "diagnostic_requests", false, true},
		{"20260101_000000.up.sql", "20260101_000000", "20260101_000000", true, true},
		{"README.txt", "", "", false, false},
		{"20260101_000000_no_direction.sql", "", "", false, false},
		{"invalid.up.sql", "", "", false, false},
		{"2026_01_short.up.sql", "", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, up, ok := parseMigrationFilename(tt.filename)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if version != tt.wantVersion || name != tt.wantName || up != tt.wantUp {
				t.Errorf("got (%q, %q, %v), want (%q, %q, %v)",
					version, name, up, tt.wantVersion, tt.wantName, tt.wantUp)
			}
		})
	}
}
