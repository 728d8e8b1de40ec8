package shared

import (
	"testing"
)

func TestMigrationRunner(t *testing.T) {
	t.Run("parseMigrationName", func(t *testing.T) {
		tt := []struct {
			file      string
			version   int
			name      string
			direction string
			ok        bool
		}{
			{file: "0000_create_history_up.sql", version: 0, name: "create_history", direction: "up", ok: true},
			{file: "0012_add_index_down.sql", version: 12, name: "add_index", direction: "down", ok: true},
			{file: "0001_create_history.sql", ok: false},
			{file: "readme.md", ok: false},
			{file: "abc_thing_up.sql", ok: false},
		}

		for _, tc := range tt {
			t.Run(tc.file, func(t *testing.T) {
				version, name, direction, ok := parseMigrationName(tc.file)
				if ok != tc.ok {
					t.Fatalf("ok = %v, want %v", ok, tc.ok)
				}
				if !ok {
					return
				}
				if version != tc.version || name != tc.name || direction != tc.direction {
					t.Errorf("got (%d, %s, %s), want (%d, %s, %s)", version, name, direction, tc.version, tc.name, tc.direction)
				}
			})
		}
	})

	t.Run("loadMigrations", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}
		if len(migrations) == 0 {
			t.Fatal("expected at least one migration")
		}

		for i := 1; i < len(migrations); i++ {
			if migrations[i].Version <= migrations[i-1].Version {
				t.Errorf("migrations not sorted: version %d comes after %d", migrations[i].Version, migrations[i-1].Version)
			}
		}
	})

	t.Run("RunMigrations And Rollback", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()
		db.SetMaxOpenConns(1)

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
		if err := RunMigrations(db); err != nil {
			t.Fatalf("running migrations twice should be a no-op: %v", err)
		}

		for _, table := range []string{"queries", "downloads"} {
			if _, err := db.Exec("SELECT 1 FROM " + table + " LIMIT 1"); err != nil {
				t.Errorf("%s table should exist after migrations: %v", table, err)
			}
		}

		version, err := CurrentVersion(db)
		if err != nil {
			t.Fatalf("failed to read version: %v", err)
		}
		if version != 0 {
			t.Errorf("expected version 0, got %d", version)
		}

		if err := RollbackMigration(db); err != nil {
			t.Fatalf("failed to rollback migration: %v", err)
		}
		if _, err := db.Exec("SELECT 1 FROM queries LIMIT 1"); err == nil {
			t.Error("queries table should be gone after rollback")
		}

		if err := RollbackMigration(db); err == nil {
			t.Error("expected error when nothing is left to roll back")
		}
	})

	t.Run("OpenHistoryDatabase", func(t *testing.T) {
		db, err := OpenHistoryDatabase(DatabaseConfig{Path: ":memory:", MaxOpenConns: 1, MaxIdleConns: 1})
		if err != nil {
			t.Fatalf("failed to open history database: %v", err)
		}
		defer db.Close()

		if _, err := db.Exec("SELECT 1 FROM downloads LIMIT 1"); err != nil {
			t.Errorf("downloads table should exist: %v", err)
		}
	})
}
