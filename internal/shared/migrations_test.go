package shared

import (
	"testing"
)

func TestMigrationRunner(t *testing.T) {
	t.Run("loadMigrations", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}

		if len(migrations) < 2 {
			t.Fatalf("expected at least two migrations, got %d", len(migrations))
		}

		for i := 1; i < len(migrations); i++ {
			if migrations[i].Version <= migrations[i-1].Version {
				t.Errorf("migrations not sorted: version %d comes after %d", migrations[i].Version, migrations[i-1].Version)
			}
		}

		for _, m := range migrations {
			if m.Up == "" || m.Down == "" {
				t.Errorf("migration version %d is incomplete", m.Version)
			}
			if m.Name == "" {
				t.Errorf("migration version %d has no name", m.Version)
			}
		}

		if migrations[0].Name != "create_tables" {
			t.Errorf("expected first migration named create_tables, got %q", migrations[0].Name)
		}
	})

	t.Run("RunMigrations creates the preference, cookie and export tables", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		for _, table := range []string{"preferences", "cookies", "exports"} {
			if _, err := db.Exec("SELECT 1 FROM " + table + " LIMIT 1"); err != nil {
				t.Errorf("%s table should exist after migrations: %v", table, err)
			}
		}
	})

	t.Run("RollbackMigration removes only the newest migration", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		before, err := AppliedVersions(db)
		if err != nil {
			t.Fatalf("failed to list versions: %v", err)
		}

		if err := RollbackMigration(db); err != nil {
			t.Fatalf("failed to rollback migration: %v", err)
		}

		after, err := AppliedVersions(db)
		if err != nil {
			t.Fatalf("failed to list versions after rollback: %v", err)
		}
		if len(after) != len(before)-1 {
			t.Errorf("expected %d applied versions after rollback, got %d", len(before)-1, len(after))
		}

		if _, err := db.Exec("SELECT 1 FROM exports LIMIT 1"); err == nil {
			t.Error("exports table should be gone after rollback")
		}
		if _, err := db.Exec("SELECT 1 FROM cookies LIMIT 1"); err != nil {
			t.Errorf("cookies table should survive rollback: %v", err)
		}
	})

	t.Run("RollbackMigration with nothing applied fails", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := createMigrationsTable(db); err != nil {
			t.Fatalf("failed to create migrations table: %v", err)
		}
		if err := RollbackMigration(db); err == nil {
			t.Error("expected an error when no migrations are applied")
		}
	})

	t.Run("Idempotent Migrations", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations first time: %v", err)
		}

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations second time: %v", err)
		}

		applied, err := AppliedVersions(db)
		if err != nil {
			t.Fatalf("failed to list versions: %v", err)
		}

		migrations, _ := loadMigrations()
		if len(applied) != len(migrations) {
			t.Errorf("expected %d migrations to be applied, got %d", len(migrations), len(applied))
		}
	})

	t.Run("removeComments", func(t *testing.T) {
		got := removeComments("-- heading\nCREATE TABLE t (x INT); -- trailing\n\n")
		if got != "CREATE TABLE t (x INT);" {
			t.Errorf("unexpected result %q", got)
		}
	})
}

func TestOpenDatabase(t *testing.T) {
	t.Run("migrates a fresh file", func(t *testing.T) {
		db, err := OpenDatabase(DatabaseConfig{Path: t.TempDir() + "/flickx.db", MaxOpenConns: 1, MaxIdleConns: 1})
		if err != nil {
			t.Fatalf("OpenDatabase failed: %v", err)
		}
		defer db.Close()

		if _, err := db.Exec("SELECT 1 FROM preferences LIMIT 1"); err != nil {
			t.Errorf("preferences table should exist: %v", err)
		}
	})

	t.Run("rejects an empty path", func(t *testing.T) {
		if _, err := OpenDatabase(DatabaseConfig{}); err == nil {
			t.Error("expected an error for an empty path")
		}
	})
}
