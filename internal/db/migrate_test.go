package db

import (
	"testing"
)

func TestMigrateLifecycle(t *testing.T) {
	database := newTestDB(t)

	version, dirty, err := database.MigrateVersion()
	if err != nil {
		t.Fatalf("MigrateVersion failed: %v", err)
	}
	if version != 1 || dirty {
		t.Errorf("fresh database at version %d (dirty %v), want 1 clean", version, dirty)
	}

	// Up on a migrated database is a no-op, not an error.
	if err := database.MigrateUp(); err != nil {
		t.Errorf("MigrateUp on current database failed: %v", err)
	}

	if err := database.MigrateDown(); err != nil {
		t.Fatalf("MigrateDown failed: %v", err)
	}
	version, dirty, err = database.MigrateVersion()
	if err != nil {
		t.Fatalf("MigrateVersion after down failed: %v", err)
	}
	if version != 0 || dirty {
		t.Errorf("rolled-back database at version %d (dirty %v), want 0 clean", version, dirty)
	}

	// Force stamps the version without replaying the migration.
	if err := database.MigrateForce(1); err != nil {
		t.Fatalf("MigrateForce failed: %v", err)
	}
	version, dirty, err = database.MigrateVersion()
	if err != nil {
		t.Fatalf("MigrateVersion after force failed: %v", err)
	}
	if version != 1 || dirty {
		t.Errorf("forced database at version %d (dirty %v), want 1 clean", version, dirty)
	}
}
